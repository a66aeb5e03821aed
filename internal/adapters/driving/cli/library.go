package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vectordb/internal/core/domain"
)

var (
	libraryDescription string
	libraryKind         string
	libraryDimension    int
	libraryJSON         bool

	hnswM              int
	hnswEfConstruction int
	hnswEfSearch       int
	hnswSeed           int64

	lshL          int
	lshK          int
	lshProbeDepth int
	lshSeed       int64
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage libraries",
}

var libraryCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new library",
	Args:  cobra.ExactArgs(1),
	RunE:  runLibraryCreate,
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List libraries",
	RunE:  runLibraryList,
}

var libraryGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show a library",
	Args:  cobra.ExactArgs(1),
	RunE:  runLibraryGet,
}

var libraryDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a library and everything it owns",
	Args:  cobra.ExactArgs(1),
	RunE:  runLibraryDelete,
}

var libraryReindexCmd = &cobra.Command{
	Use:   "reindex [id]",
	Short: "Rebuild a library's index from its current chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runLibraryReindex,
}

func init() {
	libraryCreateCmd.Flags().StringVar(&libraryDescription, "description", "", "free-form description")
	libraryCreateCmd.Flags().StringVar(&libraryKind, "kind", "BRUTE_FORCE", "index kind: BRUTE_FORCE, HNSW, or LSH")
	libraryCreateCmd.Flags().IntVar(&libraryDimension, "dim", 0, "embedding dimension (required)")
	libraryCreateCmd.Flags().IntVar(&hnswM, "hnsw-m", 16, "HNSW: max neighbours per node per layer")
	libraryCreateCmd.Flags().IntVar(&hnswEfConstruction, "hnsw-ef-construction", 200, "HNSW: construction candidate list size")
	libraryCreateCmd.Flags().IntVar(&hnswEfSearch, "hnsw-ef-search", 50, "HNSW: search candidate list size")
	libraryCreateCmd.Flags().Int64Var(&hnswSeed, "hnsw-seed", 1, "HNSW: RNG seed")
	libraryCreateCmd.Flags().IntVar(&lshL, "lsh-l", 8, "LSH: number of hash tables")
	libraryCreateCmd.Flags().IntVar(&lshK, "lsh-k", 10, "LSH: hyperplanes per table")
	libraryCreateCmd.Flags().IntVar(&lshProbeDepth, "lsh-probe-depth", 0, "LSH: multi-probe bit-flip depth (0 disables)")
	libraryCreateCmd.Flags().Int64Var(&lshSeed, "lsh-seed", 1, "LSH: RNG seed")

	libraryListCmd.Flags().BoolVar(&libraryJSON, "json", false, "output as JSON")
	libraryGetCmd.Flags().BoolVar(&libraryJSON, "json", false, "output as JSON")

	libraryCmd.AddCommand(libraryCreateCmd, libraryListCmd, libraryGetCmd, libraryDeleteCmd, libraryReindexCmd)
	rootCmd.AddCommand(libraryCmd)
}

func runLibraryCreate(cmd *cobra.Command, args []string) error {
	if libraryDimension < 1 {
		return fmt.Errorf("--dim is required and must be positive")
	}

	kind := domain.IndexKind(libraryKind)
	var hnswParams *domain.HNSWParams
	var lshParams *domain.LSHParams
	switch kind {
	case domain.HNSW:
		hnswParams = &domain.HNSWParams{M: hnswM, EfConstruction: hnswEfConstruction, EfSearch: hnswEfSearch, Seed: hnswSeed}
	case domain.LSH:
		lshParams = &domain.LSHParams{L: lshL, K: lshK, ProbeDepth: lshProbeDepth, Seed: lshSeed}
	}

	lib, err := libraryService.CreateLibrary(args[0], libraryDescription, kind, libraryDimension, hnswParams, lshParams)
	if err != nil {
		return err
	}
	cmd.Printf("created library %s (%s)\n", lib.ID, lib.Name)
	return nil
}

func runLibraryList(cmd *cobra.Command, args []string) error {
	libs := libraryService.ListLibraries()
	if libraryJSON {
		return printJSON(cmd, libs)
	}
	if len(libs) == 0 {
		cmd.Println("no libraries")
		return nil
	}
	for _, lib := range libs {
		cmd.Printf("%s\t%s\tkind=%s\tdim=%d\tdocs=%d\n", lib.ID, lib.Name, lib.Kind, lib.Dimension, len(lib.DocumentIDs))
	}
	return nil
}

func runLibraryGet(cmd *cobra.Command, args []string) error {
	lib, err := libraryService.GetLibrary(args[0])
	if err != nil {
		return err
	}
	if libraryJSON {
		return printJSON(cmd, lib)
	}
	cmd.Printf("id: %s\nname: %s\ndescription: %s\nkind: %s\ndimension: %d\ndocuments: %d\nindexed: %v\n",
		lib.ID, lib.Name, lib.Description, lib.Kind, lib.Dimension, len(lib.DocumentIDs), lib.IsIndexed)
	return nil
}

func runLibraryDelete(cmd *cobra.Command, args []string) error {
	if err := libraryService.DeleteLibrary(args[0]); err != nil {
		return err
	}
	cmd.Printf("deleted library %s\n", args[0])
	return nil
}

func runLibraryReindex(cmd *cobra.Command, args []string) error {
	if err := libraryService.RebuildIndex(args[0]); err != nil {
		return err
	}
	cmd.Printf("rebuilt index for library %s\n", args[0])
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
