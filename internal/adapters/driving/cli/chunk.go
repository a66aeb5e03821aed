package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var chunkMetadata []string

var chunkCmd = &cobra.Command{
	Use:   "chunk",
	Short: "Manage chunks within a document",
}

var chunkAddCmd = &cobra.Command{
	Use:   "add [document-id] [text]",
	Short: "Embed text and add it as a chunk",
	Args:  cobra.ExactArgs(2),
	RunE:  runChunkAdd,
}

var chunkDeleteCmd = &cobra.Command{
	Use:   "delete [chunk-id]",
	Short: "Delete a chunk",
	Args:  cobra.ExactArgs(1),
	RunE:  runChunkDelete,
}

func init() {
	chunkAddCmd.Flags().StringArrayVar(&chunkMetadata, "meta", nil, "metadata as key=value (repeatable)")

	chunkCmd.AddCommand(chunkAddCmd, chunkDeleteCmd)
	rootCmd.AddCommand(chunkCmd)
}

func runChunkAdd(cmd *cobra.Command, args []string) error {
	metadata, err := parseMetadata(chunkMetadata)
	if err != nil {
		return err
	}

	chunk, err := libraryService.AddChunk(context.Background(), args[0], args[1], metadata)
	if err != nil {
		return err
	}
	cmd.Printf("created chunk %s\n", chunk.ID)
	return nil
}

func runChunkDelete(cmd *cobra.Command, args []string) error {
	if err := libraryService.DeleteChunk(args[0]); err != nil {
		return err
	}
	cmd.Printf("deleted chunk %s\n", args[0])
	return nil
}
