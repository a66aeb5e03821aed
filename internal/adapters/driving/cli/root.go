// Package cli implements the command-line driving adapter: a cobra command
// tree over LibraryService, mapping domain error kinds to process exit
// codes at the edge instead of HTTP status codes.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vectordb/internal/adapters/driven/config/file"
	"github.com/custodia-labs/vectordb/internal/adapters/driven/embedding/httpembed"
	"github.com/custodia-labs/vectordb/internal/adapters/driven/embedding/local"
	"github.com/custodia-labs/vectordb/internal/core/domain"
	"github.com/custodia-labs/vectordb/internal/core/ports/driven"
	"github.com/custodia-labs/vectordb/internal/core/services"
	"github.com/custodia-labs/vectordb/internal/logger"
)

const version = "0.1.0"

var (
	verbose   bool
	configDir string

	cfgStore       driven.ConfigStore
	libraryService *services.LibraryService

	// snapshotStore is the default store setup loads from and persist
	// saves to. Nil when storage.mode is "memory", in which case a
	// process's state never outlives it.
	snapshotStore driven.SnapshotStore
)

var rootCmd = &cobra.Command{
	Use:   "vectordb",
	Short: "A library/document/chunk vector similarity search service",
	Long: `vectordb stores text as chunks inside documents inside libraries,
embeds each chunk, and answers nearest-neighbour queries over a
configurable index (brute force, HNSW, or LSH).`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: persist,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default: ~/.vectordb)")
}

// setup wires the config store and library service once, before any
// subcommand's RunE executes, then loads whatever state a prior
// invocation persisted: each process invocation is a single command, so
// without this every command would start from an empty service and
// "library create" followed by "library list" in two separate
// invocations would never see the same data.
func setup(cmd *cobra.Command, args []string) error {
	logger.SetVerbose(verbose)

	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	cfgStore = store

	provider, err := buildEmbeddingProvider(cfgStore)
	if err != nil {
		return err
	}

	libraryService = services.NewLibraryService(provider)

	if cfgStore.GetString("storage.mode") == "memory" {
		snapshotStore = nil
		return nil
	}

	snapshotStore, err = defaultSnapshotStore(cfgStore)
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}

	snapshot, err := snapshotStore.Load()
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load snapshot: %w", err)
	}
	return libraryService.ImportSnapshot(snapshot)
}

// persist saves the service's current state back to the default snapshot
// store after a command completes, so the next invocation's setup sees
// it. Runs for every command, not only the mutating ones, which makes
// this the write side of setup's load: together they give the CLI
// continuity across process invocations without the caller having to
// remember to run snapshot save/load by hand.
func persist(cmd *cobra.Command, args []string) error {
	if snapshotStore == nil {
		return nil
	}
	return snapshotStore.Save(libraryService.ExportSnapshot())
}

// defaultSnapshotStore resolves the store setup/persist use automatically,
// keyed by the storage.format/storage.path configuration values (distinct
// from the snapshot command's own --format/--path flags, which let a
// caller export to or import from a location other than this default).
func defaultSnapshotStore(cfg driven.ConfigStore) (driven.SnapshotStore, error) {
	format := cfg.GetString("storage.format")
	if format == "" {
		format = "yaml"
	}
	return openSnapshotStoreAt(format, cfg.GetString("storage.path"))
}

// buildEmbeddingProvider selects the HTTP provider when an API key is
// configured, falling back to the deterministic local provider otherwise
// (e.g. for offline use and tests).
func buildEmbeddingProvider(cfg driven.ConfigStore) (driven.EmbeddingProvider, error) {
	apiKey := cfg.GetString("embedding.api_key")
	dimensions := cfg.GetInt("embedding.dimensions")
	if dimensions == 0 {
		dimensions = 384
	}

	if apiKey == "" {
		return local.New(dimensions), nil
	}

	requestsPerSecond := cfg.GetInt("embedding.rate_limit_per_second")
	if requestsPerSecond == 0 {
		requestsPerSecond = 10
	}

	return httpembed.New(httpembed.Config{
		APIKey:            apiKey,
		BaseURL:           cfg.GetString("embedding.base_url"),
		Model:             cfg.GetString("embedding.model"),
		Dimensions:        dimensions,
		RequestsPerSecond: float64(requestsPerSecond),
		Burst:             requestsPerSecond,
	})
}

// Execute runs the root command. Called from cmd/vectordb/main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCodeFor(err))
	}
}
