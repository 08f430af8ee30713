package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/repolake/internal/artifact"
	"github.com/dbsmedya/repolake/internal/config"
	"github.com/dbsmedya/repolake/internal/database"
	"github.com/dbsmedya/repolake/internal/logger"
	"github.com/dbsmedya/repolake/internal/normalize"
	"github.com/dbsmedya/repolake/internal/render"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Re-export all known tables to Parquet",
	Long: `Export writes every raw, base, and derived table to a Parquet file
with embedded metadata, without touching table contents.

Export failures are isolated per table: the remaining tables are still
written and the result reports partial success.

Example:
  repolake export --config repolake.yaml --output-dir ./exports`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	// Load configuration
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Apply CLI overrides
	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat,
		overrides.BatchSize, overrides.SleepSeconds, overrides.OutputDir)

	// Initialize logger
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	ctx := database.SetupSignalHandler()

	// Connect to the store
	dbManager := database.NewManager(cfg)
	if err := dbManager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to store: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.Ping(ctx); err != nil {
		return fmt.Errorf("store connection failed: %w", err)
	}

	store := database.NewStore(dbManager.DB)
	orch := artifact.New(store, normalize.NewRegistry(), log)

	exports, err := orch.ExportAll(ctx, cfg.Ingest.QueryType, artifact.Options{
		ExportDir:   cfg.Export.OutputDir,
		Compression: cfg.Export.Compression,
	})
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	cmd.Println()
	cmd.Print(render.ExportReport(exports))

	failed := 0
	for _, exp := range exports {
		if exp.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("export completed with %d failures", failed)
	}
	return nil
}
