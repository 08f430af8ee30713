package cmd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/repolake/internal/artifact"
	"github.com/dbsmedya/repolake/internal/config"
	"github.com/dbsmedya/repolake/internal/database"
	"github.com/dbsmedya/repolake/internal/fetch"
	"github.com/dbsmedya/repolake/internal/logger"
	"github.com/dbsmedya/repolake/internal/normalize"
	"github.com/dbsmedya/repolake/internal/render"
	"github.com/dbsmedya/repolake/internal/transform"
)

var (
	ingestInputDir  string
	ingestSkipSteps bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest captured responses into the analytical store",
	Long: `Ingest replays captured response files, appends them to the raw
audit table, normalizes them into base tables, builds configured search
indexes, exports every table to Parquet, and (unless disabled) runs the
transformation steps.

The ingest process follows these steps:
  1. Fetch captured responses in bounded-parallel batches
  2. Append raw payloads to the append-only audit table
  3. Normalize and fully replace the base tables
  4. Build full-text indexes over configured (table, column) pairs
  5. Export all tables to Parquet with embedded metadata

Example:
  repolake ingest --config repolake.yaml --input ./captures`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestInputDir, "input", "i", "",
		"Capture directory (overrides ingest.input_dir)")
	ingestCmd.Flags().BoolVar(&ingestSkipSteps, "skip-transform", false,
		"Skip the transformation steps after ingest")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
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
	if ingestInputDir != "" {
		cfg.Ingest.InputDir = ingestInputDir
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Initialize logger
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	runID := uuid.NewString()
	log.Infow("Starting ingest run",
		"run_id", runID,
		"input", cfg.Ingest.InputDir,
		"query_type", cfg.Ingest.QueryType,
	)

	// Fetch captured responses with bounded parallelism
	client := fetch.NewReplayClient(cfg.Ingest.InputDir)
	requests, err := client.Requests()
	if err != nil {
		return fmt.Errorf("failed to list captures: %w", err)
	}
	if len(requests) == 0 {
		return fmt.Errorf("no capture files found in %s", cfg.Ingest.InputDir)
	}

	ctx := database.SetupSignalHandler()

	pause := time.Duration(cfg.Ingest.SleepSeconds * float64(time.Second))
	batcher := fetch.NewBatcher(client, log, cfg.Ingest.BatchSize, pause)
	records, failures, err := batcher.FetchAll(ctx, requests)
	if err != nil {
		return fmt.Errorf("fetch aborted: %w", err)
	}
	for _, failure := range failures {
		log.Warnw("capture unreadable", "params", failure.Params, "error", failure.Err)
	}
	if len(records) == 0 {
		return fmt.Errorf("no readable captures in %s", cfg.Ingest.InputDir)
	}

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

	result, err := orch.Run(ctx, records, artifact.Options{
		RunID:       runID,
		ExportDir:   cfg.Export.OutputDir,
		Compression: cfg.Export.Compression,
		Indexes:     cfg.Indexes,
	})
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Println()
	cmd.Print(render.IngestReport(result))

	if cfg.Transform.Enabled && !ingestSkipSteps {
		runner := transform.NewRunner(store, log, transform.DefaultSteps())
		results, err := runner.Run(ctx)
		if err != nil {
			return fmt.Errorf("transformation run aborted: %w", err)
		}
		cmd.Println()
		cmd.Print(render.RunReport(results))

		// Re-export so derived tables land in the artifact set too.
		exports, err := orch.ExportAll(ctx, result.QueryType, artifact.Options{
			RunID:       runID,
			ExportDir:   cfg.Export.OutputDir,
			Compression: cfg.Export.Compression,
		})
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		result.Exports = exports
	}

	if failed := result.ExportFailures(); len(failed) > 0 {
		return fmt.Errorf("ingest completed with %d export failures", len(failed))
	}
	return nil
}
