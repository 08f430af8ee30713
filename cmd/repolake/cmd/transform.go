package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/repolake/internal/config"
	"github.com/dbsmedya/repolake/internal/database"
	"github.com/dbsmedya/repolake/internal/logger"
	"github.com/dbsmedya/repolake/internal/render"
	"github.com/dbsmedya/repolake/internal/transform"
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Run the transformation steps against the store",
	Long: `Transform applies the ordered transformation steps. Each step reads
base (or previously derived) tables and materializes derived tables.

A step whose required source tables are absent is skipped; a step whose
script errors or whose declared outputs fail to appear is failed.
Dependents of a skipped or failed step are skipped while independent
steps continue.

Example:
  repolake transform --config repolake.yaml`,
	RunE: runTransform,
}

func init() {
	rootCmd.AddCommand(transformCmd)
}

func runTransform(cmd *cobra.Command, args []string) error {
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
	runner := transform.NewRunner(store, log, transform.DefaultSteps())

	results, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("transformation run aborted: %w", err)
	}

	cmd.Println()
	cmd.Print(render.RunReport(results))

	failed := 0
	for _, result := range results {
		if result.Status == transform.StatusFailed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("transformation completed with %d failed steps", failed)
	}
	return nil
}
