package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/repolake/internal/config"
	"github.com/dbsmedya/repolake/internal/database"
	"github.com/dbsmedya/repolake/internal/logger"
	"github.com/dbsmedya/repolake/internal/render"
	"github.com/dbsmedya/repolake/internal/transform"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the transformation step plan without executing",
	Long: `Plan prints the ordered transformation steps with their required
and produced tables, and whether each step's sources are currently
available in the store. Nothing is executed.

Example:
  repolake plan --config repolake.yaml`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
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

	ctx := context.Background()

	// Connect to the store
	dbManager := database.NewManager(cfg)
	if err := dbManager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to store: %w", err)
	}
	defer dbManager.Close()

	store := database.NewStore(dbManager.DB)
	runner := transform.NewRunner(store, log, transform.DefaultSteps())

	entries, err := runner.Plan(ctx)
	if err != nil {
		return fmt.Errorf("failed to build plan: %w", err)
	}

	cmd.Println()
	cmd.Print(render.Plan(entries))
	return nil
}
