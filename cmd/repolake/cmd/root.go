package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile      string
	logLevel     string
	logFormat    string
	batchSize    int
	sleepSeconds float64
	outputDir    string
)

var rootCmd = &cobra.Command{
	Use:   "repolake",
	Short: "GraphQL response normalizer & analytical artifact pipeline",
	Long: `A batch CLI that ingests captured GraphQL repository responses,
normalizes them into relational base tables inside DuckDB, builds
full-text search indexes, exports every table to Parquet with embedded
metadata, and runs ordered SQL transformation steps that materialize
derived summary tables.

Features:
  - Deterministic normalization with stable synthesized keys
  - Append-only raw audit table alongside full-replace base tables
  - Tolerant index creation over optional tables and columns
  - Per-table Parquet export with partial-failure reporting
  - Sequenced transformation steps with skip/fail semantics`,
	Version: Version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "repolake.yaml",
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Processing overrides
	rootCmd.PersistentFlags().IntVar(&batchSize, "batch-size", 0,
		"Override batch size (number of entities fetched per batch)")
	rootCmd.PersistentFlags().Float64Var(&sleepSeconds, "sleep", 0,
		"Override sleep seconds between fetch batches")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", "",
		"Override Parquet export directory")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel     string
	LogFormat    string
	BatchSize    int
	SleepSeconds float64
	OutputDir    string
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:     logLevel,
		LogFormat:    logFormat,
		BatchSize:    batchSize,
		SleepSeconds: sleepSeconds,
		OutputDir:    outputDir,
	}
}
