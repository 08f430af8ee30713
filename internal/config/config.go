// Package config provides configuration structures and loading for repolake.
package config

// Config represents the complete application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Ingest    IngestConfig    `yaml:"ingest" mapstructure:"ingest"`
	Indexes   []IndexSpec     `yaml:"indexes" mapstructure:"indexes"`
	Export    ExportConfig    `yaml:"export" mapstructure:"export"`
	Transform TransformConfig `yaml:"transform" mapstructure:"transform"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
}

// StoreConfig represents the DuckDB analytical store configuration.
type StoreConfig struct {
	Path           string `yaml:"path" mapstructure:"path"`
	MaxConnections int    `yaml:"max_connections" mapstructure:"max_connections"`
}

// IngestConfig represents batch ingestion settings.
type IngestConfig struct {
	InputDir     string  `yaml:"input_dir" mapstructure:"input_dir"`
	QueryType    string  `yaml:"query_type" mapstructure:"query_type"`
	BatchSize    int     `yaml:"batch_size" mapstructure:"batch_size"`
	SleepSeconds float64 `yaml:"sleep_seconds" mapstructure:"sleep_seconds"`
}

// IndexSpec names a (table, column) pair that should receive a full-text
// search index after normalization. Pairs referencing tables or columns
// absent from the current batch are skipped, not fatal.
type IndexSpec struct {
	Table  string `yaml:"table" mapstructure:"table"`
	Column string `yaml:"column" mapstructure:"column"`
}

// ExportConfig represents columnar export settings.
type ExportConfig struct {
	OutputDir   string `yaml:"output_dir" mapstructure:"output_dir"`
	Compression string `yaml:"compression" mapstructure:"compression"` // zstd, snappy, or uncompressed
}

// TransformConfig represents transformation runner settings.
type TransformConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path:           "repolake.duckdb",
			MaxConnections: 1,
		},
		Ingest: IngestConfig{
			InputDir:     "responses",
			QueryType:    "repository",
			BatchSize:    10,
			SleepSeconds: 1,
		},
		Indexes: []IndexSpec{
			{Table: "base_repositories", Column: "description"},
			{Table: "base_workflows", Column: "raw_text"},
		},
		Export: ExportConfig{
			OutputDir:   "exports",
			Compression: "zstd",
		},
		Transform: TransformConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// ApplyOverrides applies CLI flag overrides to the configuration.
// Only non-zero/non-empty values are applied.
func (c *Config) ApplyOverrides(logLevel, logFormat string, batchSize int, sleepSeconds float64, outputDir string) {
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat != "" {
		c.Logging.Format = logFormat
	}
	if batchSize > 0 {
		c.Ingest.BatchSize = batchSize
	}
	if sleepSeconds > 0 {
		c.Ingest.SleepSeconds = sleepSeconds
	}
	if outputDir != "" {
		c.Export.OutputDir = outputDir
	}
}
