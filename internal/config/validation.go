package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	if strings.TrimSpace(c.Store.Path) == "" {
		errors = append(errors, ValidationError{
			Field:   "store.path",
			Message: "store path is required",
		})
	}

	if strings.TrimSpace(c.Ingest.InputDir) == "" {
		errors = append(errors, ValidationError{
			Field:   "ingest.input_dir",
			Message: "input directory is required",
		})
	}

	if strings.TrimSpace(c.Ingest.QueryType) == "" {
		errors = append(errors, ValidationError{
			Field:   "ingest.query_type",
			Message: "query type is required",
		})
	}

	if c.Ingest.BatchSize <= 0 {
		errors = append(errors, ValidationError{
			Field:   "ingest.batch_size",
			Message: "batch size must be greater than zero",
		})
	}

	if c.Ingest.SleepSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "ingest.sleep_seconds",
			Message: "sleep seconds cannot be negative",
		})
	}

	for i, spec := range c.Indexes {
		if strings.TrimSpace(spec.Table) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("indexes[%d].table", i),
				Message: "index table is required",
			})
		}
		if strings.TrimSpace(spec.Column) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("indexes[%d].column", i),
				Message: "index column is required",
			})
		}
	}

	if strings.TrimSpace(c.Export.OutputDir) == "" {
		errors = append(errors, ValidationError{
			Field:   "export.output_dir",
			Message: "output directory is required",
		})
	}

	switch c.Export.Compression {
	case "", "zstd", "snappy", "uncompressed":
	default:
		errors = append(errors, ValidationError{
			Field:   "export.compression",
			Message: "compression must be one of: zstd, snappy, uncompressed",
		})
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be one of: debug, info, warn, error",
		})
	}

	switch c.Logging.Format {
	case "", "json", "text":
	default:
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be json or text",
		})
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}
