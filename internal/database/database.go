// Package database provides DuckDB connection management for repolake.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // DuckDB driver

	"github.com/dbsmedya/repolake/internal/config"
)

// Manager handles the analytical store connection.
type Manager struct {
	DB     *sql.DB
	config *config.Config
}

// NewManager creates a new database manager from configuration.
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		config: cfg,
	}
}

// Connect opens the store database and loads the search extension.
func (m *Manager) Connect(ctx context.Context) error {
	var err error

	m.DB, err = m.connectWithRetry(ctx, &m.config.Store)
	if err != nil {
		return fmt.Errorf("failed to connect to store database: %w", err)
	}

	// Full-text search is optional; environments without the extension
	// still support ingest, transform, and export.
	if err := m.loadSearchExtension(ctx); err != nil {
		return nil
	}

	return nil
}

// connectWithRetry attempts to connect with exponential backoff.
func (m *Manager) connectWithRetry(ctx context.Context, cfg *config.StoreConfig) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := 3
	backoff := time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = m.connect(cfg)
		if err == nil {
			// Verify connection
			if pingErr := db.PingContext(ctx); pingErr == nil {
				return db, nil
			} else {
				db.Close()
				err = pingErr
			}
		}

		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2 // Exponential backoff
			}
		}
	}

	return nil, fmt.Errorf("failed after %d retries: %w", maxRetries, err)
}

// connect creates a database connection.
func (m *Manager) connect(cfg *config.StoreConfig) (*sql.DB, error) {
	db, err := sql.Open("duckdb", cfg.Path)
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}
	db.SetConnMaxLifetime(10 * time.Minute)

	return db, nil
}

// loadSearchExtension installs and loads the fts extension.
func (m *Manager) loadSearchExtension(ctx context.Context) error {
	for _, stmt := range []string{"INSTALL fts", "LOAD fts"} {
		if _, err := m.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run %q: %w", stmt, err)
		}
	}
	return nil
}

// Close closes the store connection gracefully.
func (m *Manager) Close() error {
	if m.DB != nil {
		if err := m.DB.Close(); err != nil {
			return fmt.Errorf("store close: %w", err)
		}
	}
	return nil
}

// Ping verifies the connection is alive.
func (m *Manager) Ping(ctx context.Context) error {
	if m.DB != nil {
		if err := m.DB.PingContext(ctx); err != nil {
			return fmt.Errorf("store ping failed: %w", err)
		}
	}
	return nil
}
