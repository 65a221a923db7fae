// Package dbtest opens throwaway SQLite stores for package tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"newsflow/internal/database"
	"newsflow/internal/logger"
)

// New returns a migrated store backed by a file in the test's temp dir.
func New(tb testing.TB) *database.DB {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), "newsflow_test.db")
	db, err := database.NewDB("sqlite", path, database.DefaultConfig(), logger.Nop())
	if err != nil {
		tb.Fatalf("failed to open test database: %v", err)
	}
	tb.Cleanup(func() { db.Close() })
	return db
}
