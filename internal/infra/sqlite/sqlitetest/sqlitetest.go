// Package sqlitetest opens migrated throwaway databases for package tests.
package sqlitetest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/matiasleandrokruk/simonsays/internal/infra/sqlite"
)

// Open returns a migrated database in a temp dir, closed on cleanup.
func Open(tb testing.TB) *sql.DB {
	tb.Helper()
	db, err := sqlite.OpenMigrated(context.Background(), filepath.Join(tb.TempDir(), "test.sqlite"))
	if err != nil {
		tb.Fatalf("sqlitetest.Open: %v", err)
	}
	tb.Cleanup(func() { db.Close() })
	return db
}

// SeedUser inserts an anonymous account with the given id.
func SeedUser(tb testing.TB, db *sql.DB, id string) {
	tb.Helper()
	now := sqlite.FormatTime(time.Now())
	if _, err := db.Exec(
		`INSERT INTO user_account (id, is_anonymous, created_at, updated_at) VALUES (?, 1, ?, ?)`,
		id, now, now,
	); err != nil {
		tb.Fatalf("sqlitetest.SeedUser(%q): %v", id, err)
	}
}
