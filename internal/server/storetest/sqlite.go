// Package storetest opens migrated in-memory SQLite databases for tests in
// other packages.
package storetest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/dmitrijs2005/oneiromind/internal/cryptox"
	"github.com/dmitrijs2005/oneiromind/internal/dbx"
	"github.com/dmitrijs2005/oneiromind/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// NewSQLite returns a fresh, migrated database private to t, closed on
// cleanup. Password hashing is switched to the cheapest cost.
func NewSQLite(t testing.TB) (*dbx.DB, *repomanager.SQLRepositoryManager) {
	t.Helper()
	cryptox.HashCost = bcrypt.MinCost

	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)

	ctx := context.Background()
	db, err := dbx.Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	m := repomanager.NewSQLRepositoryManager(db.Dialect)
	if err := m.RunMigrations(ctx, db.DB); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db, m
}
