// Package repomanager wires repository constructors to a SQL dialect and
// applies the embedded goose migrations for it.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/oneiromind/internal/dbx"
	"github.com/dmitrijs2005/oneiromind/internal/logging"
	"github.com/dmitrijs2005/oneiromind/internal/server/migrations"
	"github.com/dmitrijs2005/oneiromind/internal/server/repositories/messages"
	"github.com/dmitrijs2005/oneiromind/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/oneiromind/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

// SQLRepositoryManager serves both Postgres and SQLite; the dialect decides
// placeholder rewriting and which migration tree goose applies.
type SQLRepositoryManager struct {
	dialect dbx.Dialect
	logger  logging.Logger
}

func NewSQLRepositoryManager(dialect dbx.Dialect) *SQLRepositoryManager {
	return &SQLRepositoryManager{dialect: dialect}
}

// WithLogger routes goose output through l. Without one, migrations run
// silently.
func (m *SQLRepositoryManager) WithLogger(l logging.Logger) *SQLRepositoryManager {
	m.logger = l
	return m
}

func (m *SQLRepositoryManager) gooseLogger(ctx context.Context) goose.Logger {
	if m.logger == nil {
		return goose.NopLogger()
	}
	return logging.NewPrintfLogger(ctx, m.logger.With("module", "migrations", "dialect", string(m.dialect)))
}

func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(m.dialect.Bind(db))
}

func (m *SQLRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewSQLRepository(m.dialect.Bind(db))
}

func (m *SQLRepositoryManager) Messages(db dbx.DBTX) messages.Repository {
	return messages.NewSQLRepository(m.dialect.Bind(db))
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies every pending migration for the dialect.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	fsys, err := migrations.For(string(m.dialect))
	if err != nil {
		return fmt.Errorf("migrations for %s: %w", m.dialect, err)
	}

	goose.SetBaseFS(fsys)
	goose.SetLogger(m.gooseLogger(ctx))
	if err := goose.SetDialect(m.dialect.GooseDialect()); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
