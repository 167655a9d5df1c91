package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/oneiromind/internal/dbx"
	"github.com/dmitrijs2005/oneiromind/internal/server/repositories/messages"
	"github.com/dmitrijs2005/oneiromind/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/oneiromind/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a handle, which may be the
// pool or a transaction, and owns schema migrations.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Messages(db dbx.DBTX) messages.Repository
}
