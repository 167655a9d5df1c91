package services

import (
	"context"
	"database/sql"
	"io"
	"testing"
	"time"

	"github.com/dmitrijs2005/oneiromind/internal/logging"
	"github.com/dmitrijs2005/oneiromind/internal/server/config"
	"github.com/dmitrijs2005/oneiromind/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/oneiromind/internal/server/storetest"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                   testSecret,
		AccessTokenValidityDuration: time.Hour,
	}
}

func testLogger(t *testing.T) logging.Logger {
	t.Helper()
	l, err := logging.New("slog", "error", io.Discard)
	require.NoError(t, err)
	return l
}

type fixture struct {
	db    *sql.DB
	rm    repomanager.RepositoryManager
	users *UserService
	chats *ChatService
}

// newFixture returns services over a fresh migrated SQLite database.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, rm := storetest.NewSQLite(t)
	return &fixture{
		db:    db.DB,
		rm:    rm,
		users: NewUserService(db.DB, rm, testConfig()),
		chats: NewChatService(db.DB, rm),
	}
}

func (f *fixture) register(t *testing.T, email string) int64 {
	t.Helper()
	u, err := f.users.Register(context.Background(), email, "pw")
	require.NoError(t, err)
	return u.ID
}
