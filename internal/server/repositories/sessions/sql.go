// Package sessions stores chat sessions, one per submitted dream.
package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/oneiromind/internal/common"
	"github.com/dmitrijs2005/oneiromind/internal/dbx"
	"github.com/dmitrijs2005/oneiromind/internal/server/models"
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

// Create stores a session for userID. createdAt is normalised to UTC at
// microsecond precision so the returned value matches what is read back.
func (r *SQLRepository) Create(ctx context.Context, userID int64, createdAt time.Time) (*models.ChatSession, error) {
	s := &models.ChatSession{UserID: userID, CreatedAt: createdAt.UTC().Truncate(time.Microsecond)}

	query :=
		`INSERT INTO chat_sessions (user_id, created_at)
		 VALUES ($1, $2)
		 RETURNING id`

	if err := r.db.QueryRowContext(ctx, query, s.UserID, s.CreatedAt).Scan(&s.ID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *SQLRepository) Get(ctx context.Context, id int64) (*models.ChatSession, error) {
	query := `SELECT id, user_id, created_at FROM chat_sessions WHERE id = $1`

	var s models.ChatSession
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.UserID, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	s.CreatedAt = s.CreatedAt.UTC()
	return &s, nil
}

// ListByUser returns the user's sessions, most recent first.
func (r *SQLRepository) ListByUser(ctx context.Context, userID int64) ([]models.ChatSession, error) {
	query :=
		`SELECT id, user_id, created_at FROM chat_sessions
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.ChatSession, 0)
	for rows.Next() {
		var s models.ChatSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		s.CreatedAt = s.CreatedAt.UTC()
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) BelongsToUser(ctx context.Context, userID, sessionID int64) (bool, error) {
	query := `SELECT COUNT(1) FROM chat_sessions WHERE id = $1 AND user_id = $2`

	var n int
	if err := r.db.QueryRowContext(ctx, query, sessionID, userID).Scan(&n); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

// Delete removes the session row only. Callers delete its messages first,
// in the same transaction.
func (r *SQLRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
