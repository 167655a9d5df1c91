// Package messages stores the append-only message log of each session.
package messages

import (
	"context"
	"database/sql"
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

// Append inserts m and fills in its id. A zero Timestamp is set to now; the
// stored value is UTC at microsecond precision and is written back into m.
func (r *SQLRepository) Append(ctx context.Context, m *models.Message) (*models.Message, error) {
	if !m.Sender.Valid() {
		return nil, fmt.Errorf("%w: sender %q", common.ErrorValidation, m.Sender)
	}
	if m.Text == nil && m.ImageData == nil {
		return nil, fmt.Errorf("%w: message has neither text nor image", common.ErrorValidation)
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	m.Timestamp = m.Timestamp.UTC().Truncate(time.Microsecond)

	query :=
		`INSERT INTO messages (session_id, sender, kind, text, image_data, timestamp)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		m.SessionID, string(m.Sender), string(m.Kind), m.Text, m.ImageData, m.Timestamp).Scan(&m.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

// ListBySession returns the session's messages oldest first; equal
// timestamps keep insertion order.
func (r *SQLRepository) ListBySession(ctx context.Context, sessionID int64) ([]models.Message, error) {
	query :=
		`SELECT id, session_id, sender, kind, text, image_data, timestamp FROM messages
		 WHERE session_id = $1
		 ORDER BY timestamp ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Message, 0)
	for rows.Next() {
		var (
			m           models.Message
			sender      string
			kind        string
			text, image sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &sender, &kind, &text, &image, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		m.Sender = models.Sender(sender)
		m.Kind = models.MessageKind(kind)
		if text.Valid {
			m.Text = &text.String
		}
		if image.Valid {
			m.ImageData = &image.String
		}
		m.Timestamp = m.Timestamp.UTC()
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) CountBySession(ctx context.Context, sessionID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM messages WHERE session_id = $1`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// DeleteBySession removes every message of the session and reports how many
// rows went.
func (r *SQLRepository) DeleteBySession(ctx context.Context, sessionID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE session_id = $1`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
