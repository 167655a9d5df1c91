package messages

import (
	"context"

	"github.com/dmitrijs2005/oneiromind/internal/server/models"
)

type Repository interface {
	Append(ctx context.Context, m *models.Message) (*models.Message, error)
	ListBySession(ctx context.Context, sessionID int64) ([]models.Message, error)
	CountBySession(ctx context.Context, sessionID int64) (int, error)
	DeleteBySession(ctx context.Context, sessionID int64) (int64, error)
}
