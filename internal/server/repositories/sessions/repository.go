package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/oneiromind/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID int64, createdAt time.Time) (*models.ChatSession, error)
	Get(ctx context.Context, id int64) (*models.ChatSession, error)
	ListByUser(ctx context.Context, userID int64) ([]models.ChatSession, error)
	BelongsToUser(ctx context.Context, userID, sessionID int64) (bool, error)
	Delete(ctx context.Context, id int64) error
}
