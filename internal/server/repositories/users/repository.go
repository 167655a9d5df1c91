package users

import (
	"context"

	"github.com/dmitrijs2005/oneiromind/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	SetDemographics(ctx context.Context, id int64, d models.Demographics) error
	GetDemographics(ctx context.Context, id int64) (*models.Demographics, error)
}
