// Package users stores accounts and their demographics.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/oneiromind/internal/common"
	"github.com/dmitrijs2005/oneiromind/internal/dbx"
	"github.com/dmitrijs2005/oneiromind/internal/server/models"
)

// SQLRepository works on Postgres and, through dbx.Dialect.Bind, SQLite.
type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

// Create inserts the user. A taken email yields common.ErrorAlreadyExists and
// leaves no row behind.
func (r *SQLRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (email, password_hash)
		 VALUES ($1, $2)
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, query, user.Email, user.PasswordHash).Scan(&user.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const selectUser = `SELECT id, email, password_hash, age_range, gender, country, life_stage FROM users`

func (r *SQLRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE email = $1`, email)
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE id = $1`, id)
}

func (r *SQLRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var (
		user                              models.User
		ageRange, gender, country, lifeSt sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.Email, &user.PasswordHash, &ageRange, &gender, &country, &lifeSt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.Demographics = models.Demographics{
		AgeRange:  ageRange.String,
		Gender:    gender.String,
		Country:   country.String,
		LifeStage: lifeSt.String,
	}
	return &user, nil
}

// SetDemographics overwrites all four attributes; empty values are stored as
// NULL. Repeating the call with the same values changes nothing.
func (r *SQLRepository) SetDemographics(ctx context.Context, id int64, d models.Demographics) error {
	query :=
		`UPDATE users
		 SET age_range = $1, gender = $2, country = $3, life_stage = $4
		 WHERE id = $5`

	res, err := r.db.ExecContext(ctx, query,
		models.StringPtr(d.AgeRange), models.StringPtr(d.Gender), models.StringPtr(d.Country), models.StringPtr(d.LifeStage), id)
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

// GetDemographics returns nil when the user exists but has set nothing.
func (r *SQLRepository) GetDemographics(ctx context.Context, id int64) (*models.Demographics, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Demographics.IsEmpty() {
		return nil, nil
	}
	d := user.Demographics
	return &d, nil
}
