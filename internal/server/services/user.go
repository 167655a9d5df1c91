// Package services contains server-side business logic. This file implements
// UserService, which handles registration, credential checks, access token
// issuing and the demographic profile.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/oneiromind/internal/common"
	"github.com/dmitrijs2005/oneiromind/internal/cryptox"
	"github.com/dmitrijs2005/oneiromind/internal/server/auth"
	"github.com/dmitrijs2005/oneiromind/internal/server/config"
	"github.com/dmitrijs2005/oneiromind/internal/server/models"
	"github.com/dmitrijs2005/oneiromind/internal/server/repositories/repomanager"
)

// UserService provides account operations:
// - Register: create users with a bcrypt password hash
// - VerifyCredentials / Login: check a password and mint an access token
// - SetDemographics / GetDemographics: the optional profile
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration

	dummyOnce sync.Once
	dummyHash string
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	if !strings.Contains(email, "@") {
		return fmt.Errorf("%w: email must contain @", common.ErrorValidation)
	}
	if password == "" {
		return fmt.Errorf("%w: password must not be empty", common.ErrorValidation)
	}
	if len(password) > cryptox.MaxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", common.ErrorValidation, cryptox.MaxPasswordBytes)
	}
	return nil
}

// Register creates a new user. A taken email yields common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", common.ErrorInternal, err)
	}

	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, &models.User{Email: email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// VerifyCredentials returns the user when the password matches, and nil with
// no error when the email is unknown or the password is wrong. Unknown emails
// still pay for a bcrypt comparison.
func (s *UserService) VerifyCredentials(ctx context.Context, email, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = cryptox.CheckPassword(s.getDummyHash(), password)
			return nil, nil
		}
		return nil, common.ErrorInternal
	}

	ok, err := cryptox.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if !ok {
		return nil, nil
	}
	return user, nil
}

// Login verifies the credentials and, on success, returns a signed access
// token together with the user. Bad credentials yield common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.VerifyCredentials(ctx, email, password)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, common.ErrorUnauthorized
	}
	token, err := s.IssueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// IssueToken mints an access token for an already authenticated user.
func (s *UserService) IssueToken(user *models.User) (string, error) {
	token, err := auth.GenerateToken(user.ID, user.Email, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

// GetByEmail looks a user up by email.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
}

// SetDemographics replaces the user's profile. Every field is optional.
func (s *UserService) SetDemographics(ctx context.Context, userID int64, d models.Demographics) error {
	d = models.Demographics{
		AgeRange:  strings.TrimSpace(d.AgeRange),
		Gender:    strings.TrimSpace(d.Gender),
		Country:   strings.TrimSpace(d.Country),
		LifeStage: strings.TrimSpace(d.LifeStage),
	}
	if err := s.repomanager.Users(s.db).SetDemographics(ctx, userID, d); err != nil {
		return fmt.Errorf("error saving demographics: %w", err)
	}
	return nil
}

// GetDemographics returns the stored profile, or nil when none was saved.
func (s *UserService) GetDemographics(ctx context.Context, userID int64) (*models.Demographics, error) {
	d, err := s.repomanager.Users(s.db).GetDemographics(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading demographics: %w", err)
	}
	return d, nil
}

// DemographicsSummary renders the profile as prompt input.
func (s *UserService) DemographicsSummary(ctx context.Context, userID int64) (string, error) {
	d, err := s.GetDemographics(ctx, userID)
	if err != nil {
		return "", err
	}
	if d == nil {
		return models.Demographics{}.Summary(), nil
	}
	return d.Summary(), nil
}

func (s *UserService) getDummyHash() string {
	s.dummyOnce.Do(func() {
		pw, _ := common.MakeRandHexString(16)
		s.dummyHash, _ = cryptox.HashPassword(pw)
	})
	return s.dummyHash
}
