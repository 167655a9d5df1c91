package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/oneiromind/internal/common"
	"github.com/dmitrijs2005/oneiromind/internal/dbx"
	"github.com/dmitrijs2005/oneiromind/internal/server/dialogue"
	"github.com/dmitrijs2005/oneiromind/internal/server/models"
	"github.com/dmitrijs2005/oneiromind/internal/server/repositories/repomanager"
)

// ChatService owns sessions and their message logs.
type ChatService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewChatService(db *sql.DB, m repomanager.RepositoryManager) *ChatService {
	return &ChatService{db: db, repomanager: m, now: time.Now}
}

// CreateSession opens an empty session for userID.
func (s *ChatService) CreateSession(ctx context.Context, userID int64) (*models.ChatSession, error) {
	sess, err := s.repomanager.Sessions(s.db).Create(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("error creating session: %w", err)
	}
	return sess, nil
}

// AppendMessage adds a message to the end of a session's log. At least one of
// text and image must be non-nil.
func (s *ChatService) AppendMessage(ctx context.Context, sessionID int64, sender models.Sender, kind models.MessageKind, text, image *string) (*models.Message, error) {
	if text != nil && *text == "" {
		text = nil
	}
	if image != nil && *image == "" {
		image = nil
	}
	if text == nil && image == nil {
		return nil, fmt.Errorf("%w: message needs text or image", common.ErrorValidation)
	}
	m := &models.Message{
		SessionID: sessionID,
		Sender:    sender,
		Kind:      kind,
		Text:      text,
		ImageData: image,
		Timestamp: s.now(),
	}
	out, err := s.repomanager.Messages(s.db).Append(ctx, m)
	if err != nil {
		if errors.Is(err, common.ErrorValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("error appending message: %w", err)
	}
	return out, nil
}

// ListSessions returns the user's sessions, newest first.
func (s *ChatService) ListSessions(ctx context.Context, userID int64) ([]models.ChatSession, error) {
	out, err := s.repomanager.Sessions(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing sessions: %w", err)
	}
	return out, nil
}

// ListMessages returns the session's messages, oldest first.
func (s *ChatService) ListMessages(ctx context.Context, sessionID int64) ([]models.Message, error) {
	out, err := s.repomanager.Messages(s.db).ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("error listing messages: %w", err)
	}
	return out, nil
}

func (s *ChatService) SessionBelongsToUser(ctx context.Context, userID, sessionID int64) (bool, error) {
	ok, err := s.repomanager.Sessions(s.db).BelongsToUser(ctx, userID, sessionID)
	if err != nil {
		return false, fmt.Errorf("error checking ownership: %w", err)
	}
	return ok, nil
}

// Authorize returns common.ErrorForbidden unless userID owns sessionID. A
// missing session is reported the same way.
func (s *ChatService) Authorize(ctx context.Context, userID, sessionID int64) error {
	ok, err := s.SessionBelongsToUser(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrorForbidden
	}
	return nil
}

// DeleteSession removes the session and all of its messages atomically.
func (s *ChatService) DeleteSession(ctx context.Context, sessionID int64) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Messages(tx).DeleteBySession(ctx, sessionID); err != nil {
			return fmt.Errorf("error deleting messages: %w", err)
		}
		if err := s.repomanager.Sessions(tx).Delete(ctx, sessionID); err != nil {
			return fmt.Errorf("error deleting session: %w", err)
		}
		return nil
	})
}

// DeleteOwnedSession deletes sessionID after checking that userID owns it.
func (s *ChatService) DeleteOwnedSession(ctx context.Context, userID, sessionID int64) error {
	if err := s.Authorize(ctx, userID, sessionID); err != nil {
		return err
	}
	return s.DeleteSession(ctx, sessionID)
}

// State derives the session's phase and returns the messages it was derived
// from.
func (s *ChatService) State(ctx context.Context, sessionID int64) (dialogue.State, []models.Message, error) {
	msgs, err := s.ListMessages(ctx, sessionID)
	if err != nil {
		return "", nil, err
	}
	return dialogue.Derive(msgs), msgs, nil
}
