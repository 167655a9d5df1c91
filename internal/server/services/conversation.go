package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/oneiromind/internal/common"
	"github.com/dmitrijs2005/oneiromind/internal/logging"
	"github.com/dmitrijs2005/oneiromind/internal/server/dialogue"
	"github.com/dmitrijs2005/oneiromind/internal/server/images"
	"github.com/dmitrijs2005/oneiromind/internal/server/models"
)

// Collaborators is what the conversation flow needs from the AI layer.
// *ai.Collaborators implements it.
type Collaborators interface {
	Interpret(ctx context.Context, dreamText, demographics string) (string, error)
	DistillVisualPrompt(ctx context.Context, interpretation string) (string, error)
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
	Converse(ctx context.Context, question, history string) (string, error)
}

// ConversationService drives a session through its phases: the dream and
// its interpretation, the follow-up offer and the therapy turns.
type ConversationService struct {
	chats  *ChatService
	users  *UserService
	ai     Collaborators
	images images.Store
	log    logging.Logger
}

func NewConversationService(chats *ChatService, users *UserService, ai Collaborators, store images.Store, log logging.Logger) *ConversationService {
	return &ConversationService{chats: chats, users: users, ai: ai, images: store, log: log}
}

// SubmitDream opens a new session for the dream and runs the interpretation
// pipeline. When a collaborator fails, the error is recorded as a bot message
// and returned together with the session ID.
func (s *ConversationService) SubmitDream(ctx context.Context, userID int64, dreamText string) (int64, error) {
	dreamText = strings.TrimSpace(dreamText)
	if dreamText == "" {
		return 0, fmt.Errorf("%w: dream text must not be empty", common.ErrorValidation)
	}
	if err := dialogue.Check(dialogue.Landing(), dialogue.SubmitDream); err != nil {
		return 0, err
	}

	sess, err := s.chats.CreateSession(ctx, userID)
	if err != nil {
		return 0, err
	}
	log := s.log.With("session_id", sess.ID, "user_id", userID)

	if _, err := s.chats.AppendMessage(ctx, sess.ID, models.SenderUser, models.KindDream, &dreamText, nil); err != nil {
		return sess.ID, err
	}

	demographics, err := s.users.DemographicsSummary(ctx, userID)
	if err != nil {
		return sess.ID, err
	}

	interpretation, err := s.ai.Interpret(ctx, dreamText, demographics)
	if err != nil {
		return sess.ID, s.fail(ctx, log, sess.ID, dialogue.ProcessingError(err), err)
	}
	visualPrompt, err := s.ai.DistillVisualPrompt(ctx, interpretation)
	if err != nil {
		return sess.ID, s.fail(ctx, log, sess.ID, dialogue.ProcessingError(err), err)
	}

	imageRef := s.makeImage(ctx, log, visualPrompt)

	bot := []struct {
		kind  models.MessageKind
		text  *string
		image *string
	}{
		{models.KindImage, nil, &imageRef},
		{models.KindInterpretation, &interpretation, nil},
		{models.KindOfferFollowup, models.StringPtr(dialogue.FollowupOffer), nil},
	}
	for _, m := range bot {
		if _, err := s.chats.AppendMessage(ctx, sess.ID, models.SenderBot, m.kind, m.text, m.image); err != nil {
			return sess.ID, err
		}
	}

	log.Info(ctx, "dream interpreted")
	return sess.ID, nil
}

// makeImage generates and stores the dream image, falling back to the
// placeholder on any failure.
func (s *ConversationService) makeImage(ctx context.Context, log logging.Logger, prompt string) string {
	png, err := s.ai.GenerateImage(ctx, prompt)
	if err != nil {
		log.Warn(ctx, "image generation failed", "error", err)
		return images.PlaceholderURL
	}
	ref, err := s.images.Save(ctx, png)
	if err != nil {
		log.Warn(ctx, "image store failed", "error", err)
		return images.PlaceholderURL
	}
	return ref
}

// CollaboratorFailure reports a collaborator error that was recorded in the
// session as a bot message. It matches common.ErrorCollaborator.
type CollaboratorFailure struct {
	SessionID int64
	// Message is the bot text stored for the failure.
	Message string
	Err     error
}

func (e *CollaboratorFailure) Error() string { return e.Err.Error() }
func (e *CollaboratorFailure) Unwrap() error { return e.Err }

// fail records text as a bot error message and returns cause as a
// *CollaboratorFailure.
func (s *ConversationService) fail(ctx context.Context, log logging.Logger, sessionID int64, text string, cause error) error {
	log.Error(ctx, "collaborator failed", "error", cause)
	failure := &CollaboratorFailure{SessionID: sessionID, Message: text, Err: collaboratorError(cause)}
	if _, err := s.chats.AppendMessage(ctx, sessionID, models.SenderBot, models.KindError, &text, nil); err != nil {
		return errors.Join(failure, err)
	}
	return failure
}

// StartTherapy accepts the follow-up offer and returns the bot's prompt.
func (s *ConversationService) StartTherapy(ctx context.Context, userID, sessionID int64) (*models.Message, error) {
	if err := s.chats.Authorize(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	state, _, err := s.chats.State(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := dialogue.Check(state, dialogue.StartTherapy); err != nil {
		return nil, err
	}

	if _, err := s.chats.AppendMessage(ctx, sessionID, models.SenderUser, models.KindAccept, models.StringPtr(dialogue.AcceptText), nil); err != nil {
		return nil, err
	}
	return s.chats.AppendMessage(ctx, sessionID, models.SenderBot, models.KindTherapyPrompt, models.StringPtr(dialogue.TherapyPrompt), nil)
}

// Ask runs one therapy turn. The history given to the therapist is rebuilt
// from the stored messages. A collaborator failure is stored as a bot error
// message, which ends the session, and returned alongside that message.
func (s *ConversationService) Ask(ctx context.Context, userID, sessionID int64, question string) (*models.Message, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question must not be empty", common.ErrorValidation)
	}
	if err := s.chats.Authorize(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	state, msgs, err := s.chats.State(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := dialogue.Check(state, dialogue.AskQuestion); err != nil {
		return nil, err
	}

	userMsg, err := s.chats.AppendMessage(ctx, sessionID, models.SenderUser, models.KindQuestion, &question, nil)
	if err != nil {
		return nil, err
	}
	history := BuildHistory(append(msgs, *userMsg))

	answer, err := s.ai.Converse(ctx, question, history)
	if err != nil {
		log := s.log.With("session_id", sessionID, "user_id", userID)
		text := dialogue.TherapyError(err)
		msg, appendErr := s.chats.AppendMessage(ctx, sessionID, models.SenderBot, models.KindError, &text, nil)
		log.Error(ctx, "therapy turn failed", "error", err)
		if appendErr != nil {
			return nil, errors.Join(collaboratorError(err), appendErr)
		}
		return msg, collaboratorError(err)
	}

	return s.chats.AppendMessage(ctx, sessionID, models.SenderBot, models.KindAnswer, &answer, nil)
}

func collaboratorError(err error) error {
	if errors.Is(err, common.ErrorCollaborator) {
		return err
	}
	return fmt.Errorf("%w: %w", common.ErrorCollaborator, err)
}

// BuildHistory renders the text messages of a session as "User: ..." and
// "AI: ..." lines, oldest first. Image-only messages are skipped.
func BuildHistory(msgs []models.Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		text := m.TextOrEmpty()
		if text == "" {
			continue
		}
		who := "AI"
		if m.Sender == models.SenderUser {
			who = "User"
		}
		lines = append(lines, who+": "+text)
	}
	return strings.Join(lines, "\n")
}
