// Package dialogue derives a session's conversational phase from its message
// log and decides which user actions that phase allows. Nothing here touches
// storage: the phase is recomputed from the ordered messages every time.
package dialogue

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/oneiromind/internal/common"
	"github.com/dmitrijs2005/oneiromind/internal/server/models"
)

// State is the derived phase of a session.
type State string

const (
	InitialDream         State = "initial_dream"
	AwaitingTherapyStart State = "awaiting_therapy_start"
	InTherapySession     State = "in_therapy_session"
	SessionEnded         State = "session_ended"
)

// Fixed bot texts. The first two are also what legacy rows without a kind are
// matched against.
const (
	FollowupOffer      = "Would you like to ask some follow-up questions about this interpretation?"
	TherapyPrompt      = "Great. What is your first question?"
	AcceptText         = "Yes"
	ErrorMarker        = "Sorry, an error occurred"
	ProcessingErrorFmt = ErrorMarker + " during AI processing: %v"
	TherapyErrorFmt    = ErrorMarker + " during the therapy session: %v"
)

// Landing is the phase of the start page, where no session is selected.
func Landing() State {
	return InitialDream
}

// Derive classifies a session from its messages, which must be ordered
// oldest first. It looks at the newest bot message with non-empty text; a
// session without one has ended (or never started).
func Derive(msgs []models.Message) State {
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m.Sender != models.SenderBot || strings.TrimSpace(m.TextOrEmpty()) == "" {
			continue
		}
		return classify(m)
	}
	return SessionEnded
}

func classify(m models.Message) State {
	switch m.Kind {
	case models.KindOfferFollowup:
		return AwaitingTherapyStart
	case models.KindError:
		return SessionEnded
	case models.KindUnknown:
		return classifyText(m.TextOrEmpty())
	default:
		return InTherapySession
	}
}

// classifyText handles rows written before messages carried a kind.
func classifyText(text string) State {
	switch {
	case strings.Contains(text, "Would you like to ask some follow-up questions"):
		return AwaitingTherapyStart
	case strings.Contains(text, TherapyPrompt), !strings.Contains(text, ErrorMarker):
		return InTherapySession
	default:
		return SessionEnded
	}
}

// Action is something a user asks to do within a session.
type Action string

const (
	SubmitDream  Action = "submit_dream"
	StartTherapy Action = "start_therapy"
	AskQuestion  Action = "ask_question"
)

// Allowed reports whether action is valid in state. A dream always opens a
// new session, so it is only allowed from the landing phase.
func Allowed(state State, action Action) bool {
	switch action {
	case SubmitDream:
		return state == InitialDream
	case StartTherapy:
		return state == AwaitingTherapyStart
	case AskQuestion:
		return state == InTherapySession
	default:
		return false
	}
}

// Check returns common.ErrorInvalidTransition when action is not allowed.
func Check(state State, action Action) error {
	if Allowed(state, action) {
		return nil
	}
	return fmt.Errorf("%w: %s not allowed in %s", common.ErrorInvalidTransition, action, state)
}

// ProcessingError is the bot text stored when the dream pipeline fails.
func ProcessingError(err error) string {
	return fmt.Sprintf(ProcessingErrorFmt, err)
}

// TherapyError is the bot text stored when a therapy turn fails.
func TherapyError(err error) string {
	return fmt.Sprintf(TherapyErrorFmt, err)
}

func CanSubmitDream(state State) bool  { return Allowed(state, SubmitDream) }
func CanStartTherapy(state State) bool { return Allowed(state, StartTherapy) }
func CanAsk(state State) bool          { return Allowed(state, AskQuestion) }
