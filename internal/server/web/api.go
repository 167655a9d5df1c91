package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/oneiromind/internal/common"
	"github.com/dmitrijs2005/oneiromind/internal/server/auth"
	"github.com/dmitrijs2005/oneiromind/internal/server/services"
)

type dreamRequest struct {
	DreamText string `json:"dream_text"`
}

type therapyStartRequest struct {
	SessionID int64 `json:"session_id"`
}

type therapyRequest struct {
	Question  string `json:"question"`
	SessionID int64  `json:"session_id"`
	// History is accepted for compatibility and ignored; the history is
	// rebuilt from stored messages.
	History string `json:"history,omitempty"`
}

type botMessage struct {
	Text   string `json:"text"`
	Sender string `json:"sender"`
}

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		RespondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error(r.Context(), op, "error", err)
	}
	RespondError(w, status, publicMessage(err))
}

func (h *Handler) handleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	var req dreamRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := auth.IdentityFrom(r.Context())

	sessionID, err := h.conv.SubmitDream(r.Context(), id.UserID, req.DreamText)
	if err != nil {
		var failure *services.CollaboratorFailure
		if errors.As(err, &failure) {
			RespondJSON(w, http.StatusInternalServerError, map[string]any{
				"error":      failure.Message,
				"session_id": failure.SessionID,
			})
			return
		}
		h.respondServiceError(w, r, "submit dream", err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]int64{"session_id": sessionID})
}

func (h *Handler) handleStartTherapy(w http.ResponseWriter, r *http.Request) {
	var req therapyStartRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := auth.IdentityFrom(r.Context())

	msg, err := h.conv.StartTherapy(r.Context(), id.UserID, req.SessionID)
	if err != nil {
		h.respondServiceError(w, r, "start therapy", err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]botMessage{
		"bot_message": {Text: string(h.markdown.Render(msg.TextOrEmpty())), Sender: string(msg.Sender)},
	})
}

func (h *Handler) handleTherapy(w http.ResponseWriter, r *http.Request) {
	var req therapyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := auth.IdentityFrom(r.Context())

	msg, err := h.conv.Ask(r.Context(), id.UserID, req.SessionID, req.Question)
	if err != nil {
		if errors.Is(err, common.ErrorCollaborator) && msg != nil {
			RespondError(w, http.StatusInternalServerError, msg.TextOrEmpty())
			return
		}
		h.respondServiceError(w, r, "therapy turn", err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"answer": string(h.markdown.Render(msg.TextOrEmpty()))})
}
