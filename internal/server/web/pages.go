package web

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/oneiromind/internal/common"
	"github.com/dmitrijs2005/oneiromind/internal/server/auth"
	"github.com/dmitrijs2005/oneiromind/internal/server/dialogue"
	"github.com/dmitrijs2005/oneiromind/internal/server/images"
	"github.com/dmitrijs2005/oneiromind/internal/server/models"
	"github.com/go-chi/chi/v5"
)

type sessionView struct {
	ID        int64
	CreatedAt string
}

type messageView struct {
	Sender   string
	Text     string
	HTML     template.HTML
	ImageURL template.URL
}

type homePage struct {
	Email    string
	Sessions []sessionView
	Selected *sessionView
	Messages []messageView
	State    dialogue.State
}

type formPage struct {
	Message string
	Error   string
	Email   string
}

type demographicsPage struct {
	Current    models.Demographics
	AgeRanges  []string
	Genders    []string
	LifeStages []string
}

var (
	ageRanges  = []string{"Under 18", "18-24", "25-34", "35-44", "45-54", "55-64", "65+"}
	genders    = []string{"Female", "Male", "Non-binary", "Prefer not to say"}
	lifeStages = []string{"Student", "Early career", "Established career", "Parent", "Retired", "Other"}
)

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.pages.ExecuteTemplate(&buf, name, data); err != nil {
		h.log.Error(r.Context(), "render page", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) pageError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error(r.Context(), "page failed", "path", r.URL.Path, "error", err)
	}
	http.Error(w, publicMessage(err), status)
}

func sessionIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "sessionID"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) sessionViews(ctx context.Context, userID int64) ([]sessionView, error) {
	list, err := h.chats.ListSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]sessionView, len(list))
	for i, s := range list {
		out[i] = sessionView{ID: s.ID, CreatedAt: formatTime(s.CreatedAt, h.loc)}
	}
	return out, nil
}

func (h *Handler) messageViews(ctx context.Context, msgs []models.Message) []messageView {
	out := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		v := messageView{Sender: string(m.Sender)}
		if m.ImageData != nil {
			url, err := h.images.Resolve(ctx, *m.ImageData)
			if err != nil {
				h.log.Warn(ctx, "resolve image", "message_id", m.ID, "error", err)
				url = images.PlaceholderURL
			}
			// refs come from the image store or the placeholder, never from users
			v.ImageURL = template.URL(url)
		}
		if m.Sender == models.SenderBot {
			v.HTML = h.markdown.Render(m.TextOrEmpty())
		} else {
			v.Text = m.TextOrEmpty()
		}
		out = append(out, v)
	}
	return out
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFrom(r.Context())
	sessions, err := h.sessionViews(r.Context(), id.UserID)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "home.html", homePage{
		Email:    id.Email,
		Sessions: sessions,
		State:    dialogue.Landing(),
	})
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := auth.IdentityFrom(ctx)

	sessionID, ok := sessionIDParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := h.chats.Authorize(ctx, id.UserID, sessionID); err != nil {
		if errors.Is(err, common.ErrorForbidden) {
			http.Error(w, "Forbidden: You do not have access to this chat session.", http.StatusForbidden)
			return
		}
		h.pageError(w, r, err)
		return
	}

	sessions, err := h.sessionViews(ctx, id.UserID)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	state, msgs, err := h.chats.State(ctx, sessionID)
	if err != nil {
		h.pageError(w, r, err)
		return
	}

	page := homePage{
		Email:    id.Email,
		Sessions: sessions,
		Messages: h.messageViews(ctx, msgs),
		State:    state,
	}
	for i := range sessions {
		if sessions[i].ID == sessionID {
			page.Selected = &sessions[i]
		}
	}
	h.render(w, r, http.StatusOK, "home.html", page)
}

func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "login.html", formPage{Message: r.URL.Query().Get("message")})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	email, password := r.PostFormValue("email"), r.PostFormValue("password")

	token, _, err := h.users.Login(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			h.render(w, r, http.StatusUnauthorized, "login.html", formPage{Error: "Invalid email or password.", Email: email})
			return
		}
		h.pageError(w, r, err)
		return
	}

	h.setTokenCookie(w, r, token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register.html", formPage{})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email, password := r.PostFormValue("email"), r.PostFormValue("password")

	user, err := h.users.Register(ctx, email, password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorAlreadyExists):
			h.render(w, r, http.StatusConflict, "register.html", formPage{Error: "Email already exists.", Email: email})
		case errors.Is(err, common.ErrorValidation):
			h.render(w, r, http.StatusBadRequest, "register.html", formPage{Error: "Please enter a valid email and a password of at most 72 bytes.", Email: email})
		default:
			h.pageError(w, r, err)
		}
		return
	}

	token, err := h.users.IssueToken(user)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	h.log.Info(ctx, "registered", "user_id", user.ID)

	h.setTokenCookie(w, r, token)
	http.Redirect(w, r, "/demographics", http.StatusSeeOther)
}

func (h *Handler) handleDemographicsPage(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFrom(r.Context())
	d, err := h.users.GetDemographics(r.Context(), id.UserID)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	page := demographicsPage{AgeRanges: ageRanges, Genders: genders, LifeStages: lifeStages}
	if d != nil {
		page.Current = *d
	}
	h.render(w, r, http.StatusOK, "demographics.html", page)
}

func (h *Handler) handleSubmitDemographics(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFrom(r.Context())
	d := models.Demographics{
		AgeRange:  r.PostFormValue("age_range"),
		Gender:    r.PostFormValue("gender"),
		Country:   r.PostFormValue("country"),
		LifeStage: r.PostFormValue("life_stage"),
	}
	if err := h.users.SetDemographics(r.Context(), id.UserID, d); err != nil {
		h.pageError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	clearTokenCookie(w)
	h.render(w, r, http.StatusOK, "logout.html", nil)
}

func (h *Handler) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := auth.IdentityFrom(ctx)

	sessionID, ok := sessionIDParam(r)
	if !ok {
		RespondError(w, http.StatusNotFound, "not found")
		return
	}
	if err := h.chats.DeleteOwnedSession(ctx, id.UserID, sessionID); err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.log.Error(ctx, "delete session", "session_id", sessionID, "error", err)
		}
		RespondError(w, status, publicMessage(err))
		return
	}
	h.log.Info(ctx, "session deleted", "session_id", sessionID, "user_id", id.UserID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
