// Package web serves the oneiromind pages and the JSON endpoints used by the
// chat script.
package web

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/dmitrijs2005/oneiromind/internal/logging"
	"github.com/dmitrijs2005/oneiromind/internal/server/images"
	"github.com/dmitrijs2005/oneiromind/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps are the collaborators of the HTTP layer.
type Deps struct {
	Users        *services.UserService
	Chats        *services.ChatService
	Conversation *services.ConversationService
	Images       images.Store
	Logger       logging.Logger
	SecretKey    string
	TokenTTL     time.Duration
	Timezone     string
	// Ping reports storage health for /healthz. Nil means always healthy.
	Ping func(ctx context.Context) error
}

type Handler struct {
	users    *services.UserService
	chats    *services.ChatService
	conv     *services.ConversationService
	images   images.Store
	log      logging.Logger
	secret   []byte
	tokenTTL time.Duration
	loc      *time.Location
	ping     func(ctx context.Context) error
	pages    *template.Template
	markdown *Markdown
}

func NewHandler(d Deps) (*Handler, error) {
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return nil, fmt.Errorf("display timezone: %w", err)
	}
	pages, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Handler{
		users:    d.Users,
		chats:    d.Chats,
		conv:     d.Conversation,
		images:   d.Images,
		log:      d.Logger.With("module", "web"),
		secret:   []byte(d.SecretKey),
		tokenTTL: d.TokenTTL,
		loc:      loc,
		ping:     d.Ping,
		pages:    pages,
		markdown: NewMarkdown(),
	}, nil
}

// Routes builds the router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)
	r.Use(h.authenticate)

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(staticFiles())))
	r.Get("/healthz", h.handleHealth)

	r.Get("/login", h.handleLoginPage)
	r.Post("/login", h.handleLogin)
	r.Get("/register", h.handleRegisterPage)
	r.Post("/register", h.handleRegister)
	r.Get("/logout", h.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(requirePageUser)
		r.Get("/", h.handleHome)
		r.Get("/chat/{sessionID}", h.handleChat)
		r.Get("/demographics", h.handleDemographicsPage)
		r.Post("/submit_demographics", h.handleSubmitDemographics)
	})

	r.Group(func(r chi.Router) {
		r.Use(requireAPIUser)
		r.Post("/delete_chat/{sessionID}", h.handleDeleteChat)
		r.Post("/submit_message", h.handleSubmitMessage)
		r.Post("/start_therapy", h.handleStartTherapy)
		r.Post("/therapy", h.handleTherapy)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.ping != nil {
		if err := h.ping(r.Context()); err != nil {
			h.log.Error(r.Context(), "health check failed", "error", err)
			RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
