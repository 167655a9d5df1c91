package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dmitrijs2005/oneiromind/internal/common"
	"github.com/dmitrijs2005/oneiromind/internal/logging"
	"github.com/dmitrijs2005/oneiromind/internal/server/config"
	"github.com/dmitrijs2005/oneiromind/internal/server/images"
	"github.com/dmitrijs2005/oneiromind/internal/server/services"
	"github.com/dmitrijs2005/oneiromind/internal/server/storetest"
	"github.com/stretchr/testify/require"
)

const testSecret = "web-test-secret"

type fakeAI struct {
	interpretErr error
	converseErr  error
	gotHistory   string
}

func (f *fakeAI) Interpret(context.Context, string, string) (string, error) {
	if f.interpretErr != nil {
		return "", f.interpretErr
	}
	return "**Direct Meaning:** you want to be free\n\n* wings\n* sky", nil
}

func (f *fakeAI) DistillVisualPrompt(context.Context, string) (string, error) {
	return "wings over a blue sky", nil
}

func (f *fakeAI) GenerateImage(context.Context, string) ([]byte, error) {
	return []byte("png-bytes"), nil
}

func (f *fakeAI) Converse(_ context.Context, _, history string) (string, error) {
	f.gotHistory = history
	if f.converseErr != nil {
		return "", f.converseErr
	}
	return "Flying often means *release*.", nil
}

type testEnv struct {
	t       *testing.T
	ai      *fakeAI
	users   *services.UserService
	chats   *services.ChatService
	conv    *services.ConversationService
	handler *Handler
	routes  http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, rm := storetest.NewSQLite(t)
	log, err := logging.New("slog", "error", io.Discard)
	require.NoError(t, err)

	cfg := &config.Config{SecretKey: testSecret, AccessTokenValidityDuration: time.Hour}
	ai := &fakeAI{}
	users := services.NewUserService(db.DB, rm, cfg)
	chats := services.NewChatService(db.DB, rm)
	conv := services.NewConversationService(chats, users, ai, images.InlineStore{}, log)

	h, err := NewHandler(Deps{
		Users:        users,
		Chats:        chats,
		Conversation: conv,
		Images:       images.InlineStore{},
		Logger:       log,
		SecretKey:    testSecret,
		TokenTTL:     time.Hour,
		Timezone:     common.DefaultDisplayTimezone,
		Ping:         db.PingContext,
	})
	require.NoError(t, err)

	return &testEnv{t: t, ai: ai, users: users, chats: chats, conv: conv, handler: h, routes: h.Routes()}
}

// login registers email and returns its access token cookie.
func (e *testEnv) login(email string) (*http.Cookie, int64) {
	e.t.Helper()
	u, err := e.users.Register(context.Background(), email, "secret")
	require.NoError(e.t, err)
	token, err := e.users.IssueToken(u)
	require.NoError(e.t, err)
	return &http.Cookie{Name: common.AccessTokenCookieName, Value: token}, u.ID
}

func (e *testEnv) do(method, path, contentType, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	e.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.routes.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	return e.do(http.MethodGet, path, "", "", cookie)
}

func (e *testEnv) postForm(path, form string, cookie *http.Cookie) *httptest.ResponseRecorder {
	return e.do(http.MethodPost, path, "application/x-www-form-urlencoded", form, cookie)
}

func (e *testEnv) postJSON(path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	return e.do(http.MethodPost, path, "application/json", body, cookie)
}

func document(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

var errModelDown = errors.New("model unavailable")
