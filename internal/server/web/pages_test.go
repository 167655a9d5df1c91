package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/dmitrijs2005/oneiromind/internal/common"
	"github.com/dmitrijs2005/oneiromind/internal/server/dialogue"
	"github.com/dmitrijs2005/oneiromind/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPages_RequireLogin(t *testing.T) {
	e := newTestEnv(t)

	for _, path := range []string{"/", "/chat/1", "/demographics"} {
		rec := e.get(path, nil)
		assert.Equal(t, http.StatusFound, rec.Code, path)
		assert.Equal(t, "/login", rec.Header().Get("Location"), path)
	}

	bogus := &http.Cookie{Name: common.AccessTokenCookieName, Value: "not-a-token"}
	rec := e.get("/", bogus)
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestLogin(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.users.Register(context.Background(), "dreamer@example.com", "secret")
	require.NoError(t, err)

	t.Run("page shows message", func(t *testing.T) {
		rec := e.get("/login?message=Welcome+back", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Welcome back", document(t, rec).Find(".notice").Text())
	})

	t.Run("success", func(t *testing.T) {
		rec := e.postForm("/login", "email=Dreamer@example.com&password=secret", nil)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))

		c := responseCookie(rec, common.AccessTokenCookieName)
		require.NotNil(t, c)
		assert.True(t, c.HttpOnly)
		assert.NotEmpty(t, c.Value)

		home := e.get("/", c)
		assert.Equal(t, http.StatusOK, home.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := e.postForm("/login", "email=dreamer@example.com&password=nope", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, responseCookie(rec, common.AccessTokenCookieName))
		assert.Equal(t, "Invalid email or password.", document(t, rec).Find("#server-error").Text())
	})

	t.Run("unknown email", func(t *testing.T) {
		rec := e.postForm("/login", "email=ghost@example.com&password=secret", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRegister(t *testing.T) {
	e := newTestEnv(t)

	rec := e.postForm("/register", "email=new@example.com&password=pw", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/demographics", rec.Header().Get("Location"))
	c := responseCookie(rec, common.AccessTokenCookieName)
	require.NotNil(t, c)

	page := e.get("/demographics", c)
	assert.Equal(t, http.StatusOK, page.Code)

	dup := e.postForm("/register", "email=NEW@example.com&password=other", nil)
	assert.Equal(t, http.StatusConflict, dup.Code)
	assert.Equal(t, "Email already exists.", document(t, dup).Find("#server-error").Text())

	bad := e.postForm("/register", "email=nobody&password=", nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	long := e.postForm("/register", "email=long@example.com&password="+strings.Repeat("p", 73), nil)
	assert.Equal(t, http.StatusBadRequest, long.Code)
	assert.Contains(t, document(t, long).Find("#server-error").Text(), "at most 72 bytes")
	assert.Nil(t, responseCookie(long, common.AccessTokenCookieName))
}

func TestLogout(t *testing.T) {
	e := newTestEnv(t)
	c, _ := e.login("out@example.com")

	rec := e.get("/logout", c)
	assert.Equal(t, http.StatusOK, rec.Code)
	cleared := responseCookie(rec, common.AccessTokenCookieName)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestDemographics(t *testing.T) {
	e := newTestEnv(t)
	c, id := e.login("about@example.com")

	rec := e.postForm("/submit_demographics", "age_range=25-34&gender=Female&country=+India+&life_stage=Student", c)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	d, err := e.users.GetDemographics(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "India", d.Country)

	doc := document(t, e.get("/demographics", c))
	assert.Equal(t, "25-34", doc.Find("#age_range option[selected]").AttrOr("value", ""))
	assert.Equal(t, "Student", doc.Find("#life_stage option[selected]").AttrOr("value", ""))
	assert.Equal(t, "India", doc.Find("#country").AttrOr("value", ""))
}

func TestHome(t *testing.T) {
	e := newTestEnv(t)
	c, id := e.login("home@example.com")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := e.chats.CreateSession(ctx, id)
		require.NoError(t, err)
	}

	doc := document(t, e.get("/", c))
	assert.Equal(t, 2, doc.Find(".session-list li.session").Length())
	assert.Equal(t, string(dialogue.InitialDream), doc.Find("#session-state").AttrOr("value", ""))
	assert.Equal(t, 0, doc.Find("#session-id-input").Length())
	assert.Equal(t, "home@example.com", doc.Find(".account .email").Text())
}

func TestChatPage(t *testing.T) {
	e := newTestEnv(t)
	c, id := e.login("chat@example.com")
	ctx := context.Background()

	sessionID, err := e.conv.SubmitDream(ctx, id, "I dreamt <b>I could fly</b>")
	require.NoError(t, err)

	rec := e.get(fmt.Sprintf("/chat/%d", sessionID), c)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := document(t, rec)

	assert.Equal(t, string(dialogue.AwaitingTherapyStart), doc.Find("#session-state").AttrOr("value", ""))
	assert.Equal(t, fmt.Sprint(sessionID), doc.Find("#session-id-input").AttrOr("value", ""))
	assert.Equal(t, 1, doc.Find(".session.active").Length())

	user := doc.Find(".message.user .message-text")
	require.Equal(t, 1, user.Length())
	assert.Equal(t, "I dreamt <b>I could fly</b>", user.Text())
	assert.Equal(t, 0, user.Find("b").Length())

	img := doc.Find(".message.bot img.dream-image")
	require.Equal(t, 1, img.Length())
	assert.True(t, strings.HasPrefix(img.AttrOr("src", ""), "data:image/png;base64,"))

	bot := doc.Find(".message.bot .message-text")
	require.Equal(t, 2, bot.Length())
	assert.Equal(t, "Direct Meaning:", bot.First().Find("strong").Text())
	assert.Equal(t, 2, bot.First().Find("li").Length())
	assert.Equal(t, dialogue.FollowupOffer, strings.TrimSpace(bot.Last().Text()))
}

func TestChatPage_Access(t *testing.T) {
	e := newTestEnv(t)
	owner, ownerID := e.login("owner@example.com")
	intruder, _ := e.login("intruder@example.com")

	sess, err := e.chats.CreateSession(context.Background(), ownerID)
	require.NoError(t, err)
	path := fmt.Sprintf("/chat/%d", sess.ID)

	assert.Equal(t, http.StatusOK, e.get(path, owner).Code)
	assert.Equal(t, http.StatusForbidden, e.get(path, intruder).Code)
	assert.Equal(t, http.StatusForbidden, e.get("/chat/9999", owner).Code)
	assert.Equal(t, http.StatusNotFound, e.get("/chat/abc", owner).Code)
}

func TestChatPage_LegacyPlaceholderImage(t *testing.T) {
	e := newTestEnv(t)
	c, id := e.login("legacy@example.com")
	ctx := context.Background()

	sess, err := e.chats.CreateSession(ctx, id)
	require.NoError(t, err)
	_, err = e.chats.AppendMessage(ctx, sess.ID, models.SenderUser, models.KindUnknown, models.StringPtr("a dream"), nil)
	require.NoError(t, err)
	placeholder := "https://placehold.co/512x512/000000/bbff00?text=Image+Gen+Failed"
	_, err = e.chats.AppendMessage(ctx, sess.ID, models.SenderBot, models.KindUnknown, nil, &placeholder)
	require.NoError(t, err)

	doc := document(t, e.get(fmt.Sprintf("/chat/%d", sess.ID), c))
	assert.Equal(t, placeholder, doc.Find("img.dream-image").AttrOr("src", ""))
}

func TestDeleteChat(t *testing.T) {
	e := newTestEnv(t)
	owner, ownerID := e.login("del@example.com")
	intruder, _ := e.login("other@example.com")
	ctx := context.Background()

	sessionID, err := e.conv.SubmitDream(ctx, ownerID, "falling")
	require.NoError(t, err)
	path := fmt.Sprintf("/delete_chat/%d", sessionID)

	assert.Equal(t, http.StatusUnauthorized, e.postForm(path, "", nil).Code)
	assert.Equal(t, http.StatusForbidden, e.postForm(path, "", intruder).Code)

	rec := e.postForm(path, "", owner)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	sessions, err := e.chats.ListSessions(ctx, ownerID)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	msgs, err := e.chats.ListMessages(ctx, sessionID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	assert.Equal(t, http.StatusForbidden, e.postForm(path, "", owner).Code)
}
