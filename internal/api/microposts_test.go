package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/isdelr/sample-app/internal/auth"
	"github.com/isdelr/sample-app/internal/models"
	"github.com/isdelr/sample-app/internal/services"
	ws "github.com/isdelr/sample-app/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMicropostsCreate_RequiresSignIn(t *testing.T) {
	app := newTestApp(t)

	res := app.post("/microposts", url.Values{"micropost[content]": {"Lorem ipsum"}})
	assert.Equal(t, "/signin", res.Location)

	res = app.delete("/microposts/whatever")
	assert.Equal(t, "/signin", res.Location)
}

func TestMicropostsDestroy_SignInAfterDenialGoesToProfile(t *testing.T) {
	app := newTestApp(t)
	ann := app.createUser("Ann")
	post := app.createMicropost(ann, "keep me")

	res := app.delete("/microposts/" + post.ID)
	require.Equal(t, "/signin", res.Location)

	res = app.post("/sessions", signInForm(ann.Email, "foobar"))
	require.Equal(t, http.StatusFound, res.Status)
	assert.Equal(t, "/users/"+ann.ID, res.Location)

	_, err := app.microposts.GetMicropost(context.Background(), post.ID)
	assert.NoError(t, err)
}

func TestMicropostsCreate(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser("Ann")
	app.signIn(user)
	ctx := context.Background()

	res := app.post("/microposts", url.Values{"micropost[content]": {""}})
	require.Equal(t, http.StatusOK, res.Status)
	assert.Contains(t, res.Body, "<title>Sample App | Home</title>")
	assert.Contains(t, res.Body, "Content can&#39;t be blank")

	long := strings.Repeat("a", 141)
	res = app.post("/microposts", url.Values{"micropost[content]": {long}})
	require.Equal(t, http.StatusOK, res.Status)
	assert.Contains(t, res.Body, `id="error_explanation"`)
	assert.Contains(t, res.Body, long+"</textarea>")

	n, err := app.microposts.CountForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	res = app.post("/microposts", url.Values{"micropost[content]": {"Lorem ipsum"}})
	require.Equal(t, http.StatusFound, res.Status)
	assert.Equal(t, "/", res.Location)

	page := app.follow(res)
	assert.Contains(t, page.Body, "Micropost created!")
	assert.Contains(t, page.Body, `<span class="content">Lorem ipsum</span>`)
}

func TestMicropostsDestroy(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	ann := app.createUser("Ann")
	bob := app.createUser("Bob")
	mine := app.createMicropost(ann, "mine")
	theirs := app.createMicropost(bob, "theirs")
	app.signIn(ann)

	res := app.delete("/microposts/" + theirs.ID)
	require.Equal(t, http.StatusFound, res.Status)
	assert.Equal(t, "/", res.Location)
	_, err := app.microposts.GetMicropost(ctx, theirs.ID)
	assert.NoError(t, err)

	res = app.delete("/microposts/" + mine.ID)
	require.Equal(t, http.StatusFound, res.Status)
	_, err = app.microposts.GetMicropost(ctx, mine.ID)
	assert.Error(t, err)
}

func TestMicropostsDestroy_MissingPostRedirectsHome(t *testing.T) {
	app := newTestApp(t)
	app.signIn(app.createUser("Ann"))

	res := app.delete("/microposts/does-not-exist")
	require.Equal(t, http.StatusFound, res.Status)
	assert.Equal(t, "/", res.Location)
}

type brokenMicroposts struct {
	services.MicropostServiceProvider
}

func (brokenMicroposts) GetMicropost(context.Context, string) (models.Micropost, error) {
	return models.Micropost{}, errors.New("database is locked")
}

func TestMicropostsDestroy_LookupFailureIsServerError(t *testing.T) {
	app := newTestAppWithLimiter(t, NewRateLimiter(1000, 1000), func(d *Dependencies) {
		d.Microposts = brokenMicroposts{d.Microposts}
	})
	ann := app.createUser("Ann")
	post := app.createMicropost(ann, "stays put")
	app.signIn(ann)

	res := app.delete("/microposts/" + post.ID)
	assert.Equal(t, http.StatusInternalServerError, res.Status)
	assert.Empty(t, res.Location)

	_, err := app.microposts.GetMicropost(context.Background(), post.ID)
	assert.NoError(t, err)
}

func TestMicropostsCreate_PushesToFollowersLiveFeed(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser("Ann")
	follower := app.createUser("Bob")
	stranger := app.createUser("Carl")
	app.followUser(follower, author)

	followerConn := app.dialFeed(follower)
	strangerConn := app.dialFeed(stranger)
	require.Eventually(t, func() bool { return app.hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	app.signIn(author)
	res := app.post("/microposts", url.Values{"micropost[content]": {"Hello followers"}})
	require.Equal(t, http.StatusFound, res.Status)

	require.NoError(t, followerConn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg ws.Message
	require.NoError(t, followerConn.ReadJSON(&msg))
	assert.Equal(t, ws.ActionMicropostCreated, msg.Action)
	payload, ok := msg.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Hello followers", payload["content"])

	require.NoError(t, strangerConn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := strangerConn.ReadMessage()
	assert.Error(t, err)
}

func TestFeedSocket_RequiresSignIn(t *testing.T) {
	app := newTestApp(t)

	_, res, err := gorilla.DefaultDialer.Dial(strings.Replace(app.server.URL, "http", "ws", 1)+"/ws/feed", nil)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

// dialFeed opens a live feed socket as u.
func (a *testApp) dialFeed(u models.User) *gorilla.Conn {
	a.t.Helper()
	token, err := a.signer.Sign(u)
	require.NoError(a.t, err)

	header := http.Header{}
	header.Set("Cookie", (&http.Cookie{Name: auth.RememberCookieName, Value: token}).String())
	conn, _, err := gorilla.DefaultDialer.Dial(strings.Replace(a.server.URL, "http", "ws", 1)+"/ws/feed", header)
	require.NoError(a.t, err)
	a.t.Cleanup(func() { conn.Close() })
	return conn
}
