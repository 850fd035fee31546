package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticPages_Titles(t *testing.T) {
	app := newTestApp(t)

	for path, title := range map[string]string{
		"/":        "Home",
		"/contact": "Contact",
		"/about":   "About",
		"/help":    "Help",
	} {
		res := app.get(path)
		require.Equal(t, http.StatusOK, res.Status, path)
		assert.Contains(t, res.Body, "<title>Sample App | "+title+"</title>", path)
	}
}

func TestHome_SignedOutOffersSignup(t *testing.T) {
	app := newTestApp(t)

	res := app.get("/")
	assert.Contains(t, res.Body, `href="/signup"`)
	assert.NotContains(t, res.Body, "micropost[content]")
}

func TestHome_MicropostCountIsPluralized(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser("Ann")
	app.signIn(user)

	for _, want := range []string{"0 microposts", "1 micropost", "2 microposts"} {
		res := app.get("/")
		require.Equal(t, http.StatusOK, res.Status)
		assert.Contains(t, res.Body, `<span class="microposts">`+want+`</span>`)
		app.createMicropost(user, "Foo bar")
	}
}

func TestHome_FollowCounts(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser("Ann")
	app.followUser(app.createUser("Bob"), user)
	app.signIn(user)

	res := app.get("/")
	assert.Contains(t, res.Body, `<a href="/users/`+user.ID+`/following">0 following</a>`)
	assert.Contains(t, res.Body, `<a href="/users/`+user.ID+`/followers">1 follower</a>`)
}

func TestHome_FeedIncludesFollowedUsers(t *testing.T) {
	app := newTestApp(t)
	ann := app.createUser("Ann")
	bob := app.createUser("Bob")
	carl := app.createUser("Carl")
	app.followUser(ann, bob)
	app.createMicropost(ann, "mine")
	app.createMicropost(bob, "followed")
	app.createMicropost(carl, "stranger")
	app.signIn(ann)

	res := app.get("/")
	assert.Contains(t, res.Body, `<span class="content">mine</span>`)
	assert.Contains(t, res.Body, `<span class="content">followed</span>`)
	assert.NotContains(t, res.Body, "stranger")
}

func TestUnknownRoute_RendersNotFound(t *testing.T) {
	app := newTestApp(t)

	res := app.get("/no/such/page")
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Contains(t, res.Body, "<title>Sample App | Not found</title>")
}

func TestStaticAssets(t *testing.T) {
	app := newTestApp(t)

	res := app.get("/static/app.css")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Contains(t, res.Header.Get("Content-Type"), "text/css")
}
