package api

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/isdelr/sample-app/internal/auth"
	"github.com/isdelr/sample-app/internal/database"
	"github.com/isdelr/sample-app/internal/models"
	"github.com/isdelr/sample-app/internal/monitoring"
	"github.com/isdelr/sample-app/internal/services"
	"github.com/isdelr/sample-app/internal/views"
	"github.com/isdelr/sample-app/internal/websocket"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type stubStats struct{}

func (stubStats) Collect(context.Context) (monitoring.HostStats, error) {
	return monitoring.HostStats{CPUPercent: 12.5, MemUsedPercent: 40, Uptime: 3 * time.Hour, Goroutines: 7}, nil
}

type testApp struct {
	t             *testing.T
	server        *httptest.Server
	client        *http.Client
	signer        *auth.Signer
	users         *services.UserService
	microposts    *services.MicropostService
	relationships *services.RelationshipService
	hub           *websocket.Hub
}

var emailSeq atomic.Int64

func newTestApp(t *testing.T) *testApp {
	return newTestAppWithLimiter(t, NewRateLimiter(1000, 1000))
}

// newTestAppWithLimiter builds the app; overrides may swap dependencies
// before the router is assembled.
func newTestAppWithLimiter(t *testing.T, limiter *RateLimiter, overrides ...func(*Dependencies)) *testApp {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))

	renderer, err := views.New()
	require.NoError(t, err)

	app := &testApp{
		t:             t,
		signer:        auth.NewSigner("test-secret"),
		users:         services.NewUserService(db).WithPasswordCost(bcrypt.MinCost),
		microposts:    services.NewMicropostService(db),
		relationships: services.NewRelationshipService(db),
		hub:           websocket.NewHub(),
	}
	go app.hub.Run()
	t.Cleanup(app.hub.Stop)

	sessions := services.NewSessionService(db, time.Hour)
	deps := Dependencies{
		Auth:           auth.NewHelper(app.users, sessions, app.signer, false),
		Views:          renderer,
		Users:          app.users,
		Microposts:     app.microposts,
		Relationships:  app.relationships,
		Hub:            app.hub,
		Stats:          stubStats{},
		SignInLimiter:  limiter,
		AllowedOrigins: []string{"http://localhost:3000"},
	}
	for _, override := range overrides {
		override(&deps)
	}
	app.server = httptest.NewServer(NewRouter(deps))
	t.Cleanup(app.server.Close)

	app.resetClient()
	return app
}

// resetClient starts a fresh browser with an empty cookie jar.
func (a *testApp) resetClient() {
	jar, err := cookiejar.New(nil)
	require.NoError(a.t, err)
	a.client = &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

type response struct {
	Status   int
	Location string
	Body     string
	Header   http.Header
}

func (a *testApp) do(req *http.Request) response {
	a.t.Helper()
	res, err := a.client.Do(req)
	require.NoError(a.t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(a.t, err)
	return response{Status: res.StatusCode, Location: res.Header.Get("Location"), Body: string(body), Header: res.Header}
}

func (a *testApp) get(path string) response {
	a.t.Helper()
	req, err := http.NewRequest(http.MethodGet, a.server.URL+path, nil)
	require.NoError(a.t, err)
	return a.do(req)
}

// post submits a form. Set "_method" to send PUT or DELETE the way the
// browser forms do.
func (a *testApp) post(path string, form url.Values) response {
	a.t.Helper()
	req, err := http.NewRequest(http.MethodPost, a.server.URL+path, strings.NewReader(form.Encode()))
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(req)
}

func (a *testApp) delete(path string) response {
	a.t.Helper()
	return a.post(path, url.Values{"_method": {"delete"}})
}

// follow fetches a redirect target.
func (a *testApp) follow(res response) response {
	a.t.Helper()
	require.Equal(a.t, http.StatusFound, res.Status, res.Body)
	return a.get(res.Location)
}

func (a *testApp) createUser(name string) models.User {
	a.t.Helper()
	email := strings.ToLower(strings.ReplaceAll(name, " ", "")) + "-" + itoa(emailSeq.Add(1)) + "@example.com"
	u, err := a.users.CreateUser(context.Background(), models.UserForm{
		Name: name, Email: email, Password: "foobar", PasswordConfirmation: "foobar",
	})
	require.NoError(a.t, err)
	return u
}

func (a *testApp) createAdmin(name string) models.User {
	a.t.Helper()
	u := a.createUser(name)
	require.NoError(a.t, a.users.SetAdmin(context.Background(), u.ID, true))
	u.Admin = true
	return u
}

// signIn plants a remember token for u in the browser's cookie jar.
func (a *testApp) signIn(u models.User) {
	a.t.Helper()
	token, err := a.signer.Sign(u)
	require.NoError(a.t, err)
	base, err := url.Parse(a.server.URL)
	require.NoError(a.t, err)
	a.client.Jar.SetCookies(base, []*http.Cookie{{Name: auth.RememberCookieName, Value: token, Path: "/"}})
}

func (a *testApp) createMicropost(u models.User, content string) models.Micropost {
	a.t.Helper()
	post, err := a.microposts.CreateMicropost(context.Background(), u.ID, content)
	require.NoError(a.t, err)
	return post
}

func (a *testApp) followUser(follower, followed models.User) models.Relationship {
	a.t.Helper()
	rel, err := a.relationships.Follow(context.Background(), follower.ID, followed.ID)
	require.NoError(a.t, err)
	return rel
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
