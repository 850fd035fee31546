package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminStats(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser("Ann")
	app.createMicropost(user, "hello")

	res := app.get("/admin/stats")
	assert.Equal(t, "/signin", res.Location)

	app.signIn(user)
	res = app.get("/admin/stats")
	assert.Equal(t, "/", res.Location)

	app.signIn(app.createAdmin("Admin"))
	res = app.get("/admin/stats")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Contains(t, res.Body, "<title>Sample App | Site stats</title>")
	assert.Contains(t, res.Body, `<td id="users_count">2</td>`)
	assert.Contains(t, res.Body, `<td id="microposts_count">1</td>`)
	assert.Contains(t, res.Body, "12.5%")
	assert.Contains(t, res.Body, "3 hours")
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t)
	app.get("/help")

	res := app.get("/metrics")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Contains(t, res.Body, `sample_app_http_requests_total{method="GET",path="/help",status="200"}`)
}
