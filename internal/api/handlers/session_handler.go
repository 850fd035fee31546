package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/isdelr/sample-app/internal/auth"
	"github.com/isdelr/sample-app/internal/metrics"
	"github.com/isdelr/sample-app/internal/services"
	"github.com/isdelr/sample-app/internal/views"
	"github.com/rs/zerolog/log"
)

// SessionHandler signs users in and out.
type SessionHandler struct {
	*Pages
	users services.UserServiceProvider
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(p *Pages, users services.UserServiceProvider) *SessionHandler {
	return &SessionHandler{Pages: p, users: users}
}

// New shows the sign-in form.
func (h *SessionHandler) New(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "sessions_new", &views.Data{Title: "Sign in", Content: views.SignInContent{}})
}

// Create checks the email and password and signs the user in.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("session[email]"))
	password := r.PostFormValue("session[password]")

	user, err := h.users.Authenticate(r.Context(), email, password)
	if err != nil {
		if !errors.Is(err, services.ErrInvalidCredentials) {
			h.serverError(w, r, err)
			return
		}
		log.Warn().Str("email", email).Msg("Failed authentication attempt")
		metrics.RecordSignin(false)
		h.render(w, r, http.StatusOK, "sessions_new", &views.Data{
			Title:   "Sign in",
			Flash:   map[string]string{"error": "Invalid email/password combination."},
			Content: views.SignInContent{Email: email},
		})
		return
	}
	metrics.RecordSignin(true)

	if err := h.auth.SignIn(w, r, user); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to sign in user")
		h.serverError(w, r, err)
		return
	}
	h.auth.RedirectBackOr(w, r, "/users/"+user.ID)
}

// Destroy signs the user out.
func (h *SessionHandler) Destroy(w http.ResponseWriter, r *http.Request) {
	h.auth.SignOut(w, r)
	http.Redirect(w, r, auth.RootPath, http.StatusFound)
}
