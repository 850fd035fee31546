package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/sample-app/internal/models"
	"github.com/isdelr/sample-app/internal/services"
	"github.com/rs/zerolog/log"
)

// SessionCookieName is the cookie holding the server-side session id.
const SessionCookieName = "_sample_app_session"

// Paths the access filters redirect to.
const (
	SignInPath = "/signin"
	RootPath   = "/"
)

// contextKey is the type of request context keys owned by this package.
type contextKey string

const stateKey = contextKey("authState")

// requestState is the per-request view of the session and the signed-in user.
type requestState struct {
	session  *services.Session
	flash    map[string]string
	user     *models.User
	resolved bool
}

// Helper implements cookie-based sign in, the current user lookup and the
// access-control filters used by the handlers.
type Helper struct {
	users    services.UserServiceProvider
	sessions services.SessionServiceProvider
	signer   *Signer
	secure   bool
}

// NewHelper creates a new Helper. secure marks cookies HTTPS-only.
func NewHelper(users services.UserServiceProvider, sessions services.SessionServiceProvider, signer *Signer, secure bool) *Helper {
	return &Helper{users: users, sessions: sessions, signer: signer, secure: secure}
}

// Middleware loads the browser's session and moves any queued flash messages
// into the request, so they are shown on this page and then discarded.
func (h *Helper) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := &requestState{}
		r = r.WithContext(context.WithValue(r.Context(), stateKey, st))

		if cookie, err := r.Cookie(SessionCookieName); err == nil {
			sess, err := h.sessions.Load(r.Context(), cookie.Value)
			switch {
			case err == nil:
				st.session = sess
			case !errors.Is(err, services.ErrNotFound):
				log.Error().Err(err).Msg("Failed to load session")
			}
		}

		if st.session != nil {
			if flash := st.session.TakeFlash(); len(flash) > 0 {
				st.flash = flash
				h.persist(w, r, st.session)
			}
		}

		next.ServeHTTP(w, r)
	})
}

// SignIn sets the permanent remember_token cookie for user and makes them the
// current user for the rest of the request.
func (h *Helper) SignIn(w http.ResponseWriter, r *http.Request, user models.User) error {
	token, err := h.signer.Sign(user)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     RememberCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(rememberFor),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	st := stateFrom(r)
	st.user = &user
	st.resolved = true
	return nil
}

// SignOut clears the remember_token cookie.
func (h *Helper) SignOut(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     RememberCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	st := stateFrom(r)
	st.user = nil
	st.resolved = true
}

// CurrentUser returns the signed-in user or nil. The lookup runs at most once
// per request.
func (h *Helper) CurrentUser(r *http.Request) *models.User {
	st := stateFrom(r)
	if !st.resolved {
		st.user = h.userFromRememberToken(r)
		st.resolved = true
	}
	return st.user
}

// SignedIn reports whether the request carries a valid remember token.
func (h *Helper) SignedIn(r *http.Request) bool {
	return h.CurrentUser(r) != nil
}

// IsCurrentUser reports whether user is the one signed in.
func (h *Helper) IsCurrentUser(r *http.Request, user models.User) bool {
	current := h.CurrentUser(r)
	return current != nil && current.ID == user.ID
}

// Authenticate denies access to signed-out visitors.
func (h *Helper) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.SignedIn(r) {
			h.DenyAccess(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CorrectUser only lets users act on their own {id}.
func (h *Helper) CorrectUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := h.CurrentUser(r)
		if current == nil || current.ID != chi.URLParam(r, "id") {
			http.Redirect(w, r, RootPath, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminUser only lets admins through.
func (h *Helper) AdminUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := h.CurrentUser(r)
		if current == nil || !current.Admin {
			http.Redirect(w, r, RootPath, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// APIAuthenticate is Authenticate for JSON endpoints: 401 instead of a redirect.
func (h *Helper) APIAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.SignedIn(r) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Please sign in to access this resource"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// DenyAccess remembers where the visitor was going and sends them to sign in.
// Only GET requests are remembered, since the redirect back is always a GET.
func (h *Helper) DenyAccess(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	if r.Method == http.MethodGet {
		sess.ReturnTo = r.URL.RequestURI()
	}
	sess.AddFlash("notice", "Please sign in to access this page")
	h.persist(w, r, sess)
	http.Redirect(w, r, SignInPath, http.StatusFound)
}

// RedirectBackOr redirects to the stored location, or to fallback when there
// is none, and forgets the stored location.
func (h *Helper) RedirectBackOr(w http.ResponseWriter, r *http.Request, fallback string) {
	target := fallback
	if st := stateFrom(r); st.session != nil && st.session.ReturnTo != "" {
		target = st.session.ReturnTo
		st.session.ReturnTo = ""
		h.persist(w, r, st.session)
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// Flash queues a message for the next page the browser renders.
func (h *Helper) Flash(w http.ResponseWriter, r *http.Request, kind, message string) {
	sess := h.session(r)
	sess.AddFlash(kind, message)
	h.persist(w, r, sess)
}

// Flashes returns the messages queued by the previous request.
func (h *Helper) Flashes(r *http.Request) map[string]string {
	return stateFrom(r).flash
}

func (h *Helper) userFromRememberToken(r *http.Request) *models.User {
	cookie, err := r.Cookie(RememberCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	claims, err := h.signer.Verify(cookie.Value)
	if err != nil {
		log.Debug().Err(err).Msg("Ignoring invalid remember token")
		return nil
	}
	user, err := h.users.AuthenticateWithSalt(r.Context(), claims.UserID, claims.Salt)
	if err != nil {
		if !errors.Is(err, services.ErrInvalidCredentials) {
			log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to load user from remember token")
		}
		return nil
	}
	return &user
}

func (h *Helper) session(r *http.Request) *services.Session {
	st := stateFrom(r)
	if st.session == nil {
		st.session = services.NewSession()
	}
	return st.session
}

func (h *Helper) persist(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	if err := h.sessions.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("Failed to save session")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func stateFrom(r *http.Request) *requestState {
	if st, ok := r.Context().Value(stateKey).(*requestState); ok {
		return st
	}
	return &requestState{}
}
