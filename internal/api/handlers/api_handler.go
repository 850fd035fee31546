package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/sample-app/internal/auth"
	"github.com/isdelr/sample-app/internal/models"
	"github.com/isdelr/sample-app/internal/services"
	"github.com/rs/zerolog/log"
)

// APIHandler serves the read-only JSON API.
type APIHandler struct {
	auth          *auth.Helper
	users         services.UserServiceProvider
	microposts    services.MicropostServiceProvider
	relationships services.RelationshipServiceProvider
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(helper *auth.Helper, users services.UserServiceProvider, microposts services.MicropostServiceProvider, relationships services.RelationshipServiceProvider) *APIHandler {
	return &APIHandler{auth: helper, users: users, microposts: microposts, relationships: relationships}
}

// UserProfile is a user together with their public counters.
type UserProfile struct {
	models.User
	Microposts int `json:"microposts"`
	Following  int `json:"following"`
	Followers  int `json:"followers"`
}

// GetUser returns a user's public profile.
func (h *APIHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.users.GetUserByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}

	profile := UserProfile{User: user}
	if profile.Microposts, err = h.microposts.CountForUser(ctx, user.ID); err != nil {
		h.fail(w, err)
		return
	}
	if profile.Following, err = h.relationships.CountFollowing(ctx, user.ID); err != nil {
		h.fail(w, err)
		return
	}
	if profile.Followers, err = h.relationships.CountFollowers(ctx, user.ID); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// GetUserMicroposts returns one page of a user's microposts.
func (h *APIHandler) GetUserMicroposts(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUserByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	page, err := h.microposts.ListForUser(r.Context(), user.ID, pageParam(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetFeed returns one page of the signed-in user's feed.
func (h *APIHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	user := h.auth.CurrentUser(r)
	page, err := h.microposts.Feed(r.Context(), user.ID, pageParam(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *APIHandler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, services.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
		return
	}
	log.Error().Err(err).Msg("API request failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
}
