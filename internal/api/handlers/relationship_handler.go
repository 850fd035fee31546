package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/sample-app/internal/auth"
	"github.com/isdelr/sample-app/internal/services"
	"github.com/rs/zerolog/log"
)

// RelationshipHandler follows and unfollows users.
type RelationshipHandler struct {
	*Pages
}

// NewRelationshipHandler creates a new RelationshipHandler.
func NewRelationshipHandler(p *Pages) *RelationshipHandler {
	return &RelationshipHandler{Pages: p}
}

// Create makes the current user follow relationship[followed_id].
func (h *RelationshipHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := h.auth.CurrentUser(r)
	followedID := r.PostFormValue("relationship[followed_id]")

	_, err := h.relationships.Follow(r.Context(), user.ID, followedID)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrSelfFollow):
		http.Redirect(w, r, auth.RootPath, http.StatusFound)
		return
	default:
		if _, ok := validationMessages(err); ok {
			h.notFound(w, r)
			return
		}
		log.Error().Err(err).Str("user_id", user.ID).Str("followed_id", followedID).Msg("Failed to follow user")
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/users/"+followedID, http.StatusFound)
}

// Destroy removes one of the current user's follow relationships.
func (h *RelationshipHandler) Destroy(w http.ResponseWriter, r *http.Request) {
	user := h.auth.CurrentUser(r)
	rel, err := h.relationships.GetRelationship(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if rel.FollowerID != user.ID {
		http.Redirect(w, r, auth.RootPath, http.StatusFound)
		return
	}

	if err := h.relationships.Unfollow(r.Context(), user.ID, rel.FollowedID); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Str("followed_id", rel.FollowedID).Msg("Failed to unfollow user")
		h.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/users/"+rel.FollowedID, http.StatusFound)
}
