package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/sample-app/internal/auth"
	"github.com/isdelr/sample-app/internal/metrics"
	"github.com/isdelr/sample-app/internal/models"
	"github.com/isdelr/sample-app/internal/services"
	"github.com/isdelr/sample-app/internal/views"
	"github.com/isdelr/sample-app/internal/websocket"
	"github.com/rs/zerolog/log"
)

// FeedPublisher pushes messages to the live feeds of the given users.
type FeedPublisher interface {
	PublishTo(userIDs []string, message []byte)
}

// MicropostHandler creates and deletes microposts.
type MicropostHandler struct {
	*Pages
	publisher FeedPublisher
}

// NewMicropostHandler creates a new MicropostHandler.
func NewMicropostHandler(p *Pages, publisher FeedPublisher) *MicropostHandler {
	return &MicropostHandler{Pages: p, publisher: publisher}
}

// Create posts a micropost as the current user.
func (h *MicropostHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := *h.auth.CurrentUser(r)
	content := r.PostFormValue("micropost[content]")

	post, err := h.microposts.CreateMicropost(r.Context(), user.ID, content)
	if err != nil {
		msgs, ok := validationMessages(err)
		if !ok {
			log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to create micropost")
			h.serverError(w, r, err)
			return
		}
		home, err := h.home(r, user, content)
		if err != nil {
			h.serverError(w, r, err)
			return
		}
		h.render(w, r, http.StatusOK, "home", &views.Data{Title: "Home", Errors: msgs, Content: home})
		return
	}
	metrics.RecordMicropost()

	post.User = &user
	h.announce(r.Context(), post)

	h.auth.Flash(w, r, "success", "Micropost created!")
	http.Redirect(w, r, auth.RootPath, http.StatusFound)
}

// Destroy deletes one of the current user's microposts. Anyone else's is
// silently left alone.
func (h *MicropostHandler) Destroy(w http.ResponseWriter, r *http.Request) {
	user := h.auth.CurrentUser(r)
	post, err := h.microposts.GetMicropost(r.Context(), chi.URLParam(r, "id"))
	if err != nil && !errors.Is(err, services.ErrNotFound) {
		h.serverError(w, r, err)
		return
	}
	if err != nil || post.UserID != user.ID {
		http.Redirect(w, r, auth.RootPath, http.StatusFound)
		return
	}

	if err := h.microposts.DeleteMicropost(r.Context(), post.ID); err != nil {
		log.Error().Err(err).Str("micropost_id", post.ID).Msg("Failed to delete micropost")
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, auth.RootPath, http.StatusFound)
}

// announce pushes the new post to the author and everyone following them.
func (h *MicropostHandler) announce(ctx context.Context, post models.Micropost) {
	followers, err := h.relationships.FollowerIDs(ctx, post.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", post.UserID).Msg("Failed to load followers for live feed")
		return
	}
	h.publisher.PublishTo(append(followers, post.UserID), websocket.NewMicropostMessage(post))
}
