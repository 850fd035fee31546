package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/isdelr/sample-app/internal/auth"
	"github.com/isdelr/sample-app/internal/models"
	"github.com/isdelr/sample-app/internal/services"
	"github.com/isdelr/sample-app/internal/views"
	"github.com/rs/zerolog/log"
)

// Pages renders HTML for the handlers. It fills in the signed-in user and the
// flash so handlers only deal with their own content.
type Pages struct {
	views         *views.Renderer
	auth          *auth.Helper
	microposts    services.MicropostServiceProvider
	relationships services.RelationshipServiceProvider
}

// NewPages creates the shared page renderer for the HTML handlers.
func NewPages(renderer *views.Renderer, helper *auth.Helper, microposts services.MicropostServiceProvider, relationships services.RelationshipServiceProvider) *Pages {
	return &Pages{views: renderer, auth: helper, microposts: microposts, relationships: relationships}
}

func (p *Pages) render(w http.ResponseWriter, r *http.Request, status int, page string, data *views.Data) {
	data.CurrentUser = p.auth.CurrentUser(r)
	if data.Flash == nil {
		data.Flash = p.auth.Flashes(r)
	}
	if err := p.views.Render(w, status, page, data); err != nil {
		log.Error().Err(err).Str("page", page).Msg("Failed to render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (p *Pages) notFound(w http.ResponseWriter, r *http.Request) {
	p.render(w, r, http.StatusNotFound, "not_found", &views.Data{Title: "Not found"})
}

func (p *Pages) serverError(w http.ResponseWriter, r *http.Request, err error) {
	log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Request failed")
	p.render(w, r, http.StatusInternalServerError, "error", &views.Data{Title: "Error"})
}

// fail maps a service error to the not-found or error page.
func (p *Pages) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, services.ErrNotFound) {
		p.notFound(w, r)
		return
	}
	p.serverError(w, r, err)
}

// sidebar gathers the counts shown next to feeds and follow lists.
func (p *Pages) sidebar(r *http.Request, user models.User) (views.Sidebar, error) {
	ctx := r.Context()
	sb := views.Sidebar{User: user}
	var err error
	if sb.MicropostCount, err = p.microposts.CountForUser(ctx, user.ID); err != nil {
		return sb, err
	}
	if sb.Following, err = p.relationships.CountFollowing(ctx, user.ID); err != nil {
		return sb, err
	}
	if sb.Followers, err = p.relationships.CountFollowers(ctx, user.ID); err != nil {
		return sb, err
	}
	return sb, nil
}

// home builds the signed-in home page for user.
func (p *Pages) home(r *http.Request, user models.User, draft string) (views.HomeContent, error) {
	sb, err := p.sidebar(r, user)
	if err != nil {
		return views.HomeContent{}, err
	}
	feed, err := p.microposts.Feed(r.Context(), user.ID, pageParam(r))
	if err != nil {
		return views.HomeContent{}, err
	}
	return views.HomeContent{
		Sidebar: sb,
		Feed: views.Feed{
			Items:         feed.Items,
			Pager:         views.NewPager("/", feed),
			CurrentUserID: user.ID,
		},
		Draft: draft,
	}, nil
}

// pageParam reads ?page=N, defaulting to the first page.
func pageParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		return 1
	}
	return models.NormalizePage(n)
}

// validationMessages returns the user-facing messages in err, if it is a
// validation failure.
func validationMessages(err error) ([]string, bool) {
	var verrs models.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs.FullMessages(), true
	}
	return nil, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
