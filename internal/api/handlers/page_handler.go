package handlers

import (
	"net/http"

	"github.com/isdelr/sample-app/internal/views"
)

// PagesHandler serves the home page and the static informational pages.
type PagesHandler struct {
	*Pages
}

// NewPagesHandler creates a new PagesHandler.
func NewPagesHandler(p *Pages) *PagesHandler {
	return &PagesHandler{Pages: p}
}

// Home shows the sign-up pitch, or the feed for signed-in users.
func (h *PagesHandler) Home(w http.ResponseWriter, r *http.Request) {
	user := h.auth.CurrentUser(r)
	if user == nil {
		h.render(w, r, http.StatusOK, "home", &views.Data{Title: "Home"})
		return
	}

	content, err := h.home(r, *user, "")
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "home", &views.Data{Title: "Home", Content: content})
}

func (h *PagesHandler) Contact(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "contact", &views.Data{Title: "Contact"})
}

func (h *PagesHandler) About(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "about", &views.Data{Title: "About"})
}

func (h *PagesHandler) Help(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "help", &views.Data{Title: "Help"})
}

// NotFound renders the 404 page for unknown routes.
func (h *PagesHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.notFound(w, r)
}
