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
	"github.com/rs/zerolog/log"
)

// UserHandler handles HTTP requests for user management.
type UserHandler struct {
	*Pages
	users services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(p *Pages, users services.UserServiceProvider) *UserHandler {
	return &UserHandler{Pages: p, users: users}
}

// Index lists every user, thirty per page.
func (h *UserHandler) Index(w http.ResponseWriter, r *http.Request) {
	page, err := h.users.ListUsers(r.Context(), pageParam(r))
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "users_index", &views.Data{
		Title:   "All users",
		Content: views.UsersIndexContent{Users: page.Items, Pager: views.NewPager("/users", page)},
	})
}

// Show renders a profile with the user's microposts.
func (h *UserHandler) Show(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.users.GetUserByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	sb, err := h.sidebar(r, user)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	posts, err := h.microposts.ListForUser(ctx, user.ID, pageParam(r))
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	content := views.ProfileContent{
		User:    user,
		Sidebar: sb,
		Feed:    views.Feed{Items: posts.Items, Pager: views.NewPager("/users/"+user.ID, posts)},
	}
	if current := h.auth.CurrentUser(r); current != nil {
		content.Feed.CurrentUserID = current.ID
		if current.ID != user.ID {
			content.ShowFollowForm = true
			rel, err := h.relationships.FindRelationship(ctx, current.ID, user.ID)
			switch {
			case err == nil:
				content.Relationship = &rel
			case !errors.Is(err, services.ErrNotFound):
				h.serverError(w, r, err)
				return
			}
		}
	}

	h.render(w, r, http.StatusOK, "users_show", &views.Data{Title: user.Name, Content: content})
}

// New shows the sign-up form.
func (h *UserHandler) New(w http.ResponseWriter, r *http.Request) {
	if h.auth.SignedIn(r) {
		http.Redirect(w, r, auth.RootPath, http.StatusFound)
		return
	}
	h.render(w, r, http.StatusOK, "users_new", &views.Data{Title: "Sign up", Content: views.UserFormContent{}})
}

// Create registers a new user and signs them in.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.auth.SignedIn(r) {
		http.Redirect(w, r, auth.RootPath, http.StatusFound)
		return
	}

	form := userForm(r)
	user, err := h.users.CreateUser(r.Context(), form)
	if err != nil {
		if msgs, ok := validationMessages(err); ok {
			h.render(w, r, http.StatusOK, "users_new", &views.Data{
				Title:   "Sign up",
				Errors:  msgs,
				Content: views.UserFormContent{Form: blankPasswords(form)},
			})
			return
		}
		log.Error().Err(err).Str("email", form.Email).Msg("Failed to register user")
		h.serverError(w, r, err)
		return
	}
	metrics.RecordSignup()

	if err := h.auth.SignIn(w, r, user); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.auth.Flash(w, r, "success", "Welcome to the Sample App!")
	http.Redirect(w, r, "/users/"+user.ID, http.StatusFound)
}

// Edit shows the settings form for the current user.
func (h *UserHandler) Edit(w http.ResponseWriter, r *http.Request) {
	user := *h.auth.CurrentUser(r)
	h.render(w, r, http.StatusOK, "users_edit", &views.Data{
		Title:   "Edit user",
		Content: views.UserFormContent{User: user, Form: models.UserForm{Name: user.Name, Email: user.Email}},
	})
}

// Update saves the current user's new settings.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	current := *h.auth.CurrentUser(r)
	form := userForm(r)

	user, err := h.users.UpdateUser(r.Context(), current.ID, form)
	if err != nil {
		if msgs, ok := validationMessages(err); ok {
			h.render(w, r, http.StatusOK, "users_edit", &views.Data{
				Title:   "Edit user",
				Errors:  msgs,
				Content: views.UserFormContent{User: current, Form: blankPasswords(form)},
			})
			return
		}
		log.Error().Err(err).Str("user_id", current.ID).Msg("Failed to update user")
		h.fail(w, r, err)
		return
	}

	// The salt changed with the password, so re-issue the remember token.
	if err := h.auth.SignIn(w, r, user); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.auth.Flash(w, r, "success", "Profile updated.")
	http.Redirect(w, r, "/users/"+user.ID, http.StatusFound)
}

// Destroy lets an admin delete another user. Admins cannot delete themselves.
func (h *UserHandler) Destroy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if h.auth.CurrentUser(r).ID == id {
		http.Redirect(w, r, "/users", http.StatusFound)
		return
	}

	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		log.Error().Err(err).Str("user_id", id).Msg("Failed to delete user")
		h.fail(w, r, err)
		return
	}
	h.auth.Flash(w, r, "success", "User destroyed.")
	http.Redirect(w, r, "/users", http.StatusFound)
}

// Following lists the users someone follows.
func (h *UserHandler) Following(w http.ResponseWriter, r *http.Request) {
	h.follows(w, r, "Following", "following", h.relationships.Following)
}

// Followers lists the users following someone.
func (h *UserHandler) Followers(w http.ResponseWriter, r *http.Request) {
	h.follows(w, r, "Followers", "followers", h.relationships.Followers)
}

func (h *UserHandler) follows(w http.ResponseWriter, r *http.Request, title, path string,
	list func(ctx context.Context, userID string, page int) (models.Page[models.User], error)) {
	user, err := h.users.GetUserByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sb, err := h.sidebar(r, user)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	page, err := list(r.Context(), user.ID, pageParam(r))
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "users_follow", &views.Data{
		Title: title,
		Content: views.FollowContent{
			Heading: title,
			Sidebar: sb,
			Users:   page.Items,
			Pager:   views.NewPager("/users/"+user.ID+"/"+path, page),
		},
	})
}

func userForm(r *http.Request) models.UserForm {
	return models.UserForm{
		Name:                 r.PostFormValue("user[name]"),
		Email:                r.PostFormValue("user[email]"),
		Password:             r.PostFormValue("user[password]"),
		PasswordConfirmation: r.PostFormValue("user[password_confirmation]"),
	}
}

func blankPasswords(form models.UserForm) models.UserForm {
	form.Password = ""
	form.PasswordConfirmation = ""
	return form
}
