package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/sample-app/internal/api/handlers"
	"github.com/isdelr/sample-app/internal/auth"
	"github.com/isdelr/sample-app/internal/metrics"
	"github.com/isdelr/sample-app/internal/monitoring"
	"github.com/isdelr/sample-app/internal/services"
	"github.com/isdelr/sample-app/internal/views"
	"github.com/isdelr/sample-app/internal/websocket"
	"github.com/rs/zerolog/log"
)

// Dependencies are the services the router wires into its handlers.
type Dependencies struct {
	Auth           *auth.Helper
	Views          *views.Renderer
	Users          services.UserServiceProvider
	Microposts     services.MicropostServiceProvider
	Relationships  services.RelationshipServiceProvider
	Hub            *websocket.Hub
	Stats          monitoring.StatsProvider
	SignInLimiter  *RateLimiter
	AllowedOrigins []string
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(log.Logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.InstrumentHandler)
	r.Use(methodOverride)
	r.Use(deps.Auth.Middleware)

	// Initialize handlers
	pages := handlers.NewPages(deps.Views, deps.Auth, deps.Microposts, deps.Relationships)
	pageHandler := handlers.NewPagesHandler(pages)
	userHandler := handlers.NewUserHandler(pages, deps.Users)
	sessionHandler := handlers.NewSessionHandler(pages, deps.Users)
	micropostHandler := handlers.NewMicropostHandler(pages, deps.Hub)
	relationshipHandler := handlers.NewRelationshipHandler(pages)
	adminHandler := handlers.NewAdminHandler(pages, deps.Users, deps.Stats, deps.Hub)
	apiHandler := handlers.NewAPIHandler(deps.Auth, deps.Users, deps.Microposts, deps.Relationships)
	feedSocket := handlers.NewFeedSocketHandler(deps.Hub, deps.Auth, deps.AllowedOrigins)

	r.NotFound(pageHandler.NotFound)
	r.Handle("/static/*", views.Static())
	r.Handle("/metrics", metrics.Handler())

	r.Get("/", pageHandler.Home)
	r.Get("/contact", pageHandler.Contact)
	r.Get("/about", pageHandler.About)
	r.Get("/help", pageHandler.Help)

	r.Get("/signup", userHandler.New)
	r.Get("/users/new", userHandler.New)
	r.Post("/users", userHandler.Create)
	r.Get("/users/{id}", userHandler.Show)

	r.Get("/signin", sessionHandler.New)
	r.Get("/sessions/new", sessionHandler.New)
	limited := r.With()
	if deps.SignInLimiter != nil {
		limited = r.With(deps.SignInLimiter.Handler)
	}
	limited.Post("/sessions", sessionHandler.Create)
	r.Get("/signout", sessionHandler.Destroy)
	r.Delete("/signout", sessionHandler.Destroy)

	r.Get("/ws/feed", feedSocket.Serve)

	// Signed-in users only
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)

		r.Get("/users", userHandler.Index)
		r.Get("/users/{id}/following", userHandler.Following)
		r.Get("/users/{id}/followers", userHandler.Followers)

		r.With(deps.Auth.CorrectUser).Get("/users/{id}/edit", userHandler.Edit)
		r.With(deps.Auth.CorrectUser).Put("/users/{id}", userHandler.Update)
		r.With(deps.Auth.AdminUser).Delete("/users/{id}", userHandler.Destroy)

		r.Post("/microposts", micropostHandler.Create)
		r.Delete("/microposts/{id}", micropostHandler.Destroy)

		r.Post("/relationships", relationshipHandler.Create)
		r.Delete("/relationships/{id}", relationshipHandler.Destroy)

		r.With(deps.Auth.AdminUser).Get("/admin/stats", adminHandler.Stats)
	})

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   deps.AllowedOrigins,
			AllowedMethods:   []string{"GET", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		r.Get("/users/{id}", apiHandler.GetUser)
		r.Get("/users/{id}/microposts", apiHandler.GetUserMicroposts)
		r.With(deps.Auth.APIAuthenticate).Get("/feed", apiHandler.GetFeed)
	})

	return r
}
