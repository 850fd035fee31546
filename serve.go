package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/isdelr/sample-app/internal/api"
	"github.com/isdelr/sample-app/internal/auth"
	"github.com/isdelr/sample-app/internal/monitoring"
	"github.com/isdelr/sample-app/internal/services"
	"github.com/isdelr/sample-app/internal/views"
	"github.com/isdelr/sample-app/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), ctx)
		},
	}
}

func serve(ctx context.Context, cc *commandContext) error {
	cfg, err := cc.ensureConfig()
	if err != nil {
		return err
	}
	sessionTTL, err := cfg.SessionLifetime()
	if err != nil {
		return err
	}

	// Set up database
	db, err := cc.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	// Set up services
	userService := services.NewUserService(db)
	micropostService := services.NewMicropostService(db)
	relationshipService := services.NewRelationshipService(db)
	sessionService := services.NewSessionService(db, sessionTTL)

	renderer, err := views.New()
	if err != nil {
		return err
	}
	helper := auth.NewHelper(userService, sessionService, auth.NewSigner(cfg.SecretKeyBase), cfg.IsProduction())
	signInLimiter := api.NewRateLimiter(cfg.SignInRate, cfg.SignInBurst)

	// Set up and run the background scheduler
	scheduler, err := monitoring.NewScheduler(sessionService, cfg.SessionSweepCron)
	if err != nil {
		return err
	}
	if err := scheduler.AddJob("@every 10m", "signin limiter cleanup", signInLimiter.Cleanup); err != nil {
		return err
	}
	scheduler.Run()
	defer scheduler.Stop()

	// Set up router
	router := api.NewRouter(api.Dependencies{
		Auth:           helper,
		Views:          renderer,
		Users:          userService,
		Microposts:     micropostService,
		Relationships:  relationshipService,
		Hub:            hub,
		Stats:          monitoring.NewHostCollector(),
		SignInLimiter:  signInLimiter,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("env", cfg.Env).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown
	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("Server exiting")
	return nil
}
