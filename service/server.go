// Package service assembles the blog from its parts and runs the
// operational commands.
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"inkpost/app/auth"
	"inkpost/app/config"
	"inkpost/app/repositories"
	"inkpost/app/routes"
	"inkpost/app/services"
	"inkpost/app/views"

	"github.com/gorilla/mux"
)

const shutdownTimeout = 10 * time.Second

// App is a fully wired blog.
type App struct {
	Config *config.Config
	Store  repositories.Store
	Router *mux.Router
}

// NewApp opens the store named in cfg and builds the router.
func NewApp(cfg *config.Config) (*App, error) {
	store, err := repositories.Open(cfg.DatabaseURL, !cfg.IsRelease())
	if err != nil {
		return nil, err
	}

	app, err := NewAppWithStore(cfg, store)
	if err != nil {
		store.Close()
		return nil, err
	}
	return app, nil
}

// NewAppWithStore builds the router on an already opened store.
func NewAppWithStore(cfg *config.Config, store repositories.Store) (*App, error) {
	renderer, err := views.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	users := services.NewUserService(store, auth.NewPasswordHasher(cfg.PasswordIterations))
	sessions := auth.NewSessions(cfg.SecretKey, auth.SessionOptions{
		MaxAge: cfg.SessionMaxAge,
		Secure: cfg.IsRelease(),
	})

	router := routes.SetupRoutes(routes.Dependencies{
		Auth:      auth.NewManager(sessions, users, cfg.CSRFEnabled),
		Views:     renderer,
		Users:     users,
		Posts:     services.NewPostService(store),
		Comments:  services.NewCommentService(store),
		StaticDir: cfg.StaticDir,
	})

	return &App{Config: cfg, Store: store, Router: router}, nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a.Config.GeneratedSecret {
		log.Println("SECRET_KEY is not set; sessions will not survive a restart")
	}
	srv := routes.NewServer(a.Config.Addr(), a.Router)
	return routes.StartServer(ctx, srv, shutdownTimeout)
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}
