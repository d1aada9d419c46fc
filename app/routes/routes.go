package routes

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"inkpost/app/auth"
	"inkpost/app/controllers"
	"inkpost/app/middleware"
	"inkpost/app/services"
	"inkpost/app/views"

	"github.com/gorilla/mux"
)

// Dependencies are the collaborators the router hands to controllers.
type Dependencies struct {
	Auth      *auth.Manager
	Views     *views.Renderer
	Users     *services.UserService
	Posts     *services.PostService
	Comments  *services.CommentService
	StaticDir string
}

// SetupRoutes defines the application's routes and returns a router.
func SetupRoutes(deps Dependencies) *mux.Router {
	router := mux.NewRouter()

	// Apply global middleware
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(deps.Auth.LoadUser)
	router.Use(deps.Auth.VerifyCSRF)

	authController := controllers.NewAuthController(deps.Auth, deps.Views, deps.Users)
	postController := controllers.NewPostController(deps.Auth, deps.Views, deps.Posts, deps.Comments)
	pageController := controllers.NewPageController(deps.Auth, deps.Views)

	if deps.StaticDir != "" {
		router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(deps.StaticDir))))
	}

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "Not found"})
			return
		}
		http.NotFound(w, r)
	})

	// Web routes
	web := router.NewRoute().Subrouter()
	web.Use(middleware.NoCache)

	web.HandleFunc("/register", authController.Register).Methods("GET", "POST")
	web.HandleFunc("/login", authController.Login).Methods("GET", "POST")
	web.Handle("/logout", deps.Auth.RequireLogin(http.HandlerFunc(authController.Logout))).Methods("GET")

	web.HandleFunc("/", postController.Index).Methods("GET")
	web.HandleFunc("/post/{id:[0-9]+}", postController.Show).Methods("GET")
	web.HandleFunc("/post/{id:[0-9]+}", postController.Comment).Methods("POST")

	web.Handle("/new-post", deps.Auth.RequireAdminFunc(postController.New)).Methods("GET", "POST")
	web.Handle("/edit-post/{id:[0-9]+}", deps.Auth.RequireAdminFunc(postController.Edit)).Methods("GET", "POST")
	web.Handle("/delete/{id:[0-9]+}", deps.Auth.RequireAdminFunc(postController.Delete)).Methods("GET")

	web.HandleFunc("/about", pageController.About).Methods("GET")
	web.HandleFunc("/contact", pageController.Contact).Methods("GET")

	// API routes with JSON content type
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.ContentTypeJSON)

	api.HandleFunc("/posts", postController.APIIndex).Methods("GET")
	api.HandleFunc("/posts/{id:[0-9]+}", postController.APIShow).Methods("GET")

	// Catch-alls registered after the GET routes so any other method on a
	// known API path answers 405 instead of falling through to NotFound.
	api.Handle("/posts", methodNotAllowed("GET"))
	api.Handle("/posts/{id:[0-9]+}", methodNotAllowed("GET"))

	return router
}

// methodNotAllowed answers 405 with a JSON error and the permitted methods.
func methodNotAllowed(allow ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", strings.Join(allow, ", "))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		json.NewEncoder(w).Encode(map[string]string{"error": "Method not allowed"})
	})
}

// NewServer returns an http.Server for handler with conservative timeouts.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// StartServer serves until ctx is cancelled, then shuts down gracefully.
func StartServer(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
