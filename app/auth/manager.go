// Package auth tracks who is signed in and guards the routes that need it.
package auth

import (
	"context"
	"errors"
	"log"
	"net/http"

	"inkpost/app/models"
	"inkpost/app/repositories"
)

type contextKey struct{}

// UserLoader resolves the id bound to a session.
type UserLoader interface {
	GetUser(id int) (*models.User, error)
}

// Manager binds sessions to users and exposes the request middleware.
type Manager struct {
	sessions    *Sessions
	users       UserLoader
	csrfEnabled bool
}

// NewManager creates an auth manager.
func NewManager(sessions *Sessions, users UserLoader, csrfEnabled bool) *Manager {
	return &Manager{
		sessions:    sessions,
		users:       users,
		csrfEnabled: csrfEnabled,
	}
}

// Sessions returns the cookie session store the manager binds users to.
func (m *Manager) Sessions() *Sessions {
	return m.sessions
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// CurrentUser returns the signed-in user stored by LoadUser.
func CurrentUser(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(contextKey{}).(*models.User)
	return user, ok && user != nil
}

// LoadUser resolves the session binding on every request. A binding to a
// user that no longer exists is dropped and the request continues anonymously.
func (m *Manager) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := m.sessions.UserID(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.users.GetUser(id)
		switch {
		case err == nil:
			r = r.WithContext(WithUser(r.Context(), user))
		case errors.Is(err, repositories.ErrNotFound):
			if err := m.sessions.Unbind(w, r); err != nil {
				log.Printf("auth: failed to drop stale session for user %d: %v", id, err)
			}
		default:
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			log.Printf("auth: failed to load user %d: %v", id, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Login moves the session to the authenticated state for user.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, user *models.User) error {
	return m.sessions.Bind(w, r, user.ID)
}

// Logout moves the session back to anonymous. It is idempotent.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	return m.sessions.Unbind(w, r)
}
