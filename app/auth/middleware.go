package auth

import (
	"crypto/subtle"
	"log"
	"net/http"
)

// CSRFFieldName is the form field carrying the CSRF token.
const CSRFFieldName = "csrf_token"

// RequireLogin rejects anonymous requests with 401.
func (m *Manager) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r.Context()); !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin lets only the administrator through. Everyone else, signed in
// or not, gets 403 and next never runs.
func (m *Manager) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUser(r.Context())
		if !ok || !user.IsAdmin {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdminFunc is RequireAdmin for handler functions.
func (m *Manager) RequireAdminFunc(fn http.HandlerFunc) http.Handler {
	return m.RequireAdmin(fn)
}

// VerifyCSRF checks the csrf_token form field on state-changing requests.
func (m *Manager) VerifyCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.csrfEnabled || isSafeMethod(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		expected := m.sessions.storedCSRFToken(r)
		received := r.PostFormValue(CSRFFieldName)
		if received == "" {
			received = r.Header.Get("X-CSRF-Token")
		}
		if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
			log.Printf("auth: CSRF token mismatch on %s %s", r.Method, r.URL.Path)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CSRFToken returns the token to embed in forms, or "" when CSRF checks are off.
func (m *Manager) CSRFToken(w http.ResponseWriter, r *http.Request) string {
	if !m.csrfEnabled {
		return ""
	}
	token, err := m.sessions.CSRFToken(w, r)
	if err != nil {
		log.Printf("auth: failed to issue CSRF token: %v", err)
		return ""
	}
	return token
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
