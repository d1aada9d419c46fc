package auth

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	SessionCookieName = "inkpost_session"

	sessionKeyUser = "user_id"
	sessionKeyCSRF = "csrf_token"
)

// SessionOptions configures the session cookie.
type SessionOptions struct {
	MaxAge int
	Secure bool
}

// Sessions stores the per-client binding (user id, flashes, CSRF token) in a
// signed cookie.
type Sessions struct {
	store sessions.Store
}

// NewSessions creates a cookie-backed session store signed with secret.
func NewSessions(secret []byte, opts SessionOptions) *Sessions {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   opts.MaxAge,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{store: store}
}

// NewSessionsWithStore wraps any gorilla sessions.Store.
func NewSessionsWithStore(store sessions.Store) *Sessions {
	return &Sessions{store: store}
}

// session never fails: a cookie that does not decode yields a fresh session.
func (s *Sessions) session(r *http.Request) *sessions.Session {
	session, err := s.store.Get(r, SessionCookieName)
	if err != nil && session == nil {
		session = sessions.NewSession(s.store, SessionCookieName)
	}
	return session
}

// UserID returns the id bound to the session, if any.
func (s *Sessions) UserID(r *http.Request) (int, bool) {
	id, ok := s.session(r).Values[sessionKeyUser].(int)
	return id, ok && id > 0
}

// Bind associates the session with userID.
func (s *Sessions) Bind(w http.ResponseWriter, r *http.Request, userID int) error {
	session := s.session(r)
	session.Values[sessionKeyUser] = userID
	return session.Save(r, w)
}

// Unbind removes the user binding. Calling it on an anonymous session is a no-op.
func (s *Sessions) Unbind(w http.ResponseWriter, r *http.Request) error {
	session := s.session(r)
	if _, ok := session.Values[sessionKeyUser]; !ok {
		return nil
	}
	delete(session.Values, sessionKeyUser)
	return session.Save(r, w)
}

// AddFlash queues a one-shot message for the next rendered page.
func (s *Sessions) AddFlash(w http.ResponseWriter, r *http.Request, message string) error {
	session := s.session(r)
	session.AddFlash(message)
	return session.Save(r, w)
}

// Flashes pops the queued messages.
func (s *Sessions) Flashes(w http.ResponseWriter, r *http.Request) []string {
	session := s.session(r)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = session.Save(r, w)

	messages := make([]string, 0, len(raw))
	for _, f := range raw {
		if msg, ok := f.(string); ok {
			messages = append(messages, msg)
		}
	}
	return messages
}

// CSRFToken returns the session's CSRF token, creating one on first use.
func (s *Sessions) CSRFToken(w http.ResponseWriter, r *http.Request) (string, error) {
	session := s.session(r)
	if token, ok := session.Values[sessionKeyCSRF].(string); ok && token != "" {
		return token, nil
	}
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	session.Values[sessionKeyCSRF] = token
	if err := session.Save(r, w); err != nil {
		return "", err
	}
	return token, nil
}

func (s *Sessions) storedCSRFToken(r *http.Request) string {
	token, _ := s.session(r).Values[sessionKeyCSRF].(string)
	return token
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
