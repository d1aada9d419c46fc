package controllers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthController(t *testing.T) {
	t.Run("Register", func(t *testing.T) {
		env := newTestEnv(t)
		ac := NewAuthController(env.manager, env.renderer, env.users)

		w := serve(ac.Register, request(http.MethodGet, "/register", nil, nil, nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Sign Me Up!")

		req := request(http.MethodPost, "/register", url.Values{
			"email": {"a@x.com"}, "password": {"pw"}, "name": {"Alice"},
		}, nil, nil)
		w = serve(ac.Register, req)
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
		require.NotEmpty(t, w.Result().Cookies())

		users, _, _ := env.counts(t)
		assert.Equal(t, 1, users)
	})

	t.Run("Register Duplicate", func(t *testing.T) {
		env := newTestEnv(t)
		ac := NewAuthController(env.manager, env.renderer, env.users)
		env.register(t, "a@x.com", "Alice")

		w := serve(ac.Register, request(http.MethodPost, "/register", url.Values{
			"email": {"a@x.com"}, "password": {"other"}, "name": {"Mallory"},
		}, nil, nil))
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))

		users, _, _ := env.counts(t)
		assert.Equal(t, 1, users)
	})

	t.Run("Register Invalid", func(t *testing.T) {
		env := newTestEnv(t)
		ac := NewAuthController(env.manager, env.renderer, env.users)

		w := serve(ac.Register, request(http.MethodPost, "/register", url.Values{
			"email": {"not-an-email"}, "password": {"pw"}, "name": {""},
		}, nil, nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid email address.")
		assert.Contains(t, w.Body.String(), "This field is required.")

		users, _, _ := env.counts(t)
		assert.Equal(t, 0, users)
	})

	t.Run("Login", func(t *testing.T) {
		env := newTestEnv(t)
		ac := NewAuthController(env.manager, env.renderer, env.users)
		user := env.register(t, "a@x.com", "Alice")

		tests := []struct {
			name     string
			email    string
			password string
			location string
			bound    bool
		}{
			{"correct", "a@x.com", "pw", "/", true},
			{"unknown email", "b@x.com", "pw", "/login", false},
			{"wrong password", "a@x.com", "nope", "/login", false},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				w := serve(ac.Login, request(http.MethodPost, "/login", url.Values{
					"email": {tt.email}, "password": {tt.password},
				}, nil, nil))
				assert.Equal(t, http.StatusSeeOther, w.Code)
				assert.Equal(t, tt.location, w.Header().Get("Location"))

				next := httptest.NewRequest(http.MethodGet, "/", nil)
				for _, c := range w.Result().Cookies() {
					next.AddCookie(c)
				}
				id, ok := env.manager.Sessions().UserID(next)
				assert.Equal(t, tt.bound, ok)
				if tt.bound {
					assert.Equal(t, user.ID, id)
				}
			})
		}
	})

	t.Run("Logout", func(t *testing.T) {
		env := newTestEnv(t)
		ac := NewAuthController(env.manager, env.renderer, env.users)

		w := serve(ac.Logout, request(http.MethodGet, "/logout", nil, nil, nil))
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
	})
}

func TestPageController(t *testing.T) {
	env := newTestEnv(t)
	pc := NewPageController(env.manager, env.renderer)

	w := serve(pc.About, request(http.MethodGet, "/about", nil, nil, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "About Me")

	w = serve(pc.Contact, request(http.MethodGet, "/contact", nil, nil, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Contact Me")
}
