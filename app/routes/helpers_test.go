package routes

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"inkpost/app/auth"
	"inkpost/app/repositories"
	"inkpost/app/repositories/mock"
	"inkpost/app/services"
	"inkpost/app/views"

	"github.com/stretchr/testify/require"
)

var testSecret = []byte("routes-test-secret-0123456789abcdef")

type testApp struct {
	router   http.Handler
	store    repositories.Store
	sessions *auth.Sessions
}

func newTestApp(t *testing.T, store repositories.Store, csrf bool) *testApp {
	t.Helper()
	renderer, err := views.New()
	require.NoError(t, err)

	users := services.NewUserService(store, auth.NewPasswordHasher(1))
	sessions := auth.NewSessions(testSecret, auth.SessionOptions{MaxAge: 3600})
	router := SetupRoutes(Dependencies{
		Auth:     auth.NewManager(sessions, users, csrf),
		Views:    renderer,
		Users:    users,
		Posts:    services.NewPostService(store),
		Comments: services.NewCommentService(store),
	})
	return &testApp{router: router, store: store, sessions: sessions}
}

// stores returns the backends the end-to-end flows run against.
func stores(t *testing.T) map[string]func() repositories.Store {
	return map[string]func() repositories.Store{
		"mock": func() repositories.Store { return mock.NewStore() },
		"badger": func() repositories.Store {
			store, err := repositories.NewBadgerStore("", false)
			require.NoError(t, err)
			t.Cleanup(func() { store.Close() })
			return store
		},
	}
}

func (a *testApp) counts(t *testing.T) (users, posts, comments int) {
	t.Helper()
	require.NoError(t, a.store.View(func(tx repositories.Tx) error {
		var err error
		if users, err = tx.Users().Count(); err != nil {
			return err
		}
		if posts, err = tx.Posts().Count(); err != nil {
			return err
		}
		comments, err = tx.Comments().Count()
		return err
	}))
	return
}

// client is a browser stand-in that keeps the latest value of each cookie.
type client struct {
	t   *testing.T
	app *testApp
	jar map[string]*http.Cookie
}

func (a *testApp) client(t *testing.T) *client {
	return &client{t: t, app: a, jar: make(map[string]*http.Cookie)}
}

func (c *client) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, cookie := range c.jar {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	c.app.router.ServeHTTP(w, req)

	for _, cookie := range w.Result().Cookies() {
		if cookie.MaxAge < 0 {
			delete(c.jar, cookie.Name)
			continue
		}
		c.jar[cookie.Name] = cookie
	}
	return w
}

func (c *client) get(target string) *httptest.ResponseRecorder {
	return c.do(http.MethodGet, target, nil)
}

func (c *client) post(target string, form url.Values) *httptest.ResponseRecorder {
	return c.do(http.MethodPost, target, form)
}

// boundUser returns the user id the client's session is bound to.
func (c *client) boundUser() (int, bool) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, cookie := range c.jar {
		req.AddCookie(cookie)
	}
	return c.app.sessions.UserID(req)
}

func (c *client) register(email, password, name string) *httptest.ResponseRecorder {
	return c.post("/register", url.Values{"email": {email}, "password": {password}, "name": {name}})
}

func (c *client) login(email, password string) *httptest.ResponseRecorder {
	return c.post("/login", url.Values{"email": {email}, "password": {password}})
}

var csrfPattern = regexp.MustCompile(`name="csrf_token" value="([0-9a-f]+)"`)

func csrfToken(t *testing.T, body string) string {
	t.Helper()
	m := csrfPattern.FindStringSubmatch(body)
	require.Len(t, m, 2, "no csrf token in page")
	return m[1]
}

func postForm(title string) url.Values {
	return url.Values{
		"title":    {title},
		"subtitle": {"Sub"},
		"img_url":  {"https://example.com/img.png"},
		"body":     {"<p>Body</p>"},
	}
}
