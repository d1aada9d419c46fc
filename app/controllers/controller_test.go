package controllers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"inkpost/app/auth"
	"inkpost/app/models"
	"inkpost/app/repositories"
	"inkpost/app/repositories/mock"
	"inkpost/app/services"
	"inkpost/app/views"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store    *mock.Store
	manager  *auth.Manager
	users    *services.UserService
	posts    *services.PostService
	comments *services.CommentService
	renderer *views.Renderer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := mock.NewStore()
	users := services.NewUserService(store, auth.NewPasswordHasher(1))
	sessions := auth.NewSessions([]byte("0123456789abcdef0123456789abcdef"), auth.SessionOptions{MaxAge: 3600})
	renderer, err := views.New()
	require.NoError(t, err)
	return &testEnv{
		store:    store,
		manager:  auth.NewManager(sessions, users, false),
		users:    users,
		posts:    services.NewPostService(store),
		comments: services.NewCommentService(store),
		renderer: renderer,
	}
}

func (e *testEnv) register(t *testing.T, email, name string) *models.User {
	t.Helper()
	user, err := e.users.Register(email, "pw", name)
	require.NoError(t, err)
	return user
}

func (e *testEnv) createPost(t *testing.T, author *models.User, title string) *models.Post {
	t.Helper()
	post, err := e.posts.CreatePost(author, services.PostInput{
		Title:    title,
		Subtitle: "Subtitle",
		ImgURL:   "https://example.com/a.png",
		Body:     "Body",
	})
	require.NoError(t, err)
	return post
}

func (e *testEnv) counts(t *testing.T) (users, posts, comments int) {
	t.Helper()
	require.NoError(t, e.store.View(func(tx repositories.Tx) error {
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

// request builds a request as user (nil for anonymous) carrying route vars.
func request(method, target string, form url.Values, user *models.User, vars map[string]string) *http.Request {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if user != nil {
		req = req.WithContext(auth.WithUser(req.Context(), user))
	}
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, req)
	return w
}
