// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Remixblog Contributors

package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remixblog/remixblog/internal/auth"
	"github.com/remixblog/remixblog/internal/blog"
	"github.com/remixblog/remixblog/internal/observability"
	"github.com/remixblog/remixblog/internal/session"
)

// memUserRepo is an in-memory auth.UserRepository for handler tests.
type memUserRepo struct {
	mu    sync.Mutex
	users map[ulid.ULID]*auth.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[ulid.ULID]*auth.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return oops.Code("USER_USERNAME_TAKEN").Wrap(auth.ErrUsernameTaken)
		}
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id ulid.ULID) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	copied := *user
	return &copied, nil
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
}

func (r *memUserRepo) Delete(_ context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	delete(r.users, id)
	return nil
}

// memPostRepo is an in-memory blog.PostRepository. List returns posts in
// reverse insertion order, matching the newest-first contract.
type memPostRepo struct {
	mu    sync.Mutex
	posts []*blog.Post
}

func (r *memPostRepo) Create(_ context.Context, post *blog.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *post
	r.posts = append(r.posts, &copied)
	return nil
}

func (r *memPostRepo) GetByID(_ context.Context, id ulid.ULID) (*blog.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.posts {
		if p.ID == id {
			copied := *p
			return &copied, nil
		}
	}
	return nil, oops.Code("POST_NOT_FOUND").Wrap(blog.ErrNotFound)
}

func (r *memPostRepo) List(_ context.Context, limit int) ([]*blog.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*blog.Post
	for i := len(r.posts) - 1; i >= 0 && len(out) < limit; i-- {
		copied := *r.posts[i]
		out = append(out, &copied)
	}
	return out, nil
}

func (r *memPostRepo) Delete(_ context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.posts {
		if p.ID == id {
			r.posts = append(r.posts[:i], r.posts[i+1:]...)
			return nil
		}
	}
	return oops.Code("POST_NOT_FOUND").Wrap(blog.ErrNotFound)
}

var (
	_ auth.UserRepository = (*memUserRepo)(nil)
	_ blog.PostRepository = (*memPostRepo)(nil)
)

// testServer is a running blog API with in-memory storage.
type testServer struct {
	*httptest.Server
	client *http.Client
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	authSvc, err := auth.NewService(newMemUserRepo(), auth.NewBcryptHasher())
	require.NoError(t, err)

	postSvc, err := blog.NewService(&memPostRepo{})
	require.NoError(t, err)

	codec, err := session.NewCodec([]string{"test-secret"}, false)
	require.NoError(t, err)

	handlers, err := NewHandlers(authSvc, postSvc, codec, nil)
	require.NoError(t, err)

	srv := httptest.NewServer(handlers.Router())
	t.Cleanup(srv.Close)

	client := srv.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &testServer{Server: srv, client: client}
}

// postForm submits a form, optionally with a session cookie, and returns
// the response.
func (s *testServer) postForm(t *testing.T, path string, form url.Values, cookie *http.Cookie) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, s.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := s.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (s *testServer) get(t *testing.T, path string, cookie *http.Cookie) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, s.URL+path, nil)
	require.NoError(t, err)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := s.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// register creates an account and returns the session cookie.
func (s *testServer) register(t *testing.T, username, password string) *http.Cookie {
	t.Helper()
	resp := s.postForm(t, "/login", url.Values{
		"loginType": {"register"},
		"username":  {username},
		"password":  {password},
	}, nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	return sessionCookie(t, resp)
}

// me returns the current user id for a session cookie, or "" for anonymous.
func (s *testServer) me(t *testing.T, cookie *http.Cookie) string {
	t.Helper()
	resp := s.get(t, "/me", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		User *struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	decodeJSON(t, resp, &body)
	if body.User == nil {
		return ""
	}
	return body.User.ID
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestRegisterAndLogin(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.postForm(t, "/login", url.Values{
		"loginType": {"register"},
		"username":  {"alice"},
		"password":  {"sekrit99"},
	}, nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/posts", resp.Header.Get("Location"))

	cookie := sessionCookie(t, resp)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/", cookie.Path)

	registeredID := srv.me(t, cookie)
	require.NotEmpty(t, registeredID)

	// Logging in with the same credentials yields the same account.
	resp2 := srv.postForm(t, "/login", url.Values{
		"loginType": {"login"},
		"username":  {"alice"},
		"password":  {"sekrit99"},
	}, nil)
	require.Equal(t, http.StatusFound, resp2.StatusCode)

	loginID := srv.me(t, sessionCookie(t, resp2))
	assert.Equal(t, registeredID, loginID)
}

func TestLogin_WrongPassword(t *testing.T) {
	srv := newTestServer(t)
	srv.register(t, "alice", "sekrit99")

	resp := srv.postForm(t, "/login", url.Values{
		"loginType": {"login"},
		"username":  {"alice"},
		"password":  {"wrong-password"},
	}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		FieldErrors map[string]string `json:"fieldErrors"`
		Fields      map[string]string `json:"fields"`
	}
	decodeJSON(t, resp, &body)
	assert.Equal(t, "Invalid username or password.", body.FieldErrors["username"])
	assert.Equal(t, "alice", body.Fields["username"])
	assert.NotContains(t, body.Fields, "password")
}

func TestLogin_UnknownUserSameError(t *testing.T) {
	srv := newTestServer(t)
	srv.register(t, "alice", "sekrit99")

	wrongPassword := srv.postForm(t, "/login", url.Values{
		"loginType": {"login"},
		"username":  {"alice"},
		"password":  {"wrong-password"},
	}, nil)
	unknownUser := srv.postForm(t, "/login", url.Values{
		"loginType": {"login"},
		"username":  {"nobody"},
		"password":  {"sekrit99"},
	}, nil)

	require.Equal(t, http.StatusBadRequest, wrongPassword.StatusCode)
	require.Equal(t, http.StatusBadRequest, unknownUser.StatusCode)

	var a, b struct {
		FieldErrors map[string]string `json:"fieldErrors"`
	}
	decodeJSON(t, wrongPassword, &a)
	decodeJSON(t, unknownUser, &b)
	assert.Equal(t, a.FieldErrors, b.FieldErrors, "unknown user and wrong password must be indistinguishable")
	assert.NotEmpty(t, a.FieldErrors["username"])
}

func TestRegister_Validation(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.postForm(t, "/login", url.Values{
		"loginType": {"register"},
		"username":  {"ab"},
		"password":  {"short"},
	}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		FieldErrors map[string]string `json:"fieldErrors"`
		Fields      map[string]string `json:"fields"`
	}
	decodeJSON(t, resp, &body)
	assert.Contains(t, body.FieldErrors, "username")
	assert.Contains(t, body.FieldErrors, "password")
	assert.Equal(t, "ab", body.Fields["username"])
	assert.NotContains(t, body.Fields, "password")

	// The invalid submission must not have created an account.
	resp2 := srv.postForm(t, "/login", url.Values{
		"loginType": {"login"},
		"username":  {"ab"},
		"password":  {"short"},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	srv := newTestServer(t)
	srv.register(t, "alice", "sekrit99")

	resp := srv.postForm(t, "/login", url.Values{
		"loginType": {"register"},
		"username":  {"alice"},
		"password":  {"another99"},
	}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		FieldErrors map[string]string `json:"fieldErrors"`
	}
	decodeJSON(t, resp, &body)
	assert.Equal(t, "Username already exists.", body.FieldErrors["username"])
}

func TestLogin_InvalidLoginType(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.postForm(t, "/login", url.Values{
		"loginType": {"sideways"},
		"username":  {"alice"},
		"password":  {"sekrit99"},
	}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		FormError string            `json:"formError"`
		Fields    map[string]string `json:"fields"`
	}
	decodeJSON(t, resp, &body)
	assert.Equal(t, "Invalid login type.", body.FormError)
	assert.Equal(t, "sideways", body.Fields["loginType"])
}

func TestMe(t *testing.T) {
	srv := newTestServer(t)

	t.Run("anonymous", func(t *testing.T) {
		resp := srv.get(t, "/me", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			User *struct{} `json:"user"`
		}
		decodeJSON(t, resp, &body)
		assert.Nil(t, body.User)
	})

	t.Run("authenticated", func(t *testing.T) {
		cookie := srv.register(t, "bob", "sekrit99")

		resp := srv.get(t, "/me", cookie)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			User *struct {
				Username string `json:"username"`
			} `json:"user"`
		}
		decodeJSON(t, resp, &body)
		require.NotNil(t, body.User)
		assert.Equal(t, "bob", body.User.Username)
	})

	t.Run("tampered cookie is anonymous", func(t *testing.T) {
		resp := srv.get(t, "/me", &http.Cookie{Name: session.CookieName, Value: "garbage"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			User *struct{} `json:"user"`
		}
		decodeJSON(t, resp, &body)
		assert.Nil(t, body.User)
	})
}

func TestLogout(t *testing.T) {
	srv := newTestServer(t)
	cookie := srv.register(t, "alice", "sekrit99")

	resp := srv.postForm(t, "/logout", url.Values{}, cookie)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/posts", resp.Header.Get("Location"))

	cleared := sessionCookie(t, resp)
	assert.Less(t, cleared.MaxAge, 0)

	// A client honoring the clearing cookie is anonymous afterwards.
	assert.Empty(t, srv.me(t, cleared))
}

func TestCreatePost(t *testing.T) {
	srv := newTestServer(t)
	cookie := srv.register(t, "alice", "sekrit99")

	t.Run("unauthenticated is rejected", func(t *testing.T) {
		resp := srv.postForm(t, "/posts", url.Values{
			"title": {"My Post"},
			"body":  {"A perfectly fine body."},
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("validation errors echo fields", func(t *testing.T) {
		resp := srv.postForm(t, "/posts", url.Values{
			"title": {"ab"},
			"body":  {"too short"},
		}, cookie)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body struct {
			FieldErrors map[string]string `json:"fieldErrors"`
			Fields      map[string]string `json:"fields"`
		}
		decodeJSON(t, resp, &body)
		assert.Contains(t, body.FieldErrors, "title")
		assert.Contains(t, body.FieldErrors, "body")
		assert.Equal(t, "ab", body.Fields["title"])
	})

	t.Run("creates and redirects to the post", func(t *testing.T) {
		resp := srv.postForm(t, "/posts", url.Values{
			"title": {"My Post"},
			"body":  {"A perfectly fine body."},
		}, cookie)
		require.Equal(t, http.StatusFound, resp.StatusCode)

		location := resp.Header.Get("Location")
		require.True(t, strings.HasPrefix(location, "/posts/"))

		resp2 := srv.get(t, location, nil)
		require.Equal(t, http.StatusOK, resp2.StatusCode)

		var body struct {
			Post struct {
				Title    string  `json:"title"`
				Body     string  `json:"body"`
				AuthorID *string `json:"authorId"`
			} `json:"post"`
		}
		decodeJSON(t, resp2, &body)
		assert.Equal(t, "My Post", body.Post.Title)
		assert.Equal(t, "A perfectly fine body.", body.Post.Body)
		require.NotNil(t, body.Post.AuthorID)
	})
}

func TestListPosts(t *testing.T) {
	srv := newTestServer(t)
	cookie := srv.register(t, "alice", "sekrit99")

	for i := 1; i <= 25; i++ {
		resp := srv.postForm(t, "/posts", url.Values{
			"title": {fmt.Sprintf("Post %d", i)},
			"body":  {"A perfectly fine body."},
		}, cookie)
		require.Equal(t, http.StatusFound, resp.StatusCode)
	}

	resp := srv.get(t, "/posts", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Posts []struct {
			Title string `json:"title"`
		} `json:"posts"`
	}
	decodeJSON(t, resp, &body)
	require.Len(t, body.Posts, 20, "list is capped at 20 posts")
	assert.Equal(t, "Post 25", body.Posts[0].Title, "newest post first")
	assert.Equal(t, "Post 6", body.Posts[19].Title)
}

func TestRequestMetrics_RoutePattern(t *testing.T) {
	authSvc, err := auth.NewService(newMemUserRepo(), auth.NewBcryptHasher())
	require.NoError(t, err)

	postSvc, err := blog.NewService(&memPostRepo{})
	require.NoError(t, err)

	codec, err := session.NewCodec([]string{"test-secret"}, false)
	require.NoError(t, err)

	metrics := observability.NewMetrics(prometheus.NewRegistry())

	handlers, err := NewHandlers(authSvc, postSvc, codec, metrics)
	require.NoError(t, err)

	httpSrv := httptest.NewServer(handlers.Router())
	t.Cleanup(httpSrv.Close)

	client := httpSrv.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	srv := &testServer{Server: httpSrv, client: client}

	cookie := srv.register(t, "alice", "sekrit99")

	// An authenticated request must be counted under its route pattern.
	resp := srv.get(t, "/me", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, 1.0,
		testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("GET /me", "200")))
	assert.Equal(t, 1.0,
		testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("POST /login", "302")))
	assert.Zero(t,
		testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("unmatched", "200")))
}

func TestGetPost_NotFound(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.get(t, "/posts/"+ulid.Make().String(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp2 := srv.get(t, "/posts/not-a-ulid", nil)
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestDeletePost(t *testing.T) {
	srv := newTestServer(t)
	cookie := srv.register(t, "alice", "sekrit99")

	create := srv.postForm(t, "/posts", url.Values{
		"title": {"Doomed"},
		"body":  {"This post will be deleted."},
	}, cookie)
	require.Equal(t, http.StatusFound, create.StatusCode)
	location := create.Header.Get("Location")

	t.Run("unauthenticated is rejected", func(t *testing.T) {
		resp := srv.postForm(t, location, url.Values{"_method": {"delete"}}, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unknown action is rejected", func(t *testing.T) {
		resp := srv.postForm(t, location, url.Values{"_method": {"teleport"}}, cookie)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("deletes and redirects to the list", func(t *testing.T) {
		resp := srv.postForm(t, location, url.Values{"_method": {"delete"}}, cookie)
		require.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/posts", resp.Header.Get("Location"))

		gone := srv.get(t, location, nil)
		assert.Equal(t, http.StatusNotFound, gone.StatusCode)
	})

	t.Run("deleting a missing post is 404", func(t *testing.T) {
		resp := srv.postForm(t, "/posts/"+ulid.Make().String(), url.Values{"_method": {"delete"}}, cookie)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
