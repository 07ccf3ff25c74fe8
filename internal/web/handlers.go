// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Remixblog Contributors

package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/remixblog/remixblog/internal/auth"
	"github.com/remixblog/remixblog/internal/blog"
	"github.com/remixblog/remixblog/internal/observability"
	"github.com/remixblog/remixblog/internal/session"
	"github.com/remixblog/remixblog/pkg/errutil"
)

// Handlers wires the blog services to HTTP routes.
type Handlers struct {
	auth     *auth.Service
	posts    *blog.Service
	sessions *session.Codec
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewHandlers creates the HTTP handler set. metrics may be nil when no
// observability server is running.
func NewHandlers(authSvc *auth.Service, postSvc *blog.Service, sessions *session.Codec, metrics *observability.Metrics) (*Handlers, error) {
	return NewHandlersWithLogger(authSvc, postSvc, sessions, metrics, slog.New(slog.DiscardHandler))
}

// NewHandlersWithLogger creates the HTTP handler set with a custom logger.
func NewHandlersWithLogger(authSvc *auth.Service, postSvc *blog.Service, sessions *session.Codec, metrics *observability.Metrics, logger *slog.Logger) (*Handlers, error) {
	if authSvc == nil {
		return nil, oops.Code("INVALID_CONFIG").Errorf("auth service is required")
	}
	if postSvc == nil {
		return nil, oops.Code("INVALID_CONFIG").Errorf("post service is required")
	}
	if sessions == nil {
		return nil, oops.Code("INVALID_CONFIG").Errorf("session codec is required")
	}
	if logger == nil {
		return nil, oops.Code("INVALID_CONFIG").Errorf("logger is required")
	}
	return &Handlers{
		auth:     authSvc,
		posts:    postSvc,
		sessions: sessions,
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// Router returns the HTTP handler with all routes and middleware attached.
func (h *Handlers) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /login", h.handleLogin)
	mux.HandleFunc("POST /logout", h.handleLogout)
	mux.HandleFunc("GET /me", h.handleMe)
	mux.HandleFunc("GET /posts", h.handleListPosts)
	mux.HandleFunc("POST /posts", h.handleCreatePost)
	mux.HandleFunc("GET /posts/{id}", h.handleGetPost)
	mux.HandleFunc("POST /posts/{id}", h.handlePostAction)

	// The metrics wrapper must sit inside withUser: it reads the matched
	// route pattern off the request it hands to the mux, and withUser passes
	// the mux a fresh clone.
	return h.withUser(withMetrics(h.metrics, mux))
}

// userJSON is the wire shape of a user.
type userJSON struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// postJSON is the wire shape of a post.
type postJSON struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Body      string  `json:"body"`
	AuthorID  *string `json:"authorId"`
	CreatedAt string  `json:"createdAt"`
}

func toPostJSON(p *blog.Post) postJSON {
	out := postJSON{
		ID:        p.ID.String(),
		Title:     p.Title,
		Body:      p.Body,
		CreatedAt: p.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
	if p.AuthorID != nil {
		s := p.AuthorID.String()
		out.AuthorID = &s
	}
	return out
}

// handleLogin processes both login and register submissions, distinguished
// by the loginType form field. Validation failures echo the submitted
// fields back, minus the password.
func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.respondError(w, r, oops.Code("AUTH_INVALID_FORM").Wrap(err))
		return
	}

	form := &LoginForm{
		LoginType: r.PostFormValue("loginType"),
		Username:  r.PostFormValue("username"),
		Password:  r.PostFormValue("password"),
	}

	if fieldErrors := form.Validate(); fieldErrors != nil {
		h.respondFormErrors(w, fieldErrors, form.Fields())
		return
	}

	var (
		user *auth.User
		err  error
	)
	switch form.LoginType {
	case "login":
		user, err = h.auth.Login(r.Context(), form.Username, form.Password)
	case "register":
		user, err = h.auth.Register(r.Context(), form.Username, form.Password)
	default:
		h.respondFormError(w, "Invalid login type.", form.Fields())
		return
	}

	if err != nil {
		h.recordLogin("failure")
		switch errutil.Code(err) {
		case "AUTH_INVALID_CREDENTIALS":
			h.respondFormErrors(w, FieldErrors{"username": "Invalid username or password."}, form.Fields())
		case "AUTH_USERNAME_TAKEN":
			h.respondFormErrors(w, FieldErrors{"username": "Username already exists."}, form.Fields())
		default:
			h.respondError(w, r, err)
		}
		return
	}

	cookie, err := h.sessions.Issue(user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.recordLogin("success")
	http.SetCookie(w, cookie)
	http.Redirect(w, r, "/posts", http.StatusFound)
}

// handleLogout clears the session and redirects to the post list. Logging
// out an anonymous request is a no-op redirect.
func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.sessions.Revoke())
	http.Redirect(w, r, "/posts", http.StatusFound)
}

// handleMe returns the current user, or null for anonymous requests.
func (h *Handlers) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		h.respondJSON(w, http.StatusOK, map[string]any{"user": nil})
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"user": userJSON{ID: user.ID.String(), Username: user.Username},
	})
}

func (h *Handlers) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	out := make([]postJSON, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostJSON(p))
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"posts": out})
}

func (h *Handlers) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, err := ulid.Parse(r.PathValue("id"))
	if err != nil {
		h.respondError(w, r, oops.Code("POST_NOT_FOUND").Wrap(blog.ErrNotFound))
		return
	}

	post, err := h.posts.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"post": toPostJSON(post)})
}

// handleCreatePost creates a post for the authenticated user and redirects
// to the new post.
func (h *Handlers) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		h.respondError(w, r, oops.Code("AUTH_UNAUTHENTICATED").Errorf("login required"))
		return
	}

	if err := r.ParseForm(); err != nil {
		h.respondError(w, r, oops.Code("POST_INVALID_FORM").Wrap(err))
		return
	}

	form := &PostForm{
		Title: r.PostFormValue("title"),
		Body:  r.PostFormValue("body"),
	}
	if fieldErrors := form.Validate(); fieldErrors != nil {
		h.respondFormErrors(w, fieldErrors, form.Fields())
		return
	}

	post, err := h.posts.Create(r.Context(), user.ID, form.Title, form.Body)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.PostsCreated.Inc()
	}
	http.Redirect(w, r, "/posts/"+post.ID.String(), http.StatusFound)
}

// handlePostAction dispatches non-idempotent post operations submitted as
// forms with a _method field, the way HTML forms emulate DELETE.
func (h *Handlers) handlePostAction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.respondError(w, r, oops.Code("POST_INVALID_FORM").Wrap(err))
		return
	}

	switch r.PostFormValue("_method") {
	case "delete":
		h.deletePost(w, r)
	default:
		h.respondError(w, r, oops.Code("POST_INVALID_ACTION").Errorf("unsupported action"))
	}
}

func (h *Handlers) deletePost(w http.ResponseWriter, r *http.Request) {
	if _, ok := UserFromContext(r.Context()); !ok {
		h.respondError(w, r, oops.Code("AUTH_UNAUTHENTICATED").Errorf("login required"))
		return
	}

	id, err := ulid.Parse(r.PathValue("id"))
	if err != nil {
		h.respondError(w, r, oops.Code("POST_NOT_FOUND").Wrap(blog.ErrNotFound))
		return
	}

	if err := h.posts.Delete(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	http.Redirect(w, r, "/posts", http.StatusFound)
}

func (h *Handlers) recordLogin(outcome string) {
	if h.metrics != nil {
		h.metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// respondFormErrors returns a 400 with per-field messages and the submitted
// values so the client can re-render the form.
func (h *Handlers) respondFormErrors(w http.ResponseWriter, fieldErrors FieldErrors, fields map[string]string) {
	h.respondJSON(w, http.StatusBadRequest, map[string]any{
		"fieldErrors": fieldErrors,
		"fields":      fields,
	})
}

// respondFormError returns a 400 with a whole-form message, used when no
// single field is at fault.
func (h *Handlers) respondFormError(w http.ResponseWriter, message string, fields map[string]string) {
	h.respondJSON(w, http.StatusBadRequest, map[string]any{
		"formError": message,
		"fields":    fields,
	})
}

func (h *Handlers) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := errutil.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		errutil.LogError(h.logger.With("method", r.Method, "path", r.URL.Path), "request failed", err)
	}
	h.respondJSON(w, status, map[string]any{"error": http.StatusText(status)})
}
