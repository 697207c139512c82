// Package http serves the e-democracy API over HTTP. The Adapter routes
// requests on a method-scoped ServeMux, decodes and validates JSON bodies,
// and delegates to the service layer; the Server type manages lifecycle.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/RaffertyMetcalfe/EDemocracy/pkg/api"
	"github.com/RaffertyMetcalfe/EDemocracy/pkg/auth"
	"github.com/RaffertyMetcalfe/EDemocracy/pkg/feed"
	"github.com/RaffertyMetcalfe/EDemocracy/pkg/transport"
)

// Adapter serves the API over HTTP.
type Adapter struct {
	service  *feed.Service
	sessions *auth.SessionCodec
	health   func(context.Context) error
	mux      *http.ServeMux
	config   Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	Addr        string
	MaxBodySize int64
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		Addr:        ":5000",
		MaxBodySize: 1 << 20, // 1 MB
	}
}

// NewAdapter creates an HTTP adapter over the service. Routes requiring a
// session pass through the auth gate; register and login do not. The health
// function backs GET /healthz and is typically the store's HealthCheck.
func NewAdapter(service *feed.Service, sessions *auth.SessionCodec, health func(context.Context) error, cfg Config) *Adapter {
	a := &Adapter{
		service:  service,
		sessions: sessions,
		health:   health,
		mux:      http.NewServeMux(),
		config:   cfg,
	}

	gate := auth.Middleware(sessions)

	a.mux.HandleFunc("POST /api/users/register", a.handleRegister)
	a.mux.HandleFunc("POST /api/users/login", a.handleLogin)
	a.mux.Handle("GET /api/profile", gate(http.HandlerFunc(a.handleProfile)))
	a.mux.Handle("GET /api/feed", gate(http.HandlerFunc(a.handleFeed)))
	a.mux.Handle("POST /api/posts", gate(http.HandlerFunc(a.handleCreatePost)))
	a.mux.Handle("GET /api/posts/{id}/comments", gate(http.HandlerFunc(a.handleListComments)))
	a.mux.Handle("POST /api/comments", gate(http.HandlerFunc(a.handleAddComment)))
	a.mux.Handle("POST /api/vote", gate(http.HandlerFunc(a.handlePollVote)))
	a.mux.Handle("POST /api/item-votes", gate(http.HandlerFunc(a.handleItemVote)))
	a.mux.HandleFunc("GET /healthz", a.handleHealth)

	return a
}

// Mux exposes the underlying ServeMux so callers can attach additional
// routes (the metrics endpoint) before wrapping.
func (a *Adapter) Mux() *http.ServeMux {
	return a.mux
}

// Handler returns the http.Handler for this adapter. Use this to integrate
// with an http.Server or test with httptest.
func (a *Adapter) Handler() http.Handler {
	return a.mux
}

// decode reads the JSON body into v, enforcing the body size cap. It writes
// the error response itself and reports whether decoding succeeded.
func (a *Adapter) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return false
		}
		transport.WriteAPIError(w, api.NewInvalidRequestError("body", "invalid JSON request body"))
		return false
	}
	return true
}

// principal resolves the gate-injected principal. The gate runs before every
// authed handler, so absence means a wiring bug, not a client error.
func principal(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		transport.WriteAPIError(w, api.NewServerError("Internal server error"))
		return 0, false
	}
	return id, true
}

func (a *Adapter) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if !a.decode(w, r, &req) {
		return
	}
	if err := a.service.Register(r.Context(), &req); err != nil {
		transport.WriteAPIError(w, err)
		return
	}
	transport.WriteJSON(w, http.StatusCreated, api.MessageResponse{Message: "User registered successfully"})
}

func (a *Adapter) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !a.decode(w, r, &req) {
		return
	}
	resp, err := a.service.Login(r.Context(), &req)
	if err != nil {
		transport.WriteAPIError(w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, resp)
}

func (a *Adapter) handleProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	resp, err := a.service.Profile(r.Context(), userID)
	if err != nil {
		transport.WriteAPIError(w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, resp)
}

func (a *Adapter) handleFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	posts, err := a.service.Feed(r.Context(), userID)
	if err != nil {
		transport.WriteAPIError(w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, posts)
}

func (a *Adapter) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	var req api.CreatePostRequest
	if !a.decode(w, r, &req) {
		return
	}
	id, err := a.service.CreatePost(r.Context(), userID, &req)
	if err != nil {
		transport.WriteAPIError(w, err)
		return
	}
	transport.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "Post created successfully",
		"PostID":  id,
	})
}

func (a *Adapter) handleListComments(w http.ResponseWriter, r *http.Request) {
	if _, ok := principal(w, r); !ok {
		return
	}

	postID, err := api.ParseID(r.PathValue("id"))
	if err != nil {
		transport.WriteAPIError(w, api.NewInvalidRequestError("id", "post id must be a positive integer"))
		return
	}

	page := 1
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		page, err = strconv.Atoi(pageStr)
		if err != nil {
			transport.WriteAPIError(w, api.NewInvalidRequestError("page", "page must be a positive integer"))
			return
		}
	}

	resp, apiErr := a.service.ListComments(r.Context(), postID, page)
	if apiErr != nil {
		transport.WriteAPIError(w, apiErr)
		return
	}
	transport.WriteJSON(w, http.StatusOK, resp)
}

func (a *Adapter) handleAddComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	var req api.CreateCommentRequest
	if !a.decode(w, r, &req) {
		return
	}
	if err := a.service.AddComment(r.Context(), userID, &req); err != nil {
		transport.WriteAPIError(w, err)
		return
	}
	transport.WriteJSON(w, http.StatusCreated, api.MessageResponse{Message: "Comment added successfully"})
}

func (a *Adapter) handlePollVote(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	var req api.PollVoteRequest
	if !a.decode(w, r, &req) {
		return
	}
	if err := a.service.CastPollVote(r.Context(), userID, &req); err != nil {
		transport.WriteAPIError(w, err)
		return
	}
	transport.WriteJSON(w, http.StatusCreated, api.MessageResponse{Message: "Vote recorded successfully"})
}

func (a *Adapter) handleItemVote(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	var req api.ItemVoteRequest
	if !a.decode(w, r, &req) {
		return
	}
	if err := a.service.CastItemVote(r.Context(), userID, &req); err != nil {
		transport.WriteAPIError(w, err)
		return
	}
	transport.WriteJSON(w, http.StatusAccepted, api.MessageResponse{Message: "Vote accepted"})
}

func (a *Adapter) handleHealth(w http.ResponseWriter, r *http.Request) {
	if a.health != nil {
		if err := a.health(r.Context()); err != nil {
			transport.WriteErrorResponse(w, api.NewServerError("unhealthy"), http.StatusServiceUnavailable)
			return
		}
	}
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
