package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/inkgraph/internal/apperr"
	"github.com/starford/inkgraph/internal/checksum"
	"github.com/starford/inkgraph/internal/comments"
	"github.com/starford/inkgraph/internal/engagement"
	"github.com/starford/inkgraph/internal/postservice"
	"github.com/starford/inkgraph/internal/telemetry"
)

// Handler holds API route handlers.
type Handler struct {
	posts    *postservice.Service
	ledger   *engagement.Ledger
	comments *comments.Store
}

// NewHandler creates a new Handler.
func NewHandler(posts *postservice.Service, ledger *engagement.Ledger, store *comments.Store) *Handler {
	return &Handler{posts: posts, ledger: ledger, comments: store}
}

// RequirePost answers 404 for post ids that are not in the corpus.
func (h *Handler) RequirePost(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		ok, err := h.posts.Exists(r.Context(), id)
		if err != nil {
			writeError(w, "post lookup", err)
			return
		}
		if !ok {
			writeJSON(w, http.StatusNotFound, errorBody("post not found"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Graph handles GET /graph.
//
//	@Summary		Get the post relationship graph
//	@Tags			graph
//	@Produce		json
//	@Param			If-None-Match	header	string	false	"Entity tag of a cached graph"
//	@Success		200	{object}	GraphResponse
//	@Success		304	"Graph unchanged"
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	snap, err := h.posts.Graph(r.Context())
	if err != nil {
		writeError(w, "graph", err)
		return
	}
	body, err := json.Marshal(snap)
	if err != nil {
		writeError(w, "graph encode", err)
		return
	}

	etag := checksum.ETag(body)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if checksum.Matches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		slog.Error("graph write failed", slog.String("error", err.Error()))
	}
}

// ListPosts handles GET /posts.
//
//	@Summary		List posts, newest first
//	@Tags			posts
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum number of posts"
//	@Success		200		{object}	PostListResponse
//	@Router			/posts [get]
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	limit := -1
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	items, err := h.posts.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, "list posts", err)
		return
	}
	writeJSON(w, http.StatusOK, PostListResponse{Posts: items})
}

// GetPost handles GET /posts/{id}.
//
//	@Summary		Get a single post with wiki-links rendered
//	@Tags			posts
//	@Produce		json
//	@Param			id	path		string	true	"Post id"
//	@Success		200	{object}	models.PostDetail
//	@Failure		404	{object}	errResponse
//	@Router			/posts/{id} [get]
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get post", err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// Metrics handles GET /posts/{id}/metrics.
//
//	@Summary		Get like and view counters for a post
//	@Tags			engagement
//	@Produce		json
//	@Param			id	path		string	true	"Post id"
//	@Success		200	{object}	models.PostMetrics
//	@Failure		404	{object}	errResponse
//	@Router			/posts/{id}/metrics [get]
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	writeJSON(w, http.StatusOK, h.ledger.GetMetrics(r.Context(), chi.URLParam(r, "id"), id.Fingerprint))
}

// ToggleLike handles POST /posts/{id}/like.
//
//	@Summary		Like or unlike a post
//	@Tags			engagement
//	@Produce		json
//	@Param			id	path		string	true	"Post id"
//	@Success		200	{object}	models.EventResult
//	@Failure		403	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Router			/posts/{id}/like [post]
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	res, err := h.ledger.ToggleLike(r.Context(), chi.URLParam(r, "id"), id.Fingerprint)
	if err != nil {
		writeError(w, "toggle like", err)
		return
	}
	if res.Counted {
		telemetry.ObserveLike(res.Metrics.LikedByMe)
	}
	writeJSON(w, http.StatusOK, res)
}

// RecordView handles POST /posts/{id}/view.
//
//	@Summary		Record a view, at most once per visitor per window
//	@Tags			engagement
//	@Produce		json
//	@Param			id	path		string	true	"Post id"
//	@Success		200	{object}	models.EventResult
//	@Failure		403	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Router			/posts/{id}/view [post]
func (h *Handler) RecordView(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	res, err := h.ledger.RecordView(r.Context(), chi.URLParam(r, "id"), id.Fingerprint)
	if err != nil {
		writeError(w, "record view", err)
		return
	}
	telemetry.ObserveView(res.Counted)
	writeJSON(w, http.StatusOK, res)
}

// ListComments handles GET /posts/{id}/comments.
//
//	@Summary		List the comments of a post, newest first
//	@Tags			comments
//	@Produce		json
//	@Param			id	path		string	true	"Post id"
//	@Success		200	{object}	CommentListResponse
//	@Failure		404	{object}	errResponse
//	@Router			/posts/{id}/comments [get]
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CommentListResponse{
		Comments: h.comments.ListForPost(r.Context(), chi.URLParam(r, "id")),
	})
}

// CreateComment handles POST /posts/{id}/comments.
//
//	@Summary		Add a password-protected comment
//	@Tags			comments
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Post id"
//	@Param			body	body		comments.CreateInput	true	"Comment to create"
//	@Success		201		{object}	CommentResponse
//	@Failure		400		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Router			/posts/{id}/comments [post]
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req comments.CreateInput
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.comments.Create(r.Context(), chi.URLParam(r, "id"), req)
	telemetry.ObserveComment("create", err)
	if err != nil {
		writeError(w, "create comment", err)
		return
	}
	writeJSON(w, http.StatusCreated, CommentResponse{Comment: c})
}

// UpdateComment handles PATCH /posts/{id}/comments/{commentID}.
//
//	@Summary		Edit a comment
//	@Tags			comments
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string					true	"Post id"
//	@Param			commentID	path		int						true	"Comment id"
//	@Param			body		body		comments.UpdateInput	true	"Password and new content"
//	@Success		200			{object}	CommentResponse
//	@Failure		400			{object}	errResponse
//	@Failure		403			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Router			/posts/{id}/comments/{commentID} [patch]
func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	commentID, ok := commentIDParam(w, r)
	if !ok {
		return
	}
	var req comments.UpdateInput
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.comments.Update(r.Context(), chi.URLParam(r, "id"), commentID, req)
	telemetry.ObserveComment("update", err)
	if err != nil {
		writeError(w, "update comment", err)
		return
	}
	writeJSON(w, http.StatusOK, CommentResponse{Comment: c})
}

// DeleteComment handles DELETE /posts/{id}/comments/{commentID}.
//
//	@Summary		Delete a comment
//	@Tags			comments
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string					true	"Post id"
//	@Param			commentID	path		int						true	"Comment id"
//	@Param			body		body		comments.DeleteInput	true	"Password"
//	@Success		200			{object}	DeleteResponse
//	@Failure		400			{object}	errResponse
//	@Failure		403			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Router			/posts/{id}/comments/{commentID} [delete]
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	commentID, ok := commentIDParam(w, r)
	if !ok {
		return
	}
	var req comments.DeleteInput
	if !decodeJSON(w, r, &req) {
		return
	}
	err := h.comments.Delete(r.Context(), chi.URLParam(r, "id"), commentID, req)
	telemetry.ObserveComment("delete", err)
	if err != nil {
		writeError(w, "delete comment", err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Deleted: true})
}

func commentIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "commentID"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, "comment id", fmt.Errorf("%w: comment id must be a positive integer", apperr.ErrInvalidInput))
		return 0, false
	}
	return id, true
}
