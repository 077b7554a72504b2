package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/inkgraph/internal/comments"
	"github.com/starford/inkgraph/internal/engagement"
	"github.com/starford/inkgraph/internal/fingerprint"
	"github.com/starford/inkgraph/internal/postservice"
)

// RouterConfig carries the collaborators and settings of the API router.
type RouterConfig struct {
	Posts    *postservice.Service
	Ledger   *engagement.Ledger
	Comments *comments.Store
	Deriver  *fingerprint.Deriver
	Cookie   VisitorCookie
	// PublicOrigin, when set, is the only origin accepted on mutating routes.
	PublicOrigin string
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(cfg RouterConfig) chi.Router {
	h := NewHandler(cfg.Posts, cfg.Ledger, cfg.Comments)

	r := chi.NewRouter()

	// Graph.
	r.Get("/graph", h.Graph)

	// Posts.
	r.Get("/posts", h.ListPosts)
	r.Route("/posts/{id}", func(r chi.Router) {
		r.Get("/", h.GetPost)

		// Engagement and comments; unknown posts are rejected up front.
		r.Group(func(r chi.Router) {
			r.Use(Visitor(cfg.Deriver, cfg.Cookie))
			r.Use(h.RequirePost)

			r.Get("/metrics", h.Metrics)
			r.Get("/comments", h.ListComments)

			r.Group(func(r chi.Router) {
				r.Use(SameOrigin(cfg.PublicOrigin))
				r.Post("/like", h.ToggleLike)
				r.Post("/view", h.RecordView)
				r.Post("/comments", h.CreateComment)
				r.Patch("/comments/{commentID}", h.UpdateComment)
				r.Delete("/comments/{commentID}", h.DeleteComment)
			})
		})
	})

	return r
}
