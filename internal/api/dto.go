package api

import "github.com/starford/inkgraph/internal/models"

// PostListResponse wraps post listings.
type PostListResponse struct {
	Posts []models.PostSummary `json:"posts" validate:"required"`
}

// GraphResponse is the graph snapshot (aliased from the domain layer).
type GraphResponse = models.GraphSnapshot

// CommentListResponse wraps the comments of one post.
type CommentListResponse struct {
	Comments []models.Comment `json:"comments" validate:"required"`
}

// CommentResponse wraps a single created or updated comment.
type CommentResponse struct {
	Comment *models.Comment `json:"comment" validate:"required"`
}

// DeleteResponse confirms a deletion.
type DeleteResponse struct {
	Deleted bool `json:"deleted" example:"true" validate:"required"`
}
