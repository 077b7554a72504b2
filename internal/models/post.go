// Package models defines the domain types for inkgraph.
package models

import "time"

// Post is a parsed, accepted corpus document.
type Post struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Excerpt  string   `json:"excerpt"`
	Date     string   `json:"date"`
	Author   string   `json:"author"`
	Tags     []string `json:"tags"`
	Refs     []string `json:"refs"`
	Body     string   `json:"-"`
	Filename string   `json:"-"`
}

// PostSummary is the lightweight representation returned by list operations.
type PostSummary struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Excerpt string   `json:"excerpt"`
	Date    string   `json:"date"`
	Author  string   `json:"author"`
	Tags    []string `json:"tags"`
}

// PostDetail is a single post with its body ready for the markdown renderer.
type PostDetail struct {
	PostSummary
	Refs []string `json:"refs"`
	Body string   `json:"body"`
}

// PostMetrics holds the engagement counters of a post as seen by one visitor.
type PostMetrics struct {
	PostID      string `json:"postId"`
	Likes       int64  `json:"likes"`
	Views       int64  `json:"views"`
	LikedByMe   bool   `json:"likedByMe"`
	ViewCounted bool   `json:"viewCountedThisRequest,omitempty"`
}

// EmptyMetrics returns zeroed metrics for postID.
func EmptyMetrics(postID string) PostMetrics {
	return PostMetrics{PostID: postID}
}

// EventResult is returned by the mutating engagement operations.
type EventResult struct {
	Counted bool        `json:"counted"`
	Metrics PostMetrics `json:"metrics"`
}

// Comment is a visitor comment. The password hash never leaves the store.
type Comment struct {
	ID         int64     `json:"id"`
	PostID     string    `json:"postId"`
	AuthorName string    `json:"authorName"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
