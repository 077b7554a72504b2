// Package postservice answers read queries over the post corpus.
package postservice

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/starford/inkgraph/internal/apperr"
	"github.com/starford/inkgraph/internal/corpus"
	"github.com/starford/inkgraph/internal/graph"
	"github.com/starford/inkgraph/internal/models"
	"github.com/starford/inkgraph/internal/parser"
	"github.com/starford/inkgraph/internal/telemetry"
)

// DefaultLinkPrefix is prepended to post ids when rendering wiki-links.
const DefaultLinkPrefix = "/post/"

// Service coordinates corpus loading, link rendering and graph building.
// Every call reloads the corpus.
type Service struct {
	loader     *corpus.Loader
	graph      *graph.Builder
	linkPrefix string
}

// NewService creates a post service. An empty linkPrefix selects
// DefaultLinkPrefix.
func NewService(loader *corpus.Loader, linkPrefix string) *Service {
	if linkPrefix == "" {
		linkPrefix = DefaultLinkPrefix
	}
	return &Service{
		loader:     loader,
		graph:      graph.NewBuilder(loader),
		linkPrefix: linkPrefix,
	}
}

// List returns every post, newest first.
func (s *Service) List(ctx context.Context) ([]models.PostSummary, error) {
	res, err := s.loader.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	posts := slices.Clone(res.Posts)
	sortNewestFirst(posts)

	items := make([]models.PostSummary, len(posts))
	for i, p := range posts {
		items[i] = summary(p)
	}
	return items, nil
}

// Recent returns at most n posts, newest first.
func (s *Service) Recent(ctx context.Context, n int) ([]models.PostSummary, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if n >= 0 && n < len(items) {
		items = items[:n]
	}
	return items, nil
}

// Get returns the post with id. Wiki-links in the body that point at existing
// posts are rewritten to markdown links.
func (s *Service) Get(ctx context.Context, id string) (*models.PostDetail, error) {
	res, err := s.loader.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(res.Posts))
	for _, p := range res.Posts {
		known[p.ID] = struct{}{}
	}
	for _, p := range res.Posts {
		if p.ID != id {
			continue
		}
		return &models.PostDetail{
			PostSummary: summary(p),
			Refs:        p.Refs,
			Body:        parser.Render(p.Body, known, s.linkPrefix),
		}, nil
	}
	return nil, apperr.ErrNotFound
}

// Exists reports whether a post with id is part of the corpus.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	res, err := s.loader.LoadAll(ctx)
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(res.Posts, func(p models.Post) bool { return p.ID == id }), nil
}

// Graph builds the relationship graph of the current corpus.
func (s *Service) Graph(ctx context.Context) (models.GraphSnapshot, error) {
	start := time.Now()
	snap, err := s.graph.Build(ctx)
	if err != nil {
		return models.GraphSnapshot{}, err
	}
	telemetry.ObserveGraphBuild(start, len(snap.Stats.SkippedFiles))
	return snap, nil
}

func summary(p models.Post) models.PostSummary {
	return models.PostSummary{
		ID:      p.ID,
		Title:   p.Title,
		Excerpt: p.Excerpt,
		Date:    p.Date,
		Author:  p.Author,
		Tags:    p.Tags,
	}
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// sortNewestFirst orders posts by date descending. Parsable dates sort before
// unparsable ones, which fall back to reverse string order; ties keep corpus
// order.
func sortNewestFirst(posts []models.Post) {
	slices.SortStableFunc(posts, func(a, b models.Post) int {
		ta, okA := parseDate(a.Date)
		tb, okB := parseDate(b.Date)
		switch {
		case okA && okB:
			return tb.Compare(ta)
		case okA:
			return -1
		case okB:
			return 1
		default:
			return cmp.Compare(b.Date, a.Date)
		}
	})
}
