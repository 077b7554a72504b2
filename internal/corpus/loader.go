// Package corpus loads the post corpus from a storage provider.
package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/inkgraph/internal/models"
	"github.com/starford/inkgraph/internal/parser"
	"github.com/starford/inkgraph/internal/storage"
)

// Result is the outcome of one full corpus load.
type Result struct {
	Posts   []models.Post
	Skipped []string
}

// Loader reads and parses every document of a corpus on each call.
type Loader struct {
	store  storage.Provider
	logger *slog.Logger
}

// NewLoader creates a loader over store.
func NewLoader(store storage.Provider, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{store: store, logger: logger}
}

// LoadAll enumerates and parses the corpus. Individual documents that cannot
// be read, parsed, or lack id/title/date are recorded in Skipped; only a
// failure to enumerate the corpus is returned as an error.
func (l *Loader) LoadAll(ctx context.Context) (*Result, error) {
	docs, err := l.store.List()
	if err != nil {
		return nil, fmt.Errorf("corpus: enumerate: %w", err)
	}

	res := &Result{
		Posts:   make([]models.Post, 0, len(docs)),
		Skipped: []string{},
	}
	seen := make(map[string]string, len(docs))

	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		post, reason := l.loadOne(d.Name)
		if reason != "" {
			l.logger.Warn("corpus: skipped document", slog.String("file", d.Name), slog.String("reason", reason))
			res.Skipped = append(res.Skipped, d.Name)
			continue
		}
		if first, dup := seen[post.ID]; dup {
			l.logger.Warn("corpus: duplicate post id",
				slog.String("file", d.Name),
				slog.String("id", post.ID),
				slog.String("first_file", first))
			res.Skipped = append(res.Skipped, d.Name)
			continue
		}
		seen[post.ID] = d.Name
		res.Posts = append(res.Posts, post)
	}
	return res, nil
}

// loadOne returns the parsed post, or a non-empty reason when it must be skipped.
func (l *Loader) loadOne(name string) (models.Post, string) {
	data, err := l.store.Read(name)
	if err != nil {
		return models.Post{}, err.Error()
	}
	doc, err := parser.Parse(data)
	if err != nil {
		return models.Post{}, err.Error()
	}

	meta := doc.Meta
	id := strings.TrimSpace(meta.ID)
	title := strings.TrimSpace(meta.Title)
	date := strings.TrimSpace(meta.Date)
	switch {
	case id == "":
		return models.Post{}, "missing id"
	case title == "":
		return models.Post{}, "missing title"
	case date == "":
		return models.Post{}, "missing date"
	}

	return models.Post{
		ID:       id,
		Title:    title,
		Excerpt:  meta.Excerpt,
		Date:     date,
		Author:   meta.Author,
		Tags:     uniqueTrimmed(meta.Tags),
		Refs:     uniqueTrimmed(append(append([]string{}, meta.Refs...), parser.Targets(doc.Links)...)),
		Body:     doc.Body,
		Filename: name,
	}, ""
}

// uniqueTrimmed trims every value, drops empties, and removes duplicates
// while keeping first-seen order. The result is never nil.
func uniqueTrimmed(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
