// Package graph derives the post/tag relationship graph from a loaded corpus.
package graph

import (
	"context"

	"github.com/starford/inkgraph/internal/corpus"
	"github.com/starford/inkgraph/internal/models"
)

const edgeWeight = 1

// Build produces a snapshot from posts in discovery order. It is a pure
// function of its inputs and never fails; an empty corpus yields an empty graph.
func Build(posts []models.Post, skipped []string) models.GraphSnapshot {
	known := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		known[p.ID] = struct{}{}
	}

	var (
		edges    []models.GraphEdge
		tagOrder []string
		tagSeen  = make(map[string]struct{})
		outRefs  = make(map[string]int, len(posts))
	)

	for _, p := range posts {
		src := models.PostNodeID(p.ID)
		emitted := make(map[string]struct{}, len(p.Refs))
		for _, ref := range p.Refs {
			if ref == p.ID {
				continue
			}
			if _, ok := known[ref]; !ok {
				continue
			}
			if _, dup := emitted[ref]; dup {
				continue
			}
			emitted[ref] = struct{}{}
			edges = append(edges, models.GraphEdge{
				Type:   models.EdgeRef,
				Source: src,
				Target: models.PostNodeID(ref),
				Weight: edgeWeight,
			})
		}
		outRefs[p.ID] = len(emitted)

		for _, tag := range p.Tags {
			if _, ok := tagSeen[tag]; !ok {
				tagSeen[tag] = struct{}{}
				tagOrder = append(tagOrder, tag)
			}
			edges = append(edges, models.GraphEdge{
				Type:   models.EdgePostTag,
				Source: src,
				Target: models.TagNodeID(tag),
				Weight: edgeWeight,
			})
		}
	}

	nodes := make([]models.GraphNode, 0, len(posts)+len(tagOrder))
	for _, p := range posts {
		nodes = append(nodes, models.GraphNode{
			ID:    models.PostNodeID(p.ID),
			Type:  models.NodePost,
			Label: p.Title,
			PostFields: &models.PostFields{
				Tags:    nonNil(p.Tags),
				Slug:    p.ID,
				Date:    p.Date,
				Author:  p.Author,
				Excerpt: p.Excerpt,
			},
			Weight: max(1, outRefs[p.ID]),
		})
	}
	for _, tag := range tagOrder {
		nodes = append(nodes, models.GraphNode{
			ID:     models.TagNodeID(tag),
			Type:   models.NodeTag,
			Label:  tag,
			Weight: 1,
		})
	}

	stats := score(nodes, edges)
	stats.TotalPosts = len(posts)
	stats.TotalTags = len(tagOrder)
	stats.SkippedFiles = nonNil(skipped)

	return models.GraphSnapshot{
		Nodes: nodes,
		Edges: nonNil(edges),
		Stats: stats,
	}
}

// score fills post node scores from incident ref edges and tallies edge
// counts per type. Post-tag edges never contribute to a score.
func score(nodes []models.GraphNode, edges []models.GraphEdge) models.GraphStats {
	var stats models.GraphStats
	sums := make(map[string]int)
	for _, e := range edges {
		switch e.Type {
		case models.EdgeRef:
			stats.RefEdges++
			sums[e.Source] += e.Weight
			sums[e.Target] += e.Weight
		case models.EdgePostTag:
			stats.PostTagEdges++
		}
	}
	for i := range nodes {
		switch nodes[i].Type {
		case models.NodePost:
			nodes[i].Score = sums[nodes[i].ID]
		case models.NodeTag:
			nodes[i].Score = 0
		}
	}
	return stats
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Builder loads the corpus and builds a fresh snapshot on every call.
type Builder struct {
	loader *corpus.Loader
}

// NewBuilder creates a builder reading through loader.
func NewBuilder(loader *corpus.Loader) *Builder {
	return &Builder{loader: loader}
}

// Build loads the corpus and builds its graph. Only a fatal corpus
// enumeration error is returned.
func (b *Builder) Build(ctx context.Context) (models.GraphSnapshot, error) {
	res, err := b.loader.LoadAll(ctx)
	if err != nil {
		return models.GraphSnapshot{}, err
	}
	return Build(res.Posts, res.Skipped), nil
}
