// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes read-only inkgraph tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/inkgraph/internal/apperr"
	"github.com/starford/inkgraph/internal/comments"
	"github.com/starford/inkgraph/internal/engagement"
	"github.com/starford/inkgraph/internal/postservice"
)

const postFormatURI = "inkgraph://post-format"

// Server wraps the MCP server with inkgraph tools.
type Server struct {
	mcp      *server.MCPServer
	posts    *postservice.Service
	ledger   *engagement.Ledger
	comments *comments.Store
}

// New creates a new MCP server with all inkgraph tools registered.
func New(posts *postservice.Service, ledger *engagement.Ledger, store *comments.Store) *Server {
	s := &Server{posts: posts, ledger: ledger, comments: store}

	s.mcp = server.NewMCPServer(
		"inkgraph",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Return the post relationship graph: post and tag nodes, "+
			"wiki-link reference edges, post-tag edges and summary stats."),
	), s.getGraph)

	s.mcp.AddTool(mcp.NewTool("list_posts",
		mcp.WithDescription("List posts newest first with id, title, date, excerpt and tags."),
		mcp.WithNumber("limit", mcp.Min(0), mcp.Description("Optional maximum number of posts")),
	), s.listPosts)

	s.mcp.AddTool(mcp.NewTool("read_post",
		mcp.WithDescription("Read a post by id. Wiki-links to existing posts are rendered as Markdown links."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Post id from the front matter")),
	), s.readPost)

	s.mcp.AddTool(mcp.NewTool("list_comments",
		mcp.WithDescription("List the comments of a post, newest first."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Post id")),
	), s.listComments)

	s.mcp.AddTool(mcp.NewTool("get_metrics",
		mcp.WithDescription("Return the like and view counters of a post."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Post id")),
	), s.getMetrics)

	s.mcp.AddTool(mcp.NewTool("get_post_contract",
		mcp.WithDescription("Returns the inkgraph post format contract: required front matter "+
			"fields, tags, refs and wiki-link syntax."),
	), s.getPostContract)

	// Resource: post format contract.
	s.mcp.AddResource(
		mcp.NewResource(postFormatURI, "Post Format Contract",
			mcp.WithResourceDescription("Markdown post format read by the corpus loader."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readPostFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// requirePost resolves the id argument to an existing post.
func (s *Server) requirePost(ctx context.Context, req mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	id, err := req.RequireString("id")
	if err != nil {
		return "", mcp.NewToolResultError(err.Error())
	}
	ok, err := s.posts.Exists(ctx, id)
	if err != nil {
		return "", mcp.NewToolResultError(err.Error())
	}
	if !ok {
		return "", mcp.NewToolResultError(fmt.Sprintf("post not found: %s", id))
	}
	return id, nil
}

func (s *Server) getGraph(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := s.posts.Graph(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(snap)
}

func (s *Server) listPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.posts.Recent(ctx, req.GetInt("limit", -1))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items)
}

func (s *Server) readPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	post, err := s.posts.Get(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("post not found: %s", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(post)
}

func (s *Server) listComments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := s.requirePost(ctx, req)
	if errResult != nil {
		return errResult, nil
	}
	return jsonResult(s.comments.ListForPost(ctx, id))
}

func (s *Server) getMetrics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := s.requirePost(ctx, req)
	if errResult != nil {
		return errResult, nil
	}
	// Tool callers have no visitor identity, so likedByMe is always false.
	return jsonResult(s.ledger.GetMetrics(ctx, id, ""))
}

func (s *Server) getPostContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PostFormatContract), nil
}

func (s *Server) readPostFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      postFormatURI,
			MIMEType: "text/markdown",
			Text:     PostFormatContract,
		},
	}, nil
}
