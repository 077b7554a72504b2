// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/starford/inkgraph/internal/api"
	"github.com/starford/inkgraph/internal/comments"
	"github.com/starford/inkgraph/internal/corpus"
	"github.com/starford/inkgraph/internal/database"
	"github.com/starford/inkgraph/internal/engagement"
	"github.com/starford/inkgraph/internal/fingerprint"
	"github.com/starford/inkgraph/internal/mcpserver"
	"github.com/starford/inkgraph/internal/postservice"
	"github.com/starford/inkgraph/internal/storage"
)

// components are the wired services shared by the HTTP and MCP front ends.
type components struct {
	logger   *slog.Logger
	db       *database.DB
	posts    *postservice.Service
	ledger   *engagement.Ledger
	comments *comments.Store
}

func (c *components) Close() error {
	return c.db.Close()
}

func setup(opts []Option) (*application, *components, error) {
	app := &application{logOutput: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("corpus_path", cfg.Corpus.Path),
		slog.String("database_path", cfg.Database.Path),
		slog.Duration("view_window", cfg.Engagement.ViewWindow),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// The corpus directory is checked on every load, so a missing directory
	// only degrades post reads to 503.
	store, err := storage.NewFS(cfg.Corpus.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}

	// An unconfigured database leaves engagement and comments disabled.
	var db *database.DB
	if cfg.Database.Configured() {
		db, err = database.Open(cfg.Database.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("init database: %w", err)
		}
	} else {
		logger.Warn("Database path is empty; engagement and comments are disabled")
	}

	loader := corpus.NewLoader(store, logger)
	return app, &components{
		logger: logger,
		db:     db,
		posts:  postservice.NewService(loader, cfg.Corpus.LinkPrefix),
		ledger: engagement.NewLedger(db,
			engagement.WithViewWindow(cfg.Engagement.ViewWindow),
			engagement.WithLogger(logger),
		),
		comments: comments.NewStore(db,
			comments.WithCost(cfg.Comments.BcryptCost),
			comments.WithLogger(logger),
		),
	}, nil
}

// Run starts the HTTP application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, c, err := setup(opts)
	if err != nil {
		return err
	}
	defer c.Close()

	cfg := app.config
	logger := c.logger

	secret, dev := cfg.Visitor.Secret()
	if dev {
		logger.Warn("visitor.hash_secret is empty; using the development secret")
	}

	apiRouter := api.NewRouter(api.RouterConfig{
		Posts:    c.posts,
		Ledger:   c.ledger,
		Comments: c.comments,
		Deriver:  fingerprint.New(secret),
		Cookie: api.VisitorCookie{
			Name:   cfg.Visitor.CookieName,
			MaxAge: int(cfg.Visitor.CookieMaxAge / time.Second),
			Secure: cfg.Visitor.SecureCookie,
		},
		PublicOrigin: cfg.App.HTTP.PublicOrigin,
	})

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints.
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if c.db.Configured() {
			if err := c.db.Conn().PingContext(req.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"database unreachable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Prometheus metrics.
	r.Handle("/metrics", promhttp.Handler())

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the read-only MCP tools over stdin/stdout. Logs must not go
// to stdout here; callers pass WithLogOutput(os.Stderr).
func RunMCP(ctx context.Context, opts ...Option) error {
	_, c, err := setup(opts)
	if err != nil {
		return err
	}
	defer c.Close()

	srv := mcpserver.New(c.posts, c.ledger, c.comments)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ServeStdio() }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("mcp server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		return nil
	}
}
