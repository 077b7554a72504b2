// Package engagement keeps per-post like and view counters keyed by visitor
// fingerprint.
package engagement

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/inkgraph/internal/database"
	"github.com/starford/inkgraph/internal/models"
)

// DefaultViewWindow is how long a counted view suppresses further views from
// the same fingerprint.
const DefaultViewWindow = 24 * time.Hour

// Ledger implements the like toggle and the view window on top of the store.
type Ledger struct {
	db     *database.DB
	window time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithViewWindow overrides DefaultViewWindow.
func WithViewWindow(d time.Duration) Option {
	return func(l *Ledger) {
		if d > 0 {
			l.window = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLogger sets the logger used for soft failures.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// NewLedger creates a ledger. db may be nil, in which case every operation is
// a no-op returning zero metrics.
func NewLedger(db *database.DB, opts ...Option) *Ledger {
	l := &Ledger{
		db:     db,
		window: DefaultViewWindow,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readMetrics(ctx context.Context, q queryer, postID, fingerprint string) (models.PostMetrics, error) {
	m := models.EmptyMetrics(postID)
	err := q.QueryRowContext(ctx, `
		SELECT
			COALESCE((SELECT likes_count FROM post_metrics WHERE post_id = ?), 0),
			COALESCE((SELECT views_count FROM post_metrics WHERE post_id = ?), 0),
			EXISTS (SELECT 1 FROM post_likes WHERE post_id = ? AND fingerprint = ?)
	`, postID, postID, postID, fingerprint).Scan(&m.Likes, &m.Views, &m.LikedByMe)
	if err != nil {
		return models.EmptyMetrics(postID), fmt.Errorf("engagement: read metrics: %w", err)
	}
	return m, nil
}

// GetMetrics returns the counters for postID as seen by fingerprint. It never
// fails: an unconfigured or unreachable store yields zero metrics.
func (l *Ledger) GetMetrics(ctx context.Context, postID, fingerprint string) models.PostMetrics {
	if !l.db.Configured() {
		return models.EmptyMetrics(postID)
	}
	m, err := readMetrics(ctx, l.db.Conn(), postID, fingerprint)
	if err != nil {
		l.logger.Warn("engagement: metrics unavailable", slog.String("post_id", postID), slog.String("error", err.Error()))
		return models.EmptyMetrics(postID)
	}
	return m
}

func ensureAggregate(ctx context.Context, tx *sql.Tx, postID string, now int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO post_metrics (post_id, likes_count, views_count, updated_at)
		VALUES (?, 0, 0, ?)
		ON CONFLICT (post_id) DO NOTHING
	`, postID, now)
	if err != nil {
		return fmt.Errorf("engagement: ensure aggregate: %w", err)
	}
	return nil
}

// ToggleLike flips the like state of (postID, fingerprint). Both transitions
// report Counted; Metrics.LikedByMe carries the resulting state. The like
// counter is recomputed from the like records inside the same transaction, so
// it always equals the number of records.
func (l *Ledger) ToggleLike(ctx context.Context, postID, fingerprint string) (models.EventResult, error) {
	if !l.db.Configured() {
		return models.EventResult{Metrics: models.EmptyMetrics(postID)}, nil
	}

	now := database.Millis(l.now())
	var metrics models.PostMetrics
	err := l.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := ensureAggregate(ctx, tx, postID, now); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM post_likes WHERE post_id = ? AND fingerprint = ?`, postID, fingerprint)
		if err != nil {
			return fmt.Errorf("engagement: delete like: %w", err)
		}
		removed, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("engagement: delete like: %w", err)
		}
		if removed == 0 {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO post_likes (post_id, fingerprint, created_at) VALUES (?, ?, ?)
				ON CONFLICT (post_id, fingerprint) DO NOTHING
			`, postID, fingerprint, now); err != nil {
				return fmt.Errorf("engagement: insert like: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE post_metrics
			SET likes_count = (SELECT COUNT(*) FROM post_likes WHERE post_id = ?),
			    updated_at  = ?
			WHERE post_id = ?
		`, postID, now, postID); err != nil {
			return fmt.Errorf("engagement: update likes: %w", err)
		}

		metrics, err = readMetrics(ctx, tx, postID, fingerprint)
		return err
	})
	if err != nil {
		return models.EventResult{Metrics: models.EmptyMetrics(postID)}, err
	}
	return models.EventResult{Counted: true, Metrics: metrics}, nil
}

// RecordView counts a view for (postID, fingerprint) unless one was already
// counted within the view window. The window row is written by a single
// conditional upsert; the counter moves only when that upsert wrote a row.
func (l *Ledger) RecordView(ctx context.Context, postID, fingerprint string) (models.EventResult, error) {
	if !l.db.Configured() {
		return models.EventResult{Metrics: models.EmptyMetrics(postID)}, nil
	}

	nowTime := l.now()
	now := database.Millis(nowTime)
	cutoff := database.Millis(nowTime.Add(-l.window))

	var (
		counted bool
		metrics models.PostMetrics
	)
	err := l.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := ensureAggregate(ctx, tx, postID, now); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO post_view_windows (post_id, fingerprint, last_viewed_at)
			VALUES (?, ?, ?)
			ON CONFLICT (post_id, fingerprint) DO UPDATE
				SET last_viewed_at = excluded.last_viewed_at
				WHERE post_view_windows.last_viewed_at < ?
		`, postID, fingerprint, now, cutoff)
		if err != nil {
			return fmt.Errorf("engagement: upsert view window: %w", err)
		}
		written, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("engagement: upsert view window: %w", err)
		}

		counted = written > 0
		if counted {
			if _, err := tx.ExecContext(ctx, `
				UPDATE post_metrics
				SET views_count = views_count + 1, updated_at = ?
				WHERE post_id = ?
			`, now, postID); err != nil {
				return fmt.Errorf("engagement: increment views: %w", err)
			}
		}

		metrics, err = readMetrics(ctx, tx, postID, fingerprint)
		return err
	})
	if err != nil {
		return models.EventResult{Metrics: models.EmptyMetrics(postID)}, err
	}
	metrics.ViewCounted = counted
	return models.EventResult{Counted: counted, Metrics: metrics}, nil
}

