// Package comments stores reader comments. Each comment is protected by a
// password chosen by its author; edits and deletes must present it.
package comments

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/starford/inkgraph/internal/apperr"
	"github.com/starford/inkgraph/internal/database"
	"github.com/starford/inkgraph/internal/models"
)

// DefaultCost is the bcrypt work factor used for comment passwords.
const DefaultCost = 12

// Store persists comments in the relational store.
type Store struct {
	db     *database.DB
	cost   int
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithCost overrides DefaultCost. Values outside bcrypt's range are ignored.
func WithCost(cost int) Option {
	return func(s *Store) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.cost = cost
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for soft failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates a comment store. db may be nil; reads then return nothing
// and mutations fail with apperr.ErrUnavailable.
func NewStore(db *database.DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		cost:   DefaultCost,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// digest pre-hashes a password so inputs longer than bcrypt's 72-byte limit
// still influence the stored hash.
func digest(password string) string {
	sum := sha256.Sum256([]byte(password))
	return base64.StdEncoding.EncodeToString(sum[:])
}

const commentColumns = `id, post_id, author_name, content, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(row rowScanner) (models.Comment, error) {
	var c models.Comment
	var created, updated int64
	if err := row.Scan(&c.ID, &c.PostID, &c.AuthorName, &c.Content, &created, &updated); err != nil {
		return models.Comment{}, err
	}
	c.CreatedAt = database.FromMillis(created)
	c.UpdatedAt = database.FromMillis(updated)
	return c, nil
}

// ListForPost returns the live comments of postID, newest first. Failures are
// logged and yield an empty list.
func (s *Store) ListForPost(ctx context.Context, postID string) []models.Comment {
	out := []models.Comment{}
	if !s.db.Configured() {
		return out
	}

	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT `+commentColumns+`
		FROM post_comments
		WHERE post_id = ? AND deleted_at IS NULL
		ORDER BY created_at DESC, id DESC
	`, postID)
	if err != nil {
		s.logger.Warn("comments: list failed", slog.String("post_id", postID), slog.String("error", err.Error()))
		return out
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			s.logger.Warn("comments: scan failed", slog.String("post_id", postID), slog.String("error", err.Error()))
			return []models.Comment{}
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		s.logger.Warn("comments: list failed", slog.String("post_id", postID), slog.String("error", err.Error()))
		return []models.Comment{}
	}
	return out
}

// Create validates in and stores a new comment on postID.
func (s *Store) Create(ctx context.Context, postID string, in CreateInput) (*models.Comment, error) {
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}
	if !s.db.Configured() {
		return nil, apperr.ErrUnavailable
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(digest(in.Password)), s.cost)
	if err != nil {
		return nil, fmt.Errorf("comments: hash password: %w", err)
	}

	now := database.Millis(s.now())
	c, err := scanComment(s.db.Conn().QueryRowContext(ctx, `
		INSERT INTO post_comments (post_id, author_name, password_hash, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING `+commentColumns,
		postID, strings.TrimSpace(in.AuthorName), string(hash), strings.TrimSpace(in.Content), now, now))
	if err != nil {
		return nil, fmt.Errorf("comments: insert: %w", err)
	}
	return &c, nil
}

// Update replaces the content of a live comment when in.Password matches.
func (s *Store) Update(ctx context.Context, postID string, commentID int64, in UpdateInput) (*models.Comment, error) {
	if err := validateCommentID(commentID); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}
	if !s.db.Configured() {
		return nil, apperr.ErrUnavailable
	}

	var updated models.Comment
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		c, err := scanComment(tx.QueryRowContext(ctx, `
			UPDATE post_comments
			SET content = ?, updated_at = ?
			WHERE id = ? AND post_id = ? AND deleted_at IS NULL
			  AND bcrypt_match(password_hash, ?)
			RETURNING `+commentColumns,
			strings.TrimSpace(in.Content), database.Millis(s.now()), commentID, postID, digest(in.Password)))
		if errors.Is(err, sql.ErrNoRows) {
			return explainMiss(ctx, tx, postID, commentID)
		}
		if err != nil {
			return fmt.Errorf("comments: update: %w", err)
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete soft-deletes a live comment when in.Password matches.
func (s *Store) Delete(ctx context.Context, postID string, commentID int64, in DeleteInput) error {
	if err := validateCommentID(commentID); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return invalid(err)
	}
	if !s.db.Configured() {
		return apperr.ErrUnavailable
	}

	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE post_comments
			SET deleted_at = ?
			WHERE id = ? AND post_id = ? AND deleted_at IS NULL
			  AND bcrypt_match(password_hash, ?)
		`, database.Millis(s.now()), commentID, postID, digest(in.Password))
		if err != nil {
			return fmt.Errorf("comments: delete: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("comments: delete: %w", err)
		}
		if n == 0 {
			return explainMiss(ctx, tx, postID, commentID)
		}
		return nil
	})
}

// explainMiss tells a wrong password apart from a missing comment after a
// guarded write touched no rows.
func explainMiss(ctx context.Context, tx *sql.Tx, postID string, commentID int64) error {
	var exists bool
	err := tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM post_comments
			WHERE id = ? AND post_id = ? AND deleted_at IS NULL
		)
	`, commentID, postID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("comments: lookup: %w", err)
	}
	if exists {
		return apperr.ErrInvalidPassword
	}
	return apperr.ErrNotFound
}
