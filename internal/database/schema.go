// Package database provides the SQLite-backed relational store shared by the
// engagement ledger and the comment store.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

const driverName = "sqlite3_inkgraph"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS post_metrics (
	post_id     TEXT PRIMARY KEY,
	likes_count INTEGER NOT NULL DEFAULT 0,
	views_count INTEGER NOT NULL DEFAULT 0,
	updated_at  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS post_likes (
	post_id     TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	created_at  INTEGER NOT NULL,
	PRIMARY KEY (post_id, fingerprint)
);

CREATE TABLE IF NOT EXISTS post_view_windows (
	post_id        TEXT NOT NULL,
	fingerprint    TEXT NOT NULL,
	last_viewed_at INTEGER NOT NULL,
	PRIMARY KEY (post_id, fingerprint)
);

CREATE TABLE IF NOT EXISTS post_comments (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id       TEXT NOT NULL,
	author_name   TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	content       TEXT NOT NULL,
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL,
	deleted_at    INTEGER
);

CREATE INDEX IF NOT EXISTS idx_post_comments_post ON post_comments(post_id, created_at DESC, id DESC);
`

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("bcrypt_match", bcryptMatch, true)
		},
	})
}

// bcryptMatch backs the bcrypt_match(hash, secret) SQL function so password
// checks can sit inside a WHERE clause.
func bcryptMatch(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// DB wraps a sql.DB. A nil *DB stands for an unconfigured store.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(path string) (*DB, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate"
	conn, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("database: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("database: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Configured reports whether db points at a live store.
func (db *DB) Configured() bool {
	return db != nil && db.conn != nil
}

// Conn exposes the pool for single-statement reads.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	if !db.Configured() {
		return nil
	}
	return db.conn.Close()
}

// WithTx runs fn inside one transaction. The transaction is committed when fn
// returns nil and rolled back on any error or panic.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	if !db.Configured() {
		return errUnconfigured
	}
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("database: begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("database: commit: %w", err)
	}
	return nil
}

var errUnconfigured = errors.New("database: store is not configured")

// Millis converts t to the stored timestamp representation.
func Millis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

// FromMillis converts a stored timestamp back to UTC time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
