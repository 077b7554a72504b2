// Package testutil provides shared test helpers for setting up corpora and databases.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/inkgraph/internal/database"
	"github.com/starford/inkgraph/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *database.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "inkgraph-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() {
		os.Remove(dbFile.Name())
		os.Remove(dbFile.Name() + "-wal")
		os.Remove(dbFile.Name() + "-shm")
	})

	db, err := database.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestCorpus creates a temporary posts directory holding files and returns
// its path together with a storage.Provider rooted there.
func TestCorpus(t *testing.T, files map[string]string) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		WriteFile(t, dir, name, content)
	}
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// WriteFile writes content to name under dir, creating parent directories.
func WriteFile(t *testing.T, dir, name, content string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// Post renders a post document with the given front matter fields and body.
// Tags are written as a YAML list.
func Post(id, title, date string, tags []string, body string) string {
	var b strings.Builder
	b.WriteString("---\n")
	if id != "" {
		fmt.Fprintf(&b, "id: %s\n", id)
	}
	if title != "" {
		fmt.Fprintf(&b, "title: %s\n", title)
	}
	if date != "" {
		fmt.Fprintf(&b, "date: %s\n", date)
	}
	if len(tags) > 0 {
		b.WriteString("tags:\n")
		for _, tag := range tags {
			fmt.Fprintf(&b, "  - %s\n", tag)
		}
	}
	b.WriteString("---\n")
	b.WriteString(body)
	return b.String()
}
