package corpus

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/starford/inkgraph/internal/apperr"
	"github.com/starford/inkgraph/internal/storage"
	"github.com/starford/inkgraph/internal/testutil"
)

func TestLoadAll_SkipsMalformed(t *testing.T) {
	_, store := testutil.TestCorpus(t, map[string]string{
		"a.md":        testutil.Post("a", "A", "2024-01-01", []string{"x"}, "links to [[b]]"),
		"b.md":        testutil.Post("b", "B", "2024-01-02", nil, "plain"),
		"no-id.md":    testutil.Post("", "No ID", "2024-01-03", nil, ""),
		"no-title.md": testutil.Post("c", "", "2024-01-03", nil, ""),
		"no-date.md":  testutil.Post("d", "D", "", nil, ""),
		"broken.md":   "---\n: : {{{\n---\nbody",
		"plain.md":    "# no front matter",
	})

	res, err := NewLoader(store, nil).LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(res.Posts) != 2 {
		t.Fatalf("posts = %d, want 2", len(res.Posts))
	}
	if len(res.Skipped) != 5 {
		t.Errorf("skipped = %v, want 5 entries", res.Skipped)
	}
	if res.Posts[0].ID != "a" || res.Posts[1].ID != "b" {
		t.Errorf("order = %s,%s, want a,b", res.Posts[0].ID, res.Posts[1].ID)
	}
}

func TestLoadAll_Defaults(t *testing.T) {
	_, store := testutil.TestCorpus(t, map[string]string{
		"a.md": testutil.Post("a", "A", "2024-01-01", nil, "body"),
	})
	res, err := NewLoader(store, nil).LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	p := res.Posts[0]
	if p.Tags == nil || len(p.Tags) != 0 {
		t.Errorf("tags = %#v, want empty non-nil", p.Tags)
	}
	if p.Refs == nil || len(p.Refs) != 0 {
		t.Errorf("refs = %#v, want empty non-nil", p.Refs)
	}
	if p.Excerpt != "" || p.Author != "" {
		t.Errorf("excerpt/author = %q/%q, want empty", p.Excerpt, p.Author)
	}
	if p.Filename != "a.md" {
		t.Errorf("filename = %q", p.Filename)
	}
}

func TestLoadAll_RefsUnion(t *testing.T) {
	doc := "---\nid: a\ntitle: A\ndate: 2024-01-01\nrefs:\n  - b\n  - c\n---\nsee [[c]], [[d|Dee]], [[a]] and [[d]]"
	_, store := testutil.TestCorpus(t, map[string]string{"a.md": doc})

	res, err := NewLoader(store, nil).LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	got := res.Posts[0].Refs
	want := []string{"b", "c", "d", "a"}
	if len(got) != len(want) {
		t.Fatalf("refs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("refs[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLoadAll_DuplicateIDSkipped(t *testing.T) {
	_, store := testutil.TestCorpus(t, map[string]string{
		"a.md":      testutil.Post("same", "First", "2024-01-01", nil, ""),
		"b-copy.md": testutil.Post("same", "Second", "2024-01-02", nil, ""),
	})
	res, err := NewLoader(store, nil).LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(res.Posts) != 1 || res.Posts[0].Title != "First" {
		t.Errorf("posts = %+v", res.Posts)
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != "b-copy.md" {
		t.Errorf("skipped = %v", res.Skipped)
	}
}

func TestLoadAll_MissingCorpusIsFatal(t *testing.T) {
	store, err := storage.NewFS(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = NewLoader(store, nil).LoadAll(context.Background())
	if !errors.Is(err, apperr.ErrCorpusUnavailable) {
		t.Fatalf("err = %v, want ErrCorpusUnavailable", err)
	}
}

func TestLoadAll_EmptyCorpus(t *testing.T) {
	_, store := testutil.TestCorpus(t, nil)
	res, err := NewLoader(store, nil).LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(res.Posts) != 0 || len(res.Skipped) != 0 {
		t.Errorf("res = %+v, want empty", res)
	}
}
