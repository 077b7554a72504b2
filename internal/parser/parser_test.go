package parser

import (
	"strings"
	"testing"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\nid: hello\ntitle: Hello\ndate: 2024-03-01\ntags:\n  - go\n  - graph\nrefs: [other]\n---\n# Hello\nSee [[world]].\n")
	doc, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.HasFrontMatter {
		t.Fatal("expected front matter")
	}
	if doc.Meta.ID != "hello" || doc.Meta.Title != "Hello" {
		t.Errorf("meta = %+v", doc.Meta)
	}
	if doc.Meta.Date != "2024-03-01" {
		t.Errorf("date = %q, want 2024-03-01", doc.Meta.Date)
	}
	if len(doc.Meta.Tags) != 2 || doc.Meta.Tags[0] != "go" || doc.Meta.Tags[1] != "graph" {
		t.Errorf("tags = %v, want [go graph]", doc.Meta.Tags)
	}
	if len(doc.Meta.Refs) != 1 || doc.Meta.Refs[0] != "other" {
		t.Errorf("refs = %v", doc.Meta.Refs)
	}
	if doc.Body != "# Hello\nSee [[world]].\n" {
		t.Errorf("body = %q", doc.Body)
	}
	if len(doc.Links) != 1 || doc.Links[0].Target != "world" {
		t.Errorf("links = %v", doc.Links)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	input := []byte("# Just a heading\nSome text.\n")
	doc, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.HasFrontMatter {
		t.Error("expected no front matter")
	}
	if doc.Meta.ID != "" {
		t.Errorf("id = %q, want empty", doc.Meta.ID)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	input := []byte("---\n: invalid: yaml: {{{\n---\nBody\n")
	if _, err := Parse(input); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestParse_ScalarTagsIgnored(t *testing.T) {
	input := []byte("---\nid: 42\ntitle: Numbers\ndate: 2024-01-01\ntags: not-a-list\n---\nbody")
	doc, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Meta.ID != "42" {
		t.Errorf("id = %q, want 42", doc.Meta.ID)
	}
	if len(doc.Meta.Tags) != 0 {
		t.Errorf("tags = %v, want empty", doc.Meta.Tags)
	}
}

func TestExtract_TargetAndAlias(t *testing.T) {
	links := Extract("See [[A]] and [[ B | the b ]].")
	if len(links) != 2 {
		t.Fatalf("len(links) = %d, want 2", len(links))
	}
	if links[0].Target != "A" || links[0].Alias != "" {
		t.Errorf("links[0] = %+v", links[0])
	}
	if links[1].Target != "B" || links[1].Alias != "the b" {
		t.Errorf("links[1] = %+v", links[1])
	}
}

func TestExtract_EmptyTarget(t *testing.T) {
	links := Extract("see [[ ]] and [[|alias]]")
	if len(links) != 0 {
		t.Errorf("expected no links, got %v", links)
	}
}

func TestExtract_KeepsDuplicates(t *testing.T) {
	links := Extract("[[a]] [[b]] [[a|again]]")
	if len(links) != 3 {
		t.Fatalf("len(links) = %d, want 3", len(links))
	}
	targets := Targets(links)
	if len(targets) != 2 || targets[0] != "a" || targets[1] != "b" {
		t.Errorf("targets = %v, want [a b]", targets)
	}
}

func TestExtract_SplitsOnFirstPipe(t *testing.T) {
	links := Extract("[[a|b|c]]")
	if len(links) != 1 || links[0].Target != "a" || links[0].Alias != "b|c" {
		t.Errorf("links = %+v", links)
	}
}

func TestRender_KnownAndUnknown(t *testing.T) {
	known := map[string]struct{}{"a": {}, "my post": {}}
	got := Render("x [[a]] y [[missing|Gone]] z [[my post|Mine]] [[nope]]", known, "/post/")
	want := "x [a](/post/a) y Gone z [Mine](/post/my%20post) nope"
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestRender_EscapesLinkText(t *testing.T) {
	known := map[string]struct{}{"a": {}}
	got := Render(`[[a|back\slash]]`, known, "/post/")
	if !strings.HasPrefix(got, `[back\\slash](`) {
		t.Errorf("Render = %q", got)
	}
}

func TestRender_LeavesMalformedTokens(t *testing.T) {
	got := Render("keep [[ ]] as is", map[string]struct{}{}, "/post/")
	if got != "keep [[ ]] as is" {
		t.Errorf("Render = %q", got)
	}
}
