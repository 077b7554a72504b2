// Package parser extracts front matter and wikilinks from Markdown posts.
package parser

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// FrontMatter is the structured metadata block of a post.
type FrontMatter struct {
	ID      string     `yaml:"id"`
	Title   string     `yaml:"title"`
	Date    string     `yaml:"date"`
	Excerpt string     `yaml:"excerpt"`
	Author  string     `yaml:"author"`
	Tags    StringList `yaml:"tags"`
	Refs    StringList `yaml:"refs"`
}

// StringList decodes a YAML sequence of scalars. Any other node kind decodes
// to an empty list instead of failing the whole document.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	*l = nil
	if node.Kind != yaml.SequenceNode {
		return nil
	}
	for _, item := range node.Content {
		if item.Kind != yaml.ScalarNode {
			continue
		}
		*l = append(*l, item.Value)
	}
	return nil
}

// Document holds the output of parsing a Markdown post.
type Document struct {
	Meta  FrontMatter
	Body  string
	Links []Link
	// HasFrontMatter is false when no delimited block was found.
	HasFrontMatter bool
}

// Parse splits front matter from the body and extracts wikilinks from the body.
// A malformed YAML block is reported as an error.
func Parse(data []byte) (*Document, error) {
	block, body, found := splitFrontmatter(data)

	doc := &Document{Body: body, HasFrontMatter: found}
	if found {
		if err := yaml.Unmarshal(block, &doc.Meta); err != nil {
			return nil, fmt.Errorf("parser: front matter: %w", err)
		}
	}
	doc.Links = Extract(body)
	return doc, nil
}

// splitFrontmatter separates a YAML block (between leading --- delimiters)
// from the Markdown body. Without a complete block the entire content is body.
func splitFrontmatter(data []byte) ([]byte, string, bool) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")
	// Strip a UTF-8 BOM written by some editors.
	trimmed = bytes.TrimPrefix(trimmed, []byte("\xef\xbb\xbf"))

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), false
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data), false
	}

	block := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	// Drop the remainder of the closing delimiter line.
	if nl := bytes.IndexByte(afterDelim, '\n'); nl >= 0 {
		afterDelim = afterDelim[nl+1:]
	} else {
		afterDelim = nil
	}
	body := strings.TrimLeft(string(afterDelim), "\n\r")
	return block, body, true
}
