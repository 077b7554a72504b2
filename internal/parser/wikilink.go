package parser

import (
	"net/url"
	"regexp"
	"strings"
)

var wikilinkRe = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)

// Link is one parsed [[target]] or [[target|alias]] token.
// Alias is empty when the token carries none.
type Link struct {
	Target string `json:"target"`
	Alias  string `json:"alias,omitempty"`
}

// Display returns the text a reader should see for the link.
func (l Link) Display() string {
	if l.Alias != "" {
		return l.Alias
	}
	return l.Target
}

// parseToken splits the inside of a [[...]] token on the first "|".
func parseToken(raw string) (Link, bool) {
	target, alias := raw, ""
	if i := strings.Index(raw, "|"); i >= 0 {
		target, alias = raw[:i], raw[i+1:]
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return Link{}, false
	}
	return Link{Target: target, Alias: strings.TrimSpace(alias)}, true
}

// Extract returns every well-formed wikilink in text, in order of appearance.
// Repeated targets are all returned; tokens with an empty target are dropped.
func Extract(text string) []Link {
	matches := wikilinkRe.FindAllStringSubmatch(text, -1)
	out := make([]Link, 0, len(matches))
	for _, m := range matches {
		if l, ok := parseToken(m[1]); ok {
			out = append(out, l)
		}
	}
	return out
}

// Targets returns the distinct targets of links in first-seen order.
func Targets(links []Link) []string {
	seen := make(map[string]struct{}, len(links))
	out := make([]string, 0, len(links))
	for _, l := range links {
		if _, ok := seen[l.Target]; ok {
			continue
		}
		seen[l.Target] = struct{}{}
		out = append(out, l.Target)
	}
	return out
}

var linkTextEscaper = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`)

// Render rewrites every wikilink in text into markdown. Targets present in
// known become [display](prefix+target); unknown targets become plain display text.
func Render(text string, known map[string]struct{}, prefix string) string {
	return wikilinkRe.ReplaceAllStringFunc(text, func(token string) string {
		l, ok := parseToken(token[2 : len(token)-2])
		if !ok {
			return token
		}
		if _, exists := known[l.Target]; !exists {
			return l.Display()
		}
		return "[" + linkTextEscaper.Replace(l.Display()) + "](" + prefix + url.PathEscape(l.Target) + ")"
	})
}
