// Package highlight locates the source sentences a summary bullet was drawn from.
package highlight

import (
	"html"
	"regexp"
	"sort"
	"strings"

	"github.com/agext/levenshtein"
)

const (
	DefaultCutoff     = 0.5
	DefaultMaxMatches = 3
)

// Result is the source text with the matched sentences wrapped in <mark>.
type Result struct {
	Bullet  string   `json:"bullet"`
	Matches []string `json:"matches"`
	HTML    string   `json:"html"`
}

var bulletLabel = regexp.MustCompile(`^(Point|Chunk) \d+:\s*`)

// Sentences splits text the same coarse way the matcher expects: on ". ".
func Sentences(text string) []string {
	var out []string
	for _, s := range strings.Split(text, ". ") {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// CloseMatches returns up to n candidates whose similarity to target is at
// least cutoff, best first. Ties keep their original order.
func CloseMatches(target string, candidates []string, n int, cutoff float64) []string {
	type scored struct {
		s     string
		score float64
		pos   int
	}
	var hits []scored
	for i, c := range candidates {
		if sc := levenshtein.Similarity(target, c, nil); sc >= cutoff {
			hits = append(hits, scored{c, sc, i})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > n {
		hits = hits[:n]
	}
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.s)
	}
	return out
}

// Mark finds the sentences of text closest to bullet and returns text as
// escaped HTML with those sentences highlighted.
func Mark(text, bullet string) Result {
	target := bulletLabel.ReplaceAllString(strings.TrimSpace(bullet), "")
	matches := CloseMatches(target, Sentences(text), DefaultMaxMatches, DefaultCutoff)

	out := html.EscapeString(text)
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		esc := html.EscapeString(m)
		if seen[esc] {
			continue
		}
		seen[esc] = true
		out = strings.ReplaceAll(out, esc, "<mark>"+esc+"</mark>")
	}
	return Result{Bullet: bullet, Matches: matches, HTML: out}
}
