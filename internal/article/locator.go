// Package article locates named contract articles inside a flat
// paragraph sequence and computes the paragraph range they own.
package article

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ibzarain/redline/internal/document"
)

// Boundary is the paragraph range belonging to one located article.
// Computed fresh per instruction; callers must not persist it across
// mutations because paragraph indices shift.
type Boundary struct {
	StartParagraph int
	EndParagraph   int
	Content        string
}

// headerSuffixes are the separators accepted between "ARTICLE <name>" and
// the rest of the header line. Kept as a table so the accepted spellings
// can be tested independently of the scan.
var headerSuffixes = []string{" ", "–", "-", ":"}

// nextHeaderPatterns match any article header, not just the named one.
// The first match after the start header terminates the boundary.
var nextHeaderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^ARTICLE\s+[A-Z]-\d+`),
}

// NormalizeName strips a leading "ARTICLE" keyword and uppercases the
// remainder, so callers may pass "Article A-3", "A-3", or "a-3".
func NormalizeName(name string) string {
	n := strings.TrimSpace(strings.ToUpper(name))
	n = strings.TrimPrefix(n, "ARTICLE")
	return strings.TrimSpace(n)
}

// MatchesHeader reports whether a paragraph's text is the header line for
// the named article.
func MatchesHeader(text, name string) bool {
	t := strings.TrimSpace(strings.ToUpper(text))
	base := "ARTICLE " + name
	if t == base {
		return true
	}
	for _, sep := range headerSuffixes {
		if strings.HasPrefix(t, base+sep) {
			return true
		}
	}
	return false
}

// MatchesAnyHeader reports whether a paragraph's text looks like any
// article header.
func MatchesAnyHeader(text string) bool {
	t := strings.TrimSpace(strings.ToUpper(text))
	for _, re := range nextHeaderPatterns {
		if re.MatchString(t) {
			return true
		}
	}
	return false
}

// Locate finds the paragraph range of the named article. A missing
// article is a normal outcome: ok is false and err is nil. The header
// paragraph itself is included in the boundary and its content.
func Locate(ctx context.Context, model document.Model, name string) (Boundary, bool, error) {
	paras, err := model.Paragraphs(ctx)
	if err != nil {
		return Boundary{}, false, fmt.Errorf("failed to read paragraphs: %w", err)
	}

	normalized := NormalizeName(name)
	start := -1
	for _, p := range paras {
		if MatchesHeader(p.Text, normalized) {
			start = p.Index
			break
		}
	}
	if start < 0 {
		return Boundary{}, false, nil
	}

	// The boundary runs until the next article header, any article.
	end := len(paras) - 1
	for i := start + 1; i < len(paras); i++ {
		if MatchesAnyHeader(paras[i].Text) {
			end = i - 1
			break
		}
	}

	var parts []string
	for i := start; i <= end; i++ {
		parts = append(parts, paras[i].Text)
	}

	return Boundary{
		StartParagraph: start,
		EndParagraph:   end,
		Content:        strings.Join(parts, "\n"),
	}, true, nil
}

// Range converts the boundary to a document range.
func (b Boundary) Range() document.Range {
	return document.Range{Start: b.StartParagraph, End: b.EndParagraph}
}
