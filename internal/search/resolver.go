// Package search resolves caller-supplied locator strings to exact text
// spans inside a bounded paragraph range. Document text rarely matches a
// locator byte-for-byte, so resolution runs an ordered cascade of
// normalization and fallback strategies.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/ibzarain/redline/internal/document"
)

// DefaultContextRadius is the character radius of the snippet built
// around a ranked candidate chunk.
const DefaultContextRadius = 800

// DefaultPreviewChars bounds the range preview attached to a NotFound.
const DefaultPreviewChars = 400

// contextWindow is the extra slack applied around a raw substring hit
// when narrowing the paragraph-scan fallback.
const contextWindow = 5

// Candidate is a ranked chunk the resolver considered during semantic
// fallback, with a context snippet for the caller to inspect.
type Candidate struct {
	Paragraph int
	Snippet   string
}

// NotFoundError reports a locator that did not resolve. It is expected
// and recoverable; it carries the attempted variants and a bounded
// preview of the scoped range so the caller can diagnose the miss
// without dumping the whole document.
type NotFoundError struct {
	Query      string
	Attempted  []string
	Preview    string
	Candidates []Candidate
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no match for %q (tried %d variants)", e.Query, len(e.Attempted))
}

// variant is one step of the resolution cascade.
type variant struct {
	name      string
	transform func(string) string
}

// cascade is the ordered list of query rewrites tried against the range
// search before falling back to a paragraph scan. Resolution stops at
// the first variant that matches.
var cascade = []variant{
	{"literal", func(q string) string { return q }},
	{"whitespace-normalized", normalizeWhitespace},
	{"trailing-punctuation-stripped", func(q string) string {
		return strings.TrimRight(q, ".:;")
	}},
	{"colon-appended", func(q string) string { return q + ":" }},
	{"last-three-words", lastWords},
	{"first-three-words", firstWords},
}

// Resolver turns locator strings into document spans.
type Resolver struct {
	// Ranker is the optional semantic fallback. Nil disables it.
	Ranker Ranker
	// ContextRadius bounds candidate snippets. Zero means the default.
	ContextRadius int
	// PreviewChars bounds the NotFound range preview. Zero means the
	// default.
	PreviewChars int
}

// Resolve finds the first span matching the query inside the range. On
// failure it returns a *NotFoundError listing everything it tried.
// Resolution is idempotent: the same query against an unmodified range
// returns the same span.
func (r *Resolver) Resolve(ctx context.Context, model document.Model, rng document.Range, query string, opts document.SearchOptions) (document.Span, error) {
	var attempted []string

	for _, v := range cascade {
		q := v.transform(query)
		if q == "" || contains(attempted, q) {
			continue
		}
		attempted = append(attempted, q)
		spans, err := model.SearchInRange(ctx, rng, q, opts)
		if err != nil {
			return document.Span{}, fmt.Errorf("range search failed: %w", err)
		}
		if len(spans) > 0 {
			return spans[0], nil
		}
	}

	// Last resort: case-insensitive paragraph scan. Range-level search
	// can miss when the document normalizes text differently than the
	// caller quoted it.
	if span, ok, err := r.paragraphScan(ctx, model, rng, query); err != nil {
		return document.Span{}, err
	} else if ok {
		return span, nil
	}
	attempted = append(attempted, "paragraph-scan")

	notFound := &NotFoundError{Query: query, Attempted: attempted}

	if r.Ranker != nil {
		candidates, err := r.rankCandidates(ctx, model, rng, query)
		if err == nil && len(candidates) > 0 {
			// Re-run the scan inside the top-ranked paragraph only.
			for _, c := range candidates {
				one := document.Range{Start: c.Paragraph, End: c.Paragraph}
				if span, ok, err := r.paragraphScan(ctx, model, one, query); err == nil && ok {
					return span, nil
				}
			}
			notFound.Candidates = candidates
		}
	}

	notFound.Preview = r.rangePreview(ctx, model, rng)
	return document.Span{}, notFound
}

// ResolveLabel resolves a numbered-paragraph label like "1.2". Explicit
// list-numbering labels are preferred because numbered items are a
// first-class list field, not literal text; documents without true list
// numbering fall back to literal prefix matching. A label hit always
// spans the full paragraph.
func (r *Resolver) ResolveLabel(ctx context.Context, model document.Model, rng document.Range, label string) (document.Span, error) {
	paras, err := model.Paragraphs(ctx)
	if err != nil {
		return document.Span{}, fmt.Errorf("failed to read paragraphs: %w", err)
	}
	label = strings.TrimSpace(label)

	inRange := func(p document.Paragraph) bool { return rng.Contains(p.Index) }

	for _, p := range paras {
		if inRange(p) && strings.TrimSpace(p.ListLabel) == label {
			return document.Span{Para: p.Index, Start: 0, End: len(p.Text)}, nil
		}
	}
	for _, p := range paras {
		if !inRange(p) {
			continue
		}
		t := strings.TrimSpace(p.Text)
		if t == label || strings.HasPrefix(t, label+" ") {
			return document.Span{Para: p.Index, Start: 0, End: len(p.Text)}, nil
		}
	}

	return document.Span{}, &NotFoundError{
		Query:     label,
		Attempted: []string{"list-label", "text-prefix"},
		Preview:   r.rangePreview(ctx, model, rng),
	}
}

// paragraphScan looks for the query as a case-insensitive substring of
// each paragraph, then narrows the hit with a small context window
// re-search to pin exact offsets.
func (r *Resolver) paragraphScan(ctx context.Context, model document.Model, rng document.Range, query string) (document.Span, bool, error) {
	paras, err := model.Paragraphs(ctx)
	if err != nil {
		return document.Span{}, false, fmt.Errorf("failed to read paragraphs: %w", err)
	}
	needle := strings.ToLower(normalizeWhitespace(query))
	if needle == "" {
		return document.Span{}, false, nil
	}
	for _, p := range paras {
		if !rng.Contains(p.Index) {
			continue
		}
		raw := strings.Index(strings.ToLower(p.Text), needle)
		if raw < 0 {
			continue
		}
		start, end := raw, raw+len(needle)
		// Narrowed re-search around the raw hit.
		lo := max(0, start-contextWindow)
		hi := min(len(p.Text), end+contextWindow)
		window := p.Text[lo:hi]
		if at := strings.Index(strings.ToLower(window), needle); at >= 0 {
			start, end = lo+at, lo+at+len(needle)
		}
		return document.Span{Para: p.Index, Start: start, End: end}, true, nil
	}
	return document.Span{}, false, nil
}

// rankCandidates asks the Ranker to order the range's paragraphs by
// relevance and builds a context snippet around each returned chunk.
// Out-of-bounds indices from the collaborator are dropped.
func (r *Resolver) rankCandidates(ctx context.Context, model document.Model, rng document.Range, query string) ([]Candidate, error) {
	paras, err := model.Paragraphs(ctx)
	if err != nil {
		return nil, err
	}
	var chunks []string
	var indexOf []int
	for _, p := range paras {
		if rng.Contains(p.Index) {
			chunks = append(chunks, p.Text)
			indexOf = append(indexOf, p.Index)
		}
	}
	if len(chunks) == 0 {
		return nil, nil
	}
	ranked, err := r.Ranker.Rank(ctx, query, chunks)
	if err != nil {
		return nil, fmt.Errorf("ranker failed: %w", err)
	}
	radius := r.ContextRadius
	if radius <= 0 {
		radius = DefaultContextRadius
	}
	var out []Candidate
	for _, i := range ranked {
		if i < 0 || i >= len(chunks) {
			continue
		}
		snippet := chunks[i]
		if len(snippet) > radius {
			snippet = snippet[:radius]
		}
		out = append(out, Candidate{Paragraph: indexOf[i], Snippet: snippet})
	}
	return out, nil
}

func (r *Resolver) rangePreview(ctx context.Context, model document.Model, rng document.Range) string {
	paras, err := model.Paragraphs(ctx)
	if err != nil {
		return ""
	}
	budget := r.PreviewChars
	if budget <= 0 {
		budget = DefaultPreviewChars
	}
	var b strings.Builder
	for _, p := range paras {
		if !rng.Contains(p.Index) {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(p.Text)
		if b.Len() >= budget {
			return b.String()[:budget] + "…"
		}
	}
	return b.String()
}

func normalizeWhitespace(q string) string {
	return strings.Join(strings.Fields(q), " ")
}

func lastWords(q string) string {
	words := strings.Fields(q)
	if len(words) <= 3 {
		return ""
	}
	return strings.Join(words[len(words)-3:], " ")
}

func firstWords(q string) string {
	words := strings.Fields(q)
	if len(words) <= 3 {
		return ""
	}
	return strings.Join(words[:3], " ")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
