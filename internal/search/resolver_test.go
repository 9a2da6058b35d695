package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ibzarain/redline/internal/document"
)

func testDoc() *document.Memory {
	return document.FromParagraphs([]document.Paragraph{
		{Text: "ARTICLE A-1 DEFINITIONS"},
		{Text: "capitalized terms have the meanings set forth below.", ListLabel: "1.1"},
		{Text: "the term of this agreement shall commence on the effective date.", ListLabel: "1.2"},
		{Text: "Payment Terms:", ListLabel: "1.3"},
	})
}

func fullRange(t *testing.T, m *document.Memory) document.Range {
	t.Helper()
	paras, err := m.Paragraphs(context.Background())
	if err != nil {
		t.Fatalf("Paragraphs: %v", err)
	}
	return document.Range{Start: 0, End: len(paras) - 1}
}

func resolveText(t *testing.T, m *document.Memory, query string) (document.Span, string) {
	t.Helper()
	ctx := context.Background()
	r := &Resolver{}
	span, err := r.Resolve(ctx, m, fullRange(t, m), query, document.SearchOptions{})
	if err != nil {
		t.Fatalf("Resolve(%q): %v", query, err)
	}
	text, err := m.SpanText(ctx, span)
	if err != nil {
		t.Fatalf("SpanText: %v", err)
	}
	return span, text
}

func TestResolveCascade(t *testing.T) {
	m := testDoc()

	tests := []struct {
		name     string
		query    string
		wantPara int
		wantText string
	}{
		{
			name:     "literal",
			query:    "shall commence",
			wantPara: 2,
			wantText: "shall commence",
		},
		{
			name:     "whitespace normalized",
			query:    "of  this \tagreement",
			wantPara: 2,
			wantText: "of this agreement",
		},
		{
			name:     "trailing punctuation stripped",
			query:    "effective date.;",
			wantPara: 2,
			wantText: "effective date",
		},
		{
			name:     "prefix of punctuated heading",
			query:    "Payment Terms",
			wantPara: 3,
			wantText: "Payment Terms",
		},
		{
			name:     "last three words fallback",
			query:    "something wholly unrelated yet ending on the effective date",
			wantPara: 2,
			wantText: "the effective date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			span, text := resolveText(t, m, tt.query)
			if span.Para != tt.wantPara {
				t.Errorf("paragraph = %d, want %d", span.Para, tt.wantPara)
			}
			if text != tt.wantText {
				t.Errorf("resolved %q, want %q", text, tt.wantText)
			}
		})
	}
}

func TestResolveMessyWhitespaceQuery(t *testing.T) {
	m := document.FromText("the parties agree to the terms herein")
	span, text := resolveText(t, m, "  parties   agree  ")
	if span.Para != 0 || text != "parties agree" {
		t.Errorf("got para=%d text=%q", span.Para, text)
	}
}

func TestResolveIdempotent(t *testing.T) {
	m := testDoc()
	first, _ := resolveText(t, m, "shall commence")
	second, _ := resolveText(t, m, "shall commence")
	if first != second {
		t.Errorf("resolution not stable: %+v vs %+v", first, second)
	}
}

func TestResolveFirstMatchWins(t *testing.T) {
	m := document.FromText("the term is defined\nthe term is used again")
	span, _ := resolveText(t, m, "the term")
	if span.Para != 0 {
		t.Errorf("expected first match, got paragraph %d", span.Para)
	}
}

func TestResolveNotFound(t *testing.T) {
	m := testDoc()
	r := &Resolver{PreviewChars: 60}
	_, err := r.Resolve(context.Background(), m, fullRange(t, m), "entirely absent wording", document.SearchOptions{})

	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Query != "entirely absent wording" {
		t.Errorf("query = %q", nf.Query)
	}
	if len(nf.Attempted) == 0 {
		t.Error("attempted variants must be reported")
	}
	if nf.Preview == "" {
		t.Error("preview must be attached")
	}
	if len(nf.Preview) > 60+len("…") {
		t.Errorf("preview exceeds budget: %d chars", len(nf.Preview))
	}
}

func TestResolveRankerFallbackRecovers(t *testing.T) {
	// The cascade misses because of the comma; the ranker points at the
	// right paragraph and the narrowed scan still fails on the comma, so
	// candidates are surfaced instead.
	m := document.FromText("first paragraph about payments\nthe contractor shall perform the services with reasonable care")
	r := &Resolver{Ranker: KeywordRanker{}}
	_, err := r.Resolve(context.Background(), m, document.Range{Start: 0, End: 1}, "contractor performs services, reasonably", document.SearchOptions{})

	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if len(nf.Candidates) == 0 {
		t.Fatal("expected ranked candidates on miss")
	}
	if nf.Candidates[0].Paragraph != 1 {
		t.Errorf("top candidate paragraph = %d, want 1", nf.Candidates[0].Paragraph)
	}
}

func TestResolveLabel(t *testing.T) {
	m := testDoc()
	r := &Resolver{}
	ctx := context.Background()

	span, err := r.ResolveLabel(ctx, m, fullRange(t, m), "1.2")
	if err != nil {
		t.Fatalf("ResolveLabel: %v", err)
	}
	if span.Para != 2 {
		t.Errorf("paragraph = %d, want 2", span.Para)
	}
	text, err := m.SpanText(ctx, span)
	if err != nil {
		t.Fatalf("SpanText: %v", err)
	}
	if !strings.HasPrefix(text, "the term of this") || span.Start != 0 {
		t.Errorf("label hit must span the full paragraph, got %q", text)
	}
}

func TestResolveLabelTextPrefixFallback(t *testing.T) {
	m := document.FromText("4.2 limitation of liability applies here")
	r := &Resolver{}
	span, err := r.ResolveLabel(context.Background(), m, document.Range{Start: 0, End: 0}, "4.2")
	if err != nil {
		t.Fatalf("ResolveLabel: %v", err)
	}
	if span.Para != 0 || span.Start != 0 {
		t.Errorf("span = %+v", span)
	}
}

func TestResolveLabelScopedOut(t *testing.T) {
	m := testDoc()
	r := &Resolver{}
	_, err := r.ResolveLabel(context.Background(), m, document.Range{Start: 0, End: 1}, "1.3")

	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("label outside range must not resolve, got %v", err)
	}
}

func TestCascadeVariantTransforms(t *testing.T) {
	tests := []struct {
		variant string
		in      string
		want    string
	}{
		{"whitespace-normalized", "a  b\tc", "a b c"},
		{"trailing-punctuation-stripped", "clause 4.2.;:", "clause 4.2"},
		{"colon-appended", "Payment Terms", "Payment Terms:"},
		{"last-three-words", "one two three four five", "three four five"},
		{"last-three-words", "one two three", ""},
		{"first-three-words", "one two three four five", "one two three"},
	}
	for _, tt := range tests {
		var fn func(string) string
		for _, v := range cascade {
			if v.name == tt.variant {
				fn = v.transform
			}
		}
		if fn == nil {
			t.Fatalf("variant %q missing from cascade", tt.variant)
		}
		if got := fn(tt.in); got != tt.want {
			t.Errorf("%s(%q) = %q, want %q", tt.variant, tt.in, got, tt.want)
		}
	}
}
