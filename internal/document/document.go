// Package document defines the abstract document model the edit engine
// operates on: an ordered sequence of paragraphs with text, optional
// list-numbering labels, and styleable sub-paragraph spans.
package document

import "context"

// Paragraph is a read-only snapshot of one paragraph. Index is positional
// and goes stale the moment a paragraph is inserted or deleted before it.
type Paragraph struct {
	Index     int
	Text      string
	ListLabel string
	Style     string
}

// Range bounds a contiguous run of paragraphs, inclusive on both ends.
type Range struct {
	Start int
	End   int
}

// Contains reports whether the paragraph index falls inside the range.
func (r Range) Contains(index int) bool {
	return index >= r.Start && index <= r.End
}

// Span addresses a region of text inside a single paragraph.
// Start and End are byte offsets into the paragraph text, End exclusive.
type Span struct {
	Para  int
	Start int
	End   int
}

// Len returns the byte length of the span.
func (s Span) Len() int { return s.End - s.Start }

// TextStyle is the character formatting the engine cares about: a named
// color and a strikethrough flag. The zero value means unstyled text.
type TextStyle struct {
	Color         string
	Strikethrough bool
}

// IsZero reports whether the style carries no formatting.
func (t TextStyle) IsZero() bool {
	return t.Color == "" && !t.Strikethrough
}

// SearchOptions control range search behavior.
type SearchOptions struct {
	MatchCase      bool
	MatchWholeWord bool
}

// Model is the document the engine edits. Implementations serialize their
// own mutations; the engine never issues concurrent calls against one
// model. Every method takes a context because real backends sit behind an
// I/O boundary.
type Model interface {
	// Paragraphs returns a snapshot of all paragraphs in order.
	Paragraphs(ctx context.Context) ([]Paragraph, error)

	// SearchInRange finds occurrences of text inside the paragraph range.
	SearchInRange(ctx context.Context, rng Range, text string, opts SearchOptions) ([]Span, error)

	// SpanText returns the current text covered by the span.
	SpanText(ctx context.Context, span Span) (string, error)

	// SpanStyle returns the style of the span. If the span crosses runs
	// with different styles, the style of the first run is returned.
	SpanStyle(ctx context.Context, span Span) (TextStyle, error)

	// FindStyled locates a region inside the range whose trimmed text
	// equals the trimmed target and whose style matches exactly. Used to
	// relocate proposal spans after paragraph indices may have shifted.
	FindStyled(ctx context.Context, rng Range, text string, style TextStyle) (Span, bool, error)

	// ReplaceSpan replaces the span with text and returns the span
	// covering the replacement. The replacement text is unstyled.
	ReplaceSpan(ctx context.Context, span Span, text string) (Span, error)

	// InsertSpanAfter inserts text immediately after the span, inside the
	// same paragraph, and returns the span covering the insertion.
	InsertSpanAfter(ctx context.Context, span Span, text string) (Span, error)

	// DeleteSpan removes the text covered by the span.
	DeleteSpan(ctx context.Context, span Span) error

	// SetSpanStyle applies the style to the span.
	SetSpanStyle(ctx context.Context, span Span, style TextStyle) error

	// ReplaceParagraphText rewrites one paragraph's full text in place,
	// preserving its list label. The paragraph itself is not moved.
	ReplaceParagraphText(ctx context.Context, index int, text string) error

	// InsertParagraphAfter inserts a new unlabeled paragraph after index
	// and returns the new paragraph's index.
	InsertParagraphAfter(ctx context.Context, index int, text string) (int, error)

	// DeleteParagraph removes the paragraph at index.
	DeleteParagraph(ctx context.Context, index int) error
}
