package document

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// run is a stretch of uniformly styled text inside a paragraph.
type run struct {
	text  string
	style TextStyle
}

type memParagraph struct {
	label string
	style string
	runs  []run
}

func (p *memParagraph) text() string {
	var b strings.Builder
	for _, r := range p.runs {
		b.WriteString(r.text)
	}
	return b.String()
}

// splice replaces the byte range [start,end) with the replacement runs,
// splitting existing runs at the boundaries. Adjacent runs with equal
// styles are merged and empty runs dropped.
func (p *memParagraph) splice(start, end int, repl []run) {
	var prefix, suffix []run
	pos := 0
	for _, r := range p.runs {
		next := pos + len(r.text)
		if pos < start {
			hi := min(start, next) - pos
			prefix = append(prefix, run{text: r.text[:hi], style: r.style})
		}
		if next > end {
			lo := max(end, pos) - pos
			suffix = append(suffix, run{text: r.text[lo:], style: r.style})
		}
		pos = next
	}
	var merged []run
	merged = appendRuns(merged, prefix...)
	merged = appendRuns(merged, repl...)
	merged = appendRuns(merged, suffix...)
	p.runs = merged
}

// appendRuns appends runs, merging adjacent equal styles and skipping
// empty text.
func appendRuns(dst []run, rs ...run) []run {
	for _, r := range rs {
		if r.text == "" {
			continue
		}
		if n := len(dst); n > 0 && dst[n-1].style == r.style {
			dst[n-1].text += r.text
			continue
		}
		dst = append(dst, r)
	}
	return dst
}

// StyledRun is an exported view of one uniformly styled stretch of text,
// used by the terminal renderer.
type StyledRun struct {
	Text  string
	Style TextStyle
}

// Memory is an in-memory Model implementation backing the CLI, the MCP
// server, and the tests. It is not safe for concurrent use; the engine
// sequences all calls.
type Memory struct {
	paragraphs []*memParagraph
}

// New returns an empty in-memory document.
func New() *Memory {
	return &Memory{}
}

// FromText builds a document from plain text, one paragraph per
// non-empty line. Leading "N.N " prefixes are not treated as labels;
// use FromParagraphs for labeled fixtures.
func FromText(text string) *Memory {
	m := New()
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		m.paragraphs = append(m.paragraphs, &memParagraph{runs: []run{{text: line}}})
	}
	return m
}

// FromParagraphs builds a document from paragraph snapshots. Index fields
// are ignored; order is positional.
func FromParagraphs(paras []Paragraph) *Memory {
	m := New()
	for _, p := range paras {
		m.paragraphs = append(m.paragraphs, &memParagraph{
			label: p.ListLabel,
			style: p.Style,
			runs:  []run{{text: p.Text}},
		})
	}
	return m
}

func (m *Memory) para(index int) (*memParagraph, error) {
	if index < 0 || index >= len(m.paragraphs) {
		return nil, fmt.Errorf("paragraph index %d out of range (have %d)", index, len(m.paragraphs))
	}
	return m.paragraphs[index], nil
}

func (m *Memory) checkSpan(span Span) (*memParagraph, error) {
	p, err := m.para(span.Para)
	if err != nil {
		return nil, err
	}
	if span.Start < 0 || span.End < span.Start || span.End > len(p.text()) {
		return nil, fmt.Errorf("span [%d,%d) out of range in paragraph %d", span.Start, span.End, span.Para)
	}
	return p, nil
}

// Len returns the paragraph count.
func (m *Memory) Len() int { return len(m.paragraphs) }

// Paragraphs implements Model.
func (m *Memory) Paragraphs(ctx context.Context) ([]Paragraph, error) {
	out := make([]Paragraph, len(m.paragraphs))
	for i, p := range m.paragraphs {
		out[i] = Paragraph{Index: i, Text: p.text(), ListLabel: p.label, Style: p.style}
	}
	return out, nil
}

// StyledRuns returns the styled runs of every paragraph, for rendering.
func (m *Memory) StyledRuns(ctx context.Context) ([][]StyledRun, error) {
	out := make([][]StyledRun, len(m.paragraphs))
	for i, p := range m.paragraphs {
		for _, r := range p.runs {
			out[i] = append(out[i], StyledRun{Text: r.text, Style: r.style})
		}
	}
	return out, nil
}

func (m *Memory) clampRange(rng Range) Range {
	if rng.Start < 0 {
		rng.Start = 0
	}
	if rng.End >= len(m.paragraphs) || rng.End < 0 {
		rng.End = len(m.paragraphs) - 1
	}
	return rng
}

// SearchInRange implements Model. Matches never cross paragraph
// boundaries.
func (m *Memory) SearchInRange(ctx context.Context, rng Range, text string, opts SearchOptions) ([]Span, error) {
	if text == "" {
		return nil, nil
	}
	rng = m.clampRange(rng)
	needle := text
	if !opts.MatchCase {
		needle = strings.ToLower(needle)
	}
	var spans []Span
	for i := rng.Start; i <= rng.End && i < len(m.paragraphs); i++ {
		hay := m.paragraphs[i].text()
		cmp := hay
		if !opts.MatchCase {
			cmp = strings.ToLower(cmp)
		}
		from := 0
		for {
			at := strings.Index(cmp[from:], needle)
			if at < 0 {
				break
			}
			start := from + at
			end := start + len(needle)
			if !opts.MatchWholeWord || wholeWordAt(hay, start, end) {
				spans = append(spans, Span{Para: i, Start: start, End: end})
			}
			from = start + 1
		}
	}
	return spans, nil
}

func wholeWordAt(text string, start, end int) bool {
	boundary := func(b byte) bool {
		return !unicode.IsLetter(rune(b)) && !unicode.IsDigit(rune(b))
	}
	if start > 0 && !boundary(text[start-1]) {
		return false
	}
	if end < len(text) && !boundary(text[end]) {
		return false
	}
	return true
}

// SpanText implements Model.
func (m *Memory) SpanText(ctx context.Context, span Span) (string, error) {
	p, err := m.checkSpan(span)
	if err != nil {
		return "", err
	}
	return p.text()[span.Start:span.End], nil
}

// SpanStyle implements Model.
func (m *Memory) SpanStyle(ctx context.Context, span Span) (TextStyle, error) {
	p, err := m.checkSpan(span)
	if err != nil {
		return TextStyle{}, err
	}
	pos := 0
	for _, r := range p.runs {
		next := pos + len(r.text)
		if span.Start < next {
			return r.style, nil
		}
		pos = next
	}
	return TextStyle{}, nil
}

// FindStyled implements Model. It matches at run granularity: proposal
// rendering always produces one run per styled span, so trimmed run text
// equality is exactly the double check the accept/reject path needs.
func (m *Memory) FindStyled(ctx context.Context, rng Range, text string, style TextStyle) (Span, bool, error) {
	rng = m.clampRange(rng)
	want := strings.TrimSpace(text)
	for i := rng.Start; i <= rng.End && i < len(m.paragraphs); i++ {
		pos := 0
		for _, r := range m.paragraphs[i].runs {
			if r.style == style && strings.TrimSpace(r.text) == want {
				return Span{Para: i, Start: pos, End: pos + len(r.text)}, true, nil
			}
			pos += len(r.text)
		}
	}
	return Span{}, false, nil
}

// ReplaceSpan implements Model.
func (m *Memory) ReplaceSpan(ctx context.Context, span Span, text string) (Span, error) {
	p, err := m.checkSpan(span)
	if err != nil {
		return Span{}, err
	}
	p.splice(span.Start, span.End, []run{{text: text}})
	return Span{Para: span.Para, Start: span.Start, End: span.Start + len(text)}, nil
}

// InsertSpanAfter implements Model.
func (m *Memory) InsertSpanAfter(ctx context.Context, span Span, text string) (Span, error) {
	p, err := m.checkSpan(span)
	if err != nil {
		return Span{}, err
	}
	p.splice(span.End, span.End, []run{{text: text}})
	return Span{Para: span.Para, Start: span.End, End: span.End + len(text)}, nil
}

// DeleteSpan implements Model.
func (m *Memory) DeleteSpan(ctx context.Context, span Span) error {
	p, err := m.checkSpan(span)
	if err != nil {
		return err
	}
	p.splice(span.Start, span.End, nil)
	return nil
}

// SetSpanStyle implements Model. The covered text collapses into a single
// run carrying the style.
func (m *Memory) SetSpanStyle(ctx context.Context, span Span, style TextStyle) error {
	p, err := m.checkSpan(span)
	if err != nil {
		return err
	}
	covered := p.text()[span.Start:span.End]
	p.splice(span.Start, span.End, []run{{text: covered, style: style}})
	return nil
}

// ReplaceParagraphText implements Model. The list label survives.
func (m *Memory) ReplaceParagraphText(ctx context.Context, index int, text string) error {
	p, err := m.para(index)
	if err != nil {
		return err
	}
	p.runs = []run{{text: text}}
	return nil
}

// InsertParagraphAfter implements Model.
func (m *Memory) InsertParagraphAfter(ctx context.Context, index int, text string) (int, error) {
	if index < -1 || index >= len(m.paragraphs) {
		return 0, fmt.Errorf("paragraph index %d out of range (have %d)", index, len(m.paragraphs))
	}
	at := index + 1
	p := &memParagraph{runs: []run{{text: text}}}
	m.paragraphs = append(m.paragraphs, nil)
	copy(m.paragraphs[at+1:], m.paragraphs[at:])
	m.paragraphs[at] = p
	return at, nil
}

// DeleteParagraph implements Model.
func (m *Memory) DeleteParagraph(ctx context.Context, index int) error {
	if _, err := m.para(index); err != nil {
		return err
	}
	m.paragraphs = append(m.paragraphs[:index], m.paragraphs[index+1:]...)
	return nil
}
