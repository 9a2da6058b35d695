// Package diff renders pending changes as a non-destructive visual diff
// (proposed-new vs. struck-through-old) inside the document, and later
// collapses the diff when a change is accepted or rejected.
package diff

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ibzarain/redline/internal/document"
	"github.com/ibzarain/redline/internal/ledger"
)

// Default span colors. Overridable via config.
const (
	DefaultProposedColor = "green"
	DefaultRemovedColor  = "red"
)

// Proposer renders and resolves visual diffs against one document model.
// It implements ledger.Applier.
type Proposer struct {
	Model         document.Model
	ProposedColor string
	RemovedColor  string
	Logger        *log.Logger
}

// New creates a proposer with the default colors.
func New(model document.Model) *Proposer {
	return &Proposer{
		Model:         model,
		ProposedColor: DefaultProposedColor,
		RemovedColor:  DefaultRemovedColor,
	}
}

func (p *Proposer) proposedStyle() document.TextStyle {
	return document.TextStyle{Color: p.ProposedColor}
}

func (p *Proposer) removedStyle() document.TextStyle {
	return document.TextStyle{Color: p.RemovedColor, Strikethrough: true}
}

func (p *Proposer) logf(format string, args ...any) {
	if p.Logger != nil {
		p.Logger.Warn(fmt.Sprintf(format, args...))
	}
}

// Render applies the visual diff for a change at the resolved span.
// Rendering is best-effort: failures are logged and returned as warnings,
// never as errors, because the underlying mutation already happened or is
// independently valid. A failed render must not roll back the edit.
func (p *Proposer) Render(ctx context.Context, c *ledger.Change, at document.Span) []string {
	var warnings []string
	warn := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		p.logf("render: %s", msg)
		warnings = append(warnings, msg)
	}

	var err error
	switch c.Kind {
	case ledger.KindEdit:
		if c.TargetParagraph >= 0 && c.TargetEndParagraph > c.TargetParagraph {
			err = p.renderMultiEdit(ctx, c)
		} else {
			err = p.renderEdit(ctx, c, at)
		}
	case ledger.KindInsert:
		err = p.renderInsert(ctx, c)
	case ledger.KindDelete:
		err = p.Model.SetSpanStyle(ctx, at, p.removedStyle())
	case ledger.KindFormat:
		err = p.Model.SetSpanStyle(ctx, at, c.Style)
	default:
		err = fmt.Errorf("unknown change kind %q", c.Kind)
	}

	if err != nil {
		warn("change %s (%s) not visualized: %v", c.ID, c.Kind, err)
		c.Warnings = append(c.Warnings, warnings...)
		return warnings
	}
	c.Rendered = true
	return nil
}

// renderEdit handles the single-paragraph case: the located span becomes
// the proposed new text, with the old text struck through right after it
// in the same paragraph flow.
func (p *Proposer) renderEdit(ctx context.Context, c *ledger.Change, at document.Span) error {
	newSpan, err := p.Model.ReplaceSpan(ctx, at, c.NewText)
	if err != nil {
		return err
	}
	if err := p.Model.SetSpanStyle(ctx, newSpan, p.proposedStyle()); err != nil {
		return err
	}
	oldSpan, err := p.Model.InsertSpanAfter(ctx, newSpan, "\n"+c.OldText)
	if err != nil {
		return err
	}
	return p.Model.SetSpanStyle(ctx, oldSpan, p.removedStyle())
}

// renderMultiEdit rewrites an existing paragraph range in place so list
// numbering is preserved. Each paragraph keeps the green-new plus
// red-strikethrough-old layout; new lines beyond the range fold into the
// last paragraph.
func (p *Proposer) renderMultiEdit(ctx context.Context, c *ledger.Change) error {
	paras, err := p.Model.Paragraphs(ctx)
	if err != nil {
		return err
	}
	start, end := c.TargetParagraph, c.TargetEndParagraph
	if start < 0 || end >= len(paras) {
		return fmt.Errorf("paragraph range %d..%d out of bounds", start, end)
	}

	newSegs := newSegments(c)
	for i := 0; i < len(newSegs); i++ {
		index := start + i
		oldLine := paras[index].Text
		newLine := newSegs[i]

		if newLine == "" {
			// Nothing proposed for this paragraph: strike the whole line.
			span := document.Span{Para: index, Start: 0, End: len(oldLine)}
			if err := p.Model.SetSpanStyle(ctx, span, p.removedStyle()); err != nil {
				return err
			}
			continue
		}

		if err := p.Model.ReplaceParagraphText(ctx, index, newLine); err != nil {
			return err
		}
		newSpan := document.Span{Para: index, Start: 0, End: len(newLine)}
		if err := p.Model.SetSpanStyle(ctx, newSpan, p.proposedStyle()); err != nil {
			return err
		}
		oldSpan, err := p.Model.InsertSpanAfter(ctx, newSpan, "\n"+oldLine)
		if err != nil {
			return err
		}
		if err := p.Model.SetSpanStyle(ctx, oldSpan, p.removedStyle()); err != nil {
			return err
		}
	}
	return nil
}

// renderInsert colors text that was already written into the document.
// The insertion is located by exact text, disambiguated by proximity to
// the anchor paragraph when the same text occurs more than once.
func (p *Proposer) renderInsert(ctx context.Context, c *ledger.Change) error {
	rng, err := p.fullRange(ctx)
	if err != nil {
		return err
	}
	spans, err := p.Model.SearchInRange(ctx, rng, c.NewText, document.SearchOptions{MatchCase: true})
	if err != nil {
		return err
	}
	if len(spans) == 0 {
		return fmt.Errorf("inserted text not found")
	}
	span := spans[0]
	if c.TargetParagraph >= 0 {
		best := -1
		for _, s := range spans {
			d := s.Para - c.TargetParagraph
			if d < 0 {
				d = -d
			}
			if best < 0 || d < best {
				best = d
				span = s
			}
		}
	}
	style, err := p.Model.SpanStyle(ctx, span)
	if err != nil {
		return err
	}
	if style == p.proposedStyle() {
		return nil
	}
	return p.Model.SetSpanStyle(ctx, span, p.proposedStyle())
}

// Accept implements ledger.Applier: the removed span goes away entirely
// and the proposed span loses its color, leaving plain committed text.
func (p *Proposer) Accept(ctx context.Context, c *ledger.Change) error {
	switch c.Kind {
	case ledger.KindEdit:
		newSegs, oldSegs := editSegments(c)
		for _, oldLine := range oldSegs {
			if err := p.dropStyled(ctx, oldLine, p.removedStyle(), true); err != nil {
				return fmt.Errorf("accept %s: %w", c.ID, err)
			}
		}
		for _, newLine := range newSegs {
			if newLine == "" {
				continue
			}
			if err := p.clearStyled(ctx, newLine, p.proposedStyle()); err != nil {
				return fmt.Errorf("accept %s: %w", c.ID, err)
			}
		}
		return nil
	case ledger.KindInsert:
		if err := p.clearStyled(ctx, c.NewText, p.proposedStyle()); err != nil {
			return fmt.Errorf("accept %s: %w", c.ID, err)
		}
		return nil
	case ledger.KindDelete:
		if err := p.dropStyled(ctx, c.OldText, p.removedStyle(), true); err != nil {
			return fmt.Errorf("accept %s: %w", c.ID, err)
		}
		return nil
	case ledger.KindFormat:
		// The formatting is the change; accepting keeps it.
		return nil
	}
	return fmt.Errorf("unknown change kind %q", c.Kind)
}

// Reject implements ledger.Applier: the proposed span is deleted and the
// removed span is restored as plain text.
func (p *Proposer) Reject(ctx context.Context, c *ledger.Change) error {
	switch c.Kind {
	case ledger.KindEdit:
		newSegs, oldSegs := editSegments(c)
		for _, newLine := range newSegs {
			if newLine == "" {
				continue
			}
			if err := p.dropStyled(ctx, newLine, p.proposedStyle(), false); err != nil {
				return fmt.Errorf("reject %s: %w", c.ID, err)
			}
		}
		for _, oldLine := range oldSegs {
			if err := p.restoreStyled(ctx, oldLine, p.removedStyle()); err != nil {
				return fmt.Errorf("reject %s: %w", c.ID, err)
			}
		}
		return nil
	case ledger.KindInsert:
		if err := p.dropStyled(ctx, c.NewText, p.proposedStyle(), true); err != nil {
			return fmt.Errorf("reject %s: %w", c.ID, err)
		}
		return nil
	case ledger.KindDelete:
		if err := p.restoreStyled(ctx, c.OldText, p.removedStyle()); err != nil {
			return fmt.Errorf("reject %s: %w", c.ID, err)
		}
		return nil
	case ledger.KindFormat:
		if err := p.clearAnyStyled(ctx, c.SearchText, c.Style); err != nil {
			return fmt.Errorf("reject %s: %w", c.ID, err)
		}
		return nil
	}
	return fmt.Errorf("unknown change kind %q", c.Kind)
}

func (p *Proposer) fullRange(ctx context.Context) (document.Range, error) {
	paras, err := p.Model.Paragraphs(ctx)
	if err != nil {
		return document.Range{}, err
	}
	return document.Range{Start: 0, End: len(paras) - 1}, nil
}

// find locates a styled span by exact trimmed-text equality plus the
// expected style markers. The double check prevents touching unrelated
// text that shares the same words elsewhere in the document.
func (p *Proposer) find(ctx context.Context, text string, style document.TextStyle) (document.Span, error) {
	rng, err := p.fullRange(ctx)
	if err != nil {
		return document.Span{}, err
	}
	span, ok, err := p.Model.FindStyled(ctx, rng, text, style)
	if err != nil {
		return document.Span{}, err
	}
	if !ok {
		return document.Span{}, fmt.Errorf("no %q span with expected style (was the diff rendered?)", strings.TrimSpace(text))
	}
	return span, nil
}

// dropStyled deletes the located span. With dropParagraph set, a
// paragraph left empty by the deletion is removed too.
func (p *Proposer) dropStyled(ctx context.Context, text string, style document.TextStyle, dropParagraph bool) error {
	span, err := p.find(ctx, text, style)
	if err != nil {
		return err
	}
	if err := p.Model.DeleteSpan(ctx, span); err != nil {
		return err
	}
	if !dropParagraph {
		return nil
	}
	paras, err := p.Model.Paragraphs(ctx)
	if err != nil {
		return err
	}
	if span.Para < len(paras) && strings.TrimSpace(paras[span.Para].Text) == "" {
		return p.Model.DeleteParagraph(ctx, span.Para)
	}
	return nil
}

// clearStyled removes the style from the located span, keeping its text.
func (p *Proposer) clearStyled(ctx context.Context, text string, style document.TextStyle) error {
	span, err := p.find(ctx, text, style)
	if err != nil {
		return err
	}
	return p.Model.SetSpanStyle(ctx, span, document.TextStyle{})
}

// restoreStyled turns a struck-through span back into plain text,
// stripping the separator newline the renderer prepended.
func (p *Proposer) restoreStyled(ctx context.Context, text string, style document.TextStyle) error {
	span, err := p.find(ctx, text, style)
	if err != nil {
		return err
	}
	current, err := p.Model.SpanText(ctx, span)
	if err != nil {
		return err
	}
	restored := strings.TrimPrefix(current, "\n")
	_, err = p.Model.ReplaceSpan(ctx, span, restored)
	return err
}

// editSegments returns the per-span texts an Edit change rendered as
// green and red runs. Single-paragraph edits have exactly one of each;
// multi-paragraph edits pair one segment per paragraph in range.
func editSegments(c *ledger.Change) (newSegs, oldSegs []string) {
	if c.TargetParagraph < 0 || c.TargetEndParagraph <= c.TargetParagraph {
		return []string{c.NewText}, []string{c.OldText}
	}
	return newSegments(c), strings.Split(c.OldText, "\n")
}

// newSegments distributes an Edit's new text across the target paragraph
// range the way the renderer lays it out: one line per paragraph, excess
// lines folded into the last one, missing lines left empty.
func newSegments(c *ledger.Change) []string {
	count := c.TargetEndParagraph - c.TargetParagraph + 1
	lines := strings.Split(c.NewText, "\n")
	segs := make([]string, count)
	for i := 0; i < count; i++ {
		switch {
		case i == count-1 && len(lines) > count:
			segs[i] = strings.Join(lines[i:], "\n")
		case i < len(lines):
			segs[i] = lines[i]
		}
	}
	return segs
}

// clearAnyStyled clears a custom style applied by a Format change.
func (p *Proposer) clearAnyStyled(ctx context.Context, text string, style document.TextStyle) error {
	span, err := p.find(ctx, text, style)
	if err != nil {
		return err
	}
	return p.Model.SetSpanStyle(ctx, span, document.TextStyle{})
}
