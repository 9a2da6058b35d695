// Package engine ties the locator, guard, resolver, diff, and ledger
// together into one editing session: the surface the orchestrating agent
// layer drives.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ibzarain/redline/internal/article"
	"github.com/ibzarain/redline/internal/config"
	"github.com/ibzarain/redline/internal/diff"
	"github.com/ibzarain/redline/internal/document"
	"github.com/ibzarain/redline/internal/guard"
	"github.com/ibzarain/redline/internal/instruction"
	"github.com/ibzarain/redline/internal/ledger"
	"github.com/ibzarain/redline/internal/search"
)

// Result is the structured outcome of every read and write operation.
// Failures are ordinary results, never panics or propagated errors: the
// calling agent self-corrects from Error plus Data.
type Result struct {
	Success  bool     `json:"success"`
	Data     any      `json:"data,omitempty"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func ok(data any, warnings ...string) Result {
	return Result{Success: true, Data: data, Warnings: warnings}
}

func fail(format string, args ...any) Result {
	return Result{Error: fmt.Sprintf(format, args...)}
}

// NotFoundData accompanies a failed resolution so the caller can see
// what was tried without dumping the whole document.
type NotFoundData struct {
	Query      string   `json:"query"`
	Attempted  []string `json:"attempted"`
	Preview    string   `json:"preview,omitempty"`
	Candidates []string `json:"candidates,omitempty"`
}

func failNotFound(nf *search.NotFoundError) Result {
	data := NotFoundData{
		Query:     nf.Query,
		Attempted: nf.Attempted,
		Preview:   nf.Preview,
	}
	for _, c := range nf.Candidates {
		data.Candidates = append(data.Candidates, c.Snippet)
	}
	return Result{Error: nf.Error(), Data: data}
}

// ChangeSummary is the outward view of one tracked change.
type ChangeSummary struct {
	ID       string   `json:"id"`
	Kind     string   `json:"kind"`
	State    string   `json:"state"`
	Preview  string   `json:"preview"`
	Rendered bool     `json:"rendered"`
	Warnings []string `json:"warnings,omitempty"`
}

func summarize(c *ledger.Change) ChangeSummary {
	return ChangeSummary{
		ID:       c.ID,
		Kind:     string(c.Kind),
		State:    string(c.State),
		Preview:  diff.ChangePreview(string(c.Kind), c.OldText, c.NewText),
		Rendered: c.Rendered,
		Warnings: c.Warnings,
	}
}

// Session is one logical editing session over one document. It is the
// single mutable context object: no global trackers. All operations are
// sequenced; the session never issues concurrent document calls.
type Session struct {
	model    document.Model
	resolver *search.Resolver
	proposer *diff.Proposer
	ledger   *ledger.Ledger
	guard    *guard.Guard
	boundary *article.Boundary
	logger   *log.Logger
}

// New creates a session over the model using the given configuration.
func New(model document.Model, cfg config.Config, logger *log.Logger) *Session {
	proposer := &diff.Proposer{
		Model:         model,
		ProposedColor: cfg.Diff.ProposedColor,
		RemovedColor:  cfg.Diff.RemovedColor,
		Logger:        logger,
	}
	return &Session{
		model: model,
		resolver: &search.Resolver{
			Ranker:        search.KeywordRanker{},
			ContextRadius: cfg.Search.ContextRadius,
			PreviewChars:  cfg.Search.PreviewChars,
		},
		proposer: proposer,
		ledger:   ledger.New(proposer),
		guard:    guard.New(nil),
		logger:   logger,
	}
}

// Ledger exposes the session's change ledger.
func (s *Session) Ledger() *ledger.Ledger { return s.ledger }

// Model exposes the session's document model.
func (s *Session) Model() document.Model { return s.model }

// BeginInstruction starts processing a new instruction: the allow-list
// is extracted fresh and all guard state is reset. Article boundaries
// never survive an instruction.
func (s *Session) BeginInstruction(text string) Result {
	tokens := instruction.ExtractTokens(text)
	s.guard = guard.New(tokens)
	s.boundary = nil
	return ok(map[string]any{"allowed_tokens": len(tokens)})
}

// LocateArticle bounds the working range to the named article. A missing
// article is a normal failure result, not a fault.
func (s *Session) LocateArticle(ctx context.Context, name string) Result {
	b, found, err := article.Locate(ctx, s.model, name)
	if err != nil {
		return fail("locate failed: %v", err)
	}
	if !found {
		return fail("article %q not found", name)
	}
	s.boundary = &b
	return ok(map[string]any{
		"start_paragraph": b.StartParagraph,
		"end_paragraph":   b.EndParagraph,
		"content":         b.Content,
	})
}

// workingRange returns the current article's range, or the whole
// document when no article has been located.
func (s *Session) workingRange(ctx context.Context) (document.Range, error) {
	if s.boundary != nil {
		return s.boundary.Range(), nil
	}
	paras, err := s.model.Paragraphs(ctx)
	if err != nil {
		return document.Range{}, err
	}
	return document.Range{Start: 0, End: len(paras) - 1}, nil
}

// ReadData is the payload of a successful read.
type ReadData struct {
	Text      string `json:"text"`
	Paragraph int    `json:"paragraph"`
}

func isWildcard(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	return q == "*" || q == "all"
}

// ReadSection resolves a query inside the working range and returns its
// text. Every successful read arms the guard for exactly one mutation.
func (s *Session) ReadSection(ctx context.Context, query string) Result {
	if strings.TrimSpace(query) == "" {
		return fail("read query must not be empty")
	}
	if !s.guard.CheckRead(query) {
		return fail("query %q is not grounded in the current instruction; search with a term the instruction actually uses", query)
	}

	rng, err := s.workingRange(ctx)
	if err != nil {
		return fail("cannot read document: %v", err)
	}

	if isWildcard(query) {
		// Only reachable with an empty allow-list; the guard rejects
		// wildcards once tokens exist.
		content, err := s.rangeText(ctx, rng)
		if err != nil {
			return fail("cannot read document: %v", err)
		}
		s.guard.MarkRead(query)
		return ok(ReadData{Text: content, Paragraph: rng.Start})
	}

	span, err := s.resolveLocator(ctx, rng, query)
	if err != nil {
		var nf *search.NotFoundError
		if errors.As(err, &nf) {
			return failNotFound(nf)
		}
		return fail("read failed: %v", err)
	}

	text, err := s.model.SpanText(ctx, span)
	if err != nil {
		return fail("read failed: %v", err)
	}
	s.guard.MarkRead(query)
	return ok(ReadData{Text: text, Paragraph: span.Para})
}

// EditText replaces the text located by locator with newText inside the
// working range, rendered as a pending visual diff. Only the first match
// is edited when the old text occurs more than once.
func (s *Session) EditText(ctx context.Context, locator, newText string) Result {
	if strings.TrimSpace(locator) == "" || newText == "" {
		return fail("edit requires a locator and replacement text")
	}
	if err := s.guard.CheckMutate("edit_text", locator); err != nil {
		return fail("%v", err)
	}

	rng, err := s.workingRange(ctx)
	if err != nil {
		return fail("cannot read document: %v", err)
	}

	// Phase one: resolve and capture against the live document.
	span, err := s.resolveLocator(ctx, rng, locator)
	if err != nil {
		var nf *search.NotFoundError
		if errors.As(err, &nf) {
			return failNotFound(nf)
		}
		return fail("edit failed: %v", err)
	}
	oldText, err := s.model.SpanText(ctx, span)
	if err != nil {
		return fail("edit failed: %v", err)
	}

	// Phase two: record and render; never interleaved with phase one.
	c := &ledger.Change{
		Kind:               ledger.KindEdit,
		OldText:            oldText,
		NewText:            newText,
		SearchText:         locator,
		Scope:              rng,
		TargetParagraph:    -1,
		TargetEndParagraph: -1,
	}
	if _, err := s.ledger.Add(c); err != nil {
		return fail("edit failed: %v", err)
	}
	warnings := s.proposer.Render(ctx, c, span)
	s.guard.MarkMutated()
	return ok(summarize(c), warnings...)
}

// EditRange replaces a numbered-list paragraph span in place, preserving
// list numbering. fromLabel and toLabel are numbered-paragraph labels.
func (s *Session) EditRange(ctx context.Context, fromLabel, toLabel, newText string) Result {
	if newText == "" {
		return fail("edit requires replacement text")
	}
	if err := s.guard.CheckMutate("edit_range", fromLabel); err != nil {
		return fail("%v", err)
	}

	rng, err := s.workingRange(ctx)
	if err != nil {
		return fail("cannot read document: %v", err)
	}

	fromSpan, err := s.resolver.ResolveLabel(ctx, s.model, rng, fromLabel)
	if err != nil {
		var nf *search.NotFoundError
		if errors.As(err, &nf) {
			return failNotFound(nf)
		}
		return fail("edit failed: %v", err)
	}
	toSpan := fromSpan
	if toLabel != "" && toLabel != fromLabel {
		toSpan, err = s.resolver.ResolveLabel(ctx, s.model, rng, toLabel)
		if err != nil {
			var nf *search.NotFoundError
			if errors.As(err, &nf) {
				return failNotFound(nf)
			}
			return fail("edit failed: %v", err)
		}
	}
	if toSpan.Para < fromSpan.Para {
		return fail("invalid range: %q comes before %q", toLabel, fromLabel)
	}

	oldText, err := s.rangeText(ctx, document.Range{Start: fromSpan.Para, End: toSpan.Para})
	if err != nil {
		return fail("edit failed: %v", err)
	}

	c := &ledger.Change{
		Kind:               ledger.KindEdit,
		OldText:            oldText,
		NewText:            newText,
		SearchText:         fromLabel,
		Scope:              rng,
		TargetParagraph:    fromSpan.Para,
		TargetEndParagraph: toSpan.Para,
	}
	if _, err := s.ledger.Add(c); err != nil {
		return fail("edit failed: %v", err)
	}
	warnings := s.proposer.Render(ctx, c, fromSpan)
	s.guard.MarkMutated()
	return ok(summarize(c), warnings...)
}

// InsertText writes a new paragraph after the located anchor. The insert
// mutates eagerly; the diff only marks the result for acceptance.
func (s *Session) InsertText(ctx context.Context, afterLocator, text string) Result {
	if strings.TrimSpace(afterLocator) == "" || text == "" {
		return fail("insert requires an anchor locator and text")
	}
	if err := s.guard.CheckMutate("insert_text", afterLocator); err != nil {
		return fail("%v", err)
	}

	rng, err := s.workingRange(ctx)
	if err != nil {
		return fail("cannot read document: %v", err)
	}

	span, err := s.resolveLocator(ctx, rng, afterLocator)
	if err != nil {
		var nf *search.NotFoundError
		if errors.As(err, &nf) {
			return failNotFound(nf)
		}
		return fail("insert failed: %v", err)
	}

	index, err := s.model.InsertParagraphAfter(ctx, span.Para, text)
	if err != nil {
		return fail("insert failed: %v", err)
	}

	c := &ledger.Change{
		Kind:               ledger.KindInsert,
		NewText:            text,
		SearchText:         afterLocator,
		Scope:              rng,
		TargetParagraph:    index,
		TargetEndParagraph: -1,
	}
	if _, err := s.ledger.Add(c); err != nil {
		return fail("insert failed: %v", err)
	}
	warnings := s.proposer.Render(ctx, c, document.Span{})
	s.guard.MarkMutated()
	return ok(summarize(c), warnings...)
}

// DeleteText marks the located text for deletion. Nothing leaves the
// document until the change is accepted.
func (s *Session) DeleteText(ctx context.Context, locator string) Result {
	if strings.TrimSpace(locator) == "" {
		return fail("delete requires a locator")
	}
	if err := s.guard.CheckMutate("delete_text", locator); err != nil {
		return fail("%v", err)
	}

	rng, err := s.workingRange(ctx)
	if err != nil {
		return fail("cannot read document: %v", err)
	}

	span, err := s.resolveLocator(ctx, rng, locator)
	if err != nil {
		var nf *search.NotFoundError
		if errors.As(err, &nf) {
			return failNotFound(nf)
		}
		return fail("delete failed: %v", err)
	}
	oldText, err := s.model.SpanText(ctx, span)
	if err != nil {
		return fail("delete failed: %v", err)
	}

	c := &ledger.Change{
		Kind:               ledger.KindDelete,
		OldText:            oldText,
		SearchText:         locator,
		Scope:              rng,
		TargetParagraph:    -1,
		TargetEndParagraph: -1,
	}
	if _, err := s.ledger.Add(c); err != nil {
		return fail("delete failed: %v", err)
	}
	warnings := s.proposer.Render(ctx, c, span)
	s.guard.MarkMutated()
	return ok(summarize(c), warnings...)
}

// FormatText applies character formatting to the located text as a
// pending change.
func (s *Session) FormatText(ctx context.Context, locator string, style document.TextStyle) Result {
	if strings.TrimSpace(locator) == "" {
		return fail("format requires a locator")
	}
	if style.IsZero() {
		return fail("format requires a style")
	}
	if err := s.guard.CheckMutate("format_text", locator); err != nil {
		return fail("%v", err)
	}

	rng, err := s.workingRange(ctx)
	if err != nil {
		return fail("cannot read document: %v", err)
	}

	span, err := s.resolveLocator(ctx, rng, locator)
	if err != nil {
		var nf *search.NotFoundError
		if errors.As(err, &nf) {
			return failNotFound(nf)
		}
		return fail("format failed: %v", err)
	}
	text, err := s.model.SpanText(ctx, span)
	if err != nil {
		return fail("format failed: %v", err)
	}

	c := &ledger.Change{
		Kind:               ledger.KindFormat,
		SearchText:         text,
		Style:              style,
		Scope:              rng,
		TargetParagraph:    -1,
		TargetEndParagraph: -1,
	}
	if _, err := s.ledger.Add(c); err != nil {
		return fail("format failed: %v", err)
	}
	warnings := s.proposer.Render(ctx, c, span)
	s.guard.MarkMutated()
	return ok(summarize(c), warnings...)
}

// AcceptChange commits one pending change.
func (s *Session) AcceptChange(ctx context.Context, id string) Result {
	if err := s.ledger.Accept(ctx, id); err != nil {
		return fail("%v", err)
	}
	c, _ := s.ledger.Get(id)
	return ok(summarize(c))
}

// RejectChange reverts one pending change.
func (s *Session) RejectChange(ctx context.Context, id string) Result {
	if err := s.ledger.Reject(ctx, id); err != nil {
		return fail("%v", err)
	}
	c, _ := s.ledger.Get(id)
	return ok(summarize(c))
}

// BulkData reports per-change outcomes of a bulk accept or reject.
type BulkData struct {
	Applied int               `json:"applied"`
	Failed  map[string]string `json:"failed,omitempty"`
}

// AcceptAll accepts every pending change in order; individual failures
// are reported, not fatal.
func (s *Session) AcceptAll(ctx context.Context) Result {
	return bulkResult(s.ledger.AcceptAll(ctx))
}

// RejectAll rejects every pending change in order.
func (s *Session) RejectAll(ctx context.Context) Result {
	return bulkResult(s.ledger.RejectAll(ctx))
}

func bulkResult(outcomes []ledger.Outcome) Result {
	data := BulkData{}
	for _, o := range outcomes {
		if o.Err != nil {
			if data.Failed == nil {
				data.Failed = make(map[string]string)
			}
			data.Failed[o.ChangeID] = o.Err.Error()
			continue
		}
		data.Applied++
	}
	return ok(data)
}

// PendingChanges lists the proposed changes in insertion order.
func (s *Session) PendingChanges() Result {
	var out []ChangeSummary
	for _, c := range s.ledger.Pending() {
		out = append(out, summarize(c))
	}
	return ok(out)
}

// resolveLocator dispatches numbered-paragraph labels to label-aware
// resolution and everything else through the cascade.
func (s *Session) resolveLocator(ctx context.Context, rng document.Range, locator string) (document.Span, error) {
	if guard.IsNumberedLabel(locator) {
		return s.resolver.ResolveLabel(ctx, s.model, rng, locator)
	}
	return s.resolver.Resolve(ctx, s.model, rng, locator, document.SearchOptions{})
}

func (s *Session) rangeText(ctx context.Context, rng document.Range) (string, error) {
	paras, err := s.model.Paragraphs(ctx)
	if err != nil {
		return "", err
	}
	var parts []string
	for _, p := range paras {
		if rng.Contains(p.Index) {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n"), nil
}
