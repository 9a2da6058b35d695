// Package ledger tracks proposed changes for one editing session. The
// ledger is in-memory only; accepted history does not outlive the
// session.
package ledger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/ibzarain/redline/internal/document"
)

// Kind tags the change variant. Each kind has its own required fields,
// validated on Add.
type Kind string

const (
	KindEdit   Kind = "edit"
	KindInsert Kind = "insert"
	KindDelete Kind = "delete"
	KindFormat Kind = "format"
)

// State is the lifecycle position of a change.
type State string

const (
	StateProposed State = "proposed"
	StateAccepted State = "accepted"
	StateRejected State = "rejected"
)

// Change is one proposed edit. Edit and Delete changes are created
// before the document is mutated; Insert changes mutate eagerly and mark
// the result for acceptance.
type Change struct {
	ID         string
	Kind       Kind
	OldText    string
	NewText    string
	SearchText string

	// Style is the target formatting for Format changes.
	Style document.TextStyle

	// Scope is the article-bounded working range the change belongs to.
	Scope document.Range

	// TargetParagraph/TargetEndParagraph bound a multi-paragraph edit.
	// Both are -1 for single-span changes.
	TargetParagraph    int
	TargetEndParagraph int

	State     State
	CreatedAt time.Time

	// Rendered records whether the visual diff was applied. A change
	// that failed to render is still tracked; rendering is best-effort.
	Rendered bool
	Warnings []string
}

// validate checks the per-kind required fields.
func (c *Change) validate() error {
	switch c.Kind {
	case KindEdit:
		if c.OldText == "" || c.NewText == "" {
			return fmt.Errorf("edit change requires old and new text")
		}
	case KindInsert:
		if c.NewText == "" {
			return fmt.Errorf("insert change requires new text")
		}
	case KindDelete:
		if c.OldText == "" {
			return fmt.Errorf("delete change requires the target text")
		}
	case KindFormat:
		if c.SearchText == "" {
			return fmt.Errorf("format change requires search text")
		}
		if c.Style.IsZero() {
			return fmt.Errorf("format change requires a style")
		}
	default:
		return fmt.Errorf("unknown change kind %q", c.Kind)
	}
	return nil
}

// Applier resolves a change's visual diff back into the document. The
// diff package implements it; the ledger never mutates the document
// itself.
type Applier interface {
	Accept(ctx context.Context, c *Change) error
	Reject(ctx context.Context, c *Change) error
}

// Ledger is the ordered collection of change records.
type Ledger struct {
	mu      sync.Mutex
	changes []*Change
	byID    map[string]*Change
	applier Applier
}

// New creates a ledger that delegates document mutation to the applier.
func New(applier Applier) *Ledger {
	return &Ledger{
		byID:    make(map[string]*Change),
		applier: applier,
	}
}

func generateID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Add records a change. The ID, state, and timestamp are assigned here.
func (l *Ledger) Add(c *Change) (string, error) {
	if err := c.validate(); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if c.ID == "" {
		c.ID = generateID()
	}
	c.State = StateProposed
	c.CreatedAt = time.Now().UTC()
	l.changes = append(l.changes, c)
	l.byID[c.ID] = c
	return c.ID, nil
}

// Get returns the change with the given ID.
func (l *Ledger) Get(id string) (*Change, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.byID[id]
	if !ok {
		return nil, fmt.Errorf("change not found: %s", id)
	}
	return c, nil
}

// Pending returns the proposed changes in insertion order.
func (l *Ledger) Pending() []*Change {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*Change
	for _, c := range l.changes {
		if c.State == StateProposed {
			out = append(out, c)
		}
	}
	return out
}

// All returns every change in insertion order.
func (l *Ledger) All() []*Change {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Change(nil), l.changes...)
}

// Clear drops all change records. The document is untouched.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.changes = nil
	l.byID = make(map[string]*Change)
}

// Accept commits one pending change: new text stays, old text goes.
func (l *Ledger) Accept(ctx context.Context, id string) error {
	return l.resolve(ctx, id, StateAccepted)
}

// Reject reverts one pending change: new text goes, old text returns.
func (l *Ledger) Reject(ctx context.Context, id string) error {
	return l.resolve(ctx, id, StateRejected)
}

func (l *Ledger) resolve(ctx context.Context, id string, target State) error {
	l.mu.Lock()
	c, ok := l.byID[id]
	l.mu.Unlock()
	if !ok {
		return fmt.Errorf("change not found: %s", id)
	}
	if c.State != StateProposed {
		return fmt.Errorf("change %s is already %s", id, c.State)
	}

	var err error
	if target == StateAccepted {
		err = l.applier.Accept(ctx, c)
	} else {
		err = l.applier.Reject(ctx, c)
	}
	if err != nil {
		return err
	}

	l.mu.Lock()
	c.State = target
	l.mu.Unlock()
	return nil
}

// Outcome reports one change's result from a bulk operation.
type Outcome struct {
	ChangeID string
	Err      error
}

// AcceptAll accepts every pending change in insertion order. A failure
// on one change does not abort the rest; each outcome is reported
// individually.
func (l *Ledger) AcceptAll(ctx context.Context) []Outcome {
	return l.resolveAll(ctx, StateAccepted)
}

// RejectAll rejects every pending change in insertion order.
func (l *Ledger) RejectAll(ctx context.Context) []Outcome {
	return l.resolveAll(ctx, StateRejected)
}

func (l *Ledger) resolveAll(ctx context.Context, target State) []Outcome {
	pending := l.Pending()
	outcomes := make([]Outcome, 0, len(pending))
	for _, c := range pending {
		err := l.resolve(ctx, c.ID, target)
		outcomes = append(outcomes, Outcome{ChangeID: c.ID, Err: err})
	}
	return outcomes
}
