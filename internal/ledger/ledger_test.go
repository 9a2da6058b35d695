package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/ibzarain/redline/internal/document"
)

// fakeApplier records resolution calls and can be told to fail for
// specific change IDs.
type fakeApplier struct {
	accepted []string
	rejected []string
	failIDs  map[string]bool
}

func (f *fakeApplier) Accept(ctx context.Context, c *Change) error {
	if f.failIDs[c.ID] {
		return errors.New("apply failed")
	}
	f.accepted = append(f.accepted, c.ID)
	return nil
}

func (f *fakeApplier) Reject(ctx context.Context, c *Change) error {
	if f.failIDs[c.ID] {
		return errors.New("apply failed")
	}
	f.rejected = append(f.rejected, c.ID)
	return nil
}

func editChange() *Change {
	return &Change{
		Kind:               KindEdit,
		OldText:            "shall commence",
		NewText:            "shall begin",
		TargetParagraph:    -1,
		TargetEndParagraph: -1,
	}
}

func TestAddAssignsIDAndState(t *testing.T) {
	l := New(&fakeApplier{})
	c := editChange()
	id, err := l.Add(c)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if id == "" || c.ID != id {
		t.Errorf("id not assigned: %q vs %q", id, c.ID)
	}
	if c.State != StateProposed {
		t.Errorf("state = %q, want %q", c.State, StateProposed)
	}
	if c.CreatedAt.IsZero() {
		t.Error("timestamp not set")
	}

	got, err := l.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != c {
		t.Error("Get returned a different change")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		change  *Change
		wantErr bool
	}{
		{"valid edit", editChange(), false},
		{"edit missing new text", &Change{Kind: KindEdit, OldText: "x"}, true},
		{"edit missing old text", &Change{Kind: KindEdit, NewText: "y"}, true},
		{"valid insert", &Change{Kind: KindInsert, NewText: "added clause"}, false},
		{"insert missing text", &Change{Kind: KindInsert}, true},
		{"valid delete", &Change{Kind: KindDelete, OldText: "gone"}, false},
		{"delete missing target", &Change{Kind: KindDelete}, true},
		{"valid format", &Change{Kind: KindFormat, SearchText: "x", Style: document.TextStyle{Color: "yellow"}}, false},
		{"format missing style", &Change{Kind: KindFormat, SearchText: "x"}, true},
		{"unknown kind", &Change{Kind: "mystery"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(&fakeApplier{})
			_, err := l.Add(tt.change)
			if (err != nil) != tt.wantErr {
				t.Errorf("Add err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPendingOrder(t *testing.T) {
	l := New(&fakeApplier{})
	first := editChange()
	second := editChange()
	l.Add(first)
	l.Add(second)

	pending := l.Pending()
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}
	if pending[0] != first || pending[1] != second {
		t.Error("pending changes out of insertion order")
	}
}

func TestAcceptAndRejectTransitions(t *testing.T) {
	applier := &fakeApplier{}
	l := New(applier)
	ctx := context.Background()

	a := editChange()
	b := editChange()
	l.Add(a)
	l.Add(b)

	if err := l.Accept(ctx, a.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if a.State != StateAccepted {
		t.Errorf("state = %q", a.State)
	}
	if len(applier.accepted) != 1 || applier.accepted[0] != a.ID {
		t.Errorf("applier calls = %v", applier.accepted)
	}

	if err := l.Reject(ctx, b.ID); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if b.State != StateRejected {
		t.Errorf("state = %q", b.State)
	}

	// Resolved changes stay resolved.
	if err := l.Accept(ctx, a.ID); err == nil {
		t.Error("double accept must fail")
	}
	if err := l.Reject(ctx, a.ID); err == nil {
		t.Error("reject after accept must fail")
	}
	if len(l.Pending()) != 0 {
		t.Errorf("pending = %d, want 0", len(l.Pending()))
	}
}

func TestResolveUnknownID(t *testing.T) {
	l := New(&fakeApplier{})
	if err := l.Accept(context.Background(), "missing"); err == nil {
		t.Error("expected error for unknown change")
	}
}

func TestApplierFailureKeepsChangePending(t *testing.T) {
	applier := &fakeApplier{failIDs: map[string]bool{}}
	l := New(applier)
	c := editChange()
	l.Add(c)
	applier.failIDs[c.ID] = true

	if err := l.Accept(context.Background(), c.ID); err == nil {
		t.Fatal("expected applier failure to propagate")
	}
	if c.State != StateProposed {
		t.Errorf("failed accept must leave the change pending, state = %q", c.State)
	}
}

func TestAcceptAllContinuesPastFailures(t *testing.T) {
	applier := &fakeApplier{failIDs: map[string]bool{}}
	l := New(applier)
	ctx := context.Background()

	a := editChange()
	bad := editChange()
	c := editChange()
	l.Add(a)
	l.Add(bad)
	l.Add(c)
	applier.failIDs[bad.ID] = true

	outcomes := l.AcceptAll(ctx)
	if len(outcomes) != 3 {
		t.Fatalf("outcomes = %d, want 3", len(outcomes))
	}
	if outcomes[0].Err != nil || outcomes[2].Err != nil {
		t.Errorf("healthy changes failed: %v, %v", outcomes[0].Err, outcomes[2].Err)
	}
	if outcomes[1].Err == nil {
		t.Error("failing change must report its error")
	}
	if a.State != StateAccepted || c.State != StateAccepted {
		t.Error("later changes must still be applied after a failure")
	}
	if bad.State != StateProposed {
		t.Errorf("failed change state = %q, want proposed", bad.State)
	}
}

func TestRejectAll(t *testing.T) {
	applier := &fakeApplier{}
	l := New(applier)
	a := editChange()
	b := editChange()
	l.Add(a)
	l.Add(b)

	outcomes := l.RejectAll(context.Background())
	if len(outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(outcomes))
	}
	if a.State != StateRejected || b.State != StateRejected {
		t.Error("all changes must be rejected")
	}
	if len(applier.rejected) != 2 {
		t.Errorf("applier reject calls = %d", len(applier.rejected))
	}
}

func TestClear(t *testing.T) {
	l := New(&fakeApplier{})
	l.Add(editChange())
	l.Clear()
	if len(l.All()) != 0 {
		t.Error("Clear must drop every record")
	}
}
