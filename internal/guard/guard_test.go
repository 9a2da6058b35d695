package guard

import (
	"errors"
	"testing"
)

func allowList(tokens ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		out[tok] = struct{}{}
	}
	return out
}

func TestIsNumberedLabel(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"1.2", true},
		{" 10.34 ", true},
		{"1", false},
		{"1.2.3", false},
		{"paragraph 1.2", false},
		{"a.b", false},
	}
	for _, tt := range tests {
		if got := IsNumberedLabel(tt.in); got != tt.want {
			t.Errorf("IsNumberedLabel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCheckReadEmptyAllowList(t *testing.T) {
	g := New(nil)
	if !g.CheckRead("anything at all") {
		t.Error("empty allow-list must permit any query")
	}
	if !g.CheckRead("*") {
		t.Error("wildcard is permitted only while no allow-list exists")
	}
}

func TestCheckRead(t *testing.T) {
	g := New(allowList("1.2", "reasonable care", "indemnification"))

	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{"exact token", "indemnification", true},
		{"query containing token", "the indemnification clause", true},
		{"token containing query", "reasonable", true},
		{"label variant with period", "1.2.", true},
		{"label variant parenthesized", "(1.2)", true},
		{"shared long word from multi-word token", "exercise care always", true},
		{"wildcard star", "*", false},
		{"wildcard all", "all", false},
		{"ungrounded query", "governing law", false},
		{"case folded", "INDEMNIFICATION", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.CheckRead(tt.query); got != tt.want {
				t.Errorf("CheckRead(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestCheckMutateRequiresFreshRead(t *testing.T) {
	g := New(nil)

	err := g.CheckMutate("edit_text", "reasonable care")
	var violation *ViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected ViolationError, got %v", err)
	}
	if violation.Action != "edit_text" {
		t.Errorf("action = %q", violation.Action)
	}

	g.MarkRead("reasonable care")
	if err := g.CheckMutate("edit_text", "reasonable care"); err != nil {
		t.Fatalf("mutation after read should pass: %v", err)
	}

	// The read is consumed by the mutation: a second mutation is blocked.
	g.MarkMutated()
	if err := g.CheckMutate("edit_text", "reasonable care"); err == nil {
		t.Error("second mutation without a new read must be blocked")
	}
}

func TestCheckMutateLabelExempt(t *testing.T) {
	g := New(nil)
	if err := g.CheckMutate("delete_text", "1.3"); err != nil {
		t.Errorf("numbered labels are exempt from read-before-write: %v", err)
	}
}

func TestMarkReadRecordsQuery(t *testing.T) {
	g := New(nil)
	if g.HasFreshRead() {
		t.Fatal("fresh guard must not report a read")
	}
	g.MarkRead("1.2")
	if !g.HasFreshRead() || g.LastQuery() != "1.2" {
		t.Errorf("read not recorded: fresh=%v last=%q", g.HasFreshRead(), g.LastQuery())
	}
}
