package diff

import (
	"strings"
	"testing"
)

func TestPreview(t *testing.T) {
	got := Preview("the term shall commence", "the term shall begin")
	if !strings.Contains(got, "[-") || !strings.Contains(got, "{+") {
		t.Errorf("preview missing diff markers: %q", got)
	}
	if !strings.Contains(got, "the term shall ") {
		t.Errorf("unchanged text must pass through: %q", got)
	}
}

func TestPreviewIdenticalText(t *testing.T) {
	if got := Preview("same", "same"); got != "same" {
		t.Errorf("Preview = %q, want %q", got, "same")
	}
}

func TestChangePreview(t *testing.T) {
	tests := []struct {
		kind string
		old  string
		new  string
		want string
	}{
		{"insert", "", "added clause", "{+added clause+}"},
		{"delete", "gone clause", "", "[-gone clause-]"},
		{"format", "same", "same", "same"},
	}
	for _, tt := range tests {
		if got := ChangePreview(tt.kind, tt.old, tt.new); got != tt.want {
			t.Errorf("ChangePreview(%q) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
