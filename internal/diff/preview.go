package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Preview renders a compact inline old/new preview of an edit, with
// deletions wrapped in [-...] and insertions in {+...+}. It is attached
// to operation results and used by the CLI change listing; it never
// touches the document.
func Preview(oldText, newText string) string {
	if oldText == newText {
		return oldText
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldText, newText, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			b.WriteString("[-")
			b.WriteString(d.Text)
			b.WriteString("-]")
		case diffmatchpatch.DiffInsert:
			b.WriteString("{+")
			b.WriteString(d.Text)
			b.WriteString("+}")
		default:
			b.WriteString(d.Text)
		}
	}
	return b.String()
}

// ChangePreview summarizes one change for display.
func ChangePreview(kind, oldText, newText string) string {
	switch kind {
	case "insert":
		return "{+" + newText + "+}"
	case "delete":
		return "[-" + oldText + "-]"
	default:
		return Preview(oldText, newText)
	}
}
