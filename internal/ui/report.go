package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/ibzarain/redline/internal/engine"
)

// BuildChangeReport formats change summaries as markdown for the
// `redline changes` listing.
func BuildChangeReport(changes []engine.ChangeSummary) string {
	if len(changes) == 0 {
		return "# Pending changes\n\nNo pending changes.\n"
	}
	var b strings.Builder
	b.WriteString("# Pending changes\n\n")
	for i, c := range changes {
		fmt.Fprintf(&b, "## %d. %s `%s`\n\n", i+1, c.Kind, c.ID)
		fmt.Fprintf(&b, "%s\n\n", c.Preview)
		if !c.Rendered {
			b.WriteString("_not visualized in the document_\n\n")
		}
		for _, w := range c.Warnings {
			fmt.Fprintf(&b, "- warning: %s\n", w)
		}
	}
	return b.String()
}

// RenderMarkdown renders markdown to stderr, falling back to raw text
// when the terminal renderer is unavailable.
func RenderMarkdown(md string) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, md)
		return
	}

	out, err := renderer.Render(md)
	if err != nil {
		fmt.Fprintln(os.Stderr, md)
		return
	}

	fmt.Fprint(os.Stderr, out)
}
