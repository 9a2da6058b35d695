// Package ui holds the terminal output layer: the structured logger,
// lipgloss styles, and the redline document renderer.
package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/ibzarain/redline/internal/document"
)

// Logger is the package-level structured logger.
var Logger *log.Logger

// Styles, initialized in Init().
var (
	headerStyle   lipgloss.Style
	labelStyle    lipgloss.Style
	proposedStyle lipgloss.Style
	removedStyle  lipgloss.Style
	dimStyle      lipgloss.Style
	boldStyle     lipgloss.Style
	errorStyle    lipgloss.Style
	successStyle  lipgloss.Style
)

// spanColors maps the engine's named span colors onto ANSI palette
// entries. Unknown names pass through to lipgloss unchanged.
var spanColors = map[string]string{
	"green":  "10",
	"red":    "9",
	"yellow": "11",
	"blue":   "12",
}

// Init sets up color detection, lipgloss styles, and the structured
// logger. Call this once at CLI startup.
func Init(noColorFlag bool) {
	noColor := noColorFlag || os.Getenv("NO_COLOR") != ""

	lipgloss.SetHasDarkBackground(true)
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	proposedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	removedStyle = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("9"))
	dimStyle = lipgloss.NewStyle().Faint(true)
	boldStyle = lipgloss.NewStyle().Bold(true)
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))

	Logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
	})
	if noColor {
		Logger.SetStyles(log.DefaultStyles())
	}
}

func Bold(s string) string   { return boldStyle.Render(s) }
func Dim(s string) string    { return dimStyle.Render(s) }
func Red(s string) string    { return errorStyle.Render(s) }
func Green(s string) string  { return successStyle.Render(s) }
func Header(s string) string { return headerStyle.Render(s) }

// styleFor converts a document text style into a lipgloss style.
func styleFor(ts document.TextStyle) lipgloss.Style {
	st := lipgloss.NewStyle()
	if ts.Color != "" {
		c := ts.Color
		if mapped, ok := spanColors[c]; ok {
			c = mapped
		}
		st = st.Foreground(lipgloss.Color(c))
	}
	if ts.Strikethrough {
		st = st.Strikethrough(true)
	}
	return st
}

// RenderDocument writes the document to stderr with its visual diff:
// proposed spans in their color, removed spans struck through, list
// labels in front of their paragraphs.
func RenderDocument(paras []document.Paragraph, runs [][]document.StyledRun) {
	for i, p := range paras {
		var b strings.Builder
		if p.ListLabel != "" {
			b.WriteString(labelStyle.Render(p.ListLabel))
			b.WriteString(" ")
		}
		if i < len(runs) {
			for _, r := range runs[i] {
				if r.Style.IsZero() {
					b.WriteString(r.Text)
					continue
				}
				b.WriteString(styleFor(r.Style).Render(r.Text))
			}
		} else {
			b.WriteString(p.Text)
		}
		fmt.Fprintln(os.Stderr, b.String())
	}
}

// Status prints a styled status message.
func Status(msg string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", labelStyle.Render("▸"), msg)
}
