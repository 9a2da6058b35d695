package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ibzarain/redline/internal/engine"
)

// reviewModel is the interactive accept/reject loop over a session's
// pending changes.
type reviewModel struct {
	session *engine.Session
	changes []engine.ChangeSummary
	cursor  int
	status  string
	done    bool
}

// Review runs the interactive review loop until every pending change is
// resolved or the user quits.
func Review(session *engine.Session) error {
	m := reviewModel{session: session}
	m.reload()
	p := tea.NewProgram(m)
	_, err := p.Run()
	return err
}

func (m *reviewModel) reload() {
	m.changes = nil
	res := m.session.PendingChanges()
	if summaries, ok := res.Data.([]engine.ChangeSummary); ok {
		m.changes = summaries
	}
	if m.cursor >= len(m.changes) {
		m.cursor = len(m.changes) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m reviewModel) Init() tea.Cmd { return nil }

func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "q", "ctrl+c", "esc":
		m.done = true
		return m, tea.Quit
	case "j", "down":
		if m.cursor < len(m.changes)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "a":
		m.resolve(true)
	case "r":
		m.resolve(false)
	}

	if len(m.changes) == 0 {
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *reviewModel) resolve(accept bool) {
	if m.cursor >= len(m.changes) {
		return
	}
	c := m.changes[m.cursor]
	var res engine.Result
	if accept {
		res = m.session.AcceptChange(context.Background(), c.ID)
	} else {
		res = m.session.RejectChange(context.Background(), c.ID)
	}
	if !res.Success {
		m.status = res.Error
	} else if accept {
		m.status = fmt.Sprintf("accepted %s", c.ID)
	} else {
		m.status = fmt.Sprintf("rejected %s", c.ID)
	}
	m.reload()
}

func (m reviewModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render("Review pending changes"))
	b.WriteString("\n\n")

	if len(m.changes) == 0 {
		b.WriteString(dimStyle.Render("Nothing pending."))
		b.WriteString("\n")
		return b.String()
	}

	for i, c := range m.changes {
		marker := "  "
		if i == m.cursor {
			marker = labelStyle.Render("▸ ")
		}
		fmt.Fprintf(&b, "%s%s %s  %s\n", marker, boldStyle.Render(string(c.Kind)), dimStyle.Render(c.ID), c.Preview)
	}

	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(dimStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("a accept · r reject · j/k move · q quit"))
	b.WriteString("\n")
	return b.String()
}
