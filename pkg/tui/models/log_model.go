package models

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/orca/pkg/tui"
	"github.com/go-go-golems/orca/pkg/tui/styles"
	"github.com/go-go-golems/orca/pkg/tui/widgets"
)

// LogModel is the scrolling console. It keeps the last max entries.
type LogModel struct {
	max     int
	entries []tui.LogEntry

	width  int
	height int

	searching bool
	search    textinput.Model
	filter    string

	vp viewport.Model
}

func NewLogModel(limit int) LogModel {
	search := textinput.New()
	search.Placeholder = "filter…"
	search.Prompt = "/ "
	search.CharLimit = 200

	return LogModel{max: limit, search: search, vp: viewport.New(0, 0)}
}

func (m LogModel) WithSize(width, height int) LogModel {
	m.width, m.height = width, height
	m.vp.Width = max(0, width-2)
	m.vp.Height = max(3, height-3)
	return m.refresh(false)
}

func (m LogModel) Searching() bool { return m.searching }

func (m LogModel) Entries() []tui.LogEntry { return m.entries }

func (m LogModel) Filter() string { return m.filter }

func (m LogModel) Update(msg tea.KeyMsg) (LogModel, tea.Cmd) {
	if m.searching {
		switch msg.String() {
		case "esc":
			m.searching = false
			m.search.Blur()
			return m, nil
		case "enter":
			m.filter = strings.TrimSpace(m.search.Value())
			m.searching = false
			m.search.Blur()
			return m.refresh(true), nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "/":
		m.searching = true
		m.search.SetValue(m.filter)
		m.search.CursorEnd()
		cmd := m.search.Focus()
		return m, cmd
	case "ctrl+l":
		m.filter = ""
		m.search.SetValue("")
		return m.refresh(true), nil
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m LogModel) Append(e tui.LogEntry) LogModel {
	m.entries = append(m.entries, e)
	if m.max > 0 && len(m.entries) > m.max {
		m.entries = append([]tui.LogEntry{}, m.entries[len(m.entries)-m.max:]...)
	}
	return m.refresh(true)
}

func (m LogModel) Clear() LogModel {
	m.entries = nil
	return m.refresh(true)
}

func (m LogModel) View() string {
	theme := styles.DefaultTheme()

	hint := "[/] filter  [c] clear  [↑/↓] scroll"
	if m.filter != "" {
		hint = fmt.Sprintf("filter=%q  %s", m.filter, hint)
	}

	content := m.vp.View()
	if len(m.entries) == 0 {
		content = theme.TitleMuted.Render("(로그 없음)")
	}
	box := widgets.NewBox(fmt.Sprintf("Console (%d)", len(m.entries))).
		WithTitleRight(hint).
		WithContent(content).
		WithSize(m.width, m.vp.Height+3)

	if m.searching {
		return lipgloss.JoinVertical(lipgloss.Left, m.search.View(), box.Render())
	}
	return box.Render()
}

func (m LogModel) refresh(gotoBottom bool) LogModel {
	theme := styles.DefaultTheme()

	lines := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		if m.filter != "" && !strings.Contains(e.Message, m.filter) {
			continue
		}
		style := theme.EntryStyle(e.Category)
		lines = append(lines, style.Render(styles.CategoryIcon(e.Category))+" "+
			theme.TitleMuted.Render("["+e.At.Format("15:04:05")+"]")+" "+
			style.Render(e.Message))
	}
	if len(lines) == 0 {
		m.vp.SetContent("")
		return m
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if gotoBottom {
		m.vp.GotoBottom()
	}
	return m
}
