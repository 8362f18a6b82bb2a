package models

import (
	"strings"

	"github.com/go-go-golems/orca/pkg/config"
	"github.com/go-go-golems/orca/pkg/protocol"
	"github.com/go-go-golems/orca/pkg/tui"
	"github.com/go-go-golems/orca/pkg/tui/styles"
	"github.com/go-go-golems/orca/pkg/tui/widgets"
)

type selector struct {
	name    string
	choices []string
	idx     int
}

func (s selector) value() string {
	if len(s.choices) == 0 {
		return ""
	}
	return s.choices[s.idx]
}

// ControlModel holds the parameter selectors and the trigger button.
type ControlModel struct {
	selectors []selector
	focus     int
	control   tui.ControlState
	width     int
}

func NewControlModel(params []config.Param, control tui.ControlState) ControlModel {
	m := ControlModel{control: control}
	for _, p := range params {
		s := selector{name: p.Name, choices: append([]string{}, p.Choices...)}
		if p.Default != "" {
			found := false
			for i, c := range s.choices {
				if c == p.Default {
					s.idx, found = i, true
				}
			}
			if !found {
				s.choices = append([]string{p.Default}, s.choices...)
			}
		}
		m.selectors = append(m.selectors, s)
	}
	return m
}

func (m ControlModel) WithWidth(w int) ControlModel {
	m.width = w
	return m
}

func (m ControlModel) WithControl(c tui.ControlState) ControlModel {
	m.control = c
	return m
}

func (m ControlModel) Enabled() bool { return m.control.Enabled }

// Params returns the current selection in selector order.
func (m ControlModel) Params() protocol.Params {
	out := make(protocol.Params, 0, len(m.selectors))
	for _, s := range m.selectors {
		out = append(out, protocol.Param{Name: s.name, Value: s.value()})
	}
	return out
}

// FocusNext moves the focus to the next selector.
func (m ControlModel) FocusNext() ControlModel {
	if len(m.selectors) > 0 {
		m.focus = (m.focus + 1) % len(m.selectors)
	}
	return m
}

// Cycle moves the focused selector by delta choices, wrapping around.
func (m ControlModel) Cycle(delta int) ControlModel {
	if len(m.selectors) == 0 {
		return m
	}
	s := m.selectors[m.focus]
	if n := len(s.choices); n > 0 {
		s.idx = ((s.idx+delta)%n + n) % n
	}
	sel := append([]selector{}, m.selectors...)
	sel[m.focus] = s
	m.selectors = sel
	return m
}

func (m ControlModel) View() string {
	theme := styles.DefaultTheme()

	parts := make([]string, 0, len(m.selectors)+1)
	for i, s := range m.selectors {
		label := theme.TitleMuted.Render(capitalize(s.name) + ": ")
		value := "‹ " + s.value() + " ›"
		if i == m.focus {
			value = theme.Selected.Render(value)
		}
		parts = append(parts, label+value)
	}

	button := theme.ButtonDisabled.Render(m.control.Label)
	if m.control.Enabled {
		button = theme.Button.Render(m.control.Label)
	}
	parts = append(parts, button)

	row := strings.Join(parts, "   ")
	return widgets.NewBox("Drive").
		WithContent(row).
		WithSize(m.width, 0).
		Render()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
