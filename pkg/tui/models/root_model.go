package models

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/orca/pkg/config"
	"github.com/go-go-golems/orca/pkg/jobstatus"
	"github.com/go-go-golems/orca/pkg/tui"
	"github.com/go-go-golems/orca/pkg/tui/styles"
	"github.com/go-go-golems/orca/pkg/tui/widgets"
)

const logLimit = 2000

type Options struct {
	Title  string
	Params []config.Param
	Labels jobstatus.Labels
	// Publish sends a UI action to the console runner.
	Publish func(tui.ActionRequest) error
	Now     func() time.Time
}

type tickMsg time.Time

type RootModel struct {
	width  int
	height int

	title   string
	now     func() time.Time
	publish func(tui.ActionRequest) error

	status    tui.StatusChange
	running   bool
	startedAt time.Time
	notice    string

	control ControlModel
	log     LogModel
}

func NewRootModel(opts Options) RootModel {
	labels := opts.Labels.WithDefaults()
	if opts.Title == "" {
		opts.Title = "ORCA"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if len(opts.Params) == 0 {
		opts.Params = config.DefaultParams()
	}
	return RootModel{
		title:   opts.Title,
		now:     opts.Now,
		publish: opts.Publish,
		status:  tui.StatusChange{Label: labels.Idle},
		control: NewControlModel(opts.Params, tui.ControlState{Enabled: true, Label: labels.Button}),
		log:     NewLogModel(logLimit),
	}
}

func (m RootModel) Init() tea.Cmd { return tick() }

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = v.Width, v.Height
		return m.layout(), nil
	case tickMsg:
		return m, tick()
	case tea.KeyMsg:
		return m.onKey(v)
	case tui.LogEntryMsg:
		m.log = m.log.Append(v.Entry)
		return m, nil
	case tui.StatusChangeMsg:
		m.status = v.Status
		return m, nil
	case tui.ControlMsg:
		if m.control.Enabled() && !v.Control.Enabled {
			// A job is starting: the console shows only its output.
			m.log = m.log.Clear()
			m.running = true
			m.startedAt = m.now()
			m.notice = ""
		}
		m.control = m.control.WithControl(v.Control)
		return m, nil
	case tui.SessionEndedMsg:
		m.running = false
		return m, nil
	}
	return m, nil
}

func (m RootModel) onKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.log.Searching() {
		var cmd tea.Cmd
		m.log, cmd = m.log.Update(k)
		return m, cmd
	}

	switch k.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "enter", " ":
		if !m.control.Enabled() {
			return m, nil
		}
		m.notice = m.send(tui.ActionRequest{Kind: tui.ActionTrigger, Params: m.control.Params()})
		return m, nil
	case "s":
		if !m.running {
			return m, nil
		}
		m.notice = m.send(tui.ActionRequest{Kind: tui.ActionStop})
		return m, nil
	case "tab":
		m.control = m.control.FocusNext()
		return m, nil
	case "left", "h":
		m.control = m.control.Cycle(-1)
		return m, nil
	case "right", "l":
		m.control = m.control.Cycle(1)
		return m, nil
	case "c":
		m.log = m.log.Clear()
		return m, nil
	}

	var cmd tea.Cmd
	m.log, cmd = m.log.Update(k)
	return m, cmd
}

func (m RootModel) send(req tui.ActionRequest) string {
	if m.publish == nil {
		return "no console attached"
	}
	req.At = m.now()
	if err := m.publish(req); err != nil {
		return err.Error()
	}
	return ""
}

func (m RootModel) layout() RootModel {
	m.control = m.control.WithWidth(m.width)
	// header 2, control box 3, footer 2
	m.log = m.log.WithSize(m.width, max(5, m.height-7))
	return m
}

func (m RootModel) Status() tui.StatusChange { return m.status }

func (m RootModel) Running() bool { return m.running }

func (m RootModel) Log() LogModel { return m.log }

func (m RootModel) Control() ControlModel { return m.control }

func (m RootModel) View() string {
	theme := styles.DefaultTheme()

	header := widgets.NewHeader(m.title).
		WithStatus(styles.SeverityIcon(m.status.Severity), m.status.Label, theme.StatusStyle(m.status.Severity)).
		WithWidth(m.width)
	if m.running {
		header = header.WithElapsed(m.now().Sub(m.startedAt))
	}

	keys := []widgets.Keybind{
		{Key: "enter", Label: "drive"},
		{Key: "←/→", Label: "choose"},
		{Key: "tab", Label: "next field"},
	}
	if m.running {
		keys = append(keys, widgets.Keybind{Key: "s", Label: "stop"})
	}
	keys = append(keys, widgets.Keybind{Key: "q", Label: "quit"})
	footer := widgets.NewFooter(keys).WithWidth(m.width).WithNotice(m.notice)

	return lipgloss.JoinVertical(lipgloss.Left,
		header.Render(),
		m.control.View(),
		m.log.View(),
		footer.Render(),
	)
}
