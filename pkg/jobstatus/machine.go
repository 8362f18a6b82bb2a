package jobstatus

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-go-golems/orca/pkg/classify"
	"github.com/go-go-golems/orca/pkg/protocol"
	"github.com/go-go-golems/orca/pkg/sink"
)

// Machine tracks the lifecycle of one triggered job at a time and performs the
// side effects of each transition on the sink and the trigger control.
//
//	idle|complete|error|disconnected --Start--> running
//	running --Status-->     running
//	running --Complete-->   complete
//	running --Fail-->       error
//	running --Disconnect--> disconnected
//
// Every terminal transition re-enables the control. Machine is not safe for
// concurrent use; the console serializes calls.
type Machine struct {
	sink    sink.Sink
	control sink.Control
	labels  Labels
	now     func() time.Time

	status Status
}

type Option func(*Machine)

func WithLabels(l Labels) Option {
	return func(m *Machine) { m.labels = l.WithDefaults() }
}

func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

func NewMachine(s sink.Sink, c sink.Control, opts ...Option) *Machine {
	if c == nil {
		c = sink.NopControl
	}
	m := &Machine{
		sink:    s,
		control: c,
		labels:  DefaultLabels(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	m.status = Status{State: StateIdle, Label: m.labels.Idle, Severity: protocol.SeverityPending}
	return m
}

func (m *Machine) Snapshot() Status { return m.status }

// Start moves to running. Starting while already running supersedes the
// previous job: its session is reported as ended before the new one begins.
func (m *Machine) Start(params protocol.Params) {
	if m.status.State == StateRunning {
		m.sink.OnSessionEnded()
	}
	m.control.SetEnabled(false)
	m.control.SetLabel(m.labels.ButtonRunning)
	m.entry(classify.CategoryHighlight, startEntry(m.labels.StartEntry, params))
	m.set(StateRunning, m.labels.Running, protocol.SeverityPending)
}

func (m *Machine) Status(label string, severity protocol.Severity) bool {
	if m.status.State != StateRunning {
		return false
	}
	m.set(StateRunning, label, severity)
	return true
}

func (m *Machine) Complete() bool {
	if m.status.State != StateRunning {
		return false
	}
	m.entry(classify.CategorySuccess, m.labels.CompleteEntry)
	m.finish(StateComplete, m.labels.Complete, protocol.SeverityActive)
	return true
}

// Fail records a job failure reported by the backend; reason is shown verbatim.
func (m *Machine) Fail(reason string) bool {
	if m.status.State != StateRunning {
		return false
	}
	m.entry(classify.CategoryError, m.labels.ErrorEntryPrefix+reason)
	m.finish(StateError, m.labels.Error, protocol.SeverityRejected)
	return true
}

// Disconnect records the loss of the event channel without a terminal frame.
func (m *Machine) Disconnect(reason string) bool {
	if m.status.State != StateRunning {
		return false
	}
	msg := m.labels.DisconnectedEntry
	if reason != "" {
		msg += " (" + reason + ")"
	}
	m.entry(classify.CategoryError, msg)
	m.finish(StateDisconnected, m.labels.Disconnected, protocol.SeverityRejected)
	return true
}

func (m *Machine) finish(state State, label string, severity protocol.Severity) {
	m.set(state, label, severity)
	m.control.SetEnabled(true)
	m.control.SetLabel(m.labels.Button)
	m.sink.OnSessionEnded()
}

func (m *Machine) set(state State, label string, severity protocol.Severity) {
	m.status = Status{State: state, Label: label, Severity: severity}
	m.sink.OnStatusChange(label, severity)
}

func (m *Machine) entry(category classify.Category, text string) {
	m.sink.OnLogEntry(category, text, m.now())
}

// startEntry renders "GLOP Driver 시작: Product=MNT, Supplier=x".
func startEntry(prefix string, params protocol.Params) string {
	if len(params) == 0 {
		return prefix
	}
	parts := make([]string, 0, len(params))
	for _, p := range params {
		v := p.Value
		if p.Name == protocol.ParamProduct {
			v = strings.ToUpper(v)
		}
		parts = append(parts, capitalize(p.Name)+"="+v)
	}
	return prefix + ": " + strings.Join(parts, ", ")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
