package sink

import (
	"time"

	"github.com/go-go-golems/orca/pkg/classify"
	"github.com/go-go-golems/orca/pkg/protocol"
)

// Sink receives everything the console wants shown to a user. Implementations
// must not call back into the console.
type Sink interface {
	OnLogEntry(category classify.Category, message string, at time.Time)
	OnStatusChange(label string, severity protocol.Severity)
	OnSessionEnded()
}

// Control is the trigger button of the console.
type Control interface {
	SetEnabled(enabled bool)
	SetLabel(text string)
}

type multi []Sink

// Multi fans every call out to each sink in order.
func Multi(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multi) OnLogEntry(category classify.Category, message string, at time.Time) {
	for _, s := range m {
		s.OnLogEntry(category, message, at)
	}
}

func (m multi) OnStatusChange(label string, severity protocol.Severity) {
	for _, s := range m {
		s.OnStatusChange(label, severity)
	}
}

func (m multi) OnSessionEnded() {
	for _, s := range m {
		s.OnSessionEnded()
	}
}

type nopControl struct{}

func (nopControl) SetEnabled(bool) {}
func (nopControl) SetLabel(string) {}

// NopControl is used by headless consoles that have no button to update.
var NopControl Control = nopControl{}
