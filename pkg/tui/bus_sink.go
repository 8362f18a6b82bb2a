package tui

import (
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-go-golems/orca/pkg/classify"
	"github.com/go-go-golems/orca/pkg/protocol"
	"github.com/rs/zerolog/log"
)

// BusSink publishes console output and trigger control changes as domain
// events. A publish failure is logged and otherwise dropped so the console
// never blocks on the UI.
type BusSink struct {
	pub message.Publisher
	now func() time.Time

	mu      sync.Mutex
	control ControlState
}

func NewBusSink(pub message.Publisher, initial ControlState) *BusSink {
	return &BusSink{pub: pub, now: time.Now, control: initial}
}

func (s *BusSink) OnLogEntry(category classify.Category, message string, at time.Time) {
	s.publish(DomainTypeLogEntry, LogEntry{At: at, Category: category, Message: message})
}

func (s *BusSink) OnStatusChange(label string, severity protocol.Severity) {
	s.publish(DomainTypeStatusChange, StatusChange{At: s.now(), Label: label, Severity: severity})
}

func (s *BusSink) OnSessionEnded() {
	s.publish(DomainTypeSessionEnded, SessionEnded{At: s.now()})
}

func (s *BusSink) SetEnabled(enabled bool) {
	s.mu.Lock()
	s.control.Enabled = enabled
	st := s.control
	s.mu.Unlock()
	s.publish(DomainTypeControl, st)
}

func (s *BusSink) SetLabel(text string) {
	s.mu.Lock()
	s.control.Label = text
	st := s.control
	s.mu.Unlock()
	s.publish(DomainTypeControl, st)
}

func (s *BusSink) Control() ControlState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.control
}

func (s *BusSink) publish(typ string, payload any) {
	if err := publishEnvelope(s.pub, TopicConsoleEvents, typ, payload); err != nil {
		log.Warn().Err(err).Str("type", typ).Msg("drop console event")
	}
}
