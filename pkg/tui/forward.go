package tui

import (
	"github.com/ThreeDotsLabs/watermill/message"
	tea "github.com/charmbracelet/bubbletea"
)

// Sender is the part of *tea.Program the forwarder needs.
type Sender interface {
	Send(msg tea.Msg)
}

func RegisterUIForwarder(bus *Bus, p Sender) {
	bus.AddHandler("orca-ui-forward", TopicUIMessages, func(msg *message.Message) error {
		defer msg.Ack()

		env, err := decodeEnvelope(msg)
		if err != nil {
			return err
		}

		switch env.Type {
		case UITypeLogEntry:
			var ev LogEntry
			if err := env.Decode(&ev); err != nil {
				return err
			}
			p.Send(LogEntryMsg{Entry: ev})
		case UITypeStatusChange:
			var ev StatusChange
			if err := env.Decode(&ev); err != nil {
				return err
			}
			p.Send(StatusChangeMsg{Status: ev})
		case UITypeSessionEnded:
			var ev SessionEnded
			if err := env.Decode(&ev); err != nil {
				return err
			}
			p.Send(SessionEndedMsg{Ended: ev})
		case UITypeControl:
			var ev ControlState
			if err := env.Decode(&ev); err != nil {
				return err
			}
			p.Send(ControlMsg{Control: ev})
		}
		return nil
	})
}
