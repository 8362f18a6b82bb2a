package tui

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-go-golems/orca/pkg/classify"
	"github.com/pkg/errors"
)

// RegisterDomainToUITransformer maps console domain events to UI messages.
// Action logs become console entries so the user sees why an action failed.
func RegisterDomainToUITransformer(bus *Bus) {
	bus.AddHandler("orca-domain-to-ui", TopicConsoleEvents, func(msg *message.Message) error {
		defer msg.Ack()

		env, err := decodeEnvelope(msg)
		if err != nil {
			return err
		}
		publishUI := func(uiType string, payload any) error {
			return publishEnvelope(bus.Publisher, TopicUIMessages, uiType, payload)
		}

		switch env.Type {
		case DomainTypeLogEntry:
			var ev LogEntry
			if err := env.Decode(&ev); err != nil {
				return err
			}
			return publishUI(UITypeLogEntry, ev)
		case DomainTypeStatusChange:
			var ev StatusChange
			if err := env.Decode(&ev); err != nil {
				return err
			}
			return publishUI(UITypeStatusChange, ev)
		case DomainTypeSessionEnded:
			var ev SessionEnded
			if err := env.Decode(&ev); err != nil {
				return err
			}
			return publishUI(UITypeSessionEnded, ev)
		case DomainTypeControl:
			var ev ControlState
			if err := env.Decode(&ev); err != nil {
				return err
			}
			return publishUI(UITypeControl, ev)
		case DomainTypeActionLog:
			var ev ActionLog
			if err := env.Decode(&ev); err != nil {
				return err
			}
			category := classify.CategoryInfo
			if ev.Error {
				category = classify.CategoryError
			}
			if err := publishUI(UITypeLogEntry, LogEntry{At: ev.At, Category: category, Message: ev.Text}); err != nil {
				return errors.Wrap(err, "publish action log")
			}
			return nil
		default:
			return nil
		}
	})
}
