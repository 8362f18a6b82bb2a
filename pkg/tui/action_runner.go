package tui

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-go-golems/orca/pkg/console"
	"github.com/go-go-golems/orca/pkg/protocol"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ConsoleController is the part of *console.Console the action runner drives.
type ConsoleController interface {
	Trigger(ctx context.Context, params protocol.Params) error
	Stop()
}

type RunnerOptions struct {
	// OpenTimeout bounds opening the event channel for a trigger.
	OpenTimeout time.Duration
}

// RegisterConsoleActionRunner executes trigger and stop requests coming from
// the UI. Triggers run off the handler so that a stop request is handled while
// a channel is still opening. Trigger failures are already reflected in the
// job status; the runner adds the underlying error as an action log.
func RegisterConsoleActionRunner(bus *Bus, c ConsoleController, opts RunnerOptions) {
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}
	bus.AddHandler("orca-ui-actions", TopicUIActions, func(msg *message.Message) error {
		defer msg.Ack()

		env, err := decodeEnvelope(msg)
		if err != nil {
			_ = publishActionLog(bus.Publisher, "action: bad envelope (unmarshal failed)", true)
			return nil
		}
		if env.Type != UITypeActionRequest {
			return nil
		}

		var req ActionRequest
		if err := env.Decode(&req); err != nil {
			_ = publishActionLog(bus.Publisher, "action: bad request (unmarshal failed)", true)
			return nil
		}

		ctx := msg.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		log.Debug().Str("kind", string(req.Kind)).Str("params", req.Params.Encode()).Msg("ui action")
		switch req.Kind {
		case ActionTrigger:
			go func(ctx context.Context, params protocol.Params) {
				openCtx, cancel := context.WithTimeout(ctx, opts.OpenTimeout)
				defer cancel()
				if err := c.Trigger(openCtx, params); err != nil && !errors.Is(err, console.ErrStopped) {
					publishActionFailure(bus.Publisher, ActionTrigger, err)
				}
			}(context.WithoutCancel(ctx), req.Params)
		case ActionStop:
			c.Stop()
		default:
			publishActionFailure(bus.Publisher, req.Kind, errors.Errorf("unknown action: %s", req.Kind))
		}
		return nil
	})
}

func publishActionFailure(pub message.Publisher, kind ActionKind, err error) {
	_ = publishActionLog(pub, "action failed: "+string(kind)+": "+err.Error(), true)
}

func publishActionLog(pub message.Publisher, text string, isErr bool) error {
	return publishEnvelope(pub, TopicConsoleEvents, DomainTypeActionLog, ActionLog{At: time.Now(), Text: text, Error: isErr})
}
