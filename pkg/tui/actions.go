package tui

import (
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-go-golems/orca/pkg/protocol"
	"github.com/pkg/errors"
)

type ActionKind string

const (
	ActionTrigger ActionKind = "trigger"
	ActionStop    ActionKind = "stop"
)

type ActionRequest struct {
	Kind   ActionKind      `json:"kind"`
	At     time.Time       `json:"at"`
	Params protocol.Params `json:"params,omitempty"`
}

func PublishAction(pub message.Publisher, req ActionRequest) error {
	if req.Kind == "" {
		return errors.New("missing action kind")
	}
	if req.At.IsZero() {
		req.At = time.Now()
	}
	return publishEnvelope(pub, TopicUIActions, UITypeActionRequest, req)
}
