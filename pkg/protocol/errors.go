package protocol

import (
	"errors"
	"fmt"
)

const (
	ErrKindMalformedFrame   = "malformed-frame"
	ErrKindUnknownFrameType = "unknown-frame-type"
)

// ProtocolError reports a single frame the console could not decode. It never
// ends a session on its own.
type ProtocolError struct {
	Kind string
	Raw  string
	Err  error
}

func (e *ProtocolError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("protocol: %s", e.Kind)
	}
	return fmt.Sprintf("protocol: %s: %v", e.Kind, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

type ParamError struct {
	Index int
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("trigger parameter %d has an empty name", e.Index)
}
