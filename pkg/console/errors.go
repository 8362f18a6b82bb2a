package console

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrIdleTimeout ends a session whose channel stayed silent for longer than
	// Options.IdleTimeout.
	ErrIdleTimeout = errors.New("event stream idle timeout")
	// ErrStreamEnded is reported when the server closes the stream without a
	// complete or error frame.
	ErrStreamEnded = errors.New("event stream ended without a terminal frame")
	// ErrStopped is the outcome of a session abandoned with Stop.
	ErrStopped = errors.New("session stopped")
	// ErrSuperseded is the outcome of a session replaced by a newer Trigger.
	ErrSuperseded = errors.New("session superseded")
)

// JobError is the failure reason sent by the backend in an error frame.
type JobError struct {
	Message string
}

func (e *JobError) Error() string {
	return fmt.Sprintf("job failed: %s", e.Message)
}

// TransportError reports the loss of the event channel.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
