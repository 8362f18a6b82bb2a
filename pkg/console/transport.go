package console

import (
	"context"

	"github.com/go-go-golems/orca/pkg/protocol"
)

// Transport opens event channels to the job trigger endpoint.
type Transport interface {
	// Open starts the job identified by params and returns its event channel.
	// ctx bounds the lifetime of the channel, not just the dial.
	Open(ctx context.Context, params protocol.Params) (Channel, error)
}

// Channel delivers raw frames of one job stream in arrival order.
type Channel interface {
	// Messages is closed when the channel ends, either because the transport
	// failed or because Close was called.
	Messages() <-chan []byte
	// Err returns why Messages was closed. It is nil if Close ended the
	// channel and only meaningful once Messages is closed.
	Err() error
	// Close is idempotent and returns once the channel's reader has exited.
	Close() error
}
