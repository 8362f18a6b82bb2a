package tui

import (
	"context"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	gochannel "github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Console events are small and bursty (a driver run emits a few hundred log
// frames); the buffer absorbs a burst while the program is redrawing.
const busBuffer = 1024

// Bus carries console events to the UI and UI actions back to the console.
// Handlers are added before Run; Run and Close may be called from different
// goroutines.
type Bus struct {
	Router     *message.Router
	Publisher  message.Publisher
	Subscriber message.Subscriber

	pubsub    *gochannel.GoChannel
	runOnce   sync.Once
	closeOnce sync.Once
	closeErr  error
}

func NewInMemoryBus() (*Bus, error) {
	logger := newZerologAdapter(log.Logger.With().Str("component", "bus").Logger())
	pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: busBuffer}, logger)

	r, err := message.NewRouter(message.RouterConfig{CloseTimeout: 5 * time.Second}, logger)
	if err != nil {
		return nil, errors.Wrap(err, "new watermill router")
	}
	return &Bus{
		Router:     r,
		Publisher:  pubsub,
		Subscriber: pubsub,
		pubsub:     pubsub,
	}, nil
}

// AddHandler consumes topic without publishing; every orca handler publishes
// its results itself.
func (b *Bus) AddHandler(name, topic string, handler func(*message.Message) error) {
	b.Router.AddConsumerHandler(name, topic, b.Subscriber, handler)
}

// Run blocks until ctx is done, then closes the bus.
func (b *Bus) Run(ctx context.Context) error {
	runErr := errors.New("bus already ran")
	b.runOnce.Do(func() {
		go func() {
			<-ctx.Done()
			_ = b.Close()
		}()
		runErr = b.Router.Run(ctx)
	})
	return runErr
}

// Close stops the router and the pub/sub. Publishing after Close fails.
func (b *Bus) Close() error {
	b.closeOnce.Do(func() {
		if err := b.Router.Close(); err != nil {
			b.closeErr = errors.Wrap(err, "close router")
		}
		if err := b.pubsub.Close(); err != nil && b.closeErr == nil {
			b.closeErr = errors.Wrap(err, "close pubsub")
		}
	})
	return b.closeErr
}

// Running is closed once the router started its handlers.
func (b *Bus) Running() chan struct{} {
	return b.Router.Running()
}
