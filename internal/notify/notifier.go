// Package notify delivers trigger events to people and systems. Delivery is best
// effort: callers log failures and never roll back state because of them.
package notify

import (
	"context"
	"errors"
	"io"

	"git.home.luguber.info/inful/pagewatcher/internal/state"
)

// Message is what a sink receives: rendered text plus the event it describes.
type Message struct {
	Text  string
	Event *state.TriggerEvent
}

// Notifier delivers a message to one sink.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Multi fans a message out to every sink.
type Multi []Notifier

// Notify delivers to all sinks, even after a failure, and joins the errors.
func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink that holds a connection.
func (m Multi) Close() error {
	var errs []error
	for _, n := range m {
		if c, ok := n.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
