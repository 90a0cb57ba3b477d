package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	ferrors "git.home.luguber.info/inful/pagewatcher/internal/foundation/errors"
)

// publisher is the subset of jetstream.JetStream the sink uses.
type publisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// NATSPublisher publishes trigger events as JSON on a JetStream subject.
type NATSPublisher struct {
	conn    *nats.Conn
	js      publisher
	subject string
}

// NewNATSPublisher connects to url. A stream must capture subject.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("pagewatcher-notify"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	return &NATSPublisher{conn: conn, js: js, subject: subject}, nil
}

func (p *NATSPublisher) Notify(ctx context.Context, msg Message) error {
	if msg.Event == nil {
		return nil
	}
	data, err := json.Marshal(msg.Event)
	if err != nil {
		return ferrors.InternalError("failed to encode event").WithCause(err).Build()
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	subject := p.subject + "." + msg.Event.TargetKey
	if _, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(msg.Event.ID)); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNotify, "failed to publish event").
			WithContext("subject", subject).
			Build()
	}
	return nil
}

func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}
