package state

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSBackend stores records in a JetStream key-value bucket as <partition>.<key>.
type NATSBackend struct {
	conn   *nats.Conn
	kv     jetstream.KeyValue
	bucket string
}

// NewNATSBackend connects to url and opens (or creates) bucket.
func NewNATSBackend(ctx context.Context, url, bucket string) (*NATSBackend, error) {
	conn, err := nats.Connect(url, nats.Name("pagewatcher"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	kv, err := openBucket(ctx, js, bucket)
	if err != nil {
		conn.Close()
		return nil, err
	}

	slog.Debug("NATS state backend ready", "url", url, "bucket", bucket)
	return &NATSBackend{conn: conn, kv: kv, bucket: bucket}, nil
}

// NewNATSBackendFromKV wraps an already opened bucket. The caller owns the connection.
func NewNATSBackendFromKV(kv jetstream.KeyValue) *NATSBackend {
	return &NATSBackend{kv: kv, bucket: kv.Bucket()}
}

func openBucket(ctx context.Context, js jetstream.JetStream, bucket string) (jetstream.KeyValue, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	kv, err := js.KeyValue(ctx, bucket)
	if err == nil {
		return kv, nil
	}
	if !errors.Is(err, jetstream.ErrBucketNotFound) {
		return nil, fmt.Errorf("failed to open KV bucket: %w", err)
	}

	kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Page watcher state",
		History:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create KV bucket: %w", err)
	}
	slog.Info("Created KV bucket for watch state", "bucket", bucket)
	return kv, nil
}

// natsKey maps a record to a KV key. Dots separate tokens in NATS subjects, so
// dots inside record names become underscores.
func natsKey(partition, key string) string {
	return partition + "." + strings.ReplaceAll(key, ".", "_")
}

func (n *NATSBackend) Get(ctx context.Context, partition, key string) ([]byte, error) {
	entry, err := n.kv.Get(ctx, natsKey(partition, key))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("kv get %s: %w", natsKey(partition, key), err)
	}
	return entry.Value(), nil
}

func (n *NATSBackend) Put(ctx context.Context, partition, key string, value []byte) error {
	if _, err := n.kv.Put(ctx, natsKey(partition, key), value); err != nil {
		return fmt.Errorf("kv put %s: %w", natsKey(partition, key), err)
	}
	return nil
}

// Create succeeds when the key is absent or its last revision is a delete marker.
func (n *NATSBackend) Create(ctx context.Context, partition, key string, value []byte) error {
	if _, err := n.kv.Create(ctx, natsKey(partition, key), value); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return ErrExists
		}
		return fmt.Errorf("kv create %s: %w", natsKey(partition, key), err)
	}
	return nil
}

func (n *NATSBackend) Delete(ctx context.Context, partition, key string) error {
	if err := n.kv.Delete(ctx, natsKey(partition, key)); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("kv delete %s: %w", natsKey(partition, key), err)
	}
	return nil
}

// DeleteIf deletes at the revision whose value matched; a concurrent write makes
// the revision check fail.
func (n *NATSBackend) DeleteIf(ctx context.Context, partition, key string, expected []byte) (bool, error) {
	k := natsKey(partition, key)
	entry, err := n.kv.Get(ctx, k)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted) {
			return false, nil
		}
		return false, fmt.Errorf("kv get %s: %w", k, err)
	}
	if !bytes.Equal(entry.Value(), expected) {
		return false, nil
	}
	if err := n.kv.Delete(ctx, k, jetstream.LastRevision(entry.Revision())); err != nil {
		current, gerr := n.kv.Get(ctx, k)
		if gerr == nil && current.Revision() != entry.Revision() {
			return false, nil
		}
		if errors.Is(gerr, jetstream.ErrKeyNotFound) || errors.Is(gerr, jetstream.ErrKeyDeleted) {
			return false, nil
		}
		return false, fmt.Errorf("kv delete %s: %w", k, err)
	}
	return true, nil
}

func (n *NATSBackend) Close() error {
	if n.conn != nil {
		n.conn.Close()
	}
	return nil
}
