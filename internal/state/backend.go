package state

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when the key has no record.
	ErrNotFound = errors.New("state: record not found")
	// ErrExists is returned by Create when the key already has a record.
	ErrExists = errors.New("state: record already exists")
)

// Backend is a key-value substrate partitioned by target key.
//
// Create and DeleteIf must be atomic with respect to concurrent processes sharing
// the substrate; the run lock depends on them. Delete of a missing key succeeds.
type Backend interface {
	Get(ctx context.Context, partition, key string) ([]byte, error)
	Put(ctx context.Context, partition, key string, value []byte) error
	Create(ctx context.Context, partition, key string, value []byte) error
	Delete(ctx context.Context, partition, key string) error
	// DeleteIf deletes the record only while it still holds expected and
	// reports whether it did.
	DeleteIf(ctx context.Context, partition, key string, expected []byte) (bool, error)
	Close() error
}
