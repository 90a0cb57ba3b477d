package state

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/pagewatcher/internal/foundation/errors"
)

// Store gives typed access to one target's partition.
type Store struct {
	backend   Backend
	partition string
	now       func() time.Time
	logger    *slog.Logger
}

// NewStore returns a store for the partition named by targetKey.
func NewStore(backend Backend, targetKey string) *Store {
	return &Store{backend: backend, partition: targetKey, now: time.Now, logger: slog.Default()}
}

// WithClock returns a copy of the store that reads time from now.
func (s *Store) WithClock(now func() time.Time) *Store {
	c := *s
	c.now = now
	return &c
}

// WithLogger returns a copy of the store that logs lock events to logger.
func (s *Store) WithLogger(logger *slog.Logger) *Store {
	c := *s
	if logger != nil {
		c.logger = logger
	}
	return &c
}

// Partition returns the target key this store is scoped to.
func (s *Store) Partition() string { return s.partition }

func (s *Store) storageError(err error, op, key string) error {
	return ferrors.StorageError(op).WithCause(err).
		WithContext("target", s.partition).
		WithContext("key", key).
		Build()
}

// get returns (nil, nil) for a missing record.
func (s *Store) get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.backend.Get(ctx, s.partition, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.storageError(err, "failed to read state record", key)
	}
	return data, nil
}

func (s *Store) put(ctx context.Context, key string, value []byte) error {
	if err := s.backend.Put(ctx, s.partition, key, value); err != nil {
		return s.storageError(err, "failed to write state record", key)
	}
	return nil
}

// LastFingerprint returns the stored fingerprint, or "" when none was recorded.
func (s *Store) LastFingerprint(ctx context.Context) (string, error) {
	data, err := s.get(ctx, KeyLastHash)
	return strings.TrimSpace(string(data)), err
}

func (s *Store) SaveFingerprint(ctx context.Context, fingerprint string) error {
	return s.put(ctx, KeyLastHash, []byte(fingerprint))
}

// LastStatus returns the stored status, StatusUnknown until the first observation.
func (s *Store) LastStatus(ctx context.Context) (Status, error) {
	data, err := s.get(ctx, KeyLastStatus)
	if err != nil {
		return StatusUnknown, err
	}
	return ParseStatus(string(data)), nil
}

func (s *Store) SaveStatus(ctx context.Context, status Status) error {
	return s.put(ctx, KeyLastStatus, []byte(status))
}

// IsTriggered reports whether the trigger flag exists.
func (s *Store) IsTriggered(ctx context.Context) (bool, error) {
	data, err := s.get(ctx, KeyTriggerFlag)
	return data != nil, err
}

// MarkTriggered persists ev and then the flag. A crash in between leaves an event
// without a flag, which the single-shot guard treats as not yet triggered.
func (s *Store) MarkTriggered(ctx context.Context, ev TriggerEvent) error {
	data, err := json.MarshalIndent(ev, "", "  ")
	if err != nil {
		return ferrors.InternalError("failed to encode trigger event").WithCause(err).Build()
	}
	if err := s.put(ctx, KeyTriggerEvent, data); err != nil {
		return err
	}
	return s.put(ctx, KeyTriggerFlag, []byte(ev.DetectedAt.Format(time.RFC3339)))
}

// LastEvent returns the most recent trigger event, or nil.
func (s *Store) LastEvent(ctx context.Context) (*TriggerEvent, error) {
	data, err := s.get(ctx, KeyTriggerEvent)
	if err != nil || data == nil {
		return nil, err
	}
	var ev TriggerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, s.storageError(err, "failed to decode trigger event", KeyTriggerEvent)
	}
	return &ev, nil
}

// Load reads the whole persisted state of the target.
func (s *Store) Load(ctx context.Context) (WatchState, error) {
	var (
		st  WatchState
		err error
	)
	if st.LastFingerprint, err = s.LastFingerprint(ctx); err != nil {
		return st, err
	}
	if st.LastStatus, err = s.LastStatus(ctx); err != nil {
		return st, err
	}
	if st.Triggered, err = s.IsTriggered(ctx); err != nil {
		return st, err
	}
	if st.LastEvent, err = s.LastEvent(ctx); err != nil {
		return st, err
	}
	return st, nil
}

// Reset clears every record except the run lock, re-arming monitoring.
func (s *Store) Reset(ctx context.Context) error {
	for _, key := range []string{KeyTriggerFlag, KeyTriggerEvent, KeyLastStatus, KeyLastHash} {
		if err := s.backend.Delete(ctx, s.partition, key); err != nil {
			return s.storageError(err, "failed to delete state record", key)
		}
	}
	return nil
}
