package state

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTryLock_MutualExclusion(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	a := NewStore(backend, "x1919")
	b := NewStore(backend, "x1919")

	la, ok, err := a.TryLock(ctx, time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	lb, ok, err := b.TryLock(ctx, time.Hour)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, lb)

	// other partitions are unaffected
	_, ok, err = NewStore(backend, "x1413").TryLock(ctx, time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, la.Release(ctx))
	_, ok, err = b.TryLock(ctx, time.Hour)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestTryLock_ReclaimsStaleLock(t *testing.T) {
	ctx := context.Background()
	backend := NewFileBackend(t.TempDir())
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	old := NewStore(backend, "x1919").WithClock(func() time.Time { return start })
	stale, ok, err := old.TryLock(ctx, time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	fresh := NewStore(backend, "x1919").WithClock(func() time.Time { return start.Add(30 * time.Minute) })
	_, ok, err = fresh.TryLock(ctx, time.Hour)
	require.NoError(t, err)
	require.False(t, ok, "lock younger than the threshold is respected")

	later := NewStore(backend, "x1919").WithClock(func() time.Time { return start.Add(61 * time.Minute) })
	l, ok, err := later.TryLock(ctx, time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	// the abandoned holder must not remove the new owner's lock
	require.NoError(t, stale.Release(ctx))
	holder, err := later.LockHolder(ctx)
	require.NoError(t, err)
	require.Equal(t, l.Info().Owner, holder.Owner)

	require.NoError(t, l.Release(ctx))
	holder, err = later.LockHolder(ctx)
	require.NoError(t, err)
	require.Nil(t, holder)
}

func TestTryLock_UnreadablePayloadIsAbandoned(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	require.NoError(t, backend.Put(ctx, "x1919", KeyLock, []byte("12345")))

	l, ok, err := NewStore(backend, "x1919").TryLock(ctx, time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	raw, err := backend.Get(ctx, "x1919", KeyLock)
	require.NoError(t, err)
	var info LockInfo
	require.NoError(t, json.Unmarshal(raw, &info))
	require.Equal(t, l.Info().Owner, info.Owner)
	require.NotZero(t, info.PID)
}

func TestLockRelease_Nil(t *testing.T) {
	var l *Lock
	require.NoError(t, l.Release(context.Background()))
}

// interleavingBackend runs onLockRead once, right after the first read of the run lock.
type interleavingBackend struct {
	*MemoryBackend
	onLockRead func()
}

func (b *interleavingBackend) Get(ctx context.Context, partition, key string) ([]byte, error) {
	v, err := b.MemoryBackend.Get(ctx, partition, key)
	if key == KeyLock && b.onLockRead != nil {
		hook := b.onLockRead
		b.onLockRead = nil
		hook()
	}
	return v, err
}

func TestTryLock_ConcurrentStaleReclaimHasOneWinner(t *testing.T) {
	ctx := context.Background()
	backend := &interleavingBackend{MemoryBackend: NewMemoryBackend()}
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	later := func() time.Time { return start.Add(2 * time.Hour) }

	_, ok, err := NewStore(backend, "x1919").WithClock(func() time.Time { return start }).TryLock(ctx, time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	a := NewStore(backend, "x1919").WithClock(later)
	b := NewStore(backend, "x1919").WithClock(later)

	var (
		lockA *Lock
		okA   bool
		errA  error
	)
	// a reclaims and re-locks after b has read the stale payload
	backend.onLockRead = func() { lockA, okA, errA = a.TryLock(ctx, time.Hour) }

	lockB, okB, errB := b.TryLock(ctx, time.Hour)
	require.NoError(t, errA)
	require.NoError(t, errB)
	require.True(t, okA)
	require.False(t, okB)
	require.Nil(t, lockB)

	holder, err := a.LockHolder(ctx)
	require.NoError(t, err)
	require.Equal(t, lockA.Info().Owner, holder.Owner)
}

func TestTryLock_LogsReclaimToStoreLogger(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, ok, err := NewStore(backend, "x1919").WithClock(func() time.Time { return start }).TryLock(ctx, time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil)).With(slog.String("cycle", "c1"))
	store := NewStore(backend, "x1919").
		WithClock(func() time.Time { return start.Add(2 * time.Hour) }).
		WithLogger(logger)

	_, ok, err = store.TryLock(ctx, time.Hour)
	require.NoError(t, err)
	require.True(t, ok)
	require.Contains(t, buf.String(), "Reclaimed stale run lock")
	require.Contains(t, buf.String(), "cycle=c1")
}
