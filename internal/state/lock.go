package state

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/pagewatcher/internal/logfields"
)

// DefaultLockStale is the age after which a lock is considered abandoned.
const DefaultLockStale = time.Hour

// Lock is a held run lock. Release it exactly once, typically deferred.
type Lock struct {
	store   *Store
	info    LockInfo
	payload []byte
}

// Info returns the payload written when the lock was acquired.
func (l *Lock) Info() LockInfo { return l.info }

// TryLock attempts to take the run lock without waiting. A lock older than
// staleAfter, or one whose payload cannot be read, is removed and the create is
// retried once. ok is false when another holder owns a fresh lock.
func (s *Store) TryLock(ctx context.Context, staleAfter time.Duration) (*Lock, bool, error) {
	if staleAfter <= 0 {
		staleAfter = DefaultLockStale
	}

	for attempt := 0; attempt < 2; attempt++ {
		info := LockInfo{
			Owner:      uuid.NewString(),
			PID:        os.Getpid(),
			AcquiredAt: s.now(),
		}
		info.Host, _ = os.Hostname()
		payload, err := json.Marshal(info)
		if err != nil {
			return nil, false, err
		}

		err = s.backend.Create(ctx, s.partition, KeyLock, payload)
		if err == nil {
			return &Lock{store: s, info: info, payload: payload}, true, nil
		}
		if !errors.Is(err, ErrExists) {
			return nil, false, s.storageError(err, "failed to create run lock", KeyLock)
		}
		if attempt > 0 {
			break
		}

		raw, err := s.get(ctx, KeyLock)
		if err != nil {
			return nil, false, err
		}
		if raw == nil {
			// released between our create and read
			continue
		}
		holder := decodeLockInfo(raw)
		age := s.now().Sub(holder.AcquiredAt)
		if !holder.AcquiredAt.IsZero() && age <= staleAfter {
			return nil, false, nil
		}

		// Only the payload judged stale is removed; a lock another process
		// reclaimed in the meantime is left alone.
		deleted, err := s.backend.DeleteIf(ctx, s.partition, KeyLock, raw)
		if err != nil {
			return nil, false, s.storageError(err, "failed to remove stale run lock", KeyLock)
		}
		if deleted {
			s.logger.Warn("Reclaimed stale run lock",
				logfields.Target(s.partition),
				slog.String("owner", holder.Owner),
				slog.Int("pid", holder.PID),
				slog.Duration("age", age))
		}
	}
	return nil, false, nil
}

// LockHolder returns the current lock payload, or nil when unlocked. A payload
// that cannot be decoded is returned with a zero AcquiredAt.
func (s *Store) LockHolder(ctx context.Context) (*LockInfo, error) {
	data, err := s.get(ctx, KeyLock)
	if err != nil || data == nil {
		return nil, err
	}
	info := decodeLockInfo(data)
	return &info, nil
}

func decodeLockInfo(data []byte) LockInfo {
	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return LockInfo{}
	}
	return info
}

// Release deletes the lock record if it still carries our payload.
func (l *Lock) Release(ctx context.Context) error {
	if l == nil {
		return nil
	}
	deleted, err := l.store.backend.DeleteIf(ctx, l.store.partition, KeyLock, l.payload)
	if err != nil {
		return l.store.storageError(err, "failed to release run lock", KeyLock)
	}
	if !deleted {
		l.store.logger.Warn("Run lock no longer ours, leaving it in place", logfields.Target(l.store.partition))
	}
	return nil
}
