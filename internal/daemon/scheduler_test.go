package daemon

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScheduler_ScheduleCron(t *testing.T) {
	t.Run("returns job id for valid cron", func(t *testing.T) {
		s, err := NewScheduler()
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop(context.Background()) })

		id, err := s.ScheduleCron("test", "*/5 * * * *", func() {})
		require.NoError(t, err)
		require.NotEmpty(t, id)
	})

	t.Run("rejects invalid cron", func(t *testing.T) {
		s, err := NewScheduler()
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop(context.Background()) })

		_, err = s.ScheduleCron("test", "this is not a cron", func() {})
		require.Error(t, err)
	})
}

func TestScheduler_ScheduleEvery(t *testing.T) {
	t.Run("runs immediately", func(t *testing.T) {
		s, err := NewScheduler()
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop(context.Background()) })

		var runs atomic.Int32
		id, err := s.ScheduleEvery("test", time.Hour, func() { runs.Add(1) })
		require.NoError(t, err)
		require.NotEmpty(t, id)

		s.Start(context.Background())
		require.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("rejects non-positive interval", func(t *testing.T) {
		s, err := NewScheduler()
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop(context.Background()) })

		_, err = s.ScheduleEvery("test", 0, func() {})
		require.Error(t, err)
	})
}

func TestScheduler_Remove(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	a, err := s.ScheduleEvery("a", time.Hour, func() {})
	require.NoError(t, err)
	_, err = s.ScheduleCron("b", "0 * * * *", func() {})
	require.NoError(t, err)
	require.Equal(t, 2, s.JobCount())

	require.NoError(t, s.Remove(a))
	require.Eventually(t, func() bool { return s.JobCount() == 1 }, time.Second, 10*time.Millisecond)
	require.Error(t, s.Remove("not-a-uuid"))
}
