package daemon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagewatcher/internal/config"
	ferrors "git.home.luguber.info/inful/pagewatcher/internal/foundation/errors"
	"git.home.luguber.info/inful/pagewatcher/internal/metrics"
	"git.home.luguber.info/inful/pagewatcher/internal/state"
	"git.home.luguber.info/inful/pagewatcher/internal/watch"
)

type fakeRuntime struct {
	mu     sync.Mutex
	runs   []string
	closed bool
}

func (f *fakeRuntime) Run(_ context.Context, target config.Target, _ watch.Options) (watch.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, target.Key)
	return watch.Outcome{Status: state.StatusUnavailable}, nil
}

func (f *fakeRuntime) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeRuntime) snapshot() ([]string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.runs...), f.closed
}

type runtimes struct {
	mu    sync.Mutex
	built []*fakeRuntime
}

func (r *runtimes) factory(context.Context, *config.Config) (Runtime, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt := &fakeRuntime{}
	r.built = append(r.built, rt)
	return rt, nil
}

func (r *runtimes) get(i int) *fakeRuntime {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i >= len(r.built) {
		return nil
	}
	return r.built[i]
}

const daemonConfig = `
version: "1.0"
state: {backend: memory}
daemon:
  interval: 1h
targets:
  - {key: x1919, url: "https://www.31sumai.com/attend/X1919/"}
  - {key: x1413, url: "https://www.31sumai.com/attend/X1413/", mode: toggle}
`

func TestDaemon_RunsAllTargetsSequentially(t *testing.T) {
	cfg, err := config.Parse([]byte(daemonConfig))
	require.NoError(t, err)
	cfg.Daemon.DisableConfigWatch = true

	rts := &runtimes{}
	d := New("", cfg, rts.factory, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, d.Start(ctx))

	require.Eventually(t, func() bool {
		runs, _ := rts.get(0).snapshot()
		return len(runs) == 2
	}, 2*time.Second, 10*time.Millisecond)
	runs, _ := rts.get(0).snapshot()
	require.Equal(t, []string{"x1919", "x1413"}, runs)

	require.NoError(t, d.Stop(context.Background()))
	_, closed := rts.get(0).snapshot()
	require.True(t, closed)
}

func TestDaemon_ReloadOnConfigChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pagewatcher.yaml")
	require.NoError(t, os.WriteFile(path, []byte(daemonConfig), 0o600))
	cfg, err := config.Load(path)
	require.NoError(t, err)

	rts := &runtimes{}
	d := New(path, cfg, rts.factory, nil, WithDebounce(20*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, d.Start(ctx))
	t.Cleanup(func() { _ = d.Stop(context.Background()) })

	updated := daemonConfig + "  - {key: g2571, url: \"https://www.31sumai.com/attend/G2571/2/\"}\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))

	require.Eventually(t, func() bool {
		rt := rts.get(1)
		if rt == nil {
			return false
		}
		runs, _ := rt.snapshot()
		return len(runs) == 3
	}, 5*time.Second, 20*time.Millisecond)

	require.Len(t, d.Config().Targets, 3)
	_, closed := rts.get(0).snapshot()
	require.True(t, closed, "previous runtime is closed after the swap")
}

func TestDaemon_ReloadWithBadCronKeepsRunningConfig(t *testing.T) {
	cfg, err := config.Parse([]byte(daemonConfig))
	require.NoError(t, err)
	cfg.Daemon.DisableConfigWatch = true

	rts := &runtimes{}
	d := New("", cfg, rts.factory, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, d.Start(ctx))
	t.Cleanup(func() { _ = d.Stop(context.Background()) })
	require.Equal(t, 1, d.scheduler.JobCount())

	bad := *cfg
	bad.Daemon.Cron = "not a cron"
	err = d.ReloadConfig(ctx, &bad)
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryDaemon))

	require.Same(t, cfg, d.Config())
	require.Equal(t, 1, d.scheduler.JobCount())
	_, oldClosed := rts.get(0).snapshot()
	require.False(t, oldClosed, "running runtime stays open")
	_, newClosed := rts.get(1).snapshot()
	require.True(t, newClosed, "rejected runtime is closed")

	good := *cfg
	good.Daemon.Cron = "*/5 * * * *"
	require.NoError(t, d.ReloadConfig(ctx, &good))
	require.Same(t, &good, d.Config())
	require.Eventually(t, func() bool { return d.scheduler.JobCount() == 1 }, time.Second, 10*time.Millisecond)
	_, oldClosed = rts.get(0).snapshot()
	require.True(t, oldClosed)
}

func TestDaemon_Handler(t *testing.T) {
	cfg, err := config.Parse([]byte(daemonConfig))
	require.NoError(t, err)

	rec := metrics.NewPrometheusRecorder(nil)
	rec.SetStatus("x1919", "available")
	d := New("", cfg, (&runtimes{}).factory, rec)

	w := httptest.NewRecorder()
	d.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `pagewatcher_status{target="x1919"} 1`)

	w = httptest.NewRecorder()
	d.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
}
