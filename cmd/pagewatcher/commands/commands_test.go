package commands

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagewatcher/internal/config"
	ferrors "git.home.luguber.info/inful/pagewatcher/internal/foundation/errors"
	"git.home.luguber.info/inful/pagewatcher/internal/state"
	"git.home.luguber.info/inful/pagewatcher/internal/watch"
)

const availableMarkup = `<html><body><h1>Room A</h1><table><tbody><tr><td class="status_2">o</td></tr></tbody></table></body></html>`

func writeConfig(t *testing.T, pageURL string, extra string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "pagewatcher.yaml")
	body := fmt.Sprintf(`version: "1.0"
state:
  backend: file
  dir: %s
fetch:
  retries: 0
  timeout: 5s
%s
targets:
  - key: room-a
    url: %s
    label: h1
`, filepath.Join(dir, "state"), extra, pageURL)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func pageServer(t *testing.T, markup string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(markup))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunStatusReset(t *testing.T) {
	srv := pageServer(t, availableMarkup)
	cfgPath := writeConfig(t, srv.URL, "")
	root := &CLI{Config: cfgPath}

	var out bytes.Buffer
	g := &Global{Out: &out}

	require.NoError(t, (&RunCmd{Target: "room-a"}).Run(g, root))
	require.Contains(t, out.String(), "room-a: "+string(state.ReasonStatusFound))

	out.Reset()
	require.NoError(t, (&RunCmd{Target: "room-a"}).Run(g, root))
	require.Contains(t, out.String(), "already triggered")

	out.Reset()
	require.NoError(t, (&StatusCmd{Target: "room-a"}).Run(g, root))
	require.Contains(t, out.String(), "target: room-a")
	require.Contains(t, out.String(), "triggered: true")
	require.Contains(t, out.String(), "label: Room A")
	require.NotContains(t, out.String(), "lock:")

	out.Reset()
	require.NoError(t, (&ResetCmd{Target: "room-a"}).Run(g, root))
	require.Contains(t, out.String(), "state cleared")

	out.Reset()
	require.NoError(t, (&StatusCmd{Target: "room-a"}).Run(g, root))
	require.Contains(t, out.String(), "triggered: false")
}

func TestRunOnceWritesTextfile(t *testing.T) {
	srv := pageServer(t, `<html><body><p>nothing</p></body></html>`)
	dir := t.TempDir()
	textfile := filepath.Join(dir, "pagewatcher.prom")
	cfgPath := writeConfig(t, srv.URL, fmt.Sprintf("metrics:\n  textfile: %s\n", textfile))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)

	var out bytes.Buffer
	res, err := RunOnce(context.Background(), &Global{Out: &out}, cfg, "room-a", watch.Options{})
	require.NoError(t, err)
	require.Nil(t, res.Event)
	require.Equal(t, state.StatusUnavailable, res.Status)
	require.Contains(t, out.String(), "no change")

	data, err := os.ReadFile(textfile)
	require.NoError(t, err)
	require.Contains(t, string(data), `pagewatcher_cycles_total{outcome="no_change",target="room-a"} 1`)
}

func TestRunFetchFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	cfgPath := writeConfig(t, srv.URL, "")

	err := (&RunCmd{Target: "room-a"}).Run(&Global{Out: &bytes.Buffer{}}, &CLI{Config: cfgPath})
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNetwork))
	require.Equal(t, 8, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestRunUnknownTarget(t *testing.T) {
	cfgPath := writeConfig(t, "http://example.invalid/", "")
	err := (&RunCmd{Target: "nope"}).Run(&Global{Out: &bytes.Buffer{}}, &CLI{Config: cfgPath})
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}

func TestInitAndTargets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagewatcher.yaml")
	var out bytes.Buffer
	g := &Global{Out: &out}
	root := &CLI{Config: path}

	require.NoError(t, (&InitCmd{}).Run(g, root))
	require.Contains(t, out.String(), "initialized successfully")
	require.Error(t, (&InitCmd{}).Run(g, root))
	require.NoError(t, (&InitCmd{Force: true}).Run(g, root))

	out.Reset()
	require.NoError(t, (&TargetsCmd{}).Run(g, root))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	require.True(t, strings.HasPrefix(lines[0], "KEY"))
	require.Contains(t, out.String(), "x1413")
	require.Contains(t, out.String(), "toggle")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, false, "json", "")
	l.Debug("hidden")
	l.Info("shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	l = newLogger(&buf, false, "text", "debug")
	l.Debug("visible")
	require.Contains(t, buf.String(), "msg=visible")

	buf.Reset()
	l = newLogger(&buf, true, "text", "warn")
	l.Info("muted")
	require.Empty(t, buf.String())
}

func TestDescribe(t *testing.T) {
	require.Equal(t, "k: locked by another run, skipped", describe("k", watch.Outcome{Skipped: watch.SkipLocked}))
	ev := &state.TriggerEvent{Reason: state.ReasonChangedToAvailable}
	got := describe("k", watch.Outcome{Event: ev, Status: state.StatusAvailable, NotifyErr: fmt.Errorf("boom")})
	require.Contains(t, got, "notification failed: boom")
}
