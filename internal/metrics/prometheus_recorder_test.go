package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	r := NewPrometheusRecorder(nil)
	r.ObserveCycle("x1919", OutcomeTriggered, 2*time.Second)
	r.ObserveCycle("x1919", OutcomeNoChange, time.Second)
	r.ObserveCycle("x1919", OutcomeNoChange, time.Second)
	r.IncNotification("x1919", NotifyFailed)
	r.SetStatus("x1919", "unavailable")
	r.SetStatus("x1413", "available")
	r.IncFetchRetry("x1919")

	require.InDelta(t, 2, testutil.ToFloat64(r.cycles.WithLabelValues("x1919", OutcomeNoChange)), 0)
	require.InDelta(t, 1, testutil.ToFloat64(r.notifications.WithLabelValues("x1919", NotifyFailed)), 0)
	require.InDelta(t, 0, testutil.ToFloat64(r.status.WithLabelValues("x1919")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(r.status.WithLabelValues("x1413")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(r.fetchRetries.WithLabelValues("x1919")), 0)
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var r *PrometheusRecorder
	r.ObserveCycle("x", OutcomeFailed, time.Second)
	r.IncNotification("x", NotifySent)
	r.SetStatus("x", "available")
	r.IncFetchRetry("x")
	require.Nil(t, r.Registry())
}

func TestHTTPHandlerAndTextfile(t *testing.T) {
	r := NewPrometheusRecorder(nil)
	r.ObserveCycle("g2571", OutcomeSkippedLocked, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	HTTPHandler(r.Registry()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `pagewatcher_cycles_total{outcome="skipped_locked",target="g2571"} 1`)

	path := filepath.Join(t.TempDir(), "pagewatcher.prom")
	require.NoError(t, WriteTextfile(path, r.Registry()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), "pagewatcher_cycle_duration_seconds_count"))
}

func TestStatusValue(t *testing.T) {
	require.InDelta(t, 1, StatusValue("available"), 0)
	require.InDelta(t, 0, StatusValue("unavailable"), 0)
	require.InDelta(t, -1, StatusValue("unknown"), 0)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveCycle("x", OutcomeFailed, time.Second)
	r.IncNotification("x", NotifySent)
}
