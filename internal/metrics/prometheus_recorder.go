package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "pagewatcher"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry      *prom.Registry
	cycles        *prom.CounterVec
	cycleDuration *prom.HistogramVec
	notifications *prom.CounterVec
	status        *prom.GaugeVec
	fetchRetries  *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them on reg
// (a fresh registry when reg is nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.cycles = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "cycles_total",
		Help:      "Watch cycles by target and outcome",
	}, []string{"target", "outcome"})
	pr.cycleDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "cycle_duration_seconds",
		Help:      "Duration of watch cycles including fetch retries",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"target"})
	pr.notifications = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Notification attempts by target and result",
	}, []string{"target", "result"})
	pr.status = prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "status",
		Help:      "Last observed status (1 available, 0 unavailable, -1 unknown)",
	}, []string{"target"})
	pr.fetchRetries = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_retries_total",
		Help:      "Fetch retries after transient failures",
	}, []string{"target"})
	reg.MustRegister(pr.cycles, pr.cycleDuration, pr.notifications, pr.status, pr.fetchRetries)
	return pr
}

// Registry returns the registry the metrics are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry {
	if p == nil {
		return nil
	}
	return p.registry
}

func (p *PrometheusRecorder) ObserveCycle(target, outcome string, d time.Duration) {
	if p == nil {
		return
	}
	p.cycles.WithLabelValues(target, outcome).Inc()
	p.cycleDuration.WithLabelValues(target).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncNotification(target, result string) {
	if p == nil {
		return
	}
	p.notifications.WithLabelValues(target, result).Inc()
}

func (p *PrometheusRecorder) SetStatus(target, status string) {
	if p == nil {
		return
	}
	p.status.WithLabelValues(target).Set(StatusValue(status))
}

func (p *PrometheusRecorder) IncFetchRetry(target string) {
	if p == nil {
		return
	}
	p.fetchRetries.WithLabelValues(target).Inc()
}
