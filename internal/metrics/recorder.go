package metrics

import "time"

// Outcome labels for cycle counters.
const (
	OutcomeTriggered        = "triggered"
	OutcomeNoChange         = "no_change"
	OutcomeSkippedTriggered = "skipped_triggered"
	OutcomeSkippedLocked    = "skipped_locked"
	OutcomeFailed           = "failed"
)

// Notification result labels.
const (
	NotifySent     = "sent"
	NotifyFailed   = "failed"
	NotifyDisabled = "disabled"
)

// Recorder defines observability hooks for watch cycles.
type Recorder interface {
	ObserveCycle(target, outcome string, d time.Duration)
	IncNotification(target, result string)
	SetStatus(target, status string) // available|unavailable|unknown
	IncFetchRetry(target string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveCycle(string, string, time.Duration) {}
func (NoopRecorder) IncNotification(string, string)             {}
func (NoopRecorder) SetStatus(string, string)                   {}
func (NoopRecorder) IncFetchRetry(string)                       {}

// StatusValue maps a status string to the gauge value exported for it.
func StatusValue(status string) float64 {
	switch status {
	case "available":
		return 1
	case "unavailable":
		return 0
	default:
		return -1
	}
}
