package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyTarget      = "target"
	KeyURL         = "url"
	KeyStatus      = "status"
	KeyPrevStatus  = "previous_status"
	KeyReason      = "reason"
	KeyFingerprint = "fingerprint"
	KeyOutcome     = "outcome"
	KeyMode        = "mode"
	KeyAttempt     = "attempt"
	KeyDurationMS  = "duration_ms"
	KeyBackend     = "backend"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Target(key string) slog.Attr     { return slog.String(KeyTarget, key) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Status(s string) slog.Attr       { return slog.String(KeyStatus, s) }
func PrevStatus(s string) slog.Attr   { return slog.String(KeyPrevStatus, s) }
func Reason(r string) slog.Attr       { return slog.String(KeyReason, r) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func Mode(m string) slog.Attr         { return slog.String(KeyMode, m) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func Backend(name string) slog.Attr   { return slog.String(KeyBackend, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

// Fingerprint logs a shortened digest; full digests are in the state partition.
func Fingerprint(h string) slog.Attr {
	if len(h) > 12 {
		h = h[:12]
	}
	return slog.String(KeyFingerprint, h)
}

// Since is DurationMS measured from start.
func Since(start time.Time) slog.Attr {
	return DurationMS(float64(time.Since(start).Microseconds()) / 1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
