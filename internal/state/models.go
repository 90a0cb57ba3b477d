package state

import (
	"strings"
	"time"
)

// Status is the availability last observed for a target.
type Status string

const (
	StatusUnknown     Status = "unknown"
	StatusAvailable   Status = "available"
	StatusUnavailable Status = "unavailable"
)

// StatusOf maps a predicate result to a Status.
func StatusOf(available bool) Status {
	if available {
		return StatusAvailable
	}
	return StatusUnavailable
}

// ParseStatus reads a persisted status. Anything unrecognised is unknown.
func ParseStatus(raw string) Status {
	switch s := Status(strings.TrimSpace(raw)); s {
	case StatusAvailable, StatusUnavailable:
		return s
	default:
		return StatusUnknown
	}
}

// Reason codes recorded on trigger events.
type Reason string

const (
	ReasonStatusFound          Reason = "STATUS_TD_FOUND"
	ReasonChangedToAvailable   Reason = "STATUS_CHANGED_TO_AVAILABLE"
	ReasonChangedToUnavailable Reason = "STATUS_CHANGED_TO_UNAVAILABLE"
)

// ReasonForFlip returns the reason for a toggle into current.
func ReasonForFlip(current Status) Reason {
	if current == StatusAvailable {
		return ReasonChangedToAvailable
	}
	return ReasonChangedToUnavailable
}

// TriggerEvent records a notify-worthy transition. Only the most recent one is kept.
type TriggerEvent struct {
	ID          string         `json:"id" yaml:"id"`
	TargetKey   string         `json:"target_key" yaml:"target_key"`
	URL         string         `json:"url" yaml:"url"`
	DetectedAt  time.Time      `json:"detected_at" yaml:"detected_at"`
	Reason      Reason         `json:"reason" yaml:"reason"`
	Fingerprint string         `json:"last_hash" yaml:"last_hash"`
	Extra       map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// WatchState is the persisted view of one target.
type WatchState struct {
	LastFingerprint string        `yaml:"last_fingerprint" json:"last_fingerprint"`
	LastStatus      Status        `yaml:"last_status" json:"last_status"`
	Triggered       bool          `yaml:"triggered" json:"triggered"`
	LastEvent       *TriggerEvent `yaml:"last_event,omitempty" json:"last_event,omitempty"`
}

// LockInfo is the payload of the run lock record.
type LockInfo struct {
	Owner      string    `json:"owner" yaml:"owner"`
	PID        int       `json:"pid" yaml:"pid"`
	Host       string    `json:"host,omitempty" yaml:"host,omitempty"`
	AcquiredAt time.Time `json:"acquired_at" yaml:"acquired_at"`
}

// Record keys inside a target partition.
const (
	KeyLastHash     = "last_hash.txt"
	KeyLastStatus   = "last_status.txt"
	KeyTriggerFlag  = "triggered.flag"
	KeyTriggerEvent = "triggered_event.json"
	KeyLock         = "run.lock"
)
