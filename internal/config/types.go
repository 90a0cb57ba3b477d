package config

import "git.home.luguber.info/inful/pagewatcher/internal/foundation/normalization"

// WatchMode selects how a target turns observations into notifications.
type WatchMode string

const (
	// ModeSingleShot notifies once, the first time the marker shows up, and never again.
	ModeSingleShot WatchMode = "single_shot"
	// ModeToggle notifies on every available/unavailable flip after the first observation.
	ModeToggle WatchMode = "toggle"
)

var watchModeNormalizer = normalization.NewNormalizer("mode", map[string]WatchMode{
	"single_shot": ModeSingleShot,
	"singleshot":  ModeSingleShot,
	"once":        ModeSingleShot,
	"toggle":      ModeToggle,
}, ModeSingleShot)

// DetectorKind selects the availability predicate for a target.
type DetectorKind string

const (
	// DetectorMarker looks for marker classes on table body cells.
	DetectorMarker DetectorKind = "marker"
	// DetectorBlockText treats a literal "sold out" phrase as unavailability.
	DetectorBlockText DetectorKind = "block_text"
)

var detectorNormalizer = normalization.NewNormalizer("detector", map[string]DetectorKind{
	"marker":     DetectorMarker,
	"block_text": DetectorBlockText,
	"text":       DetectorBlockText,
}, DetectorMarker)

// StateBackend selects the storage substrate for per-target state.
type StateBackend string

const (
	BackendFile     StateBackend = "file"
	BackendNATS     StateBackend = "nats"
	BackendSQLite   StateBackend = "sqlite"
	BackendPostgres StateBackend = "postgres"
	BackendMemory   StateBackend = "memory"
)

var backendNormalizer = normalization.NewNormalizer("state backend", map[string]StateBackend{
	"file":       BackendFile,
	"fs":         BackendFile,
	"nats":       BackendNATS,
	"sqlite":     BackendSQLite,
	"postgres":   BackendPostgres,
	"postgresql": BackendPostgres,
	"memory":     BackendMemory,
}, BackendFile)

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

var logFormatNormalizer = normalization.NewNormalizer("log format", map[string]LogFormat{
	"text": LogFormatText,
	"json": LogFormatJSON,
}, LogFormatText)

// NormalizeLogFormat maps user input to a LogFormat, defaulting to text.
func NormalizeLogFormat(raw string) LogFormat {
	return logFormatNormalizer.Normalize(raw)
}
