package config

import (
	"time"
	_ "time/tzdata" // event timestamps use a named zone even on minimal images
)

const (
	defaultTimezone       = "Asia/Tokyo"
	defaultStateDir       = "/var/lib/page-watcher"
	defaultLockStale      = time.Hour
	defaultUserAgent      = "Mozilla/5.0 (PageWatcher/0.1; +https://example.invalid/)"
	defaultAcceptLanguage = "ja,en;q=0.8"
	defaultFetchTimeout   = 20 * time.Second
	defaultFetchRetries   = 2
	defaultRetryInitial   = time.Second
	defaultRetryMax       = 30 * time.Second
	defaultNATSBucket     = "page-watcher-state"
	defaultNATSSubject    = "pagewatcher.events"
	defaultSQLitePath     = "pagewatcher.db"
	defaultDaemonInterval = 5 * time.Minute
)

// DefaultMarkerClasses are the table cell classes that mean "slots are open".
var DefaultMarkerClasses = []string{"status_2", "status_3"}

// applyDefaults fills zero values. It runs after normalization.
func applyDefaults(cfg *Config) {
	applyStateDefaults(&cfg.State)
	applyFetchDefaults(&cfg.Fetch)

	if cfg.Notify.NATS != nil && cfg.Notify.NATS.Subject == "" {
		cfg.Notify.NATS.Subject = defaultNATSSubject
	}
	if cfg.Daemon.Interval == 0 {
		cfg.Daemon.Interval = defaultDaemonInterval
	}

	for i := range cfg.Targets {
		t := &cfg.Targets[i]
		if t.Detector == DetectorMarker && len(t.MarkerClasses) == 0 {
			t.MarkerClasses = append([]string(nil), DefaultMarkerClasses...)
		}
	}
}

func applyStateDefaults(s *StateConfig) {
	if s.Backend == "" {
		s.Backend = BackendFile
	}
	if s.Backend == BackendFile && s.Dir == "" {
		s.Dir = defaultStateDir
	}
	if s.Backend == BackendNATS && s.Bucket == "" {
		s.Bucket = defaultNATSBucket
	}
	if s.Backend == BackendSQLite && s.DSN == "" {
		s.DSN = defaultSQLitePath
	}
	if s.LockStale <= 0 {
		s.LockStale = defaultLockStale
	}
}

func applyFetchDefaults(f *FetchConfig) {
	if f.UserAgent == "" {
		f.UserAgent = defaultUserAgent
	}
	if f.AcceptLanguage == "" {
		f.AcceptLanguage = defaultAcceptLanguage
	}
	if f.Timeout <= 0 {
		f.Timeout = defaultFetchTimeout
	}
	if f.Retries == nil {
		n := defaultFetchRetries
		f.Retries = &n
	}
	if f.RetryBackoff == "" {
		f.RetryBackoff = RetryBackoffLinear
	}
	if f.RetryInitialDelay <= 0 {
		f.RetryInitialDelay = defaultRetryInitial
	}
	if f.RetryMaxDelay <= 0 {
		f.RetryMaxDelay = defaultRetryMax
	}
}
