package config

import (
	"fmt"
	"net/url"
	"regexp"

	"github.com/robfig/cron/v3"

	"git.home.luguber.info/inful/pagewatcher/internal/foundation/errors"
)

// targetKeyPattern keeps keys usable as directory names, NATS key tokens and SQL values.
var targetKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	return v.validate()
}

type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateState(); err != nil {
		return err
	}
	if err := cv.validateFetch(); err != nil {
		return err
	}
	if err := cv.validateNotify(); err != nil {
		return err
	}
	if err := cv.validateDaemon(); err != nil {
		return err
	}
	if _, err := cv.config.Location(); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid timezone").
			WithContext("timezone", cv.config.Timezone).
			Build()
	}
	return cv.validateTargets()
}

func (cv *configurationValidator) validateState() error {
	s := cv.config.State
	switch s.Backend {
	case BackendFile:
		if s.Dir == "" {
			return errors.ConfigError("state.dir is required for the file backend").Build()
		}
	case BackendNATS:
		if s.NATSURL == "" {
			return errors.ConfigError("state.nats_url is required for the nats backend").Build()
		}
	case BackendSQLite, BackendPostgres:
		if s.DSN == "" {
			return errors.ConfigError(fmt.Sprintf("state.dsn is required for the %s backend", s.Backend)).Build()
		}
	case BackendMemory:
	default:
		return errors.ConfigError(fmt.Sprintf("unsupported state backend %q", s.Backend)).Build()
	}
	return nil
}

func (cv *configurationValidator) validateFetch() error {
	f := cv.config.Fetch
	if f.Retries != nil && *f.Retries < 0 {
		return errors.ConfigError("fetch.retries cannot be negative").Build()
	}
	return nil
}

func (cv *configurationValidator) validateNotify() error {
	n := cv.config.Notify
	if n.NATS != nil && n.NATS.URL == "" {
		return errors.ConfigError("notify.nats.url is required when notify.nats is set").Build()
	}
	if n.Webhook != nil {
		if err := validateHTTPURL(n.Webhook.URL); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "invalid notify.webhook.url").Build()
		}
	}
	return nil
}

func (cv *configurationValidator) validateDaemon() error {
	d := cv.config.Daemon
	if d.Interval <= 0 {
		return errors.ConfigError(fmt.Sprintf("daemon.interval must be positive, got %s", d.Interval)).Build()
	}
	if d.Cron != "" {
		// the scheduler runs five-field expressions, as cron.ParseStandard accepts
		if _, err := cron.ParseStandard(d.Cron); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "invalid daemon.cron").
				WithContext("cron", d.Cron).
				Build()
		}
	}
	return nil
}

func (cv *configurationValidator) validateTargets() error {
	if len(cv.config.Targets) == 0 {
		return errors.ConfigError("at least one target must be configured").Build()
	}

	seen := make(map[string]struct{}, len(cv.config.Targets))
	for i, t := range cv.config.Targets {
		if t.Key == "" {
			return errors.ConfigError(fmt.Sprintf("targets[%d]: key is required", i)).Build()
		}
		if !targetKeyPattern.MatchString(t.Key) {
			return errors.ConfigError(fmt.Sprintf("targets[%d]: key %q may only contain letters, digits, '-' and '_'", i, t.Key)).Build()
		}
		if _, dup := seen[t.Key]; dup {
			return errors.ConfigError(fmt.Sprintf("duplicate target key %q", t.Key)).Build()
		}
		seen[t.Key] = struct{}{}

		if err := validateHTTPURL(t.URL); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "invalid target url").WithContext("target", t.Key).Build()
		}
		if t.Detector == DetectorBlockText && t.BlockText == "" {
			return errors.ConfigError(fmt.Sprintf("target %q: block_text is required for the block_text detector", t.Key)).Build()
		}
		if t.Next != nil && t.Next.Control == "" {
			return errors.ConfigError(fmt.Sprintf("target %q: next.control must name the pagination control", t.Key)).Build()
		}
	}
	return nil
}

func validateHTTPURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url %q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	return nil
}
