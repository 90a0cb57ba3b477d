package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/pagewatcher/internal/foundation/errors"
)

// CurrentVersion is the only configuration version understood by Load.
const CurrentVersion = "1.0"

// Config is the full page watcher configuration. It is treated as immutable once
// Load returns; components receive the sections they need by value.
type Config struct {
	Version  string        `yaml:"version"`
	Timezone string        `yaml:"timezone,omitempty"`
	State    StateConfig   `yaml:"state"`
	Fetch    FetchConfig   `yaml:"fetch"`
	Notify   NotifyConfig  `yaml:"notify,omitempty"`
	Metrics  MetricsConfig `yaml:"metrics,omitempty"`
	Daemon   DaemonConfig  `yaml:"daemon,omitempty"`
	Targets  []Target      `yaml:"targets"`
}

// StateConfig selects and configures the per-target state substrate.
type StateConfig struct {
	Backend   StateBackend  `yaml:"backend"`
	Dir       string        `yaml:"dir,omitempty"`      // file backend base directory
	NATSURL   string        `yaml:"nats_url,omitempty"` // nats backend
	Bucket    string        `yaml:"bucket,omitempty"`   // nats KV bucket
	DSN       string        `yaml:"dsn,omitempty"`      // sqlite path or postgres DSN
	LockStale time.Duration `yaml:"lock_stale,omitempty"`
}

// FetchConfig configures the HTTP fetch layer.
type FetchConfig struct {
	UserAgent         string           `yaml:"user_agent"`
	AcceptLanguage    string           `yaml:"accept_language,omitempty"`
	Timeout           time.Duration    `yaml:"timeout"`
	Retries           *int             `yaml:"retries,omitempty"`
	RetryBackoff      RetryBackoffMode `yaml:"retry_backoff,omitempty"`
	RetryInitialDelay time.Duration    `yaml:"retry_initial_delay,omitempty"`
	RetryMaxDelay     time.Duration    `yaml:"retry_max_delay,omitempty"`
}

// MaxRetries returns the configured retry count (defaults applied by Load).
func (f FetchConfig) MaxRetries() int {
	if f.Retries == nil {
		return defaultFetchRetries
	}
	return *f.Retries
}

// NotifyConfig lists the notification sinks. All configured sinks receive every message.
type NotifyConfig struct {
	Discord *DiscordConfig    `yaml:"discord,omitempty"`
	NATS    *NATSNotifyConfig `yaml:"nats,omitempty"`
	Webhook *WebhookConfig    `yaml:"webhook,omitempty"`
}

// Empty reports whether no sink is configured.
func (n NotifyConfig) Empty() bool {
	return (n.Discord == nil || n.Discord.URL() == "") && n.NATS == nil && n.Webhook == nil
}

// DiscordConfig configures the Discord webhook sink. Either WebhookURL or the
// ChannelID/Token pair identify the webhook.
type DiscordConfig struct {
	WebhookURL string `yaml:"webhook_url,omitempty"`
	ChannelID  string `yaml:"channel_id,omitempty"`
	Token      string `yaml:"token,omitempty"`
	Mention    string `yaml:"mention,omitempty"` // user id, rendered as <@id>
}

// URL returns the webhook URL, or "" when the webhook is not fully specified.
func (d *DiscordConfig) URL() string {
	if d == nil {
		return ""
	}
	if d.WebhookURL != "" {
		return d.WebhookURL
	}
	if d.ChannelID == "" || d.Token == "" {
		return ""
	}
	return fmt.Sprintf("https://discord.com/api/webhooks/%s/%s", d.ChannelID, d.Token)
}

// NATSNotifyConfig configures publishing trigger events to NATS.
type NATSNotifyConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject,omitempty"`
}

// WebhookConfig configures the generic JSON webhook sink.
type WebhookConfig struct {
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers,omitempty"`
}

// MetricsConfig configures Prometheus output.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"` // written after each run (node_exporter textfile collector)
	Listen   string `yaml:"listen,omitempty"`   // daemon only, serves /metrics
}

// DaemonConfig configures the in-process scheduler.
type DaemonConfig struct {
	Interval           time.Duration `yaml:"interval,omitempty"`
	Cron               string        `yaml:"cron,omitempty"` // overrides interval when set
	DisableConfigWatch bool          `yaml:"disable_config_watch,omitempty"`
}

// Target describes one watched page. Targets are immutable after load.
type Target struct {
	Key           string       `yaml:"key"`
	URL           string       `yaml:"url"`
	Mode          WatchMode    `yaml:"mode,omitempty"`
	Detector      DetectorKind `yaml:"detector,omitempty"`
	MarkerClasses []string     `yaml:"marker_classes,omitempty"`
	BlockText     string       `yaml:"block_text,omitempty"`
	WaitFor       string       `yaml:"wait_for,omitempty"`
	Next          *NextPage    `yaml:"next,omitempty"`
	Label         string       `yaml:"label,omitempty"` // heading tag to extract, e.g. h1
	Mention       string       `yaml:"mention,omitempty"`
}

// NextPage configures the secondary interaction used when the primary page shows nothing.
type NextPage struct {
	Control string `yaml:"control"`
}

// WaitPath splits WaitFor into element names ("tbody tr td" -> [tbody tr td]).
func (t Target) WaitPath() []string {
	return strings.Fields(t.WaitFor)
}

// Target returns the target with the given key.
func (c *Config) Target(key string) (Target, error) {
	for _, t := range c.Targets {
		if t.Key == key {
			return t, nil
		}
	}
	keys := make([]string, 0, len(c.Targets))
	for _, t := range c.Targets {
		keys = append(keys, t.Key)
	}
	return Target{}, errors.NotFoundError(fmt.Sprintf("unknown target %q", key)).
		WithContext("known_targets", strings.Join(keys, ",")).
		Build()
}

// Location resolves the configured time zone used for event timestamps.
func (c *Config) Location() (*time.Location, error) {
	switch c.Timezone {
	case "":
		return time.LoadLocation(defaultTimezone)
	case "Local", "local":
		return time.Local, nil
	default:
		return time.LoadLocation(c.Timezone)
	}
}

// Load reads, expands, normalizes, defaults and validates a configuration file.
func Load(configPath string) (*Config, error) {
	loadEnvFiles(configPath)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}

	return Parse(data)
}

// Parse decodes configuration bytes. Environment references (${VAR}) are expanded
// first; a bare $ is kept verbatim.
func Parse(data []byte) (*Config, error) {
	expanded := expandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Fatal().Build()
	}

	if cfg.Version != CurrentVersion {
		return nil, errors.ConfigError(fmt.Sprintf("unsupported configuration version: %q (expected %s)", cfg.Version, CurrentVersion)).Build()
	}

	if err := normalizeConfig(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalizeConfig folds enum spellings into canonical values; unknown values are errors.
func normalizeConfig(cfg *Config) error {
	var err error
	if cfg.State.Backend, err = backendNormalizer.Parse(string(cfg.State.Backend)); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid state.backend").Build()
	}
	if cfg.Fetch.RetryBackoff, err = retryBackoffNormalizer.Parse(string(cfg.Fetch.RetryBackoff)); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid fetch.retry_backoff").Build()
	}
	for i := range cfg.Targets {
		t := &cfg.Targets[i]
		if t.Mode, err = watchModeNormalizer.Parse(string(t.Mode)); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "invalid target mode").WithContext("target", t.Key).Build()
		}
		if t.Detector, err = detectorNormalizer.Parse(string(t.Detector)); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "invalid target detector").WithContext("target", t.Key).Build()
		}
		t.Key = strings.TrimSpace(t.Key)
		t.URL = strings.TrimSpace(t.URL)
		t.Label = strings.ToLower(strings.TrimSpace(t.Label))
	}
	return nil
}
