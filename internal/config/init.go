package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/pagewatcher/internal/foundation/errors"
)

// Example returns the example configuration written by `pagewatcher init`.
// Secrets stay as ${VAR} references so the file can be committed.
func Example() Config {
	retries := defaultFetchRetries
	return Config{
		Version:  CurrentVersion,
		Timezone: defaultTimezone,
		State: StateConfig{
			Backend:   BackendFile,
			Dir:       "${STATE_BASE_DIR}",
			LockStale: defaultLockStale,
		},
		Fetch: FetchConfig{
			UserAgent:         "${USER_AGENT}",
			Timeout:           defaultFetchTimeout,
			Retries:           &retries,
			RetryBackoff:      RetryBackoffLinear,
			RetryInitialDelay: defaultRetryInitial,
		},
		Notify: NotifyConfig{
			Discord: &DiscordConfig{
				ChannelID: "${DISCORD_CHANNEL_ID}",
				Token:     "${DISCORD_WEBHOOK_TOKEN}",
				Mention:   "${DSK_PLAY_ID}",
			},
		},
		Daemon: DaemonConfig{Interval: defaultDaemonInterval},
		Targets: []Target{
			{
				Key:      "x1919",
				URL:      "https://www.31sumai.com/attend/X1919/",
				Mode:     ModeSingleShot,
				Detector: DetectorMarker,
				WaitFor:  "tbody tr td",
			},
			{
				Key:      "x1413",
				URL:      "https://www.31sumai.com/attend/X1413/",
				Mode:     ModeToggle,
				Detector: DetectorMarker,
				WaitFor:  "tbody tr td",
				Next:     &NextPage{Control: "next"},
				Label:    "h1",
			},
			{
				Key:      "g2571",
				URL:      "https://www.31sumai.com/attend/G2571/2/",
				Mode:     ModeSingleShot,
				Detector: DetectorMarker,
				WaitFor:  "tbody tr td",
			},
		},
	}
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ValidationError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).Build()
	}

	data, err := yaml.Marshal(Example())
	if err != nil {
		return errors.InternalError("failed to marshal example config").WithCause(err).Build()
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "failed to create config directory").Build()
		}
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}
