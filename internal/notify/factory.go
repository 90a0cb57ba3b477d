package notify

import (
	"log/slog"

	"git.home.luguber.info/inful/pagewatcher/internal/config"
	ferrors "git.home.luguber.info/inful/pagewatcher/internal/foundation/errors"
)

// FromConfig builds the configured sinks. It returns nil when none is configured.
func FromConfig(cfg config.NotifyConfig) (Multi, error) {
	var sinks Multi
	if u := cfg.Discord.URL(); u != "" {
		sinks = append(sinks, NewDiscord(u, nil))
	} else if cfg.Discord != nil {
		slog.Debug("Discord webhook incomplete, sink disabled")
	}
	if cfg.Webhook != nil {
		sinks = append(sinks, NewWebhook(cfg.Webhook.URL, cfg.Webhook.Headers, nil))
	}
	if cfg.NATS != nil {
		p, err := NewNATSPublisher(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			_ = sinks.Close()
			return nil, ferrors.WrapError(err, ferrors.CategoryNotify, "failed to create NATS publisher").Build()
		}
		sinks = append(sinks, p)
	}
	return sinks, nil
}
