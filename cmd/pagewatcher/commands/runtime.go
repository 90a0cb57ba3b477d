package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/pagewatcher/internal/config"
	"git.home.luguber.info/inful/pagewatcher/internal/daemon"
	"git.home.luguber.info/inful/pagewatcher/internal/fetch"
	ferrors "git.home.luguber.info/inful/pagewatcher/internal/foundation/errors"
	"git.home.luguber.info/inful/pagewatcher/internal/metrics"
	"git.home.luguber.info/inful/pagewatcher/internal/notify"
	"git.home.luguber.info/inful/pagewatcher/internal/state"
	"git.home.luguber.info/inful/pagewatcher/internal/watch"
)

// runtime owns the engine and the resources it was built from.
type runtime struct {
	*watch.Engine
	backend state.Backend
	sinks   notify.Multi
}

var _ daemon.Runtime = (*runtime)(nil)

// newRuntime opens the state backend and notification sinks described by cfg.
func newRuntime(ctx context.Context, cfg *config.Config, recorder metrics.Recorder, logger *slog.Logger) (*runtime, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid timezone").
			WithContext("timezone", cfg.Timezone).
			Build()
	}

	backend, err := state.Open(ctx, cfg.State)
	if err != nil {
		return nil, err
	}
	sinks, err := notify.FromConfig(cfg.Notify)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	// A nil Multi stored in the interface would look like a configured sink.
	var notifier notify.Notifier
	if len(sinks) > 0 {
		notifier = sinks
	} else {
		logger.Debug("No notification sink configured")
	}

	var mention string
	if cfg.Notify.Discord != nil {
		mention = cfg.Notify.Discord.Mention
	}

	fetcher := fetch.NewHTTPFetcher(cfg.Fetch, fetch.WithRecorder(recorder), fetch.WithLogger(logger))
	engine := watch.NewEngine(watch.Config{
		Now:       time.Now,
		Location:  loc,
		Mention:   mention,
		LockStale: cfg.State.LockStale,
	}, backend, fetcher, notifier, recorder, logger)

	return &runtime{Engine: engine, backend: backend, sinks: sinks}, nil
}

// Close releases the sinks and the backend.
func (r *runtime) Close() error {
	return errors.Join(r.sinks.Close(), r.backend.Close())
}

// runtimeFactory adapts newRuntime to the daemon.
func runtimeFactory(recorder metrics.Recorder, logger *slog.Logger) daemon.RuntimeFactory {
	return func(ctx context.Context, cfg *config.Config) (daemon.Runtime, error) {
		rt, err := newRuntime(ctx, cfg, recorder, logger)
		if err != nil {
			return nil, err
		}
		return rt, nil
	}
}

// openStore loads cfg and returns the store of one target for the state commands.
func openStore(ctx context.Context, configPath, key string) (*config.Config, config.Target, *state.Store, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, config.Target{}, nil, nil, err
	}
	target, err := cfg.Target(key)
	if err != nil {
		return nil, config.Target{}, nil, nil, err
	}
	backend, err := state.Open(ctx, cfg.State)
	if err != nil {
		return nil, config.Target{}, nil, nil, err
	}
	closeFn := func() {
		if err := backend.Close(); err != nil {
			slog.Warn("Failed to close state backend", "error", err)
		}
	}
	return cfg, target, state.NewStore(backend, target.Key), closeFn, nil
}
