package daemon

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/pagewatcher/internal/config"
	ferrors "git.home.luguber.info/inful/pagewatcher/internal/foundation/errors"
	"git.home.luguber.info/inful/pagewatcher/internal/logfields"
	"git.home.luguber.info/inful/pagewatcher/internal/metrics"
	"git.home.luguber.info/inful/pagewatcher/internal/watch"
)

// Runtime runs cycles with everything built from one configuration.
type Runtime interface {
	Run(ctx context.Context, target config.Target, opts watch.Options) (watch.Outcome, error)
	Close() error
}

// RuntimeFactory builds a Runtime for cfg.
type RuntimeFactory func(ctx context.Context, cfg *config.Config) (Runtime, error)

// Daemon runs every configured target on a schedule until stopped.
type Daemon struct {
	configPath string
	factory    RuntimeFactory
	recorder   *metrics.PrometheusRecorder

	// runMu is held for a whole pass over the targets and while swapping the
	// runtime, so a reload never closes a runtime that is in use.
	runMu sync.Mutex
	cfg   *config.Config
	rt    Runtime

	jobID string // the scheduled watch job, replaced on reload

	ctx       context.Context
	scheduler *Scheduler
	watcher   *ConfigWatcher
	server    *http.Server
	debounce  time.Duration
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithDebounce sets the config watcher debounce.
func WithDebounce(d time.Duration) Option { return func(dm *Daemon) { dm.debounce = d } }

// New creates a daemon. recorder may be nil when metrics are not served.
func New(configPath string, cfg *config.Config, factory RuntimeFactory, recorder *metrics.PrometheusRecorder, opts ...Option) *Daemon {
	d := &Daemon{configPath: configPath, cfg: cfg, factory: factory, recorder: recorder}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start builds the runtime, schedules the watch job and starts the optional
// config watcher and metrics endpoint. It returns once everything is running.
func (d *Daemon) Start(ctx context.Context) error {
	d.ctx = ctx

	rt, err := d.factory(ctx, d.cfg)
	if err != nil {
		return err
	}
	d.rt = rt

	s, err := NewScheduler()
	if err != nil {
		return ferrors.DaemonError("failed to create scheduler").WithCause(err).Build()
	}
	d.scheduler = s
	if d.jobID, err = d.scheduleJobs(d.cfg); err != nil {
		return err
	}
	d.scheduler.Start(ctx)

	if !d.cfg.Daemon.DisableConfigWatch && d.configPath != "" {
		w, err := NewConfigWatcher(d.configPath, d.debounce, d.reloadFromDisk)
		if err != nil {
			return ferrors.DaemonError("failed to create config watcher").WithCause(err).Build()
		}
		if err := w.Start(ctx); err != nil {
			return ferrors.DaemonError("failed to start config watcher").WithCause(err).Build()
		}
		d.watcher = w
	}

	if addr := d.cfg.Metrics.Listen; addr != "" {
		d.server = &http.Server{Addr: addr, Handler: d.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			slog.Info("Serving metrics", "addr", addr)
			if err := d.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", logfields.Error(err))
			}
		}()
	}
	return nil
}

// Stop shuts everything down and waits for a running pass to finish.
func (d *Daemon) Stop(ctx context.Context) error {
	var errs []error
	if d.watcher != nil {
		errs = append(errs, d.watcher.Stop())
	}
	if d.server != nil {
		errs = append(errs, d.server.Shutdown(ctx))
	}
	if d.scheduler != nil {
		errs = append(errs, d.scheduler.Stop(ctx))
	}

	d.runMu.Lock()
	defer d.runMu.Unlock()
	if d.rt != nil {
		errs = append(errs, d.rt.Close())
		d.rt = nil
	}
	return errors.Join(errs...)
}

// Handler serves /metrics and /healthz.
func (d *Daemon) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(d.recorder.Registry()))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// scheduleJobs adds the watch job for cfg and returns its id.
func (d *Daemon) scheduleJobs(cfg *config.Config) (string, error) {
	var (
		id  string
		err error
	)
	if cfg.Daemon.Cron != "" {
		id, err = d.scheduler.ScheduleCron("watch-cycle", cfg.Daemon.Cron, d.runPass)
	} else {
		id, err = d.scheduler.ScheduleEvery("watch-cycle", cfg.Daemon.Interval, d.runPass)
	}
	if err != nil {
		return "", ferrors.DaemonError("failed to schedule watch job").WithCause(err).
			WithContext("cron", cfg.Daemon.Cron).
			WithContext("interval", cfg.Daemon.Interval.String()).
			Build()
	}
	return id, nil
}

// runPass runs one cycle per target, one after another.
func (d *Daemon) runPass() {
	d.runMu.Lock()
	defer d.runMu.Unlock()
	if d.rt == nil || d.ctx.Err() != nil {
		return
	}

	for _, target := range d.cfg.Targets {
		if d.ctx.Err() != nil {
			return
		}
		out, err := d.rt.Run(d.ctx, target, watch.Options{})
		if err != nil {
			slog.Error("Watch cycle failed", logfields.Target(target.Key), logfields.Error(err))
			continue
		}
		slog.Debug("Watch cycle finished",
			logfields.Target(target.Key),
			logfields.Status(string(out.Status)),
			logfields.Outcome(string(out.Skipped)))
	}
}

func (d *Daemon) reloadFromDisk(ctx context.Context) error {
	cfg, err := config.Load(d.configPath)
	if err != nil {
		return err
	}
	return d.ReloadConfig(ctx, cfg)
}

// ReloadConfig swaps in a runtime built from cfg and reschedules the watch job.
// The new job is scheduled before the old one is removed; on error the running
// configuration, runtime and job stay in place.
func (d *Daemon) ReloadConfig(ctx context.Context, cfg *config.Config) error {
	rt, err := d.factory(ctx, cfg)
	if err != nil {
		return err
	}

	d.runMu.Lock()
	jobID, err := d.scheduleJobs(cfg)
	if err != nil {
		d.runMu.Unlock()
		if cerr := rt.Close(); cerr != nil {
			slog.Warn("Failed to close rejected runtime", logfields.Error(cerr))
		}
		slog.Error("Configuration reload rejected, keeping previous configuration", logfields.Error(err))
		return err
	}
	old, oldJob := d.rt, d.jobID
	d.cfg, d.rt, d.jobID = cfg, rt, jobID
	if oldJob != "" {
		if rerr := d.scheduler.Remove(oldJob); rerr != nil {
			slog.Warn("Failed to remove previous watch job", logfields.Error(rerr))
		}
	}
	d.runMu.Unlock()

	if old != nil {
		if cerr := old.Close(); cerr != nil {
			slog.Warn("Failed to close previous runtime", logfields.Error(cerr))
		}
	}
	slog.Info("Configuration reloaded", slog.Int("targets", len(cfg.Targets)))
	return nil
}

// Config returns the active configuration.
func (d *Daemon) Config() *config.Config {
	d.runMu.Lock()
	defer d.runMu.Unlock()
	return d.cfg
}
