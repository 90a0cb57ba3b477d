package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/pagewatcher/internal/config"
	"git.home.luguber.info/inful/pagewatcher/internal/detect"
	"git.home.luguber.info/inful/pagewatcher/internal/fetch"
	"git.home.luguber.info/inful/pagewatcher/internal/logfields"
	"git.home.luguber.info/inful/pagewatcher/internal/metrics"
	"git.home.luguber.info/inful/pagewatcher/internal/notify"
	"git.home.luguber.info/inful/pagewatcher/internal/state"
)

// Config is the immutable process-wide input of an Engine.
type Config struct {
	Now       func() time.Time
	Location  *time.Location // zone of event timestamps
	Mention   string         // default Discord user to mention
	LockStale time.Duration
}

// Options are the per-invocation overrides.
type Options struct {
	Force    bool // run even when a single-shot target already fired
	NoNotify bool // persist as usual but do not notify
}

// SkipReason says why a cycle ended without fetching.
type SkipReason string

const (
	SkipNone      SkipReason = ""
	SkipTriggered SkipReason = "triggered"
	SkipLocked    SkipReason = "locked"
)

// Outcome describes a finished cycle.
type Outcome struct {
	Skipped            SkipReason
	Fingerprint        string
	FingerprintChanged bool
	PreviousStatus     state.Status
	Status             state.Status
	UsedSecondary      bool
	Label              string
	Event              *state.TriggerEvent // nil when nothing fired
	Notified           bool
	NotifyErr          error
}

// Engine runs watch cycles against a state backend.
type Engine struct {
	cfg      Config
	backend  state.Backend
	fetcher  fetch.Fetcher
	notifier notify.Notifier
	recorder metrics.Recorder
	logger   *slog.Logger
}

// NewEngine wires an engine. notifier may be nil; recorder and logger default to no-ops.
func NewEngine(cfg Config, backend state.Backend, fetcher fetch.Fetcher, notifier notify.Notifier, recorder metrics.Recorder, logger *slog.Logger) *Engine {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.LockStale <= 0 {
		cfg.LockStale = state.DefaultLockStale
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cfg: cfg, backend: backend, fetcher: fetcher, notifier: notifier, recorder: recorder, logger: logger}
}

// Run executes one cycle for target. Lock contention and an already fired
// single-shot target are successful skips. Fetch and storage failures are errors;
// notification failures are reported in the Outcome only.
func (e *Engine) Run(ctx context.Context, target config.Target, opts Options) (out Outcome, err error) {
	start := time.Now()
	logger := e.logger.With(logfields.Target(target.Key), logfields.Mode(string(target.Mode)))
	store := state.NewStore(e.backend, target.Key).WithClock(e.cfg.Now).WithLogger(logger)
	mode := ModeFor(target.Mode)

	defer func() { e.record(target.Key, out, err, time.Since(start)) }()

	if mode.SkipWhenTriggered() && !opts.Force {
		triggered, err := store.IsTriggered(ctx)
		if err != nil {
			return out, err
		}
		if triggered {
			logger.Debug("Already triggered, skipping")
			out.Skipped = SkipTriggered
			return out, nil
		}
	}

	lock, ok, err := store.TryLock(ctx, e.cfg.LockStale)
	if err != nil {
		return out, err
	}
	if !ok {
		logger.Info("Another run holds the lock, skipping")
		out.Skipped = SkipLocked
		return out, nil
	}
	defer func() {
		if rerr := lock.Release(context.WithoutCancel(ctx)); rerr != nil {
			logger.Error("Failed to release run lock", logfields.Error(rerr))
			if err == nil {
				err = rerr
			}
		}
	}()

	if err := e.observe(ctx, store, target, &out, logger); err != nil {
		return out, err
	}

	reason, fire, err := mode.Decide(ctx, store, Observation{Previous: out.PreviousStatus, Current: out.Status})
	if err != nil {
		return out, err
	}
	if !fire {
		logger.Info("Cycle complete", logfields.Status(string(out.Status)), logfields.PrevStatus(string(out.PreviousStatus)))
		return out, nil
	}

	ev := e.newEvent(target, reason, &out)
	if err := store.MarkTriggered(ctx, ev); err != nil {
		return out, err
	}
	out.Event = &ev
	logger.Info("Transition detected",
		logfields.Reason(string(reason)),
		logfields.Status(string(out.Status)),
		logfields.PrevStatus(string(out.PreviousStatus)),
		logfields.Fingerprint(out.Fingerprint))

	e.notify(ctx, target, opts, &out, logger)
	return out, nil
}

// observe fetches the page (and the secondary page when configured), records the
// fingerprint and fills the status fields of out.
func (e *Engine) observe(ctx context.Context, store *state.Store, target config.Target, out *Outcome, logger *slog.Logger) error {
	fetcher := fetch.ForTarget(e.fetcher, target)
	markup, err := fetcher.Fetch(ctx, target.URL)
	if err != nil {
		logger.Warn("Fetch failed", logfields.URL(target.URL), logfields.Error(err))
		return err
	}

	out.Fingerprint = detect.Fingerprint(markup)
	last, err := store.LastFingerprint(ctx)
	if err != nil {
		return err
	}
	if out.Fingerprint != last {
		if err := store.SaveFingerprint(ctx, out.Fingerprint); err != nil {
			return err
		}
		out.FingerprintChanged = true
		logger.Debug("Page content changed", logfields.Fingerprint(out.Fingerprint))
	}

	if target.Label != "" {
		out.Label = detect.ExtractLabel(markup, target.Label)
	}

	detector := detect.ForTarget(target)
	available := detector.Available(markup)
	if !available && target.Next != nil {
		secondary, err := fetcher.FetchNext(ctx, target.URL, markup, target.Next.Control)
		switch {
		case errors.Is(err, fetch.ErrNoControl):
			logger.Debug("No pagination control on page", slog.String("control", target.Next.Control))
		case err != nil:
			logger.Warn("Secondary fetch failed", logfields.Error(err))
			return err
		default:
			available = detector.Available(secondary)
			out.UsedSecondary = true
		}
	}
	out.Status = state.StatusOf(available)

	out.PreviousStatus, err = store.LastStatus(ctx)
	return err
}

func (e *Engine) newEvent(target config.Target, reason state.Reason, out *Outcome) state.TriggerEvent {
	extra := map[string]any{
		"target_key":      target.Key,
		"previous_status": string(out.PreviousStatus),
		"current_status":  string(out.Status),
	}
	if reason == state.ReasonStatusFound {
		extra["note"] = "a status marker cell was found; check the page"
	} else {
		extra["note"] = fmt.Sprintf("status changed from %s to %s", out.PreviousStatus, out.Status)
	}
	if out.Label != "" && out.Label != detect.UnknownLabel {
		extra["label"] = out.Label
	}
	return state.TriggerEvent{
		ID:          uuid.NewString(),
		TargetKey:   target.Key,
		URL:         target.URL,
		DetectedAt:  e.cfg.Now().In(e.cfg.Location).Truncate(time.Second),
		Reason:      reason,
		Fingerprint: out.Fingerprint,
		Extra:       extra,
	}
}

func (e *Engine) notify(ctx context.Context, target config.Target, opts Options, out *Outcome, logger *slog.Logger) {
	if opts.NoNotify || e.notifier == nil {
		logger.Debug("Notification disabled")
		e.recorder.IncNotification(target.Key, metrics.NotifyDisabled)
		return
	}

	mention := target.Mention
	if mention == "" {
		mention = e.cfg.Mention
	}
	msg := notify.Message{Text: notify.Format(*out.Event, mention, out.Label), Event: out.Event}
	if err := e.notifier.Notify(ctx, msg); err != nil {
		logger.Warn("Notification failed", logfields.Error(err))
		out.NotifyErr = err
		e.recorder.IncNotification(target.Key, metrics.NotifyFailed)
		return
	}
	out.Notified = true
	e.recorder.IncNotification(target.Key, metrics.NotifySent)
}

func (e *Engine) record(target string, out Outcome, err error, d time.Duration) {
	var outcome string
	switch {
	case err != nil:
		outcome = metrics.OutcomeFailed
	case out.Skipped == SkipTriggered:
		outcome = metrics.OutcomeSkippedTriggered
	case out.Skipped == SkipLocked:
		outcome = metrics.OutcomeSkippedLocked
	case out.Event != nil:
		outcome = metrics.OutcomeTriggered
	default:
		outcome = metrics.OutcomeNoChange
	}
	e.recorder.ObserveCycle(target, outcome, d)
	if out.Status != "" {
		e.recorder.SetStatus(target, string(out.Status))
	}
}
