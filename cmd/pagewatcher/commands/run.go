package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/pagewatcher/internal/config"
	"git.home.luguber.info/inful/pagewatcher/internal/logfields"
	"git.home.luguber.info/inful/pagewatcher/internal/metrics"
	"git.home.luguber.info/inful/pagewatcher/internal/watch"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	Target   string `short:"t" required:"" help:"Key of the target to check"`
	Force    bool   `help:"Check a single-shot target even if it already fired"`
	NoNotify bool   `name:"no-notify" help:"Persist state but send no notification"`
}

func (r *RunCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	_, err = RunOnce(ctx, g, cfg, r.Target, watch.Options{Force: r.Force, NoNotify: r.NoNotify})
	return err
}

// RunOnce executes one cycle for key and writes the metrics textfile when configured.
func RunOnce(ctx context.Context, g *Global, cfg *config.Config, key string, opts watch.Options) (watch.Outcome, error) {
	logger := g.logger()
	target, err := cfg.Target(key)
	if err != nil {
		return watch.Outcome{}, err
	}

	var (
		recorder metrics.Recorder = metrics.NoopRecorder{}
		prom     *metrics.PrometheusRecorder
	)
	if cfg.Metrics.Textfile != "" {
		prom = metrics.NewPrometheusRecorder(nil)
		recorder = prom
	}

	rt, err := newRuntime(ctx, cfg, recorder, logger)
	if err != nil {
		return watch.Outcome{}, err
	}
	defer func() {
		if cerr := rt.Close(); cerr != nil {
			logger.Warn("Failed to close runtime", logfields.Error(cerr))
		}
	}()

	out, err := rt.Run(ctx, target, opts)

	if prom != nil {
		if werr := metrics.WriteTextfile(cfg.Metrics.Textfile, prom.Registry()); werr != nil {
			logger.Warn("Failed to write metrics textfile", "path", cfg.Metrics.Textfile, logfields.Error(werr))
		}
	}
	if err != nil {
		return out, err
	}

	_, _ = fmt.Fprintln(g.out(), describe(target.Key, out))
	return out, nil
}

// describe renders a one-line summary of a finished cycle.
func describe(key string, out watch.Outcome) string {
	switch {
	case out.Skipped == watch.SkipTriggered:
		return fmt.Sprintf("%s: already triggered, skipped", key)
	case out.Skipped == watch.SkipLocked:
		return fmt.Sprintf("%s: locked by another run, skipped", key)
	case out.Event != nil && out.NotifyErr != nil:
		return fmt.Sprintf("%s: %s (%s), notification failed: %v", key, out.Event.Reason, out.Status, out.NotifyErr)
	case out.Event != nil:
		return fmt.Sprintf("%s: %s (%s)", key, out.Event.Reason, out.Status)
	default:
		return fmt.Sprintf("%s: no change (%s)", key, out.Status)
	}
}
