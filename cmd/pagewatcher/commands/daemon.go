package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/pagewatcher/internal/config"
	"git.home.luguber.info/inful/pagewatcher/internal/daemon"
	"git.home.luguber.info/inful/pagewatcher/internal/metrics"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	NoWatch bool `name:"no-watch" help:"Do not reload when the configuration file changes"`
}

func (d *DaemonCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if d.NoWatch {
		cfg.Daemon.DisableConfigWatch = true
	}
	return RunDaemon(g, root.Config, cfg)
}

func RunDaemon(g *Global, configPath string, cfg *config.Config) error {
	logger := g.logger()
	logger.Info("Starting daemon mode", "targets", len(cfg.Targets), "interval", cfg.Daemon.Interval, "cron", cfg.Daemon.Cron)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	recorder := metrics.NewPrometheusRecorder(nil)
	d := daemon.New(configPath, cfg, runtimeFactory(recorder, logger), recorder)

	if err := d.Start(ctx); err != nil {
		_ = d.Stop(context.Background())
		return fmt.Errorf("daemon error: %w", err)
	}
	logger.Info("Daemon started, waiting for shutdown signal...")

	<-ctx.Done()
	logger.Info("Shutdown signal received, stopping daemon...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()

	if err := d.Stop(stopCtx); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}

	logger.Info("Daemon stopped successfully")
	return nil
}
