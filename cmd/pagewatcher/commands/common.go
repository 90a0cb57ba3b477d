package commands

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pagewatcher/internal/config"
)

// logLevelEnv overrides the level chosen by --verbose.
const logLevelEnv = "PAGEWATCHER_LOG_LEVEL"

// Global is bound into every command's Run.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer // command output; stdout when nil
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"pagewatcher.yaml" env:"PAGEWATCHER_CONFIG"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log output format (text, json)" default:"text" enum:"text,json"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Run     RunCmd     `cmd:"" help:"Run one watch cycle for a target"`
	Status  StatusCmd  `cmd:"" help:"Print the persisted state of a target"`
	Reset   ResetCmd   `cmd:"" help:"Clear the persisted state of a target and re-arm it"`
	Daemon  DaemonCmd  `cmd:"" help:"Run every target on a schedule"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	Targets TargetsCmd `cmd:"" help:"List configured targets"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	slog.SetDefault(newLogger(os.Stderr, c.Verbose, c.LogFormat, os.Getenv(logLevelEnv)))
	return nil
}

func newLogger(w io.Writer, verbose bool, format, envLevel string) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	if envLevel != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(strings.TrimSpace(envLevel))); err == nil {
			level = l
		}
	}
	opts := &slog.HandlerOptions{Level: level}
	if config.NormalizeLogFormat(format) == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (g *Global) logger() *slog.Logger {
	if g == nil || g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}
