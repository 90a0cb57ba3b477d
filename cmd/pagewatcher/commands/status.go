package commands

import (
	"context"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/pagewatcher/internal/config"
	ferrors "git.home.luguber.info/inful/pagewatcher/internal/foundation/errors"
	"git.home.luguber.info/inful/pagewatcher/internal/state"
)

// StatusCmd implements the 'status' command.
type StatusCmd struct {
	Target string `short:"t" required:"" help:"Key of the target to inspect"`
}

type statusReport struct {
	Target string           `yaml:"target"`
	URL    string           `yaml:"url"`
	Mode   config.WatchMode `yaml:"mode"`
	State  state.WatchState `yaml:"state"`
	Lock   *state.LockInfo  `yaml:"lock,omitempty"`
}

func (s *StatusCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	_, target, store, closeFn, err := openStore(ctx, root.Config, s.Target)
	if err != nil {
		return err
	}
	defer closeFn()

	st, err := store.Load(ctx)
	if err != nil {
		return err
	}
	holder, err := store.LockHolder(ctx)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(g.out())
	enc.SetIndent(2)
	if err := enc.Encode(statusReport{Target: target.Key, URL: target.URL, Mode: target.Mode, State: st, Lock: holder}); err != nil {
		return ferrors.InternalError("failed to encode status").WithCause(err).Build()
	}
	return enc.Close()
}
