package commands

import (
	"context"
	"fmt"
)

// ResetCmd implements the 'reset' command.
type ResetCmd struct {
	Target string `short:"t" required:"" help:"Key of the target to re-arm"`
}

func (r *ResetCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	_, target, store, closeFn, err := openStore(ctx, root.Config, r.Target)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := store.Reset(ctx); err != nil {
		return err
	}
	g.logger().Info("Target state cleared", "target", target.Key)
	_, _ = fmt.Fprintf(g.out(), "%s: state cleared\n", target.Key)
	return nil
}
