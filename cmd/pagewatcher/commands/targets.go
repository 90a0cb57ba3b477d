package commands

import (
	"fmt"
	"text/tabwriter"

	"git.home.luguber.info/inful/pagewatcher/internal/config"
)

// TargetsCmd implements the 'targets' command.
type TargetsCmd struct{}

func (t *TargetsCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "KEY\tMODE\tDETECTOR\tURL")
	for _, target := range cfg.Targets {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", target.Key, target.Mode, target.Detector, target.URL)
	}
	return tw.Flush()
}
