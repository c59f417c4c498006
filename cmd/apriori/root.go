package main

import (
	"apriori-backend/internal/analysis"
	"apriori-backend/internal/config"

	"github.com/spf13/cobra"
)

// cliOptions are the persistent flags shared by every subcommand.
type cliOptions struct {
	cfgFile    string
	heuristics string
	quiet      bool

	cfg *config.Config
	h   analysis.Heuristics
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}
	root := &cobra.Command{
		Use:           "apriori",
		Short:         "Mine association rules from transaction files and query recommendations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
	}
	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (yaml, json or toml)")
	root.PersistentFlags().StringVar(&opts.heuristics, "heuristics", "", "heuristics YAML file (overrides config)")
	root.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "disable the progress bar")

	root.AddCommand(newMineCmd(opts), newRecommendCmd(opts))
	return root
}

func (o *cliOptions) load() error {
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return err
	}
	path := cfg.HeuristicsFile
	if o.heuristics != "" {
		path = o.heuristics
	}
	h, err := analysis.LoadHeuristics(path)
	if err != nil {
		return err
	}
	o.cfg, o.h = cfg, h
	return nil
}
