package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/fortuna/scoretree/internal/jobs"
)

var harvestFlags struct {
	nodes       string
	out         string
	dryRun      bool
	stripMarkup bool
}

func init() {
	f := harvestCmd.Flags()
	f.StringVar(&harvestFlags.nodes, "nodes", "", "Node registry file to read (default from config).")
	f.StringVar(&harvestFlags.out, "out", "", "CSV file to write records to (default from config).")
	f.BoolVar(&harvestFlags.dryRun, "dry-run", false, "Load the registry without issuing requests.")
	f.BoolVar(&harvestFlags.stripMarkup, "strip-markup", false, "Strip HTML markup from comments before sanitizing.")
	rootCmd.AddCommand(harvestCmd)
}

var harvestCmd = &cobra.Command{
	Use:   "harvest [--nodes nba_root_ids.json] [--out match_stats.csv]",
	Short: "Fetches player ratings and hot comments for every registered node.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		nodesPath := a.cfg.Harvest.NodesPath
		if harvestFlags.nodes != "" {
			nodesPath = harvestFlags.nodes
		}
		out := a.cfg.Harvest.OutputPath
		if harvestFlags.out != "" {
			out = harvestFlags.out
		}
		if cmd.Flags().Changed("strip-markup") {
			a.cfg.Harvest.StripMarkup = harvestFlags.stripMarkup
		}

		runner := jobs.NewRunner(nil, harvestJob{app: a, out: out}, a.nodeSource(nodesPath))
		spec := jobs.JobSpec{Type: jobs.JobTypeHarvest, DryRun: harvestFlags.dryRun}

		start := time.Now()
		result, err := runner.Run(ctx, spec, jobs.NewLogReporter(a.log, spec.DryRun))
		if err != nil {
			return err
		}
		printSummary(cmd.OutOrStdout(), spec.Type, result, time.Since(start))
		return nil
	},
}
