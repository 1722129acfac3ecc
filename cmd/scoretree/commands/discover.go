package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/fortuna/scoretree/internal/jobs"
)

var discoverFlags struct {
	minID  int64
	maxID  int64
	out    string
	dryRun bool
}

func init() {
	f := discoverCmd.Flags()
	f.Int64Var(&discoverFlags.minID, "min-id", 0, "First outBizNo to scan (default from config).")
	f.Int64Var(&discoverFlags.maxID, "max-id", 0, "Last outBizNo to scan (default from config).")
	f.StringVar(&discoverFlags.out, "out", "", "Node registry file to write (default from config).")
	f.BoolVar(&discoverFlags.dryRun, "dry-run", false, "Print the scan plan without issuing requests.")
	rootCmd.AddCommand(discoverCmd)
}

var discoverCmd = &cobra.Command{
	Use:   "discover [--min-id N] [--max-id N] [--out nba_root_ids.json]",
	Short: "Scans a range of match ids and records the score-tree root nodes of NBA games.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		spec := jobs.JobSpec{
			Type:   jobs.JobTypeDiscovery,
			MinID:  a.cfg.Discovery.MinID,
			MaxID:  a.cfg.Discovery.MaxID,
			DryRun: discoverFlags.dryRun,
		}
		if cmd.Flags().Changed("min-id") {
			spec.MinID = discoverFlags.minID
		}
		if cmd.Flags().Changed("max-id") {
			spec.MaxID = discoverFlags.maxID
		}
		if err := jobs.ValidateRange(spec.MinID, spec.MaxID, a.cfg.Discovery.MaxRange); err != nil {
			return err
		}
		out := a.cfg.Discovery.OutputPath
		if discoverFlags.out != "" {
			out = discoverFlags.out
		}

		runner := jobs.NewRunner(discoverJob{app: a, out: out}, nil, nil)

		start := time.Now()
		result, err := runner.Run(ctx, spec, jobs.NewLogReporter(a.log, spec.DryRun))
		if err != nil {
			return err
		}
		printSummary(cmd.OutOrStdout(), spec.Type, result, time.Since(start))
		return nil
	},
}
