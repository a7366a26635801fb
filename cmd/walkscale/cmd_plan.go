package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/nvandessel/walkscale/internal/config"
	"github.com/nvandessel/walkscale/internal/sweep"
	"github.com/spf13/cobra"
)

type planJSON struct {
	Trace    string         `json:"trace"`
	Label    string         `json:"label"`
	Strategy string         `json:"strategy"`
	Buckets  []sweep.Bucket `json:"buckets"`
}

func newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show the buckets and walk counts of a batch without running it",
		Long: `Expand every trace of a batch file into its sweep: bucket sizes, total
steps per walk and the number of walks requested per bucket.

Example:
  walkscale plan --config sweeps.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				return fmt.Errorf("--config is required")
			}
			batch, err := config.LoadBatch(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			plans := make([]planJSON, len(batch.Walks))
			for i, p := range batch.Walks {
				plan := sweep.Plan(p)
				strategy := sweep.StrategyDirect
				if p.Bucketed() {
					strategy = sweep.StrategyBucketed
				}
				plans[i] = planJSON{Trace: p.TraceName, Label: p.Label(), Strategy: strategy.String(), Buckets: plan}
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(out).Encode(plans)
			}

			fmt.Fprintf(out, "Output: %s\n", batch.OutputFile)
			for _, pl := range plans {
				walks := 0
				for _, b := range pl.Buckets {
					walks += b.NumWalks
				}
				fmt.Fprintf(out, "\n%s (%s, %s): %d buckets, %d walks\n", pl.Trace, pl.Label, pl.Strategy, len(pl.Buckets), walks)

				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "  #\tSIZE\tSTEPS\tWALKS")
				for _, b := range pl.Buckets {
					fmt.Fprintf(tw, "  %d\t%d\t%d\t%d\n", b.Index, b.Size, b.TotalSteps, b.NumWalks)
				}
				tw.Flush()
			}
			return nil
		},
	}
}
