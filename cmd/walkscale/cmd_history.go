package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/nvandessel/walkscale/internal/ledger"
	"github.com/spf13/cobra"
)

type historyJSON struct {
	ID         string    `json:"id"`
	Batch      string    `json:"batch,omitempty"`
	Trace      string    `json:"trace"`
	Label      string    `json:"label"`
	Status     string    `json:"status"`
	Samples    int       `json:"samples"`
	C          *float64  `json:"c,omitempty"`
	Alpha      *float64  `json:"alpha,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			if limit < 0 {
				return fmt.Errorf("--limit must be non-negative, got %d", limit)
			}

			app, err := loadAppConfig(cmd)
			if err != nil {
				return err
			}
			path, err := app.LedgerPath()
			if err != nil {
				return err
			}
			led, err := ledger.Open(cmd.Context(), path)
			if err != nil {
				return err
			}
			defer led.Close()

			runs, err := led.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			out := cmd.OutOrStdout()
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				rows := make([]historyJSON, len(runs))
				for i, r := range runs {
					rows[i] = historyRow(r)
				}
				return json.NewEncoder(out).Encode(rows)
			}

			if len(runs) == 0 {
				fmt.Fprintf(out, "No runs recorded in %s\n", led.Path())
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STARTED\tBATCH\tTRACE\tSTATUS\tSAMPLES\tC\tALPHA\tID")
			for _, r := range runs {
				c, alpha := "-", "-"
				if r.Fit != nil {
					c = fmt.Sprintf("%.4f", r.Fit.Prefactor())
					alpha = fmt.Sprintf("%.4f", r.Fit.Exponent())
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
					r.StartedAt.Local().Format(time.DateTime), r.Batch, r.Params.TraceName,
					r.Status, r.NumSamples, c, alpha, r.ID)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum number of runs to show (0 = all)")

	return cmd
}

func historyRow(r ledger.Run) historyJSON {
	row := historyJSON{
		ID:         r.ID,
		Batch:      r.Batch,
		Trace:      r.Params.TraceName,
		Label:      r.Params.Label(),
		Status:     string(r.Status),
		Samples:    r.NumSamples,
		Error:      r.Error,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
	if r.Fit != nil {
		row.C = finite(r.Fit.Prefactor())
		row.Alpha = finite(r.Fit.Exponent())
	}
	return row
}
