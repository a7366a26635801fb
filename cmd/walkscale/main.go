package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "walkscale",
		Short: "Measure how random-walk displacement scales with walk length",
		Long: `walkscale sweeps walk lengths on square, triangular and hexagonal
lattices, measures the mean end-to-end displacement at each length and fits
the power law  mean = c * steps^alpha.

With --config it runs every trace of a batch file. Without it, it asks for
parameters interactively, one trace at a time. Both modes write a linear and
a log-log figure to the output directory.

Example:
  walkscale --config sweeps.yaml --png`,
		SilenceUsage: true,
		RunE:         runRoot,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Batch file (YAML or JSON); omit for interactive mode")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug or trace")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.Flags().String("output-dir", "", "Directory for figures and the event log (default \"plot\")")
	rootCmd.Flags().Bool("png", false, "Also write PNG snapshots of both figures")
	rootCmd.Flags().Bool("open", false, "Open the linear figure in a browser when done")
	rootCmd.Flags().Int("workers", 0, "Simulation goroutines per oracle call (0 = GOMAXPROCS)")
	rootCmd.Flags().String("metrics-file", "", "Write Prometheus metrics to this textfile")
	rootCmd.Flags().String("trace-file", "", "Write OpenTelemetry spans to this file")
	rootCmd.Flags().Bool("no-ledger", false, "Do not record runs in the ledger")

	rootCmd.AddCommand(
		newPlanCmd(),
		newHistoryCmd(),
		newVersionCmd(),
	)
	return rootCmd
}
