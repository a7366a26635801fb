package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"

	"github.com/nvandessel/walkscale/internal/config"
	"github.com/nvandessel/walkscale/internal/experiment"
	"github.com/nvandessel/walkscale/internal/ledger"
	"github.com/nvandessel/walkscale/internal/logging"
	"github.com/nvandessel/walkscale/internal/oracle"
	"github.com/nvandessel/walkscale/internal/plot"
	"github.com/nvandessel/walkscale/internal/prompt"
	"github.com/nvandessel/walkscale/internal/telemetry"
	"github.com/nvandessel/walkscale/internal/trace"
	"github.com/nvandessel/walkscale/internal/ux"
	"github.com/spf13/cobra"
)

// runSummary is the --json output of a run.
type runSummary struct {
	Output []string  `json:"output"`
	Runs   []runJSON `json:"runs"`
}

type runJSON struct {
	RunID   string   `json:"run_id"`
	Trace   string   `json:"trace"`
	Status  string   `json:"status"`
	Samples int      `json:"samples"`
	C       *float64 `json:"c,omitempty"`
	Alpha   *float64 `json:"alpha,omitempty"`
	Error   string   `json:"error,omitempty"`
}

func runRoot(cmd *cobra.Command, args []string) error {
	app, err := loadAppConfig(cmd)
	if err != nil {
		return err
	}
	stderr := cmd.ErrOrStderr()
	logger := logging.NewLogger(app.Logging.Level, stderr)

	// A bad batch file is fatal before anything runs.
	var batch *config.Batch
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		batch, err = config.LoadBatch(path)
		if err != nil {
			return err
		}
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	if err := os.MkdirAll(app.Output.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	events := logging.OpenEventLog(app.Output.Dir, app.Logging.Level)
	defer events.Close()

	metrics := telemetry.NewMetrics()
	tracer, shutdown, err := telemetry.InitTracing(telemetry.TraceConfig{
		File:           app.Telemetry.TraceFile,
		ServiceVersion: version,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("failed to flush spans", "error", err)
		}
	}()

	lattice := oracle.NewLattice(app.Oracle.Workers)
	logger.Debug("oracle ready", "workers", lattice.Workers())
	builder := trace.NewBuilder(oracle.Instrument(lattice, metrics, tracer), trace.BuilderConfig{
		Progress: ux.NewProgress(stderr),
		Logger:   logger,
		Events:   events,
		Metrics:  metrics,
		Tracer:   tracer,
	})

	runCfg := experiment.Config{
		Logger:  logger,
		Events:  events,
		Metrics: metrics,
		Tracer:  tracer,
		Out:     stderr,
	}
	if led := openLedger(ctx, app, logger, stderr); led != nil {
		defer led.Close()
		runCfg.Ledger = led
	}
	runner := experiment.NewRunner(builder, runCfg)

	figs := plot.NewFigures()
	var (
		name    string
		results []experiment.Result
		runErr  error
	)
	if batch != nil {
		name = batch.OutputFile
		results, runErr = runner.RunBatch(ctx, batch, figs)
	} else {
		name, results, runErr = runner.RunInteractive(ctx, prompt.New(cmd.InOrStdin(), stderr), figs)
	}

	var paths []string
	if name != "" {
		paths, err = writeFigures(app, figs, name, logger, stderr)
		if err != nil {
			return err
		}
	} else if len(results) > 0 {
		ux.Warnf(stderr, "session ended before an output name was chosen; no figures written")
	}

	if err := metrics.WriteTextfile(app.Telemetry.MetricsFile); err != nil {
		logger.Warn("failed to write metrics", "path", app.Telemetry.MetricsFile, "error", err)
	}

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		if err := json.NewEncoder(cmd.OutOrStdout()).Encode(summarize(paths, results)); err != nil {
			return fmt.Errorf("failed to encode summary: %w", err)
		}
	}

	switch {
	case runErr == nil:
		return nil
	case errors.Is(runErr, prompt.ErrAborted):
		return nil
	case errors.Is(runErr, context.Canceled):
		ux.Warnf(stderr, "interrupted after %d trace(s)", len(results))
		return nil
	}
	return runErr
}

// loadAppConfig loads the app config and applies explicitly set flags on top.
func loadAppConfig(cmd *cobra.Command) (*config.Config, error) {
	app, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		app.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Lookup("output-dir") != nil {
		if flags.Changed("output-dir") {
			app.Output.Dir, _ = flags.GetString("output-dir")
		}
		if flags.Changed("png") {
			app.Output.PNG, _ = flags.GetBool("png")
		}
		if flags.Changed("open") {
			app.Output.Open, _ = flags.GetBool("open")
		}
		if flags.Changed("workers") {
			app.Oracle.Workers, _ = flags.GetInt("workers")
		}
		if flags.Changed("metrics-file") {
			app.Telemetry.MetricsFile, _ = flags.GetString("metrics-file")
		}
		if flags.Changed("trace-file") {
			app.Telemetry.TraceFile, _ = flags.GetString("trace-file")
		}
		if noLedger, _ := flags.GetBool("no-ledger"); noLedger {
			app.Ledger.Enabled = false
		}
	}

	if err := app.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return app, nil
}

// openLedger opens the run ledger if enabled. A ledger that cannot be opened
// is reported and the run continues without one.
func openLedger(ctx context.Context, app *config.Config, logger *slog.Logger, w io.Writer) *ledger.Ledger {
	if !app.Ledger.Enabled {
		return nil
	}
	path, err := app.LedgerPath()
	if err == nil {
		var led *ledger.Ledger
		if led, err = ledger.Open(ctx, path); err == nil {
			return led
		}
	}
	ux.Warnf(w, "run ledger unavailable: %v", err)
	logger.Warn("run ledger unavailable", "error", err)
	return nil
}

// writeFigures writes the HTML figures, the optional PNG snapshots, and
// opens the linear figure if asked.
func writeFigures(app *config.Config, figs *plot.Figures, name string, logger *slog.Logger, w io.Writer) ([]string, error) {
	paths, err := figs.WriteHTML(app.Output.Dir, name)
	if err != nil {
		return paths, fmt.Errorf("failed to write figures: %w", err)
	}

	if app.Output.PNG {
		if figs.Linear.Empty() {
			ux.Warnf(w, "nothing was drawn; skipping PNG output")
		} else {
			pngs, err := figs.WritePNG(app.Output.Dir, name)
			paths = append(paths, pngs...)
			if err != nil {
				return paths, fmt.Errorf("failed to write PNG figures: %w", err)
			}
		}
	}

	for _, p := range paths {
		ux.Successf(w, "wrote %s", p)
	}

	if app.Output.Open && len(paths) > 0 {
		if err := plot.OpenBrowser(paths[0]); err != nil {
			ux.Warnf(w, "could not open browser: %v", err)
			logger.Warn("failed to open browser", "path", paths[0], "error", err)
		}
	}
	return paths, nil
}

func summarize(paths []string, results []experiment.Result) runSummary {
	s := runSummary{Output: paths, Runs: make([]runJSON, 0, len(results))}
	if s.Output == nil {
		s.Output = []string{}
	}
	for _, res := range results {
		r := runJSON{
			RunID:   res.RunID,
			Trace:   res.Params.TraceName,
			Status:  string(res.Status()),
			Samples: res.Trace.Len(),
		}
		if res.Fit != nil {
			r.C = finite(res.Fit.Prefactor())
			r.Alpha = finite(res.Fit.Exponent())
		}
		switch {
		case res.Err != nil:
			r.Error = res.Err.Error()
		case res.FitErr != nil:
			r.Error = res.FitErr.Error()
		}
		s.Runs = append(s.Runs, r)
	}
	return s
}

// finite returns a pointer to v, or nil when v cannot be encoded as JSON.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// signalContext returns a context canceled on SIGINT or SIGTERM. The
// returned stop func releases the signal handler.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	notifySignals(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}
