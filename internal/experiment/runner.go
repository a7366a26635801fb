// Package experiment sequences trace and fit cycles, interactively or from
// a batch, and draws each result onto an explicit plot accumulator.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nvandessel/walkscale/internal/config"
	"github.com/nvandessel/walkscale/internal/fit"
	"github.com/nvandessel/walkscale/internal/ledger"
	"github.com/nvandessel/walkscale/internal/logging"
	"github.com/nvandessel/walkscale/internal/models"
	"github.com/nvandessel/walkscale/internal/plot"
	"github.com/nvandessel/walkscale/internal/telemetry"
	"github.com/nvandessel/walkscale/internal/trace"
	"github.com/nvandessel/walkscale/internal/ux"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// InteractiveBatch labels ledger rows of interactive runs.
const InteractiveBatch = "interactive"

// Recorder persists finished runs. *ledger.Ledger implements it.
type Recorder interface {
	Record(ctx context.Context, r *ledger.Run) error
}

// Result is the outcome of one trace and fit cycle.
//
// Err is set when no trace was produced. FitErr is set when the trace exists
// but could not be fitted; Trace is still drawn in that case.
type Result struct {
	RunID       string
	Params      models.WalkExperimentParams
	Trace       models.Trace
	Fit         *models.FitResult
	FitErr      error
	Predictions []fit.Prediction
	Err         error
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Status classifies the result for the ledger and metrics.
func (r Result) Status() ledger.Status {
	switch {
	case r.Err != nil:
		return ledger.StatusTraceFailed
	case r.Fit == nil:
		return ledger.StatusFitFailed
	default:
		return ledger.StatusFitted
	}
}

// Config holds the optional collaborators of a Runner.
type Config struct {
	Ledger  Recorder
	Logger  *slog.Logger
	Events  *logging.EventLog
	Metrics *telemetry.Metrics
	Tracer  oteltrace.Tracer
	// Out receives user-facing messages. nil discards them.
	Out io.Writer
}

// Runner drives experiments against one trace builder, strictly one trace
// at a time.
type Runner struct {
	builder *trace.Builder
	cfg     Config
}

// NewRunner creates a runner.
func NewRunner(b *trace.Builder, cfg Config) *Runner {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = noop.NewTracerProvider().Tracer(telemetry.TracerName)
	}
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	return &Runner{builder: b, cfg: cfg}
}

// RunOne measures, fits and evaluates a single trace.
func (r *Runner) RunOne(ctx context.Context, p models.WalkExperimentParams) Result {
	return r.run(ctx, "", p)
}

func (r *Runner) run(ctx context.Context, batch string, p models.WalkExperimentParams) Result {
	res := Result{RunID: uuid.NewString(), Params: p, StartedAt: time.Now()}

	ctx, span := r.cfg.Tracer.Start(ctx, "experiment.run", oteltrace.WithAttributes(
		attribute.String("run_id", res.RunID),
		attribute.String("trace", p.TraceName),
		attribute.String("grid", p.GridType.String()),
		attribute.String("walk", p.WalkType.String()),
	))
	defer span.End()

	r.cfg.Events.Write(logging.Event{Kind: logging.EventRunStarted, RunID: res.RunID, Trace: p.TraceName,
		Fields: map[string]any{"batch": batch, "seed": p.Seed}})
	r.cfg.Logger.Info("running trace", "trace", p.TraceName, "run_id", res.RunID,
		"walk", p.WalkType.String(), "grid", p.GridType.String(), "buckets", p.StepCount)

	if err := config.ValidateParams(p); err != nil {
		res.Err = err
	} else {
		res.Trace, res.Err = r.builder.WithRunID(res.RunID).Build(ctx, p)
	}

	if res.Err == nil {
		res.fitTrace()
	}
	res.FinishedAt = time.Now()

	span.SetAttributes(attribute.String("status", string(res.Status())))
	switch {
	case res.Err != nil:
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
		r.cfg.Events.Write(logging.Event{Kind: logging.EventRunFailed, RunID: res.RunID, Trace: p.TraceName, Error: res.Err.Error()})
	case res.FitErr != nil:
		r.cfg.Events.Write(logging.Event{Kind: logging.EventFit, RunID: res.RunID, Trace: p.TraceName, Error: res.FitErr.Error()})
	default:
		r.cfg.Events.Write(logging.Event{Kind: logging.EventFit, RunID: res.RunID, Trace: p.TraceName,
			Fields: map[string]any{"c0": res.Fit.C0, "c1": res.Fit.C1, "sumsq": res.Fit.SumSq}})
	}

	r.cfg.Metrics.ObserveRun(string(res.Status()))
	r.record(ctx, batch, res)
	return res
}

// fitTrace fills Fit and Predictions, or FitErr.
func (res *Result) fitTrace() {
	f, err := fit.Fit(res.Trace)
	if err != nil {
		res.FitErr = err
		return
	}
	res.Fit = &f
	res.Predictions = fit.Evaluate(f, res.Trace.StepCounts())
}

func (r *Runner) record(ctx context.Context, batch string, res Result) {
	if r.cfg.Ledger == nil {
		return
	}
	row := &ledger.Run{
		ID:         res.RunID,
		Batch:      batch,
		Params:     res.Params,
		Status:     res.Status(),
		Fit:        res.Fit,
		NumSamples: res.Trace.Len(),
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
	}
	switch {
	case res.Err != nil:
		row.Error = res.Err.Error()
	case res.FitErr != nil:
		row.Error = res.FitErr.Error()
	}
	// A canceled run context must not stop the ledger write.
	if err := r.cfg.Ledger.Record(context.WithoutCancel(ctx), row); err != nil {
		r.cfg.Logger.Warn("failed to record run", "run_id", res.RunID, "error", err)
	}
}

// Draw adds res to figs: the measured trace if one exists, and the fitted
// curve if the fit succeeded.
func Draw(figs *plot.Figures, res Result) error {
	if res.Err != nil {
		return nil
	}
	if err := figs.AddTrace(res.Trace, res.Params); err != nil {
		return fmt.Errorf("draw trace %q: %w", res.Params.TraceName, err)
	}
	if res.Fit == nil {
		return nil
	}
	if err := figs.AddFit(res.Params.TraceName, *res.Fit, res.Predictions); err != nil {
		return fmt.Errorf("draw fit %q: %w", res.Params.TraceName, err)
	}
	return nil
}

// report draws res and tells the user what happened.
func (r *Runner) report(figs *plot.Figures, res Result, verbose bool) {
	name := res.Params.TraceName
	switch {
	case res.Err != nil:
		if !errors.Is(res.Err, context.Canceled) {
			ux.Errorf(r.cfg.Out, "trace %s failed: %v", name, res.Err)
		}
		r.cfg.Logger.Error("trace failed", "trace", name, "run_id", res.RunID, "error", res.Err)
	case res.FitErr != nil:
		ux.Warnf(r.cfg.Out, "failed fit for %s: %v", name, res.FitErr)
		r.cfg.Logger.Warn("fit failed", "trace", name, "run_id", res.RunID, "error", res.FitErr)
	case verbose:
		ux.FitSummary(r.cfg.Out, name, *res.Fit)
	default:
		ux.Successf(r.cfg.Out, "%s: c = %.4f, alpha = %.4f", name, res.Fit.Prefactor(), res.Fit.Exponent())
	}

	if err := Draw(figs, res); err != nil {
		r.cfg.Logger.Error("failed to draw result", "trace", name, "error", err)
	}
}

// RunBatch runs every trace of b in order, drawing each onto figs. A failed
// trace is reported and skipped. The only error returned is cancellation of
// ctx, together with the results finished so far.
func (r *Runner) RunBatch(ctx context.Context, b *config.Batch, figs *plot.Figures) ([]Result, error) {
	results := make([]Result, 0, len(b.Walks))
	for _, p := range b.Walks {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := r.run(ctx, b.OutputFile, p)
		results = append(results, res)
		r.report(figs, res, false)
	}
	return results, ctx.Err()
}
