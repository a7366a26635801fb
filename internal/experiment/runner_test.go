package experiment

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/nvandessel/walkscale/internal/config"
	"github.com/nvandessel/walkscale/internal/fit"
	"github.com/nvandessel/walkscale/internal/ledger"
	"github.com/nvandessel/walkscale/internal/models"
	"github.com/nvandessel/walkscale/internal/oracle"
	"github.com/nvandessel/walkscale/internal/plot"
	"github.com/nvandessel/walkscale/internal/telemetry"
	"github.com/nvandessel/walkscale/internal/trace"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memLedger struct {
	mu   sync.Mutex
	runs []ledger.Run
}

func (m *memLedger) Record(_ context.Context, r *ledger.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *r)
	return nil
}

func sqrtOracle() oracle.Oracle {
	return oracle.Func(func(_ context.Context, req oracle.Request) (oracle.Estimate, error) {
		return oracle.Estimate{Mean: 2 * math.Sqrt(float64(req.NumSteps)), Variance: 0.01}, nil
	})
}

func params(name string) models.WalkExperimentParams {
	p := DefaultParams(1)
	p.StepCount = 5
	p.TraceName = name
	return p
}

func TestRunOneScenario(t *testing.T) {
	r := NewRunner(trace.NewBuilder(sqrtOracle(), trace.BuilderConfig{}), Config{})

	res := r.RunOne(context.Background(), params("square"))
	require.NoError(t, res.Err)
	require.NoError(t, res.FitErr)
	require.NotNil(t, res.Fit)

	assert.Equal(t, []int{20, 25, 30, 35, 40}, res.Trace.StepCounts())
	assert.Less(t, math.Abs(res.Fit.C1-0.5), 0.01)
	assert.InEpsilon(t, 2.0, res.Fit.Prefactor(), 0.01)
	assert.Len(t, res.Predictions, 5)
	assert.Equal(t, ledger.StatusFitted, res.Status())
	assert.NotEmpty(t, res.RunID)
	assert.False(t, res.FinishedAt.Before(res.StartedAt))
}

func TestRunOneRejectsInvalidParams(t *testing.T) {
	called := false
	o := oracle.Func(func(context.Context, oracle.Request) (oracle.Estimate, error) {
		called = true
		return oracle.Estimate{}, nil
	})
	r := NewRunner(trace.NewBuilder(o, trace.BuilderConfig{}), Config{})

	p := params("bad")
	p.StartValue = 0
	res := r.RunOne(context.Background(), p)
	assert.ErrorIs(t, res.Err, config.ErrInvalidBatch)
	assert.False(t, called)
	assert.Equal(t, ledger.StatusTraceFailed, res.Status())
}

func TestRunOneFitFailure(t *testing.T) {
	o := oracle.Func(func(context.Context, oracle.Request) (oracle.Estimate, error) {
		return oracle.Estimate{Mean: 0}, nil
	})
	r := NewRunner(trace.NewBuilder(o, trace.BuilderConfig{}), Config{})

	res := r.RunOne(context.Background(), params("zero"))
	require.NoError(t, res.Err)
	assert.ErrorIs(t, res.FitErr, fit.ErrInvalidObservable)
	assert.Nil(t, res.Fit)
	assert.Equal(t, 5, res.Trace.Len())
	assert.Equal(t, ledger.StatusFitFailed, res.Status())

	figs := plot.NewFigures()
	require.NoError(t, Draw(figs, res))
	assert.Len(t, figs.Linear.Series, 1, "raw series without fit overlay")
}

func TestRunBatchContinuesAfterTraceFailure(t *testing.T) {
	calls := map[string]int{}
	o := oracle.Func(func(_ context.Context, req oracle.Request) (oracle.Estimate, error) {
		key := "first"
		if req.Seed == 2 {
			key = "second"
		}
		calls[key]++
		if key == "first" && calls[key] == 3 {
			return oracle.Estimate{}, errors.New("lattice exploded")
		}
		return oracle.Estimate{Mean: 2 * math.Sqrt(float64(req.NumSteps)), Variance: 0.01}, nil
	})

	var out bytes.Buffer
	rec := &memLedger{}
	m := telemetry.NewMetrics()
	r := NewRunner(trace.NewBuilder(o, trace.BuilderConfig{}), Config{Out: &out, Ledger: rec, Metrics: m})

	first := params("first")
	second := params("second")
	second.Seed = 2
	batch := &config.Batch{OutputFile: "lattices", Walks: []models.WalkExperimentParams{first, second}}

	figs := plot.NewFigures()
	results, err := r.RunBatch(context.Background(), batch, figs)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.ErrorIs(t, results[0].Err, trace.ErrOracle)
	assert.Zero(t, results[0].Trace.Len())
	assert.Nil(t, results[0].Fit)
	assert.Equal(t, 3, calls["first"])

	require.NoError(t, results[1].Err)
	require.NotNil(t, results[1].Fit)
	assert.Equal(t, 5, calls["second"])

	// Only the second trace is drawn: one measured series and one fit.
	require.Len(t, figs.Linear.Series, 2)
	assert.Contains(t, figs.Linear.Series[0].Name, "second")
	assert.Contains(t, figs.Linear.Series[1].Name, "Fit - second")
	assert.Len(t, figs.LogLog.Series, 2)

	assert.Contains(t, out.String(), "trace first failed")
	assert.Contains(t, out.String(), "lattice exploded")

	require.Len(t, rec.runs, 2)
	assert.Equal(t, ledger.StatusTraceFailed, rec.runs[0].Status)
	assert.Equal(t, "lattices", rec.runs[0].Batch)
	assert.Equal(t, ledger.StatusFitted, rec.runs[1].Status)
	assert.Equal(t, 5, rec.runs[1].NumSamples)
	assert.Equal(t, results[1].RunID, rec.runs[1].ID)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("trace_failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("fitted")))
}

func TestRunBatchStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	o := oracle.Func(func(_ context.Context, req oracle.Request) (oracle.Estimate, error) {
		cancel()
		return oracle.Estimate{Mean: float64(req.NumSteps), Variance: 1}, nil
	})
	r := NewRunner(trace.NewBuilder(o, trace.BuilderConfig{}), Config{})

	batch := &config.Batch{OutputFile: "x", Walks: []models.WalkExperimentParams{params("a"), params("b")}}
	results, err := r.RunBatch(ctx, batch, plot.NewFigures())
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
}

type scripted struct {
	params   []models.WalkExperimentParams
	defaults []models.WalkExperimentParams
	answers  []bool
	name     string
}

func (s *scripted) Params(_ context.Context, d models.WalkExperimentParams) (models.WalkExperimentParams, error) {
	s.defaults = append(s.defaults, d)
	if len(s.params) == 0 {
		return models.WalkExperimentParams{}, errors.New("script exhausted")
	}
	p := s.params[0]
	s.params = s.params[1:]
	return p, nil
}

func (s *scripted) Continue(context.Context) (bool, error) {
	more := s.answers[0]
	s.answers = s.answers[1:]
	return more, nil
}

func (s *scripted) OutputName(context.Context) (string, error) { return s.name, nil }

func TestRunInteractive(t *testing.T) {
	var out bytes.Buffer
	r := NewRunner(trace.NewBuilder(sqrtOracle(), trace.BuilderConfig{}), Config{Out: &out})

	geo := params("geo")
	geo.SequenceKind = models.SequenceGeometric
	geo.StartValue = 10
	geo.GeometricRatio = 2
	geo.StepCount = 4

	pr := &scripted{
		params:  []models.WalkExperimentParams{params("arith"), geo},
		answers: []bool{true, false},
		name:    "session",
	}
	figs := plot.NewFigures()
	name, results, err := r.RunInteractive(context.Background(), pr, figs)
	require.NoError(t, err)

	assert.Equal(t, "session", name)
	require.Len(t, results, 2)
	assert.Equal(t, []int{10, 20, 40, 80}, results[1].Trace.StepCounts())

	require.Len(t, pr.defaults, 2)
	assert.Equal(t, 20.0, pr.defaults[0].NumWalksCoef)
	assert.Equal(t, 100, pr.defaults[0].StepCount)
	assert.Equal(t, "arith", pr.defaults[1].TraceName, "previous params carried forward")

	assert.Len(t, figs.Linear.Series, 4)
	assert.True(t, strings.Contains(out.String(), "Fit successful: geo"))
}

func TestRunInteractivePromptError(t *testing.T) {
	r := NewRunner(trace.NewBuilder(sqrtOracle(), trace.BuilderConfig{}), Config{})
	pr := &scripted{params: []models.WalkExperimentParams{params("only")}, answers: []bool{true}}

	_, results, err := r.RunInteractive(context.Background(), pr, plot.NewFigures())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "script exhausted")
	assert.Len(t, results, 1)
}
