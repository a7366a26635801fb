package experiment

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/nvandessel/walkscale/internal/constants"
	"github.com/nvandessel/walkscale/internal/models"
	"github.com/nvandessel/walkscale/internal/plot"
)

// Prompter collects parameters from a user between runs.
type Prompter interface {
	// Params asks for the next trace, pre-filled with defaults.
	Params(ctx context.Context, defaults models.WalkExperimentParams) (models.WalkExperimentParams, error)
	// Continue asks whether to run another trace.
	Continue(ctx context.Context) (bool, error)
	// OutputName asks for the base name of the figure files.
	OutputName(ctx context.Context) (string, error)
}

// DefaultParams returns the starting parameters of an interactive session.
func DefaultParams(seed int64) models.WalkExperimentParams {
	return models.WalkExperimentParams{
		Seed:           seed,
		WalkType:       models.WalkSimple,
		GridType:       models.GridSquare,
		NumWalksCoef:   constants.DefaultNumWalksCoef,
		SequenceKind:   models.SequenceArithmetic,
		StartValue:     constants.DefaultStartValue,
		ArithmeticStep: constants.DefaultArithmeticStep,
		GeometricRatio: constants.DefaultGeometricRatio,
		StepCount:      constants.DefaultStepCount,
	}
}

// RunInteractive loops: prompt, run, report, ask to continue. Each prompt is
// pre-filled with the previous trace's parameters; the first uses
// DefaultParams with a random seed. It returns the output
// name chosen at the end and all results.
//
// A prompter error (including the user aborting a form) ends the session
// and is returned with the results so far.
func (r *Runner) RunInteractive(ctx context.Context, pr Prompter, figs *plot.Figures) (string, []Result, error) {
	var results []Result
	defaults := DefaultParams(rand.Int64())

	for {
		p, err := pr.Params(ctx, defaults)
		if err != nil {
			return "", results, fmt.Errorf("prompt parameters: %w", err)
		}

		res := r.run(ctx, InteractiveBatch, p)
		results = append(results, res)
		r.report(figs, res, true)
		if err := ctx.Err(); err != nil {
			return "", results, err
		}
		defaults = p

		more, err := pr.Continue(ctx)
		if err != nil {
			return "", results, fmt.Errorf("prompt continue: %w", err)
		}
		if !more {
			break
		}
	}

	name, err := pr.OutputName(ctx)
	if err != nil {
		return "", results, fmt.Errorf("prompt output name: %w", err)
	}
	return name, results, nil
}
