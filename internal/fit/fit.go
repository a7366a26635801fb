// Package fit fits power laws to traces by ordinary least squares in
// log-log space and evaluates the fitted curve with its uncertainty.
package fit

import (
	"errors"
	"fmt"
	"math"

	"github.com/nvandessel/walkscale/internal/models"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrDegenerateFit is returned when the regression is undetermined:
	// fewer than two samples, or all samples at the same step count.
	ErrDegenerateFit = errors.New("fit: degenerate fit")

	// ErrInvalidObservable is returned when a sample cannot be log-transformed.
	ErrInvalidObservable = errors.New("fit: invalid observable")
)

// Fit regresses ln(Mean) on ln(NumSteps) over every sample of tr.
//
// The covariance follows the classical unweighted estimate with
// s2 = SumSq/(n-2). With exactly two samples s2 divides by zero and the
// covariance entries are NaN or ±Inf; they are returned as is.
func Fit(tr models.Trace) (models.FitResult, error) {
	n := len(tr.Samples)
	if n < 2 {
		return models.FitResult{}, fmt.Errorf("%w: %d samples", ErrDegenerateFit, n)
	}

	if sameSteps(tr.Samples) {
		return models.FitResult{}, fmt.Errorf("%w: all samples share step count %d", ErrDegenerateFit, tr.Samples[0].NumSteps)
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, s := range tr.Samples {
		if s.NumSteps <= 0 || !(s.Mean > 0) {
			return models.FitResult{}, fmt.Errorf("%w: sample %d has steps=%d mean=%g",
				ErrInvalidObservable, i, s.NumSteps, s.Mean)
		}
		xs[i] = math.Log(float64(s.NumSteps))
		ys[i] = math.Log(s.Mean)
	}
	return linear(xs, ys)
}

// sameSteps compares the integer step counts, which is exact where the
// spread of their logarithms is not.
func sameSteps(samples []models.TraceSample) bool {
	for _, s := range samples[1:] {
		if s.NumSteps != samples[0].NumSteps {
			return false
		}
	}
	return true
}

// linear is the closed-form OLS fit y = c0 + c1*x with parameter covariance.
func linear(xs, ys []float64) (models.FitResult, error) {
	n := float64(len(xs))
	mx := stat.Mean(xs, nil)

	var dx2 float64
	for _, x := range xs {
		dx2 += (x - mx) * (x - mx)
	}
	dx2 /= n
	if dx2 == 0 {
		return models.FitResult{}, fmt.Errorf("%w: all samples share one step count", ErrDegenerateFit)
	}

	c0, c1 := stat.LinearRegression(xs, ys, nil, false)

	var sumsq float64
	for i, x := range xs {
		r := ys[i] - (c0 + c1*x)
		sumsq += r * r
	}

	s2 := sumsq / (n - 2)
	return models.FitResult{
		C0:    c0,
		C1:    c1,
		Cov00: s2 * (1 / n) * (1 + mx*mx/dx2),
		Cov01: -s2 * mx / (n * dx2),
		Cov11: s2 / (n * dx2),
		SumSq: sumsq,
	}, nil
}
