package models

import "math"

// TraceSample is one measured point of a sweep.
//
// Variance is the population variance of the observable across NumWalks walks
// as returned by the oracle.
type TraceSample struct {
	NumSteps int     `json:"num_steps"`
	NumWalks int     `json:"num_walks"`
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
}

// StdErr returns the sample standard error of Mean, sqrt(Variance/(NumWalks-1)).
// Samples with fewer than two walks have no defined error and return NaN.
func (s TraceSample) StdErr() float64 {
	if s.NumWalks < 2 {
		return math.NaN()
	}
	return math.Sqrt(s.Variance / float64(s.NumWalks-1))
}

// Trace is the ordered result of one sweep, one sample per bucket in bucket order.
type Trace struct {
	Name    string        `json:"name"`
	Samples []TraceSample `json:"samples"`
}

// Len returns the number of samples.
func (t Trace) Len() int { return len(t.Samples) }

// Steps returns the step counts of all samples as floats, in order.
func (t Trace) Steps() []float64 {
	xs := make([]float64, len(t.Samples))
	for i, s := range t.Samples {
		xs[i] = float64(s.NumSteps)
	}
	return xs
}

// StepCounts returns the integer step counts of all samples, in order.
func (t Trace) StepCounts() []int {
	xs := make([]int, len(t.Samples))
	for i, s := range t.Samples {
		xs[i] = s.NumSteps
	}
	return xs
}

// Means returns the sample means, in order.
func (t Trace) Means() []float64 {
	ys := make([]float64, len(t.Samples))
	for i, s := range t.Samples {
		ys[i] = s.Mean
	}
	return ys
}
