package fit

import (
	"math"

	"github.com/nvandessel/walkscale/internal/models"
)

// Prediction is the fitted mean at one step count.
//
// StdErr is the standard error of the prediction in log units. The band
// [Lower, Upper] is that one-sigma interval mapped back through exp, so it is
// asymmetric around Mean.
type Prediction struct {
	Steps  int     `json:"steps"`
	Mean   float64 `json:"mean"`
	StdErr float64 `json:"stderr"`
}

// Lower returns exp(ln(Mean) - StdErr).
func (p Prediction) Lower() float64 { return p.Mean * math.Exp(-p.StdErr) }

// Upper returns exp(ln(Mean) + StdErr).
func (p Prediction) Upper() float64 { return p.Mean * math.Exp(p.StdErr) }

// Evaluate predicts the mean at every step count in steps, in order.
func Evaluate(r models.FitResult, steps []int) []Prediction {
	out := make([]Prediction, len(steps))
	for i, s := range steps {
		x := math.Log(float64(s))
		yhat := r.C0 + r.C1*x
		// Rounding can leave the expanded quadratic form a hair below zero.
		variance := math.Max(r.Cov00+2*x*r.Cov01+x*x*r.Cov11, 0)
		out[i] = Prediction{
			Steps:  s,
			Mean:   math.Exp(yhat),
			StdErr: math.Sqrt(variance),
		}
	}
	return out
}

// Means returns the predicted means.
func Means(ps []Prediction) []float64 {
	ys := make([]float64, len(ps))
	for i, p := range ps {
		ys[i] = p.Mean
	}
	return ys
}
