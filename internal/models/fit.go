package models

import "math"

// FitResult holds a linear fit y = C0 + C1*x in log-log space together with the
// covariance of [C0, C1] and the residual sum of squares.
type FitResult struct {
	C0    float64 `json:"c0"`
	C1    float64 `json:"c1"`
	Cov00 float64 `json:"cov00"`
	Cov01 float64 `json:"cov01"`
	Cov11 float64 `json:"cov11"`
	SumSq float64 `json:"sumsq"`
}

// Prefactor returns exp(C0), the A in mean = A * steps^B.
func (f FitResult) Prefactor() float64 { return math.Exp(f.C0) }

// Exponent returns C1, the B in mean = A * steps^B.
func (f FitResult) Exponent() float64 { return f.C1 }
