package sweep

import (
	"math"

	"github.com/nvandessel/walkscale/internal/models"
)

// Arithmetic returns count values start, start+step, start+2*step, ...
// Non-positive steps are allowed; rejecting non-positive buckets is the
// caller's job.
func Arithmetic(start, step, count int) []int {
	if count <= 0 {
		return []int{}
	}
	seq := make([]int, count)
	for i := range seq {
		seq[i] = start + i*step
	}
	return seq
}

// Geometric returns count values ceil(start * ratio^i). A ratio <= 1 yields a
// flat or shrinking sweep, which is a legitimate experiment.
func Geometric(start int, ratio float64, count int) []int {
	if count <= 0 {
		return []int{}
	}
	seq := make([]int, count)
	for i := range seq {
		seq[i] = int(math.Ceil(float64(start) * math.Pow(ratio, float64(i))))
	}
	return seq
}

// Buckets returns the bucket sizes selected by p.SequenceKind.
func Buckets(p models.WalkExperimentParams) []int {
	if p.SequenceKind == models.SequenceGeometric {
		return Geometric(p.StartValue, p.GeometricRatio, p.StepCount)
	}
	return Arithmetic(p.StartValue, p.ArithmeticStep, p.StepCount)
}
