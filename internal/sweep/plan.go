package sweep

import (
	"math"

	"github.com/nvandessel/walkscale/internal/constants"
	"github.com/nvandessel/walkscale/internal/models"
)

// Strategy is how a bucket maps onto oracle calls.
type Strategy int

const (
	// StrategyDirect runs NumWalks walks of Size steps.
	StrategyDirect Strategy = iota

	// StrategyBucketed runs NumWalks walks of Size segments of StepsPerSample steps.
	StrategyBucketed
)

func (s Strategy) String() string {
	if s == StrategyBucketed {
		return "bucketed"
	}
	return "direct"
}

// Bucket is one planned point of a sweep.
type Bucket struct {
	Index          int      `json:"index"`
	Size           int      `json:"size"`
	StepsPerSample int      `json:"steps_per_sample,omitempty"`
	TotalSteps     int      `json:"total_steps"`
	NumWalks       int      `json:"num_walks"`
	Strategy       Strategy `json:"-"`
}

// NumWalks returns ceil(max(500, sqrt(totalSteps)*coef)).
//
// The standard error of the mean shrinks as 1/sqrt(walks) while the spread of
// the displacement grows with walk length, so scaling the walk count with
// sqrt(totalSteps) keeps relative precision roughly even across the sweep.
func NumWalks(totalSteps int, coef float64) int {
	n := math.Sqrt(float64(totalSteps)) * coef
	return int(math.Ceil(math.Max(constants.MinWalksPerBucket, n)))
}

// Plan expands p into its buckets, in generation order.
func Plan(p models.WalkExperimentParams) []Bucket {
	sizes := Buckets(p)
	strategy := StrategyDirect
	if p.Bucketed() {
		strategy = StrategyBucketed
	}

	plan := make([]Bucket, len(sizes))
	for i, size := range sizes {
		total := size
		if strategy == StrategyBucketed {
			total = size * p.StepsPerSample
		}
		plan[i] = Bucket{
			Index:          i,
			Size:           size,
			StepsPerSample: p.StepsPerSample,
			TotalSteps:     total,
			NumWalks:       NumWalks(total, p.NumWalksCoef),
			Strategy:       strategy,
		}
	}
	return plan
}
