package oracle

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"github.com/nvandessel/walkscale/internal/models"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Lattice is an in-process oracle for square, triangular and hexagonal
// (honeycomb) lattices.
//
// Walks are split across a fixed number of workers. Worker i draws from a PCG
// source seeded with (seed, i), so results are deterministic for a given seed
// and worker count.
type Lattice struct {
	workers int
}

// NewLattice creates a lattice oracle. workers <= 0 uses GOMAXPROCS.
func NewLattice(workers int) *Lattice {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Lattice{workers: workers}
}

// Workers returns the number of goroutines used per call.
func (l *Lattice) Workers() int { return l.workers }

// RunWalks runs req.NumWalks independent walks of req.NumSteps steps.
func (l *Lattice) RunWalks(ctx context.Context, req Request) (Estimate, error) {
	if err := req.validate(); err != nil {
		return Estimate{}, fmt.Errorf("%w: walks=%d steps=%d", err, req.NumWalks, req.NumSteps)
	}
	return l.run(ctx, req.Seed, req.Walk, req.Grid, req.NumWalks, 1, req.NumSteps)
}

// RunWalksBucketed runs req.NumWalks walks of req.NumBuckets segments of
// req.StepsPerBucket steps. The no-return constraint carries across segment
// boundaries, so a bucketed walk has the same law as a direct walk of
// NumBuckets*StepsPerBucket steps.
func (l *Lattice) RunWalksBucketed(ctx context.Context, req BucketedRequest) (Estimate, error) {
	if err := req.validate(); err != nil {
		return Estimate{}, fmt.Errorf("%w: walks=%d buckets=%d steps_per_bucket=%d",
			err, req.NumWalks, req.NumBuckets, req.StepsPerBucket)
	}
	return l.run(ctx, req.Seed, req.Walk, req.Grid, req.NumWalks, req.NumBuckets, req.StepsPerBucket)
}

func (l *Lattice) run(ctx context.Context, seed int64, walk models.WalkType, grid models.GridType, numWalks, segments, segmentSteps int) (Estimate, error) {
	geo, err := geometryFor(grid)
	if err != nil {
		return Estimate{}, err
	}
	if !walk.Valid() {
		return Estimate{}, fmt.Errorf("%w: walk type %d", ErrInvalidRequest, int(walk))
	}

	dist := make([]float64, numWalks)
	workers := min(l.workers, numWalks)
	chunk := (numWalks + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, numWalks)
		if lo >= hi {
			break
		}
		rng := rand.New(rand.NewPCG(uint64(seed), uint64(w)))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				dist[i] = geo.walk(rng, walk, segments, segmentSteps)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Estimate{}, err
	}

	mean, variance := stat.PopMeanVariance(dist, nil)
	return Estimate{Mean: mean, Variance: variance}, nil
}

// geometry describes a lattice in integer coordinates (q, r).
//
// moves[p] lists the steps available from a site of parity p. Only the
// honeycomb has two sublattices; the other lattices use the same list for both.
type geometry struct {
	moves       [2][][2]int
	alternating bool
	reverse     func(d int) int
	toXY        func(q, r int) (float64, float64)
}

var sqrt3over2 = math.Sqrt(3) / 2

var (
	squareMoves = [][2]int{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

	// Axial coordinates; direction d and d+3 are opposite.
	triangularMoves = [][2]int{{1, 0}, {0, 1}, {-1, 1}, {-1, 0}, {0, -1}, {1, -1}}

	// Bond vectors e0, e1, e2 sum to zero, so position = a*e0 + b*e1 with
	// bond 2 contributing (-1, -1). B sites use the negated bonds.
	honeycombA = [][2]int{{1, 0}, {0, 1}, {-1, -1}}
	honeycombB = [][2]int{{-1, 0}, {0, -1}, {1, 1}}
)

func geometryFor(g models.GridType) (geometry, error) {
	switch g {
	case models.GridSquare:
		return geometry{
			moves:   [2][][2]int{squareMoves, squareMoves},
			reverse: func(d int) int { return (d + 2) % 4 },
			toXY:    func(q, r int) (float64, float64) { return float64(q), float64(r) },
		}, nil
	case models.GridTriangular:
		return geometry{
			moves:   [2][][2]int{triangularMoves, triangularMoves},
			reverse: func(d int) int { return (d + 3) % 6 },
			toXY: func(q, r int) (float64, float64) {
				return float64(q) + float64(r)/2, float64(r) * sqrt3over2
			},
		}, nil
	case models.GridHexagonal:
		return geometry{
			moves:       [2][][2]int{honeycombA, honeycombB},
			alternating: true,
			// Leaving a B site along bond d undoes arriving along bond d.
			reverse: func(d int) int { return d },
			// e0 = (0, 1), e1 = (-sqrt3/2, -1/2)
			toXY: func(a, b int) (float64, float64) {
				return -float64(b) * sqrt3over2, float64(a) - float64(b)/2
			},
		}, nil
	}
	return geometry{}, fmt.Errorf("%w: %v", ErrUnsupportedGrid, g)
}

// walk runs one walk and returns its Euclidean end-to-end displacement.
func (geo geometry) walk(rng *rand.Rand, kernel models.WalkType, segments, segmentSteps int) float64 {
	var q, r, parity int
	prev := -1
	for s := 0; s < segments; s++ {
		for i := 0; i < segmentSteps; i++ {
			moves := geo.moves[parity]
			d := geo.next(rng, kernel, len(moves), prev)
			q += moves[d][0]
			r += moves[d][1]
			if geo.alternating {
				parity ^= 1
			}
			prev = d
		}
	}
	x, y := geo.toXY(q, r)
	return math.Hypot(x, y)
}

// next draws a direction. Without a previous step, or for simple walks, every
// direction is allowed; otherwise the reverse of prev is skipped.
func (geo geometry) next(rng *rand.Rand, kernel models.WalkType, degree, prev int) int {
	if kernel == models.WalkSimple || prev < 0 {
		return rng.IntN(degree)
	}
	rev := geo.reverse(prev)
	d := rng.IntN(degree - 1)
	if d >= rev {
		d++
	}
	return d
}
