// Package oracle defines the Simulation Oracle consumed by the trace builder
// and provides an in-process lattice implementation.
//
// An oracle runs a batch of independent random walks and reports the mean and
// population variance of the end-to-end displacement. Calls block until the
// batch completes. Each call is independent: the variance is per call, and two
// calls with the same request are only identical if the implementation says so.
package oracle

import (
	"context"
	"errors"

	"github.com/nvandessel/walkscale/internal/models"
)

var (
	// ErrInvalidRequest is returned for non-positive walk or step counts.
	ErrInvalidRequest = errors.New("oracle: invalid request")

	// ErrUnsupportedGrid is returned when the oracle has no kernel for a grid type.
	ErrUnsupportedGrid = errors.New("oracle: unsupported grid type")

	// ErrBucketedUnsupported is returned when a bucketed call reaches an oracle
	// that only runs direct walks.
	ErrBucketedUnsupported = errors.New("oracle: bucketed walks not supported")
)

// Request asks for NumWalks walks of NumSteps steps.
type Request struct {
	Seed     int64
	Walk     models.WalkType
	Grid     models.GridType
	NumWalks int
	NumSteps int
}

// BucketedRequest asks for NumWalks walks, each made of NumBuckets consecutive
// segments of StepsPerBucket steps.
type BucketedRequest struct {
	Seed           int64
	Walk           models.WalkType
	Grid           models.GridType
	NumWalks       int
	NumBuckets     int
	StepsPerBucket int
}

// Estimate is the oracle's answer for one batch.
type Estimate struct {
	Mean     float64
	Variance float64
}

// Oracle runs batches of independent walks.
type Oracle interface {
	RunWalks(ctx context.Context, req Request) (Estimate, error)
}

// BucketedOracle additionally runs walks split into fixed-size segments.
type BucketedOracle interface {
	Oracle
	RunWalksBucketed(ctx context.Context, req BucketedRequest) (Estimate, error)
}

// Func adapts a function to the Oracle interface.
type Func func(ctx context.Context, req Request) (Estimate, error)

// RunWalks calls f(ctx, req).
func (f Func) RunWalks(ctx context.Context, req Request) (Estimate, error) {
	return f(ctx, req)
}

func (r Request) validate() error {
	if r.NumWalks < 1 || r.NumSteps < 1 {
		return ErrInvalidRequest
	}
	return nil
}

func (r BucketedRequest) validate() error {
	if r.NumWalks < 1 || r.NumBuckets < 1 || r.StepsPerBucket < 1 {
		return ErrInvalidRequest
	}
	return nil
}
