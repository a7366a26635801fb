package oracle

import (
	"context"
	"time"

	"github.com/nvandessel/walkscale/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Instrumented wraps an oracle with call metrics and an "oracle.walk" span per call.
type Instrumented struct {
	inner   Oracle
	metrics *telemetry.Metrics
	tracer  trace.Tracer
}

// Instrument decorates o. A nil metrics value records nothing.
func Instrument(o Oracle, metrics *telemetry.Metrics, tracer trace.Tracer) *Instrumented {
	return &Instrumented{inner: o, metrics: metrics, tracer: tracer}
}

// RunWalks forwards to the wrapped oracle.
func (in *Instrumented) RunWalks(ctx context.Context, req Request) (Estimate, error) {
	ctx, span := in.tracer.Start(ctx, "oracle.walk", trace.WithAttributes(
		attribute.String("strategy", "direct"),
		attribute.String("grid", req.Grid.String()),
		attribute.String("walk", req.Walk.String()),
		attribute.Int("num_walks", req.NumWalks),
		attribute.Int("num_steps", req.NumSteps),
	))
	defer span.End()

	start := time.Now()
	est, err := in.inner.RunWalks(ctx, req)
	in.finish(span, "direct", start, est, err)
	return est, err
}

// RunWalksBucketed forwards to the wrapped oracle, or fails with
// ErrBucketedUnsupported when it cannot run bucketed walks.
func (in *Instrumented) RunWalksBucketed(ctx context.Context, req BucketedRequest) (Estimate, error) {
	ctx, span := in.tracer.Start(ctx, "oracle.walk", trace.WithAttributes(
		attribute.String("strategy", "bucketed"),
		attribute.String("grid", req.Grid.String()),
		attribute.String("walk", req.Walk.String()),
		attribute.Int("num_walks", req.NumWalks),
		attribute.Int("num_buckets", req.NumBuckets),
		attribute.Int("steps_per_bucket", req.StepsPerBucket),
	))
	defer span.End()

	start := time.Now()
	var (
		est Estimate
		err error
	)
	if b, ok := in.inner.(BucketedOracle); ok {
		est, err = b.RunWalksBucketed(ctx, req)
	} else {
		err = ErrBucketedUnsupported
	}
	in.finish(span, "bucketed", start, est, err)
	return est, err
}

func (in *Instrumented) finish(span trace.Span, strategy string, start time.Time, est Estimate, err error) {
	in.metrics.ObserveOracleCall(strategy, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetAttributes(
		attribute.Float64("mean", est.Mean),
		attribute.Float64("variance", est.Variance),
	)
}
