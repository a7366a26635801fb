// Package trace runs a planned sweep against a simulation oracle and
// assembles the measured samples into a models.Trace.
package trace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nvandessel/walkscale/internal/logging"
	"github.com/nvandessel/walkscale/internal/models"
	"github.com/nvandessel/walkscale/internal/oracle"
	"github.com/nvandessel/walkscale/internal/sweep"
	"github.com/nvandessel/walkscale/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ErrOracle matches every *OracleError.
var ErrOracle = errors.New("trace: oracle failed")

// OracleError reports the bucket whose oracle call failed.
type OracleError struct {
	Trace  string
	Bucket int
	Size   int
	Err    error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("trace %q: bucket %d (size %d): %v", e.Trace, e.Bucket, e.Size, e.Err)
}

func (e *OracleError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrOracle) hold for any OracleError.
func (e *OracleError) Is(target error) bool { return target == ErrOracle }

// Progress observes a sweep. Done is called after each bucket is measured.
type Progress interface {
	Start(name string, total int)
	Done(bucket, total int, sample models.TraceSample)
	Finish(err error)
}

// BuilderConfig holds the optional collaborators of a Builder.
type BuilderConfig struct {
	Progress Progress
	Logger   *slog.Logger
	Events   *logging.EventLog
	Metrics  *telemetry.Metrics
	Tracer   oteltrace.Tracer
	// RunID is copied into event log records.
	RunID string
}

// Builder measures one trace per Build call. Buckets run sequentially and
// the oracle is never called concurrently.
type Builder struct {
	oracle oracle.Oracle
	cfg    BuilderConfig
}

// NewBuilder creates a builder over o. Zero-valued config fields are
// replaced by no-op implementations.
func NewBuilder(o oracle.Oracle, cfg BuilderConfig) *Builder {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = noop.NewTracerProvider().Tracer(telemetry.TracerName)
	}
	return &Builder{oracle: o, cfg: cfg}
}

// WithRunID returns a copy of b that tags events with id.
func (b *Builder) WithRunID(id string) *Builder {
	cp := *b
	cp.cfg.RunID = id
	return &cp
}

// Build plans p and measures every bucket in order.
//
// Any oracle failure aborts the trace: Build returns an *OracleError and no
// samples. Cancellation is checked between buckets, never during an oracle
// call.
func (b *Builder) Build(ctx context.Context, p models.WalkExperimentParams) (models.Trace, error) {
	plan := sweep.Plan(p)
	if p.Bucketed() {
		if _, ok := b.oracle.(oracle.BucketedOracle); !ok {
			return models.Trace{}, &OracleError{Trace: p.TraceName, Bucket: 0, Size: firstSize(plan), Err: oracle.ErrBucketedUnsupported}
		}
	}

	if b.cfg.Progress != nil {
		b.cfg.Progress.Start(p.TraceName, len(plan))
	}
	tr, err := b.measure(ctx, p, plan)
	if b.cfg.Progress != nil {
		b.cfg.Progress.Finish(err)
	}
	if err != nil {
		return models.Trace{}, err
	}
	return tr, nil
}

func (b *Builder) measure(ctx context.Context, p models.WalkExperimentParams, plan []sweep.Bucket) (models.Trace, error) {
	samples := make([]models.TraceSample, 0, len(plan))
	for _, bucket := range plan {
		if err := ctx.Err(); err != nil {
			return models.Trace{}, fmt.Errorf("trace %q interrupted before bucket %d: %w", p.TraceName, bucket.Index, err)
		}

		sample, err := b.measureBucket(ctx, p, bucket)
		if err != nil {
			b.cfg.Logger.Debug("oracle call failed",
				"trace", p.TraceName, "bucket", bucket.Index, "size", bucket.Size, "error", err)
			return models.Trace{}, &OracleError{Trace: p.TraceName, Bucket: bucket.Index, Size: bucket.Size, Err: err}
		}
		samples = append(samples, sample)

		b.cfg.Metrics.ObserveBucket()
		b.cfg.Events.Write(logging.Event{
			Kind:     logging.EventBucket,
			RunID:    b.cfg.RunID,
			Trace:    p.TraceName,
			Bucket:   logging.BucketIndex(bucket.Index),
			NumSteps: sample.NumSteps,
			NumWalks: sample.NumWalks,
			Fields:   map[string]any{"mean": sample.Mean, "variance": sample.Variance},
		})
		if b.cfg.Progress != nil {
			b.cfg.Progress.Done(bucket.Index, len(plan), sample)
		}
	}
	return models.Trace{Name: p.TraceName, Samples: samples}, nil
}

func (b *Builder) measureBucket(ctx context.Context, p models.WalkExperimentParams, bucket sweep.Bucket) (models.TraceSample, error) {
	ctx, span := b.cfg.Tracer.Start(ctx, "trace.bucket", oteltrace.WithAttributes(
		attribute.String("trace", p.TraceName),
		attribute.Int("bucket", bucket.Index),
		attribute.Int("size", bucket.Size),
		attribute.Int("total_steps", bucket.TotalSteps),
		attribute.Int("num_walks", bucket.NumWalks),
		attribute.String("strategy", bucket.Strategy.String()),
	))
	defer span.End()

	start := time.Now()
	est, err := b.call(ctx, p, bucket)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return models.TraceSample{}, err
	}

	b.cfg.Logger.Log(ctx, logging.LevelTrace, "bucket measured",
		"trace", p.TraceName, "bucket", bucket.Index, "steps", bucket.TotalSteps,
		"walks", bucket.NumWalks, "mean", est.Mean, "elapsed", time.Since(start))

	return models.TraceSample{
		NumSteps: bucket.TotalSteps,
		NumWalks: bucket.NumWalks,
		Mean:     est.Mean,
		Variance: est.Variance,
	}, nil
}

// call dispatches one bucket to the oracle according to its strategy.
func (b *Builder) call(ctx context.Context, p models.WalkExperimentParams, bucket sweep.Bucket) (oracle.Estimate, error) {
	if b.cfg.Events.Verbose() {
		b.cfg.Events.Write(logging.Event{
			Kind:     logging.EventOracleRequest,
			RunID:    b.cfg.RunID,
			Trace:    p.TraceName,
			Bucket:   logging.BucketIndex(bucket.Index),
			NumSteps: bucket.TotalSteps,
			NumWalks: bucket.NumWalks,
			Fields:   map[string]any{"strategy": bucket.Strategy.String(), "seed": p.Seed},
		})
	}

	switch bucket.Strategy {
	case sweep.StrategyBucketed:
		bo := b.oracle.(oracle.BucketedOracle)
		return bo.RunWalksBucketed(ctx, oracle.BucketedRequest{
			Seed:           p.Seed,
			Walk:           p.WalkType,
			Grid:           p.GridType,
			NumWalks:       bucket.NumWalks,
			NumBuckets:     bucket.Size,
			StepsPerBucket: bucket.StepsPerSample,
		})
	default:
		return b.oracle.RunWalks(ctx, oracle.Request{
			Seed:     p.Seed,
			Walk:     p.WalkType,
			Grid:     p.GridType,
			NumWalks: bucket.NumWalks,
			NumSteps: bucket.Size,
		})
	}
}

func firstSize(plan []sweep.Bucket) int {
	if len(plan) == 0 {
		return 0
	}
	return plan[0].Size
}
