// Package models defines the data model shared by the sweep, trace, fit and
// experiment packages.
package models

import "fmt"

// WalkExperimentParams configures one trace: one sweep over bucket sizes on a
// single lattice and walk kernel.
//
// Exactly one of ArithmeticStep and GeometricRatio is meaningful, selected by
// SequenceKind. StepsPerSample > 0 switches the sweep to bucketed oracle calls,
// where each bucket simulates Bucket*StepsPerSample steps.
type WalkExperimentParams struct {
	Seed           int64        `json:"seed" yaml:"seed"`
	WalkType       WalkType     `json:"walk_type" yaml:"walk_type"`
	GridType       GridType     `json:"grid_type" yaml:"grid_type"`
	NumWalksCoef   float64      `json:"num_walks_coef" yaml:"num_walks_coef" validate:"gt=0"`
	SequenceKind   SequenceKind `json:"seq_type" yaml:"seq_type"`
	StartValue     int          `json:"start_seq" yaml:"start_seq" validate:"gte=1"`
	ArithmeticStep int          `json:"arithm_step" yaml:"arithm_step"`
	GeometricRatio float64      `json:"geom_step" yaml:"geom_step"`
	StepCount      int          `json:"num_steps" yaml:"num_steps" validate:"gte=1"`
	StepsPerSample int          `json:"steps_per_sample,omitempty" yaml:"steps_per_sample,omitempty" validate:"gte=0"`
	TraceName      string       `json:"trace_name" yaml:"trace_name"`
}

// Bucketed reports whether buckets map to bucketed oracle calls.
func (p WalkExperimentParams) Bucketed() bool {
	return p.StepsPerSample > 0
}

// Increment returns the progression parameter selected by SequenceKind,
// as a float so both kinds share one formatting path.
func (p WalkExperimentParams) Increment() float64 {
	if p.SequenceKind == SequenceGeometric {
		return p.GeometricRatio
	}
	return float64(p.ArithmeticStep)
}

// Label is the legend text for the trace's empirical series.
func (p WalkExperimentParams) Label() string {
	return fmt.Sprintf("%s (Walk type: %s, Grid type: %s)", p.TraceName, p.WalkType, p.GridType)
}
