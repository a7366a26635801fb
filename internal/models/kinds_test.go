package models

import (
	"encoding/json"
	"math"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestParseWalkType(t *testing.T) {
	tests := []struct {
		input   string
		want    WalkType
		wantErr bool
	}{
		{"0", WalkSimple, false},
		{"simple", WalkSimple, false},
		{"Simple", WalkSimple, false},
		{"1", WalkNoImmediateReturn, false},
		{"NoReturns", WalkNoImmediateReturn, false},
		{"no_immediate_return", WalkNoImmediateReturn, false},
		{"No Immediate Returns", WalkNoImmediateReturn, false},
		{"2", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseWalkType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWalkType(%q) err = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseWalkType(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseGridType(t *testing.T) {
	tests := []struct {
		input string
		want  GridType
	}{
		{"0", GridSquare},
		{"square", GridSquare},
		{"1", GridTriangular},
		{"TRIANGULAR", GridTriangular},
		{"2", GridHexagonal},
		{"honeycomb", GridHexagonal},
	}
	for _, tt := range tests {
		got, err := ParseGridType(tt.input)
		if err != nil {
			t.Fatalf("ParseGridType(%q): %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseGridType(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
	if _, err := ParseGridType("cubic"); err == nil {
		t.Error("expected error for unknown grid type")
	}
}

func TestKindsStringRoundTrip(t *testing.T) {
	for _, w := range WalkTypes {
		got, err := ParseWalkType(w.String())
		if err != nil || got != w {
			t.Errorf("walk type %v did not round-trip: got %v, err %v", w, got, err)
		}
	}
	for _, g := range GridTypes {
		got, err := ParseGridType(g.String())
		if err != nil || got != g {
			t.Errorf("grid type %v did not round-trip: got %v, err %v", g, got, err)
		}
	}
	for _, s := range SequenceKinds {
		got, err := ParseSequenceKind(s.String())
		if err != nil || got != s {
			t.Errorf("sequence kind %v did not round-trip: got %v, err %v", s, got, err)
		}
	}
}

func TestParamsDecodeOriginalKeys(t *testing.T) {
	doc := `{"seed": 7, "walk_type": "NoReturns", "grid_type": 1, "num_walks_coef": 20.5,
"seq_type": "Geometric", "start_seq": 10, "arithm_step": 0, "geom_step": 2.0,
"num_steps": 4, "trace_name": "tri"}`

	var p WalkExperimentParams
	if err := yaml.Unmarshal([]byte(doc), &p); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}
	if p.Seed != 7 || p.WalkType != WalkNoImmediateReturn || p.GridType != GridTriangular {
		t.Errorf("unexpected enums/seed: %+v", p)
	}
	if p.SequenceKind != SequenceGeometric || p.GeometricRatio != 2.0 || p.StepCount != 4 {
		t.Errorf("unexpected sequence fields: %+v", p)
	}
	if p.Bucketed() {
		t.Error("params without steps_per_sample must not be bucketed")
	}

	var fromJSON WalkExperimentParams
	if err := json.Unmarshal([]byte(`{"walk_type":"Simple","grid_type":"Hexagonal","seq_type":"Arithmetic"}`), &fromJSON); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if fromJSON.GridType != GridHexagonal {
		t.Errorf("GridType = %v, want Hexagonal", fromJSON.GridType)
	}
}

func TestTraceSampleStdErr(t *testing.T) {
	s := TraceSample{NumSteps: 100, NumWalks: 501, Mean: 8, Variance: 25}
	want := math.Sqrt(25.0 / 500.0)
	if got := s.StdErr(); math.Abs(got-want) > 1e-15 {
		t.Errorf("StdErr() = %v, want %v", got, want)
	}

	if got := (TraceSample{NumWalks: 1, Variance: 1}).StdErr(); !math.IsNaN(got) {
		t.Errorf("StdErr() with one walk = %v, want NaN", got)
	}
}

func TestFitResultDerived(t *testing.T) {
	f := FitResult{C0: math.Log(2), C1: 0.5}
	if math.Abs(f.Prefactor()-2) > 1e-12 {
		t.Errorf("Prefactor() = %v, want 2", f.Prefactor())
	}
	if f.Exponent() != 0.5 {
		t.Errorf("Exponent() = %v, want 0.5", f.Exponent())
	}
}
