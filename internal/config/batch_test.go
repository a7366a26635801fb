package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/walkscale/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonBatch = `{
  "output_file": "lattices",
  "walks": [
    {
      "seed": 42,
      "walk_type": "Simple",
      "grid_type": "Square",
      "num_walks_coef": 20.0,
      "seq_type": "Arithmetic",
      "start_seq": 20,
      "arithm_step": 5,
      "geom_step": 1.1,
      "num_steps": 5,
      "trace_name": "square"
    },
    {
      "seed": 7,
      "walk_type": 1,
      "grid_type": 2,
      "num_walks_coef": 10,
      "seq_type": 1,
      "start_seq": 10,
      "arithm_step": 0,
      "geom_step": 2,
      "num_steps": 4,
      "steps_per_sample": 250,
      "trace_name": "honeycomb"
    }
  ]
}`

func TestParseBatchJSON(t *testing.T) {
	b, err := ParseBatch([]byte(jsonBatch))
	require.NoError(t, err)

	assert.Equal(t, "lattices", b.OutputFile)
	require.Len(t, b.Walks, 2)

	first := b.Walks[0]
	assert.Equal(t, int64(42), first.Seed)
	assert.Equal(t, models.SequenceArithmetic, first.SequenceKind)
	assert.Equal(t, 5, first.ArithmeticStep)
	assert.False(t, first.Bucketed())

	second := b.Walks[1]
	assert.Equal(t, models.WalkNoImmediateReturn, second.WalkType)
	assert.Equal(t, models.GridHexagonal, second.GridType)
	assert.Equal(t, models.SequenceGeometric, second.SequenceKind)
	assert.Equal(t, 2.0, second.GeometricRatio)
	assert.Equal(t, 250, second.StepsPerSample)
}

func TestLoadBatchYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	content := `
output_file: tri
walks:
  - walk_type: no_immediate_return
    grid_type: triangular
    num_walks_coef: 20
    seq_type: geometric
    start_seq: 20
    geom_step: 1.1
    num_steps: 100
    trace_name: tri-nrw
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	b, err := LoadBatch(path)
	require.NoError(t, err)
	assert.Equal(t, models.GridTriangular, b.Walks[0].GridType)
	assert.Equal(t, models.WalkNoImmediateReturn, b.Walks[0].WalkType)
}

func TestLoadBatchMissingFile(t *testing.T) {
	_, err := LoadBatch(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, ErrInvalidBatch)
}

func TestParseBatchInvalid(t *testing.T) {
	valid := func() models.WalkExperimentParams {
		return models.WalkExperimentParams{
			NumWalksCoef:   20,
			SequenceKind:   models.SequenceArithmetic,
			StartValue:     20,
			ArithmeticStep: 5,
			StepCount:      10,
			TraceName:      "t",
		}
	}

	tests := []struct {
		name   string
		doc    string
		mutate func(*models.WalkExperimentParams)
		want   string
	}{
		{name: "malformed", doc: `{"output_file": `, want: "parsing"},
		{name: "no walks", doc: `{"output_file": "x", "walks": []}`, want: "walks"},
		{name: "no output", doc: `{"walks": [{"trace_name": "t"}]}`, want: "output_file"},
		{name: "unknown grid", doc: `{"output_file": "x", "walks": [{"grid_type": "cubic"}]}`, want: "parsing"},
		{name: "zero coef", mutate: func(p *models.WalkExperimentParams) { p.NumWalksCoef = 0 }, want: "num_walks_coef"},
		{name: "zero start", mutate: func(p *models.WalkExperimentParams) { p.StartValue = 0 }, want: "start_seq"},
		{name: "zero count", mutate: func(p *models.WalkExperimentParams) { p.StepCount = 0 }, want: "num_steps"},
		{name: "negative steps per sample", mutate: func(p *models.WalkExperimentParams) { p.StepsPerSample = -1 }, want: "steps_per_sample"},
		{name: "blank name", mutate: func(p *models.WalkExperimentParams) { p.TraceName = " " }, want: "trace_name"},
		{name: "buckets go negative", mutate: func(p *models.WalkExperimentParams) { p.ArithmeticStep = -5 }, want: "arithm_step"},
		{name: "zero ratio", mutate: func(p *models.WalkExperimentParams) {
			p.SequenceKind = models.SequenceGeometric
			p.GeometricRatio = 0
		}, want: "geom_step"},
		{name: "bad grid code", mutate: func(p *models.WalkExperimentParams) { p.GridType = models.GridType(7) }, want: "grid_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.mutate != nil {
				p := valid()
				tt.mutate(&p)
				b := Batch{OutputFile: "x", Walks: []models.WalkExperimentParams{valid(), p}}
				err = b.Validate()
			} else {
				_, err = ParseBatch([]byte(tt.doc))
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidBatch)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateParamsAllowsShrinkingSweep(t *testing.T) {
	p := models.WalkExperimentParams{
		NumWalksCoef:   1,
		SequenceKind:   models.SequenceGeometric,
		StartValue:     100,
		GeometricRatio: 0.5,
		StepCount:      4,
		TraceName:      "shrink",
	}
	assert.NoError(t, ValidateParams(p))

	p.SequenceKind = models.SequenceArithmetic
	p.ArithmeticStep = -33
	assert.NoError(t, ValidateParams(p), "100, 67, 34, 1 stays positive")
	p.ArithmeticStep = -34
	err := ValidateParams(p)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "arithm_step"))
}

func TestValidateParamsRejectsOversizedSweep(t *testing.T) {
	base := models.WalkExperimentParams{
		NumWalksCoef:   1,
		SequenceKind:   models.SequenceGeometric,
		StartValue:     20,
		GeometricRatio: 2,
		StepCount:      20,
		TraceName:      "huge",
	}
	require.NoError(t, ValidateParams(base), "20 * 2^19 is about 1e7")

	tests := []struct {
		name   string
		mutate func(p *models.WalkExperimentParams)
	}{
		{"geometric overflow", func(p *models.WalkExperimentParams) { p.StepCount = 200 }},
		{"geometric past int32", func(p *models.WalkExperimentParams) { p.StepCount = 28 }},
		{"steps per sample", func(p *models.WalkExperimentParams) { p.StepsPerSample = 1000 }},
		{"arithmetic", func(p *models.WalkExperimentParams) {
			p.SequenceKind = models.SequenceArithmetic
			p.ArithmeticStep = math.MaxInt32 / 10
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			err := ValidateParams(p)
			require.ErrorIs(t, err, ErrInvalidBatch)
			assert.Contains(t, err.Error(), "max_total_steps")
		})
	}
}
