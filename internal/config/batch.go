package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nvandessel/walkscale/internal/constants"
	"github.com/nvandessel/walkscale/internal/models"
	"github.com/nvandessel/walkscale/internal/sweep"
	"gopkg.in/yaml.v3"
)

// ErrInvalidBatch wraps every parse or validation failure of a batch file
// or of a single set of experiment parameters.
var ErrInvalidBatch = errors.New("config: invalid batch")

// Batch is a non-interactive run: an ordered list of traces drawn onto one
// pair of figures named OutputFile.
type Batch struct {
	OutputFile string                        `json:"output_file" yaml:"output_file" validate:"required"`
	Walks      []models.WalkExperimentParams `json:"walks" yaml:"walks" validate:"required,min=1,dive"`
}

var batchValidate *validator.Validate

func init() {
	batchValidate = validator.New(validator.WithRequiredStructEnabled())
	batchValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	batchValidate.RegisterStructValidation(validateParams, models.WalkExperimentParams{})
}

// validateParams enforces the rules tags cannot express: enum ranges, the
// progression parameter selected by seq_type, a sweep with no non-positive
// bucket, and a step budget that fits in an int32.
func validateParams(sl validator.StructLevel) {
	p := sl.Current().Interface().(models.WalkExperimentParams)

	if !p.WalkType.Valid() {
		sl.ReportError(p.WalkType, "walk_type", "WalkType", "walk_type", "")
	}
	if !p.GridType.Valid() {
		sl.ReportError(p.GridType, "grid_type", "GridType", "grid_type", "")
	}
	if strings.TrimSpace(p.TraceName) == "" {
		sl.ReportError(p.TraceName, "trace_name", "TraceName", "required", "")
	}

	switch p.SequenceKind {
	case models.SequenceArithmetic:
		sizes := sweep.Buckets(p)
		if len(sizes) > 0 && sizes[len(sizes)-1] < 1 {
			sl.ReportError(p.ArithmeticStep, "arithm_step", "ArithmeticStep", "positive_buckets", "")
		}
	case models.SequenceGeometric:
		if !(p.GeometricRatio > 0) {
			sl.ReportError(p.GeometricRatio, "geom_step", "GeometricRatio", "gt", "0")
		}
	default:
		sl.ReportError(p.SequenceKind, "seq_type", "SequenceKind", "seq_type", "")
		return
	}

	if largestTotal(p) >= constants.MaxTotalSteps {
		sl.ReportError(p.StepCount, "num_steps", "StepCount", "max_total_steps", fmt.Sprint(constants.MaxTotalSteps))
	}
}

// largestTotal returns the largest per-walk step budget of p's sweep. It is
// computed in float64 so a huge geometric sweep cannot wrap around.
func largestTotal(p models.WalkExperimentParams) float64 {
	if p.StepCount < 1 {
		return 0
	}
	last := float64(p.StepCount - 1)
	start := float64(p.StartValue)

	var hi float64
	if p.SequenceKind == models.SequenceGeometric {
		hi = start * math.Max(1, math.Pow(p.GeometricRatio, last))
	} else {
		hi = math.Max(start, start+last*float64(p.ArithmeticStep))
	}
	if p.StepsPerSample > 0 {
		hi *= float64(p.StepsPerSample)
	}
	return hi
}

// ValidateParams checks one set of experiment parameters.
func ValidateParams(p models.WalkExperimentParams) error {
	if err := batchValidate.Struct(p); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidBatch, describe(err))
	}
	return nil
}

// Validate checks every trace of the batch.
func (b *Batch) Validate() error {
	if err := batchValidate.Struct(b); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidBatch, describe(err))
	}
	return nil
}

// LoadBatch reads and validates a batch file. JSON is accepted as a subset of
// YAML, so both formats share the same keys.
func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrInvalidBatch, path, err)
	}
	return ParseBatch(data)
}

// ParseBatch decodes and validates a batch document.
func ParseBatch(data []byte) (*Batch, error) {
	var b Batch
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: parsing: %w", ErrInvalidBatch, err)
	}
	b.OutputFile = strings.TrimSpace(b.OutputFile)
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// describe renders validator errors as "field: rule" pairs using the
// document's key names.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Batch.")
		field = strings.TrimPrefix(field, "WalkExperimentParams.")
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		msgs = append(msgs, fmt.Sprintf("%s: failed %s (got %v)", field, rule, fe.Value()))
	}
	return strings.Join(msgs, "; ")
}
