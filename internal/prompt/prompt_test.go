package prompt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nvandessel/walkscale/internal/models"
)

func TestFieldsRoundTrip(t *testing.T) {
	want := models.WalkExperimentParams{
		Seed:           -42,
		WalkType:       models.WalkNoImmediateReturn,
		GridType:       models.GridTriangular,
		NumWalksCoef:   12.5,
		SequenceKind:   models.SequenceGeometric,
		StartValue:     20,
		ArithmeticStep: 5,
		GeometricRatio: 1.1,
		StepCount:      100,
		StepsPerSample: 250,
		TraceName:      "tri",
	}

	got, err := newFields(want).params()
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if got != want {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

func TestFieldsIncrementFollowsKind(t *testing.T) {
	f := newFields(models.WalkExperimentParams{ArithmeticStep: 5, GeometricRatio: 1.1})
	if f.increment() != &f.step {
		t.Error("arithmetic should edit the step field")
	}
	f.kind = models.SequenceGeometric
	if f.increment() != &f.ratio {
		t.Error("geometric should edit the ratio field")
	}
}

func TestFieldsParseErrors(t *testing.T) {
	f := newFields(models.WalkExperimentParams{TraceName: " padded "})
	f.seed = "abc"
	f.count = "1.5"

	p, err := f.params()
	if err == nil {
		t.Fatal("expected parse error")
	}
	for _, want := range []string{"seed", "number of buckets"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
	if p.TraceName != "padded" {
		t.Errorf("TraceName = %q, want trimmed", p.TraceName)
	}
}

func TestValidators(t *testing.T) {
	tests := []struct {
		name  string
		fn    func(string) error
		input string
		ok    bool
	}{
		{"required empty", required, "  ", false},
		{"required set", required, "x", true},
		{"name with slash", validName, "a/b", false},
		{"name plain", validName, "results", true},
		{"seed negative", validSeed, "-9", true},
		{"seed text", validSeed, "x", false},
		{"int negative", validInt, "-5", true},
		{"positive int zero", positiveInt, "0", false},
		{"positive int", positiveInt, " 20 ", true},
		{"non-negative zero", nonNegativeInt, "0", true},
		{"non-negative negative", nonNegativeInt, "-1", false},
		{"float zero", positiveFloat, "0", false},
		{"float nan", positiveFloat, "NaN", false},
		{"float ratio", positiveFloat, "1.1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(tt.input); (err == nil) != tt.ok {
				t.Errorf("validator(%q) error = %v, want ok=%v", tt.input, err, tt.ok)
			}
		})
	}
}

func TestOptionsLabels(t *testing.T) {
	opts := options(models.GridTypes)
	if len(opts) != len(models.GridTypes) {
		t.Fatalf("got %d options", len(opts))
	}
	if opts[2].Key != "Hexagonal" || opts[2].Value != models.GridHexagonal {
		t.Errorf("option 2 = %+v", opts[2])
	}
}

func TestNewUsesAccessibleModeOffTerminal(t *testing.T) {
	p := New(strings.NewReader(""), &bytes.Buffer{})
	if !p.accessible {
		t.Error("non-terminal input should select accessible mode")
	}
}
