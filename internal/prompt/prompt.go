// Package prompt implements the interactive parameter prompts with huh
// forms. When stdin is not a terminal the forms run in accessible mode,
// reading plain lines, so sessions can be scripted.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/nvandessel/walkscale/internal/config"
	"github.com/nvandessel/walkscale/internal/models"
	"github.com/nvandessel/walkscale/internal/ux"
	"golang.org/x/term"
)

// ErrAborted is returned when the user cancels a form.
var ErrAborted = errors.New("prompt: aborted")

// Prompter asks for experiment parameters with huh forms.
type Prompter struct {
	in         io.Reader
	out        io.Writer
	accessible bool
}

// New creates a prompter reading from in and drawing to out. Accessible
// mode is used unless in is a terminal.
func New(in io.Reader, out io.Writer) *Prompter {
	accessible := true
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		accessible = false
	}
	return &Prompter{in: in, out: out, accessible: accessible}
}

func (p *Prompter) run(ctx context.Context, groups ...*huh.Group) error {
	form := huh.NewForm(groups...).
		WithAccessible(p.accessible).
		WithInput(p.in).
		WithOutput(p.out)
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrAborted
		}
		return err
	}
	return nil
}

// Params asks for the next trace. Invalid combinations are reported and
// asked again, starting from what was entered.
func (p *Prompter) Params(ctx context.Context, defaults models.WalkExperimentParams) (models.WalkExperimentParams, error) {
	for {
		f := newFields(defaults)

		if err := p.run(ctx,
			huh.NewGroup(
				huh.NewInput().Title("Trace name").Value(&f.name).Validate(required),
				huh.NewSelect[models.WalkType]().Title("Walk type").
					Options(options(models.WalkTypes)...).Value(&f.walk),
				huh.NewSelect[models.GridType]().Title("Grid type").
					Options(options(models.GridTypes)...).Value(&f.grid),
				huh.NewInput().Title("Seed").Value(&f.seed).Validate(validSeed),
			),
			huh.NewGroup(
				huh.NewInput().Title("Number of walks coefficient").
					Description("walks per bucket = max(500, sqrt(steps) * coefficient)").
					Value(&f.coef).Validate(positiveFloat),
				huh.NewSelect[models.SequenceKind]().Title("Sequence type").
					Options(options(models.SequenceKinds)...).Value(&f.kind),
			),
		); err != nil {
			return models.WalkExperimentParams{}, err
		}

		incrementTitle := "Arithmetic step"
		incrementValid := validInt
		if f.kind == models.SequenceGeometric {
			incrementTitle = "Geometric ratio"
			incrementValid = positiveFloat
		}
		if err := p.run(ctx, huh.NewGroup(
			huh.NewInput().Title("Start value").Value(&f.start).Validate(positiveInt),
			huh.NewInput().Title(incrementTitle).Value(f.increment()).Validate(incrementValid),
			huh.NewInput().Title("Number of buckets").Value(&f.count).Validate(positiveInt),
			huh.NewInput().Title("Steps per sample").
				Description("0 runs each bucket as one walk of that many steps").
				Value(&f.perSample).Validate(nonNegativeInt),
		)); err != nil {
			return models.WalkExperimentParams{}, err
		}

		params, err := f.params()
		if err == nil {
			err = config.ValidateParams(params)
		}
		if err == nil {
			return params, nil
		}
		ux.Errorf(p.out, "%v", err)
		defaults = params
	}
}

// Continue asks whether to run another trace.
func (p *Prompter) Continue(ctx context.Context) (bool, error) {
	more := false
	err := p.run(ctx, huh.NewGroup(
		huh.NewConfirm().Title("Generate another trace?").Affirmative("Yes").Negative("No").Value(&more),
	))
	return more, err
}

// OutputName asks for the base name of the figure files.
func (p *Prompter) OutputName(ctx context.Context) (string, error) {
	var name string
	err := p.run(ctx, huh.NewGroup(
		huh.NewInput().Title("Name of the output file").Value(&name).Validate(validName),
	))
	return strings.TrimSpace(name), err
}

func options[T interface {
	comparable
	fmt.Stringer
}](values []T) []huh.Option[T] {
	opts := make([]huh.Option[T], len(values))
	for i, v := range values {
		opts[i] = huh.NewOption(v.String(), v)
	}
	return opts
}

// fields holds form values as text between prompts.
type fields struct {
	name      string
	walk      models.WalkType
	grid      models.GridType
	seed      string
	coef      string
	kind      models.SequenceKind
	start     string
	step      string
	ratio     string
	count     string
	perSample string
}

func newFields(d models.WalkExperimentParams) *fields {
	return &fields{
		name:      d.TraceName,
		walk:      d.WalkType,
		grid:      d.GridType,
		seed:      strconv.FormatInt(d.Seed, 10),
		coef:      strconv.FormatFloat(d.NumWalksCoef, 'g', -1, 64),
		kind:      d.SequenceKind,
		start:     strconv.Itoa(d.StartValue),
		step:      strconv.Itoa(d.ArithmeticStep),
		ratio:     strconv.FormatFloat(d.GeometricRatio, 'g', -1, 64),
		count:     strconv.Itoa(d.StepCount),
		perSample: strconv.Itoa(d.StepsPerSample),
	}
}

// increment points at the progression field selected by kind.
func (f *fields) increment() *string {
	if f.kind == models.SequenceGeometric {
		return &f.ratio
	}
	return &f.step
}

// params converts the text fields. Both progression parameters are kept so
// that switching kind on a retry keeps the other default.
func (f *fields) params() (models.WalkExperimentParams, error) {
	p := models.WalkExperimentParams{
		TraceName:    strings.TrimSpace(f.name),
		WalkType:     f.walk,
		GridType:     f.grid,
		SequenceKind: f.kind,
	}
	var errs []error
	parse := func(label, s string, dst any) {
		s = strings.TrimSpace(s)
		var err error
		switch d := dst.(type) {
		case *int64:
			*d, err = strconv.ParseInt(s, 10, 64)
		case *int:
			*d, err = strconv.Atoi(s)
		case *float64:
			*d, err = strconv.ParseFloat(s, 64)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not a number", label, s))
		}
	}
	parse("seed", f.seed, &p.Seed)
	parse("coefficient", f.coef, &p.NumWalksCoef)
	parse("start value", f.start, &p.StartValue)
	parse("arithmetic step", f.step, &p.ArithmeticStep)
	parse("geometric ratio", f.ratio, &p.GeometricRatio)
	parse("number of buckets", f.count, &p.StepCount)
	parse("steps per sample", f.perSample, &p.StepsPerSample)
	return p, errors.Join(errs...)
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("required")
	}
	return nil
}

func validName(s string) error {
	if err := required(s); err != nil {
		return err
	}
	if strings.ContainsAny(s, `/\`) {
		return errors.New("must be a plain file name")
	}
	return nil
}

func validSeed(s string) error {
	if _, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err != nil {
		return errors.New("must be an integer")
	}
	return nil
}

func validInt(s string) error {
	if _, err := strconv.Atoi(strings.TrimSpace(s)); err != nil {
		return errors.New("must be an integer")
	}
	return nil
}

func positiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return errors.New("must be a positive integer")
	}
	return nil
}

func nonNegativeInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return errors.New("must be zero or a positive integer")
	}
	return nil
}

func positiveFloat(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !(v > 0) {
		return errors.New("must be a positive number")
	}
	return nil
}
