// Package plot accumulates scatter series and confidence bands into a linear
// and a log-log figure and writes them as interactive HTML or static PNG.
package plot

import (
	"fmt"

	"github.com/nvandessel/walkscale/internal/constants"
	"github.com/nvandessel/walkscale/internal/fit"
	"github.com/nvandessel/walkscale/internal/models"
)

// Series is one named line of (X, Y) points. ErrMinus and ErrPlus, when set,
// draw asymmetric vertical error bars and must match X in length, as must
// Hover.
type Series struct {
	Name     string    `json:"name"`
	X        []float64 `json:"x"`
	Y        []float64 `json:"y"`
	ErrMinus []float64 `json:"err_minus,omitempty"`
	ErrPlus  []float64 `json:"err_plus,omitempty"`
	Hover    []string  `json:"hover,omitempty"`
	Markers  bool      `json:"markers,omitempty"`
}

// Band is a filled region between Lower and Upper over X.
type Band struct {
	Name  string    `json:"name"`
	X     []float64 `json:"x"`
	Lower []float64 `json:"lower"`
	Upper []float64 `json:"upper"`
}

// Figure is an ordered set of series and bands sharing one pair of axes.
type Figure struct {
	Title  string   `json:"title"`
	LogLog bool     `json:"loglog"`
	Series []Series `json:"series"`
	Bands  []Band   `json:"bands"`
}

// AddSeries appends s.
func (f *Figure) AddSeries(s Series) error {
	if len(s.Y) != len(s.X) {
		return fmt.Errorf("plot: series %q has %d x values and %d y values", s.Name, len(s.X), len(s.Y))
	}
	for _, extra := range []int{len(s.ErrMinus), len(s.ErrPlus), len(s.Hover)} {
		if extra != 0 && extra != len(s.X) {
			return fmt.Errorf("plot: series %q has mismatched error or hover length", s.Name)
		}
	}
	f.Series = append(f.Series, s)
	return nil
}

// AddBand appends a filled band.
func (f *Figure) AddBand(name string, x, lower, upper []float64) error {
	if len(lower) != len(x) || len(upper) != len(x) {
		return fmt.Errorf("plot: band %q has mismatched lengths", name)
	}
	f.Bands = append(f.Bands, Band{Name: name, X: x, Lower: lower, Upper: upper})
	return nil
}

// Empty reports whether nothing has been drawn.
func (f *Figure) Empty() bool {
	return len(f.Series) == 0 && len(f.Bands) == 0
}

// Figures is the plot accumulator threaded through a run: every trace and
// fit is drawn on both a linear and a log-log figure.
type Figures struct {
	Linear Figure `json:"linear"`
	LogLog Figure `json:"loglog"`
}

// NewFigures returns an empty pair of figures.
func NewFigures() *Figures {
	return &Figures{
		Linear: Figure{Title: "Mean displacement"},
		LogLog: Figure{Title: "Mean displacement (log-log)", LogLog: true},
	}
}

func (fs *Figures) each(fn func(*Figure) error) error {
	if err := fn(&fs.Linear); err != nil {
		return err
	}
	return fn(&fs.LogLog)
}

// AddTrace draws the measured means of tr with one-standard-error bars and
// a shaded standard-error band.
func (fs *Figures) AddTrace(tr models.Trace, p models.WalkExperimentParams) error {
	xs := tr.Steps()
	means := tr.Means()
	errs := make([]float64, tr.Len())
	lower := make([]float64, tr.Len())
	upper := make([]float64, tr.Len())
	hover := make([]string, tr.Len())
	for i, s := range tr.Samples {
		se := s.StdErr()
		errs[i] = se
		lower[i] = s.Mean - se
		upper[i] = s.Mean + se
		hover[i] = fmt.Sprintf("Number of walks: %d", s.NumWalks)
	}

	return fs.each(func(f *Figure) error {
		if err := f.AddSeries(Series{
			Name:     p.Label(),
			X:        xs,
			Y:        means,
			ErrMinus: errs,
			ErrPlus:  errs,
			Hover:    hover,
			Markers:  true,
		}); err != nil {
			return err
		}
		return f.AddBand("stderr "+p.TraceName, xs, lower, upper)
	})
}

// AddFit draws the fitted curve over preds with its back-transformed
// one-sigma band as error bars.
func (fs *Figures) AddFit(name string, r models.FitResult, preds []fit.Prediction) error {
	xs := make([]float64, len(preds))
	ys := make([]float64, len(preds))
	minus := make([]float64, len(preds))
	plus := make([]float64, len(preds))
	for i, p := range preds {
		xs[i] = float64(p.Steps)
		ys[i] = p.Mean
		minus[i] = p.Mean - p.Lower()
		plus[i] = p.Upper() - p.Mean
	}

	label := fmt.Sprintf("Fit - %s (c = %.4f, alpha = %.4f)", name, r.Prefactor(), r.Exponent())
	return fs.each(func(f *Figure) error {
		return f.AddSeries(Series{Name: label, X: xs, Y: ys, ErrMinus: minus, ErrPlus: plus})
	})
}

// Paths returns the HTML files WriteHTML produces for name in dir.
func Paths(dir, name string) (linear, loglog string) {
	return htmlPath(dir, name), htmlPath(dir, name+constants.LogLogSuffix)
}
