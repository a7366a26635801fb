package plot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/nvandessel/walkscale/internal/constants"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrEmptyFigure is returned when a figure with nothing drawable is rendered
// to PNG.
var ErrEmptyFigure = errors.New("plot: nothing to draw")

var palette = []drawing.Color{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 255},
	{R: 0xff, G: 0x7f, B: 0x0e, A: 255},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 255},
	{R: 0xd6, G: 0x27, B: 0x28, A: 255},
	{R: 0x94, G: 0x67, B: 0xbd, A: 255},
	{R: 0x8c, G: 0x56, B: 0x4b, A: 255},
}

// RenderPNG draws f as a static chart. go-chart has no log axes, so a
// log-log figure is drawn as ln(x) against ln(y). Error bars are not drawn;
// bands become dashed lower and upper edges.
func RenderPNG(f *Figure, w io.Writer) error {
	tx := func(v float64) float64 { return v }
	xName, yName := "Steps", "Mean displacement"
	if f.LogLog {
		tx = math.Log
		xName, yName = "ln(steps)", "ln(mean displacement)"
	}

	var series []chart.Series
	for i, s := range f.Series {
		col := palette[i%len(palette)]
		st := chart.Style{StrokeColor: col, StrokeWidth: 2}
		if s.Markers {
			st.DotColor = col
			st.DotWidth = 3
		}
		if cs, ok := continuous(s.Name, s.X, s.Y, tx, st); ok {
			series = append(series, cs)
		}
	}
	for i, b := range f.Bands {
		col := palette[i%len(palette)].WithAlpha(140)
		st := chart.Style{StrokeColor: col, StrokeWidth: 1, StrokeDashArray: []float64{4, 3}}
		if cs, ok := continuous(b.Name, b.X, b.Upper, tx, st); ok {
			series = append(series, cs)
		}
		if cs, ok := continuous("", b.X, b.Lower, tx, st); ok {
			series = append(series, cs)
		}
	}
	if len(series) == 0 {
		return ErrEmptyFigure
	}

	ch := chart.Chart{
		Title:      f.Title,
		Width:      1280,
		Height:     720,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: xName},
		YAxis:      chart.YAxis{Name: yName},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render %q: %w", f.Title, err)
	}
	return nil
}

// continuous converts points through tx, dropping those that are not finite
// afterwards (non-positive values on a log-log figure). A single point is
// padded to two since go-chart cannot range a zero-width axis.
func continuous(name string, x, y []float64, tx func(float64) float64, st chart.Style) (chart.ContinuousSeries, bool) {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		xv, yv := tx(x[i]), tx(y[i])
		if math.IsNaN(xv) || math.IsInf(xv, 0) || math.IsNaN(yv) || math.IsInf(yv, 0) {
			continue
		}
		xs = append(xs, xv)
		ys = append(ys, yv)
	}
	switch len(xs) {
	case 0:
		return chart.ContinuousSeries{}, false
	case 1:
		xs = append(xs, xs[0]+1)
		ys = append(ys, ys[0])
	}
	return chart.ContinuousSeries{Name: name, XValues: xs, YValues: ys, Style: st}, true
}

// WritePNG writes <dir>/<name>.png and <dir>/<name>_loglog.png and returns
// the paths.
func (fs *Figures) WritePNG(dir, name string) ([]string, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	var paths []string
	for _, out := range []struct {
		fig  *Figure
		base string
	}{{&fs.Linear, name}, {&fs.LogLog, name + constants.LogLogSuffix}} {
		var buf bytes.Buffer
		if err := RenderPNG(out.fig, &buf); err != nil {
			return paths, err
		}
		path := filepath.Join(dir, out.base+".png")
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
