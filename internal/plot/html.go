package plot

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	// ErrEmptyName is returned for a blank output name.
	ErrEmptyName = errors.New("plot: empty output name")

	// ErrBadName is returned for output names containing path separators.
	ErrBadName = errors.New("plot: output name must be a plain file name")
)

//go:embed templates/*
var templates embed.FS

// PlotlySrc is the plotly.js bundle referenced by generated pages.
const PlotlySrc = "https://cdn.plot.ly/plotly-2.35.2.min.js"

type pageData struct {
	Title     string
	PlotlySrc template.URL
	Data      template.JS
	Layout    template.JS
}

type errorBars struct {
	Type       string     `json:"type"`
	Symmetric  bool       `json:"symmetric"`
	Array      jsonFloats `json:"array"`
	ArrayMinus jsonFloats `json:"arrayminus"`
	Visible    bool       `json:"visible"`
}

type plotlyTrace struct {
	Type       string     `json:"type"`
	Mode       string     `json:"mode"`
	Name       string     `json:"name"`
	X          jsonFloats `json:"x"`
	Y          jsonFloats `json:"y"`
	Text       []string   `json:"text,omitempty"`
	HoverInfo  string     `json:"hoverinfo,omitempty"`
	ErrorY     *errorBars `json:"error_y,omitempty"`
	Fill       string     `json:"fill,omitempty"`
	Opacity    float64    `json:"opacity,omitempty"`
	ShowLegend bool       `json:"showlegend"`
}

// jsonFloats encodes NaN and ±Inf as null, which plotly draws as a gap.
// A two-sample fit has non-finite covariance, so its error bars hit this.
type jsonFloats []float64

func (v jsonFloats) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	buf := make([]byte, 0, 2+len(v)*8)
	buf = append(buf, '[')
	for i, x := range v {
		if i > 0 {
			buf = append(buf, ',')
		}
		if math.IsNaN(x) || math.IsInf(x, 0) {
			buf = append(buf, "null"...)
			continue
		}
		buf = strconv.AppendFloat(buf, x, 'g', -1, 64)
	}
	return append(buf, ']'), nil
}

type axis struct {
	Title string `json:"title"`
	Type  string `json:"type"`
}

type layout struct {
	Title      string `json:"title"`
	ShowLegend bool   `json:"showlegend"`
	XAxis      axis   `json:"xaxis"`
	YAxis      axis   `json:"yaxis"`
}

func (f *Figure) plotlyTraces() []plotlyTrace {
	traces := make([]plotlyTrace, 0, len(f.Series)+len(f.Bands))
	for _, s := range f.Series {
		t := plotlyTrace{
			Type:       "scatter",
			Mode:       "lines",
			Name:       s.Name,
			X:          s.X,
			Y:          s.Y,
			Text:       s.Hover,
			ShowLegend: true,
		}
		if s.Markers {
			t.Mode = "lines+markers"
		}
		if len(s.ErrPlus) > 0 {
			t.ErrorY = &errorBars{Type: "data", Array: s.ErrPlus, ArrayMinus: s.ErrMinus, Visible: true}
		}
		traces = append(traces, t)
	}
	for _, b := range f.Bands {
		// Outline the band clockwise: upper edge forward, lower edge back.
		n := len(b.X)
		xs := make([]float64, 0, 2*n)
		ys := make([]float64, 0, 2*n)
		xs = append(xs, b.X...)
		ys = append(ys, b.Upper...)
		for i := n - 1; i >= 0; i-- {
			xs = append(xs, b.X[i])
			ys = append(ys, b.Lower[i])
		}
		traces = append(traces, plotlyTrace{
			Type:       "scatter",
			Mode:       "lines",
			Name:       b.Name,
			X:          xs,
			Y:          ys,
			Fill:       "toself",
			Opacity:    0.3,
			HoverInfo:  "skip",
			ShowLegend: true,
		})
	}
	return traces
}

func (f *Figure) plotlyLayout() layout {
	l := layout{
		Title:      f.Title,
		ShowLegend: true,
		XAxis:      axis{Title: "Steps", Type: "linear"},
		YAxis:      axis{Title: "Mean displacement", Type: "linear"},
	}
	if f.LogLog {
		l.XAxis.Type = "log"
		l.YAxis.Type = "log"
	}
	return l
}

// scriptJSON marshals v for inline <script> embedding. json.HTMLEscape turns
// <, > and & into unicode escapes so a series name cannot close the tag.
func scriptJSON(v any) (template.JS, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	var escaped bytes.Buffer
	json.HTMLEscape(&escaped, raw)
	return template.JS(escaped.String()), nil // #nosec G203
}

// RenderHTML renders f as a standalone plotly page.
func RenderHTML(f *Figure) ([]byte, error) {
	tmplBytes, err := templates.ReadFile("templates/figure.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("read HTML template: %w", err)
	}
	tmpl, err := template.New("figure").Parse(string(tmplBytes))
	if err != nil {
		return nil, fmt.Errorf("parse HTML template: %w", err)
	}

	data, err := scriptJSON(f.plotlyTraces())
	if err != nil {
		return nil, fmt.Errorf("marshal figure data: %w", err)
	}
	lay, err := scriptJSON(f.plotlyLayout())
	if err != nil {
		return nil, fmt.Errorf("marshal figure layout: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, pageData{
		Title:     f.Title,
		PlotlySrc: template.URL(PlotlySrc), // #nosec G203
		Data:      data,
		Layout:    lay,
	}); err != nil {
		return nil, fmt.Errorf("execute HTML template: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteHTML writes <dir>/<name>.html and <dir>/<name>_loglog.html, creating
// dir if needed, and returns the two paths.
func (fs *Figures) WriteHTML(dir, name string) ([]string, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	linear, loglog := Paths(dir, name)
	for _, out := range []struct {
		fig  *Figure
		path string
	}{{&fs.Linear, linear}, {&fs.LogLog, loglog}} {
		page, err := RenderHTML(out.fig)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(out.path, page, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", out.path, err)
		}
	}
	return []string{linear, loglog}, nil
}

func htmlPath(dir, name string) string {
	return filepath.Join(dir, name+".html")
}

// cleanName trims name and rejects names that would escape the output
// directory.
func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrBadName, name)
	}
	return name, nil
}
