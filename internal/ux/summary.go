package ux

import (
	"fmt"
	"io"
	"strings"

	"github.com/nvandessel/walkscale/internal/models"
)

// FitSummary prints the fitted power law of one trace in a box.
func FitSummary(w io.Writer, name string, r models.FitResult) {
	var b strings.Builder
	b.WriteString(Styles.Title.Render("Fit successful: "+name) + "\n")
	row := func(label string, v float64) {
		fmt.Fprintf(&b, "%s %g\n", Styles.Label.Render(fmt.Sprintf("%-8s", label)), v)
	}
	row("c", r.Prefactor())
	row("alpha", r.Exponent())
	row("c0", r.C0)
	row("c1", r.C1)
	row("sumsq", r.SumSq)
	fmt.Fprintln(w, Styles.Box.Render(strings.TrimRight(b.String(), "\n")))
}
