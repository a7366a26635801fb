package ux

import (
	"fmt"
	"io"
	"os"

	"github.com/nvandessel/walkscale/internal/models"
	"golang.org/x/term"
)

// Progress renders a sweep as one status line. On a terminal the line is
// rewritten after every bucket; elsewhere only the final outcome is printed.
type Progress struct {
	w    io.Writer
	tty  bool
	name string
	done int
}

// NewProgress writes to w, detecting whether w is a terminal.
func NewProgress(w io.Writer) *Progress {
	tty := false
	if f, ok := w.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}
	return &Progress{w: w, tty: tty}
}

// Start begins a new trace.
func (p *Progress) Start(name string, total int) {
	p.name, p.done = name, 0
	if p.tty {
		fmt.Fprintf(p.w, "\r%s %s", Styles.Label.Render(name), p.counter(0, total))
	}
}

// Done records bucket as measured.
func (p *Progress) Done(bucket, total int, _ models.TraceSample) {
	p.done = bucket + 1
	if p.tty {
		fmt.Fprintf(p.w, "\r%s %s", Styles.Label.Render(p.name), p.counter(p.done, total))
	}
}

// Finish ends the line with the trace outcome.
func (p *Progress) Finish(err error) {
	if p.tty {
		fmt.Fprint(p.w, "\r\033[K")
	}
	if err != nil {
		fmt.Fprintf(p.w, "%s %s %s\n", Styles.StatusError.String(), Styles.Label.Render(p.name),
			Styles.Muted.Render(fmt.Sprintf("failed after %d buckets", p.done)))
		return
	}
	fmt.Fprintf(p.w, "%s %s %s\n", Styles.StatusOK.String(), Styles.Label.Render(p.name),
		Styles.Muted.Render(fmt.Sprintf("%d buckets", p.done)))
}

func (p *Progress) counter(done, total int) string {
	return Styles.Counter.Render(fmt.Sprintf("%d / %d", done, total))
}
