package build

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
)

// Writes the human-readable stage banners of a pipeline run.
type outputter struct {
	w     io.Writer
	total int // Number of steps announced at the start.
	cur   int // 1-based index of the current step.
}

func newOutputter(w io.Writer) *outputter {
	return &outputter{w: w}
}

func (o *outputter) printColorf(c *color.Color, format string, a ...any) {
	c.Fprintf(o.w, format, a...)
	fmt.Fprintln(o.w)
}

func (o *outputter) startPipeline(image string, total int) {
	o.total = total
	o.cur = 0
	o.printColorf(color.New(color.FgBlue), "──┤ Build %s … ├────────────────────────────────", image)
}

func (o *outputter) startStep(name string) {
	o.cur++
	o.printColorf(color.New(color.FgCyan, color.Bold), "STEP %d/%d — %s", o.cur, o.total, name)
}

func (o *outputter) endStep(name string, elapsed time.Duration, err error) {
	if err != nil {
		o.printColorf(color.New(color.FgRed), "  ✗ %s failed: %v", name, err)
		return
	}
	o.printColorf(color.New(color.FgGreen), "  ✓ %s (%.1fs)", name, elapsed.Seconds())
}

func (o *outputter) warnf(format string, a ...any) {
	o.printColorf(color.New(color.FgYellow), "  ! "+format, a...)
}

func (o *outputter) endPipeline(elapsed time.Duration, failedStep string, err error) {
	if err == nil {
		green := color.New(color.FgGreen).SprintfFunc()
		o.printColorf(color.New(color.FgBlue), "──┤ Build done in %s ├────────────────────────────────", green("%.1fs", elapsed.Seconds()))
		return
	}
	o.printColorf(color.New(color.FgRed, color.Bold), "──┤ Build FAILED at %q after %.1fs: %v", failedStep, elapsed.Seconds(), err)
}
