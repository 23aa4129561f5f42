package progress

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
)

// StepBar renders the processing pipeline position in watch mode as a
// single bar over the fixed number of pipeline steps.
type StepBar struct {
	bar   *progressbar.ProgressBar
	total int
}

// NewStepBar creates a step bar over total steps, writing to w. The bar
// renders immediately at zero so the pipeline shape is visible before
// the first poll result arrives.
func NewStepBar(total int, w io.Writer) *StepBar {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
	)
	return &StepBar{bar: bar, total: total}
}

// Set moves the bar to the given step (1-based) and updates the label.
func (s *StepBar) Set(step int, label string) {
	if s.bar == nil {
		return
	}
	s.bar.Describe(fmt.Sprintf("[%d/%d] %s", step, s.total, label))
	_ = s.bar.Set(step)
}

// Finish drives the bar to completion.
func (s *StepBar) Finish() {
	if s.bar != nil {
		_ = s.bar.Finish()
	}
}

// Clear erases the bar from the terminal, for redrawing tables above it.
func (s *StepBar) Clear() {
	if s.bar != nil {
		_ = s.bar.Clear()
	}
}
