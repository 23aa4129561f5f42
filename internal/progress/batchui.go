// Package progress renders upload and processing progress for the CLI:
// an mpb multi-bar view for batch uploads and a single step bar for
// watch mode.
package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

// BatchUI manages per-file progress bars for a batch upload using mpb.
// Files upload one at a time, but completed-file summaries stay on screen
// above the active bar.
type BatchUI struct {
	progress   *mpb.Progress
	bars       sync.Map // file name -> *FileBar
	isTerminal bool
	totalFiles int
	started    int32
	completed  int32
}

// FileBar is the progress bar for a single file in the batch.
type FileBar struct {
	bar         *mpb.Bar
	ui          *BatchUI
	index       int
	name        string
	size        int64
	totalChunks int
	chunk       int32
	done        atomic.Bool
	startTime   time.Time
}

// NewBatchUI creates a batch upload UI for the given number of files.
// On a non-terminal stderr the bars are suppressed and plain text is
// printed instead.
func NewBatchUI(totalFiles int) *BatchUI {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))

	var p *mpb.Progress
	if isTerminal {
		// Windows terminals need VT processing for ANSI redraws.
		enableANSIOnWindows(os.Stderr)

		p = mpb.New(
			mpb.WithOutput(os.Stderr),
			mpb.WithRefreshRate(150*time.Millisecond),
			mpb.WithWidth(80),
		)
	} else {
		p = mpb.New(mpb.WithOutput(io.Discard))
	}

	return &BatchUI{
		progress:   p,
		isTerminal: isTerminal,
		totalFiles: totalFiles,
	}
}

// AddFileBar creates the progress bar for a file. The bar tracks percent
// (0..100) rather than bytes so it maps directly onto chunk progress.
func (u *BatchUI) AddFileBar(name string, size int64, totalChunks int) *FileBar {
	index := int(atomic.AddInt32(&u.started, 1))

	fb := &FileBar{
		ui:          u,
		index:       index,
		name:        name,
		size:        size,
		totalChunks: totalChunks,
		startTime:   time.Now(),
	}

	if u.isTerminal {
		fb.bar = u.progress.New(100,
			mpb.BarStyle().
				Lbound("[").
				Filler("█").
				Tip("█").
				Padding("░").
				Rbound("]"),
			mpb.PrependDecorators(
				decor.Any(func(s decor.Statistics) string {
					chunk := atomic.LoadInt32(&fb.chunk)
					return fmt.Sprintf("[%d/%d] %s (%.1f MiB) chunk %d/%d",
						fb.index, u.totalFiles,
						shortName(name),
						float64(size)/(1024*1024),
						chunk, totalChunks)
				}, decor.WCSyncSpace),
			),
			mpb.AppendDecorators(
				decor.Percentage(decor.WCSyncSpace),
			),
			mpb.BarRemoveOnComplete(),
		)
	} else {
		fmt.Fprintf(os.Stderr, "Uploading [%d/%d]: %s (%.1f MiB, %d chunks)\n",
			fb.index, u.totalFiles,
			shortName(name),
			float64(size)/(1024*1024),
			totalChunks)
	}

	u.bars.Store(name, fb)
	return fb
}

// Bar returns the bar for a file name, if one was added.
func (u *BatchUI) Bar(name string) (*FileBar, bool) {
	v, ok := u.bars.Load(name)
	if !ok {
		return nil, false
	}
	return v.(*FileBar), true
}

// Update moves the bar to the given percent and chunk position. Percent
// is already monotonic by the time it reaches the UI.
func (f *FileBar) Update(percent float64, chunkIndex int) {
	atomic.StoreInt32(&f.chunk, int32(chunkIndex+1))
	if f.bar != nil {
		f.bar.SetCurrent(int64(percent))
	}
}

// Complete finishes the bar and prints a one-line summary above the
// remaining bars. Finalization is idempotent so callers can sweep all
// bars at the end of a batch without double counting.
func (f *FileBar) Complete(status string) {
	if !f.done.CompareAndSwap(false, true) {
		return
	}
	elapsed := time.Since(f.startTime).Round(time.Second)

	if f.bar != nil {
		f.bar.SetCurrent(100)
		f.bar.SetTotal(100, true)
	}

	msg := fmt.Sprintf("✓ %s (%.1f MiB, %s, %s)\n",
		shortName(f.name),
		float64(f.size)/(1024*1024),
		elapsed,
		status)
	f.ui.write(msg)

	atomic.AddInt32(&f.ui.completed, 1)
}

// Fail aborts the bar, keeping it on screen, and prints the error.
func (f *FileBar) Fail(message string) {
	if !f.done.CompareAndSwap(false, true) {
		return
	}
	if f.bar != nil {
		f.bar.Abort(false)
	}

	msg := fmt.Sprintf("✗ %s: %s\n", shortName(f.name), message)
	f.ui.write(msg)

	atomic.AddInt32(&f.ui.completed, 1)
}

func (u *BatchUI) write(msg string) {
	// Writing through mpb keeps the text above the live bars.
	if u.isTerminal && u.progress != nil {
		u.progress.Write([]byte(msg))
		return
	}
	fmt.Fprint(os.Stderr, msg)
}

// Wait blocks until all bars have rendered their final state.
func (u *BatchUI) Wait() {
	if u.progress != nil {
		u.progress.Wait()
	}
}

// Writer returns an io.Writer that prints above the active bars.
func (u *BatchUI) Writer() io.Writer {
	if u.progress != nil && u.isTerminal {
		return u.progress
	}
	return os.Stderr
}

// IsTerminal reports whether live bars are being rendered.
func (u *BatchUI) IsTerminal() bool {
	return u.isTerminal
}

// shortName trims a path to its last two components for display.
func shortName(path string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) <= 2 {
		return filepath.Base(path)
	}
	return "…/" + strings.Join(parts[len(parts)-2:], "/")
}

func enableANSIOnWindows(f *os.File) {
	if runtime.GOOS == "windows" {
		enableWindowsANSI(f)
	}
}
