package upload

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/keywordforge/kwforge/internal/events"
	"github.com/keywordforge/kwforge/internal/models"
)

// ErrBatchConsumed is returned when Run is called on a batch that already ran.
// A batch is one user action; re-running it would double-upload every file.
var ErrBatchConsumed = errors.New("batch has already been run")

// Batch is an ordered set of files selected together for one upload action.
// Files are validated up front and processed strictly sequentially, each
// file's task reaching a settled or error state before the next file begins.
// This keeps server-side per-project state free of interleaved chunk streams
// and keeps progress accounting per-file, at the cost of wall-clock time.
type Batch struct {
	ID        string
	ProjectID string
	Tasks     []*Task

	started atomic.Bool
}

// BatchResult aggregates a finished batch.
//
// Status and Message reflect the LAST processed file only; earlier failures
// are visible through Files. Intentional product behavior: callers that care
// about earlier failures must consult per-file results.
type BatchResult struct {
	BatchID    string
	TotalFiles int
	Files      []FileResult
	Status     models.Status
	Message    string
}

// Failed returns the results of files that ended in error.
func (r BatchResult) Failed() []FileResult {
	var failed []FileResult
	for _, f := range r.Files {
		if f.Status == models.StatusError {
			failed = append(failed, f)
		}
	}
	return failed
}

// NewBatch validates every file up front and builds the ordered task list.
// If any file fails validation the whole batch is rejected before any
// network call: no partial batch ever starts.
func NewBatch(projectID string, paths []string) (*Batch, error) {
	if len(paths) == 0 {
		return nil, errors.New("no files to upload")
	}

	for _, path := range paths {
		if err := validateCSV(path); err != nil {
			return nil, err
		}
	}

	tasks := make([]*Task, 0, len(paths))
	for _, path := range paths {
		task, err := NewTask(path)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	return &Batch{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Tasks:     tasks,
	}, nil
}

// validateCSV accepts a file with a .csv extension or a text/csv MIME type.
func validateCSV(path string) error {
	ext := filepath.Ext(path)
	if strings.EqualFold(ext, ".csv") {
		return nil
	}
	if mediaType := mime.TypeByExtension(ext); strings.HasPrefix(mediaType, "text/csv") {
		return nil
	}
	return fmt.Errorf("%s is not a CSV file (expected .csv extension or text/csv type)", filepath.Base(path))
}

// Run processes the batch's files in order, continue-on-error: a failed file
// never stops the files after it. The returned error is non-nil only when
// the LAST processed file failed, matching the aggregate result contract.
func (b *Batch) Run(ctx context.Context, sender *Sender, bus *events.Bus) (BatchResult, error) {
	if !b.started.CompareAndSwap(false, true) {
		return BatchResult{}, ErrBatchConsumed
	}

	result := BatchResult{
		BatchID:    b.ID,
		TotalFiles: len(b.Tasks),
	}

	var lastErr error
	for _, task := range b.Tasks {
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			task.fail(b.ID, bus, "upload cancelled")
			result.Files = append(result.Files, task.Result())
			continue
		}
		lastErr = task.Run(ctx, sender, b.ProjectID, b.ID, bus)
		result.Files = append(result.Files, task.Result())
	}

	last := result.Files[len(result.Files)-1]
	result.Status = last.Status
	result.Message = b.summarize(last)

	if bus != nil {
		bus.Publish(events.NewBatchEvent(b.ID, result.TotalFiles, result.Status, result.Message))
	}

	if last.Status == models.StatusError {
		if lastErr == nil {
			lastErr = fmt.Errorf("upload of %s failed: %s", last.Name, last.Message)
		}
		return result, lastErr
	}
	return result, nil
}

// summarize derives the single human-readable batch message from the last
// file's terminal status.
func (b *Batch) summarize(last FileResult) string {
	n := len(b.Tasks)
	switch last.Status {
	case models.StatusComplete:
		return fmt.Sprintf("All %d CSVs uploaded and processed", n)
	case models.StatusProcessing:
		return fmt.Sprintf("All %d CSVs uploaded, processing started", n)
	case models.StatusError:
		msg := last.Message
		if msg == "" {
			msg = "upload failed"
		}
		return fmt.Sprintf("%s: %s", last.Name, msg)
	default:
		return fmt.Sprintf("Upload finished for %d files", n)
	}
}
