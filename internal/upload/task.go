package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/keywordforge/kwforge/internal/events"
	"github.com/keywordforge/kwforge/internal/models"
	"github.com/keywordforge/kwforge/internal/util/buffers"
)

// Task drives a single file through its full chunk sequence.
//
// State machine: idle -> uploading -> combining -> queued/processing ->
// complete | error. While earlier chunks are in flight the task stays in
// uploading; on the last chunk the server's reported status is adopted
// verbatim. Any chunk failure moves the task to error and aborts the file's
// remaining chunks. The batch still moves on to the next file.
type Task struct {
	Name        string
	Path        string
	Size        int64
	ChunkSize   int64
	TotalChunks int

	mu           sync.Mutex
	currentChunk int
	bestPercent  int // 0-100, never decreases within a run
	status       models.Status
	message      string
}

// FileResult is the terminal outcome of one file within a batch.
type FileResult struct {
	Name    string
	Status  models.Status
	Percent int
	Message string
}

// NewTask stats the file and derives its chunk geometry.
func NewTask(path string) (*Task, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("'%s' is a directory, not a file", path)
	}

	size := info.Size()
	chunkSize := ChunkSizeFor(size)

	return &Task{
		Name:        filepath.Base(path),
		Path:        path,
		Size:        size,
		ChunkSize:   chunkSize,
		TotalChunks: TotalChunks(size, chunkSize),
		status:      models.StatusIdle,
	}, nil
}

// Status returns the task's current pipeline status (thread-safe).
func (t *Task) Status() models.Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Percent returns the best progress reported so far (thread-safe).
func (t *Task) Percent() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bestPercent
}

// Message returns the last server or error message for this task.
func (t *Task) Message() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.message
}

// Result snapshots the task's terminal outcome.
func (t *Task) Result() FileResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	return FileResult{
		Name:    t.Name,
		Status:  t.status,
		Percent: t.bestPercent,
		Message: t.message,
	}
}

// observePercent clamps a new percentage against the best seen so far and
// returns the value to report. Overlapping or retried chunk requests can
// produce lower raw values; those never surface.
func (t *Task) observePercent(p int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p > t.bestPercent {
		t.bestPercent = p
	}
	return t.bestPercent
}

func (t *Task) setStatus(s models.Status, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = s
	if message != "" {
		t.message = message
	}
	if s == models.StatusComplete {
		t.bestPercent = 100
	}
}

// chunkOutcome is the first-class stop condition of one chunk step.
// The chunk loop stops on the first outcome that is not continueUpload.
type chunkOutcome int

const (
	continueUpload chunkOutcome = iota // more chunks to send, stay in uploading
	fileSettled                        // last chunk accepted, server status adopted
	fileFailed                         // chunk failed or server reported error
)

// Run uploads the file chunk by chunk, strictly sequentially. It returns an
// error only when the file failed; a settled file (queued, processing,
// complete, or combining on the server's final say) returns nil.
func (t *Task) Run(ctx context.Context, sender *Sender, projectID, batchID string, bus *events.Bus) error {
	f, err := os.Open(t.Path)
	if err != nil {
		t.fail(batchID, bus, fmt.Sprintf("failed to open %s: %v", t.Name, err))
		return err
	}
	defer f.Close()

	t.setStatus(models.StatusUploading, "")
	publishFile(bus, events.NewFileEvent(events.EventFileStarted, batchID, t.Name), t)

	buf := buffers.GetChunk(t.ChunkSize)
	defer buffers.PutChunk(buf)

	for idx := 0; idx < t.TotalChunks; idx++ {
		outcome, err := t.sendChunk(ctx, sender, projectID, batchID, bus, f, idx, *buf)
		switch outcome {
		case continueUpload:
			t.mu.Lock()
			t.currentChunk = idx + 1
			t.mu.Unlock()
		case fileSettled:
			return nil
		case fileFailed:
			return err
		}
	}

	// Unreachable for well-formed chunk geometry: the final chunk always
	// settles or fails the file.
	return nil
}

func (t *Task) sendChunk(ctx context.Context, sender *Sender, projectID, batchID string, bus *events.Bus, f *os.File, idx int, buf []byte) (chunkOutcome, error) {
	data, err := readChunk(f, idx, t.ChunkSize, t.Size, buf)
	if err != nil {
		msg := fmt.Sprintf("failed to read chunk %d of %s: %v", idx+1, t.Name, err)
		t.fail(batchID, bus, msg)
		return fileFailed, err
	}

	meta := models.ChunkMeta{
		ChunkIndex:       idx,
		TotalChunks:      t.TotalChunks,
		OriginalFilename: t.Name,
		FileSize:         t.Size,
	}

	onProgress := func(chunkPercent float64) {
		best := t.observePercent(ProgressPercent(idx, t.TotalChunks, chunkPercent))
		ev := events.NewFileEvent(events.EventFileProgress, batchID, t.Name)
		ev.ChunkIndex = idx
		ev.TotalChunks = t.TotalChunks
		ev.Percent = best
		ev.Status = models.StatusUploading
		publish(bus, ev)
	}

	resp, err := sender.Send(ctx, projectID, meta, data, onProgress)
	if err != nil {
		t.fail(batchID, bus, err.Error())
		return fileFailed, err
	}

	// The endpoint replied but flagged the file as failed server-side.
	// Treated identically to a transport failure for this file.
	if resp.Status == models.StatusError {
		msg := resp.Message
		if msg == "" {
			msg = fmt.Sprintf("server reported an error for %s", t.Name)
		}
		t.fail(batchID, bus, msg)
		return fileFailed, fmt.Errorf("upload of %s failed: %s", t.Name, msg)
	}

	if idx < t.TotalChunks-1 {
		// Not the file's last chunk: whatever the server said, the file is
		// still uploading from the client's point of view.
		return continueUpload, nil
	}

	return t.settle(batchID, bus, resp), nil
}

// settle adopts the server's final reply for the last chunk verbatim.
// Progress is forced to exactly 100 on success.
func (t *Task) settle(batchID string, bus *events.Bus, resp *models.ChunkResponse) chunkOutcome {
	t.observePercent(100)

	status := resp.Status
	if status == models.StatusCombining {
		// Server still stitching chunks together; the upload itself is done.
		ev := events.NewFileEvent(events.EventFileStage, batchID, t.Name)
		ev.Status = models.StatusCombining
		ev.Percent = 100
		publish(bus, ev)
	} else if !status.Known() || status == models.StatusUploading {
		// The server must name the file's next stage on the final chunk;
		// an unknown or stale value is treated as queued for display.
		status = models.StatusQueued
	}
	t.setStatus(status, resp.Message)

	// Every file ends its stream with exactly one terminal event.
	ev := events.NewFileEvent(events.EventFileCompleted, batchID, t.Name)
	ev.Status = status
	ev.Percent = 100
	ev.Message = resp.Message
	publish(bus, ev)
	return fileSettled
}

func (t *Task) fail(batchID string, bus *events.Bus, message string) {
	t.setStatus(models.StatusError, message)
	ev := events.NewFileEvent(events.EventFileFailed, batchID, t.Name)
	ev.Status = models.StatusError
	ev.Message = message
	ev.Percent = t.Percent()
	publish(bus, ev)
}

// readChunk reads the byte range for chunk idx into buf.
func readChunk(f *os.File, idx int, chunkSize, fileSize int64, buf []byte) ([]byte, error) {
	offset := int64(idx) * chunkSize
	remaining := fileSize - offset
	if remaining < 0 {
		remaining = 0
	}
	n := chunkSize
	if remaining < n {
		n = remaining
	}
	if n == 0 {
		return []byte{}, nil
	}

	if _, err := f.ReadAt(buf[:n], offset); err != nil && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}

func publish(bus *events.Bus, ev events.Event) {
	if bus != nil {
		bus.Publish(ev)
	}
}

func publishFile(bus *events.Bus, ev events.FileEvent, t *Task) {
	ev.TotalChunks = t.TotalChunks
	ev.Status = models.StatusUploading
	publish(bus, ev)
}
