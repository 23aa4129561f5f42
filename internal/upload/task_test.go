package upload

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keywordforge/kwforge/internal/api"
	"github.com/keywordforge/kwforge/internal/config"
	"github.com/keywordforge/kwforge/internal/events"
	"github.com/keywordforge/kwforge/internal/models"
)

// chunkServer fakes the dashboard chunk endpoint. The respond callback picks
// the reply per (filename, chunkIndex, totalChunks); it also counts requests.
type chunkServer struct {
	mu       sync.Mutex
	requests map[string]int // filename -> chunk requests received
	respond  func(filename string, chunkIndex, totalChunks int) (int, models.ChunkResponse)
}

func newChunkServer(respond func(string, int, int) (int, models.ChunkResponse)) *chunkServer {
	return &chunkServer{
		requests: make(map[string]int),
		respond:  respond,
	}
}

func (s *chunkServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 * 1024 * 1024); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	filename := r.FormValue("originalFilename")
	chunkIndex, _ := strconv.Atoi(r.FormValue("chunkIndex"))
	totalChunks, _ := strconv.Atoi(r.FormValue("totalChunks"))

	s.mu.Lock()
	s.requests[filename]++
	s.mu.Unlock()

	code, resp := s.respond(filename, chunkIndex, totalChunks)
	if code != http.StatusOK {
		http.Error(w, resp.Message, code)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *chunkServer) count(filename string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[filename]
}

func newTestSender(t *testing.T, handler http.Handler) *Sender {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.NewConfig()
	cfg.PlatformURL = srv.URL
	cfg.APIKey = "test-token"

	apiClient, err := api.NewClient(cfg)
	require.NoError(t, err)

	sender, err := NewSender(apiClient)
	require.NoError(t, err)
	return sender
}

func writeTempCSV(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	data := make([]byte, size)
	for i := range data {
		data[i] = byte('a' + i%26)
	}
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

// drainFileEvents closes the bus and collects every published file event.
func drainFileEvents(bus *events.Bus, ch <-chan events.Event) []events.FileEvent {
	bus.Close()
	var out []events.FileEvent
	for ev := range ch {
		if fe, ok := ev.(events.FileEvent); ok {
			out = append(out, fe)
		}
	}
	return out
}

func TestTaskRunMultiChunkSuccess(t *testing.T) {
	// 2.5 MiB at 1 MiB chunks = 3 chunks
	path := writeTempCSV(t, "alpha.csv", 2*1024*1024+512*1024)

	server := newChunkServer(func(name string, idx, total int) (int, models.ChunkResponse) {
		if idx < total-1 {
			return http.StatusOK, models.ChunkResponse{Status: models.StatusUploading}
		}
		return http.StatusOK, models.ChunkResponse{Status: models.StatusProcessing}
	})
	sender := newTestSender(t, server)

	task, err := NewTask(path)
	require.NoError(t, err)
	assert.Equal(t, 3, task.TotalChunks)
	assert.Equal(t, models.StatusIdle, task.Status())

	bus := events.NewBus(1024)
	all := bus.SubscribeAll()

	err = task.Run(context.Background(), sender, "p1", "b1", bus)
	require.NoError(t, err)

	// Server's final reply adopted verbatim, progress forced to 100
	assert.Equal(t, models.StatusProcessing, task.Status())
	assert.Equal(t, 100, task.Percent())
	assert.Equal(t, 3, server.count("alpha.csv"))

	// The progress event stream is monotonic and terminates with one
	// completed event at 100.
	fileEvents := drainFileEvents(bus, all)
	last := 0
	terminal := 0
	for _, fe := range fileEvents {
		switch fe.Type() {
		case events.EventFileProgress:
			assert.GreaterOrEqual(t, fe.Percent, last, "progress went backwards")
			last = fe.Percent
		case events.EventFileCompleted, events.EventFileFailed:
			terminal++
		}
	}
	assert.Equal(t, 1, terminal, "exactly one terminal event per file")
}

func TestTaskServerReportedErrorAbortsRemainingChunks(t *testing.T) {
	// 3 chunks, but the server rejects the very first one.
	path := writeTempCSV(t, "beta.csv", 2*1024*1024+1)

	server := newChunkServer(func(name string, idx, total int) (int, models.ChunkResponse) {
		return http.StatusOK, models.ChunkResponse{
			Status:  models.StatusError,
			Message: "Header mismatch",
		}
	})
	sender := newTestSender(t, server)

	task, err := NewTask(path)
	require.NoError(t, err)
	require.Equal(t, 3, task.TotalChunks)

	err = task.Run(context.Background(), sender, "p1", "b1", nil)
	require.Error(t, err)

	assert.Equal(t, models.StatusError, task.Status())
	assert.Contains(t, task.Message(), "Header mismatch")
	// Remaining chunks were never sent.
	assert.Equal(t, 1, server.count("beta.csv"))
}

func TestTaskTransportErrorIsError(t *testing.T) {
	path := writeTempCSV(t, "gamma.csv", 1024)

	server := newChunkServer(func(name string, idx, total int) (int, models.ChunkResponse) {
		// 404 classifies as fatal: no retry, immediate file failure.
		return http.StatusNotFound, models.ChunkResponse{Message: "no such project"}
	})
	sender := newTestSender(t, server)

	task, err := NewTask(path)
	require.NoError(t, err)

	err = task.Run(context.Background(), sender, "p1", "b1", nil)
	require.Error(t, err)
	assert.Equal(t, models.StatusError, task.Status())
	assert.Equal(t, 1, server.count("gamma.csv"))
}

func TestTaskProgressMonotonicAcrossChunkRetry(t *testing.T) {
	path := writeTempCSV(t, "retry.csv", 512*1024)

	attempts := 0
	server := newChunkServer(func(name string, idx, total int) (int, models.ChunkResponse) {
		attempts++
		if attempts == 1 {
			// First attempt dies mid-flight; the retry restarts the chunk's
			// own progress at zero.
			return http.StatusServiceUnavailable, models.ChunkResponse{Message: "try again"}
		}
		return http.StatusOK, models.ChunkResponse{Status: models.StatusComplete}
	})
	sender := newTestSender(t, server)

	task, err := NewTask(path)
	require.NoError(t, err)

	bus := events.NewBus(4096)
	all := bus.SubscribeAll()

	err = task.Run(context.Background(), sender, "p1", "b1", bus)
	require.NoError(t, err)
	assert.Equal(t, models.StatusComplete, task.Status())
	assert.Equal(t, 100, task.Percent())
	assert.GreaterOrEqual(t, server.count("retry.csv"), 2)

	last := 0
	for _, fe := range drainFileEvents(bus, all) {
		if fe.Type() == events.EventFileProgress {
			require.GreaterOrEqual(t, fe.Percent, last,
				"retried chunk must not report lower file progress")
			last = fe.Percent
		}
	}
}

func TestTaskCombiningOnFinalChunk(t *testing.T) {
	path := writeTempCSV(t, "combine.csv", 1024)

	server := newChunkServer(func(name string, idx, total int) (int, models.ChunkResponse) {
		return http.StatusOK, models.ChunkResponse{Status: models.StatusCombining}
	})
	sender := newTestSender(t, server)

	task, err := NewTask(path)
	require.NoError(t, err)

	err = task.Run(context.Background(), sender, "p1", "b1", nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCombining, task.Status())
	assert.Equal(t, 100, task.Percent())
}

func TestNewTaskRejectsDirectory(t *testing.T) {
	_, err := NewTask(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory")
}
