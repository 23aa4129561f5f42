package upload

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keywordforge/kwforge/internal/events"
	"github.com/keywordforge/kwforge/internal/models"
)

func TestNewBatchRejectsNonCSVBeforeAnyUpload(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.csv")
	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(good, []byte("a,b\n"), 0600))
	require.NoError(t, os.WriteFile(bad, []byte("nope"), 0600))

	_, err := NewBatch("p1", []string{good, bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.txt")
}

func TestNewBatchUppercaseExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "DATA.CSV")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0600))

	batch, err := NewBatch("p1", []string{path})
	require.NoError(t, err)
	require.Len(t, batch.Tasks, 1)
	assert.NotEmpty(t, batch.ID)
}

func TestNewBatchEmpty(t *testing.T) {
	_, err := NewBatch("p1", nil)
	require.Error(t, err)
}

func TestBatchContinueOnError(t *testing.T) {
	paths := []string{
		writeTempCSV(t, "alpha.csv", 256),
		writeTempCSV(t, "beta.csv", 256),
		writeTempCSV(t, "gamma.csv", 256),
	}

	server := newChunkServer(func(name string, idx, total int) (int, models.ChunkResponse) {
		if name == "beta.csv" {
			return http.StatusOK, models.ChunkResponse{
				Status:  models.StatusError,
				Message: "Header mismatch",
			}
		}
		return http.StatusOK, models.ChunkResponse{Status: models.StatusComplete}
	})
	sender := newTestSender(t, server)

	batch, err := NewBatch("p1", paths)
	require.NoError(t, err)

	result, err := batch.Run(context.Background(), sender, nil)
	// The LAST file succeeded, so the aggregate is not an error even though
	// beta failed in the middle.
	require.NoError(t, err)

	require.Len(t, result.Files, 3)
	assert.Equal(t, models.StatusComplete, result.Files[0].Status)
	assert.Equal(t, models.StatusError, result.Files[1].Status)
	assert.Equal(t, models.StatusComplete, result.Files[2].Status)

	assert.Equal(t, models.StatusComplete, result.Status)
	assert.Equal(t, "All 3 CSVs uploaded and processed", result.Message)

	failed := result.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "beta.csv", failed[0].Name)
	assert.Contains(t, failed[0].Message, "Header mismatch")

	// All three files were attempted.
	assert.Equal(t, 1, server.count("alpha.csv"))
	assert.Equal(t, 1, server.count("beta.csv"))
	assert.Equal(t, 1, server.count("gamma.csv"))
}

func TestBatchLastFileFailureIsAggregateError(t *testing.T) {
	paths := []string{
		writeTempCSV(t, "alpha.csv", 256),
		writeTempCSV(t, "omega.csv", 256),
	}

	server := newChunkServer(func(name string, idx, total int) (int, models.ChunkResponse) {
		if name == "omega.csv" {
			return http.StatusOK, models.ChunkResponse{
				Status:  models.StatusError,
				Message: "truncated file",
			}
		}
		return http.StatusOK, models.ChunkResponse{Status: models.StatusComplete}
	})
	sender := newTestSender(t, server)

	batch, err := NewBatch("p1", paths)
	require.NoError(t, err)

	result, err := batch.Run(context.Background(), sender, nil)
	require.Error(t, err)
	assert.Equal(t, models.StatusError, result.Status)
	assert.Contains(t, result.Message, "omega.csv")
}

func TestBatchProcessingSummary(t *testing.T) {
	paths := []string{
		writeTempCSV(t, "one.csv", 128),
		writeTempCSV(t, "two.csv", 128),
	}

	server := newChunkServer(func(name string, idx, total int) (int, models.ChunkResponse) {
		return http.StatusOK, models.ChunkResponse{Status: models.StatusProcessing}
	})
	sender := newTestSender(t, server)

	batch, err := NewBatch("p1", paths)
	require.NoError(t, err)

	result, err := batch.Run(context.Background(), sender, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, result.Status)
	assert.Equal(t, "All 2 CSVs uploaded, processing started", result.Message)
}

func TestBatchRunsOnlyOnce(t *testing.T) {
	path := writeTempCSV(t, "solo.csv", 128)

	server := newChunkServer(func(name string, idx, total int) (int, models.ChunkResponse) {
		return http.StatusOK, models.ChunkResponse{Status: models.StatusComplete}
	})
	sender := newTestSender(t, server)

	batch, err := NewBatch("p1", []string{path})
	require.NoError(t, err)

	_, err = batch.Run(context.Background(), sender, nil)
	require.NoError(t, err)

	_, err = batch.Run(context.Background(), sender, nil)
	assert.ErrorIs(t, err, ErrBatchConsumed)
	assert.Equal(t, 1, server.count("solo.csv"))
}

func TestBatchPublishesBatchEvent(t *testing.T) {
	path := writeTempCSV(t, "solo.csv", 128)

	server := newChunkServer(func(name string, idx, total int) (int, models.ChunkResponse) {
		return http.StatusOK, models.ChunkResponse{Status: models.StatusComplete}
	})
	sender := newTestSender(t, server)

	batch, err := NewBatch("p1", []string{path})
	require.NoError(t, err)

	bus := events.NewBus(64)
	done := bus.Subscribe(events.EventBatchDone)

	_, err = batch.Run(context.Background(), sender, bus)
	require.NoError(t, err)
	bus.Close()

	var batchEvents []events.BatchEvent
	for ev := range done {
		if be, ok := ev.(events.BatchEvent); ok {
			batchEvents = append(batchEvents, be)
		}
	}
	require.Len(t, batchEvents, 1)
	assert.Equal(t, batch.ID, batchEvents[0].BatchID)
	assert.Equal(t, 1, batchEvents[0].TotalFiles)
	assert.Equal(t, models.StatusComplete, batchEvents[0].Status)
}
