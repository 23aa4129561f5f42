// Package upload implements the chunked CSV upload pipeline: splitting files
// into byte-range chunks, driving each file through its chunk sequence, and
// running an ordered batch of files strictly sequentially.
package upload

import (
	"math"

	"github.com/keywordforge/kwforge/internal/constants"
)

// ChunkSizeFor returns the chunk size for a file: 2 MiB for files above
// 20 MiB, otherwise 1 MiB.
func ChunkSizeFor(fileSize int64) int64 {
	if fileSize > constants.LargeFileThreshold {
		return constants.LargeChunkSize
	}
	return constants.SmallChunkSize
}

// TotalChunks returns ceil(fileSize / chunkSize). An empty file still takes
// one (empty) chunk so the server learns about it.
func TotalChunks(fileSize, chunkSize int64) int {
	if fileSize <= 0 || chunkSize <= 0 {
		return 1
	}
	return int((fileSize + chunkSize - 1) / chunkSize)
}

// ProgressPercent combines a file's position in its chunk sequence with the
// in-flight chunk's own progress into a 0-100 file percentage:
//
//	floor(chunkIndex/totalChunks*100 + chunkPercent/totalChunks)
//
// chunkPercent is the current chunk's 0-100 progress. Callers must still
// clamp the result against the best value seen so far; retried chunk
// requests restart their own progress at zero.
func ProgressPercent(chunkIndex, totalChunks int, chunkPercent float64) int {
	if totalChunks <= 0 {
		return 0
	}
	base := float64(chunkIndex) / float64(totalChunks) * 100
	frac := chunkPercent / float64(totalChunks)
	p := int(math.Floor(base + frac))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
