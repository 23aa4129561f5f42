// Package buffers provides reusable chunk buffers for uploads, cutting
// per-file allocations and GC pressure when batches carry many files.
package buffers

import (
	"sync"
	"sync/atomic"

	"github.com/keywordforge/kwforge/internal/constants"
)

var (
	gets        int64
	allocations int64
)

// chunkPool holds buffers at the large chunk size. Files using the
// small chunk size slice the same buffer down, so one pool serves both.
var chunkPool = &sync.Pool{
	New: func() interface{} {
		atomic.AddInt64(&allocations, 1)
		buf := make([]byte, constants.LargeChunkSize)
		return &buf
	},
}

// GetChunk returns a buffer of at least size bytes, sliced to size.
// The returned pointer must go back via PutChunk.
func GetChunk(size int64) *[]byte {
	atomic.AddInt64(&gets, 1)
	p := chunkPool.Get().(*[]byte)
	if int64(cap(*p)) < size {
		// Should not happen with the fixed chunk sizes, but never hand
		// out a short buffer.
		buf := make([]byte, size)
		return &buf
	}
	*p = (*p)[:size]
	return p
}

// PutChunk returns a buffer to the pool.
func PutChunk(p *[]byte) {
	if p == nil || int64(cap(*p)) < constants.LargeChunkSize {
		return
	}
	*p = (*p)[:cap(*p)]
	chunkPool.Put(p)
}

// Stats reports total buffer requests and how many required a fresh
// allocation. The difference is the pool's reuse count.
func Stats() (requests, allocs int64) {
	return atomic.LoadInt64(&gets), atomic.LoadInt64(&allocations)
}
