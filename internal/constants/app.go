package constants

import (
	"time"
)

// Chunked upload sizing
const (
	// SmallChunkSize - chunk size for files at or below LargeFileThreshold (1 MiB)
	SmallChunkSize = 1 * 1024 * 1024

	// LargeChunkSize - chunk size for files above LargeFileThreshold (2 MiB)
	//
	// Trade-offs:
	// - Smaller chunks = more HTTP requests but better progress granularity
	// - Larger chunks = fewer round trips but coarser progress updates
	//
	// The threshold is a fixed heuristic, not runtime-configurable. It bounds
	// request size for large datasets without adding round trips for small files.
	LargeChunkSize = 2 * 1024 * 1024

	// LargeFileThreshold - files strictly above this size use LargeChunkSize (20 MiB)
	LargeFileThreshold = 20 * 1024 * 1024
)

// Chunk upload retry settings
const (
	// ChunkMaxRetries - attempts per chunk request before the file's task fails.
	// A chunk that exhausts retries terminates the whole file (no partial-file
	// retry-skip); the batch still proceeds to the next file.
	ChunkMaxRetries = 3

	// ChunkRetryInitialDelay - base delay for chunk retry backoff
	ChunkRetryInitialDelay = 200 * time.Millisecond

	// ChunkRetryMaxDelay - cap on chunk retry backoff
	ChunkRetryMaxDelay = 5 * time.Second
)

// API client settings
const (
	// APIRetryMax - retryablehttp attempts for JSON endpoints (snapshot, reset)
	APIRetryMax = 5

	// APIRetryWaitMin / APIRetryWaitMax - retryablehttp backoff bounds
	APIRetryWaitMin = 1 * time.Second
	APIRetryWaitMax = 15 * time.Second
)

// HTTP transport timeouts
const (
	HTTPDialTimeout           = 30 * time.Second
	HTTPDialKeepAlive         = 30 * time.Second
	HTTPIdleConnTimeout       = 90 * time.Second
	HTTPTLSHandshakeTimeout   = 30 * time.Second
	HTTPExpectContinueTimeout = 5 * time.Second
)

// Status polling
const (
	// DefaultPollInterval - default interval between snapshot fetches in watch mode
	DefaultPollInterval = 2 * time.Second

	// RenderDebounce - delay used to coalesce re-renders when consecutive
	// snapshots arrive close together (rapid uploading -> combining -> queued
	// transitions collapse into one redraw)
	RenderDebounce = 150 * time.Millisecond
)

// AppName is used for config paths and user agent strings.
const AppName = "kwforge"
