// Package events models upload progress as a finite stream of events:
// for every file the stream carries zero or more progress events followed by
// exactly one terminal event (completed or failed), and the batch as a whole
// ends with a single batch event. Consumers can resubscribe and re-drive a
// fresh batch without changing the producer contract.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/keywordforge/kwforge/internal/models"
)

// EventType identifies the kind of event on the stream.
type EventType string

const (
	EventFileStarted   EventType = "file_started"   // First chunk of a file began
	EventFileProgress  EventType = "file_progress"  // Per-file percent update (monotonic)
	EventFileStage     EventType = "file_stage"     // File moved to a new pipeline status
	EventFileCompleted EventType = "file_completed" // Terminal: file finished cleanly
	EventFileFailed    EventType = "file_failed"    // Terminal: file errored, chunks aborted
	EventBatchDone     EventType = "batch_done"     // Whole batch finished (after last file)
)

// Event is the base interface for all stream events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields.
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// FileEvent carries per-file progress and state information.
type FileEvent struct {
	BaseEvent
	BatchID     string
	FileName    string
	ChunkIndex  int
	TotalChunks int
	Percent     int // 0-100, already clamped monotonic by the producer
	Status      models.Status
	Message     string
}

// BatchEvent reports the aggregate outcome of a batch.
type BatchEvent struct {
	BaseEvent
	BatchID    string
	TotalFiles int
	Status     models.Status // the last-processed file's status, by contract
	Message    string
}

// NewFileEvent builds a FileEvent of the given type, stamped now.
func NewFileEvent(t EventType, batchID, fileName string) FileEvent {
	return FileEvent{
		BaseEvent: BaseEvent{EventType: t, Time: time.Now()},
		BatchID:   batchID,
		FileName:  fileName,
	}
}

// NewBatchEvent builds a BatchEvent stamped now.
func NewBatchEvent(batchID string, totalFiles int, status models.Status, message string) BatchEvent {
	return BatchEvent{
		BaseEvent:  BaseEvent{EventType: EventBatchDone, Time: time.Now()},
		BatchID:    batchID,
		TotalFiles: totalFiles,
		Status:     status,
		Message:    message,
	}
}

const (
	defaultBuffer = 256
	maxBuffer     = 4096
)

// Bus fans events out to subscribers. Publishing never blocks: a subscriber
// that falls behind loses events (counted, not fatal) rather than stalling
// the upload loop.
type Bus struct {
	subscribers map[EventType][]chan Event
	all         []chan Event
	mu          sync.RWMutex
	bufferSize  int
	closed      bool
	dropped     atomic.Int64
}

// NewBus creates an event bus with the given per-subscriber buffer size.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = defaultBuffer
	}
	if bufferSize > maxBuffer {
		bufferSize = maxBuffer
	}
	return &Bus{
		subscribers: make(map[EventType][]chan Event),
		bufferSize:  bufferSize,
	}
}

// Subscribe returns a channel receiving events of one type.
// After Close the returned channel is already closed.
func (b *Bus) Subscribe(eventType EventType) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, b.bufferSize)
	b.subscribers[eventType] = append(b.subscribers[eventType], ch)
	return ch
}

// SubscribeAll returns a channel receiving every event.
func (b *Bus) SubscribeAll() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, b.bufferSize)
	b.all = append(b.all, ch)
	return ch
}

// Publish delivers an event to all matching subscribers without blocking.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, ch := range b.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			b.dropped.Add(1)
		}
	}
	for _, ch := range b.all {
		select {
		case ch <- event:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped returns the number of events discarded due to full buffers.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// Close shuts down the bus and closes all subscriber channels.
// Subsequent publishes are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, channels := range b.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}
	for _, ch := range b.all {
		close(ch)
	}
	b.subscribers = make(map[EventType][]chan Event)
	b.all = nil
}
