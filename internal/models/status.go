// Package models defines the wire types shared with the KeywordForge
// dashboard API and the derived view types built from them.
package models

// Status is the coarse client-visible state of a file or batch.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusUploading  Status = "uploading"
	StatusCombining  Status = "combining"
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
)

// IsTerminal returns true for statuses that end a file's upload task.
func (s Status) IsTerminal() bool {
	return s == StatusComplete || s == StatusError
}

// Known returns true if s is one of the statuses the server contract defines.
// Unknown strings are kept verbatim on the wire types but callers can use this
// to decide whether to trust them.
func (s Status) Known() bool {
	switch s {
	case StatusIdle, StatusUploading, StatusCombining, StatusQueued,
		StatusProcessing, StatusComplete, StatusError:
		return true
	}
	return false
}
