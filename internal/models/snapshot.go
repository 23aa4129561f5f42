package models

// Snapshot is one read of the server-reported processing state for a project.
// It is read-only input: the client never mutates a snapshot, it only derives
// view state from it, so re-renders from the same snapshot are idempotent.
type Snapshot struct {
	Status      Status `json:"status"`
	Stage       string `json:"stage,omitempty"`
	StageDetail string `json:"stageDetail,omitempty"`
	Message     string `json:"message,omitempty"`

	CurrentFileName string   `json:"currentFileName,omitempty"`
	QueuedFiles     []string `json:"queuedFiles,omitempty"`
	UploadedFiles   []string `json:"uploadedFiles,omitempty"`
	ProcessedFiles  []string `json:"processedFiles,omitempty"`

	FileErrors []FileError `json:"fileErrors,omitempty"`
}

// FileError is a per-file failure reported by the processing pipeline.
type FileError struct {
	FileName    string `json:"fileName,omitempty"`
	Message     string `json:"message,omitempty"`
	Stage       string `json:"stage,omitempty"`
	StageDetail string `json:"stageDetail,omitempty"`
}

// FileStatusEntry is the reconciled per-file view derived from a Snapshot.
// It is recomputed in full on every snapshot, never partially updated.
type FileStatusEntry struct {
	Name   string
	Status Status
	Detail string
}
