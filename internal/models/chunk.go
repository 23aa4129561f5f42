package models

// ChunkMeta is the metadata sent alongside one chunk's bytes in the
// multipart upload request. Field names match the dashboard's form fields.
type ChunkMeta struct {
	ChunkIndex       int    // 0-based index of this chunk
	TotalChunks      int    // total chunks for the whole file
	OriginalFilename string // name of the source file
	FileSize         int64  // size of the whole file in bytes
}

// ChunkResponse is the server's reply to one chunk upload.
// Status is one of the pipeline's coarse states; on the last chunk of a file
// the client adopts it verbatim as the file's status.
type ChunkResponse struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}
