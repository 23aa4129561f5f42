package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"strconv"

	"github.com/keywordforge/kwforge/internal/api"
	"github.com/keywordforge/kwforge/internal/constants"
	"github.com/keywordforge/kwforge/internal/http"
	"github.com/keywordforge/kwforge/internal/models"
)

// Sender uploads single chunks to the dashboard's chunk endpoint.
// It owns a transfer-tuned HTTP client separate from the JSON API client.
type Sender struct {
	client  *nethttp.Client
	baseURL string
	apiKey  string
	retry   http.RetryConfig
}

// NewSender creates a Sender sharing the API client's connection settings.
func NewSender(apiClient *api.Client) (*Sender, error) {
	client, err := http.NewTransferClient(apiClient.Config())
	if err != nil {
		return nil, fmt.Errorf("failed to create transfer client: %w", err)
	}

	return &Sender{
		client:  client,
		baseURL: apiClient.BaseURL(),
		apiKey:  apiClient.APIKey(),
		retry: http.RetryConfig{
			MaxRetries:   constants.ChunkMaxRetries,
			InitialDelay: constants.ChunkRetryInitialDelay,
			MaxDelay:     constants.ChunkRetryMaxDelay,
		},
	}, nil
}

// Send uploads exactly one byte range as a multipart payload with fields
// file, chunkIndex, totalChunks, originalFilename and fileSize.
//
// onProgress receives 0-100 for this chunk's bytes. A transport-level retry
// restarts the chunk's progress at zero; the caller's monotonic clamp keeps
// the file-level percentage from going backwards.
//
// A transport or HTTP-level failure is returned as an error. A response with
// status "error" is NOT an error here: the server spoke, and the caller
// decides what the reply means for the file.
func (s *Sender) Send(ctx context.Context, projectID string, meta models.ChunkMeta, data []byte, onProgress func(float64)) (*models.ChunkResponse, error) {
	body, contentType, err := encodeChunk(meta, data)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/v1/projects/%s/uploads/chunk", s.baseURL, projectID)

	var resp *models.ChunkResponse
	err = http.ExecuteWithRetry(ctx, s.retry, func() error {
		r, err := s.postChunk(ctx, url, contentType, body, onProgress)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("chunk %d/%d of %s: %w",
			meta.ChunkIndex+1, meta.TotalChunks, meta.OriginalFilename, err)
	}
	return resp, nil
}

func (s *Sender) postChunk(ctx context.Context, url, contentType string, body []byte, onProgress func(float64)) (*models.ChunkResponse, error) {
	reader := &progressReader{
		r:          bytes.NewReader(body),
		total:      int64(len(body)),
		onProgress: onProgress,
	}

	req, err := nethttp.NewRequestWithContext(ctx, "POST", url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create chunk request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+s.apiKey)
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(body))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chunk request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("chunk upload returned status %d: %s", resp.StatusCode, bytes.TrimSpace(b))
	}

	var chunkResp models.ChunkResponse
	if err := json.NewDecoder(resp.Body).Decode(&chunkResp); err != nil {
		return nil, fmt.Errorf("failed to decode chunk response: %w", err)
	}
	return &chunkResp, nil
}

// encodeChunk builds the multipart body once; retries reuse the same bytes.
func encodeChunk(meta models.ChunkMeta, data []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"chunkIndex":       strconv.Itoa(meta.ChunkIndex),
		"totalChunks":      strconv.Itoa(meta.TotalChunks),
		"originalFilename": meta.OriginalFilename,
		"fileSize":         strconv.FormatInt(meta.FileSize, 10),
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %s: %w", name, err)
		}
	}

	fw, err := w.CreateFormFile("file", meta.OriginalFilename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return nil, "", fmt.Errorf("failed to write chunk bytes: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}

// progressReader reports fractional upload progress as the request body is
// consumed by the transport.
type progressReader struct {
	r          io.Reader
	total      int64
	read       int64
	onProgress func(float64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		if p.onProgress != nil && p.total > 0 {
			p.onProgress(float64(p.read) / float64(p.total) * 100)
		}
	}
	return n, err
}
