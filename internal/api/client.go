// Package api implements the KeywordForge dashboard REST client used for
// processing-status snapshots and project reset. Chunk uploads go through
// internal/upload, which owns its own transfer-tuned client.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"

	"github.com/keywordforge/kwforge/internal/config"
	"github.com/keywordforge/kwforge/internal/constants"
	"github.com/keywordforge/kwforge/internal/http"
	"github.com/keywordforge/kwforge/internal/models"
	"github.com/keywordforge/kwforge/internal/version"
)

// retryLogger adapts zerolog to the retryablehttp.LeveledLogger interface.
// Info/Debug are dropped to keep retry chatter out of normal output.
type retryLogger struct{}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	log.Error().Interface("detail", keysAndValues).Msg("retry: " + msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	log.Warn().Interface("detail", keysAndValues).Msg("retry: " + msg)
}

// Client is the dashboard API client for JSON endpoints.
type Client struct {
	httpClient *nethttp.Client
	config     *config.Config
	baseURL    string
	apiKey     string
}

// NewClient creates a new API client with proxy support and retries.
func NewClient(cfg *config.Config) (*Client, error) {
	httpClient, err := http.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = constants.APIRetryMax
	retryClient.RetryWaitMin = constants.APIRetryWaitMin
	retryClient.RetryWaitMax = constants.APIRetryWaitMax
	retryClient.Logger = &retryLogger{}

	return &Client{
		httpClient: retryClient.StandardClient(),
		config:     cfg,
		baseURL:    strings.TrimSuffix(cfg.PlatformURL, "/"),
		apiKey:     cfg.APIKey,
	}, nil
}

// Config returns the configuration used by this client. The upload package
// uses it to configure its transfer client with the same proxy settings.
func (c *Client) Config() *config.Config {
	return c.config
}

// BaseURL returns the normalized platform URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// APIKey returns the token used for authentication.
func (c *Client) APIKey() string {
	return c.apiKey
}

// doRequest performs an authenticated JSON request.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*nethttp.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = strings.NewReader(string(jsonData))
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// FetchSnapshot reads the current processing-status snapshot for a project.
// The returned snapshot is treated as immutable by every consumer.
func (c *Client) FetchSnapshot(ctx context.Context, projectID string) (*models.Snapshot, error) {
	path := fmt.Sprintf("/api/v1/projects/%s/uploads/status", projectID)
	resp, err := c.doRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK {
		return nil, newStatusError("fetch status", resp)
	}

	var snap models.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode status snapshot: %w", err)
	}
	return &snap, nil
}

// ResetProject clears the project's upload/processing state server-side.
// On success the caller must discard everything it held for the previous
// batch; the next snapshot will report idle.
func (c *Client) ResetProject(ctx context.Context, projectID string) error {
	path := fmt.Sprintf("/api/v1/projects/%s/uploads/reset", projectID)
	resp, err := c.doRequest(ctx, "POST", path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK && resp.StatusCode != nethttp.StatusNoContent {
		return newStatusError("reset project", resp)
	}
	return nil
}
