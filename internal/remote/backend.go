// Package remote sends save operations to a processing service over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/framecut/framecut-agent/internal/save"
)

// RemoteError is a non-2xx response from the processing service.
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote save failed: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRetryable returns true for server errors (5xx).
// Client errors (4xx) are considered permanent.
func (e *RemoteError) IsRetryable() bool {
	return e.StatusCode >= 500
}

// SaveResponse is the body returned by a successful remote save.
type SaveResponse struct {
	Path string `json:"path"`
}

// HTTPBackend posts each Operation as JSON to {baseURL}/api/save.
type HTTPBackend struct {
	baseURL    string
	token      string
	deviceID   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPBackend returns a backend. timeout bounds a single request; zero
// leaves the bound to the caller's context.
func NewHTTPBackend(baseURL, token string, timeout time.Duration, logger *slog.Logger) *HTTPBackend {
	return &HTTPBackend{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (b *HTTPBackend) SetDeviceID(id string) {
	b.deviceID = id
}

func (b *HTTPBackend) Save(ctx context.Context, op save.Operation) (string, error) {
	body, err := json.Marshal(op)
	if err != nil {
		return "", fmt.Errorf("marshal save operation: %w", err)
	}

	url := b.baseURL + "/api/save"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}
	req.Header.Set("X-Framecut-Request-Id", uuid.NewString())
	if b.deviceID != "" {
		req.Header.Set("X-Framecut-Device-Id", b.deviceID)
	}

	if b.logger != nil {
		b.logger.Info("sending save to remote backend",
			"url", url,
			"output", op.Output.Path,
			"compressed", op.Compressed(),
			"body_bytes", len(body),
		)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &RemoteError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result SaveResponse
	if err := json.Unmarshal(respBody, &result); err == nil && result.Path != "" {
		return result.Path, nil
	}
	return op.Output.Path, nil
}
