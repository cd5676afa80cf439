// Package client pushes encoded payloads to the Loki push API.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
)

const pushPath = "/loki/api/v1/push"

// Client sends push payloads over HTTP. The payload is produced by the
// formatter; the client only owns delivery.
type Client struct {
	httpClient *http.Client
	pushURL    string
	username   string // optional basic auth
	password   string
	logger     *slog.Logger
}

// New creates a Client for the Loki instance at baseURL. Username and
// password enable basic auth when both are set.
func New(baseURL, username, password string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		pushURL:  strings.TrimRight(baseURL, "/") + pushPath,
		username: username,
		password: password,
		logger:   logger,
	}
}

// Push delivers one payload, gzip-compressed. An empty payload is a
// no-op. Failures are returned, never retried here.
func (c *Client) Push(ctx context.Context, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}

	var body bytes.Buffer
	zw := gzip.NewWriter(&body)
	if _, err := zw.Write(payload); err != nil {
		return fmt.Errorf("compress payload: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compress payload: %w", err)
	}
	compressed := body.Len()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.pushURL, &body)
	if err != nil {
		return fmt.Errorf("create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.username != "" && c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send push request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Read a snippet of the response body for the error.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return fmt.Errorf("loki returned status %d: %s", resp.StatusCode, string(snippet))
	}

	c.logger.Debug("pushed payload",
		"bytes", len(payload),
		"compressed_bytes", compressed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
