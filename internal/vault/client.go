// Package vault ships validated connection briefs to the remote vault
// service with bounded retry.
package vault

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

	"golang.org/x/time/rate"

	"scout/internal/types"
)

const (
	uploadPath = "/api/upload-run"

	// requestTimeout bounds each individual upload attempt, independent
	// of and much shorter than the discovery timeout
	requestTimeout = 30 * time.Second

	// maxErrorBodyBytes caps how much of an error response is read for
	// the failure message
	maxErrorBodyBytes = 4 * 1024
)

// Credentials authorize one workspace against the vault. They travel in
// request headers and are never logged.
type Credentials struct {
	WorkspaceID  string
	WorkspaceKey string
}

// Receipt is the vault's acknowledgment of a stored run
type Receipt struct {
	RunID    string `json:"runId"`
	VaultURL string `json:"vaultUrl"`
}

// TerminalError is a non-retryable upload failure: the request itself is
// malformed or rejected, so retrying would be wasted work.
type TerminalError struct {
	Status  int
	Message string
}

func (e *TerminalError) Error() string {
	return fmt.Sprintf("vault rejected upload (status %d): %s", e.Status, e.Message)
}

// uploadRequest is the wire body of an upload
type uploadRequest struct {
	Run *types.ConnectionBrief `json:"run"`
}

// uploadResponse is the vault's wire response
type uploadResponse struct {
	OK       bool   `json:"ok"`
	RunID    string `json:"runId"`
	VaultURL string `json:"vaultUrl"`
	Error    string `json:"error,omitempty"`
}

// Client is an HTTP client for the vault upload endpoint
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	log     *slog.Logger

	// backoff delays slept between failed attempts; the attempt budget
	// is len(backoff). Shortened in tests.
	backoff []time.Duration
	sleep   func(time.Duration)
}

// NewClient creates a vault client for the given base URL
func NewClient(baseURL string, log *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: requestTimeout},
		// At most one request per second toward the vault, on top of
		// whatever the backoff schedule already spaces out
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		log:     log,
		backoff: []time.Duration{1 * time.Second, 3 * time.Second, 9 * time.Second},
		sleep:   time.Sleep,
	}
}

// Upload ships a brief to the vault. Transient failures (5xx, 429, or no
// response at all) are retried with escalating delays; any other 4xx is
// terminal immediately. Callers must validate the brief first; this
// method never inspects its content.
func (c *Client) Upload(ctx context.Context, brief *types.ConnectionBrief, creds Credentials) (*Receipt, error) {
	body, err := json.Marshal(uploadRequest{Run: brief})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal brief: %w", err)
	}

	attempts := len(c.backoff)
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("upload canceled: %w", err)
		}

		receipt, retryable, err := c.attempt(ctx, body, creds)
		if err == nil {
			if attempt > 0 {
				c.log.Info("upload succeeded after retry",
					"workspace_id", creds.WorkspaceID,
					"attempt", attempt+1)
			}
			return receipt, nil
		}
		if !retryable {
			return nil, err
		}

		lastErr = err
		if attempt < attempts-1 {
			delay := c.backoff[attempt]
			c.log.Warn("upload attempt failed, backing off",
				"workspace_id", creds.WorkspaceID,
				"attempt", attempt+1,
				"delay", delay,
				"error", err)
			c.sleep(delay)
		}
	}

	return nil, fmt.Errorf("upload failed after %d attempts: %w", attempts, lastErr)
}

// attempt performs one POST. The second return reports whether the
// failure is transient.
func (c *Client) attempt(ctx context.Context, body []byte, creds Credentials) (*Receipt, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadPath, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Workspace-Id", creds.WorkspaceID)
	req.Header.Set("X-Workspace-Key", creds.WorkspaceKey)

	resp, err := c.http.Do(req)
	if err != nil {
		// No response received: network-level failure, transient
		return nil, true, fmt.Errorf("vault request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var parsed uploadResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return nil, false, fmt.Errorf("vault returned unreadable response: %w", err)
		}
		if !parsed.OK {
			return nil, false, &TerminalError{Status: resp.StatusCode, Message: parsed.Error}
		}
		return &Receipt{RunID: parsed.RunID, VaultURL: parsed.VaultURL}, false, nil

	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("vault returned status %d: %s", resp.StatusCode, errorMessage(resp.Body))

	default:
		// Remaining 4xx: the request is wrong, not the moment
		return nil, false, &TerminalError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
}

// errorMessage pulls the server-provided message out of an error body,
// falling back to the raw (truncated) body
func errorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBodyBytes))
	if err != nil || len(data) == 0 {
		return "no response body"
	}
	var parsed struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &parsed); err == nil && parsed.Error != "" {
		return parsed.Error
	}
	return strings.TrimSpace(string(data))
}
