// Package backend calls the administrative endpoints of the companion
// service that serves prompts to applications.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Index job states reported by the companion service.
const (
	StatusIdle      = "idle"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusUnknown   = "unknown"
	StatusError     = "error"
)

const maxErrorBody = 512

// IndexStatus is the state of an application's index population job.
type IndexStatus struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Client is a companion service client. A single Client serves every
// environment; the base URL is passed per call.
type Client struct {
	http   *http.Client
	token  string
	logger *slog.Logger
}

// New creates a Client whose requests are bounded by timeout.
func New(token string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		http:   &http.Client{Timeout: timeout},
		token:  token,
		logger: logger.With("system", "backend"),
	}
}

// ClearCache asks the service at base to drop every cached entry for app and
// returns the number of keys it invalidated, read from the response's
// "cleared" field.
func (c *Client) ClearCache(ctx context.Context, base, app string) (int, error) {
	body := map[string]string{"app_name": app, "target": "all"}

	var resp struct {
		Cleared *int `json:"cleared"`
	}
	if err := c.do(ctx, http.MethodPost, base+"/admin/cache/clear", body, &resp); err != nil {
		return 0, err
	}

	n := 0
	if resp.Cleared != nil {
		n = *resp.Cleared
	} else {
		c.logger.Warn("cache clear response has no cleared count", "base", base, "app", app)
	}

	c.logger.Info("backend cache cleared", "base", base, "app", app, "keys", n)
	return n, nil
}

// PopulateIndex starts an index population job for app. The job runs on the
// service; poll IndexStatus for progress.
func (c *Client) PopulateIndex(ctx context.Context, base, app string) error {
	body := map[string]string{"app_name": app}
	if err := c.do(ctx, http.MethodPost, base+"/admin/chroma/populate", body, nil); err != nil {
		return err
	}
	c.logger.Info("index population started", "base", base, "app", app)
	return nil
}

// IndexStatus returns the state of app's index population job.
func (c *Client) IndexStatus(ctx context.Context, base, app string) (*IndexStatus, error) {
	var status IndexStatus
	endpoint := base + "/admin/chroma/status/" + url.PathEscape(app)
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &status); err != nil {
		return nil, err
	}
	if status.Status == "" {
		status.Status = StatusUnknown
	}
	return &status, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequest, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}
