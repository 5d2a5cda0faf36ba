// Package dispatch sends task payloads to the remote worker pool. Each
// dispatch is an independent request; outputs are idempotent by naming, so
// there is no local job table to keep.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"clipforge/config"
	"clipforge/fault"
	"clipforge/logger"
	"clipforge/task"
)

// Dispatcher hands a task to the remote pool and returns as soon as the
// queue accepts it.
type Dispatcher interface {
	Dispatch(ctx context.Context, payload task.Payload) error
}

// Client posts jobs to a RunPod-style queue endpoint: the payload is wrapped
// in {"input": ...} and authorized with a bearer API key. The call returns
// once the job is queued; completion is observed through storage, never
// through this client.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

func NewClient(cfg config.WorkerConfig) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

type runRequest struct {
	Input task.Payload `json:"input"`
}

func (c *Client) Dispatch(ctx context.Context, payload task.Payload) error {
	if c.endpoint == "" {
		return fault.New(fault.TransferFailed, "no remote worker endpoint configured")
	}

	body, err := json.Marshal(runRequest{Input: payload})
	if err != nil {
		return fault.Wrap(err, fault.TransferFailed, "failed to marshal dispatch payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fault.Wrap(err, fault.TransferFailed, "failed to build dispatch request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fault.Wrap(err, fault.TransferFailed, "dispatch request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		diag, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fault.Newf(fault.TransferFailed, "worker queue returned status %d: %s",
			resp.StatusCode, string(diag))
	}

	logger.Debugf("dispatched %s to remote worker queue", payload.Task)
	return nil
}
