// Package webhook is a small outbound HTTP client for posting JSON to
// external services. Failures are folded into the result value so
// callers can log-and-continue; webhook delivery is best effort.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultTimeout = 5 * time.Second

type Result struct {
	Success bool
	Status  int
	Body    []byte
	Err     error
}

type Client struct {
	http *http.Client
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{http: &http.Client{Timeout: timeout}}
}

// Post sends a JSON payload.
func (c *Client) Post(ctx context.Context, target string, payload any, headers map[string]string) Result {
	return c.Send(ctx, http.MethodPost, target, payload, headers)
}

// Get sends a GET with query parameters.
func (c *Client) Get(ctx context.Context, target string, params map[string]string, headers map[string]string) Result {
	u, err := url.Parse(target)
	if err != nil {
		return Result{Err: err}
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	return c.Send(ctx, http.MethodGet, u.String(), nil, headers)
}

// Send performs an arbitrary-method request with an optional JSON
// body. Non-2xx statuses are reported as unsuccessful results, not
// errors.
func (c *Client) Send(ctx context.Context, method, target string, payload any, headers map[string]string) Result {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Result{Err: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return Result{Err: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	return Result{
		Success: resp.StatusCode >= 200 && resp.StatusCode < 300,
		Status:  resp.StatusCode,
		Body:    respBody,
	}
}
