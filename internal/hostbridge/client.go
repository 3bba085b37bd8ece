package hostbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ward/internal/blocklist"
)

// ErrUnavailable means no daemon answered on the bridge address.
var ErrUnavailable = errors.New("host bridge unavailable")

// Client talks to a running daemon through its bridge.
type Client struct {
	base   string
	token  string
	client *http.Client
}

// NewClient targets the bridge listening on bind.
func NewClient(bind, token string) *Client {
	return &Client{
		base:   "http://" + strings.TrimSpace(bind),
		token:  strings.TrimSpace(token),
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Status fetches the raw daemon status document.
func (c *Client) Status(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// BlockCurrent asks the daemon to block whatever is playing.
func (c *Client) BlockCurrent(ctx context.Context, list blocklist.List) (BlockResponse, error) {
	var resp BlockResponse
	err := c.do(ctx, http.MethodPost, "/api/block", blockRequest{List: string(list)}, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&apiErr)
		if apiErr.Error == "" {
			apiErr.Error = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("host bridge %s %s: %d %s", method, path, resp.StatusCode, apiErr.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
