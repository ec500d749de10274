package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client is the HTTP implementation of Invoker, used when the tool gateway
// runs as its own process (cmd/taskchat-tools).
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// NewClient creates a Client pointing at a gateway base URL
// (e.g. "http://localhost:8001").
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Invoke posts one tool call to the remote gateway. Transport failures
// return an error; everything else comes back as an envelope.
func (c *Client) Invoke(ctx context.Context, name ToolName, args json.RawMessage) (Envelope, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	url := c.baseURL + "/tools/" + string(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(args))
	if err != nil {
		return Envelope{}, fmt.Errorf("tools client: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Envelope{}, fmt.Errorf("tools client: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var env Envelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			return Envelope{}, fmt.Errorf("tools client: failed to decode envelope: %w", err)
		}
		return env, nil
	}

	// Transport-level rejection: surface the gateway's reason if it sent one.
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return Envelope{}, fmt.Errorf("tools client: gateway returned %d: %s", resp.StatusCode, body.Error)
	}
	return Envelope{}, fmt.Errorf("tools client: gateway returned %d", resp.StatusCode)
}

// Compile-time assertions.
var (
	_ Invoker = (*Client)(nil)
	_ Invoker = (*Gateway)(nil)
)
