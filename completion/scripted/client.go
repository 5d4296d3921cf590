// Package scripted provides a canned completion client for tests and the
// offline demo: responses are consumed in order, one per Complete call.
package scripted

import (
	"context"
	"fmt"
	"sync"

	"nutricoach"
)

type Client struct {
	mu        sync.Mutex
	responses []string
	calls     int
	err       error
}

// NewClient returns a client that replays the given responses in order.
func NewClient(responses ...string) *Client {
	return &Client{responses: responses}
}

// NewClientWithError returns a client whose every call fails with err.
func NewClientWithError(err error) *Client {
	return &Client{err: err}
}

func (c *Client) Complete(ctx context.Context, messages []nutricoach.Message) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return "", c.err
	}

	if c.calls >= len(c.responses) {
		return "", fmt.Errorf("scripted client exhausted after %d responses", len(c.responses))
	}

	response := c.responses[c.calls]
	c.calls++
	return response, nil
}

// Calls reports how many completions have been served.
func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}
