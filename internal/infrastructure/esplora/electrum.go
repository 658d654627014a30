package esplora

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"
)

// electrumClient speaks newline-delimited JSON-RPC with an Electrum server.
// Calls are serialized over a single connection.
type electrumClient struct {
	address string
	timeout time.Duration

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	reqID  uint64
}

type electrumRequest struct {
	ID     uint64 `json:"id"`
	Method string `json:"method"`
	Params []any  `json:"params"`
}

type electrumResponse struct {
	ID     *uint64         `json:"id"`
	Method string          `json:"method,omitempty"`
	Result json.RawMessage `json:"result"`
	Error  *electrumError  `json:"error,omitempty"`
}

type electrumError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *electrumError) Error() string {
	return fmt.Sprintf("electrum error %d: %s", e.Code, e.Message)
}

func newElectrumClient(address string, timeout time.Duration) *electrumClient {
	return &electrumClient{address: address, timeout: timeout}
}

func (c *electrumClient) call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		dialer := &net.Dialer{Timeout: c.timeout}
		conn, err := dialer.DialContext(ctx, "tcp", c.address)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w", c.address, err)
		}
		c.conn = conn
		c.reader = bufio.NewReader(conn)
	}

	c.reqID++
	reqID := c.reqID
	if params == nil {
		params = []any{}
	}
	buf, err := json.Marshal(electrumRequest{ID: reqID, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	buf = append(buf, '\n')

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		c.closeLocked()
		return nil, fmt.Errorf("failed to set deadline: %w", err)
	}
	if _, err := c.conn.Write(buf); err != nil {
		c.closeLocked()
		return nil, fmt.Errorf("failed to write request: %w", err)
	}

	for {
		line, err := c.reader.ReadBytes('\n')
		if err != nil {
			c.closeLocked()
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		var resp electrumResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}
		// Subscription notifications carry no id.
		if resp.ID == nil {
			continue
		}
		if *resp.ID != reqID {
			continue
		}
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	}
}

func (c *electrumClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *electrumClient) closeLocked() {
	if c.conn != nil {
		// nolint
		c.conn.Close()
		c.conn = nil
		c.reader = nil
	}
}
