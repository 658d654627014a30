package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lightningnetwork/lnd/clock"
)

const maxBodySize = 1 << 20

// client is the http plumbing shared by every rate fetcher.
type client struct {
	baseURL string
	http    *http.Client
	clock   clock.Clock
}

func newClient(baseURL string, timeout time.Duration, clk clock.Clock) client {
	if clk == nil {
		clk = clock.NewDefaultClock()
	}
	return client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		clock:   clk,
	}
}

func (c client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}
	return nil
}
