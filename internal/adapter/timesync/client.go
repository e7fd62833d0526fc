// Package timesync keeps the display's wall clock in step with a network
// time service.
package timesync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultURL is a time service answering for a fixed reference zone.
const DefaultURL = "https://worldtimeapi.org/api/timezone/Etc/UTC"

// Client fetches the current time and applies it to a Clock.
// It implements scheduler.ClockSyncer.
type Client struct {
	url        string
	httpClient *http.Client
	clock      *Clock
	logger     *slog.Logger
}

// NewClient creates a time sync client.
func NewClient(url string, timeout time.Duration, clock *Clock, logger *slog.Logger) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		clock:      clock,
		logger:     logger,
	}
}

// Sync fetches the network time and corrects the clock.
func (c *Client) Sync(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("time request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("time API error: status %d: %s", resp.StatusCode, body)
	}

	var tr response
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	now, err := tr.time()
	if err != nil {
		return err
	}

	before, _ := c.clock.Offset()
	c.clock.Set(now)
	after, _ := c.clock.Offset()
	c.logger.Debug("wall clock corrected", "drift", after-before, "now", now.Format(time.RFC3339Nano))
	return nil
}

// Time API response types.

type response struct {
	Datetime string `json:"datetime"`
	UnixTime int64  `json:"unixtime"`
}

// time prefers the sub-second datetime field and falls back to unixtime.
func (r response) time() (time.Time, error) {
	if r.Datetime != "" {
		if t, err := time.Parse(time.RFC3339Nano, r.Datetime); err == nil {
			return t, nil
		}
	}
	if r.UnixTime > 0 {
		return time.Unix(r.UnixTime, 0), nil
	}
	return time.Time{}, errors.New("time API response has no usable time")
}
