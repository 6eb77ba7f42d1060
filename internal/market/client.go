// Package market fetches per-island weekly price observations, either from
// a live HTTP feed or from a CSV fixture used in tests and offline runs.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rewired-gh/stalkd/internal/models"
)

// Client fetches one island's observed week.
type Client interface {
	FetchWeek(ctx context.Context, islandID string) (models.ObservedWeek, error)
}

// HTTPClient fetches observed weeks from a JSON feed over HTTP.
type HTTPClient struct {
	feedURL    string
	httpClient *http.Client
}

// feedWeek is the wire shape returned by the feed for one island's week.
type feedWeek struct {
	IslandID        string `json:"island_id"`
	WeekStart       string `json:"week_start"`
	FirstBuy        bool   `json:"first_buy"`
	PreviousPattern *int   `json:"previous_pattern,omitempty"`
	BuyPrice        *int   `json:"buy_price,omitempty"`
	Prices          [12]*int `json:"prices"`
}

// NewHTTPClient creates a new feed client.
func NewHTTPClient(feedURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		feedURL: feedURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchWeek retrieves the current observed week for an island.
func (c *HTTPClient) FetchWeek(ctx context.Context, islandID string) (models.ObservedWeek, error) {
	url := fmt.Sprintf("%s/islands/%s/week", c.feedURL, islandID)

	resp, err := c.doRequest(ctx, url)
	if err != nil {
		return models.ObservedWeek{}, fmt.Errorf("failed to fetch week for island %s: %w", islandID, err)
	}
	defer resp.Body.Close()

	var fw feedWeek
	if err := json.NewDecoder(resp.Body).Decode(&fw); err != nil {
		return models.ObservedWeek{}, fmt.Errorf("failed to decode week for island %s: %w", islandID, err)
	}

	weekStart, err := time.Parse(time.RFC3339, fw.WeekStart)
	if err != nil {
		return models.ObservedWeek{}, fmt.Errorf("failed to parse week_start for island %s: %w", islandID, err)
	}

	now := time.Now()
	return models.ObservedWeek{
		IslandID:        fw.IslandID,
		WeekStart:       weekStart,
		FirstBuy:        fw.FirstBuy,
		PreviousPattern: fw.PreviousPattern,
		BuyPrice:        fw.BuyPrice,
		Prices:          fw.Prices,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// doRequest performs an HTTP request with linear backoff retry: up to 3
// attempts, retrying on network errors and 5xx responses and failing fast on
// 4xx responses.
func (c *HTTPClient) doRequest(ctx context.Context, url string) (*http.Response, error) {
	maxRetries := 3
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(i+1) * time.Second)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			time.Sleep(time.Duration(i+1) * time.Second)
			continue
		}

		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("client error: %d", resp.StatusCode)
		}

		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
