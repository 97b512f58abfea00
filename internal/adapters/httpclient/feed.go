package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"laundry/internal/domain"
	"net/http"
	"net/url"
)

// maxFeedBytes bounds the feed body; the TCMB daily file is well under 100KB.
const maxFeedBytes = 4 << 20

type FeedClient struct {
	http    *http.Client
	feedURL string
}

// Fetch downloads the rate feed. Every failure wraps domain.ErrUpstreamUnavailable.
func (c *FeedClient) Fetch(ctx context.Context) ([]byte, error) {
	u, err := url.Parse(c.feedURL)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse feed URL: %w", domain.ErrUpstreamUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create feed request: %w", domain.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Accept", "application/xml, application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute feed request: %w", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status code %d from feed: %s", domain.ErrUpstreamUnavailable, resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read feed body: %w", domain.ErrUpstreamUnavailable, err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, errEmptyFeed)
	}
	return body, nil
}

var errEmptyFeed = errors.New("feed returned empty response")

func NewFeedClient(httpClient *http.Client, feedURL string) *FeedClient {
	return &FeedClient{http: httpClient, feedURL: feedURL}
}
