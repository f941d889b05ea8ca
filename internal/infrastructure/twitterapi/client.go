package twitterapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"PaperFeed/internal/domain"
	"PaperFeed/internal/logging"
	"PaperFeed/internal/ports"
)

const errorBodyLimit = 4096

// ErrStatus is wrapped by Search when the provider answers with a non-2xx status.
var ErrStatus = errors.New("twitterapi: unexpected status")

// Client talks to the TwitterAPI.io advanced search endpoint.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	logger   *slog.Logger
}

var _ ports.PostSearcher = (*Client)(nil)

// NewClient creates a reusable HTTP client. A nil httpClient gets a default
// with the given timeout.
func NewClient(endpoint, apiKey string, httpClient *http.Client, timeout time.Duration, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     httpClient,
		logger:   logger,
	}
}

// Search performs exactly one advanced-search call and maps the tweets.
func (c *Client) Search(ctx context.Context, req ports.SearchRequest) ([]domain.SocialPost, error) {
	endpoint, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid search endpoint %s: %w", c.endpoint, err)
	}
	query := endpoint.Query()
	query.Set("query", req.Query)
	if req.QueryType != "" {
		query.Set("queryType", req.QueryType)
	}
	endpoint.RawQuery = query.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("X-API-Key", c.apiKey)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		c.logger.Error("search provider error", "status", resp.StatusCode, "body", strings.TrimSpace(string(body)))
		return nil, fmt.Errorf("%w %s", ErrStatus, resp.Status)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	posts := make([]domain.SocialPost, 0, len(payload.Tweets))
	for _, tw := range payload.Tweets {
		posts = append(posts, tw.toDomain())
	}
	c.logger.Debug("search completed", "tweets", len(posts))
	return posts, nil
}
