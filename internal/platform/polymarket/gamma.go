package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/time/rate"
)

// Gamma /markets is capped at 300 requests per 10s; stay at 60%.
const (
	gammaRatePerSec = 18
	gammaBurst      = 10
)

// GammaClient is the REST client for the Polymarket Gamma API, which
// provides market discovery and metadata. Responses are returned as raw
// JSON rows; the normalization layer owns all schema decisions.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewGammaClient creates a new Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
func NewGammaClient(baseURL string) *GammaClient {
	return &GammaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: httpTimeout,
		},
		limiter: rate.NewLimiter(gammaRatePerSec, gammaBurst),
	}
}

// MarketsQuery holds the supported GET /markets filters. Zero-valued fields
// are omitted from the query string; the tri-state flags distinguish "don't
// filter" (nil) from an explicit true/false.
type MarketsQuery struct {
	Limit    int
	Offset   int
	Slug     string
	Active   *bool
	Closed   *bool
	Archived *bool
}

func (q MarketsQuery) encode() string {
	params := url.Values{}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.Slug != "" {
		params.Set("slug", q.Slug)
	}
	if q.Active != nil {
		params.Set("active", strconv.FormatBool(*q.Active))
	}
	if q.Closed != nil {
		params.Set("closed", strconv.FormatBool(*q.Closed))
	}
	if q.Archived != nil {
		params.Set("archived", strconv.FormatBool(*q.Archived))
	}
	return params.Encode()
}

// ListMarkets returns the markets matching the query as raw JSON rows. A
// slug query that matches nothing returns an empty slice, not an error.
func (g *GammaClient) ListMarkets(ctx context.Context, query MarketsQuery) ([]json.RawMessage, error) {
	path := "/markets"
	if encoded := query.encode(); encoded != "" {
		path += "?" + encoded
	}

	body, err := g.doGet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: get markets: %w", err)
	}

	var markets []json.RawMessage
	if err := json.Unmarshal(body, &markets); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode markets: %w", err)
	}

	return markets, nil
}

// ListEvents returns a paginated list of events as raw JSON rows.
func (g *GammaClient) ListEvents(ctx context.Context, limit, offset int) ([]json.RawMessage, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}

	path := "/events"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	body, err := g.doGet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: get events: %w", err)
	}

	var events []json.RawMessage
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode events: %w", err)
	}

	return events, nil
}

// GetEvent returns a single event by its ID.
func (g *GammaClient) GetEvent(ctx context.Context, id string) (json.RawMessage, error) {
	path := fmt.Sprintf("/events/%s", url.PathEscape(id))

	body, err := g.doGet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: get event %s: %w", id, err)
	}

	var event json.RawMessage
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode event: %w", err)
	}

	return event, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doGet sends an unauthenticated GET request to the Gamma API.
func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}
