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

const (
	dataRatePerSec = 18
	dataBurst      = 10
)

// DataClient is the REST client for the Polymarket Data API, which serves
// wallet-scoped positions, trades, and portfolio value. Rows come back as
// raw JSON so callers pass them through unmodified.
type DataClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewDataClient creates a new Data API client.
//
// baseURL is the Data API root, e.g. "https://data-api.polymarket.com".
func NewDataClient(baseURL string) *DataClient {
	return &DataClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: httpTimeout,
		},
		limiter: rate.NewLimiter(dataRatePerSec, dataBurst),
	}
}

// ListPositions returns the open positions for a wallet address.
func (d *DataClient) ListPositions(ctx context.Context, user string, limit int) ([]json.RawMessage, error) {
	body, err := d.doGet(ctx, "/positions?"+userQuery(user, limit))
	if err != nil {
		return nil, fmt.Errorf("polymarket/data: get positions: %w", err)
	}

	var positions []json.RawMessage
	if err := json.Unmarshal(body, &positions); err != nil {
		return nil, fmt.Errorf("polymarket/data: decode positions: %w", err)
	}

	return positions, nil
}

// ListClosedPositions returns the closed (resolved or exited) positions for
// a wallet address.
func (d *DataClient) ListClosedPositions(ctx context.Context, user string, limit int) ([]json.RawMessage, error) {
	body, err := d.doGet(ctx, "/closed-positions?"+userQuery(user, limit))
	if err != nil {
		return nil, fmt.Errorf("polymarket/data: get closed positions: %w", err)
	}

	var positions []json.RawMessage
	if err := json.Unmarshal(body, &positions); err != nil {
		return nil, fmt.Errorf("polymarket/data: decode closed positions: %w", err)
	}

	return positions, nil
}

// ListTrades returns the trade history for a wallet address.
func (d *DataClient) ListTrades(ctx context.Context, user string, limit int) ([]json.RawMessage, error) {
	body, err := d.doGet(ctx, "/trades?"+userQuery(user, limit))
	if err != nil {
		return nil, fmt.Errorf("polymarket/data: get trades: %w", err)
	}

	var trades []json.RawMessage
	if err := json.Unmarshal(body, &trades); err != nil {
		return nil, fmt.Errorf("polymarket/data: decode trades: %w", err)
	}

	return trades, nil
}

// GetPortfolioValue returns the total portfolio value for a wallet address.
// The upstream shape varies, so the payload stays raw.
func (d *DataClient) GetPortfolioValue(ctx context.Context, user string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("user", user)

	body, err := d.doGet(ctx, "/value?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/data: get portfolio value: %w", err)
	}

	var value json.RawMessage
	if err := json.Unmarshal(body, &value); err != nil {
		return nil, fmt.Errorf("polymarket/data: decode portfolio value: %w", err)
	}

	return value, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

func userQuery(user string, limit int) string {
	params := url.Values{}
	params.Set("user", user)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	return params.Encode()
}

// doGet sends an unauthenticated GET request to the Data API.
func (d *DataClient) doGet(ctx context.Context, path string) ([]byte, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
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
