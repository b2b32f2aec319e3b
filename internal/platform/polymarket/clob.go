package polymarket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/gutmanan/polymarket-mcp/internal/crypto"
	"github.com/gutmanan/polymarket-mcp/internal/domain"
)

const httpTimeout = 30 * time.Second

// CLOB rate limits, held to 60% of the documented caps so pagination bursts
// never trip the upstream limiter.
const (
	clobRatePerSec = 30
	clobBurst      = 10
)

// ClobClient is the REST client for the Polymarket CLOB (Central Limit
// Order Book) API. Book and price reads are public; order placement,
// cancellation, and credential derivation are authenticated.
type ClobClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	signer     *crypto.Signer
	creds      *crypto.APICreds
}

// NewClobClient creates a new CLOB REST client.
//
// baseURL is the CLOB API root, e.g. "https://clob.polymarket.com".
// signer signs the credential-derivation message and identifies the wallet
// on authenticated requests. creds may be nil; call DeriveAPIKey before any
// trading method.
func NewClobClient(baseURL string, signer *crypto.Signer, creds *crypto.APICreds) *ClobClient {
	return &ClobClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: httpTimeout,
		},
		limiter: rate.NewLimiter(clobRatePerSec, clobBurst),
		signer:  signer,
		creds:   creds,
	}
}

// Creds returns the active API credentials, or nil when none are set.
func (c *ClobClient) Creds() *crypto.APICreds {
	return c.creds
}

// GetBook fetches the order book for a token.
func (c *ClobClient) GetBook(ctx context.Context, tokenID string) (domain.OrderBookSnapshot, error) {
	params := url.Values{}
	params.Set("token_id", tokenID)

	body, err := c.doGet(ctx, "/book?"+params.Encode())
	if err != nil {
		return domain.OrderBookSnapshot{}, fmt.Errorf("polymarket/clob: get book: %w", err)
	}

	var book APIBook
	if err := json.Unmarshal(body, &book); err != nil {
		return domain.OrderBookSnapshot{}, fmt.Errorf("polymarket/clob: decode book: %w", err)
	}

	return book.ToSnapshot(tokenID), nil
}

// GetPrice fetches the best price for a token on one side of the book.
func (c *ClobClient) GetPrice(ctx context.Context, tokenID string, side domain.OrderSide) (float64, error) {
	params := url.Values{}
	params.Set("token_id", tokenID)
	params.Set("side", string(side))

	body, err := c.doGet(ctx, "/price?"+params.Encode())
	if err != nil {
		return 0, fmt.Errorf("polymarket/clob: get price: %w", err)
	}

	var resp struct {
		Price string `json:"price"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("polymarket/clob: decode price: %w", err)
	}

	price, err := strconv.ParseFloat(resp.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("polymarket/clob: parse price %q: %w", resp.Price, err)
	}

	return price, nil
}

// ListSamplingMarkets fetches one page of the sampling-markets listing.
// Pass the previous page's next_cursor to continue; "" starts from the top.
func (c *ClobClient) ListSamplingMarkets(ctx context.Context, cursor string) (SamplingMarketsPage, error) {
	path := "/sampling-markets"
	if cursor != "" {
		params := url.Values{}
		params.Set("next_cursor", cursor)
		path += "?" + params.Encode()
	}

	body, err := c.doGet(ctx, path)
	if err != nil {
		return SamplingMarketsPage{}, fmt.Errorf("polymarket/clob: list sampling markets: %w", err)
	}

	var page SamplingMarketsPage
	if err := json.Unmarshal(body, &page); err != nil {
		return SamplingMarketsPage{}, fmt.Errorf("polymarket/clob: decode sampling markets: %w", err)
	}

	return page, nil
}

// GetNegRisk reports whether a token trades on the neg-risk exchange, which
// decides the contract orders are signed against.
func (c *ClobClient) GetNegRisk(ctx context.Context, tokenID string) (bool, error) {
	params := url.Values{}
	params.Set("token_id", tokenID)

	body, err := c.doGet(ctx, "/neg-risk?"+params.Encode())
	if err != nil {
		return false, fmt.Errorf("polymarket/clob: get neg risk: %w", err)
	}

	var resp struct {
		NegRisk bool `json:"neg_risk"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return false, fmt.Errorf("polymarket/clob: decode neg risk: %w", err)
	}

	return resp.NegRisk, nil
}

// PostOrder submits a signed order under the given fulfillment policy. The
// upstream result is returned as-is, rejections included; err is non-nil
// only for transport, HTTP, or decode failures.
func (c *ClobClient) PostOrder(ctx context.Context, order OrderPayload, policy domain.FulfillmentPolicy) (domain.OrderResult, error) {
	if c.creds == nil {
		return domain.OrderResult{}, fmt.Errorf("polymarket/clob: %w: no API credentials", domain.ErrUnauthorized)
	}

	reqBody := OrderRequest{
		Order:     order,
		Owner:     c.creds.Key,
		OrderType: string(policy),
	}

	respBody, err := c.doAuthenticatedRequest(ctx, http.MethodPost, "/order", reqBody)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("polymarket/clob: post order: %w", err)
	}

	var result domain.OrderResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return domain.OrderResult{}, fmt.Errorf("polymarket/clob: decode order result: %w", err)
	}

	return result, nil
}

// CancelOrder cancels a single order by its ID. The result reports per-order
// outcomes; an order already filled or unknown lands in NotCanceled.
func (c *ClobClient) CancelOrder(ctx context.Context, orderID string) (domain.CancelResult, error) {
	if c.creds == nil {
		return domain.CancelResult{}, fmt.Errorf("polymarket/clob: %w: no API credentials", domain.ErrUnauthorized)
	}

	reqBody := map[string]string{"orderID": orderID}

	respBody, err := c.doAuthenticatedRequest(ctx, http.MethodDelete, "/order", reqBody)
	if err != nil {
		return domain.CancelResult{}, fmt.Errorf("polymarket/clob: cancel order %s: %w", orderID, err)
	}

	var result domain.CancelResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return domain.CancelResult{}, fmt.Errorf("polymarket/clob: decode cancel response: %w", err)
	}

	return result, nil
}

// DeriveAPIKey performs the CLOB auth flow to obtain HMAC API credentials.
// It signs a ClobAuth EIP-712 message and sends it with L1 headers to the
// derive-api-key endpoint. Per Polymarket docs, L1 requires POLY_ADDRESS,
// POLY_SIGNATURE, POLY_TIMESTAMP, POLY_NONCE. On success it installs the
// credentials on the client and returns them.
func (c *ClobClient) DeriveAPIKey(ctx context.Context) (*crypto.APICreds, error) {
	timestamp := time.Now().Unix()
	nonce := int64(0)

	sig, err := c.signer.SignAuthMessage(timestamp, nonce)
	if err != nil {
		return nil, fmt.Errorf("polymarket/clob: sign auth message: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("polymarket/clob: rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/derive-api-key", nil)
	if err != nil {
		return nil, fmt.Errorf("polymarket/clob: create auth request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("POLY_ADDRESS", c.signer.Address().Hex())
	req.Header.Set("POLY_SIGNATURE", sig)
	req.Header.Set("POLY_TIMESTAMP", strconv.FormatInt(timestamp, 10))
	req.Header.Set("POLY_NONCE", strconv.FormatInt(nonce, 10))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("polymarket/clob: auth request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("polymarket/clob: read auth response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, respBody); err != nil {
		return nil, fmt.Errorf("polymarket/clob: derive api key: %w", err)
	}

	var authResp struct {
		APIKey     string `json:"apiKey"`
		Secret     string `json:"secret"`
		Passphrase string `json:"passphrase"`
	}
	if err := json.Unmarshal(respBody, &authResp); err != nil {
		return nil, fmt.Errorf("polymarket/clob: decode auth response: %w", err)
	}
	if authResp.APIKey == "" || authResp.Secret == "" || authResp.Passphrase == "" {
		return nil, fmt.Errorf("polymarket/clob: incomplete credentials in auth response")
	}

	c.creds = &crypto.APICreds{
		Key:        authResp.APIKey,
		Secret:     authResp.Secret,
		Passphrase: authResp.Passphrase,
	}

	return c.creds, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doGet sends an unauthenticated GET and returns the raw response body.
func (c *ClobClient) doGet(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
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

// doAuthenticatedRequest builds, signs (HMAC), sends, and reads an HTTP
// request against the CLOB API. The HMAC covers the exact JSON bytes that
// go on the wire. It returns the raw response body.
func (c *ClobClient) doAuthenticatedRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var bodyReader io.Reader
	var bodyStr string

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyStr = string(jsonBody)
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	headers := c.creds.L2Headers(c.signer.Address().Hex(), method, path, bodyStr)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	return respBody, nil
}

// checkHTTPStatus maps non-2xx status codes to appropriate domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}
