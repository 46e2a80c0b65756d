// Package binance is the REST and WebSocket client for the Binance spot
// market data API. Public endpoints need no credentials; the account
// endpoint signs requests with HMAC-SHA256.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/HonzaHezina/AIarbi/internal/crypto"
)

// defaultRecvWindow is the signed-request validity window in milliseconds.
const defaultRecvWindow = 5000

// Client is the REST client for the Binance spot API.
type Client struct {
	baseURL    string
	auth       *crypto.HMACAuth
	httpClient *http.Client
}

// NewClient creates a new Binance REST client.
//
// baseURL is the API root, e.g. "https://api.binance.com". auth may be nil
// for public-endpoint-only use.
func NewClient(baseURL string, auth *crypto.HMACAuth) *Client {
	return &Client{
		baseURL: baseURL,
		auth:    auth,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Ping checks REST connectivity.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.doRequest(ctx, "/api/v3/ping", nil, false)
	if err != nil {
		return fmt.Errorf("binance: ping: %w", err)
	}
	return nil
}

// BookTicker returns the best bid/ask for a single symbol.
func (c *Client) BookTicker(ctx context.Context, symbol string) (BookTicker, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	body, err := c.doRequest(ctx, "/api/v3/ticker/bookTicker", params, false)
	if err != nil {
		return BookTicker{}, fmt.Errorf("binance: book ticker %s: %w", symbol, err)
	}

	var raw bookTickerJSON
	if err := json.Unmarshal(body, &raw); err != nil {
		return BookTicker{}, fmt.Errorf("binance: decode book ticker: %w", err)
	}

	return raw.toBookTicker()
}

// BookTickers returns the best bid/ask for the given symbols in one call.
func (c *Client) BookTickers(ctx context.Context, symbols []string) ([]BookTicker, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	// Binance expects a JSON array literal in the symbols parameter.
	encoded, err := json.Marshal(symbols)
	if err != nil {
		return nil, fmt.Errorf("binance: encode symbols: %w", err)
	}
	params := url.Values{}
	params.Set("symbols", string(encoded))

	body, err := c.doRequest(ctx, "/api/v3/ticker/bookTicker", params, false)
	if err != nil {
		return nil, fmt.Errorf("binance: book tickers: %w", err)
	}

	var raws []bookTickerJSON
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, fmt.Errorf("binance: decode book tickers: %w", err)
	}

	out := make([]BookTicker, 0, len(raws))
	for _, raw := range raws {
		t, err := raw.toBookTicker()
		if err != nil {
			// One bad entry must not discard the rest of the batch.
			continue
		}
		out = append(out, t)
	}

	return out, nil
}

// AccountBalances returns the non-zero spot balances for the configured
// API key. Requires credentials.
func (c *Client) AccountBalances(ctx context.Context) ([]Balance, error) {
	body, err := c.doRequest(ctx, "/api/v3/account", url.Values{}, true)
	if err != nil {
		return nil, fmt.Errorf("binance: account: %w", err)
	}

	var resp struct {
		Balances []Balance `json:"balances"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("binance: decode account: %w", err)
	}

	out := resp.Balances[:0]
	for _, b := range resp.Balances {
		if b.Free > 0 || b.Locked > 0 {
			out = append(out, b)
		}
	}

	return out, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doRequest builds, optionally signs, sends, and reads a GET request
// against the Binance API.
func (c *Client) doRequest(ctx context.Context, path string, params url.Values, signed bool) ([]byte, error) {
	fullURL := c.baseURL + path

	if signed {
		if c.auth == nil {
			return nil, fmt.Errorf("credentials not configured")
		}
		if err := c.auth.Validate(); err != nil {
			return nil, err
		}
		fullURL += "?" + c.auth.SignQuery(params, defaultRecvWindow)
	} else if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if signed {
		for k, v := range c.auth.Headers() {
			req.Header.Set(k, v)
		}
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

	if err := c.checkStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	return respBody, nil
}

// checkStatus maps non-2xx HTTP status codes to appropriate errors.
func (c *Client) checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var apiErr errorResponse
	_ = json.Unmarshal(body, &apiErr)

	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("not found: %s (%d)", apiErr.Msg, apiErr.Code)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("unauthorized: %s (%d)", apiErr.Msg, apiErr.Code)
	case http.StatusTooManyRequests:
		return fmt.Errorf("rate limited: %s (%d)", apiErr.Msg, apiErr.Code)
	case http.StatusBadRequest:
		return fmt.Errorf("bad request: %s (%d)", apiErr.Msg, apiErr.Code)
	default:
		return fmt.Errorf("HTTP %d: %s (%d)", statusCode, apiErr.Msg, apiErr.Code)
	}
}
