package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// HMACAuth holds the credentials required for signed requests against the
// Binance REST API.
type HMACAuth struct {
	Key    string // API key, sent in the X-MBX-APIKEY header
	Secret string // API secret, used as the HMAC key
}

// APIKeyHeader is the header Binance reads the API key from.
const APIKeyHeader = "X-MBX-APIKEY"

// SignQuery appends a timestamp and recvWindow to the given query values and
// returns the encoded query string with the trailing signature parameter.
// The signature is HMAC-SHA256(secret, queryString) encoded as lowercase hex.
func (h *HMACAuth) SignQuery(params url.Values, recvWindowMs int64) string {
	return h.SignQueryAt(params, recvWindowMs, time.Now().UnixMilli())
}

// SignQueryAt is like SignQuery but lets the caller supply the millisecond
// timestamp (useful for deterministic testing).
func (h *HMACAuth) SignQueryAt(params url.Values, recvWindowMs, unixMs int64) string {
	if params == nil {
		params = url.Values{}
	}
	if recvWindowMs > 0 {
		params.Set("recvWindow", strconv.FormatInt(recvWindowMs, 10))
	}
	params.Set("timestamp", strconv.FormatInt(unixMs, 10))

	encoded := params.Encode()
	sig := hmacSHA256Hex([]byte(h.Secret), encoded)

	return encoded + "&signature=" + sig
}

// Headers returns the HTTP headers for an authenticated request.
func (h *HMACAuth) Headers() map[string]string {
	return map[string]string{
		APIKeyHeader: h.Key,
	}
}

// Validate reports whether both credential fields are populated.
func (h *HMACAuth) Validate() error {
	if h.Key == "" {
		return fmt.Errorf("crypto: API key is empty")
	}
	if h.Secret == "" {
		return fmt.Errorf("crypto: API secret is empty")
	}
	return nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// hmacSHA256Hex computes HMAC-SHA256 of message using key and returns the
// result as a lowercase hex string.
func hmacSHA256Hex(key []byte, message string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}
