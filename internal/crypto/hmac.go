package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"
)

// APICreds holds the L2 credential triple issued by the CLOB. The secret is
// URL-safe base64.
type APICreds struct {
	Key        string
	Secret     string
	Passphrase string
}

// L2Headers returns the HTTP headers for an L2-authenticated CLOB request.
// The signature is HMAC-SHA256(secret, timestamp+method+path+body) where the
// secret is first base64-decoded, and is itself URL-safe base64 encoded.
//
// Returned header keys:
//   - POLY_ADDRESS
//   - POLY_API_KEY
//   - POLY_TIMESTAMP
//   - POLY_PASSPHRASE
//   - POLY_SIGNATURE
func (c *APICreds) L2Headers(address, method, path, body string) map[string]string {
	return c.L2HeadersAt(address, method, path, body, time.Now().Unix())
}

// L2HeadersAt is like L2Headers but lets the caller supply the Unix
// timestamp (useful for deterministic testing).
func (c *APICreds) L2HeadersAt(address, method, path, body string, unixTS int64) map[string]string {
	ts := strconv.FormatInt(unixTS, 10)

	secretBytes, err := base64.URLEncoding.DecodeString(c.Secret)
	if err != nil {
		// Secrets are URL-safe base64; on decode failure sign with the raw
		// bytes and let the upstream reject the request.
		secretBytes = []byte(c.Secret)
	}

	message := ts + method + path + body
	sig := hmacSHA256URLBase64(secretBytes, message)

	return map[string]string{
		"POLY_ADDRESS":    address,
		"POLY_API_KEY":    c.Key,
		"POLY_TIMESTAMP":  ts,
		"POLY_PASSPHRASE": c.Passphrase,
		"POLY_SIGNATURE":  sig,
	}
}

// String returns a redacted representation suitable for logging.
func (c *APICreds) String() string {
	redact := func(s string) string {
		if len(s) <= 4 {
			return "****"
		}
		return s[:4] + "****"
	}
	return fmt.Sprintf("APICreds{key=%s, secret=%s}", redact(c.Key), redact(c.Secret))
}

// hmacSHA256URLBase64 computes HMAC-SHA256 of message using key and returns
// the result as a URL-safe base64 string.
func hmacSHA256URLBase64(key []byte, message string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(message))
	return base64.URLEncoding.EncodeToString(mac.Sum(nil))
}
