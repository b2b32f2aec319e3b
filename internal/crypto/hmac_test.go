package crypto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutmanan/polymarket-mcp/internal/crypto"
)

const (
	testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	// URL-safe base64 of "super-secret-hmac-key-0123456789".
	testSecret = "c3VwZXItc2VjcmV0LWhtYWMta2V5LTAxMjM0NTY3ODk="
)

func testCreds() *crypto.APICreds {
	return &crypto.APICreds{
		Key:        "11111111-2222-3333-4444-555555555555",
		Secret:     testSecret,
		Passphrase: "open-sesame",
	}
}

func TestL2HeadersAtKnownVector(t *testing.T) {
	creds := testCreds()

	h := creds.L2HeadersAt(testAddress, "GET", "/orders", "", 1700000000)
	assert.Equal(t, "f7uDQQ1VwXpQhzVyjlx5cGDcTtrrt3sTuVaT_xF9Urw=", h["POLY_SIGNATURE"])

	h = creds.L2HeadersAt(testAddress, "POST", "/order", `{"order":{}}`, 1700000000)
	assert.Equal(t, "-aFJYag_4U6kcghJAuDOt-CpDKzugt-Q9Xswwk0XR_M=", h["POLY_SIGNATURE"])
}

func TestL2HeadersAtHeaderSet(t *testing.T) {
	creds := testCreds()

	h := creds.L2HeadersAt(testAddress, "GET", "/orders", "", 1700000000)

	require.Len(t, h, 5)
	assert.Equal(t, testAddress, h["POLY_ADDRESS"])
	assert.Equal(t, creds.Key, h["POLY_API_KEY"])
	assert.Equal(t, "1700000000", h["POLY_TIMESTAMP"])
	assert.Equal(t, creds.Passphrase, h["POLY_PASSPHRASE"])
	assert.NotEmpty(t, h["POLY_SIGNATURE"])
}

func TestL2SignatureVariesWithInput(t *testing.T) {
	creds := testCreds()

	base := creds.L2HeadersAt(testAddress, "GET", "/orders", "", 1700000000)
	diffPath := creds.L2HeadersAt(testAddress, "GET", "/trades", "", 1700000000)
	diffBody := creds.L2HeadersAt(testAddress, "GET", "/orders", "x", 1700000000)
	diffTime := creds.L2HeadersAt(testAddress, "GET", "/orders", "", 1700000001)

	assert.NotEqual(t, base["POLY_SIGNATURE"], diffPath["POLY_SIGNATURE"])
	assert.NotEqual(t, base["POLY_SIGNATURE"], diffBody["POLY_SIGNATURE"])
	assert.NotEqual(t, base["POLY_SIGNATURE"], diffTime["POLY_SIGNATURE"])
}

func TestAPICredsStringRedacts(t *testing.T) {
	creds := testCreds()
	s := creds.String()
	assert.NotContains(t, s, creds.Secret)
	assert.NotContains(t, s, creds.Passphrase)
	assert.Contains(t, s, "1111****")
}
