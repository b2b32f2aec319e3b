package crypto

import (
	"encoding/hex"
	"strings"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSigner(t *testing.T) *Signer {
	t.Helper()
	pk, err := ethcrypto.HexToECDSA("ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	require.NoError(t, err)
	return NewSigner(pk, 137)
}

func TestSignerAddress(t *testing.T) {
	s := testSigner(t)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", s.Address().Hex())
}

func TestSignAuthMessageRecovers(t *testing.T) {
	s := testSigner(t)

	sigHex, err := s.SignAuthMessage(1700000000, 0)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(sigHex, "0x"))

	sig, err := hex.DecodeString(strings.TrimPrefix(sigHex, "0x"))
	require.NoError(t, err)
	require.Len(t, sig, 65)
	require.Contains(t, []byte{27, 28}, sig[64])

	// Recover the public key from the digest and check it matches the
	// signer's own address.
	sig[64] -= 27
	pub, err := ethcrypto.SigToPub(s.authDigest(1700000000, 0), sig)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), ethcrypto.PubkeyToAddress(*pub))
}

func TestSignAuthMessageDeterministic(t *testing.T) {
	s := testSigner(t)

	a, err := s.SignAuthMessage(1700000000, 0)
	require.NoError(t, err)
	b, err := s.SignAuthMessage(1700000000, 0)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSignAuthMessageVaries(t *testing.T) {
	s := testSigner(t)

	base, err := s.SignAuthMessage(1700000000, 0)
	require.NoError(t, err)
	diffTS, err := s.SignAuthMessage(1700000001, 0)
	require.NoError(t, err)
	diffNonce, err := s.SignAuthMessage(1700000000, 1)
	require.NoError(t, err)

	assert.NotEqual(t, base, diffTS)
	assert.NotEqual(t, base, diffNonce)
}

func TestAuthDigestBindsChainID(t *testing.T) {
	pk, err := ethcrypto.HexToECDSA("ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	require.NoError(t, err)

	mainnet := NewSigner(pk, 137)
	amoy := NewSigner(pk, 80002)
	assert.NotEqual(t, mainnet.authDigest(1700000000, 0), amoy.authDigest(1700000000, 0))
}
