// Package chain talks to Polygon for the few on-chain operations the
// server needs: USDC.e balance reads and CTF position redemptions.
package chain

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

const (
	// USDC.e collateral on Polygon (6 decimals).
	usdcAddress = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"

	// CTF contract, holds conditional tokens (ERC1155) and pays out
	// redemptions in collateral.
	ctfAddress = "0x4D97DCd97eC945f40cF65F87097ACe5EA0476045"

	// redeemGasLimit is a conservative upper bound used when estimation fails.
	redeemGasLimit = uint64(300_000)

	usdcDecimals = 1e6
)

// Contract ABIs
var (
	erc20ABI abi.ABI
	ctfABI   abi.ABI
)

func init() {
	var err error

	erc20ABI, err = abi.JSON(strings.NewReader(`[
		{
			"name": "balanceOf",
			"type": "function",
			"inputs": [{"name": "account", "type": "address"}],
			"outputs": [{"name": "", "type": "uint256"}]
		}
	]`))
	if err != nil {
		panic("erc20 abi parse: " + err.Error())
	}

	ctfABI, err = abi.JSON(strings.NewReader(`[
		{
			"name": "redeemPositions",
			"type": "function",
			"inputs": [
				{"name": "collateralToken", "type": "address"},
				{"name": "parentCollectionId", "type": "bytes32"},
				{"name": "conditionId", "type": "bytes32"},
				{"name": "indexSets", "type": "uint256[]"}
			],
			"outputs": []
		}
	]`))
	if err != nil {
		panic("ctf abi parse: " + err.Error())
	}
}

// Client wraps a Polygon JSON-RPC connection. The signing key submits
// redeem transactions and is the default balance address.
type Client struct {
	eth        *ethclient.Client
	privateKey *ecdsa.PrivateKey
	address    common.Address
	chainID    *big.Int
}

// NewClient dials the given Polygon RPC endpoint.
func NewClient(rpcURL string, privateKey *ecdsa.PrivateKey, chainID int) (*Client, error) {
	eth, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial rpc %s: %w", rpcURL, err)
	}

	return &Client{
		eth:        eth,
		privateKey: privateKey,
		address:    ethcrypto.PubkeyToAddress(privateKey.PublicKey),
		chainID:    big.NewInt(int64(chainID)),
	}, nil
}

// Address returns the wallet address derived from the signing key.
func (c *Client) Address() common.Address {
	return c.address
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// USDCBalance returns the USDC.e balance of an address in whole USDC units.
func (c *Client) USDCBalance(ctx context.Context, address string) (float64, error) {
	if !common.IsHexAddress(address) {
		return 0, fmt.Errorf("chain: invalid address %q", address)
	}

	callData, err := erc20ABI.Pack("balanceOf", common.HexToAddress(address))
	if err != nil {
		return 0, fmt.Errorf("chain: pack balanceOf: %w", err)
	}

	token := common.HexToAddress(usdcAddress)
	result, err := c.eth.CallContract(ctx, ethereum.CallMsg{
		To:   &token,
		Data: callData,
	}, nil)
	if err != nil {
		return 0, fmt.Errorf("chain: balanceOf call: %w", err)
	}

	vals, err := erc20ABI.Unpack("balanceOf", result)
	if err != nil {
		return 0, fmt.Errorf("chain: unpack balanceOf: %w", err)
	}
	raw, ok := vals[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("chain: unexpected balanceOf result type %T", vals[0])
	}

	balance, _ := new(big.Float).Quo(
		new(big.Float).SetInt(raw),
		new(big.Float).SetFloat64(usdcDecimals),
	).Float64()

	return balance, nil
}

// RedeemPositions builds, signs, and submits a CTF redeemPositions
// transaction for the wallet's winnings on a resolved condition. It returns
// the transaction hash without waiting for confirmation; callers watch the
// chain if they need the receipt.
func (c *Client) RedeemPositions(ctx context.Context, conditionID string, indexSets []int) (string, error) {
	condBytes, err := hexToBytes32(conditionID)
	if err != nil {
		return "", fmt.Errorf("chain: invalid condition id: %w", err)
	}
	if len(indexSets) == 0 {
		return "", fmt.Errorf("chain: empty index sets")
	}

	sets := make([]*big.Int, 0, len(indexSets))
	for _, s := range indexSets {
		if s <= 0 {
			return "", fmt.Errorf("chain: invalid index set %d", s)
		}
		sets = append(sets, big.NewInt(int64(s)))
	}

	callData, err := ctfABI.Pack("redeemPositions",
		common.HexToAddress(usdcAddress),
		[32]byte{},
		condBytes,
		sets,
	)
	if err != nil {
		return "", fmt.Errorf("chain: pack redeemPositions: %w", err)
	}

	nonce, err := c.eth.PendingNonceAt(ctx, c.address)
	if err != nil {
		return "", fmt.Errorf("chain: nonce: %w", err)
	}

	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("chain: gas price: %w", err)
	}
	// Add 10% buffer for faster inclusion.
	buffered := new(big.Int).Mul(gasPrice, big.NewInt(11))
	buffered.Div(buffered, big.NewInt(10))
	gasPrice = buffered

	ctfAddr := common.HexToAddress(ctfAddress)
	gasLimit, err := c.eth.EstimateGas(ctx, ethereum.CallMsg{
		From:     c.address,
		To:       &ctfAddr,
		GasPrice: gasPrice,
		Data:     callData,
	})
	if err != nil {
		gasLimit = redeemGasLimit
		slog.Warn("chain: gas estimate failed, using default", "err", err, "limit", redeemGasLimit)
	} else {
		// Add 20% buffer
		gasLimit = gasLimit * 12 / 10
	}

	tx := types.NewTransaction(nonce, ctfAddr, big.NewInt(0), gasLimit, gasPrice, callData)

	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(c.chainID), c.privateKey)
	if err != nil {
		return "", fmt.Errorf("chain: sign tx: %w", err)
	}

	if err := c.eth.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("chain: send tx: %w", err)
	}

	txHash := signedTx.Hash().Hex()
	slog.Info("chain: redeem transaction sent", "condition", conditionID, "tx", txHash)

	return txHash, nil
}

// hexToBytes32 converts a 0x-prefixed hex string to [32]byte.
func hexToBytes32(s string) ([32]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s) != 64 {
		return [32]byte{}, fmt.Errorf("expected 64 hex chars, got %d", len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return [32]byte{}, err
	}
	var arr [32]byte
	copy(arr[:], b)
	return arr, nil
}
