// Package polymarket contains the REST and WebSocket clients for the three
// upstream Polymarket services: the CLOB API, the Gamma metadata API, and
// the Data API.
package polymarket

import (
	"encoding/hex"
	"encoding/json"

	gomodel "github.com/polymarket/go-order-utils/pkg/model"

	"github.com/gutmanan/polymarket-mcp/internal/domain"
)

// --------------------------------------------------------------------------
// CLOB API DTOs
// --------------------------------------------------------------------------

// APIBookLevel is a single price level in a CLOB book response. Price and
// size stay as the upstream strings.
type APIBookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// APIBook is the CLOB GET /book response.
type APIBook struct {
	Market    string         `json:"market"`
	AssetID   string         `json:"asset_id"`
	Timestamp string         `json:"timestamp"`
	Hash      string         `json:"hash"`
	Bids      []APIBookLevel `json:"bids"`
	Asks      []APIBookLevel `json:"asks"`
}

// ToSnapshot converts the response into a domain snapshot. tokenID is the ID
// the caller asked for; the book echoes it as asset_id.
func (b *APIBook) ToSnapshot(tokenID string) domain.OrderBookSnapshot {
	snap := domain.OrderBookSnapshot{TokenID: tokenID}
	for _, lvl := range b.Bids {
		snap.Bids = append(snap.Bids, domain.BookLevel{Price: lvl.Price, Size: lvl.Size})
	}
	for _, lvl := range b.Asks {
		snap.Asks = append(snap.Asks, domain.BookLevel{Price: lvl.Price, Size: lvl.Size})
	}
	return snap
}

// SamplingMarketsPage is one page of the CLOB sampling-markets listing.
// Rows stay raw so the normalization layer owns all schema decisions.
type SamplingMarketsPage struct {
	Limit      int               `json:"limit"`
	Count      int               `json:"count"`
	NextCursor string            `json:"next_cursor"`
	Data       []json.RawMessage `json:"data"`
}

// OrderRequest is the JSON body sent to POST /order.
type OrderRequest struct {
	Order     OrderPayload `json:"order"`
	Owner     string       `json:"owner"`
	OrderType string       `json:"orderType"`
}

// OrderPayload is a flattened signed order in the CLOB wire format. Salt is
// a json.Number so it serializes as a bare integer.
type OrderPayload struct {
	Salt          json.Number `json:"salt"`
	Maker         string      `json:"maker"`
	Signer        string      `json:"signer"`
	Taker         string      `json:"taker"`
	TokenID       string      `json:"tokenId"`
	MakerAmount   string      `json:"makerAmount"`
	TakerAmount   string      `json:"takerAmount"`
	Expiration    string      `json:"expiration"`
	Nonce         string      `json:"nonce"`
	FeeRateBps    string      `json:"feeRateBps"`
	Side          string      `json:"side"`
	SignatureType int         `json:"signatureType"`
	Signature     string      `json:"signature"`
}

// NewOrderPayload flattens a signed order into the wire format. tokenID is
// the caller's original decimal string, avoiding a big.Int round trip, and
// side is the BUY/SELL label the API expects.
func NewOrderPayload(signed *gomodel.SignedOrder, tokenID string, side domain.OrderSide) OrderPayload {
	return OrderPayload{
		Salt:          json.Number(signed.Order.Salt.String()),
		Maker:         signed.Order.Maker.Hex(),
		Signer:        signed.Order.Signer.Hex(),
		Taker:         signed.Order.Taker.Hex(),
		TokenID:       tokenID,
		MakerAmount:   signed.Order.MakerAmount.String(),
		TakerAmount:   signed.Order.TakerAmount.String(),
		Expiration:    signed.Order.Expiration.String(),
		Nonce:         signed.Order.Nonce.String(),
		FeeRateBps:    signed.Order.FeeRateBps.String(),
		Side:          string(side),
		SignatureType: int(signed.Order.SignatureType.Int64()),
		Signature:     "0x" + hex.EncodeToString(signed.Signature),
	}
}

// --------------------------------------------------------------------------
// WebSocket DTOs
// --------------------------------------------------------------------------

// wsSubscribe is the first frame sent on the market channel. The type field
// carries the channel name.
type wsSubscribe struct {
	Assets []string `json:"assets_ids"`
	Type   string   `json:"type"`
}

// wsBookEvent is a "book" event delivered on the market channel. The feed
// pushes one immediately after a subscribe, then again on every book change.
type wsBookEvent struct {
	APIBook
	EventType string `json:"event_type"`
}
