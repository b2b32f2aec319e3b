package domain

import "encoding/json"

// TokenQuote is one outcome leg of a market. Price is nil when the venue
// reports null for an untraded outcome; Winner is nil while resolution is
// pending.
type TokenQuote struct {
	TokenID string   `json:"token_id"`
	Outcome string   `json:"outcome"`
	Price   *float64 `json:"price"`
	Winner  *bool    `json:"winner"`
}

// RewardRate is the daily incentive rate for one reward asset.
type RewardRate struct {
	AssetAddress     string  `json:"asset_address"`
	RewardsDailyRate float64 `json:"rewards_daily_rate"`
}

// Rewards holds the liquidity-incentive terms of a market. Rates may be
// empty; upstream reports it as null, a single object, or a list.
type Rewards struct {
	Rates     []RewardRate `json:"rates"`
	MinSize   float64      `json:"min_size"`
	MaxSpread float64      `json:"max_spread"`
}

// DefaultLiquidity is assumed when the venue omits the liquidity field.
const DefaultLiquidity = 10000.0

// MarketRecord is the normalized view of one tradeable market. ConditionID,
// the four gating booleans, and Tokens are required by the normalizer;
// everything else is optional with the zero value (or DefaultLiquidity)
// standing in for absent upstream data.
type MarketRecord struct {
	ConditionID     string `json:"condition_id"`
	Active          bool   `json:"active"`
	Closed          bool   `json:"closed"`
	Archived        bool   `json:"archived"`
	AcceptingOrders bool   `json:"accepting_orders"`

	EnableOrderBook         bool     `json:"enable_order_book"`
	AcceptingOrderTimestamp string   `json:"accepting_order_timestamp,omitempty"`
	QuestionID              string   `json:"question_id,omitempty"`
	Question                string   `json:"question,omitempty"`
	Description             string   `json:"description,omitempty"`
	MarketSlug              string   `json:"market_slug,omitempty"`
	EndDateISO              string   `json:"end_date_iso,omitempty"`
	GameStartTime           string   `json:"game_start_time,omitempty"`
	SecondsDelay            int      `json:"seconds_delay,omitempty"`
	FPMM                    string   `json:"fpmm,omitempty"`
	MakerBaseFee            float64  `json:"maker_base_fee,omitempty"`
	TakerBaseFee            float64  `json:"taker_base_fee,omitempty"`
	NotificationsEnabled    bool     `json:"notifications_enabled,omitempty"`
	NegRisk                 bool     `json:"neg_risk,omitempty"`
	NegRiskMarketID         string   `json:"neg_risk_market_id,omitempty"`
	NegRiskRequestID        string   `json:"neg_risk_request_id,omitempty"`
	Icon                    string   `json:"icon,omitempty"`
	Image                   string   `json:"image,omitempty"`
	Is5050Outcome           bool     `json:"is_50_50_outcome,omitempty"`
	Tags                    []string `json:"tags,omitempty"`
	MinimumOrderSize        float64  `json:"minimum_order_size,omitempty"`
	MinimumTickSize         float64  `json:"minimum_tick_size,omitempty"`
	Liquidity               float64  `json:"liquidity"`

	Rewards Rewards      `json:"rewards"`
	Tokens  []TokenQuote `json:"tokens"`
}

// Outcomes returns each token's outcome label, in token order.
func (m MarketRecord) Outcomes() []string {
	out := make([]string, len(m.Tokens))
	for i, t := range m.Tokens {
		out[i] = t.Outcome
	}
	return out
}

// OutcomePrices returns each token's price, in token order, with nil prices
// coerced to 0.0.
func (m MarketRecord) OutcomePrices() []float64 {
	out := make([]float64, len(m.Tokens))
	for i, t := range m.Tokens {
		if t.Price != nil {
			out[i] = *t.Price
		}
	}
	return out
}

// ClobTokenIDs returns each token's CLOB token ID, in token order.
func (m MarketRecord) ClobTokenIDs() []string {
	out := make([]string, len(m.Tokens))
	for i, t := range m.Tokens {
		out[i] = t.TokenID
	}
	return out
}

// MarshalJSON serializes the record together with its derived views so the
// wire shape matches what callers of the tool surface expect. The derived
// fields are recomputed from Tokens on every call, never stored.
func (m MarketRecord) MarshalJSON() ([]byte, error) {
	type plain MarketRecord
	return json.Marshal(struct {
		plain
		ID               string    `json:"id"`
		Outcomes         []string  `json:"outcomes"`
		OutcomePrices    []float64 `json:"outcome_prices"`
		ClobTokenIDs     []string  `json:"clob_token_ids"`
		RewardsMinSize   float64   `json:"rewardsMinSize"`
		RewardsMaxSpread float64   `json:"rewardsMaxSpread"`
	}{
		plain:            plain(m),
		ID:               m.ConditionID,
		Outcomes:         m.Outcomes(),
		OutcomePrices:    m.OutcomePrices(),
		ClobTokenIDs:     m.ClobTokenIDs(),
		RewardsMinSize:   m.Rewards.MinSize,
		RewardsMaxSpread: m.Rewards.MaxSpread,
	})
}
