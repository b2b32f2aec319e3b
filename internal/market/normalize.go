// Package market implements the normalization core: parsing heterogeneous
// upstream market payloads into domain.MarketRecord, the liveness predicate,
// and free-text search over normalized records.
package market

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gutmanan/polymarket-mcp/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false"/"1") so
// payloads work whether the gating flags are sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// rewardRates accepts null, a single rate object, or a list of rate objects
// and always lands on a slice.
type rewardRates []apiRewardRate

func (r *rewardRates) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = nil
		return nil
	}
	var many []apiRewardRate
	if err := json.Unmarshal(data, &many); err == nil {
		*r = many
		return nil
	}
	var one apiRewardRate
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*r = rewardRates{one}
	return nil
}

type apiRewardRate struct {
	AssetAddress     string  `json:"asset_address"`
	RewardsDailyRate float64 `json:"rewards_daily_rate"`
}

type apiRewards struct {
	Rates     rewardRates `json:"rates"`
	MinSize   float64     `json:"min_size"`
	MaxSpread float64     `json:"max_spread"`
}

type apiToken struct {
	TokenID *string  `json:"token_id"`
	Outcome *string  `json:"outcome"`
	Price   *float64 `json:"price"`
	Winner  *bool    `json:"winner"`
}

// apiMarket mirrors one row of the venue's market listing. Required fields
// are pointers so an absent key can be told apart from a zero value; unknown
// keys are ignored for forward compatibility.
type apiMarket struct {
	ConditionID     *string   `json:"condition_id"`
	Active          *flexBool `json:"active"`
	Closed          *flexBool `json:"closed"`
	Archived        *flexBool `json:"archived"`
	AcceptingOrders *flexBool `json:"accepting_orders"`
	Tokens          *[]apiToken `json:"tokens"`

	EnableOrderBook         flexBool    `json:"enable_order_book"`
	AcceptingOrderTimestamp string      `json:"accepting_order_timestamp"`
	QuestionID              string      `json:"question_id"`
	Question                string      `json:"question"`
	Description             string      `json:"description"`
	MarketSlug              string      `json:"market_slug"`
	EndDateISO              string      `json:"end_date_iso"`
	GameStartTime           string      `json:"game_start_time"`
	SecondsDelay            int         `json:"seconds_delay"`
	FPMM                    string      `json:"fpmm"`
	MakerBaseFee            float64     `json:"maker_base_fee"`
	TakerBaseFee            float64     `json:"taker_base_fee"`
	NotificationsEnabled    flexBool    `json:"notifications_enabled"`
	NegRisk                 flexBool    `json:"neg_risk"`
	NegRiskMarketID         string      `json:"neg_risk_market_id"`
	NegRiskRequestID        string      `json:"neg_risk_request_id"`
	Icon                    string      `json:"icon"`
	Image                   string      `json:"image"`
	Is5050Outcome           flexBool    `json:"is_50_50_outcome"`
	Tags                    []string    `json:"tags"`
	MinimumOrderSize        float64     `json:"minimum_order_size"`
	MinimumTickSize         float64     `json:"minimum_tick_size"`
	Liquidity               *float64    `json:"liquidity"`
	Rewards                 *apiRewards `json:"rewards"`
}

func (a *apiMarket) validate() error {
	switch {
	case a.ConditionID == nil:
		return fmt.Errorf("market: missing condition_id")
	case a.Active == nil:
		return fmt.Errorf("market: missing active")
	case a.Closed == nil:
		return fmt.Errorf("market: missing closed")
	case a.Archived == nil:
		return fmt.Errorf("market: missing archived")
	case a.AcceptingOrders == nil:
		return fmt.Errorf("market: missing accepting_orders")
	case a.Tokens == nil:
		return fmt.Errorf("market: missing tokens")
	}
	for i, t := range *a.Tokens {
		if t.TokenID == nil {
			return fmt.Errorf("market: token %d missing token_id", i)
		}
		if t.Outcome == nil {
			return fmt.Errorf("market: token %d missing outcome", i)
		}
	}
	return nil
}

func (a *apiMarket) toRecord() domain.MarketRecord {
	rec := domain.MarketRecord{
		ConditionID:     *a.ConditionID,
		Active:          bool(*a.Active),
		Closed:          bool(*a.Closed),
		Archived:        bool(*a.Archived),
		AcceptingOrders: bool(*a.AcceptingOrders),

		EnableOrderBook:         bool(a.EnableOrderBook),
		AcceptingOrderTimestamp: a.AcceptingOrderTimestamp,
		QuestionID:              a.QuestionID,
		Question:                a.Question,
		Description:             a.Description,
		MarketSlug:              a.MarketSlug,
		EndDateISO:              a.EndDateISO,
		GameStartTime:           a.GameStartTime,
		SecondsDelay:            a.SecondsDelay,
		FPMM:                    a.FPMM,
		MakerBaseFee:            a.MakerBaseFee,
		TakerBaseFee:            a.TakerBaseFee,
		NotificationsEnabled:    bool(a.NotificationsEnabled),
		NegRisk:                 bool(a.NegRisk),
		NegRiskMarketID:         a.NegRiskMarketID,
		NegRiskRequestID:        a.NegRiskRequestID,
		Icon:                    a.Icon,
		Image:                   a.Image,
		Is5050Outcome:           bool(a.Is5050Outcome),
		Tags:                    a.Tags,
		MinimumOrderSize:        a.MinimumOrderSize,
		MinimumTickSize:         a.MinimumTickSize,
		Liquidity:               domain.DefaultLiquidity,
	}

	if a.Liquidity != nil {
		rec.Liquidity = *a.Liquidity
	}
	if a.Rewards != nil {
		rec.Rewards = domain.Rewards{
			MinSize:   a.Rewards.MinSize,
			MaxSpread: a.Rewards.MaxSpread,
		}
		for _, r := range a.Rewards.Rates {
			rec.Rewards.Rates = append(rec.Rewards.Rates, domain.RewardRate(r))
		}
	}

	rec.Tokens = make([]domain.TokenQuote, 0, len(*a.Tokens))
	for _, t := range *a.Tokens {
		rec.Tokens = append(rec.Tokens, domain.TokenQuote{
			TokenID: *t.TokenID,
			Outcome: *t.Outcome,
			Price:   t.Price,
			Winner:  t.Winner,
		})
	}
	return rec
}

// Normalize parses one upstream market payload into a MarketRecord. It fails
// when a required field (condition_id, the four gating booleans, tokens) is
// absent or wrongly typed; every other field is optional with its documented
// default. Unknown keys are ignored.
func Normalize(raw json.RawMessage) (domain.MarketRecord, error) {
	var a apiMarket
	if err := json.Unmarshal(raw, &a); err != nil {
		return domain.MarketRecord{}, fmt.Errorf("market: decode payload: %w", err)
	}
	if err := a.validate(); err != nil {
		return domain.MarketRecord{}, err
	}
	return a.toRecord(), nil
}

// NormalizeAll parses a batch of payloads, dropping rows that fail
// validation. It returns the surviving records in input order together with
// the number of rows dropped; a malformed row never aborts the batch.
func NormalizeAll(raw []json.RawMessage) ([]domain.MarketRecord, int) {
	records := make([]domain.MarketRecord, 0, len(raw))
	skipped := 0
	for _, r := range raw {
		rec, err := Normalize(r)
		if err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped
}
