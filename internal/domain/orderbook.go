package domain

import (
	"math"
	"strconv"
)

// BookLevel is a single price level as reported by the venue. Price and size
// stay in their upstream string form; numeric interpretation happens at the
// point of use so a malformed level can be told apart from a missing one.
type BookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// OrderBookSnapshot is a point-in-time two-sided book for one token. No
// ordering is guaranteed for either side; consumers must scan, not index.
type OrderBookSnapshot struct {
	TokenID string      `json:"token_id"`
	Bids    []BookLevel `json:"bids"`
	Asks    []BookLevel `json:"asks"`
}

// MidState classifies a mid-price computation outcome.
type MidState int

const (
	// MidOK means both sides had at least one parseable level.
	MidOK MidState = iota
	// MidEmptySide means at least one side of the book was empty.
	MidEmptySide
	// MidBadData means a price level failed numeric parsing.
	MidBadData
)

// String returns the state name used in logs.
func (st MidState) String() string {
	switch st {
	case MidOK:
		return "ok"
	case MidEmptySide:
		return "empty-side"
	case MidBadData:
		return "bad-data"
	default:
		return "unknown"
	}
}

// MidQuote is a tagged mid-price result. Callers that only need the external
// "mid or nothing" view should use Available; the state exists so logs can
// tell an empty book from a malformed one.
type MidQuote struct {
	Value float64
	State MidState
}

// Available reports whether a usable mid price was computed.
func (q MidQuote) Available() bool {
	return q.State == MidOK
}

// Mid computes the mid price from the snapshot: best bid is the maximum bid
// price, best ask the minimum ask price, each found by a full scan. An empty
// side yields MidEmptySide, an unparseable price yields MidBadData, and
// otherwise the average of the two bests rounded to 4 decimal places.
func (s OrderBookSnapshot) Mid() MidQuote {
	if len(s.Bids) == 0 || len(s.Asks) == 0 {
		return MidQuote{State: MidEmptySide}
	}

	bestBid := math.Inf(-1)
	for _, lvl := range s.Bids {
		p, err := strconv.ParseFloat(lvl.Price, 64)
		if err != nil {
			return MidQuote{State: MidBadData}
		}
		if p > bestBid {
			bestBid = p
		}
	}

	bestAsk := math.Inf(1)
	for _, lvl := range s.Asks {
		p, err := strconv.ParseFloat(lvl.Price, 64)
		if err != nil {
			return MidQuote{State: MidBadData}
		}
		if p < bestAsk {
			bestAsk = p
		}
	}

	mid := math.Round((bestBid+bestAsk)/2.0*1e4) / 1e4
	return MidQuote{Value: mid, State: MidOK}
}
