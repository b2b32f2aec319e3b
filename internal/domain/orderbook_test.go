package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutmanan/polymarket-mcp/internal/domain"
)

func TestMid_AveragesBestBidAndBestAsk(t *testing.T) {
	snap := domain.OrderBookSnapshot{
		TokenID: "tok1",
		Bids: []domain.BookLevel{
			{Price: "0.45", Size: "100"},
			{Price: "0.40", Size: "250"},
		},
		Asks: []domain.BookLevel{
			{Price: "0.55", Size: "80"},
			{Price: "0.60", Size: "40"},
		},
	}

	q := snap.Mid()
	require.True(t, q.Available())
	assert.Equal(t, domain.MidOK, q.State)
	assert.InDelta(t, 0.5000, q.Value, 1e-9)
}

func TestMid_ScansUnsortedLevels(t *testing.T) {
	// Best bid and best ask deliberately placed away from the ends so an
	// implementation that trusts ordering gets the wrong answer.
	snap := domain.OrderBookSnapshot{
		Bids: []domain.BookLevel{
			{Price: "0.10", Size: "1"},
			{Price: "0.48", Size: "1"},
			{Price: "0.30", Size: "1"},
		},
		Asks: []domain.BookLevel{
			{Price: "0.90", Size: "1"},
			{Price: "0.52", Size: "1"},
			{Price: "0.70", Size: "1"},
		},
	}

	q := snap.Mid()
	require.True(t, q.Available())
	assert.InDelta(t, 0.5000, q.Value, 1e-9)
}

func TestMid_EmptyBidSide(t *testing.T) {
	snap := domain.OrderBookSnapshot{
		Asks: []domain.BookLevel{{Price: "0.55", Size: "80"}},
	}

	q := snap.Mid()
	assert.False(t, q.Available())
	assert.Equal(t, domain.MidEmptySide, q.State)
	assert.Zero(t, q.Value)
}

func TestMid_EmptyAskSide(t *testing.T) {
	snap := domain.OrderBookSnapshot{
		Bids: []domain.BookLevel{{Price: "0.45", Size: "80"}},
	}

	q := snap.Mid()
	assert.False(t, q.Available())
	assert.Equal(t, domain.MidEmptySide, q.State)
}

func TestMid_MalformedPrice(t *testing.T) {
	snap := domain.OrderBookSnapshot{
		Bids: []domain.BookLevel{{Price: "not-a-number", Size: "80"}},
		Asks: []domain.BookLevel{{Price: "0.55", Size: "80"}},
	}

	q := snap.Mid()
	assert.False(t, q.Available())
	assert.Equal(t, domain.MidBadData, q.State)
}

func TestMidState_String(t *testing.T) {
	assert.Equal(t, "ok", domain.MidOK.String())
	assert.Equal(t, "empty-side", domain.MidEmptySide.String())
	assert.Equal(t, "bad-data", domain.MidBadData.String())
	assert.Equal(t, "unknown", domain.MidState(42).String())
}

func TestMid_RoundsToFourDecimals(t *testing.T) {
	snap := domain.OrderBookSnapshot{
		Bids: []domain.BookLevel{{Price: "0.3333", Size: "1"}},
		Asks: []domain.BookLevel{{Price: "0.3334", Size: "1"}},
	}

	q := snap.Mid()
	require.True(t, q.Available())
	assert.InDelta(t, 0.3334, q.Value, 1e-9)
}
