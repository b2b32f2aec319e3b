package market_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gutmanan/polymarket-mcp/internal/domain"
	"github.com/gutmanan/polymarket-mcp/internal/market"
)

func liveRecord() domain.MarketRecord {
	return domain.MarketRecord{
		ConditionID:     "0xaaa",
		Active:          true,
		Closed:          false,
		Archived:        false,
		AcceptingOrders: true,
		EndDateISO:      "2999-01-01T00:00:00Z",
	}
}

func TestIsLive_AllGatesFavorable(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, market.IsLive(liveRecord(), now))
}

func TestIsLive_EachGateFlipped(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	m := liveRecord()
	m.Active = false
	assert.False(t, market.IsLive(m, now), "inactive market")

	m = liveRecord()
	m.Closed = true
	assert.False(t, market.IsLive(m, now), "closed market")

	m = liveRecord()
	m.Archived = true
	assert.False(t, market.IsLive(m, now), "archived market")

	m = liveRecord()
	m.AcceptingOrders = false
	assert.False(t, market.IsLive(m, now), "not accepting orders")
}

func TestIsLive_EmptyEndDateNeverExpires(t *testing.T) {
	m := liveRecord()
	m.EndDateISO = ""

	farFuture := time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, market.IsLive(m, farFuture))
}

func TestIsLive_PastEndDate(t *testing.T) {
	m := liveRecord()
	m.EndDateISO = "2020-11-04T00:00:00Z"

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.False(t, market.IsLive(m, now))
}

func TestIsLive_EndDateBoundaryIsStrict(t *testing.T) {
	m := liveRecord()
	m.EndDateISO = "2025-06-01T00:00:00Z"

	exactlyAt := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.False(t, market.IsLive(m, exactlyAt), "end date equal to now is not strictly future")

	justBefore := exactlyAt.Add(-time.Second)
	assert.True(t, market.IsLive(m, justBefore))
}

func TestIsLive_OffsetEndDate(t *testing.T) {
	m := liveRecord()
	m.EndDateISO = "2030-01-01T02:00:00+02:00"

	now := time.Date(2029, 12, 31, 23, 0, 0, 0, time.UTC)
	assert.True(t, market.IsLive(m, now))

	now = time.Date(2030, 1, 1, 1, 0, 0, 0, time.UTC)
	assert.False(t, market.IsLive(m, now), "offset date is 2030-01-01T00:00:00Z")
}

func TestIsLive_UnparseableEndDate(t *testing.T) {
	m := liveRecord()
	m.EndDateISO = "soon"
	assert.False(t, market.IsLive(m, time.Now()))
}

func TestFilterForTrading_PreservesOrder(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	a := liveRecord()
	a.ConditionID = "0xa"
	dead := liveRecord()
	dead.ConditionID = "0xdead"
	dead.Closed = true
	b := liveRecord()
	b.ConditionID = "0xb"

	out := market.FilterForTrading([]domain.MarketRecord{a, dead, b}, now)

	assert.Len(t, out, 2)
	assert.Equal(t, "0xa", out[0].ConditionID)
	assert.Equal(t, "0xb", out[1].ConditionID)
}
