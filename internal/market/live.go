package market

import (
	"time"

	"github.com/gutmanan/polymarket-mcp/internal/domain"
)

// endDateLayouts are tried in order when the end date is not RFC 3339. The
// venue usually sends "2020-11-04T00:00:00Z" but date-only and offset-less
// variants show up in older markets.
var endDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseEndDate interprets a market's end-date string. ok is false when the
// string is non-empty but unparseable. An empty string parses to a far-future
// instant: no stated end means the market never expires.
func parseEndDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Unix(1<<62, 0).UTC(), true
	}
	for _, layout := range endDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// IsLive reports whether a market is eligible for trading at the given
// instant: all four gating flags favorable and the end date strictly in the
// future. A non-empty end date that cannot be parsed makes the market not
// live.
func IsLive(m domain.MarketRecord, now time.Time) bool {
	if !m.Active || m.Closed || m.Archived || !m.AcceptingOrders {
		return false
	}
	end, ok := parseEndDate(m.EndDateISO)
	if !ok {
		return false
	}
	return end.After(now)
}

// FilterForTrading applies IsLive to each record against the given instant,
// preserving input order.
func FilterForTrading(records []domain.MarketRecord, now time.Time) []domain.MarketRecord {
	out := make([]domain.MarketRecord, 0, len(records))
	for _, m := range records {
		if IsLive(m, now) {
			out = append(out, m)
		}
	}
	return out
}
