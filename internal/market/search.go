package market

import (
	"strings"

	"github.com/gutmanan/polymarket-mcp/internal/domain"
)

// Search returns the records whose question contains the query as a
// case-insensitive substring, preserving input order. Records without a
// question never match. A positive limit truncates the result, keeping the
// earliest matches.
func Search(records []domain.MarketRecord, query string, limit int) []domain.MarketRecord {
	needle := strings.ToLower(query)
	out := make([]domain.MarketRecord, 0)
	for _, m := range records {
		if m.Question == "" {
			continue
		}
		if !strings.Contains(strings.ToLower(m.Question), needle) {
			continue
		}
		out = append(out, m)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
