// Package service holds the facades between the tool surface and the
// upstream clients. Each facade owns one concern and depends on narrow
// client interfaces so tests can swap in fakes.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gutmanan/polymarket-mcp/internal/domain"
	"github.com/gutmanan/polymarket-mcp/internal/market"
	"github.com/gutmanan/polymarket-mcp/internal/platform/polymarket"
)

// currentMarketsPageSize is the Gamma page size used when walking the full
// current-markets listing.
const currentMarketsPageSize = 100

// samplingEndCursor is the CLOB cursor value marking the final page.
const samplingEndCursor = "LTE="

// ClobMarkets lists tradeable markets from the CLOB API.
type ClobMarkets interface {
	ListSamplingMarkets(ctx context.Context, cursor string) (polymarket.SamplingMarketsPage, error)
}

// GammaMarkets queries market and event metadata from the Gamma API.
type GammaMarkets interface {
	ListMarkets(ctx context.Context, query polymarket.MarketsQuery) ([]json.RawMessage, error)
	ListEvents(ctx context.Context, limit, offset int) ([]json.RawMessage, error)
	GetEvent(ctx context.Context, id string) (json.RawMessage, error)
}

// MarketService handles market discovery and metadata lookups.
type MarketService struct {
	clob   ClobMarkets
	gamma  GammaMarkets
	logger *slog.Logger
}

// NewMarketService creates a MarketService with all required dependencies.
func NewMarketService(clob ClobMarkets, gamma GammaMarkets, logger *slog.Logger) *MarketService {
	return &MarketService{
		clob:   clob,
		gamma:  gamma,
		logger: logger,
	}
}

// ListAllMarkets walks the full CLOB sampling-markets listing and returns
// the normalized records plus the number of rows dropped by validation. A
// malformed row never aborts the batch.
func (s *MarketService) ListAllMarkets(ctx context.Context) ([]domain.MarketRecord, int, error) {
	var (
		records []domain.MarketRecord
		skipped int
		cursor  string
	)

	for {
		page, err := s.clob.ListSamplingMarkets(ctx, cursor)
		if err != nil {
			return nil, 0, fmt.Errorf("market_service: list all markets: %w", err)
		}

		batch, dropped := market.NormalizeAll(page.Data)
		records = append(records, batch...)
		skipped += dropped

		if page.NextCursor == "" || page.NextCursor == samplingEndCursor {
			break
		}
		cursor = page.NextCursor
	}

	if skipped > 0 {
		s.logger.WarnContext(ctx, "market_service: dropped malformed market rows",
			slog.Int("skipped", skipped),
			slog.Int("kept", len(records)),
		)
	}

	return records, skipped, nil
}

// ListTradeableMarkets returns the live subset of the full listing: active,
// not closed, not archived, accepting orders, and not past their end date.
func (s *MarketService) ListTradeableMarkets(ctx context.Context) ([]domain.MarketRecord, int, error) {
	records, skipped, err := s.ListAllMarkets(ctx)
	if err != nil {
		return nil, 0, err
	}
	return market.FilterForTrading(records, time.Now().UTC()), skipped, nil
}

// SearchMarkets returns markets whose question contains the query,
// case-insensitively. limit <= 0 means no truncation.
func (s *MarketService) SearchMarkets(ctx context.Context, query string, limit int) ([]domain.MarketRecord, int, error) {
	records, skipped, err := s.ListAllMarkets(ctx)
	if err != nil {
		return nil, 0, err
	}
	return market.Search(records, query, limit), skipped, nil
}

// GetMarketBySlug looks a market up by its URL slug. The Gamma rows pass
// through raw; a miss is an empty slice, not an error.
func (s *MarketService) GetMarketBySlug(ctx context.Context, slug string) ([]json.RawMessage, error) {
	rows, err := s.gamma.ListMarkets(ctx, polymarket.MarketsQuery{Slug: slug})
	if err != nil {
		return nil, fmt.Errorf("market_service: get market by slug %q: %w", slug, err)
	}
	return rows, nil
}

// ListCurrentMarkets returns open Gamma markets (active, not closed, not
// archived). With limit > 0 it fetches a single page of that size;
// otherwise it pages through the whole listing.
func (s *MarketService) ListCurrentMarkets(ctx context.Context, limit int) ([]json.RawMessage, error) {
	active, closed, archived := true, false, false
	base := polymarket.MarketsQuery{
		Active:   &active,
		Closed:   &closed,
		Archived: &archived,
	}

	if limit > 0 {
		base.Limit = limit
		rows, err := s.gamma.ListMarkets(ctx, base)
		if err != nil {
			return nil, fmt.Errorf("market_service: list current markets: %w", err)
		}
		return rows, nil
	}

	var all []json.RawMessage
	base.Limit = currentMarketsPageSize
	for offset := 0; ; offset += currentMarketsPageSize {
		base.Offset = offset
		rows, err := s.gamma.ListMarkets(ctx, base)
		if err != nil {
			return nil, fmt.Errorf("market_service: list current markets: %w", err)
		}
		all = append(all, rows...)

		// A short page means the listing is exhausted.
		if len(rows) < currentMarketsPageSize {
			break
		}
	}

	return all, nil
}

// ListEvents returns a page of Gamma events as raw rows.
func (s *MarketService) ListEvents(ctx context.Context, limit, offset int) ([]json.RawMessage, error) {
	events, err := s.gamma.ListEvents(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("market_service: list events: %w", err)
	}
	return events, nil
}

// GetEvent returns a single Gamma event by ID.
func (s *MarketService) GetEvent(ctx context.Context, id string) (json.RawMessage, error) {
	event, err := s.gamma.GetEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("market_service: get event %q: %w", id, err)
	}
	return event, nil
}
