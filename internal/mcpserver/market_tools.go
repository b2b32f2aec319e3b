package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gutmanan/polymarket-mcp/internal/domain"
)

// MarketService defines the methods that the market tools require from the
// service layer. It is declared locally so the tool surface does not depend
// on the concrete service implementation.
type MarketService interface {
	GetMarketBySlug(ctx context.Context, slug string) ([]json.RawMessage, error)
	ListCurrentMarkets(ctx context.Context, limit int) ([]json.RawMessage, error)
	ListTradeableMarkets(ctx context.Context) ([]domain.MarketRecord, int, error)
	SearchMarkets(ctx context.Context, query string, limit int) ([]domain.MarketRecord, int, error)
	ListEvents(ctx context.Context, limit, offset int) ([]json.RawMessage, error)
	GetEvent(ctx context.Context, id string) (json.RawMessage, error)
}

// MarketTools serves market and event metadata tools.
type MarketTools struct {
	markets MarketService
	logger  *slog.Logger
}

// NewMarketTools creates a MarketTools with the given service and logger.
func NewMarketTools(markets MarketService, logger *slog.Logger) *MarketTools {
	return &MarketTools{
		markets: markets,
		logger:  logger,
	}
}

// Register adds the market and event tools to the MCP server.
func (t *MarketTools) Register(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("get_market",
		mcp.WithDescription("Get a specific market on Polymarket using Gamma API."),
		mcp.WithString("slug",
			mcp.Required(),
			mcp.Description("The market slug from the market URL"),
		),
	), t.GetMarket)

	s.AddTool(mcp.NewTool("get_markets",
		mcp.WithDescription("Get a list of all available markets on Polymarket using CLOB API."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of markets to return"),
		),
	), t.GetMarkets)

	s.AddTool(mcp.NewTool("get_tradeable_markets",
		mcp.WithDescription("Get markets currently open for trading on Polymarket using CLOB API."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of markets to return"),
		),
	), t.GetTradeableMarkets)

	s.AddTool(mcp.NewTool("search_markets",
		mcp.WithDescription("Search markets by question text on Polymarket."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Text to match against market questions"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of markets to return"),
		),
	), t.SearchMarkets)

	s.AddTool(mcp.NewTool("get_events",
		mcp.WithDescription("Get a list of events on Polymarket using Gamma API."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of events to return"),
		),
		mcp.WithNumber("offset",
			mcp.Description("Number of events to skip"),
		),
	), t.GetEvents)

	s.AddTool(mcp.NewTool("get_event",
		mcp.WithDescription("Get a specific event on Polymarket using Gamma API."),
		mcp.WithString("event_id",
			mcp.Required(),
			mcp.Description("The Gamma event ID"),
		),
	), t.GetEvent)
}

// rawMarketListResponse wraps a raw-row market listing with its count.
type rawMarketListResponse struct {
	Markets []json.RawMessage `json:"markets"`
	Count   int               `json:"count"`
}

// marketListResponse wraps a normalized market listing. Skipped reports how
// many upstream rows were dropped during normalization; it is omitted when
// every row survived.
type marketListResponse struct {
	Markets []domain.MarketRecord `json:"markets"`
	Count   int                   `json:"count"`
	Skipped int                   `json:"skipped,omitempty"`
}

// eventListResponse wraps an event listing with its count.
type eventListResponse struct {
	Events []json.RawMessage `json:"events"`
	Count  int               `json:"count"`
}

// GetMarket looks a market up by its URL slug. A slug that matches nothing
// yields an empty listing, not an error.
func (t *MarketTools) GetMarket(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := request.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rows, err := t.markets.GetMarketBySlug(ctx, slug)
	if err != nil {
		requestLogger(ctx, t.logger).ErrorContext(ctx, "tool: get market failed",
			slog.String("slug", slug),
			slog.String("error", err.Error()),
		)
		return jsonResult(map[string]any{
			"error":  fmt.Sprintf("Error getting market: %v", err),
			"market": nil,
		}), nil
	}

	return jsonResult(rawMarketListResponse{
		Markets: nonNil(rows),
		Count:   len(rows),
	}), nil
}

// GetMarkets lists the currently open markets, all of them when no limit is
// given.
func (t *MarketTools) GetMarkets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", 0)

	rows, err := t.markets.ListCurrentMarkets(ctx, limit)
	if err != nil {
		requestLogger(ctx, t.logger).ErrorContext(ctx, "tool: list markets failed",
			slog.String("error", err.Error()),
		)
		return jsonResult(map[string]any{
			"error":   fmt.Sprintf("Error getting markets: %v", err),
			"markets": []any{},
		}), nil
	}

	return jsonResult(rawMarketListResponse{
		Markets: nonNil(rows),
		Count:   len(rows),
	}), nil
}

// GetTradeableMarkets lists the markets that are live for trading right now.
func (t *MarketTools) GetTradeableMarkets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", 0)

	records, skipped, err := t.markets.ListTradeableMarkets(ctx)
	if err != nil {
		requestLogger(ctx, t.logger).ErrorContext(ctx, "tool: list tradeable markets failed",
			slog.String("error", err.Error()),
		)
		return jsonResult(map[string]any{
			"error":   fmt.Sprintf("Error getting tradeable markets: %v", err),
			"markets": []any{},
		}), nil
	}

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return jsonResult(marketListResponse{
		Markets: nonNil(records),
		Count:   len(records),
		Skipped: skipped,
	}), nil
}

// SearchMarkets lists the markets whose question contains the query text.
func (t *MarketTools) SearchMarkets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := request.GetInt("limit", 0)

	records, skipped, err := t.markets.SearchMarkets(ctx, query, limit)
	if err != nil {
		requestLogger(ctx, t.logger).ErrorContext(ctx, "tool: search markets failed",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return jsonResult(map[string]any{
			"error":   fmt.Sprintf("Error searching markets: %v", err),
			"markets": []any{},
		}), nil
	}

	return jsonResult(marketListResponse{
		Markets: nonNil(records),
		Count:   len(records),
		Skipped: skipped,
	}), nil
}

// GetEvents lists a page of events.
func (t *MarketTools) GetEvents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", 0)
	offset := request.GetInt("offset", 0)

	events, err := t.markets.ListEvents(ctx, limit, offset)
	if err != nil {
		requestLogger(ctx, t.logger).ErrorContext(ctx, "tool: list events failed",
			slog.String("error", err.Error()),
		)
		return jsonResult(map[string]any{
			"error":  fmt.Sprintf("Error getting events: %v", err),
			"events": []any{},
		}), nil
	}

	return jsonResult(eventListResponse{
		Events: nonNil(events),
		Count:  len(events),
	}), nil
}

// GetEvent returns a single event by its ID.
func (t *MarketTools) GetEvent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("event_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	event, err := t.markets.GetEvent(ctx, id)
	if err != nil {
		requestLogger(ctx, t.logger).ErrorContext(ctx, "tool: get event failed",
			slog.String("event_id", id),
			slog.String("error", err.Error()),
		)
		return jsonResult(map[string]any{
			"error": fmt.Sprintf("Error getting event: %v", err),
			"event": nil,
		}), nil
	}

	return jsonResult(map[string]any{"event": event}), nil
}
