package mcpserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gutmanan/polymarket-mcp/internal/domain"
)

// BookService defines the methods that the order book tools require from
// the service layer.
type BookService interface {
	GetOrderBook(ctx context.Context, tokenID string) (domain.OrderBookSnapshot, error)
	GetMid(ctx context.Context, tokenID string) (domain.MidQuote, error)
	GetPrice(ctx context.Context, tokenID string, side domain.OrderSide) (float64, error)
	GetLiveBook(ctx context.Context, tokenID string) (domain.OrderBookSnapshot, error)
}

// BookTools serves order book and price tools.
type BookTools struct {
	books  BookService
	logger *slog.Logger
}

// NewBookTools creates a BookTools with the given service and logger.
func NewBookTools(books BookService, logger *slog.Logger) *BookTools {
	return &BookTools{
		books:  books,
		logger: logger,
	}
}

// Register adds the order book tools to the MCP server.
func (t *BookTools) Register(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("get_order_book",
		mcp.WithDescription("Get the order book for a specific token."),
		mcp.WithString("token_id",
			mcp.Required(),
			mcp.Description("The CLOB token ID"),
		),
	), t.GetOrderBook)

	s.AddTool(mcp.NewTool("get_live_order_book",
		mcp.WithDescription("Get the order book for a specific token from the market data feed."),
		mcp.WithString("token_id",
			mcp.Required(),
			mcp.Description("The CLOB token ID"),
		),
	), t.GetLiveOrderBook)

	s.AddTool(mcp.NewTool("get_mid_price",
		mcp.WithDescription("Get the mid price for a specific token."),
		mcp.WithString("token_id",
			mcp.Required(),
			mcp.Description("The CLOB token ID"),
		),
	), t.GetMidPrice)

	s.AddTool(mcp.NewTool("get_price",
		mcp.WithDescription("Get the current price for a specific token and side."),
		mcp.WithString("token_id",
			mcp.Required(),
			mcp.Description("The CLOB token ID"),
		),
		mcp.WithString("side",
			mcp.Required(),
			mcp.Description("Either \"BUY\" or \"SELL\""),
			mcp.Enum("BUY", "SELL"),
		),
	), t.GetPrice)
}

// midPriceResponse reports the mid price for a token. MidPrice is null when
// no usable mid could be computed from the book.
type midPriceResponse struct {
	TokenID  string   `json:"token_id"`
	MidPrice *float64 `json:"mid_price"`
}

// priceResponse reports the venue's spot price for one token and side.
type priceResponse struct {
	TokenID string  `json:"token_id"`
	Side    string  `json:"side"`
	Price   float64 `json:"price"`
}

// GetOrderBook returns the current two-sided book for a token.
func (t *BookTools) GetOrderBook(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tokenID, err := request.RequireString("token_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	book, err := t.books.GetOrderBook(ctx, tokenID)
	if err != nil {
		requestLogger(ctx, t.logger).ErrorContext(ctx, "tool: get order book failed",
			slog.String("token_id", tokenID),
			slog.String("error", err.Error()),
		)
		return jsonResult(map[string]any{
			"error": fmt.Sprintf("Error getting order book: %v", err),
		}), nil
	}

	book.Bids = nonNil(book.Bids)
	book.Asks = nonNil(book.Asks)
	return jsonResult(book), nil
}

// GetLiveOrderBook returns the book as sequenced by the market data feed
// rather than the REST projection.
func (t *BookTools) GetLiveOrderBook(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tokenID, err := request.RequireString("token_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	book, err := t.books.GetLiveBook(ctx, tokenID)
	if err != nil {
		requestLogger(ctx, t.logger).ErrorContext(ctx, "tool: get live order book failed",
			slog.String("token_id", tokenID),
			slog.String("error", err.Error()),
		)
		return jsonResult(map[string]any{
			"error": fmt.Sprintf("Error getting live order book: %v", err),
		}), nil
	}

	book.Bids = nonNil(book.Bids)
	book.Asks = nonNil(book.Asks)
	return jsonResult(book), nil
}

// GetMidPrice returns the mid price derived from the current book.
func (t *BookTools) GetMidPrice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tokenID, err := request.RequireString("token_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	quote, err := t.books.GetMid(ctx, tokenID)
	if err != nil {
		requestLogger(ctx, t.logger).ErrorContext(ctx, "tool: get mid price failed",
			slog.String("token_id", tokenID),
			slog.String("error", err.Error()),
		)
		return jsonResult(map[string]any{
			"error": fmt.Sprintf("Error getting mid price: %v", err),
		}), nil
	}

	resp := midPriceResponse{TokenID: tokenID}
	if quote.Available() {
		resp.MidPrice = &quote.Value
	}
	return jsonResult(resp), nil
}

// GetPrice returns the venue's spot price for a token and side.
func (t *BookTools) GetPrice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tokenID, err := request.RequireString("token_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	side, err := request.RequireString("side")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if side != string(domain.OrderSideBuy) && side != string(domain.OrderSideSell) {
		return mcp.NewToolResultError(fmt.Sprintf("invalid side %q: must be BUY or SELL", side)), nil
	}

	price, err := t.books.GetPrice(ctx, tokenID, domain.OrderSide(side))
	if err != nil {
		requestLogger(ctx, t.logger).ErrorContext(ctx, "tool: get price failed",
			slog.String("token_id", tokenID),
			slog.String("side", side),
			slog.String("error", err.Error()),
		)
		return jsonResult(map[string]any{
			"error": fmt.Sprintf("Error getting price: %v", err),
		}), nil
	}

	return jsonResult(priceResponse{
		TokenID: tokenID,
		Side:    side,
		Price:   price,
	}), nil
}
