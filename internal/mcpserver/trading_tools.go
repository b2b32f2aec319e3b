package mcpserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gutmanan/polymarket-mcp/internal/domain"
)

// TradingService defines the methods that the trading tools require from
// the service layer.
type TradingService interface {
	PlaceLimitOrder(ctx context.Context, tokenID string, price, size float64, side string) (string, error)
	PlaceMarketOrder(ctx context.Context, tokenID string, amount float64, policy domain.FulfillmentPolicy) (domain.OrderResult, error)
	CancelOrder(ctx context.Context, orderID string) (domain.CancelResult, error)
}

// TradingTools serves order placement and cancellation tools.
type TradingTools struct {
	trading TradingService
	logger  *slog.Logger
}

// NewTradingTools creates a TradingTools with the given service and logger.
func NewTradingTools(trading TradingService, logger *slog.Logger) *TradingTools {
	return &TradingTools{
		trading: trading,
		logger:  logger,
	}
}

// Register adds the trading tools to the MCP server.
func (t *TradingTools) Register(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("place_limit_order",
		mcp.WithDescription("Place a limit order on Polymarket."),
		mcp.WithString("token_id",
			mcp.Required(),
			mcp.Description("The CLOB token ID"),
		),
		mcp.WithNumber("price",
			mcp.Required(),
			mcp.Description("The limit price"),
		),
		mcp.WithNumber("size",
			mcp.Required(),
			mcp.Description("The order size"),
		),
		mcp.WithString("side",
			mcp.Description("Either \"BUY\" or \"SELL\""),
			mcp.Enum("BUY", "SELL"),
			mcp.DefaultString("BUY"),
		),
	), t.PlaceLimitOrder)

	s.AddTool(mcp.NewTool("place_market_order",
		mcp.WithDescription("Place a market order on Polymarket."),
		mcp.WithString("token_id",
			mcp.Required(),
			mcp.Description("The CLOB token ID"),
		),
		mcp.WithNumber("amount",
			mcp.Required(),
			mcp.Description("The notional amount in quote units"),
		),
		mcp.WithString("order_type",
			mcp.Description("Order type (FOK, IOC, GTC)"),
			mcp.DefaultString("FOK"),
		),
	), t.PlaceMarketOrder)

	s.AddTool(mcp.NewTool("cancel_order",
		mcp.WithDescription("Cancel an existing order by ID."),
		mcp.WithString("order_id",
			mcp.Required(),
			mcp.Description("The ID of the order to cancel"),
		),
	), t.CancelOrder)
}

// limitOrderResponse echoes a placed limit order with its venue-assigned ID.
type limitOrderResponse struct {
	OrderID string  `json:"order_id"`
	TokenID string  `json:"token_id"`
	Price   float64 `json:"price"`
	Size    float64 `json:"size"`
	Side    string  `json:"side"`
}

// marketOrderResponse carries the venue's raw submission result alongside
// the echoed request parameters.
type marketOrderResponse struct {
	Result    domain.OrderResult `json:"result"`
	TokenID   string             `json:"token_id"`
	Amount    float64            `json:"amount"`
	OrderType string             `json:"order_type"`
}

// cancelOrderResponse carries the venue's cancellation result.
type cancelOrderResponse struct {
	Result  domain.CancelResult `json:"result"`
	OrderID string              `json:"order_id"`
}

// PlaceLimitOrder signs and submits a GTC limit order.
func (t *TradingTools) PlaceLimitOrder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tokenID, err := request.RequireString("token_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	price, err := request.RequireFloat("price")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	size, err := request.RequireFloat("size")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	side := request.GetString("side", "BUY")

	orderID, err := t.trading.PlaceLimitOrder(ctx, tokenID, price, size, side)
	if err != nil {
		requestLogger(ctx, t.logger).ErrorContext(ctx, "tool: place limit order failed",
			slog.String("token_id", tokenID),
			slog.String("side", side),
			slog.String("error", err.Error()),
		)
		return jsonResult(map[string]any{
			"error": fmt.Sprintf("Error placing limit order: %v", err),
		}), nil
	}

	return jsonResult(limitOrderResponse{
		OrderID: orderID,
		TokenID: tokenID,
		Price:   price,
		Size:    size,
		Side:    side,
	}), nil
}

// PlaceMarketOrder signs and submits a market order for a notional amount.
// Unrecognized order_type strings fall back to FOK; the response echoes the
// string as given.
func (t *TradingTools) PlaceMarketOrder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tokenID, err := request.RequireString("token_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	amount, err := request.RequireFloat("amount")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	orderType := request.GetString("order_type", "FOK")

	result, err := t.trading.PlaceMarketOrder(ctx, tokenID, amount, domain.PolicyFromString(orderType))
	if err != nil {
		requestLogger(ctx, t.logger).ErrorContext(ctx, "tool: place market order failed",
			slog.String("token_id", tokenID),
			slog.String("order_type", orderType),
			slog.String("error", err.Error()),
		)
		return jsonResult(map[string]any{
			"error": fmt.Sprintf("Error placing market order: %v", err),
		}), nil
	}

	return jsonResult(marketOrderResponse{
		Result:    result,
		TokenID:   tokenID,
		Amount:    amount,
		OrderType: orderType,
	}), nil
}

// CancelOrder cancels a resting order by its ID.
func (t *TradingTools) CancelOrder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	orderID, err := request.RequireString("order_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := t.trading.CancelOrder(ctx, orderID)
	if err != nil {
		requestLogger(ctx, t.logger).ErrorContext(ctx, "tool: cancel order failed",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
		return jsonResult(map[string]any{
			"error": fmt.Sprintf("Error cancelling order: %v", err),
		}), nil
	}

	return jsonResult(cancelOrderResponse{
		Result:  result,
		OrderID: orderID,
	}), nil
}
