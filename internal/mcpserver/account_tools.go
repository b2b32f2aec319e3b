package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// AccountService defines the methods that the account tools require from
// the service layer.
type AccountService interface {
	ResolveUser(user string) string
	GetPositions(ctx context.Context, user string, limit int) ([]json.RawMessage, error)
	GetClosedPositions(ctx context.Context, user string, limit int) ([]json.RawMessage, error)
	GetTrades(ctx context.Context, user string, limit int) ([]json.RawMessage, error)
	GetPortfolioValue(ctx context.Context, user string) (json.RawMessage, error)
	GetUSDCBalance(ctx context.Context, user string) (float64, error)
	RedeemPosition(ctx context.Context, conditionID string, indexSets []int) (string, error)
}

// AccountTools serves wallet, position, and redemption tools.
type AccountTools struct {
	accounts AccountService
	logger   *slog.Logger
}

// NewAccountTools creates an AccountTools with the given service and logger.
func NewAccountTools(accounts AccountService, logger *slog.Logger) *AccountTools {
	return &AccountTools{
		accounts: accounts,
		logger:   logger,
	}
}

// Register adds the account tools to the MCP server.
func (t *AccountTools) Register(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("get_usdc_balance",
		mcp.WithDescription("Get USDC balance for a specific user or the configured wallet if user not specified."),
		mcp.WithString("user",
			mcp.Description("The wallet address of the user"),
		),
	), t.GetUSDCBalance)

	s.AddTool(mcp.NewTool("get_portfolio_value",
		mcp.WithDescription("Get portfolio value for a specific user or the configured wallet if user not specified."),
		mcp.WithString("user",
			mcp.Description("The wallet address of the user"),
		),
	), t.GetPortfolioValue)

	s.AddTool(mcp.NewTool("get_positions",
		mcp.WithDescription("Get positions for a specific user or the configured wallet if user not specified."),
		mcp.WithString("user",
			mcp.Description("The wallet address of the user"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of positions to return"),
		),
	), t.GetPositions)

	s.AddTool(mcp.NewTool("get_closed_positions",
		mcp.WithDescription("Get closed positions for a specific user or the configured wallet if user not specified."),
		mcp.WithString("user",
			mcp.Description("The wallet address of the user"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of closed positions to return"),
		),
	), t.GetClosedPositions)

	s.AddTool(mcp.NewTool("get_trades",
		mcp.WithDescription("Get trades for a specific user or the configured wallet if user not specified."),
		mcp.WithString("user",
			mcp.Description("The wallet address of the user"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of trades to return"),
		),
	), t.GetTrades)

	s.AddTool(mcp.NewTool("redeem_position",
		mcp.WithDescription("Redeem a position for a specific condition ID and index sets."),
		mcp.WithString("condition_id",
			mcp.Required(),
			mcp.Description("The condition ID of the market"),
		),
		mcp.WithArray("index_sets",
			mcp.Required(),
			mcp.Description("List of index sets to redeem"),
			mcp.Items(map[string]any{"type": "integer"}),
		),
	), t.RedeemPosition)
}

// usdcBalanceResponse reports the USDC balance of the queried address.
type usdcBalanceResponse struct {
	Address     string  `json:"address"`
	USDCBalance float64 `json:"usdc_balance"`
}

// portfolioValueResponse carries the upstream portfolio valuation verbatim.
type portfolioValueResponse struct {
	User           string          `json:"user"`
	PortfolioValue json.RawMessage `json:"portfolio_value"`
}

// positionListResponse wraps an open-position listing with its count.
type positionListResponse struct {
	User      string            `json:"user"`
	Positions []json.RawMessage `json:"positions"`
	Count     int               `json:"count"`
}

// closedPositionListResponse wraps a closed-position listing with its count.
type closedPositionListResponse struct {
	User            string            `json:"user"`
	ClosedPositions []json.RawMessage `json:"closed_positions"`
	Count           int               `json:"count"`
}

// tradeListResponse wraps a trade listing with its count.
type tradeListResponse struct {
	User   string            `json:"user"`
	Trades []json.RawMessage `json:"trades"`
	Count  int               `json:"count"`
}

// redeemResponse reports the transaction hash of a submitted redemption.
type redeemResponse struct {
	ConditionID string `json:"condition_id"`
	IndexSets   []int  `json:"index_sets"`
	TxHash      string `json:"tx_hash"`
}

// GetUSDCBalance reports the collateral balance of a wallet. The envelope
// echoes the address that was actually queried, not the configured one.
func (t *AccountTools) GetUSDCBalance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user := request.GetString("user", "")

	balance, err := t.accounts.GetUSDCBalance(ctx, user)
	if err != nil {
		requestLogger(ctx, t.logger).ErrorContext(ctx, "tool: get usdc balance failed",
			slog.String("error", err.Error()),
		)
		return jsonResult(map[string]any{
			"error": fmt.Sprintf("Error getting USDC balance: %v", err),
		}), nil
	}

	return jsonResult(usdcBalanceResponse{
		Address:     t.accounts.ResolveUser(user),
		USDCBalance: balance,
	}), nil
}

// GetPortfolioValue reports the aggregate portfolio valuation of a wallet.
func (t *AccountTools) GetPortfolioValue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user := request.GetString("user", "")

	value, err := t.accounts.GetPortfolioValue(ctx, user)
	if err != nil {
		requestLogger(ctx, t.logger).ErrorContext(ctx, "tool: get portfolio value failed",
			slog.String("error", err.Error()),
		)
		return jsonResult(map[string]any{
			"error":           fmt.Sprintf("Error getting portfolio value: %v", err),
			"portfolio_value": map[string]any{},
		}), nil
	}

	return jsonResult(portfolioValueResponse{
		User:           t.accounts.ResolveUser(user),
		PortfolioValue: value,
	}), nil
}

// GetPositions lists a wallet's open positions.
func (t *AccountTools) GetPositions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user := request.GetString("user", "")
	limit := request.GetInt("limit", 0)

	positions, err := t.accounts.GetPositions(ctx, user, limit)
	if err != nil {
		requestLogger(ctx, t.logger).ErrorContext(ctx, "tool: get positions failed",
			slog.String("error", err.Error()),
		)
		return jsonResult(map[string]any{
			"error":     fmt.Sprintf("Error getting positions: %v", err),
			"positions": []any{},
		}), nil
	}

	return jsonResult(positionListResponse{
		User:      t.accounts.ResolveUser(user),
		Positions: nonNil(positions),
		Count:     len(positions),
	}), nil
}

// GetClosedPositions lists a wallet's settled positions.
func (t *AccountTools) GetClosedPositions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user := request.GetString("user", "")
	limit := request.GetInt("limit", 0)

	positions, err := t.accounts.GetClosedPositions(ctx, user, limit)
	if err != nil {
		requestLogger(ctx, t.logger).ErrorContext(ctx, "tool: get closed positions failed",
			slog.String("error", err.Error()),
		)
		return jsonResult(map[string]any{
			"error":            fmt.Sprintf("Error getting closed positions: %v", err),
			"closed_positions": []any{},
		}), nil
	}

	return jsonResult(closedPositionListResponse{
		User:            t.accounts.ResolveUser(user),
		ClosedPositions: nonNil(positions),
		Count:           len(positions),
	}), nil
}

// GetTrades lists a wallet's fills.
func (t *AccountTools) GetTrades(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user := request.GetString("user", "")
	limit := request.GetInt("limit", 0)

	trades, err := t.accounts.GetTrades(ctx, user, limit)
	if err != nil {
		requestLogger(ctx, t.logger).ErrorContext(ctx, "tool: get trades failed",
			slog.String("error", err.Error()),
		)
		return jsonResult(map[string]any{
			"error":  fmt.Sprintf("Error getting trades: %v", err),
			"trades": []any{},
		}), nil
	}

	return jsonResult(tradeListResponse{
		User:   t.accounts.ResolveUser(user),
		Trades: nonNil(trades),
		Count:  len(trades),
	}), nil
}

// RedeemPosition claims the payout of a resolved market on-chain and
// returns the transaction hash without waiting for confirmation.
func (t *AccountTools) RedeemPosition(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		ConditionID string `json:"condition_id"`
		IndexSets   []int  `json:"index_sets"`
	}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.ConditionID == "" {
		return mcp.NewToolResultError("condition_id is required"), nil
	}
	if len(args.IndexSets) == 0 {
		return mcp.NewToolResultError("index_sets must not be empty"), nil
	}

	txHash, err := t.accounts.RedeemPosition(ctx, args.ConditionID, args.IndexSets)
	if err != nil {
		requestLogger(ctx, t.logger).ErrorContext(ctx, "tool: redeem position failed",
			slog.String("condition_id", args.ConditionID),
			slog.String("error", err.Error()),
		)
		return jsonResult(map[string]any{
			"error": fmt.Sprintf("Error redeeming position: %v", err),
		}), nil
	}

	return jsonResult(redeemResponse{
		ConditionID: args.ConditionID,
		IndexSets:   args.IndexSets,
		TxHash:      txHash,
	}), nil
}
