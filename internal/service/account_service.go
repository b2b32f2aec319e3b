package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gutmanan/polymarket-mcp/internal/domain"
)

// DataReader queries wallet activity from the Data API.
type DataReader interface {
	ListPositions(ctx context.Context, user string, limit int) ([]json.RawMessage, error)
	ListClosedPositions(ctx context.Context, user string, limit int) ([]json.RawMessage, error)
	ListTrades(ctx context.Context, user string, limit int) ([]json.RawMessage, error)
	GetPortfolioValue(ctx context.Context, user string) (json.RawMessage, error)
}

// ChainClient covers the on-chain reads and writes the account surface needs.
type ChainClient interface {
	USDCBalance(ctx context.Context, address string) (float64, error)
	RedeemPositions(ctx context.Context, conditionID string, indexSets []int) (string, error)
}

// AccountService serves wallet activity, balances, and position redemptions.
// Every user-scoped lookup falls back to the configured wallet when the
// caller leaves the address empty.
type AccountService struct {
	data    DataReader
	chain   ChainClient
	wallet  string
	journal domain.AuditJournal
	logger  *slog.Logger
}

// NewAccountService creates an AccountService. wallet is the address used
// when a caller omits one.
func NewAccountService(data DataReader, chain ChainClient, wallet string, logger *slog.Logger) *AccountService {
	return &AccountService{
		data:   data,
		chain:  chain,
		wallet: wallet,
		logger: logger,
	}
}

// WithJournal attaches an audit journal for redemption records.
func (s *AccountService) WithJournal(journal domain.AuditJournal) *AccountService {
	s.journal = journal
	return s
}

// ResolveUser returns the address a lookup targets: the caller's when given,
// the configured wallet otherwise. Exported so the tool surface can echo the
// address it actually queried.
func (s *AccountService) ResolveUser(user string) string {
	if user == "" {
		return s.wallet
	}
	return user
}

// GetPositions returns the user's open positions as raw Data API rows.
func (s *AccountService) GetPositions(ctx context.Context, user string, limit int) ([]json.RawMessage, error) {
	rows, err := s.data.ListPositions(ctx, s.ResolveUser(user), limit)
	if err != nil {
		return nil, fmt.Errorf("account_service: get positions: %w", err)
	}
	return rows, nil
}

// GetClosedPositions returns the user's settled positions.
func (s *AccountService) GetClosedPositions(ctx context.Context, user string, limit int) ([]json.RawMessage, error) {
	rows, err := s.data.ListClosedPositions(ctx, s.ResolveUser(user), limit)
	if err != nil {
		return nil, fmt.Errorf("account_service: get closed positions: %w", err)
	}
	return rows, nil
}

// GetTrades returns the user's trade history.
func (s *AccountService) GetTrades(ctx context.Context, user string, limit int) ([]json.RawMessage, error) {
	rows, err := s.data.ListTrades(ctx, s.ResolveUser(user), limit)
	if err != nil {
		return nil, fmt.Errorf("account_service: get trades: %w", err)
	}
	return rows, nil
}

// GetPortfolioValue returns the user's total portfolio value, raw.
func (s *AccountService) GetPortfolioValue(ctx context.Context, user string) (json.RawMessage, error) {
	value, err := s.data.GetPortfolioValue(ctx, s.ResolveUser(user))
	if err != nil {
		return nil, fmt.Errorf("account_service: get portfolio value: %w", err)
	}
	return value, nil
}

// GetUSDCBalance reads the user's USDC.e balance from chain.
func (s *AccountService) GetUSDCBalance(ctx context.Context, user string) (float64, error) {
	balance, err := s.chain.USDCBalance(ctx, s.ResolveUser(user))
	if err != nil {
		return 0, fmt.Errorf("account_service: get usdc balance: %w", err)
	}
	return balance, nil
}

// RedeemPosition redeems a resolved CTF position and returns the transaction
// hash without waiting for confirmation.
func (s *AccountService) RedeemPosition(ctx context.Context, conditionID string, indexSets []int) (string, error) {
	txHash, redeemErr := s.chain.RedeemPositions(ctx, conditionID, indexSets)

	detail := map[string]any{
		"condition_id": conditionID,
		"index_sets":   indexSets,
	}
	if redeemErr != nil {
		detail["error"] = redeemErr.Error()
	} else {
		detail["tx_hash"] = txHash
	}
	s.recordAudit(ctx, domain.AuditRedeemPosition, detail)

	if redeemErr != nil {
		return "", fmt.Errorf("account_service: redeem position: %w", redeemErr)
	}

	s.logger.InfoContext(ctx, "account_service: redeem transaction submitted",
		slog.String("condition_id", conditionID),
		slog.String("tx_hash", txHash),
	)
	return txHash, nil
}

func (s *AccountService) recordAudit(ctx context.Context, event string, detail map[string]any) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Log(ctx, event, detail); err != nil {
		s.logger.WarnContext(ctx, "account_service: audit write failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}
