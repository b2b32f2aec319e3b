package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sort"

	"github.com/polymarket/go-order-utils/pkg/builder"
	gomodel "github.com/polymarket/go-order-utils/pkg/model"
	"github.com/shopspring/decimal"

	"github.com/gutmanan/polymarket-mcp/internal/crypto"
	"github.com/gutmanan/polymarket-mcp/internal/domain"
	"github.com/gutmanan/polymarket-mcp/internal/platform/polymarket"
)

const zeroAddress = "0x0000000000000000000000000000000000000000"

// collateralDecimals is the USDC.e scale; order amounts go on the wire as
// integer multiples of 10^-6.
const collateralDecimals = 6

// ClobTrader covers the authenticated CLOB operations an order goes through:
// neg-risk resolution, book lookup for market pricing, posting, and cancels.
type ClobTrader interface {
	GetBook(ctx context.Context, tokenID string) (domain.OrderBookSnapshot, error)
	GetNegRisk(ctx context.Context, tokenID string) (bool, error)
	PostOrder(ctx context.Context, order polymarket.OrderPayload, policy domain.FulfillmentPolicy) (domain.OrderResult, error)
	CancelOrder(ctx context.Context, orderID string) (domain.CancelResult, error)
}

// TradingService builds, signs, and submits orders. Every submission and
// cancel is journaled when a journal is attached; journal failures are logged
// and never surfaced, so a dead audit store cannot block trading.
type TradingService struct {
	clob         ClobTrader
	signer       *crypto.Signer
	orderBuilder builder.ExchangeOrderBuilder
	sigType      gomodel.SignatureType
	journal      domain.AuditJournal
	logger       *slog.Logger
}

// NewTradingService creates a TradingService signing for the given chain.
// signatureType selects the venue's signing scheme: 0 EOA, 1 proxy, 2 Safe.
func NewTradingService(clob ClobTrader, signer *crypto.Signer, chainID, signatureType int, logger *slog.Logger) *TradingService {
	return &TradingService{
		clob:         clob,
		signer:       signer,
		orderBuilder: builder.NewExchangeOrderBuilderImpl(big.NewInt(int64(chainID)), nil),
		sigType:      gomodel.SignatureType(signatureType),
		logger:       logger,
	}
}

// WithJournal attaches an audit journal. Without one, order operations skip
// journaling entirely.
func (s *TradingService) WithJournal(journal domain.AuditJournal) *TradingService {
	s.journal = journal
	return s
}

// PlaceLimitOrder signs and posts a GTC limit order and returns the venue's
// order ID. The exchange verifies makerAmount against price*takerAmount
// exactly, so both amounts come from decimal arithmetic: size is floored to
// two decimal places and both legs are scaled to integer collateral units.
// Price and size bounds are the venue's to enforce, not ours.
func (s *TradingService) PlaceLimitOrder(ctx context.Context, tokenID string, price, size float64, side string) (string, error) {
	domainSide, venueSide, err := orderSides(side)
	if err != nil {
		return "", fmt.Errorf("trading_service: place limit order: %w", err)
	}

	priceDec := decimal.NewFromFloat(price)
	sizeDec := decimal.NewFromFloat(size).RoundDown(2)

	var makerUnits, takerUnits decimal.Decimal
	if domainSide == domain.OrderSideBuy {
		makerUnits = toUnits(priceDec.Mul(sizeDec))
		takerUnits = toUnits(sizeDec)
	} else {
		makerUnits = toUnits(sizeDec)
		takerUnits = toUnits(priceDec.Mul(sizeDec))
	}
	if makerUnits.Sign() <= 0 || takerUnits.Sign() <= 0 {
		return "", fmt.Errorf("trading_service: place limit order: %w: non-positive amounts (price=%v size=%v)",
			domain.ErrInvalidOrder, price, size)
	}

	payload, err := s.signOrder(ctx, tokenID, domainSide, venueSide, makerUnits, takerUnits)
	if err != nil {
		return "", fmt.Errorf("trading_service: place limit order: %w", err)
	}

	result, postErr := s.clob.PostOrder(ctx, payload, domain.PolicyGTC)

	detail := map[string]any{
		"token_id": tokenID,
		"side":     string(domainSide),
		"price":    price,
		"size":     size,
	}
	mergeOutcome(detail, result, postErr)
	s.recordAudit(ctx, domain.AuditPlaceLimitOrder, detail)

	if postErr != nil {
		return "", fmt.Errorf("trading_service: place limit order: %w", postErr)
	}
	if !result.Success {
		return "", fmt.Errorf("trading_service: order rejected by venue: %s", result.ErrorMsg)
	}

	s.logger.InfoContext(ctx, "trading_service: limit order placed",
		slog.String("token_id", tokenID),
		slog.String("order_id", result.OrderID),
		slog.String("side", string(domainSide)),
		slog.Float64("price", price),
		slog.Float64("size", size),
	)
	return result.OrderID, nil
}

// PlaceMarketOrder submits a market buy for a notional amount of quote
// units. The marginal price comes from walking the current asks; the venue's
// response passes through as-is, including rejections, so callers see the
// raw outcome.
func (s *TradingService) PlaceMarketOrder(ctx context.Context, tokenID string, amount float64, policy domain.FulfillmentPolicy) (domain.OrderResult, error) {
	amountDec := decimal.NewFromFloat(amount).RoundDown(2)
	if amountDec.Sign() <= 0 {
		return domain.OrderResult{}, fmt.Errorf("trading_service: place market order: %w: amount must be positive, got %v",
			domain.ErrInvalidOrder, amount)
	}

	book, err := s.clob.GetBook(ctx, tokenID)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("trading_service: place market order: %w", err)
	}
	priceDec, err := marketBuyPrice(book.Asks, amountDec, policy)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("trading_service: place market order: %w", err)
	}

	makerUnits := toUnits(amountDec)
	takerUnits := toUnits(amountDec.DivRound(priceDec, 6).RoundDown(2))
	if makerUnits.Sign() <= 0 || takerUnits.Sign() <= 0 {
		return domain.OrderResult{}, fmt.Errorf("trading_service: place market order: %w: notional %v buys no shares at price %s",
			domain.ErrInvalidOrder, amount, priceDec)
	}

	payload, err := s.signOrder(ctx, tokenID, domain.OrderSideBuy, gomodel.BUY, makerUnits, takerUnits)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("trading_service: place market order: %w", err)
	}

	result, postErr := s.clob.PostOrder(ctx, payload, policy)

	detail := map[string]any{
		"token_id":   tokenID,
		"amount":     amount,
		"order_type": string(policy),
	}
	mergeOutcome(detail, result, postErr)
	s.recordAudit(ctx, domain.AuditPlaceMarketOrder, detail)

	if postErr != nil {
		return domain.OrderResult{}, fmt.Errorf("trading_service: place market order: %w", postErr)
	}

	s.logger.InfoContext(ctx, "trading_service: market order submitted",
		slog.String("token_id", tokenID),
		slog.Float64("amount", amount),
		slog.String("order_type", string(policy)),
		slog.Bool("success", result.Success),
	)
	return result, nil
}

// CancelOrder cancels an order by ID and passes the venue's result through.
// There is no local order tracking; an unknown ID comes back in the
// not_canceled map.
func (s *TradingService) CancelOrder(ctx context.Context, orderID string) (domain.CancelResult, error) {
	result, cancelErr := s.clob.CancelOrder(ctx, orderID)

	detail := map[string]any{"order_id": orderID}
	if cancelErr != nil {
		detail["error"] = cancelErr.Error()
	} else {
		detail["canceled"] = result.Canceled
		if len(result.NotCanceled) > 0 {
			detail["not_canceled"] = result.NotCanceled
		}
	}
	s.recordAudit(ctx, domain.AuditCancelOrder, detail)

	if cancelErr != nil {
		return domain.CancelResult{}, fmt.Errorf("trading_service: cancel order: %w", cancelErr)
	}

	s.logger.InfoContext(ctx, "trading_service: cancel request processed",
		slog.String("order_id", orderID),
		slog.Int("canceled", len(result.Canceled)),
		slog.Int("not_canceled", len(result.NotCanceled)),
	)
	return result, nil
}

// signOrder resolves the verifying contract for the token, assembles the
// EIP-712 order, and signs it with the service wallet. All orders carry zero
// fee, nonce, and expiration.
func (s *TradingService) signOrder(ctx context.Context, tokenID string, side domain.OrderSide, venueSide gomodel.Side, makerUnits, takerUnits decimal.Decimal) (polymarket.OrderPayload, error) {
	negRisk, err := s.clob.GetNegRisk(ctx, tokenID)
	if err != nil {
		return polymarket.OrderPayload{}, fmt.Errorf("resolve neg-risk: %w", err)
	}
	contract := gomodel.CTFExchange
	if negRisk {
		contract = gomodel.NegRiskCTFExchange
	}

	address := s.signer.Address().Hex()
	orderData := &gomodel.OrderData{
		Maker:         address,
		Taker:         zeroAddress,
		TokenId:       tokenID,
		MakerAmount:   makerUnits.String(),
		TakerAmount:   takerUnits.String(),
		FeeRateBps:    "0",
		Nonce:         "0",
		Signer:        address,
		Expiration:    "0",
		Side:          venueSide,
		SignatureType: s.sigType,
	}

	signed, err := s.orderBuilder.BuildSignedOrder(s.signer.PrivateKey(), orderData, contract)
	if err != nil {
		return polymarket.OrderPayload{}, fmt.Errorf("build signed order: %w", err)
	}
	return polymarket.NewOrderPayload(signed, tokenID, side), nil
}

func (s *TradingService) recordAudit(ctx context.Context, event string, detail map[string]any) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Log(ctx, event, detail); err != nil {
		s.logger.WarnContext(ctx, "trading_service: audit write failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

// orderSides maps a caller-supplied side string to its domain and venue
// representations.
func orderSides(side string) (domain.OrderSide, gomodel.Side, error) {
	switch side {
	case "BUY":
		return domain.OrderSideBuy, gomodel.BUY, nil
	case "SELL":
		return domain.OrderSideSell, gomodel.SELL, nil
	default:
		return "", gomodel.BUY, fmt.Errorf("%w: side must be BUY or SELL, got %q", domain.ErrInvalidOrder, side)
	}
}

// toUnits scales a human-readable quantity to integer collateral units.
func toUnits(d decimal.Decimal) decimal.Decimal {
	return d.Shift(collateralDecimals).Truncate(0)
}

// mergeOutcome folds an order submission outcome into an audit detail map.
func mergeOutcome(detail map[string]any, result domain.OrderResult, callErr error) {
	if callErr != nil {
		detail["error"] = callErr.Error()
		return
	}
	detail["success"] = result.Success
	detail["order_id"] = result.OrderID
	detail["status"] = result.Status
	if result.ErrorMsg != "" {
		detail["error_msg"] = result.ErrorMsg
	}
}

// marketBuyPrice walks the asks from cheapest up, accumulating notional
// until it covers amount, and returns the price of the level that crossed
// it. A FAK order on a too-shallow book sweeps to the worst ask; any other
// policy fails so the caller never signs an unfillable FOK.
func marketBuyPrice(asks []domain.BookLevel, amount decimal.Decimal, policy domain.FulfillmentPolicy) (decimal.Decimal, error) {
	type level struct {
		price decimal.Decimal
		size  decimal.Decimal
	}
	levels := make([]level, 0, len(asks))
	for _, lvl := range asks {
		price, err := decimal.NewFromString(lvl.Price)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse ask price %q: %w", lvl.Price, err)
		}
		size, err := decimal.NewFromString(lvl.Size)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse ask size %q: %w", lvl.Size, err)
		}
		levels = append(levels, level{price: price, size: size})
	}
	if len(levels) == 0 {
		return decimal.Zero, errors.New("no asks in book")
	}

	sort.Slice(levels, func(i, j int) bool {
		return levels[i].price.LessThan(levels[j].price)
	})

	total := decimal.Zero
	for _, lvl := range levels {
		total = total.Add(lvl.price.Mul(lvl.size))
		if total.GreaterThanOrEqual(amount) {
			return lvl.price, nil
		}
	}
	if policy == domain.PolicyFAK {
		return levels[len(levels)-1].price, nil
	}
	return decimal.Zero, fmt.Errorf("book depth %s below notional %s", total, amount)
}
