package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gutmanan/polymarket-mcp/internal/domain"
)

// BookReader fetches order book state over REST.
type BookReader interface {
	GetBook(ctx context.Context, tokenID string) (domain.OrderBookSnapshot, error)
	GetPrice(ctx context.Context, tokenID string, side domain.OrderSide) (float64, error)
}

// LiveBookReader fetches a single book snapshot from the market stream.
type LiveBookReader interface {
	GetLiveBook(ctx context.Context, tokenID string) (domain.OrderBookSnapshot, error)
}

// BookService serves order book snapshots, live books, and price quotes.
type BookService struct {
	clob   BookReader
	live   LiveBookReader
	logger *slog.Logger
}

// NewBookService creates a BookService with all required dependencies.
func NewBookService(clob BookReader, live LiveBookReader, logger *slog.Logger) *BookService {
	return &BookService{
		clob:   clob,
		live:   live,
		logger: logger,
	}
}

// GetOrderBook returns the REST book snapshot for a token.
func (s *BookService) GetOrderBook(ctx context.Context, tokenID string) (domain.OrderBookSnapshot, error) {
	book, err := s.clob.GetBook(ctx, tokenID)
	if err != nil {
		return domain.OrderBookSnapshot{}, fmt.Errorf("book_service: get order book: %w", err)
	}
	return book, nil
}

// GetMid computes the midpoint from a fresh book snapshot. The quote
// carries its own state: an empty side or unparseable levels yield an
// unavailable quote, not an error.
func (s *BookService) GetMid(ctx context.Context, tokenID string) (domain.MidQuote, error) {
	book, err := s.clob.GetBook(ctx, tokenID)
	if err != nil {
		return domain.MidQuote{}, fmt.Errorf("book_service: get mid: %w", err)
	}

	quote := book.Mid()
	if !quote.Available() {
		s.logger.InfoContext(ctx, "book_service: mid unavailable",
			slog.String("token_id", tokenID),
			slog.String("state", quote.State.String()),
		)
	}
	return quote, nil
}

// GetPrice returns the best price on one side of a token's book.
func (s *BookService) GetPrice(ctx context.Context, tokenID string, side domain.OrderSide) (float64, error) {
	price, err := s.clob.GetPrice(ctx, tokenID, side)
	if err != nil {
		return 0, fmt.Errorf("book_service: get price: %w", err)
	}
	return price, nil
}

// GetLiveBook waits for the next full book event on the market stream and
// returns it as a snapshot.
func (s *BookService) GetLiveBook(ctx context.Context, tokenID string) (domain.OrderBookSnapshot, error) {
	book, err := s.live.GetLiveBook(ctx, tokenID)
	if err != nil {
		return domain.OrderBookSnapshot{}, fmt.Errorf("book_service: get live book: %w", err)
	}
	return book, nil
}
