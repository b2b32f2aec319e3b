package mcpserver_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutmanan/polymarket-mcp/internal/domain"
	"github.com/gutmanan/polymarket-mcp/internal/mcpserver"
)

// --- mocks ---

type fakeBookService struct {
	book  domain.OrderBookSnapshot
	quote domain.MidQuote
	price float64
	err   error

	tokenID   string
	side      domain.OrderSide
	liveCalls int
}

func (f *fakeBookService) GetOrderBook(_ context.Context, tokenID string) (domain.OrderBookSnapshot, error) {
	f.tokenID = tokenID
	if f.err != nil {
		return domain.OrderBookSnapshot{}, f.err
	}
	return f.book, nil
}

func (f *fakeBookService) GetMid(_ context.Context, tokenID string) (domain.MidQuote, error) {
	f.tokenID = tokenID
	if f.err != nil {
		return domain.MidQuote{}, f.err
	}
	return f.quote, nil
}

func (f *fakeBookService) GetPrice(_ context.Context, tokenID string, side domain.OrderSide) (float64, error) {
	f.tokenID = tokenID
	f.side = side
	if f.err != nil {
		return 0, f.err
	}
	return f.price, nil
}

func (f *fakeBookService) GetLiveBook(_ context.Context, tokenID string) (domain.OrderBookSnapshot, error) {
	f.tokenID = tokenID
	f.liveCalls++
	if f.err != nil {
		return domain.OrderBookSnapshot{}, f.err
	}
	return f.book, nil
}

// --- tests ---

func TestGetOrderBook_ReturnsSnapshot(t *testing.T) {
	fake := &fakeBookService{book: domain.OrderBookSnapshot{
		TokenID: "123",
		Bids:    []domain.BookLevel{{Price: "0.48", Size: "100"}},
		Asks:    []domain.BookLevel{{Price: "0.52", Size: "80"}},
	}}
	tools := mcpserver.NewBookTools(fake, testLogger())

	result, err := tools.GetOrderBook(context.Background(), callRequest(map[string]any{"token_id": "123"}))

	require.NoError(t, err)
	payload := textPayload(t, result)
	assert.Equal(t, "123", fake.tokenID)
	assert.Equal(t, "123", payload["token_id"])
	assert.Len(t, payload["bids"], 1)
	assert.Len(t, payload["asks"], 1)
}

func TestGetOrderBook_EmptySidesAreArrays(t *testing.T) {
	fake := &fakeBookService{book: domain.OrderBookSnapshot{TokenID: "123"}}
	tools := mcpserver.NewBookTools(fake, testLogger())

	result, err := tools.GetOrderBook(context.Background(), callRequest(map[string]any{"token_id": "123"}))

	require.NoError(t, err)
	payload := textPayload(t, result)
	assert.Equal(t, []any{}, payload["bids"])
	assert.Equal(t, []any{}, payload["asks"])
}

func TestGetOrderBook_UpstreamError(t *testing.T) {
	fake := &fakeBookService{err: errors.New("clob is down")}
	tools := mcpserver.NewBookTools(fake, testLogger())

	result, err := tools.GetOrderBook(context.Background(), callRequest(map[string]any{"token_id": "123"}))

	require.NoError(t, err)
	payload := textPayload(t, result)
	assert.Contains(t, payload["error"], "Error getting order book:")
	assert.NotContains(t, payload, "bids")
}

func TestGetOrderBook_MissingTokenID(t *testing.T) {
	tools := mcpserver.NewBookTools(&fakeBookService{}, testLogger())

	result, err := tools.GetOrderBook(context.Background(), callRequest(map[string]any{}))

	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestGetLiveOrderBook_ReturnsSnapshot(t *testing.T) {
	fake := &fakeBookService{book: domain.OrderBookSnapshot{
		TokenID: "123",
		Bids:    []domain.BookLevel{{Price: "0.48", Size: "100"}},
		Asks:    []domain.BookLevel{{Price: "0.52", Size: "80"}},
	}}
	tools := mcpserver.NewBookTools(fake, testLogger())

	result, err := tools.GetLiveOrderBook(context.Background(), callRequest(map[string]any{"token_id": "123"}))

	require.NoError(t, err)
	payload := textPayload(t, result)
	assert.Equal(t, 1, fake.liveCalls)
	assert.Equal(t, "123", payload["token_id"])
	assert.Len(t, payload["bids"], 1)
}

func TestGetLiveOrderBook_UpstreamError(t *testing.T) {
	fake := &fakeBookService{err: domain.ErrNoLiveBook}
	tools := mcpserver.NewBookTools(fake, testLogger())

	result, err := tools.GetLiveOrderBook(context.Background(), callRequest(map[string]any{"token_id": "123"}))

	require.NoError(t, err)
	payload := textPayload(t, result)
	assert.Contains(t, payload["error"], "Error getting live order book:")
}

func TestGetMidPrice_Available(t *testing.T) {
	fake := &fakeBookService{quote: domain.MidQuote{Value: 0.5, State: domain.MidOK}}
	tools := mcpserver.NewBookTools(fake, testLogger())

	result, err := tools.GetMidPrice(context.Background(), callRequest(map[string]any{"token_id": "123"}))

	require.NoError(t, err)
	payload := textPayload(t, result)
	assert.Equal(t, "123", payload["token_id"])
	assert.Equal(t, 0.5, payload["mid_price"])
}

func TestGetMidPrice_UnavailableIsNull(t *testing.T) {
	fake := &fakeBookService{quote: domain.MidQuote{State: domain.MidEmptySide}}
	tools := mcpserver.NewBookTools(fake, testLogger())

	result, err := tools.GetMidPrice(context.Background(), callRequest(map[string]any{"token_id": "123"}))

	require.NoError(t, err)
	payload := textPayload(t, result)
	assert.Contains(t, payload, "mid_price")
	assert.Nil(t, payload["mid_price"])
	assert.NotContains(t, payload, "error")
}

func TestGetMidPrice_BadDataIsNull(t *testing.T) {
	fake := &fakeBookService{quote: domain.MidQuote{State: domain.MidBadData}}
	tools := mcpserver.NewBookTools(fake, testLogger())

	result, err := tools.GetMidPrice(context.Background(), callRequest(map[string]any{"token_id": "123"}))

	require.NoError(t, err)
	payload := textPayload(t, result)
	assert.Nil(t, payload["mid_price"])
}

func TestGetMidPrice_UpstreamError(t *testing.T) {
	fake := &fakeBookService{err: errors.New("clob is down")}
	tools := mcpserver.NewBookTools(fake, testLogger())

	result, err := tools.GetMidPrice(context.Background(), callRequest(map[string]any{"token_id": "123"}))

	require.NoError(t, err)
	payload := textPayload(t, result)
	assert.Contains(t, payload["error"], "Error getting mid price:")
}

func TestGetPrice_ReturnsSpot(t *testing.T) {
	fake := &fakeBookService{price: 0.47}
	tools := mcpserver.NewBookTools(fake, testLogger())

	result, err := tools.GetPrice(context.Background(), callRequest(map[string]any{
		"token_id": "123",
		"side":     "SELL",
	}))

	require.NoError(t, err)
	payload := textPayload(t, result)
	assert.Equal(t, domain.OrderSideSell, fake.side)
	assert.Equal(t, "SELL", payload["side"])
	assert.Equal(t, 0.47, payload["price"])
}

func TestGetPrice_InvalidSide(t *testing.T) {
	fake := &fakeBookService{}
	tools := mcpserver.NewBookTools(fake, testLogger())

	result, err := tools.GetPrice(context.Background(), callRequest(map[string]any{
		"token_id": "123",
		"side":     "HOLD",
	}))

	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Empty(t, fake.tokenID, "service must not be called for an invalid side")
}

func TestGetPrice_UpstreamError(t *testing.T) {
	fake := &fakeBookService{err: errors.New("clob is down")}
	tools := mcpserver.NewBookTools(fake, testLogger())

	result, err := tools.GetPrice(context.Background(), callRequest(map[string]any{
		"token_id": "123",
		"side":     "BUY",
	}))

	require.NoError(t, err)
	payload := textPayload(t, result)
	assert.Contains(t, payload["error"], "Error getting price:")
}
