package mcpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutmanan/polymarket-mcp/internal/mcpserver"
)

const fakeWallet = "0x1111111111111111111111111111111111111111"

// --- mocks ---

type fakeAccountService struct {
	rows    []json.RawMessage
	value   json.RawMessage
	balance float64
	txHash  string
	err     error

	user        string
	limit       int
	conditionID string
	indexSets   []int
	calls       int
}

func (f *fakeAccountService) ResolveUser(user string) string {
	if user == "" {
		return fakeWallet
	}
	return user
}

func (f *fakeAccountService) GetPositions(_ context.Context, user string, limit int) ([]json.RawMessage, error) {
	f.user = user
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeAccountService) GetClosedPositions(_ context.Context, user string, limit int) ([]json.RawMessage, error) {
	f.user = user
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeAccountService) GetTrades(_ context.Context, user string, limit int) ([]json.RawMessage, error) {
	f.user = user
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeAccountService) GetPortfolioValue(_ context.Context, user string) (json.RawMessage, error) {
	f.user = user
	if f.err != nil {
		return nil, f.err
	}
	return f.value, nil
}

func (f *fakeAccountService) GetUSDCBalance(_ context.Context, user string) (float64, error) {
	f.user = user
	if f.err != nil {
		return 0, f.err
	}
	return f.balance, nil
}

func (f *fakeAccountService) RedeemPosition(_ context.Context, conditionID string, indexSets []int) (string, error) {
	f.calls++
	f.conditionID = conditionID
	f.indexSets = indexSets
	if f.err != nil {
		return "", f.err
	}
	return f.txHash, nil
}

// --- tests ---

func TestGetUSDCBalance_DefaultsToWallet(t *testing.T) {
	fake := &fakeAccountService{balance: 125.5}
	tools := mcpserver.NewAccountTools(fake, testLogger())

	result, err := tools.GetUSDCBalance(context.Background(), callRequest(map[string]any{}))

	require.NoError(t, err)
	payload := textPayload(t, result)
	assert.Empty(t, fake.user)
	assert.Equal(t, fakeWallet, payload["address"])
	assert.Equal(t, 125.5, payload["usdc_balance"])
}

func TestGetUSDCBalance_EchoesQueriedAddress(t *testing.T) {
	fake := &fakeAccountService{balance: 9.75}
	tools := mcpserver.NewAccountTools(fake, testLogger())

	other := "0x2222222222222222222222222222222222222222"
	result, err := tools.GetUSDCBalance(context.Background(), callRequest(map[string]any{"user": other}))

	require.NoError(t, err)
	payload := textPayload(t, result)
	assert.Equal(t, other, fake.user)
	assert.Equal(t, other, payload["address"])
}

func TestGetUSDCBalance_UpstreamError(t *testing.T) {
	fake := &fakeAccountService{err: errors.New("rpc unreachable")}
	tools := mcpserver.NewAccountTools(fake, testLogger())

	result, err := tools.GetUSDCBalance(context.Background(), callRequest(map[string]any{}))

	require.NoError(t, err)
	payload := textPayload(t, result)
	assert.Contains(t, payload["error"], "Error getting USDC balance:")
}

func TestGetPortfolioValue_Envelope(t *testing.T) {
	fake := &fakeAccountService{value: json.RawMessage(`{"user":"0x2222","value":412.3}`)}
	tools := mcpserver.NewAccountTools(fake, testLogger())

	result, err := tools.GetPortfolioValue(context.Background(), callRequest(map[string]any{}))

	require.NoError(t, err)
	payload := textPayload(t, result)
	assert.Equal(t, fakeWallet, payload["user"])

	value, ok := payload["portfolio_value"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 412.3, value["value"])
}

func TestGetPortfolioValue_ErrorCarriesEmptyObject(t *testing.T) {
	fake := &fakeAccountService{err: errors.New("data api is down")}
	tools := mcpserver.NewAccountTools(fake, testLogger())

	result, err := tools.GetPortfolioValue(context.Background(), callRequest(map[string]any{}))

	require.NoError(t, err)
	payload := textPayload(t, result)
	assert.Contains(t, payload["error"], "Error getting portfolio value:")
	assert.Equal(t, map[string]any{}, payload["portfolio_value"])
}

func TestGetPositions_Envelope(t *testing.T) {
	fake := &fakeAccountService{rows: []json.RawMessage{
		json.RawMessage(`{"asset":"101"}`),
		json.RawMessage(`{"asset":"102"}`),
	}}
	tools := mcpserver.NewAccountTools(fake, testLogger())

	result, err := tools.GetPositions(context.Background(), callRequest(map[string]any{"limit": float64(50)}))

	require.NoError(t, err)
	payload := textPayload(t, result)
	assert.Equal(t, 50, fake.limit)
	assert.Equal(t, fakeWallet, payload["user"])
	assert.Equal(t, float64(2), payload["count"])
	assert.Len(t, payload["positions"], 2)
}

func TestGetPositions_ErrorCarriesEmptyList(t *testing.T) {
	fake := &fakeAccountService{err: errors.New("data api is down")}
	tools := mcpserver.NewAccountTools(fake, testLogger())

	result, err := tools.GetPositions(context.Background(), callRequest(map[string]any{}))

	require.NoError(t, err)
	payload := textPayload(t, result)
	assert.Contains(t, payload["error"], "Error getting positions:")
	assert.Equal(t, []any{}, payload["positions"])
}

func TestGetClosedPositions_Envelope(t *testing.T) {
	fake := &fakeAccountService{rows: []json.RawMessage{
		json.RawMessage(`{"asset":"101","realizedPnl":3.2}`),
	}}
	tools := mcpserver.NewAccountTools(fake, testLogger())

	result, err := tools.GetClosedPositions(context.Background(), callRequest(map[string]any{}))

	require.NoError(t, err)
	payload := textPayload(t, result)
	assert.Equal(t, float64(1), payload["count"])
	assert.Len(t, payload["closed_positions"], 1)
}

func TestGetClosedPositions_UpstreamError(t *testing.T) {
	fake := &fakeAccountService{err: errors.New("data api is down")}
	tools := mcpserver.NewAccountTools(fake, testLogger())

	result, err := tools.GetClosedPositions(context.Background(), callRequest(map[string]any{}))

	require.NoError(t, err)
	payload := textPayload(t, result)
	assert.Contains(t, payload["error"], "Error getting closed positions:")
	assert.Equal(t, []any{}, payload["closed_positions"])
}

func TestGetTrades_Envelope(t *testing.T) {
	fake := &fakeAccountService{rows: []json.RawMessage{
		json.RawMessage(`{"side":"BUY","size":10}`),
	}}
	tools := mcpserver.NewAccountTools(fake, testLogger())

	other := "0x2222222222222222222222222222222222222222"
	result, err := tools.GetTrades(context.Background(), callRequest(map[string]any{"user": other}))

	require.NoError(t, err)
	payload := textPayload(t, result)
	assert.Equal(t, other, fake.user)
	assert.Equal(t, other, payload["user"])
	assert.Equal(t, float64(1), payload["count"])
	assert.Len(t, payload["trades"], 1)
}

func TestGetTrades_UpstreamError(t *testing.T) {
	fake := &fakeAccountService{err: errors.New("data api is down")}
	tools := mcpserver.NewAccountTools(fake, testLogger())

	result, err := tools.GetTrades(context.Background(), callRequest(map[string]any{}))

	require.NoError(t, err)
	payload := textPayload(t, result)
	assert.Contains(t, payload["error"], "Error getting trades:")
	assert.Equal(t, []any{}, payload["trades"])
}

func TestRedeemPosition_Envelope(t *testing.T) {
	fake := &fakeAccountService{txHash: "0xdeadbeef"}
	tools := mcpserver.NewAccountTools(fake, testLogger())

	result, err := tools.RedeemPosition(context.Background(), callRequest(map[string]any{
		"condition_id": "0xcond",
		"index_sets":   []any{float64(1), float64(2)},
	}))

	require.NoError(t, err)
	payload := textPayload(t, result)
	assert.Equal(t, "0xcond", fake.conditionID)
	assert.Equal(t, []int{1, 2}, fake.indexSets)
	assert.Equal(t, "0xcond", payload["condition_id"])
	assert.Equal(t, []any{float64(1), float64(2)}, payload["index_sets"])
	assert.Equal(t, "0xdeadbeef", payload["tx_hash"])
}

func TestRedeemPosition_MissingConditionID(t *testing.T) {
	fake := &fakeAccountService{}
	tools := mcpserver.NewAccountTools(fake, testLogger())

	result, err := tools.RedeemPosition(context.Background(), callRequest(map[string]any{
		"index_sets": []any{float64(1)},
	}))

	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Zero(t, fake.calls)
}

func TestRedeemPosition_EmptyIndexSets(t *testing.T) {
	fake := &fakeAccountService{}
	tools := mcpserver.NewAccountTools(fake, testLogger())

	result, err := tools.RedeemPosition(context.Background(), callRequest(map[string]any{
		"condition_id": "0xcond",
		"index_sets":   []any{},
	}))

	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Zero(t, fake.calls)
}

func TestRedeemPosition_UpstreamError(t *testing.T) {
	fake := &fakeAccountService{err: errors.New("execution reverted")}
	tools := mcpserver.NewAccountTools(fake, testLogger())

	result, err := tools.RedeemPosition(context.Background(), callRequest(map[string]any{
		"condition_id": "0xcond",
		"index_sets":   []any{float64(1)},
	}))

	require.NoError(t, err)
	payload := textPayload(t, result)
	assert.Contains(t, payload["error"], "Error redeeming position:")
	assert.Contains(t, payload["error"], "execution reverted")
}
