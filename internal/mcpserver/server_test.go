package mcpserver_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutmanan/polymarket-mcp/internal/mcpserver"
)

func newTestServer() *mcpserver.Server {
	logger := testLogger()
	return mcpserver.New("0.0.0-test", mcpserver.Tools{
		Markets:  mcpserver.NewMarketTools(&fakeMarketService{}, logger),
		Books:    mcpserver.NewBookTools(&fakeBookService{}, logger),
		Trading:  mcpserver.NewTradingTools(&fakeTradingService{}, logger),
		Accounts: mcpserver.NewAccountTools(&fakeAccountService{}, logger),
	}, logger)
}

// Drives a full stdio session: initialize, then tools/list, then shutdown
// via context cancellation.
func TestServe_RegistersAllTools(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := newTestServer()

	stdinR, stdinW := io.Pipe()
	stdoutR, stdoutW := io.Pipe()

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx, stdinR, stdoutW)
	}()

	out := bufio.NewReader(stdoutR)
	send := func(msg string) {
		_, err := fmt.Fprintln(stdinW, msg)
		require.NoError(t, err)
	}
	recv := func() map[string]any {
		line, err := out.ReadString('\n')
		require.NoError(t, err)
		var decoded map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &decoded))
		return decoded
	}

	send(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test-client","version":"0.0.0"}}}`)
	init := recv()
	initResult, ok := init["result"].(map[string]any)
	require.True(t, ok, "initialize failed: %v", init)
	serverInfo, ok := initResult["serverInfo"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Polymarket MCP", serverInfo["name"])
	assert.Equal(t, "0.0.0-test", serverInfo["version"])

	send(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	list := recv()
	listResult, ok := list["result"].(map[string]any)
	require.True(t, ok, "tools/list failed: %v", list)
	rawTools, ok := listResult["tools"].([]any)
	require.True(t, ok)

	var names []string
	for _, raw := range rawTools {
		tool, ok := raw.(map[string]any)
		require.True(t, ok)
		name, ok := tool["name"].(string)
		require.True(t, ok)
		names = append(names, name)
	}

	expected := []string{
		"get_market",
		"get_markets",
		"get_tradeable_markets",
		"search_markets",
		"get_events",
		"get_event",
		"get_order_book",
		"get_live_order_book",
		"get_mid_price",
		"get_price",
		"place_limit_order",
		"place_market_order",
		"cancel_order",
		"get_usdc_balance",
		"get_portfolio_value",
		"get_positions",
		"get_closed_positions",
		"get_trades",
		"redeem_position",
	}
	for _, name := range expected {
		assert.Contains(t, names, name)
	}
	assert.Len(t, names, len(expected))

	cancel()
	require.NoError(t, stdinW.Close())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after context cancellation")
	}
}

// A tool invoked over the wire returns its envelope as text content, with
// upstream failures inside the envelope rather than as protocol errors.
func TestServe_ToolCallReturnsEnvelope(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := newTestServer()

	stdinR, stdinW := io.Pipe()
	stdoutR, stdoutW := io.Pipe()

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx, stdinR, stdoutW)
	}()

	out := bufio.NewReader(stdoutR)
	send := func(msg string) {
		_, err := fmt.Fprintln(stdinW, msg)
		require.NoError(t, err)
	}
	recv := func() map[string]any {
		line, err := out.ReadString('\n')
		require.NoError(t, err)
		var decoded map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &decoded))
		return decoded
	}

	send(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test-client","version":"0.0.0"}}}`)
	recv()

	send(`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"get_mid_price","arguments":{"token_id":"123"}}}`)
	call := recv()
	callResult, ok := call["result"].(map[string]any)
	require.True(t, ok, "tools/call failed: %v", call)
	content, ok := callResult["content"].([]any)
	require.True(t, ok)
	require.Len(t, content, 1)
	text, ok := content[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "text", text["type"])

	var envelope map[string]any
	require.NoError(t, json.Unmarshal([]byte(text["text"].(string)), &envelope))
	assert.Equal(t, "123", envelope["token_id"])
	assert.Contains(t, envelope, "mid_price")

	cancel()
	require.NoError(t, stdinW.Close())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after context cancellation")
	}
}
