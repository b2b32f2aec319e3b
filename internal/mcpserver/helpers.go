package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
)

// loggerKey is the context key under which the middleware stashes the
// invocation-scoped logger.
type loggerKey struct{}

// withRequestLogger returns a context carrying the invocation-scoped logger.
func withRequestLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// requestLogger returns the invocation-scoped logger from the context, or
// the fallback when the handler runs outside the middleware.
func requestLogger(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return fallback
}

// jsonResult marshals v as JSON and wraps it as the tool's text content.
// Every handler funnels its envelope through here, success and failure
// alike, so callers always receive a JSON payload. If marshaling fails, it
// falls back to a plain error envelope.
func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultText(`{"error":"internal serialization failure"}`)
	}
	return mcp.NewToolResultText(string(data))
}

// nonNil coerces a nil slice to an empty one so envelopes carry a JSON
// array, never null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
