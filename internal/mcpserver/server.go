// Package mcpserver exposes the market, order book, trading, and account
// facades as MCP tools over a stdio transport. Handlers convert every
// outcome, success or failure, into a JSON envelope; stdout belongs to the
// protocol, so all diagnostics go through slog to stderr.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// serverName is the implementation name advertised during the MCP
// initialize handshake.
const serverName = "Polymarket MCP"

// Tools aggregates all tool handlers that the server needs to register.
type Tools struct {
	Markets  *MarketTools
	Books    *BookTools
	Trading  *TradingTools
	Accounts *AccountTools
}

// Server is the MCP tool server for the Polymarket facades.
type Server struct {
	mcp    *server.MCPServer
	logger *slog.Logger
}

// New creates a Server with every tool registered. Handlers run behind a
// recovery wrapper and a logging middleware that scopes each invocation
// with a fresh UUID.
func New(version string, tools Tools, logger *slog.Logger) *Server {
	s := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithToolHandlerMiddleware(loggingMiddleware(logger)),
	)

	// --- Register tools ---

	tools.Markets.Register(s)
	tools.Books.Register(s)
	tools.Trading.Register(s)
	tools.Accounts.Register(s)

	return &Server{
		mcp:    s,
		logger: logger,
	}
}

// Serve runs the stdio transport until the context is cancelled or the
// input stream closes. It blocks for the lifetime of the session.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))

	s.logger.InfoContext(ctx, "mcpserver: serving over stdio",
		slog.String("server", serverName),
	)

	if err := stdio.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcpserver: listen: %w", err)
	}
	return nil
}

// loggingMiddleware wraps every tool handler with an invocation-scoped
// logger carrying the tool name and a fresh invocation ID, and logs each
// invocation with its duration and outcome.
func loggingMiddleware(logger *slog.Logger) server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			start := time.Now()

			scoped := logger.With(
				slog.String("tool", request.Params.Name),
				slog.String("invocation_id", uuid.NewString()),
			)

			result, err := next(withRequestLogger(ctx, scoped), request)

			scoped.InfoContext(ctx, "tool invocation",
				slog.Duration("duration", time.Since(start)),
				slog.Bool("is_error", err != nil || (result != nil && result.IsError)),
			)

			return result, err
		}
	}
}
