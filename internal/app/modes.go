package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gutmanan/polymarket-mcp/internal/mcpserver"
)

// ServeMode runs the MCP tool server over stdio. It returns when the client
// closes the input stream or the context is cancelled.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)

	srv := mcpserver.New(version, mcpserver.Tools{
		Markets:  mcpserver.NewMarketTools(deps.Markets, a.logger),
		Books:    mcpserver.NewBookTools(deps.Books, a.logger),
		Trading:  mcpserver.NewTradingTools(deps.Trading, a.logger),
		Accounts: mcpserver.NewAccountTools(deps.Accounts, a.logger),
	}, a.logger)

	g.Go(func() error {
		return srv.Serve(ctx, os.Stdin, os.Stdout)
	})

	return g.Wait()
}

// ArchiveMode runs a single journal archive pass: rows older than the
// retention window are uploaded to the blob store as JSONL, then pruned from
// the journal. The process exits when the pass completes.
func (a *App) ArchiveMode(ctx context.Context, deps *Dependencies) error {
	if deps.Archiver == nil {
		return fmt.Errorf("app: archive mode requires the journal and blob store")
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -a.cfg.Archive.RetentionDays)
	a.logger.InfoContext(ctx, "starting archive mode",
		slog.Int("retention_days", a.cfg.Archive.RetentionDays),
		slog.Time("cutoff", cutoff),
	)

	archived, err := deps.Archiver.Run(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("app: archive run: %w", err)
	}

	a.logger.InfoContext(ctx, "archive mode complete",
		slog.Int64("rows_archived", archived),
	)
	return nil
}
