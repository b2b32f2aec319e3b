package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	s3blob "github.com/gutmanan/polymarket-mcp/internal/blob/s3"
	"github.com/gutmanan/polymarket-mcp/internal/config"
	"github.com/gutmanan/polymarket-mcp/internal/crypto"
	"github.com/gutmanan/polymarket-mcp/internal/domain"
	"github.com/gutmanan/polymarket-mcp/internal/platform/chain"
	"github.com/gutmanan/polymarket-mcp/internal/platform/polymarket"
	"github.com/gutmanan/polymarket-mcp/internal/service"
	"github.com/gutmanan/polymarket-mcp/internal/store/postgres"
)

// Dependencies bundles everything the application modes need to operate. It
// is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Signing
	Signer *crypto.Signer

	// Upstream clients
	Clob  *polymarket.ClobClient
	Gamma *polymarket.GammaClient
	Data  *polymarket.DataClient
	Live  *polymarket.LiveBookClient
	Chain *chain.Client

	// Services
	Markets  *service.MarketService
	Books    *service.BookService
	Trading  *service.TradingService
	Accounts *service.AccountService

	// Audit journal (nil when disabled)
	Journal domain.AuditJournal

	// Blob storage (archive mode only)
	BlobWriter *s3blob.Writer
	Archiver   *s3blob.Archiver
}

// needsToolSurface returns true for modes that serve MCP tools and therefore
// need the upstream clients and services.
func needsToolSurface(mode string) bool {
	return mode == "serve"
}

// needsBlob returns true for modes that upload to object storage.
func needsBlob(mode string) bool {
	return mode == "archive"
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}
	mode := strings.ToLower(cfg.Mode)

	// --- Signing key ---
	key, err := crypto.LoadKey(crypto.KeySource{
		RawHex:        cfg.Wallet.PrivateKey,
		EncryptedPath: cfg.Wallet.EncryptedKeyPath,
		Password:      cfg.Wallet.KeyPassword,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: load signing key: %w", err)
	}
	signer := crypto.NewSigner(key, cfg.Polymarket.ChainID)
	deps.Signer = signer
	logger.InfoContext(ctx, "wire: signing key loaded",
		slog.String("address", signer.Address().Hex()),
	)

	// --- PostgreSQL audit journal (optional; required by archive mode) ---
	if cfg.Journal.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Journal.DSN,
			Host:     cfg.Journal.Host,
			Port:     cfg.Journal.Port,
			Database: cfg.Journal.Database,
			User:     cfg.Journal.User,
			Password: cfg.Journal.Password,
			SSLMode:  cfg.Journal.SSLMode,
			MaxConns: cfg.Journal.PoolMaxConns,
			MinConns: cfg.Journal.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		// Run migrations if enabled.
		if cfg.Journal.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.Journal = postgres.NewJournalStore(pgClient.Pool())
	}

	// --- S3 blob storage (only for modes that upload archives) ---
	if needsBlob(mode) {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.Archive.Endpoint,
			Region:         cfg.Archive.Region,
			Bucket:         cfg.Archive.Bucket,
			AccessKey:      cfg.Archive.AccessKey,
			SecretKey:      cfg.Archive.SecretKey,
			ForcePathStyle: cfg.Archive.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		if err := s3Client.Health(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3 health: %w", err)
		}

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		if deps.Journal != nil {
			deps.Archiver = s3blob.NewArchiver(deps.Journal, deps.BlobWriter, logger)
		}
	}

	if !needsToolSurface(mode) {
		return deps, cleanup, nil
	}

	// --- CLOB credentials ---
	var creds *crypto.APICreds
	if cfg.Credentials.Provisioned() {
		creds = &crypto.APICreds{
			Key:        cfg.Credentials.ApiKey,
			Secret:     cfg.Credentials.Secret,
			Passphrase: cfg.Credentials.Passphrase,
		}
	} else {
		// Derive fresh credentials from the signing key.
		bootstrap := polymarket.NewClobClient(cfg.Polymarket.ClobHost, signer, nil)
		derived, err := bootstrap.DeriveAPIKey(ctx)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: derive api credentials: %w", err)
		}
		creds = derived
	}
	logger.InfoContext(ctx, "wire: clob credentials ready",
		slog.String("creds", creds.String()),
	)

	// --- Upstream clients ---
	deps.Clob = polymarket.NewClobClient(cfg.Polymarket.ClobHost, signer, creds)
	deps.Gamma = polymarket.NewGammaClient(cfg.Polymarket.GammaHost)
	deps.Data = polymarket.NewDataClient(cfg.Polymarket.DataHost)
	deps.Live = polymarket.NewLiveBookClient(cfg.Polymarket.WsHost)

	chainClient, err := chain.NewClient(cfg.Chain.RpcURL, key, cfg.Polymarket.ChainID)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: chain: %w", err)
	}
	closers = append(closers, chainClient.Close)
	deps.Chain = chainClient

	// --- Services ---
	deps.Markets = service.NewMarketService(deps.Clob, deps.Gamma, logger)
	deps.Books = service.NewBookService(deps.Clob, deps.Live, logger)

	trading := service.NewTradingService(deps.Clob, signer, cfg.Polymarket.ChainID, cfg.Polymarket.SignatureType, logger)
	accounts := service.NewAccountService(deps.Data, deps.Chain, signer.Address().Hex(), logger)
	if deps.Journal != nil {
		trading = trading.WithJournal(deps.Journal)
		accounts = accounts.WithJournal(deps.Journal)
	}
	deps.Trading = trading
	deps.Accounts = accounts

	return deps, cleanup, nil
}
