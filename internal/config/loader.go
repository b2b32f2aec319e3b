package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path (optional; pass "" to run on
// defaults plus environment alone), merges it on top of the built-in
// defaults, applies POLYMCP_* environment variable overrides, and returns
// the final Config. The returned Config has NOT been validated; the caller
// should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known POLYMCP_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). A few bare names are honored too, so existing wallet and CLOB
// credential variables keep working unchanged.
func applyEnvOverrides(cfg *Config) {
	// ── Wallet ──
	setStr(&cfg.Wallet.PrivateKey, "PRIVATE_KEY") // compatibility alias
	setStr(&cfg.Wallet.PrivateKey, "POLYMCP_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.EncryptedKeyPath, "POLYMCP_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "POLYMCP_WALLET_KEY_PASSWORD")

	// ── Polymarket ──
	setStr(&cfg.Polymarket.ClobHost, "CLOB_HOST") // compatibility alias
	setStr(&cfg.Polymarket.ClobHost, "POLYMCP_POLYMARKET_CLOB_HOST")
	setStr(&cfg.Polymarket.GammaHost, "GAMMA_HOST") // compatibility alias
	setStr(&cfg.Polymarket.GammaHost, "POLYMCP_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.DataHost, "DATA_HOST") // compatibility alias
	setStr(&cfg.Polymarket.DataHost, "POLYMCP_POLYMARKET_DATA_HOST")
	setStr(&cfg.Polymarket.WsHost, "POLYMCP_POLYMARKET_WS_HOST")
	setInt(&cfg.Polymarket.ChainID, "POLYMCP_POLYMARKET_CHAIN_ID")
	setInt(&cfg.Polymarket.SignatureType, "POLYMCP_POLYMARKET_SIGNATURE_TYPE")

	// ── Credentials ──
	setStr(&cfg.Credentials.ApiKey, "CLOB_API_KEY") // compatibility alias
	setStr(&cfg.Credentials.ApiKey, "POLYMCP_CREDENTIALS_API_KEY")
	setStr(&cfg.Credentials.Secret, "CLOB_SECRET") // compatibility alias
	setStr(&cfg.Credentials.Secret, "POLYMCP_CREDENTIALS_SECRET")
	setStr(&cfg.Credentials.Passphrase, "CLOB_PASS_PHRASE") // compatibility alias
	setStr(&cfg.Credentials.Passphrase, "POLYMCP_CREDENTIALS_PASSPHRASE")

	// ── Chain ──
	setStr(&cfg.Chain.RpcURL, "RPC_URL") // compatibility alias
	setStr(&cfg.Chain.RpcURL, "POLYMCP_CHAIN_RPC_URL")

	// ── Journal ──
	setBool(&cfg.Journal.Enabled, "POLYMCP_JOURNAL_ENABLED")
	setStr(&cfg.Journal.DSN, "POLYMCP_JOURNAL_DSN")
	setStr(&cfg.Journal.Host, "POLYMCP_JOURNAL_HOST")
	setInt(&cfg.Journal.Port, "POLYMCP_JOURNAL_PORT")
	setStr(&cfg.Journal.Database, "POLYMCP_JOURNAL_DATABASE")
	setStr(&cfg.Journal.User, "POLYMCP_JOURNAL_USER")
	setStr(&cfg.Journal.Password, "POLYMCP_JOURNAL_PASSWORD")
	setStr(&cfg.Journal.SSLMode, "POLYMCP_JOURNAL_SSLMODE")
	setStr(&cfg.Journal.SSLMode, "POLYMCP_JOURNAL_SSL_MODE") // compatibility alias
	setInt(&cfg.Journal.PoolMaxConns, "POLYMCP_JOURNAL_POOL_MAX_CONNS")
	setInt(&cfg.Journal.PoolMinConns, "POLYMCP_JOURNAL_POOL_MIN_CONNS")
	setBool(&cfg.Journal.RunMigrations, "POLYMCP_JOURNAL_RUN_MIGRATIONS")

	// ── Archive ──
	setStr(&cfg.Archive.Endpoint, "POLYMCP_ARCHIVE_ENDPOINT")
	setStr(&cfg.Archive.Region, "POLYMCP_ARCHIVE_REGION")
	setStr(&cfg.Archive.Bucket, "POLYMCP_ARCHIVE_BUCKET")
	setStr(&cfg.Archive.AccessKey, "POLYMCP_ARCHIVE_ACCESS_KEY")
	setStr(&cfg.Archive.SecretKey, "POLYMCP_ARCHIVE_SECRET_KEY")
	setBool(&cfg.Archive.ForcePathStyle, "POLYMCP_ARCHIVE_FORCE_PATH_STYLE")
	setInt(&cfg.Archive.RetentionDays, "POLYMCP_ARCHIVE_RETENTION_DAYS")

	// ── Top-level ──
	setStr(&cfg.Mode, "POLYMCP_MODE")
	setStr(&cfg.LogLevel, "POLYMCP_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
