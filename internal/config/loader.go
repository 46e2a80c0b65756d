package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARBI_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ARBI_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── App ──
	setStr(&cfg.App.Name, "ARBI_APP_NAME")
	setStr(&cfg.App.Env, "ARBI_APP_ENV")
	setStr(&cfg.App.LogLevel, "ARBI_LOG_LEVEL")

	// ── Scan ──
	setDuration(&cfg.Scan.Interval, "ARBI_SCAN_INTERVAL")
	setFloat64(&cfg.Scan.StartingCapitalUSD, "ARBI_SCAN_STARTING_CAPITAL_USD")
	setInt(&cfg.Scan.TopN, "ARBI_SCAN_TOP_N")

	// ── Detector ──
	setInt(&cfg.Detector.MaxCycleLength, "ARBI_DETECTOR_MAX_CYCLE_LENGTH")
	setFloat64(&cfg.Detector.MinProfitPct, "ARBI_DETECTOR_MIN_PROFIT_PCT")
	setInt(&cfg.Detector.MaxCycles, "ARBI_DETECTOR_MAX_CYCLES")

	// ── Graph ──
	setFloat64(&cfg.Graph.CexFee, "ARBI_GRAPH_CEX_FEE")
	setFloat64(&cfg.Graph.DexFee, "ARBI_GRAPH_DEX_FEE")

	// ── Statistical ──
	setInt(&cfg.Statistical.Window, "ARBI_STATISTICAL_WINDOW")
	setInt(&cfg.Statistical.MinPoints, "ARBI_STATISTICAL_MIN_POINTS")
	setFloat64(&cfg.Statistical.ZThreshold, "ARBI_STATISTICAL_Z_THRESHOLD")
	setFloat64(&cfg.Statistical.CorrelationFloor, "ARBI_STATISTICAL_CORRELATION_FLOOR")
	setFloat64(&cfg.Statistical.ConfidenceFloor, "ARBI_STATISTICAL_CONFIDENCE_FLOOR")

	// ── Venues ──
	setStringSlice(&cfg.Venues.Centralized, "ARBI_VENUES_CENTRALIZED")
	setStringSlice(&cfg.Venues.Decentralized, "ARBI_VENUES_DECENTRALIZED")
	setStringSlice(&cfg.Venues.Pairs, "ARBI_VENUES_PAIRS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "ARBI_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARBI_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARBI_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ARBI_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ARBI_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ARBI_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.TTL, "ARBI_REDIS_TTL")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "ARBI_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "ARBI_POSTGRES_DSN")
	setInt(&cfg.Postgres.PoolMaxConns, "ARBI_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "ARBI_POSTGRES_POOL_MIN_CONNS")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "ARBI_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "ARBI_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ARBI_S3_REGION")
	setStr(&cfg.S3.Bucket, "ARBI_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "ARBI_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ARBI_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "ARBI_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "ARBI_S3_FORCE_PATH_STYLE")

	// ── Binance ──
	setStr(&cfg.Binance.ApiKey, "ARBI_BINANCE_API_KEY")
	setStr(&cfg.Binance.ApiSecret, "ARBI_BINANCE_API_SECRET")
	setStr(&cfg.Binance.ApiSecretEnc, "ARBI_BINANCE_API_SECRET_ENC")
	setStr(&cfg.Binance.KeyPassword, "ARBI_BINANCE_KEY_PASSWORD")
	setStr(&cfg.Binance.BaseURL, "ARBI_BINANCE_BASE_URL")
	setStr(&cfg.Binance.WsURL, "ARBI_BINANCE_WS_URL")

	// ── Ethereum ──
	setBool(&cfg.Ethereum.Enabled, "ARBI_ETHEREUM_ENABLED")
	setStr(&cfg.Ethereum.RpcURL, "ARBI_ETHEREUM_RPC_URL")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "ARBI_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ARBI_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ARBI_NOTIFY_DISCORD_WEBHOOK_URL")
	setFloat64(&cfg.Notify.MinProfitPct, "ARBI_NOTIFY_MIN_PROFIT_PCT")
	setStringSlice(&cfg.Notify.Events, "ARBI_NOTIFY_EVENTS")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "ARBI_SERVER_ENABLED")
	setStr(&cfg.Server.Addr, "ARBI_SERVER_ADDR")
	setStr(&cfg.Server.APIKey, "ARBI_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "ARBI_SERVER_CORS_ORIGINS")

	// ── Top-level ──
	setStr(&cfg.Mode, "ARBI_MODE")
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

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
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

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
