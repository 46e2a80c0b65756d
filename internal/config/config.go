// Package config defines the top-level configuration for the arbitrage
// engine and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by ARBI_* environment variables.
type Config struct {
	App         AppConfig         `toml:"app"`
	Scan        ScanConfig        `toml:"scan"`
	Detector    DetectorConfig    `toml:"detector"`
	Graph       GraphConfig       `toml:"graph"`
	Statistical StatisticalConfig `toml:"statistical"`
	Venues      VenuesConfig      `toml:"venues"`
	Redis       RedisConfig       `toml:"redis"`
	Postgres    PostgresConfig    `toml:"postgres"`
	S3          S3Config          `toml:"s3"`
	Binance     BinanceConfig     `toml:"binance"`
	Ethereum    EthereumConfig    `toml:"ethereum"`
	Notify      NotifyConfig      `toml:"notify"`
	Server      ServerConfig      `toml:"server"`
	Mode        string            `toml:"mode"`
}

// AppConfig holds process-wide identity and logging parameters.
type AppConfig struct {
	Name     string `toml:"name"`
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
}

// ScanConfig holds the scan loop parameters.
type ScanConfig struct {
	Interval           duration `toml:"interval"`
	StartingCapitalUSD float64  `toml:"starting_capital_usd"`
	TopN               int      `toml:"top_n"`
}

// DetectorConfig holds cycle-detection parameters.
type DetectorConfig struct {
	MaxCycleLength int     `toml:"max_cycle_length"`
	MinProfitPct   float64 `toml:"min_profit_pct"`
	MaxCycles      int     `toml:"max_cycles"`
}

// GraphConfig holds graph-construction fee defaults.
type GraphConfig struct {
	CexFee float64 `toml:"cex_fee"`
	DexFee float64 `toml:"dex_fee"`
}

// StatisticalConfig holds the statistical strategy's history and anomaly
// thresholds.
type StatisticalConfig struct {
	Window           int     `toml:"window"`
	MinPoints        int     `toml:"min_points"`
	ZThreshold       float64 `toml:"z_threshold"`
	CorrelationFloor float64 `toml:"correlation_floor"`
	ConfidenceFloor  float64 `toml:"confidence_floor"`
}

// VenuesConfig lists the venues each feed provider should cover and the
// trading pairs to monitor on them.
type VenuesConfig struct {
	Centralized   []string `toml:"centralized"`
	Decentralized []string `toml:"decentralized"`
	Pairs         []string `toml:"pairs"`
}

// RedisConfig holds Redis connection parameters. TTL bounds the lifetime of
// cached scan results.
type RedisConfig struct {
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	TTL        duration `toml:"ttl"`
}

// PostgresConfig holds PostgreSQL connection parameters for the reference
// store.
type PostgresConfig struct {
	Enabled      bool   `toml:"enabled"`
	DSN          string `toml:"dsn"`
	PoolMaxConns int    `toml:"pool_max_conns"`
	PoolMinConns int    `toml:"pool_min_conns"`
}

// S3Config holds S3-compatible object storage parameters for snapshot
// archival.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// BinanceConfig holds Binance API endpoints and credentials. ApiSecretEnc
// points at an encrypted secret file; ApiSecret carries the plain secret
// when no encrypted file is used.
type BinanceConfig struct {
	ApiKey       string `toml:"api_key"`
	ApiSecret    string `toml:"api_secret"`
	ApiSecretEnc string `toml:"api_secret_enc"`
	KeyPassword  string `toml:"key_password"`
	BaseURL      string `toml:"base_url"`
	WsURL        string `toml:"ws_url"`
}

// EthereumConfig holds the on-chain price reader parameters.
type EthereumConfig struct {
	Enabled bool   `toml:"enabled"`
	RpcURL  string `toml:"rpc_url"`
}

// NotifyConfig holds notification channel credentials. MinProfitPct gates
// which opportunities are worth a message.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	MinProfitPct      float64  `toml:"min_profit_pct"`
	Events            []string `toml:"events"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Addr        string   `toml:"addr"`
	APIKey      string   `toml:"api_key"`
	CORSOrigins []string `toml:"cors_origins"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		App: AppConfig{
			Name:     "aiarbi",
			Env:      "dev",
			LogLevel: "info",
		},
		Scan: ScanConfig{
			Interval:           duration{30 * time.Second},
			StartingCapitalUSD: 1000,
			TopN:               10,
		},
		Detector: DetectorConfig{
			MaxCycleLength: 6,
			MinProfitPct:   0.1,
			MaxCycles:      50,
		},
		Graph: GraphConfig{
			CexFee: 0.001,
			DexFee: 0.003,
		},
		Statistical: StatisticalConfig{
			Window:           100,
			MinPoints:        20,
			ZThreshold:       2.0,
			CorrelationFloor: 0.7,
			ConfidenceFloor:  0.6,
		},
		Venues: VenuesConfig{
			Centralized:   []string{"binance", "kraken", "coinbase"},
			Decentralized: []string{"uniswap_v3"},
			Pairs: []string{
				"BTC/USDT", "ETH/USDT", "BNB/USDT", "ADA/USDT", "SOL/USDT",
				"MATIC/USDT", "DOT/USDT", "LINK/USDT", "ALGO/USDT",
			},
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
			TTL:        duration{60 * time.Second},
		},
		Postgres: PostgresConfig{
			Enabled:      false,
			PoolMaxConns: 10,
			PoolMinConns: 2,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "aiarbi-snapshots",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Binance: BinanceConfig{
			BaseURL: "https://api.binance.com",
			WsURL:   "wss://stream.binance.com:9443/ws",
		},
		Ethereum: EthereumConfig{
			Enabled: false,
		},
		Notify: NotifyConfig{
			MinProfitPct: 0.5,
			Events:       []string{"scan_complete", "opportunity_detected", "error"},
		},
		Server: ServerConfig{
			Enabled:     true,
			Addr:        ":8000",
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Mode: "scan",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"scan":  true,
	"serve": true,
	"feed":  true,
}

// validLogLevels enumerates the accepted values for AppConfig.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: scan, serve, feed)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.App.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.App.LogLevel))
	}

	// Scan
	if c.Scan.Interval.Duration <= 0 {
		errs = append(errs, "scan: interval must be positive")
	}
	if c.Scan.StartingCapitalUSD <= 0 {
		errs = append(errs, "scan: starting_capital_usd must be > 0")
	}
	if c.Scan.TopN < 1 {
		errs = append(errs, "scan: top_n must be >= 1")
	}

	// Detector
	if c.Detector.MaxCycleLength < 2 {
		errs = append(errs, "detector: max_cycle_length must be >= 2")
	}
	if c.Detector.MinProfitPct < 0 {
		errs = append(errs, "detector: min_profit_pct must not be negative")
	}
	if c.Detector.MaxCycles < 1 {
		errs = append(errs, "detector: max_cycles must be >= 1")
	}

	// Graph fees are fractions, not percentages.
	if c.Graph.CexFee < 0 || c.Graph.CexFee >= 1 {
		errs = append(errs, fmt.Sprintf("graph: cex_fee must be in [0, 1), got %v", c.Graph.CexFee))
	}
	if c.Graph.DexFee < 0 || c.Graph.DexFee >= 1 {
		errs = append(errs, fmt.Sprintf("graph: dex_fee must be in [0, 1), got %v", c.Graph.DexFee))
	}

	// Statistical
	if c.Statistical.Window < c.Statistical.MinPoints {
		errs = append(errs, "statistical: window must be >= min_points")
	}
	if c.Statistical.ZThreshold <= 0 {
		errs = append(errs, "statistical: z_threshold must be > 0")
	}
	if c.Statistical.CorrelationFloor < 0 || c.Statistical.CorrelationFloor > 1 {
		errs = append(errs, "statistical: correlation_floor must be in [0, 1]")
	}
	if c.Statistical.ConfidenceFloor < 0 || c.Statistical.ConfidenceFloor >= 1 {
		errs = append(errs, "statistical: confidence_floor must be in [0, 1)")
	}

	// Venues
	if len(c.Venues.Centralized)+len(c.Venues.Decentralized) == 0 {
		errs = append(errs, "venues: at least one venue must be configured")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// Postgres
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			errs = append(errs, "postgres: dsn is required when enabled")
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
	}

	// Binance — a signed client needs a key and exactly one secret source.
	if c.Binance.ApiKey != "" {
		hasPlain := c.Binance.ApiSecret != ""
		hasEnc := c.Binance.ApiSecretEnc != ""
		if !hasPlain && !hasEnc {
			errs = append(errs, "binance: api_secret or api_secret_enc is required when api_key is set")
		}
		if hasEnc && c.Binance.KeyPassword == "" {
			errs = append(errs, "binance: key_password is required when api_secret_enc is set")
		}
	}

	// Ethereum
	if c.Ethereum.Enabled && c.Ethereum.RpcURL == "" {
		errs = append(errs, "ethereum: rpc_url is required when enabled")
	}

	// Notify — token and chat id go together.
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	// Server
	if c.Server.Enabled && c.Server.Addr == "" {
		errs = append(errs, "server: addr must not be empty when enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
