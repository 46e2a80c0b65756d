package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.Mode != "scan" {
		t.Errorf("default mode = %q, want scan", cfg.Mode)
	}
	if cfg.Detector.MaxCycleLength != 6 || cfg.Detector.MinProfitPct != 0.1 {
		t.Errorf("detector defaults = %+v", cfg.Detector)
	}
	if cfg.Graph.CexFee != 0.001 || cfg.Graph.DexFee != 0.003 {
		t.Errorf("graph fee defaults = %+v", cfg.Graph)
	}
	if cfg.Redis.TTL.Duration != 60*time.Second {
		t.Errorf("redis ttl default = %v, want 60s", cfg.Redis.TTL.Duration)
	}
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
mode = "serve"

[app]
log_level = "debug"

[scan]
interval = "15s"
starting_capital_usd = 5000.0

[venues]
centralized = ["binance", "kraken"]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("ARBI_MODE", "feed")
	t.Setenv("ARBI_REDIS_ADDR", "redis.internal:6380")
	t.Setenv("ARBI_SCAN_TOP_N", "25")
	t.Setenv("ARBI_BINANCE_API_SECRET", "topsecret")
	t.Setenv("ARBI_VENUES_DECENTRALIZED", "uniswap_v3, sushiswap")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// File beats defaults.
	if cfg.App.LogLevel != "debug" {
		t.Errorf("log_level = %q, want debug", cfg.App.LogLevel)
	}
	if cfg.Scan.Interval.Duration != 15*time.Second {
		t.Errorf("interval = %v, want 15s", cfg.Scan.Interval.Duration)
	}
	if cfg.Scan.StartingCapitalUSD != 5000 {
		t.Errorf("starting capital = %v, want 5000", cfg.Scan.StartingCapitalUSD)
	}

	// Env beats file.
	if cfg.Mode != "feed" {
		t.Errorf("mode = %q, want feed (env override)", cfg.Mode)
	}
	if cfg.Redis.Addr != "redis.internal:6380" {
		t.Errorf("redis addr = %q", cfg.Redis.Addr)
	}
	if cfg.Scan.TopN != 25 {
		t.Errorf("top_n = %d, want 25", cfg.Scan.TopN)
	}
	if cfg.Binance.ApiSecret != "topsecret" {
		t.Errorf("binance secret not applied from env")
	}
	if len(cfg.Venues.Decentralized) != 2 || cfg.Venues.Decentralized[1] != "sushiswap" {
		t.Errorf("decentralized venues = %v", cfg.Venues.Decentralized)
	}

	// Untouched sections keep defaults.
	if cfg.Graph.DexFee != 0.003 {
		t.Errorf("dex fee = %v, want default 0.003", cfg.Graph.DexFee)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("missing file must fail")
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "race"
	cfg.App.LogLevel = "loud"
	cfg.Scan.StartingCapitalUSD = 0
	cfg.Detector.MaxCycleLength = 1
	cfg.Graph.CexFee = 1.5
	cfg.Redis.Addr = ""
	cfg.Ethereum.Enabled = true
	cfg.Notify.TelegramToken = "tok" // chat id missing

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	for _, want := range []string{
		"unknown mode", "unknown log_level", "starting_capital_usd",
		"max_cycle_length", "cex_fee", "redis", "rpc_url", "telegram_chat_id",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%v", want, err)
		}
	}
}

func TestValidateBinanceSecretSources(t *testing.T) {
	cfg := Defaults()
	cfg.Binance.ApiKey = "key"
	if err := cfg.Validate(); err == nil {
		t.Error("api_key without a secret source must fail")
	}

	cfg.Binance.ApiSecretEnc = "/etc/arbi/binance.enc"
	if err := cfg.Validate(); err == nil {
		t.Error("encrypted secret without key_password must fail")
	}

	cfg.Binance.KeyPassword = "pw"
	if err := cfg.Validate(); err != nil {
		t.Errorf("complete encrypted credentials should validate: %v", err)
	}
}

func TestRedactedConfigHidesSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Redis.Password = "redispw"
	cfg.Postgres.DSN = "postgres://user:pw@host/db"
	cfg.S3.AccessKey = "AKIA"
	cfg.S3.SecretKey = "shhh"
	cfg.Binance.ApiSecret = "binsecret"
	cfg.Notify.TelegramToken = "tok"

	red := RedactedConfig(&cfg)

	for name, got := range map[string]string{
		"redis password": red.Redis.Password,
		"postgres dsn":   red.Postgres.DSN,
		"s3 access key":  red.S3.AccessKey,
		"s3 secret key":  red.S3.SecretKey,
		"binance secret": red.Binance.ApiSecret,
		"telegram token": red.Notify.TelegramToken,
	} {
		if got != "***" {
			t.Errorf("%s not redacted: %q", name, got)
		}
	}

	// Originals stay intact.
	if cfg.Binance.ApiSecret != "binsecret" {
		t.Error("redaction must not mutate the source config")
	}
	// Empty secrets stay empty rather than becoming placeholders.
	if red.Binance.KeyPassword != "" {
		t.Errorf("empty secret should stay empty, got %q", red.Binance.KeyPassword)
	}
}
