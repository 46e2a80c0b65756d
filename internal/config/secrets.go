package config

// RedactedConfig returns a shallow copy of cfg with sensitive fields replaced
// by the redaction placeholder "***". Use this when logging or printing the
// active configuration so secrets are never accidentally exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg // shallow copy of the top-level struct

	// Redis
	out.Redis = cfg.Redis
	redact(&out.Redis.Password)

	// Postgres
	out.Postgres = cfg.Postgres
	redact(&out.Postgres.DSN)

	// S3
	out.S3 = cfg.S3
	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)

	// Binance
	out.Binance = cfg.Binance
	redact(&out.Binance.ApiSecret)
	redact(&out.Binance.KeyPassword)

	// Ethereum RPC URLs often embed provider API keys.
	out.Ethereum = cfg.Ethereum
	redact(&out.Ethereum.RpcURL)

	// Server
	out.Server = cfg.Server
	redact(&out.Server.APIKey)

	// Notify
	out.Notify = cfg.Notify
	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)

	// Copy slices so callers cannot mutate the original through the redacted
	// copy.
	if cfg.Notify.Events != nil {
		out.Notify.Events = make([]string, len(cfg.Notify.Events))
		copy(out.Notify.Events, cfg.Notify.Events)
	}
	if cfg.Server.CORSOrigins != nil {
		out.Server.CORSOrigins = make([]string, len(cfg.Server.CORSOrigins))
		copy(out.Server.CORSOrigins, cfg.Server.CORSOrigins)
	}
	if cfg.Venues.Centralized != nil {
		out.Venues.Centralized = make([]string, len(cfg.Venues.Centralized))
		copy(out.Venues.Centralized, cfg.Venues.Centralized)
	}
	if cfg.Venues.Decentralized != nil {
		out.Venues.Decentralized = make([]string, len(cfg.Venues.Decentralized))
		copy(out.Venues.Decentralized, cfg.Venues.Decentralized)
	}
	if cfg.Venues.Pairs != nil {
		out.Venues.Pairs = make([]string, len(cfg.Venues.Pairs))
		copy(out.Venues.Pairs, cfg.Venues.Pairs)
	}

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
