package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/ethclient"

	s3blob "github.com/HonzaHezina/AIarbi/internal/blob/s3"
	"github.com/HonzaHezina/AIarbi/internal/cache/redis"
	"github.com/HonzaHezina/AIarbi/internal/config"
	"github.com/HonzaHezina/AIarbi/internal/crypto"
	"github.com/HonzaHezina/AIarbi/internal/domain"
	"github.com/HonzaHezina/AIarbi/internal/engine"
	"github.com/HonzaHezina/AIarbi/internal/feed"
	"github.com/HonzaHezina/AIarbi/internal/notify"
	"github.com/HonzaHezina/AIarbi/internal/platform/binance"
	"github.com/HonzaHezina/AIarbi/internal/platform/uniswap"
	"github.com/HonzaHezina/AIarbi/internal/store/postgres"
	"github.com/HonzaHezina/AIarbi/internal/strategy"

	"github.com/HonzaHezina/AIarbi/internal/arbitrage"
	"github.com/HonzaHezina/AIarbi/internal/graph"
	"github.com/HonzaHezina/AIarbi/internal/risk"
)

// Dependencies bundles everything the application modes need to operate. It
// is constructed by Wire and torn down by the returned cleanup function.
// Optional infrastructure that is disabled or unreachable leaves its field
// nil; the engine and the server treat nil collaborators as absent concerns.
type Dependencies struct {
	// Reference data
	RefStore domain.RefStore

	// Caches and coordination
	Opportunities domain.OpportunityCache
	PriceHistory  domain.PriceHistoryCache
	RateLimiter   domain.RateLimiter
	Locks         domain.LockManager
	Bus           domain.SignalBus

	// Cold storage
	Archiver domain.SnapshotArchiver

	// Market data
	Binance   *binance.Client
	Providers []feed.Provider
	Source    *feed.Aggregator

	// Detection pipeline
	Engine *engine.Engine

	// Notifications
	Notifier  *notify.Notifier
	Announcer *notify.OpportunityNotifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
//
// Redis, Postgres, S3 and the Ethereum RPC are all optional: a disabled or
// unreachable backend logs a warning and leaves the corresponding features
// off instead of failing startup. A scan with no infrastructure at all still
// works against simulated venues.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// Redis: opportunity cache, price history, scan lock, pub/sub, rate
	// limiting. Best-effort; everything it backs degrades to in-process.
	rc, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		logger.Warn("redis unavailable, caching and pub/sub disabled",
			slog.String("addr", cfg.Redis.Addr),
			slog.String("error", err.Error()),
		)
	} else {
		closers = append(closers, func() { _ = rc.Close() })
		deps.Opportunities = redis.NewOpportunityCache(rc)
		deps.PriceHistory = redis.NewPriceHistoryCache(rc)
		deps.RateLimiter = redis.NewRateLimiter(rc)
		deps.Locks = redis.NewLockManager(rc)
		deps.Bus = redis.NewSignalBus(rc)
	}

	// Postgres: slow-moving reference data (venue fees, transfer costs,
	// price overrides).
	if cfg.Postgres.Enabled {
		pc, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("app: connect postgres: %w", err)
		}
		closers = append(closers, pc.Close)
		deps.RefStore = postgres.NewRefStore(pc.Pool())
	}

	// S3: cold snapshot archive.
	if cfg.S3.Enabled {
		sc, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("app: connect s3: %w", err)
		}
		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(sc))
	}

	// Binance REST client. Book tickers are public; the HMAC credentials
	// only gate the signed account endpoints.
	auth, err := binanceAuth(cfg)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("app: binance credentials: %w", err)
	}
	deps.Binance = binance.NewClient(cfg.Binance.BaseURL, auth)

	// Feed providers: one per configured venue. Binance and uniswap_v3 are
	// quoted live when reachable, every other venue is simulated.
	providers, err := wireProviders(ctx, cfg, deps.Binance, logger, &closers)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	deps.Providers = providers
	deps.Source = feed.NewAggregator(providers, feed.AggregatorConfig{
		Pairs:  cfg.Venues.Pairs,
		Logger: logger,
	})

	// Notifications.
	deps.Notifier, deps.Announcer = wireNotify(cfg, logger)

	// Reference data overrides the built-in fee and cost tables.
	ref := loadReferenceData(ctx, deps.RefStore, logger)

	deps.Engine = wireEngine(cfg, deps, ref, logger)

	return deps, cleanup, nil
}

// binanceAuth resolves the Binance HMAC credentials. Returns nil when no API
// key is configured.
func binanceAuth(cfg *config.Config) (*crypto.HMACAuth, error) {
	if cfg.Binance.ApiKey == "" {
		return nil, nil
	}
	secret, err := crypto.LoadSecret(crypto.SecretConfig{
		RawSecret:           cfg.Binance.ApiSecret,
		EncryptedSecretPath: cfg.Binance.ApiSecretEnc,
		KeyPassword:         cfg.Binance.KeyPassword,
	})
	if err != nil {
		return nil, err
	}
	return &crypto.HMACAuth{Key: cfg.Binance.ApiKey, Secret: secret}, nil
}

// wireProviders maps the configured venue lists onto feed providers.
func wireProviders(ctx context.Context, cfg *config.Config, bn *binance.Client, logger *slog.Logger, closers *[]func()) ([]feed.Provider, error) {
	var providers []feed.Provider

	for i, venue := range cfg.Venues.Centralized {
		if venue == "binance" {
			providers = append(providers, feed.NewBinanceProvider(bn))
			continue
		}
		providers = append(providers, feed.NewStaticProvider(venue, domain.VenueCentralized, int64(i+1)))
	}

	for i, venue := range cfg.Venues.Decentralized {
		if venue == "uniswap_v3" && cfg.Ethereum.Enabled {
			ec, err := ethclient.DialContext(ctx, cfg.Ethereum.RpcURL)
			if err != nil {
				return nil, fmt.Errorf("app: dial ethereum rpc %s: %w", cfg.Ethereum.RpcURL, err)
			}
			*closers = append(*closers, ec.Close)
			reader := uniswap.NewReader(uniswap.ReaderConfig{Caller: ec, Logger: logger})
			providers = append(providers, feed.NewUniswapProvider(reader, venue))
			continue
		}
		providers = append(providers, feed.NewStaticProvider(venue, domain.VenueDecentralized, int64(100+i)))
	}

	if len(providers) == 0 {
		logger.Warn("no venues configured, falling back to simulated feeds")
		providers = []feed.Provider{
			feed.NewStaticProvider("binance", domain.VenueCentralized, 1),
			feed.NewStaticProvider("uniswap_v3", domain.VenueDecentralized, 100),
		}
	}
	return providers, nil
}

// wireNotify builds the notifier from whichever channels carry credentials.
// Both return values are nil when no channel is configured.
func wireNotify(cfg *config.Config, logger *slog.Logger) (*notify.Notifier, *notify.OpportunityNotifier) {
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if len(senders) == 0 {
		return nil, nil
	}
	notifier := notify.NewNotifier(senders, cfg.Notify.Events, logger)
	announcer := notify.NewOpportunityNotifier(notifier, notify.OpportunityNotifierConfig{
		MinProfitPct: cfg.Notify.MinProfitPct,
		Logger:       logger,
	})
	return notifier, announcer
}

// referenceData carries the fee and cost tables loaded from the RefStore,
// already shaped for the strategy injectors.
type referenceData struct {
	exchangeFees   map[string]float64
	gasUSD         map[string]float64
	transferCosts  map[string]domain.TransferCost
	priceOverrides map[string]float64
}

// loadReferenceData reads the store once at startup. A nil store or a failed
// read leaves the corresponding table nil, which means the injectors fall
// back to their built-in defaults.
func loadReferenceData(ctx context.Context, store domain.RefStore, logger *slog.Logger) referenceData {
	var ref referenceData
	if store == nil {
		return ref
	}

	if fees, err := store.VenueFees(ctx); err != nil {
		logger.Warn("venue fee load failed", slog.String("error", err.Error()))
	} else if len(fees) > 0 {
		ref.exchangeFees = make(map[string]float64, len(fees))
		ref.gasUSD = make(map[string]float64)
		for _, f := range fees {
			ref.exchangeFees[f.Venue] = f.TakerFee
			if f.GasUSD > 0 {
				ref.gasUSD[f.Venue] = f.GasUSD
			}
		}
	}

	if costs, err := store.TransferCosts(ctx); err != nil {
		logger.Warn("transfer cost load failed", slog.String("error", err.Error()))
	} else if len(costs) > 0 {
		ref.transferCosts = make(map[string]domain.TransferCost, len(costs))
		for _, c := range costs {
			ref.transferCosts[c.Token] = c
		}
	}

	if overrides, err := store.PriceOverrides(ctx); err != nil {
		logger.Warn("price override load failed", slog.String("error", err.Error()))
	} else if len(overrides) > 0 {
		ref.priceOverrides = make(map[string]float64, len(overrides))
		for _, o := range overrides {
			ref.priceOverrides[o.Token] = o.PriceUSD
		}
	}
	return ref
}

// wireEngine assembles the detection pipeline around the wired
// infrastructure.
func wireEngine(cfg *config.Config, deps *Dependencies, ref referenceData, logger *slog.Logger) *engine.Engine {
	builder := graph.NewBuilder(graph.BuilderConfig{
		CEXFee: cfg.Graph.CexFee,
		DEXFee: cfg.Graph.DexFee,
	}, logger)

	tracker := strategy.NewPriceTracker(cfg.Statistical.Window, deps.PriceHistory)
	statCfg := strategy.DefaultStatisticalConfig()
	statCfg.MinPoints = cfg.Statistical.MinPoints
	statCfg.ZThreshold = cfg.Statistical.ZThreshold
	statCfg.CorrelationMin = cfg.Statistical.CorrelationFloor
	statCfg.ConfidenceFloor = cfg.Statistical.ConfidenceFloor
	statistical := strategy.NewStatisticalInjector(statCfg, tracker, logger)

	registry := strategy.NewRegistry()
	registry.Register(strategy.NewDirectExchangeInjector(strategy.DirectExchangeConfig{
		ExchangeFees: ref.exchangeFees,
		GasUSD:       ref.gasUSD,
	}, logger))
	registry.Register(strategy.NewCrossExchangeInjector(strategy.CrossExchangeConfig{
		ExchangeFees:  ref.exchangeFees,
		TransferCosts: ref.transferCosts,
	}, logger))
	registry.Register(strategy.NewTriangularInjector(strategy.TriangularConfig{}, logger))
	registry.Register(strategy.NewWrappedTokenInjector(strategy.WrappedTokenConfig{
		GasUSD: ref.gasUSD,
	}, logger))
	registry.Register(statistical)

	detector := arbitrage.NewDetector(arbitrage.DetectorConfig{
		MinProfitPct:   cfg.Detector.MinProfitPct,
		MaxCycleLength: cfg.Detector.MaxCycleLength,
		MaxCycles:      cfg.Detector.MaxCycles,
		Logger:         logger,
	})
	simulator := arbitrage.NewSimulator(arbitrage.SimulatorConfig{
		DefaultFee:     cfg.Graph.CexFee,
		PriceOverrides: ref.priceOverrides,
		Logger:         logger,
	})
	scorer := risk.NewScorer(risk.ScorerConfig{Logger: logger})

	var announcer engine.Announcer
	if deps.Announcer != nil {
		announcer = deps.Announcer
	}

	return engine.NewEngine(engine.Dependencies{
		Source:      deps.Source,
		Builder:     builder,
		Registry:    registry,
		Statistical: statistical,
		Detector:    detector,
		Simulator:   simulator,
		Scorer:      scorer,

		Opportunities: deps.Opportunities,
		Bus:           deps.Bus,
		Archiver:      deps.Archiver,
		Locks:         deps.Locks,
		Announcer:     announcer,
	}, engine.Config{
		StartingCapitalUSD: cfg.Scan.StartingCapitalUSD,
		CacheTTL:           cfg.Redis.TTL.Duration,
		Logger:             logger,
	})
}
