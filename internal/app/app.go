package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"ipshield/internal/config"
	"ipshield/internal/domain"
	"ipshield/internal/infra/db"
	httpinfra "ipshield/internal/infra/http"
	"ipshield/internal/infra/ipfs"
	"ipshield/internal/infra/policyopa"
	"ipshield/internal/infra/ratelimit"
	"ipshield/internal/infra/scanmem"
	"ipshield/internal/infra/story"
	"ipshield/internal/infra/yakoa"
	"ipshield/internal/usecase"
)

// App holds the wired components of one process.
type App struct {
	Config       config.Config
	Logger       *slog.Logger
	Orchestrator *usecase.Orchestrator
	Ledger       domain.ScanLedger
	Tokens       httpinfra.TokenClient
	Network      story.NetworkInfo
	StorageMode  string
	RateLimiter  domain.QuotaLimiter

	closers []func() error
}

// New wires adapters from cfg. Missing credentials select the simulated
// adapters instead of failing.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger, Network: story.NetworkInfoFromConfig(cfg)}

	if err := a.initLedger(logger); err != nil {
		a.Close()
		return nil, err
	}

	verifier, err := a.initVerifier(logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	publisher, err := newPublisher(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	registrar, err := story.NewRegistrar(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init registrar: %w", err)
	}
	if live, ok := registrar.(*story.LiveRegistrar); ok {
		a.closers = append(a.closers, func() error { live.Close(); return nil })
	}

	engine, err := policyopa.NewEngine(ctx, cfg.PolicyPath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init policy: %w", err)
	}

	orch := usecase.NewOrchestrator(verifier, publisher, registrar)
	orch.Policy = engine
	orch.Ledger = a.Ledger
	orch.Logger = logger
	a.Orchestrator = orch

	logger.Info("components ready",
		"verifier", verifier.Mode(),
		"publisher", publisher.Mode(),
		"registrar", a.Network.Mode,
		"storage", a.StorageMode,
		"policy", engine.Source(),
	)
	return a, nil
}

func (a *App) initLedger(logger *slog.Logger) error {
	store, err := db.NewStore(a.Config, logger)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	if !store.Enabled() {
		a.Ledger = scanmem.New()
		a.StorageMode = "memory"
		return nil
	}
	a.closers = append(a.closers, store.Close)
	if err := store.Migrate(); err != nil {
		return err
	}
	a.Ledger = db.NewScanRecordRepository(store.DB)
	a.StorageMode = "postgres"
	return nil
}

func (a *App) initVerifier(logger *slog.Logger) (usecase.ContentVerifier, error) {
	if !a.Config.YakoaConfigured() {
		logger.Warn("YAKOA_API_KEY not set; verification runs in simulation mode")
		return yakoa.SimulatedVerifier{}, nil
	}
	client, err := yakoa.NewClient(yakoa.ClientConfig{
		BaseURL:       a.Config.YakoaURL(),
		APIKey:        a.Config.YakoaAPIKey,
		RatePerSecond: a.Config.YakoaRatePerSecond,
		Timeout:       a.Config.YakoaTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("init yakoa client: %w", err)
	}
	a.Tokens = client
	return yakoa.NewVerifier(client, logger), nil
}

func newPublisher(cfg config.Config) (*ipfs.Publisher, error) {
	var uploader ipfs.Uploader = ipfs.LocalUploader{}
	if cfg.PinataConfigured() {
		pinata, err := ipfs.NewPinataUploader(cfg.PinataAPIURL, cfg.PinataJWT, http.DefaultClient)
		if err != nil {
			return nil, fmt.Errorf("init pinata: %w", err)
		}
		uploader = pinata
	}
	media := ipfs.NewMediaClient(60*time.Second, cfg.MediaAllowPrivate)
	return ipfs.NewPublisher(uploader, media, cfg.MaxMediaBytes), nil
}

// InitRateLimiter selects redis when REDIS_ADDR is set and an in-process
// limiter otherwise. Limiting is off when RATE_LIMIT_REQUESTS is zero.
func (a *App) InitRateLimiter() error {
	if a.Config.RateLimitRequests <= 0 {
		return nil
	}
	if a.Config.RedisAddr == "" {
		a.RateLimiter = ratelimit.NewMemoryLimiter(ratelimit.MemoryConfig{MaxKeys: a.Config.RateLimitMaxKeys})
		return nil
	}
	limiter, err := ratelimit.NewRedisLimiter(a.Config.RedisAddr, a.Config.RedisPassword, a.Config.RedisDB, nil)
	if err != nil {
		return fmt.Errorf("init redis limiter: %w", err)
	}
	a.closers = append(a.closers, limiter.Close)
	a.RateLimiter = limiter
	return nil
}

func (a *App) Server() *httpinfra.Server {
	return httpinfra.NewServerWithDeps(a.Config, httpinfra.ServerDeps{
		Orchestrator: a.Orchestrator,
		Ledger:       a.Ledger,
		Tokens:       a.Tokens,
		Network:      a.Network,
		StorageMode:  a.StorageMode,
		RateLimiter:  a.RateLimiter,
		Logger:       a.Logger,
	})
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}
