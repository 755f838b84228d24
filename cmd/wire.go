package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/bnema/finagents/internal/adapters/llm"
	"github.com/bnema/finagents/internal/adapters/prices"
	"github.com/bnema/finagents/internal/adapters/render/response"
	tomlrepo "github.com/bnema/finagents/internal/adapters/repo/toml"
	"github.com/bnema/finagents/internal/adapters/sec"
	"github.com/bnema/finagents/internal/adapters/transport/ws"
	"github.com/bnema/finagents/internal/adapters/upstream"
	"github.com/bnema/finagents/internal/application"
	"github.com/bnema/finagents/internal/domain"
	"github.com/bnema/finagents/internal/finance"
	"github.com/bnema/finagents/internal/ports"
	"github.com/bnema/finagents/internal/workers"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"
)

type app struct {
	cfg              *viper.Viper
	logger           *slog.Logger
	clock            ports.Clock
	lookup           ports.TickerLookup
	manager          *application.Manager
	server           ws.Config
	maxAge           time.Duration
	sources          []snapshotSource
	renderer         func(domain.Response, response.RenderOptions) (string, error)
	snapshotRenderer func([]response.SnapshotStatus, response.SnapshotOptions) (string, error)
}

// snapshotSource exposes one cached data kind to the cache commands without
// its payload type.
type snapshotSource struct {
	kind    domain.SnapshotKind
	fetched func(ctx context.Context, ticker domain.Ticker) (time.Time, error)
	refresh func(ctx context.Context, company domain.CompanyContext) (time.Time, error)
}

func wireApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(os.Stderr, cfg.GetString(keyLogLevel), cfg.GetString(keyLogFormat))
	if err != nil {
		return nil, err
	}

	policy, err := application.ParseFailurePolicy(cfg.GetString(keyWorkerFailure))
	if err != nil {
		return nil, fmt.Errorf("wire executor: %w", err)
	}

	store, err := tomlrepo.NewStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire snapshot store: %w", err)
	}

	clock := ports.SystemClock{}
	retry := upstream.RetryPolicy{
		MaxAttempts: cfg.GetInt(keyUpstreamMaxAttempts),
		BaseDelay:   cfg.GetDuration(keyUpstreamBaseDelay),
		MaxDelay:    cfg.GetDuration(keyUpstreamMaxDelay),
	}
	newClient := func(component, userAgent string, limiter *rate.Limiter) *upstream.Client {
		return &upstream.Client{
			HTTPClient:     http.DefaultClient,
			UserAgent:      userAgent,
			Limiter:        limiter,
			Retry:          retry,
			RequestTimeout: cfg.GetDuration(keyUpstreamTimeout),
			Logger:         logger.With("component", component),
		}
	}

	var secLimiter *rate.Limiter
	if rps := cfg.GetFloat64(keySECRate); rps > 0 {
		secLimiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	secAdapter := &sec.Adapter{
		Client:     newClient("sec", cfg.GetString(keySECUserAgent), secLimiter),
		TickersURL: cfg.GetString(keySECTickersURL),
		DataURL:    cfg.GetString(keySECDataURL),
		Concepts:   finance.Concepts(),
		Clock:      clock,
	}
	priceAdapter := prices.Adapter{
		Client:  newClient("prices", "", nil),
		BaseURL: cfg.GetString(keyPricesBaseURL),
		Range:   cfg.GetString(keyPricesRange),
	}
	classifier := llm.Classifier{
		Client:  newClient("llm", "", nil),
		BaseURL: cfg.GetString(keyLLMBaseURL),
		Model:   cfg.GetString(keyLLMModel),
		APIKey:  cfg.GetString(keyLLMAPIKey),
	}

	maxAge := cfg.GetDuration(keyCacheMaxAge)
	workerLogger := logger.With("component", "worker")
	factsRepo := tomlrepo.NewFactsRepository(store)
	pricesRepo := tomlrepo.NewPricesRepository(store)
	profileRepo := tomlrepo.NewProfileRepository(store)

	facts := workers.NewCache(workers.CacheOptions[domain.FactSheet]{
		Kind:   domain.SnapshotFacts,
		Fetch:  secAdapter.CompanyFacts,
		Store:  factsRepo,
		Clock:  clock,
		MaxAge: maxAge,
		Logger: workerLogger,
	})
	closes := workers.NewCache(workers.CacheOptions[domain.PriceSeries]{
		Kind: domain.SnapshotPrices,
		Fetch: func(ctx context.Context, company domain.CompanyContext) (domain.PriceSeries, error) {
			return priceAdapter.DailyCloses(ctx, company.Ticker)
		},
		Store:  pricesRepo,
		Clock:  clock,
		MaxAge: maxAge,
		Logger: workerLogger,
	})
	profiles := workers.NewCache(workers.CacheOptions[domain.CompanyProfile]{
		Kind:   domain.SnapshotProfile,
		Fetch:  secAdapter.Profile,
		Store:  profileRepo,
		Clock:  clock,
		MaxAge: maxAge,
		Logger: workerLogger,
	})

	manager := application.NewManager(secAdapter, application.ExecutorConfig{
		Classifier: classifier,
		Workers: []ports.Worker{
			workers.NewRatios(facts, workerLogger),
			workers.NewTechPlot(closes, workerLogger),
			workers.NewCompInfo(profiles, workerLogger),
		},
		FailurePolicy: policy,
	}, logger,
		application.WithClock(clock),
		application.WithRetiredTTL(cfg.GetDuration(keyServerRetiredIDTTL)),
	)

	return &app{
		cfg:     cfg,
		logger:  logger,
		clock:   clock,
		lookup:  secAdapter,
		manager: manager,
		server: ws.Config{
			ReadLimit:   cfg.GetInt64(keyServerReadLimit),
			PongWait:    cfg.GetDuration(keyServerPongWait),
			WriteWait:   cfg.GetDuration(keyServerWriteWait),
			IdleTimeout: cfg.GetDuration(keyServerIdleTimeout),
		},
		maxAge: maxAge,
		sources: []snapshotSource{
			newSnapshotSource(factsRepo, facts),
			newSnapshotSource(pricesRepo, closes),
			newSnapshotSource(profileRepo, profiles),
		},
		renderer:         response.Render,
		snapshotRenderer: response.RenderSnapshots,
	}, nil
}

func newSnapshotSource[T any](store ports.SnapshotStore[T], cache *workers.Cache[T]) snapshotSource {
	return snapshotSource{
		kind: cache.Kind(),
		fetched: func(ctx context.Context, ticker domain.Ticker) (time.Time, error) {
			snapshot, err := store.Get(ctx, ticker)
			if err != nil {
				if errors.Is(err, domain.ErrSnapshotNotFound) {
					return time.Time{}, nil
				}
				return time.Time{}, err
			}
			return snapshot.AsOf, nil
		},
		refresh: func(ctx context.Context, company domain.CompanyContext) (time.Time, error) {
			snapshot, err := cache.Refresh(ctx, company)
			if err != nil {
				return time.Time{}, err
			}
			return snapshot.AsOf, nil
		},
	}
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("parse %s: %w", keyLogLevel, err)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unsupported %s %q", keyLogFormat, format)
	}
}
