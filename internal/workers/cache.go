// Package workers implements the ratio, price trend and company info
// workers on top of a per-ticker snapshot cache.
package workers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/bnema/finagents/internal/domain"
	"github.com/bnema/finagents/internal/ports"
)

const DefaultMaxAge = 24 * time.Hour

type FetchFunc[T any] func(ctx context.Context, company domain.CompanyContext) (T, error)

// Cache keeps one snapshot per ticker. Entries for different tickers never
// share a lock; callers for the same ticker share the entry and the last
// refresh wins.
type Cache[T any] struct {
	kind   domain.SnapshotKind
	fetch  FetchFunc[T]
	store  ports.SnapshotStore[T]
	clock  ports.Clock
	maxAge time.Duration
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[domain.Ticker]*cacheEntry[T]
}

type cacheEntry[T any] struct {
	// refreshMu serializes fetches for one ticker; mu guards snapshot.
	refreshMu sync.Mutex
	mu        sync.RWMutex
	snapshot  domain.Snapshot[T]
	loaded    bool
}

type CacheOptions[T any] struct {
	Kind   domain.SnapshotKind
	Fetch  FetchFunc[T]
	Store  ports.SnapshotStore[T]
	Clock  ports.Clock
	MaxAge time.Duration
	Logger *slog.Logger
}

func NewCache[T any](opts CacheOptions[T]) *Cache[T] {
	clock := opts.Clock
	if clock == nil {
		clock = ports.SystemClock{}
	}
	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Cache[T]{
		kind:    opts.Kind,
		fetch:   opts.Fetch,
		store:   opts.Store,
		clock:   clock,
		maxAge:  maxAge,
		logger:  logger,
		entries: make(map[domain.Ticker]*cacheEntry[T]),
	}
}

func (c *Cache[T]) Kind() domain.SnapshotKind {
	return c.kind
}

func (c *Cache[T]) entry(ticker domain.Ticker) *cacheEntry[T] {
	c.mu.RLock()
	e, ok := c.entries[ticker]
	c.mu.RUnlock()
	if ok {
		return e
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[ticker]; ok {
		return e
	}
	e = &cacheEntry[T]{}
	c.entries[ticker] = e
	return e
}

// HasFreshData reports whether the in-memory snapshot is inside the
// freshness window.
func (c *Cache[T]) HasFreshData(ticker domain.Ticker) bool {
	c.mu.RLock()
	e, ok := c.entries[ticker]
	c.mu.RUnlock()
	if !ok {
		return false
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loaded && !e.snapshot.IsStale(c.clock.Now(), c.maxAge)
}

// Refresh fetches the snapshot from upstream unconditionally.
func (c *Cache[T]) Refresh(ctx context.Context, company domain.CompanyContext) (domain.Snapshot[T], error) {
	e := c.entry(company.Ticker)
	e.refreshMu.Lock()
	defer e.refreshMu.Unlock()

	return c.refreshLocked(ctx, e, company)
}

// Get returns a fresh snapshot, loading it from the store or refreshing it
// from upstream when the in-memory copy is missing or stale.
func (c *Cache[T]) Get(ctx context.Context, company domain.CompanyContext) (domain.Snapshot[T], error) {
	if snapshot, ok := c.fresh(company.Ticker); ok {
		return snapshot, nil
	}

	e := c.entry(company.Ticker)
	e.refreshMu.Lock()
	defer e.refreshMu.Unlock()

	// Another caller may have refreshed while we waited.
	if snapshot, ok := c.fresh(company.Ticker); ok {
		return snapshot, nil
	}

	if snapshot, ok := c.loadStored(ctx, company.Ticker); ok {
		c.set(e, snapshot)
		return snapshot, nil
	}

	return c.refreshLocked(ctx, e, company)
}

func (c *Cache[T]) fresh(ticker domain.Ticker) (domain.Snapshot[T], bool) {
	c.mu.RLock()
	e, ok := c.entries[ticker]
	c.mu.RUnlock()
	if !ok {
		return domain.Snapshot[T]{}, false
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.loaded || e.snapshot.IsStale(c.clock.Now(), c.maxAge) {
		return domain.Snapshot[T]{}, false
	}
	return e.snapshot, true
}

func (c *Cache[T]) loadStored(ctx context.Context, ticker domain.Ticker) (domain.Snapshot[T], bool) {
	if c.store == nil {
		return domain.Snapshot[T]{}, false
	}

	snapshot, err := c.store.Get(ctx, ticker)
	if err != nil {
		if !errors.Is(err, domain.ErrSnapshotNotFound) {
			c.logger.Warn("read cached snapshot", slog.String("kind", string(c.kind)), slog.String("ticker", string(ticker)), slog.Any("error", err))
		}
		return domain.Snapshot[T]{}, false
	}
	if snapshot.IsStale(c.clock.Now(), c.maxAge) {
		return domain.Snapshot[T]{}, false
	}
	return snapshot, true
}

func (c *Cache[T]) refreshLocked(ctx context.Context, e *cacheEntry[T], company domain.CompanyContext) (domain.Snapshot[T], error) {
	if c.fetch == nil {
		return domain.Snapshot[T]{}, fmt.Errorf("refresh %s for %s: no fetcher configured", c.kind, company.Ticker)
	}

	data, err := c.fetch(ctx, company)
	if err != nil {
		return domain.Snapshot[T]{}, fmt.Errorf("refresh %s for %s: %w", c.kind, company.Ticker, err)
	}

	snapshot := domain.Snapshot[T]{Ticker: company.Ticker, AsOf: c.clock.Now(), Data: data}
	c.set(e, snapshot)

	if c.store != nil {
		if err := c.store.Save(ctx, snapshot); err != nil {
			c.logger.Warn("persist snapshot", slog.String("kind", string(c.kind)), slog.String("ticker", string(company.Ticker)), slog.Any("error", err))
		}
	}

	c.logger.Debug("refreshed snapshot", slog.String("kind", string(c.kind)), slog.String("ticker", string(company.Ticker)))
	return snapshot, nil
}

func (c *Cache[T]) set(e *cacheEntry[T], snapshot domain.Snapshot[T]) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snapshot = snapshot
	e.loaded = true
}
