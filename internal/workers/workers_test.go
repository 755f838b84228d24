package workers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bnema/finagents/internal/domain"
	"github.com/bnema/finagents/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	nvda = domain.CompanyContext{Ticker: "NVDA", CIK: "0001045810", Name: "NVIDIA CORP"}
	aapl = domain.CompanyContext{Ticker: "AAPL", CIK: "0000320193", Name: "Apple Inc."}
)

func mockAnyContext() interface{} {
	return mock.MatchedBy(func(context.Context) bool { return true })
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memoryStore[T any] struct {
	mu        sync.Mutex
	snapshots map[domain.Ticker]domain.Snapshot[T]
}

func newMemoryStore[T any]() *memoryStore[T] {
	return &memoryStore[T]{snapshots: make(map[domain.Ticker]domain.Snapshot[T])}
}

func (s *memoryStore[T]) Get(_ context.Context, ticker domain.Ticker) (domain.Snapshot[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot, ok := s.snapshots[ticker]
	if !ok {
		return domain.Snapshot[T]{}, domain.ErrSnapshotNotFound
	}
	return snapshot, nil
}

func (s *memoryStore[T]) Save(_ context.Context, snapshot domain.Snapshot[T]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snapshot.Ticker] = snapshot
	return nil
}

func TestCacheFreshnessWindow(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	var fetches atomic.Int32
	cache := NewCache(CacheOptions[string]{
		Kind:  domain.SnapshotPrices,
		Clock: clock,
		Fetch: func(ctx context.Context, company domain.CompanyContext) (string, error) {
			fetches.Add(1)
			return "data-" + string(company.Ticker), nil
		},
	})

	assert.False(t, cache.HasFreshData("NVDA"))

	snapshot, err := cache.Get(context.Background(), nvda)
	require.NoError(t, err)
	assert.Equal(t, "data-NVDA", snapshot.Data)
	assert.True(t, cache.HasFreshData("NVDA"))
	assert.False(t, cache.HasFreshData("AAPL"))

	clock.Advance(23 * time.Hour)
	_, err = cache.Get(context.Background(), nvda)
	require.NoError(t, err)
	assert.Equal(t, int32(1), fetches.Load())

	clock.Advance(2 * time.Hour)
	assert.False(t, cache.HasFreshData("NVDA"))
	_, err = cache.Get(context.Background(), nvda)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fetches.Load())
}

func TestCacheLoadsFreshSnapshotFromStore(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newMemoryStore[string]()
	require.NoError(t, store.Save(context.Background(), domain.Snapshot[string]{Ticker: "NVDA", AsOf: now.Add(-time.Hour), Data: "stored"}))
	require.NoError(t, store.Save(context.Background(), domain.Snapshot[string]{Ticker: "AAPL", AsOf: now.Add(-48 * time.Hour), Data: "old"}))

	cache := NewCache(CacheOptions[string]{
		Kind:  domain.SnapshotProfile,
		Clock: &fakeClock{now: now},
		Store: store,
		Fetch: func(ctx context.Context, company domain.CompanyContext) (string, error) {
			return "fetched", nil
		},
	})

	got, err := cache.Get(context.Background(), nvda)
	require.NoError(t, err)
	assert.Equal(t, "stored", got.Data)

	got, err = cache.Get(context.Background(), aapl)
	require.NoError(t, err)
	assert.Equal(t, "fetched", got.Data)

	persisted, err := store.Get(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "fetched", persisted.Data)
	assert.Equal(t, now, persisted.AsOf)
}

func TestCacheRefreshErrorKeepsCause(t *testing.T) {
	t.Parallel()

	cache := NewCache(CacheOptions[string]{
		Kind: domain.SnapshotFacts,
		Fetch: func(ctx context.Context, company domain.CompanyContext) (string, error) {
			return "", domain.ErrRateLimited
		},
	})

	_, err := cache.Refresh(context.Background(), nvda)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRateLimited))
	assert.False(t, cache.HasFreshData("NVDA"))
}

func TestCacheDifferentTickersDoNotContend(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	cache := NewCache(CacheOptions[string]{
		Kind: domain.SnapshotPrices,
		Fetch: func(ctx context.Context, company domain.CompanyContext) (string, error) {
			if company.Ticker == "NVDA" {
				<-release
			}
			return string(company.Ticker), nil
		},
	})

	blocked := make(chan struct{})
	go func() {
		defer close(blocked)
		_, _ = cache.Get(context.Background(), nvda)
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		got, err := cache.Get(context.Background(), aapl)
		assert.NoError(t, err)
		assert.Equal(t, "AAPL", got.Data)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("AAPL fetch blocked behind NVDA")
	}

	close(release)
	<-blocked
}

func TestCacheSameTickerFetchesOnce(t *testing.T) {
	t.Parallel()

	var fetches atomic.Int32
	cache := NewCache(CacheOptions[string]{
		Kind: domain.SnapshotFacts,
		Fetch: func(ctx context.Context, company domain.CompanyContext) (string, error) {
			fetches.Add(1)
			time.Sleep(10 * time.Millisecond)
			return "facts", nil
		},
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := cache.Get(context.Background(), nvda)
			assert.NoError(t, err)
			assert.Equal(t, "facts", got.Data)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), fetches.Load())
}

func annualSheet() domain.FactSheet {
	return domain.FactSheet{Concepts: map[string][]domain.Fact{
		"NetIncomeLoss":      {{Value: 50, Form: domain.FormAnnual, Accession: "k", FiscalEnd: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)}},
		"StockholdersEquity": {{Value: 200, Form: domain.FormAnnual, Accession: "k"}},
		"Assets":             {{Value: 500, Form: domain.FormAnnual, Accession: "k"}},
	}}
}

func TestRatiosWorkerComputesRequestedMetrics(t *testing.T) {
	t.Parallel()

	source := mocks.NewMockFactsSource(t)
	source.EXPECT().CompanyFacts(mockAnyContext(), nvda).Return(annualSheet(), nil).Once()

	worker := NewRatios(NewCache(CacheOptions[domain.FactSheet]{Kind: domain.SnapshotFacts, Fetch: source.CompanyFacts}), discardLogger())

	result := worker.Invoke(context.Background(), "ROE and ROA", nvda)

	assert.Equal(t, domain.StatusOK, result.Status)
	assert.Equal(t, domain.AgentRatios, result.Agent)
	assert.Equal(t,
		"Return on Equity (ROE) for NVDA: 25.00% (10-K, period ending 2025-12-31)\n"+
			"Return on Assets (ROA) for NVDA: 10.00% (10-K, period ending 2025-12-31)",
		result.Output.Text)

	second := worker.Invoke(context.Background(), "ROE", nvda)
	assert.Equal(t, domain.StatusOK, second.Status)
}

func TestRatiosWorkerMarksUnavailableMetrics(t *testing.T) {
	t.Parallel()

	source := mocks.NewMockFactsSource(t)
	source.EXPECT().CompanyFacts(mockAnyContext(), nvda).Return(annualSheet(), nil)

	worker := NewRatios(NewCache(CacheOptions[domain.FactSheet]{Kind: domain.SnapshotFacts, Fetch: source.CompanyFacts}), nil)

	result := worker.Invoke(context.Background(), "roe and interest coverage", nvda)
	assert.Equal(t, domain.StatusOK, result.Status)
	assert.Contains(t, result.Output.Text, "Interest Coverage for NVDA: data not available")

	onlyMissing := worker.Invoke(context.Background(), "gross margin", nvda)
	assert.Equal(t, domain.StatusError, onlyMissing.Status)
	assert.True(t, errors.Is(onlyMissing.Err, domain.ErrDataNotAvailable))
}

func TestRatiosWorkerRejectsUnknownMetric(t *testing.T) {
	t.Parallel()

	source := mocks.NewMockFactsSource(t)
	worker := NewRatios(NewCache(CacheOptions[domain.FactSheet]{Kind: domain.SnapshotFacts, Fetch: source.CompanyFacts}), nil)

	result := worker.Invoke(context.Background(), "what is the weather", nvda)

	assert.Equal(t, domain.StatusError, result.Status)
	assert.Contains(t, result.Output.Text, "No supported metric requested")
}

func TestRatiosWorkerConvertsUpstreamFailure(t *testing.T) {
	t.Parallel()

	source := mocks.NewMockFactsSource(t)
	source.EXPECT().CompanyFacts(mockAnyContext(), nvda).Return(domain.FactSheet{}, domain.ErrRateLimited)

	worker := NewRatios(NewCache(CacheOptions[domain.FactSheet]{Kind: domain.SnapshotFacts, Fetch: source.CompanyFacts}), nil)

	result := worker.Invoke(context.Background(), "ROE", nvda)

	assert.Equal(t, domain.StatusError, result.Status)
	assert.True(t, errors.Is(result.Err, domain.ErrRateLimited))
	assert.Contains(t, result.Output.Text, "rate limiting")
}

func priceSeries(n int) domain.PriceSeries {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	series := domain.PriceSeries{Currency: "USD"}
	for i := 0; i < n; i++ {
		series.Points = append(series.Points, domain.PricePoint{Date: start.AddDate(0, 0, i), Close: float64(100 + i)})
	}
	return series
}

func TestParsePlotRequest(t *testing.T) {
	tests := []struct {
		name    string
		subtask string
		wantMA  int
		wantEMA int
		short   bool
		long    bool
	}{
		{name: "plain closing price", subtask: "plot the closing price"},
		{name: "default moving average", subtask: "moving average trend", wantMA: 15},
		{name: "window keyword", subtask: "moving average with window of 20", wantMA: 20},
		{name: "day prefix", subtask: "30-day moving average", wantMA: 30},
		{name: "short and long", subtask: "short moving average and long moving average", short: true, long: true},
		{name: "ema default span", subtask: "exponential moving average", wantEMA: 5},
		{name: "ema with span", subtask: "EMA span 12 and moving average window 9", wantEMA: 12, wantMA: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePlotRequest(tt.subtask)
			assert.Equal(t, tt.wantMA, got.MovingAverage)
			assert.Equal(t, tt.wantEMA, got.EMASpan)
			assert.Equal(t, tt.short, got.Short)
			assert.Equal(t, tt.long, got.Long)
		})
	}
}

func TestTechPlotWorkerReturnsAttachment(t *testing.T) {
	t.Parallel()

	source := mocks.NewMockPriceSource(t)
	source.EXPECT().DailyCloses(mockAnyContext(), domain.Ticker("NVDA")).Return(priceSeries(20), nil).Once()

	fetch := func(ctx context.Context, company domain.CompanyContext) (domain.PriceSeries, error) {
		return source.DailyCloses(ctx, company.Ticker)
	}
	worker := NewTechPlot(NewCache(CacheOptions[domain.PriceSeries]{Kind: domain.SnapshotPrices, Fetch: fetch}), discardLogger())

	result := worker.Invoke(context.Background(), "closing price with the moving average", nvda)

	require.Equal(t, domain.StatusOK, result.Status)
	require.True(t, result.Output.IsStructured())
	attachment := result.Output.Attachment
	assert.Equal(t, domain.AttachmentPlot, attachment.Kind)
	assert.Equal(t, "NVDA_ClosingPrice_MovingAverage15.png", attachment.Ref)
	require.Len(t, attachment.Series, 2)
	assert.Len(t, attachment.Series[0].Points, 20)
	assert.Len(t, attachment.Series[1].Points, 6)
	assert.Equal(t, "NVDA closing price and moving average (window=15), 2026-01-01 to 2026-01-20", attachment.Caption)
}

func TestTechPlotWorkerNotEnoughHistory(t *testing.T) {
	t.Parallel()

	source := mocks.NewMockPriceSource(t)
	source.EXPECT().DailyCloses(mockAnyContext(), domain.Ticker("NVDA")).Return(priceSeries(10), nil)

	fetch := func(ctx context.Context, company domain.CompanyContext) (domain.PriceSeries, error) {
		return source.DailyCloses(ctx, company.Ticker)
	}
	worker := NewTechPlot(NewCache(CacheOptions[domain.PriceSeries]{Kind: domain.SnapshotPrices, Fetch: fetch}), nil)

	result := worker.Invoke(context.Background(), "long moving average", nvda)

	assert.Equal(t, domain.StatusError, result.Status)
	assert.True(t, errors.Is(result.Err, domain.ErrDataNotAvailable))
}

func testProfile() domain.CompanyProfile {
	return domain.CompanyProfile{
		Name:           "NVIDIA CORP",
		CIK:            "0001045810",
		Tickers:        []string{"NVDA"},
		Exchanges:      []string{"Nasdaq"},
		SICDescription: "Semiconductors & Related Devices",
		FiscalYearEnd:  "0126",
		StateOfInc:     "DE",
		BusinessAddr:   "2788 SAN TOMAS EXPRESSWAY, SANTA CLARA, CA 95051",
	}
}

func TestCompInfoWorkerSelectsFields(t *testing.T) {
	t.Parallel()

	source := mocks.NewMockProfileSource(t)
	source.EXPECT().Profile(mockAnyContext(), nvda).Return(testProfile(), nil).Once()

	worker := NewCompInfo(NewCache(CacheOptions[domain.CompanyProfile]{Kind: domain.SnapshotProfile, Fetch: source.Profile}), discardLogger())

	result := worker.Invoke(context.Background(), "Which exchange is it listed on and when does the fiscal year end?", nvda)

	assert.Equal(t, domain.StatusOK, result.Status)
	assert.Equal(t, "Company profile for NVDA:\nExchanges: Nasdaq\nFiscal year end: January 26", result.Output.Text)

	website := worker.Invoke(context.Background(), "website", nvda)
	assert.Equal(t, "Company profile for NVDA:\nWebsite: not reported", website.Output.Text)
}

func TestCompInfoWorkerFullProfileSkipsEmptyFields(t *testing.T) {
	t.Parallel()

	source := mocks.NewMockProfileSource(t)
	source.EXPECT().Profile(mockAnyContext(), nvda).Return(testProfile(), nil)

	worker := NewCompInfo(NewCache(CacheOptions[domain.CompanyProfile]{Kind: domain.SnapshotProfile, Fetch: source.Profile}), nil)

	result := worker.Invoke(context.Background(), "tell me about the company", nvda)

	assert.Equal(t, domain.StatusOK, result.Status)
	assert.Contains(t, result.Output.Text, "Industry: Semiconductors & Related Devices")
	assert.Contains(t, result.Output.Text, "Headquarters: 2788 SAN TOMAS EXPRESSWAY")
	assert.NotContains(t, result.Output.Text, "Website")
}

func TestCompInfoWorkerUpstreamFailure(t *testing.T) {
	t.Parallel()

	source := mocks.NewMockProfileSource(t)
	source.EXPECT().Profile(mockAnyContext(), nvda).Return(domain.CompanyProfile{}, errors.New("connection reset"))

	worker := NewCompInfo(NewCache(CacheOptions[domain.CompanyProfile]{Kind: domain.SnapshotProfile, Fetch: source.Profile}), nil)

	result := worker.Invoke(context.Background(), "name", nvda)

	assert.Equal(t, domain.StatusError, result.Status)
	assert.Equal(t, "Could not fetch company profile for NVDA.", result.Output.Text)
}
