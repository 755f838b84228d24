// Package sec reads company data from SEC EDGAR: the ticker directory,
// XBRL company facts and filing submissions.
package sec

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bnema/finagents/internal/adapters/upstream"
	"github.com/bnema/finagents/internal/domain"
	"github.com/bnema/finagents/internal/ports"
)

const (
	DefaultTickersURL = "https://www.sec.gov/files/company_tickers.json"
	DefaultDataURL    = "https://data.sec.gov"
	directoryMaxAge   = 24 * time.Hour
)

type Adapter struct {
	Client     *upstream.Client
	TickersURL string
	DataURL    string
	// Concepts limits the us-gaap concepts kept from company facts. Empty
	// keeps every concept reported in USD.
	Concepts []string
	Clock    ports.Clock

	mu          sync.Mutex
	directory   map[domain.Ticker]directoryEntry
	directoryAt time.Time
}

var (
	_ ports.TickerLookup  = (*Adapter)(nil)
	_ ports.FactsSource   = (*Adapter)(nil)
	_ ports.ProfileSource = (*Adapter)(nil)
)

type directoryEntry struct {
	CIK   domain.CIK
	Title string
}

type tickerRecord struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

func (a *Adapter) Lookup(ctx context.Context, ticker domain.Ticker) (domain.CompanyContext, error) {
	directory, err := a.loadDirectory(ctx)
	if err != nil {
		return domain.CompanyContext{}, fmt.Errorf("lookup ticker %s: %w", ticker, err)
	}

	for _, candidate := range tickerCandidates(ticker) {
		if entry, ok := directory[candidate]; ok {
			return domain.CompanyContext{Ticker: ticker, CIK: entry.CIK, Name: entry.Title}, nil
		}
	}

	return domain.CompanyContext{}, fmt.Errorf("lookup ticker %s: %w", ticker, domain.ErrInvalidTicker)
}

// EDGAR lists class shares with a dash ("BRK-B") while users often type a dot.
func tickerCandidates(ticker domain.Ticker) []domain.Ticker {
	candidates := []domain.Ticker{ticker}
	if strings.Contains(string(ticker), ".") {
		candidates = append(candidates, domain.Ticker(strings.ReplaceAll(string(ticker), ".", "-")))
	}
	return candidates
}

func (a *Adapter) loadDirectory(ctx context.Context) (map[domain.Ticker]directoryEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	if a.directory != nil && now.Sub(a.directoryAt) < directoryMaxAge {
		return a.directory, nil
	}

	endpoint := a.TickersURL
	if endpoint == "" {
		endpoint = DefaultTickersURL
	}

	var records map[string]tickerRecord
	if err := a.client().GetJSON(ctx, endpoint, &records); err != nil {
		if a.directory != nil && !errors.Is(err, context.Canceled) {
			// Serve the previous directory rather than failing every connect.
			return a.directory, nil
		}
		return nil, fmt.Errorf("fetch ticker directory: %w", err)
	}

	directory := make(map[domain.Ticker]directoryEntry, len(records))
	for _, record := range records {
		symbol := domain.Ticker(strings.ToUpper(strings.TrimSpace(record.Ticker)))
		if symbol == "" || record.CIK <= 0 {
			continue
		}
		directory[symbol] = directoryEntry{CIK: domain.NewCIK(record.CIK), Title: record.Title}
	}
	if len(directory) == 0 {
		return nil, errors.New("ticker directory is empty")
	}

	a.directory = directory
	a.directoryAt = now
	return directory, nil
}

func (a *Adapter) client() *upstream.Client {
	if a.Client != nil {
		return a.Client
	}
	return &upstream.Client{}
}

func (a *Adapter) now() time.Time {
	if a.Clock != nil {
		return a.Clock.Now()
	}
	return time.Now().UTC()
}

func (a *Adapter) dataURL(path string) (string, error) {
	base := a.DataURL
	if base == "" {
		base = DefaultDataURL
	}
	return upstream.JoinURL(base, path)
}

func requireCIK(company domain.CompanyContext) error {
	if company.CIK == "" {
		return fmt.Errorf("company %s has no cik: %w", company.Ticker, domain.ErrInvalidTicker)
	}
	return nil
}
