// Package prices fetches daily closing prices from a Yahoo-style chart API.
package prices

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/bnema/finagents/internal/adapters/upstream"
	"github.com/bnema/finagents/internal/domain"
	"github.com/bnema/finagents/internal/ports"
)

const (
	DefaultBaseURL = "https://query1.finance.yahoo.com"
	DefaultRange   = "6mo"
)

type Adapter struct {
	Client  *upstream.Client
	BaseURL string
	Range   string
}

var _ ports.PriceSource = Adapter{}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Currency string `json:"currency"`
		Symbol   string `json:"symbol"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (a Adapter) DailyCloses(ctx context.Context, ticker domain.Ticker) (domain.PriceSeries, error) {
	base := a.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	endpoint, err := upstream.JoinURL(base, "/v8/finance/chart/"+url.PathEscape(string(ticker)))
	if err != nil {
		return domain.PriceSeries{}, err
	}

	period := a.Range
	if period == "" {
		period = DefaultRange
	}

	query := url.Values{}
	query.Set("range", period)
	query.Set("interval", "1d")

	var payload chartResponse
	if err := a.client().Do(ctx, upstream.Request{URL: endpoint, Query: query}, &payload); err != nil {
		return domain.PriceSeries{}, fmt.Errorf("fetch prices for %s: %w", ticker, err)
	}

	if payload.Chart.Error != nil {
		return domain.PriceSeries{}, fmt.Errorf("fetch prices for %s: %s: %w", ticker, payload.Chart.Error.Description, domain.ErrDataNotAvailable)
	}
	if len(payload.Chart.Result) == 0 {
		return domain.PriceSeries{}, fmt.Errorf("fetch prices for %s: empty chart: %w", ticker, domain.ErrDataNotAvailable)
	}

	result := payload.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return domain.PriceSeries{}, fmt.Errorf("fetch prices for %s: no quotes: %w", ticker, domain.ErrDataNotAvailable)
	}
	closes := result.Indicators.Quote[0].Close

	series := domain.PriceSeries{Currency: result.Meta.Currency}
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		day := time.Unix(ts, 0).UTC()
		series.Points = append(series.Points, domain.PricePoint{
			Date:  time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
			Close: *closes[i],
		})
	}

	if len(series.Points) == 0 {
		return domain.PriceSeries{}, fmt.Errorf("fetch prices for %s: %w", ticker, domain.ErrDataNotAvailable)
	}
	return series, nil
}

func (a Adapter) client() *upstream.Client {
	if a.Client != nil {
		return a.Client
	}
	return &upstream.Client{}
}
