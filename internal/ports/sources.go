package ports

import (
	"context"

	"github.com/bnema/finagents/internal/domain"
)

type FactsSource interface {
	CompanyFacts(ctx context.Context, company domain.CompanyContext) (domain.FactSheet, error)
}

type PriceSource interface {
	DailyCloses(ctx context.Context, ticker domain.Ticker) (domain.PriceSeries, error)
}

type ProfileSource interface {
	Profile(ctx context.Context, company domain.CompanyContext) (domain.CompanyProfile, error)
}
