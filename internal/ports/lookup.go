package ports

import (
	"context"

	"github.com/bnema/finagents/internal/domain"
)

type TickerLookup interface {
	Lookup(ctx context.Context, ticker domain.Ticker) (domain.CompanyContext, error)
}
