package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bnema/finagents/internal/domain"
	"github.com/bnema/finagents/internal/finance"
	"github.com/bnema/finagents/internal/ports"
)

type Ratios struct {
	facts  *Cache[domain.FactSheet]
	logger *slog.Logger
}

var _ ports.Worker = (*Ratios)(nil)

func NewRatios(facts *Cache[domain.FactSheet], logger *slog.Logger) *Ratios {
	if logger == nil {
		logger = facts.logger
	}
	return &Ratios{facts: facts, logger: logger}
}

func (w *Ratios) ID() domain.AgentID {
	return domain.AgentRatios
}

func (w *Ratios) Invoke(ctx context.Context, subtask string, company domain.CompanyContext) domain.WorkerResult {
	metrics := finance.ParseMetrics(subtask)
	if len(metrics) == 0 {
		labels := make([]string, 0, len(finance.Metrics()))
		for _, metric := range finance.Metrics() {
			labels = append(labels, metric.Label())
		}
		return domain.ErrorResult(domain.AgentRatios,
			"No supported metric requested. Available metrics: "+strings.Join(labels, ", ")+".", nil)
	}

	snapshot, err := w.facts.Get(ctx, company)
	if err != nil {
		w.logger.Warn("ratios worker failed to load facts", slog.String("ticker", string(company.Ticker)), slog.Any("error", err))
		return failure(domain.AgentRatios, company.Ticker, "financial statements", err)
	}

	lines := make([]string, 0, len(metrics))
	computed := 0
	for _, metric := range metrics {
		result, err := finance.ComputeRatio(snapshot.Data, metric)
		if err != nil {
			if !errors.Is(err, domain.ErrDataNotAvailable) {
				return domain.ErrorResult(domain.AgentRatios, fmt.Sprintf("Could not compute %s for %s.", metric.Label(), company.Ticker), err)
			}
			lines = append(lines, fmt.Sprintf("%s for %s: data not available", metric.Label(), company.Ticker))
			continue
		}
		computed++
		lines = append(lines, result.String(company.Ticker))
	}

	output := domain.TextPayload(strings.Join(lines, "\n"))
	if computed == 0 {
		return domain.WorkerResult{Agent: domain.AgentRatios, Output: output, Status: domain.StatusError, Err: domain.ErrDataNotAvailable}
	}
	return domain.OKResult(domain.AgentRatios, output)
}
