package workers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bnema/finagents/internal/domain"
	"github.com/bnema/finagents/internal/ports"
)

type CompInfo struct {
	profiles *Cache[domain.CompanyProfile]
	logger   *slog.Logger
}

var _ ports.Worker = (*CompInfo)(nil)

func NewCompInfo(profiles *Cache[domain.CompanyProfile], logger *slog.Logger) *CompInfo {
	if logger == nil {
		logger = profiles.logger
	}
	return &CompInfo{profiles: profiles, logger: logger}
}

func (w *CompInfo) ID() domain.AgentID {
	return domain.AgentCompInfo
}

type profileField struct {
	label    string
	keywords []string
	value    func(domain.CompanyProfile) string
}

var profileFields = []profileField{
	{label: "Name", keywords: []string{"name", "called"}, value: func(p domain.CompanyProfile) string { return p.Name }},
	{label: "Exchanges", keywords: []string{"exchange", "listed", "traded"}, value: func(p domain.CompanyProfile) string { return strings.Join(p.Exchanges, ", ") }},
	{label: "Tickers", keywords: []string{"ticker", "symbol"}, value: func(p domain.CompanyProfile) string { return strings.Join(p.Tickers, ", ") }},
	{label: "Industry", keywords: []string{"industry", "sector", "sic", "business"}, value: func(p domain.CompanyProfile) string { return p.SICDescription }},
	{label: "Filer category", keywords: []string{"category", "filer"}, value: func(p domain.CompanyProfile) string { return p.Category }},
	{label: "Fiscal year end", keywords: []string{"fiscal"}, value: func(p domain.CompanyProfile) string { return formatFiscalYearEnd(p.FiscalYearEnd) }},
	{label: "State of incorporation", keywords: []string{"incorporat", "state"}, value: func(p domain.CompanyProfile) string { return p.StateOfInc }},
	{label: "Headquarters", keywords: []string{"address", "headquarter", "located", "location", "hq"}, value: func(p domain.CompanyProfile) string { return p.BusinessAddr }},
	{label: "Phone", keywords: []string{"phone", "contact"}, value: func(p domain.CompanyProfile) string { return p.Phone }},
	{label: "Website", keywords: []string{"website", "web site", "url", "homepage"}, value: func(p domain.CompanyProfile) string { return p.Website }},
	{label: "Latest filings", keywords: []string{"filing", "10-k", "10-q", "report"}, value: func(p domain.CompanyProfile) string { return formatFilings(p.RecentFilings) }},
}

func (w *CompInfo) Invoke(ctx context.Context, subtask string, company domain.CompanyContext) domain.WorkerResult {
	snapshot, err := w.profiles.Get(ctx, company)
	if err != nil {
		w.logger.Warn("compinfo worker failed to load profile", slog.String("ticker", string(company.Ticker)), slog.Any("error", err))
		return failure(domain.AgentCompInfo, company.Ticker, "company profile", err)
	}

	fields := selectFields(subtask)
	profile := snapshot.Data

	lines := []string{fmt.Sprintf("Company profile for %s:", company.Ticker)}
	for _, field := range fields {
		value := field.value(profile)
		if value == "" {
			if len(fields) < len(profileFields) {
				lines = append(lines, fmt.Sprintf("%s: not reported", field.label))
			}
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", field.label, value))
	}

	return domain.OKResult(domain.AgentCompInfo, domain.TextPayload(strings.Join(lines, "\n")))
}

// selectFields returns the fields named in the subtask, or every field when
// none is recognised.
func selectFields(subtask string) []profileField {
	text := strings.ToLower(subtask)
	var selected []profileField
	for _, field := range profileFields {
		for _, keyword := range field.keywords {
			if strings.Contains(text, keyword) {
				selected = append(selected, field)
				break
			}
		}
	}
	if len(selected) == 0 {
		return profileFields
	}
	return selected
}

func formatFiscalYearEnd(raw string) string {
	if len(raw) != 4 {
		return raw
	}
	parsed, err := time.Parse("0102", raw)
	if err != nil {
		return raw
	}
	return parsed.Format("January 2")
}

func formatFilings(filings []domain.Filing) string {
	parts := make([]string, 0, len(filings))
	for _, filing := range filings {
		part := filing.Form
		if !filing.FiledAt.IsZero() {
			part += " filed " + filing.FiledAt.Format("2006-01-02")
		}
		if !filing.ReportDate.IsZero() {
			part += " for period " + filing.ReportDate.Format("2006-01-02")
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "; ")
}
