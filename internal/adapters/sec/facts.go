package sec

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bnema/finagents/internal/domain"
)

type companyFactsResponse struct {
	EntityName string `json:"entityName"`
	Facts      struct {
		USGAAP map[string]conceptResponse `json:"us-gaap"`
	} `json:"facts"`
}

type conceptResponse struct {
	Units map[string][]factResponse `json:"units"`
}

type factResponse struct {
	End   string  `json:"end"`
	Value float64 `json:"val"`
	Accn  string  `json:"accn"`
	Form  string  `json:"form"`
	Filed string  `json:"filed"`
}

func (a *Adapter) CompanyFacts(ctx context.Context, company domain.CompanyContext) (domain.FactSheet, error) {
	if err := requireCIK(company); err != nil {
		return domain.FactSheet{}, err
	}

	endpoint, err := a.dataURL(fmt.Sprintf("/api/xbrl/companyfacts/CIK%s.json", company.CIK))
	if err != nil {
		return domain.FactSheet{}, err
	}

	var payload companyFactsResponse
	if err := a.client().GetJSON(ctx, endpoint, &payload); err != nil {
		return domain.FactSheet{}, fmt.Errorf("fetch company facts for %s: %w", company.Ticker, err)
	}

	wanted := make(map[string]struct{}, len(a.Concepts))
	for _, concept := range a.Concepts {
		wanted[concept] = struct{}{}
	}

	sheet := domain.FactSheet{EntityName: payload.EntityName, Concepts: make(map[string][]domain.Fact)}
	for name, concept := range payload.Facts.USGAAP {
		if len(wanted) > 0 {
			if _, ok := wanted[name]; !ok {
				continue
			}
		}

		reports := concept.Units["USD"]
		if len(reports) == 0 {
			continue
		}

		facts := make([]domain.Fact, 0, len(reports))
		for _, report := range reports {
			facts = append(facts, domain.Fact{
				Value:     report.Value,
				Form:      domain.FormType(report.Form),
				Accession: report.Accn,
				FiscalEnd: parseDate(report.End),
				Filed:     parseDate(report.Filed),
			})
		}
		// Filing order is what "latest report" means for ratio pairing.
		sort.SliceStable(facts, func(i, j int) bool { return facts[i].Filed.Before(facts[j].Filed) })
		sheet.Concepts[name] = facts
	}

	return sheet, nil
}

func parseDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
