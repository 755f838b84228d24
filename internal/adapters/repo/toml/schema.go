package toml

import (
	"fmt"

	"github.com/bnema/finagents/internal/domain"
)

const currentSchemaVersion = 1

type fileSchema[S any] struct {
	Version int    `toml:"version"`
	Kind    string `toml:"kind"`
	Ticker  string `toml:"ticker"`
	AsOf    string `toml:"as_of"`
	Data    S      `toml:"data"`
}

func (s *fileSchema[S]) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema[S]) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported snapshot schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type factsSchema struct {
	EntityName string                  `toml:"entity_name"`
	Concepts   map[string][]factSchema `toml:"concepts"`
}

type factSchema struct {
	Value     float64 `toml:"value"`
	Form      string  `toml:"form"`
	Accession string  `toml:"accession"`
	FiscalEnd string  `toml:"fiscal_end,omitempty"`
	Filed     string  `toml:"filed,omitempty"`
}

type pricesSchema struct {
	Currency string        `toml:"currency,omitempty"`
	Points   []priceSchema `toml:"points"`
}

type priceSchema struct {
	Date  string  `toml:"date"`
	Close float64 `toml:"close"`
}

type profileSchema struct {
	Name           string         `toml:"name"`
	CIK            string         `toml:"cik"`
	Tickers        []string       `toml:"tickers,omitempty"`
	Exchanges      []string       `toml:"exchanges,omitempty"`
	SIC            string         `toml:"sic,omitempty"`
	SICDescription string         `toml:"sic_description,omitempty"`
	Category       string         `toml:"category,omitempty"`
	FiscalYearEnd  string         `toml:"fiscal_year_end,omitempty"`
	StateOfInc     string         `toml:"state_of_incorporation,omitempty"`
	Website        string         `toml:"website,omitempty"`
	Phone          string         `toml:"phone,omitempty"`
	BusinessAddr   string         `toml:"business_address,omitempty"`
	Filings        []filingSchema `toml:"filings,omitempty"`
}

type filingSchema struct {
	Form       string `toml:"form"`
	Accession  string `toml:"accession"`
	FiledAt    string `toml:"filed_at,omitempty"`
	ReportDate string `toml:"report_date,omitempty"`
}

func toFactsSchema(sheet domain.FactSheet) factsSchema {
	out := factsSchema{EntityName: sheet.EntityName, Concepts: make(map[string][]factSchema, len(sheet.Concepts))}
	for name, facts := range sheet.Concepts {
		encoded := make([]factSchema, 0, len(facts))
		for _, fact := range facts {
			encoded = append(encoded, factSchema{
				Value:     fact.Value,
				Form:      string(fact.Form),
				Accession: fact.Accession,
				FiscalEnd: formatDate(fact.FiscalEnd),
				Filed:     formatDate(fact.Filed),
			})
		}
		out.Concepts[name] = encoded
	}
	return out
}

func fromFactsSchema(schema factsSchema) domain.FactSheet {
	out := domain.FactSheet{EntityName: schema.EntityName, Concepts: make(map[string][]domain.Fact, len(schema.Concepts))}
	for name, facts := range schema.Concepts {
		decoded := make([]domain.Fact, 0, len(facts))
		for _, fact := range facts {
			decoded = append(decoded, domain.Fact{
				Value:     fact.Value,
				Form:      domain.FormType(fact.Form),
				Accession: fact.Accession,
				FiscalEnd: parseDate(fact.FiscalEnd),
				Filed:     parseDate(fact.Filed),
			})
		}
		out.Concepts[name] = decoded
	}
	return out
}

func toPricesSchema(series domain.PriceSeries) pricesSchema {
	out := pricesSchema{Currency: series.Currency, Points: make([]priceSchema, 0, len(series.Points))}
	for _, point := range series.Points {
		out.Points = append(out.Points, priceSchema{Date: formatDate(point.Date), Close: point.Close})
	}
	return out
}

func fromPricesSchema(schema pricesSchema) domain.PriceSeries {
	out := domain.PriceSeries{Currency: schema.Currency, Points: make([]domain.PricePoint, 0, len(schema.Points))}
	for _, point := range schema.Points {
		out.Points = append(out.Points, domain.PricePoint{Date: parseDate(point.Date), Close: point.Close})
	}
	return out
}

func toProfileSchema(profile domain.CompanyProfile) profileSchema {
	out := profileSchema{
		Name:           profile.Name,
		CIK:            string(profile.CIK),
		Tickers:        profile.Tickers,
		Exchanges:      profile.Exchanges,
		SIC:            profile.SIC,
		SICDescription: profile.SICDescription,
		Category:       profile.Category,
		FiscalYearEnd:  profile.FiscalYearEnd,
		StateOfInc:     profile.StateOfInc,
		Website:        profile.Website,
		Phone:          profile.Phone,
		BusinessAddr:   profile.BusinessAddr,
	}
	for _, filing := range profile.RecentFilings {
		out.Filings = append(out.Filings, filingSchema{
			Form:       filing.Form,
			Accession:  filing.Accession,
			FiledAt:    formatDate(filing.FiledAt),
			ReportDate: formatDate(filing.ReportDate),
		})
	}
	return out
}

func fromProfileSchema(schema profileSchema) domain.CompanyProfile {
	out := domain.CompanyProfile{
		Name:           schema.Name,
		CIK:            domain.CIK(schema.CIK),
		Tickers:        schema.Tickers,
		Exchanges:      schema.Exchanges,
		SIC:            schema.SIC,
		SICDescription: schema.SICDescription,
		Category:       schema.Category,
		FiscalYearEnd:  schema.FiscalYearEnd,
		StateOfInc:     schema.StateOfInc,
		Website:        schema.Website,
		Phone:          schema.Phone,
		BusinessAddr:   schema.BusinessAddr,
	}
	for _, filing := range schema.Filings {
		out.RecentFilings = append(out.RecentFilings, domain.Filing{
			Form:       filing.Form,
			Accession:  filing.Accession,
			FiledAt:    parseDate(filing.FiledAt),
			ReportDate: parseDate(filing.ReportDate),
		})
	}
	return out
}
