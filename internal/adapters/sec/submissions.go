package sec

import (
	"context"
	"fmt"
	"strings"

	"github.com/bnema/finagents/internal/domain"
)

const maxRecentFilings = 5

type submissionsResponse struct {
	Name                 string   `json:"name"`
	Tickers              []string `json:"tickers"`
	Exchanges            []string `json:"exchanges"`
	SIC                  string   `json:"sic"`
	SICDescription       string   `json:"sicDescription"`
	Category             string   `json:"category"`
	FiscalYearEnd        string   `json:"fiscalYearEnd"`
	StateOfIncorporation string   `json:"stateOfIncorporation"`
	Website              string   `json:"website"`
	Phone                string   `json:"phone"`
	Addresses            struct {
		Business addressResponse `json:"business"`
	} `json:"addresses"`
	Filings struct {
		Recent struct {
			AccessionNumber []string `json:"accessionNumber"`
			FilingDate      []string `json:"filingDate"`
			ReportDate      []string `json:"reportDate"`
			Form            []string `json:"form"`
		} `json:"recent"`
	} `json:"filings"`
}

type addressResponse struct {
	Street1        string `json:"street1"`
	City           string `json:"city"`
	StateOrCountry string `json:"stateOrCountry"`
	ZipCode        string `json:"zipCode"`
}

func (a addressResponse) String() string {
	var parts []string
	for _, part := range []string{a.Street1, a.City, strings.TrimSpace(a.StateOrCountry + " " + a.ZipCode)} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}

func (a *Adapter) Profile(ctx context.Context, company domain.CompanyContext) (domain.CompanyProfile, error) {
	if err := requireCIK(company); err != nil {
		return domain.CompanyProfile{}, err
	}

	endpoint, err := a.dataURL(fmt.Sprintf("/submissions/CIK%s.json", company.CIK))
	if err != nil {
		return domain.CompanyProfile{}, err
	}

	var payload submissionsResponse
	if err := a.client().GetJSON(ctx, endpoint, &payload); err != nil {
		return domain.CompanyProfile{}, fmt.Errorf("fetch submissions for %s: %w", company.Ticker, err)
	}

	profile := domain.CompanyProfile{
		Name:           payload.Name,
		CIK:            company.CIK,
		Tickers:        payload.Tickers,
		Exchanges:      payload.Exchanges,
		SIC:            payload.SIC,
		SICDescription: payload.SICDescription,
		Category:       payload.Category,
		FiscalYearEnd:  payload.FiscalYearEnd,
		StateOfInc:     payload.StateOfIncorporation,
		Website:        payload.Website,
		Phone:          payload.Phone,
		BusinessAddr:   payload.Addresses.Business.String(),
	}

	recent := payload.Filings.Recent
	for i, form := range recent.Form {
		if form != string(domain.FormAnnual) && form != string(domain.FormQuarterly) {
			continue
		}
		filing := domain.Filing{Form: form}
		if i < len(recent.AccessionNumber) {
			filing.Accession = recent.AccessionNumber[i]
		}
		if i < len(recent.FilingDate) {
			filing.FiledAt = parseDate(recent.FilingDate[i])
		}
		if i < len(recent.ReportDate) {
			filing.ReportDate = parseDate(recent.ReportDate[i])
		}
		profile.RecentFilings = append(profile.RecentFilings, filing)
		if len(profile.RecentFilings) == maxRecentFilings {
			break
		}
	}

	return profile, nil
}
