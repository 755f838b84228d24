package domain

import (
	"fmt"
	"strings"
	"time"
)

type Ticker string

// NormalizeTicker upper-cases and trims a raw ticker. It only checks shape;
// whether the ticker is actually listed is decided by a TickerLookup.
func NormalizeTicker(raw string) (Ticker, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value == "" || len(value) > 10 {
		return "", fmt.Errorf("%w: %q", ErrInvalidTicker, raw)
	}

	for _, r := range value {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
		default:
			return "", fmt.Errorf("%w: %q", ErrInvalidTicker, raw)
		}
	}

	return Ticker(value), nil
}

func (t Ticker) String() string {
	return string(t)
}

// CIK is the zero padded ten digit SEC central index key.
type CIK string

func NewCIK(n int64) CIK {
	return CIK(fmt.Sprintf("%010d", n))
}

// CompanyContext is fixed for the lifetime of a session.
type CompanyContext struct {
	Ticker Ticker
	CIK    CIK
	Name   string
}

func (c CompanyContext) IsZero() bool {
	return c.Ticker == ""
}

type ClientID string

func (id ClientID) Valid() bool {
	trimmed := strings.TrimSpace(string(id))
	return trimmed != "" && trimmed == string(id) && !strings.ContainsAny(trimmed, "/?#")
}

type CompanyProfile struct {
	Name           string
	CIK            CIK
	Tickers        []string
	Exchanges      []string
	SIC            string
	SICDescription string
	Category       string
	FiscalYearEnd  string
	StateOfInc     string
	Website        string
	Phone          string
	BusinessAddr   string
	RecentFilings  []Filing
}

type Filing struct {
	Form       string
	Accession  string
	FiledAt    time.Time
	ReportDate time.Time
}
