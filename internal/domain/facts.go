package domain

import "time"

type FormType string

const (
	FormAnnual    FormType = "10-K"
	FormQuarterly FormType = "10-Q"
)

// Fact is one reported value for an XBRL concept.
type Fact struct {
	Value     float64
	Form      FormType
	Accession string
	FiscalEnd time.Time
	Filed     time.Time
}

// FactSheet holds the reported values per us-gaap concept name.
type FactSheet struct {
	EntityName string
	Concepts   map[string][]Fact
}

func (s FactSheet) Facts(concept string) []Fact {
	if s.Concepts == nil {
		return nil
	}
	return s.Concepts[concept]
}
