// Package finance holds the pure computations behind the ratio and price
// trend workers.
package finance

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/bnema/finagents/internal/domain"
)

type Metric string

const (
	MetricROE              Metric = "roe"
	MetricROA              Metric = "roa"
	MetricNetProfitMargin  Metric = "net_profit_margin"
	MetricGrossMargin      Metric = "gross_margin"
	MetricDebtToEquity     Metric = "debt_to_equity"
	MetricInterestCoverage Metric = "interest_coverage"
)

type metricDef struct {
	label       string
	numerator   string
	denominator string
	percent     bool
	aliases     []string
}

var metricDefs = map[Metric]metricDef{
	MetricROE: {
		label:       "Return on Equity (ROE)",
		numerator:   "NetIncomeLoss",
		denominator: "StockholdersEquity",
		percent:     true,
		aliases:     []string{"roe", "return on equity"},
	},
	MetricROA: {
		label:       "Return on Assets (ROA)",
		numerator:   "NetIncomeLoss",
		denominator: "Assets",
		percent:     true,
		aliases:     []string{"roa", "return on assets"},
	},
	MetricNetProfitMargin: {
		label:       "Net Profit Margin",
		numerator:   "NetIncomeLoss",
		denominator: "Revenues",
		percent:     true,
		aliases:     []string{"net profit margin", "profit margin", "net margin", "npm"},
	},
	MetricGrossMargin: {
		label:       "Gross Margin",
		numerator:   "GrossProfit",
		denominator: "Revenues",
		percent:     true,
		aliases:     []string{"gross margin", "gross profit margin"},
	},
	MetricDebtToEquity: {
		label:       "Debt to Equity",
		numerator:   "Liabilities",
		denominator: "StockholdersEquity",
		aliases:     []string{"debt to equity", "debt-to-equity", "d/e", "leverage"},
	},
	MetricInterestCoverage: {
		label:       "Interest Coverage",
		numerator:   "OperatingIncomeLoss",
		denominator: "InterestExpense",
		aliases:     []string{"interest coverage", "times interest earned"},
	},
}

var metricOrder = []Metric{
	MetricROE,
	MetricROA,
	MetricNetProfitMargin,
	MetricGrossMargin,
	MetricDebtToEquity,
	MetricInterestCoverage,
}

func Metrics() []Metric {
	out := make([]Metric, len(metricOrder))
	copy(out, metricOrder)
	return out
}

// Concepts lists the us-gaap concepts any metric reads.
func Concepts() []string {
	seen := make(map[string]struct{})
	var concepts []string
	for _, metric := range metricOrder {
		def := metricDefs[metric]
		for _, concept := range []string{def.numerator, def.denominator} {
			if _, ok := seen[concept]; ok {
				continue
			}
			seen[concept] = struct{}{}
			concepts = append(concepts, concept)
		}
	}
	return concepts
}

func (m Metric) Label() string {
	if def, ok := metricDefs[m]; ok {
		return def.label
	}
	return string(m)
}

// ParseMetrics returns the metrics named in a free-form request, in the
// order they first appear in the text.
func ParseMetrics(text string) []Metric {
	lowered := " " + strings.ToLower(text) + " "
	lowered = strings.ReplaceAll(lowered, "gross profit margin", "gross margin")

	var hits []metricHit
	for _, metric := range metricOrder {
		best := -1
		for _, alias := range metricDefs[metric].aliases {
			pos := indexWord(lowered, alias)
			if pos >= 0 && (best < 0 || pos < best) {
				best = pos
			}
		}
		if best >= 0 {
			hits = append(hits, metricHit{metric: metric, pos: best})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	metrics := make([]Metric, 0, len(hits))
	for _, h := range hits {
		metrics = append(metrics, h.metric)
	}
	return metrics
}

type metricHit struct {
	metric Metric
	pos    int
}

// indexWord finds needle in haystack only where it is not glued to other
// letters or digits.
func indexWord(haystack, needle string) int {
	offset := 0
	for {
		idx := strings.Index(haystack[offset:], needle)
		if idx < 0 {
			return -1
		}
		start := offset + idx
		end := start + len(needle)
		if !isWordByte(haystack, start-1) && !isWordByte(haystack, end) {
			return start
		}
		offset = start + 1
	}
}

func isWordByte(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	c := s[i]
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

// RatioResult is one computed metric. Form and FiscalEnd describe the filing
// both values were taken from.
type RatioResult struct {
	Metric    Metric
	Value     float64
	Form      domain.FormType
	Accession string
	FiscalEnd time.Time
}

func (r RatioResult) String(ticker domain.Ticker) string {
	def := metricDefs[r.Metric]
	value := fmt.Sprintf("%.2f", r.Value)
	if def.percent {
		value = fmt.Sprintf("%.2f%%", r.Value*100)
	}

	suffix := fmt.Sprintf("(%s", r.Form)
	if !r.FiscalEnd.IsZero() {
		suffix += ", period ending " + r.FiscalEnd.Format("2006-01-02")
	}
	suffix += ")"

	return fmt.Sprintf("%s for %s: %s %s", def.label, ticker, value, suffix)
}

// ComputeRatio takes the latest annual report of the numerator concept and
// pairs it with the denominator reported under the same accession number,
// falling back to quarterly reports when the annual pair is incomplete.
func ComputeRatio(sheet domain.FactSheet, metric Metric) (RatioResult, error) {
	def, ok := metricDefs[metric]
	if !ok {
		return RatioResult{}, fmt.Errorf("unknown metric %q", metric)
	}

	for _, form := range []domain.FormType{domain.FormAnnual, domain.FormQuarterly} {
		num, den, ok := pairedFacts(sheet, def.numerator, def.denominator, form)
		if !ok {
			continue
		}

		value := num.Value / den.Value
		if math.IsNaN(value) || math.IsInf(value, 0) {
			continue
		}

		return RatioResult{
			Metric:    metric,
			Value:     value,
			Form:      form,
			Accession: num.Accession,
			FiscalEnd: num.FiscalEnd,
		}, nil
	}

	return RatioResult{}, fmt.Errorf("compute %s: %w", def.label, domain.ErrDataNotAvailable)
}

func pairedFacts(sheet domain.FactSheet, numerator, denominator string, form domain.FormType) (domain.Fact, domain.Fact, bool) {
	nums := sheet.Facts(numerator)
	for i := len(nums) - 1; i >= 0; i-- {
		if nums[i].Form != form {
			continue
		}

		num := nums[i]
		if num.Value == 0 || num.Accession == "" {
			return domain.Fact{}, domain.Fact{}, false
		}

		dens := sheet.Facts(denominator)
		for j := len(dens) - 1; j >= 0; j-- {
			if dens[j].Accession == num.Accession {
				if dens[j].Value == 0 {
					return domain.Fact{}, domain.Fact{}, false
				}
				return num, dens[j], true
			}
		}
		return domain.Fact{}, domain.Fact{}, false
	}

	return domain.Fact{}, domain.Fact{}, false
}
