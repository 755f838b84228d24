package workers

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/bnema/finagents/internal/domain"
	"github.com/bnema/finagents/internal/finance"
	"github.com/bnema/finagents/internal/ports"
)

type TechPlot struct {
	prices *Cache[domain.PriceSeries]
	logger *slog.Logger
}

var _ ports.Worker = (*TechPlot)(nil)

func NewTechPlot(prices *Cache[domain.PriceSeries], logger *slog.Logger) *TechPlot {
	if logger == nil {
		logger = prices.logger
	}
	return &TechPlot{prices: prices, logger: logger}
}

func (w *TechPlot) ID() domain.AgentID {
	return domain.AgentTechPlot
}

type seriesKind int

const (
	seriesMovingAverage seriesKind = iota
	seriesShortMovingAverage
	seriesLongMovingAverage
	seriesExponential
)

// PlotRequest is the set of series a subtask asks for. The closing price is
// always plotted.
type PlotRequest struct {
	MovingAverage int
	Short         bool
	Long          bool
	EMASpan       int
	order         []seriesKind
}

var (
	spanPattern   = regexp.MustCompile(`span(?:\s+(?:of|=))?\s*(\d{1,3})`)
	numberPattern = regexp.MustCompile(`\d{1,3}`)
)

func ParsePlotRequest(subtask string) PlotRequest {
	text := strings.ToLower(subtask)
	var req PlotRequest
	type hit struct {
		kind seriesKind
		pos  int
	}
	var hits []hit

	emaPos := firstIndex(text, "exponential", "ema")
	if emaPos >= 0 {
		req.EMASpan = finance.DefaultEMASpan
		if m := spanPattern.FindStringSubmatch(text); m != nil {
			req.EMASpan, _ = strconv.Atoi(m[1])
		} else if !strings.Contains(text, "moving average") || strings.Count(text, "moving average") == strings.Count(text, "exponential moving average") {
			if m := numberPattern.FindString(text); m != "" {
				req.EMASpan, _ = strconv.Atoi(m)
			}
		}
		if req.EMASpan <= 0 {
			req.EMASpan = finance.DefaultEMASpan
		}
		hits = append(hits, hit{seriesExponential, emaPos})
	}

	if pos := firstIndex(text, "short moving average", "short-term moving average", "short ma", "short term"); pos >= 0 {
		req.Short = true
		hits = append(hits, hit{seriesShortMovingAverage, pos})
	}
	if pos := firstIndex(text, "long moving average", "long-term moving average", "long ma", "long term"); pos >= 0 {
		req.Long = true
		hits = append(hits, hit{seriesLongMovingAverage, pos})
	}

	stripped := strings.NewReplacer(
		"exponential moving average", "",
		"short moving average", "",
		"short-term moving average", "",
		"long moving average", "",
		"long-term moving average", "",
	).Replace(text)
	if pos := firstIndex(stripped, "moving average", "sma", "rolling average", "rolling mean"); pos >= 0 {
		req.MovingAverage = finance.DefaultWindow
		if n := windowSize(stripped, emaPos >= 0); n > 1 {
			req.MovingAverage = n
		}
		hits = append(hits, hit{seriesMovingAverage, firstIndex(text, "moving average", "sma", "rolling average", "rolling mean")})
	}

	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	for _, h := range hits {
		req.order = append(req.order, h.kind)
	}
	return req
}

func windowSize(text string, hasEMA bool) int {
	if idx := strings.Index(text, "window"); idx >= 0 {
		if m := numberPattern.FindString(text[idx:]); m != "" {
			n, _ := strconv.Atoi(m)
			return n
		}
	}
	if hasEMA {
		return 0
	}
	if m := numberPattern.FindString(text); m != "" {
		n, _ := strconv.Atoi(m)
		return n
	}
	return 0
}

func firstIndex(text string, needles ...string) int {
	best := -1
	for _, needle := range needles {
		idx := indexToken(text, needle)
		if idx >= 0 && (best < 0 || idx < best) {
			best = idx
		}
	}
	return best
}

func indexToken(text, needle string) int {
	offset := 0
	for {
		idx := strings.Index(text[offset:], needle)
		if idx < 0 {
			return -1
		}
		start := offset + idx
		end := start + len(needle)
		before := start == 0 || !isLetter(text[start-1])
		after := end >= len(text) || !isLetter(text[end])
		if before && after {
			return start
		}
		offset = start + 1
	}
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z'
}

func (w *TechPlot) Invoke(ctx context.Context, subtask string, company domain.CompanyContext) domain.WorkerResult {
	req := ParsePlotRequest(subtask)

	snapshot, err := w.prices.Get(ctx, company)
	if err != nil {
		w.logger.Warn("techplot worker failed to load prices", slog.String("ticker", string(company.Ticker)), slog.Any("error", err))
		return failure(domain.AgentTechPlot, company.Ticker, "price history", err)
	}

	prices := snapshot.Data
	series := []domain.Series{finance.ClosingPrices(prices)}
	names := []string{"ClosingPrice"}
	labels := []string{"closing price"}

	for _, kind := range req.order {
		var (
			s    domain.Series
			name string
			err  error
		)
		switch kind {
		case seriesMovingAverage:
			s, err = finance.MovingAverage(prices, req.MovingAverage)
			name = fmt.Sprintf("MovingAverage%d", req.MovingAverage)
		case seriesShortMovingAverage:
			s, err = finance.ShortMovingAverage(prices)
			name = "ShortMovingAverage"
		case seriesLongMovingAverage:
			s, err = finance.LongMovingAverage(prices)
			name = "LongMovingAverage"
		case seriesExponential:
			s, err = finance.ExponentialMovingAverage(prices, req.EMASpan)
			name = fmt.Sprintf("ExponentialMovingAverage%d", req.EMASpan)
		}
		if err != nil {
			return domain.ErrorResult(domain.AgentTechPlot,
				fmt.Sprintf("Not enough price history for %s to compute the requested series.", company.Ticker), err)
		}
		series = append(series, s)
		names = append(names, name)
		labels = append(labels, strings.ToLower(s.Label))
	}

	caption := fmt.Sprintf("%s %s", company.Ticker, joinLabels(labels))
	if n := len(prices.Points); n > 0 {
		caption += fmt.Sprintf(", %s to %s",
			prices.Points[0].Date.Format("2006-01-02"),
			prices.Points[n-1].Date.Format("2006-01-02"))
	}

	return domain.OKResult(domain.AgentTechPlot, domain.AttachmentPayload(domain.Attachment{
		Kind:    domain.AttachmentPlot,
		Ref:     fmt.Sprintf("%s_%s.png", company.Ticker, strings.Join(names, "_")),
		Caption: caption,
		Series:  series,
	}))
}

func joinLabels(labels []string) string {
	switch len(labels) {
	case 0:
		return ""
	case 1:
		return labels[0]
	default:
		return strings.Join(labels[:len(labels)-1], ", ") + " and " + labels[len(labels)-1]
	}
}
