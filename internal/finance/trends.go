package finance

import (
	"fmt"

	"github.com/bnema/finagents/internal/domain"
)

const (
	DefaultWindow      = 15
	ShortWindow        = 10
	LongWindow         = 50
	DefaultEMASpan     = 5
	closingPriceLabel  = "Closing Price"
	shortMovingAverage = "Short Moving Average"
	longMovingAverage  = "Long Moving Average"
)

func ClosingPrices(series domain.PriceSeries) domain.Series {
	points := make([]domain.Point, len(series.Points))
	for i, p := range series.Points {
		points[i] = domain.Point{Date: p.Date, Value: p.Close}
	}
	return domain.Series{Label: closingPriceLabel, Points: points}
}

// MovingAverage is a simple rolling mean. Dates before the first full window
// are omitted rather than reported as empty values.
func MovingAverage(series domain.PriceSeries, window int) (domain.Series, error) {
	if window <= 0 {
		return domain.Series{}, fmt.Errorf("moving average window must be positive, got %d", window)
	}
	if len(series.Points) < window {
		return domain.Series{}, fmt.Errorf("moving average window %d needs %d prices, have %d: %w", window, window, len(series.Points), domain.ErrDataNotAvailable)
	}

	points := make([]domain.Point, 0, len(series.Points)-window+1)
	var sum float64
	for i, p := range series.Points {
		sum += p.Close
		if i >= window {
			sum -= series.Points[i-window].Close
		}
		if i >= window-1 {
			points = append(points, domain.Point{Date: p.Date, Value: sum / float64(window)})
		}
	}

	return domain.Series{Label: fmt.Sprintf("Moving Average (window=%d)", window), Points: points}, nil
}

func ShortMovingAverage(series domain.PriceSeries) (domain.Series, error) {
	out, err := MovingAverage(series, ShortWindow)
	if err != nil {
		return domain.Series{}, err
	}
	out.Label = shortMovingAverage
	return out, nil
}

func LongMovingAverage(series domain.PriceSeries) (domain.Series, error) {
	out, err := MovingAverage(series, LongWindow)
	if err != nil {
		return domain.Series{}, err
	}
	out.Label = longMovingAverage
	return out, nil
}

// ExponentialMovingAverage uses alpha = 2/(span+1), seeded with the first
// closing price.
func ExponentialMovingAverage(series domain.PriceSeries, span int) (domain.Series, error) {
	if span <= 0 {
		return domain.Series{}, fmt.Errorf("ema span must be positive, got %d", span)
	}
	if len(series.Points) == 0 {
		return domain.Series{}, fmt.Errorf("ema: %w", domain.ErrDataNotAvailable)
	}

	alpha := 2 / (float64(span) + 1)
	points := make([]domain.Point, len(series.Points))
	prev := series.Points[0].Close
	for i, p := range series.Points {
		if i > 0 {
			prev = alpha*p.Close + (1-alpha)*prev
		}
		points[i] = domain.Point{Date: p.Date, Value: prev}
	}

	return domain.Series{Label: fmt.Sprintf("Exponential Moving Average (span=%d)", span), Points: points}, nil
}
