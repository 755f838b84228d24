package domain

import "time"

type PricePoint struct {
	Date  time.Time
	Close float64
}

// PriceSeries is ordered oldest first.
type PriceSeries struct {
	Currency string
	Points   []PricePoint
}

func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Points))
	for i, point := range s.Points {
		closes[i] = point.Close
	}
	return closes
}
