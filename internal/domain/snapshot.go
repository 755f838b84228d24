package domain

import "time"

type SnapshotKind string

const (
	SnapshotFacts   SnapshotKind = "facts"
	SnapshotPrices  SnapshotKind = "prices"
	SnapshotProfile SnapshotKind = "profile"
)

func (k SnapshotKind) Valid() bool {
	switch k {
	case SnapshotFacts, SnapshotPrices, SnapshotProfile:
		return true
	default:
		return false
	}
}

// Snapshot is upstream data for one ticker together with the time it was
// fetched.
type Snapshot[T any] struct {
	Ticker Ticker
	AsOf   time.Time
	Data   T
}

func (s Snapshot[T]) IsStale(now time.Time, maxAge time.Duration) bool {
	if s.AsOf.IsZero() {
		return true
	}

	if maxAge <= 0 {
		return false
	}

	return now.Sub(s.AsOf) > maxAge
}
