package ports

import (
	"context"

	"github.com/bnema/finagents/internal/domain"
)

type SnapshotStore[T any] interface {
	Get(ctx context.Context, ticker domain.Ticker) (domain.Snapshot[T], error)
	Save(ctx context.Context, snapshot domain.Snapshot[T]) error
}
