package ports

import (
	"context"

	"github.com/bnema/finagents/internal/domain"
)

// Worker never returns transport errors; every failure is reported as a
// WorkerResult with StatusError.
type Worker interface {
	ID() domain.AgentID
	Invoke(ctx context.Context, subtask string, company domain.CompanyContext) domain.WorkerResult
}
