package ports

import (
	"context"

	"github.com/bnema/finagents/internal/domain"
)

// ResponseSink is the transport side of a session.
type ResponseSink interface {
	Deliver(ctx context.Context, response domain.Response) error
	Close(reason string) error
}
