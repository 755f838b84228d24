package ports

import (
	"context"

	"github.com/bnema/finagents/internal/domain"
)

// Classifier returns the raw plan document produced for the conversation.
// Decoding and validation of that document happen in the application layer.
type Classifier interface {
	Classify(ctx context.Context, systemPrompt string, conversation []domain.Message) (string, error)
}
