package workers

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/finagents/internal/domain"
)

// failure turns an upstream error into the human readable error result a
// worker hands back to the supervisor.
func failure(id domain.AgentID, ticker domain.Ticker, what string, err error) domain.WorkerResult {
	var message string
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		message = fmt.Sprintf("The data provider is rate limiting requests for %s; try again later.", what)
	case errors.Is(err, domain.ErrDataNotAvailable):
		message = fmt.Sprintf("%s for %s is not available.", capitalize(what), ticker)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		message = fmt.Sprintf("Fetching %s for %s was interrupted.", what, ticker)
	default:
		message = fmt.Sprintf("Could not fetch %s for %s.", what, ticker)
	}
	return domain.ErrorResult(id, message, err)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
