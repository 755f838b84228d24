package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/bnema/finagents/internal/domain"
	"github.com/bnema/finagents/internal/ports"
)

const failedRequestNote = "The previous request could not be completed."

// Session owns one client's conversation and its executor. At most one
// request is in flight; a second Submit is rejected, never interleaved.
type Session struct {
	id       domain.ClientID
	company  domain.CompanyContext
	prompt   string
	executor *Executor
	sink     ports.ResponseSink
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.Mutex
	busy         bool
	closed       bool
	conversation []domain.Message
}

func newSession(id domain.ClientID, company domain.CompanyContext, executor *Executor, sink ports.ResponseSink, logger *slog.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:       id,
		company:  company,
		prompt:   SystemPrompt(company, executor.Agents()),
		executor: executor,
		sink:     sink,
		logger:   logger.With("client_id", string(id), "ticker", string(company.Ticker)),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Session) ID() domain.ClientID {
	return s.id
}

func (s *Session) Company() domain.CompanyContext {
	return s.company
}

func (s *Session) State() State {
	return s.executor.State()
}

func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Conversation returns a copy of the append-only message log.
func (s *Session) Conversation() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]domain.Message, len(s.conversation))
	copy(copied, s.conversation)
	return copied
}

// Submit starts processing text in the background. It returns
// ErrSessionBusy while an earlier request is still in flight.
func (s *Session) Submit(text string) error {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	if s.busy {
		return domain.ErrSessionBusy
	}
	s.busy = true
	s.conversation = append(s.conversation, domain.UserMessage(text))

	turn := Turn{
		SystemPrompt: s.prompt,
		Conversation: append([]domain.Message(nil), s.conversation...),
		Company:      s.company,
	}
	s.wg.Add(1)
	go s.process(turn)
	return nil
}

func (s *Session) process(turn Turn) {
	defer s.wg.Done()

	var outcome *Outcome
	err := s.executor.Run(s.ctx, turn, func(o Outcome) {
		outcome = &o
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false

	if err != nil || outcome == nil {
		s.logger.Debug("request abandoned", "error", err)
		return
	}
	if s.closed {
		s.logger.Debug("discarding response for closed session")
		return
	}

	s.record(*outcome)
	if err := s.sink.Deliver(s.ctx, outcome.Response); err != nil {
		s.logger.Warn("deliver response", "error", err)
	}
}

func (s *Session) record(outcome Outcome) {
	for _, result := range outcome.Results {
		s.conversation = append(s.conversation, domain.AgentMessage(result.Agent, result.Output))
	}
	switch {
	case outcome.Failure != nil:
		s.conversation = append(s.conversation, domain.Message{
			Sender:  domain.SenderSystem,
			Role:    domain.RoleSystem,
			Content: domain.TextPayload(failedRequestNote),
		})
	case len(outcome.Results) == 0 && len(outcome.Response.Entries) > 0:
		s.conversation = append(s.conversation, domain.SupervisorMessage(outcome.Response.Entries[0].Content))
	}
}

// Notify delivers a token outside of the request flow, such as Busy.
func (s *Session) Notify(token string) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return domain.ErrSessionClosed
	}
	if err := s.sink.Deliver(s.ctx, domain.TokenResponse(token)); err != nil {
		return fmt.Errorf("deliver %s token: %w", token, err)
	}
	return nil
}

// Close cancels any in-flight request and closes the sink. It is safe to
// call more than once.
func (s *Session) Close(reason string) {
	s.cancel()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if err := s.sink.Close(reason); err != nil {
		s.logger.Debug("close sink", "error", err)
	}
}

// Wait blocks until the background request, if any, has returned.
func (s *Session) Wait() {
	s.wg.Wait()
}
