package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/bnema/finagents/internal/domain"
	"github.com/bnema/finagents/internal/ports"
)

type State string

const (
	StateIdle           State = "idle"
	StateClassifying    State = "classifying"
	StateDispatching    State = "dispatching"
	StateAwaitingWorker State = "awaiting_worker"
	StateAggregating    State = "aggregating"
	StateResponding     State = "responding"
	StateFailed         State = "failed"
)

var transitions = map[State][]State{
	StateIdle:           {StateClassifying},
	StateClassifying:    {StateDispatching, StateAggregating, StateFailed},
	StateDispatching:    {StateAwaitingWorker, StateAggregating, StateFailed},
	StateAwaitingWorker: {StateDispatching, StateFailed},
	StateAggregating:    {StateResponding, StateFailed},
	StateResponding:     {StateIdle},
	StateFailed:         {StateResponding},
}

func canTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type FailurePolicy string

const (
	ContinueOnWorkerError FailurePolicy = "continue"
	AbortOnWorkerError    FailurePolicy = "abort"
)

var ErrUnknownFailurePolicy = errors.New("unknown worker failure policy")

func ParseFailurePolicy(raw string) (FailurePolicy, error) {
	switch policy := FailurePolicy(strings.ToLower(strings.TrimSpace(raw))); policy {
	case "", ContinueOnWorkerError:
		return ContinueOnWorkerError, nil
	case AbortOnWorkerError:
		return AbortOnWorkerError, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownFailurePolicy, raw)
	}
}

const (
	nothingToDoMessage = "Nothing to do: the request does not call for any of the available analyses."
	skippedMessage     = "Skipped after an earlier step failed."
)

var errPlanAborted = errors.New("plan aborted after worker error")

// Turn is one request handed to the executor.
type Turn struct {
	SystemPrompt string
	Conversation []domain.Message
	Company      domain.CompanyContext
}

// Outcome is what the executor hands back in Responding: the client-visible
// response and the material the session appends to its conversation.
type Outcome struct {
	Response       domain.Response
	Results        []domain.WorkerResult
	Classification domain.Classification
	Failure        error
}

// Responder receives the outcome while the executor is in Responding.
type Responder func(Outcome)

type ExecutorConfig struct {
	Classifier    ports.Classifier
	Workers       []ports.Worker
	FailurePolicy FailurePolicy
	Logger        *slog.Logger
}

// Executor drains one dispatch plan at a time. It belongs to a single
// session and is never shared.
type Executor struct {
	classifier ports.Classifier
	workers    map[domain.AgentID]ports.Worker
	policy     FailurePolicy
	logger     *slog.Logger

	mu          sync.Mutex
	state       State
	pending     domain.DispatchPlan
	accumulator []domain.WorkerResult
}

func NewExecutor(cfg ExecutorConfig) *Executor {
	workers := make(map[domain.AgentID]ports.Worker, len(cfg.Workers))
	for _, worker := range cfg.Workers {
		workers[worker.ID()] = worker
	}
	policy := cfg.FailurePolicy
	if policy == "" {
		policy = ContinueOnWorkerError
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Executor{
		classifier: cfg.Classifier,
		workers:    workers,
		policy:     policy,
		logger:     logger,
		state:      StateIdle,
	}
}

func (e *Executor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Agents lists the registered workers in the order they are described to
// the classifier.
func (e *Executor) Agents() []domain.AgentID {
	agents := make([]domain.AgentID, 0, len(e.workers))
	for _, id := range domain.KnownAgents() {
		if _, ok := e.workers[id]; ok {
			agents = append(agents, id)
		}
	}
	return agents
}

func (e *Executor) transition(to State) {
	e.mu.Lock()
	from := e.state
	if !canTransition(from, to) {
		e.mu.Unlock()
		panic(fmt.Sprintf("executor: illegal transition %s -> %s", from, to))
	}
	e.state = to
	e.mu.Unlock()

	e.logger.Debug("executor transition", "from", from, "to", to)
}

// reset drops any in-flight work after the session context is canceled.
// Nothing is handed to the responder.
func (e *Executor) reset() {
	e.mu.Lock()
	e.state = StateIdle
	e.pending = domain.DispatchPlan{}
	e.accumulator = nil
	e.mu.Unlock()
}

// Run classifies the turn, drains the resulting plan in order and hands the
// aggregated outcome to respond. A canceled context abandons the turn and
// returns the context error without responding.
func (e *Executor) Run(ctx context.Context, turn Turn, respond Responder) error {
	e.mu.Lock()
	if e.state != StateIdle {
		e.mu.Unlock()
		return domain.ErrSessionBusy
	}
	e.state = StateClassifying
	e.mu.Unlock()
	e.logger.Debug("executor transition", "from", StateIdle, "to", StateClassifying)

	raw, err := e.classifier.Classify(ctx, turn.SystemPrompt, turn.Conversation)
	if ctxErr := ctx.Err(); ctxErr != nil {
		e.reset()
		return ctxErr
	}
	if err != nil {
		e.fail(fmt.Errorf("classify request: %w", err), nil, respond)
		return nil
	}

	classification, err := DecodeClassification(raw)
	if err != nil {
		e.logger.Warn("classifier returned malformed plan", "error", err)
		e.fail(fmt.Errorf("decode classification: %w", err), nil, respond)
		return nil
	}

	if classification.Finish {
		e.transition(StateAggregating)
		e.respond(Outcome{
			Response:       finishResponse(classification.Answer),
			Classification: classification,
		}, respond)
		return nil
	}

	e.mu.Lock()
	e.pending = classification.Plan
	e.accumulator = make([]domain.WorkerResult, 0, classification.Plan.Len())
	e.mu.Unlock()

	if err := e.drain(ctx, turn.Company); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			e.reset()
			return ctxErr
		}
		e.fail(err, e.results(), respond)
		return nil
	}

	e.transition(StateAggregating)
	results := e.results()
	e.respond(Outcome{
		Response:       Aggregate(results),
		Results:        results,
		Classification: classification,
	}, respond)
	return nil
}

func (e *Executor) drain(ctx context.Context, company domain.CompanyContext) error {
	e.transition(StateDispatching)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		e.mu.Lock()
		entry, ok := e.pending.Pop()
		e.mu.Unlock()
		if !ok {
			return nil
		}

		e.transition(StateAwaitingWorker)
		result := e.invoke(ctx, entry, company)
		if err := ctx.Err(); err != nil {
			return err
		}

		e.mu.Lock()
		e.accumulator = append(e.accumulator, result)
		e.mu.Unlock()

		if errors.Is(result.Err, domain.ErrRateLimited) {
			return fmt.Errorf("%s: %w", entry.Agent, result.Err)
		}
		e.transition(StateDispatching)

		if result.Failed() && e.policy == AbortOnWorkerError {
			e.skipRemaining()
			return nil
		}
	}
}

func (e *Executor) invoke(ctx context.Context, entry domain.PlanEntry, company domain.CompanyContext) domain.WorkerResult {
	worker, ok := e.workers[entry.Agent]
	if !ok {
		return domain.ErrorResult(entry.Agent, fmt.Sprintf("The %s worker is not available.", entry.Agent), domain.ErrUnknownAgent)
	}

	logger := e.logger.With("agent", entry.Agent)
	logger.Debug("invoking worker", "subtask", entry.Subtask)
	result := worker.Invoke(ctx, entry.Subtask, company)
	if result.Agent == "" {
		result.Agent = entry.Agent
	}
	if result.Status == "" {
		result.Status = domain.StatusOK
	}
	if result.Failed() {
		logger.Warn("worker returned error", "error", result.Err)
	}
	return result
}

func (e *Executor) skipRemaining() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for {
		entry, ok := e.pending.Pop()
		if !ok {
			return
		}
		e.accumulator = append(e.accumulator, domain.ErrorResult(entry.Agent, skippedMessage, errPlanAborted))
	}
}

func (e *Executor) results() []domain.WorkerResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	copied := make([]domain.WorkerResult, len(e.accumulator))
	copy(copied, e.accumulator)
	return copied
}

func (e *Executor) fail(cause error, results []domain.WorkerResult, respond Responder) {
	e.transition(StateFailed)
	e.logger.Warn("request failed", "error", cause)

	token := domain.TokenError
	if errors.Is(cause, domain.ErrRateLimited) {
		token = domain.TokenRateLimited
	}
	e.respond(Outcome{
		Response: domain.TokenResponse(token),
		Results:  results,
		Failure:  cause,
	}, respond)
}

func (e *Executor) respond(outcome Outcome, respond Responder) {
	e.transition(StateResponding)
	if respond != nil {
		respond(outcome)
	}
	e.reset()
}

// Aggregate builds one entry per worker result, in plan order. An empty
// result list becomes the single "nothing to do" entry.
func Aggregate(results []domain.WorkerResult) domain.Response {
	if len(results) == 0 {
		return finishResponse("")
	}

	entries := make([]domain.ResponseEntry, 0, len(results))
	for _, result := range results {
		entries = append(entries, domain.EntryFromResult(result))
	}
	return domain.EntriesResponse(entries)
}

func finishResponse(answer string) domain.Response {
	if answer == "" {
		answer = nothingToDoMessage
	}
	return domain.EntriesResponse([]domain.ResponseEntry{{
		Sender:  domain.SenderSupervisor,
		Content: answer,
		Kind:    domain.EntryText,
		Status:  domain.StatusOK,
	}})
}
