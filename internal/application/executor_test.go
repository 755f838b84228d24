package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/bnema/finagents/internal/domain"
	"github.com/bnema/finagents/internal/ports"
	"github.com/bnema/finagents/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func runTurn(t *testing.T, executor *Executor, ctx context.Context) (Outcome, bool, error) {
	t.Helper()

	var (
		outcome   Outcome
		responded bool
	)
	err := executor.Run(ctx, Turn{
		SystemPrompt: SystemPrompt(nvda, executor.Agents()),
		Conversation: []domain.Message{domain.UserMessage("How is NVDA doing?")},
		Company:      nvda,
	}, func(o Outcome) {
		outcome = o
		responded = true
	})
	return outcome, responded, err
}

func classifierReturning(t *testing.T, raw string, err error) *mocks.MockClassifier {
	t.Helper()

	classifier := mocks.NewMockClassifier(t)
	classifier.EXPECT().
		Classify(mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(raw, err).
		Once()
	return classifier
}

func TestExecutorDispatchesSinglePlanEntry(t *testing.T) {
	t.Parallel()

	worker := mocks.NewMockWorker(t)
	worker.EXPECT().ID().Return(domain.AgentRatios)
	worker.EXPECT().
		Invoke(mock.Anything, "ROE and ROA", nvda).
		Return(domain.OKResult(domain.AgentRatios, domain.TextPayload("ROE for NVDA: 91.87%"))).
		Once()

	executor := NewExecutor(ExecutorConfig{
		Classifier: classifierReturning(t, `{"plan":[{"agent":"ratios_agent","task":"ROE and ROA"}]}`, nil),
		Workers:    []ports.Worker{worker},
		Logger:     discardLogger(),
	})

	outcome, responded, err := runTurn(t, executor, context.Background())
	require.NoError(t, err)
	require.True(t, responded)

	assert.Equal(t, domain.EntriesResponse([]domain.ResponseEntry{{
		Sender:  domain.SenderRatios,
		Content: "ROE for NVDA: 91.87%",
		Kind:    domain.EntryText,
		Status:  domain.StatusOK,
	}}), outcome.Response)
	assert.Len(t, outcome.Results, 1)
	assert.Equal(t, StateIdle, executor.State())
}

func TestExecutorEmptyPlanRespondsNothingToDo(t *testing.T) {
	t.Parallel()

	worker := newStubWorker(domain.AgentRatios)
	executor := NewExecutor(ExecutorConfig{
		Classifier: classifierReturning(t, `{"plan":[]}`, nil),
		Workers:    []ports.Worker{worker},
	})

	outcome, responded, err := runTurn(t, executor, context.Background())
	require.NoError(t, err)
	require.True(t, responded)

	require.Len(t, outcome.Response.Entries, 1)
	entry := outcome.Response.Entries[0]
	assert.Equal(t, domain.SenderSupervisor, entry.Sender)
	assert.Equal(t, nothingToDoMessage, entry.Content)
	assert.Empty(t, worker.Calls())
}

func TestExecutorFinishCarriesSupervisorAnswer(t *testing.T) {
	t.Parallel()

	executor := NewExecutor(ExecutorConfig{
		Classifier: classifierReturning(t, `{"finish":"I can only help with NVDA financials."}`, nil),
	})

	outcome, _, err := runTurn(t, executor, context.Background())
	require.NoError(t, err)
	require.Len(t, outcome.Response.Entries, 1)
	assert.Equal(t, "I can only help with NVDA financials.", outcome.Response.Entries[0].Content)
	assert.True(t, outcome.Classification.Finish)
}

func TestExecutorMalformedClassificationRespondsErrorToken(t *testing.T) {
	t.Parallel()

	worker := newStubWorker(domain.AgentRatios)
	executor := NewExecutor(ExecutorConfig{
		Classifier: classifierReturning(t, "ratios_agent", nil),
		Workers:    []ports.Worker{worker},
	})

	outcome, responded, err := runTurn(t, executor, context.Background())
	require.NoError(t, err)
	require.True(t, responded)

	assert.Equal(t, domain.TokenResponse(domain.TokenError), outcome.Response)
	assert.ErrorIs(t, outcome.Failure, domain.ErrMalformedPlan)
	assert.Empty(t, worker.Calls())
	assert.Equal(t, StateIdle, executor.State())
}

func TestExecutorClassifierFailureRespondsErrorToken(t *testing.T) {
	t.Parallel()

	executor := NewExecutor(ExecutorConfig{
		Classifier: classifierReturning(t, "", errors.New("connection refused")),
	})

	outcome, _, err := runTurn(t, executor, context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.TokenResponse(domain.TokenError), outcome.Response)
}

func TestExecutorRateLimitIsEscalated(t *testing.T) {
	t.Parallel()

	t.Run("classifier", func(t *testing.T) {
		t.Parallel()

		executor := NewExecutor(ExecutorConfig{
			Classifier: classifierReturning(t, "", fmt.Errorf("chat completion: %w", domain.ErrRateLimited)),
		})

		outcome, _, err := runTurn(t, executor, context.Background())
		require.NoError(t, err)
		assert.Equal(t, domain.TokenResponse(domain.TokenRateLimited), outcome.Response)
	})

	t.Run("worker", func(t *testing.T) {
		t.Parallel()

		ratios := newStubWorker(domain.AgentRatios)
		ratios.result = func(string, domain.CompanyContext) domain.WorkerResult {
			return domain.ErrorResult(domain.AgentRatios, "rate limited", fmt.Errorf("fetch facts: %w", domain.ErrRateLimited))
		}
		techplot := newStubWorker(domain.AgentTechPlot)
		executor := NewExecutor(ExecutorConfig{
			Classifier: classifierReturning(t, `{"plan":[{"agent":"ratios_agent","task":"ROE"},{"agent":"techplot_agent","task":"plot"}]}`, nil),
			Workers:    []ports.Worker{ratios, techplot},
		})

		outcome, _, err := runTurn(t, executor, context.Background())
		require.NoError(t, err)
		assert.Equal(t, domain.TokenResponse(domain.TokenRateLimited), outcome.Response)
		assert.Empty(t, techplot.Calls())
		assert.Equal(t, StateIdle, executor.State())
	})
}

func TestExecutorRecordsWorkerFailureAndContinues(t *testing.T) {
	t.Parallel()

	ratios := newStubWorker(domain.AgentRatios)
	ratios.result = func(string, domain.CompanyContext) domain.WorkerResult {
		return domain.ErrorResult(domain.AgentRatios, "Could not fetch financial data for NVDA.", errors.New("boom"))
	}
	techplot := newStubWorker(domain.AgentTechPlot)
	compinfo := newStubWorker(domain.AgentCompInfo)

	executor := NewExecutor(ExecutorConfig{
		Classifier: classifierReturning(t, `{"plan":[`+
			`{"agent":"techplot_agent","task":"plot closing price"},`+
			`{"agent":"ratios_agent","task":"ROE"},`+
			`{"agent":"compinfo_agent","task":"exchange"}]}`, nil),
		Workers: []ports.Worker{ratios, techplot, compinfo},
	})

	outcome, responded, err := runTurn(t, executor, context.Background())
	require.NoError(t, err)
	require.True(t, responded)
	require.Len(t, outcome.Response.Entries, 3)

	entries := outcome.Response.Entries
	assert.Equal(t, domain.SenderTechPlot, entries[0].Sender)
	assert.Equal(t, domain.StatusOK, entries[0].Status)
	assert.Equal(t, domain.SenderRatios, entries[1].Sender)
	assert.Equal(t, domain.StatusError, entries[1].Status)
	assert.Equal(t, "Could not fetch financial data for NVDA.", entries[1].Content)
	assert.Equal(t, domain.SenderCompInfo, entries[2].Sender)
	assert.Equal(t, domain.StatusOK, entries[2].Status)
	assert.Equal(t, []string{"exchange"}, compinfo.Calls())
}

func TestExecutorAbortPolicySkipsRemainingEntries(t *testing.T) {
	t.Parallel()

	ratios := newStubWorker(domain.AgentRatios)
	ratios.result = func(string, domain.CompanyContext) domain.WorkerResult {
		return domain.ErrorResult(domain.AgentRatios, "failed", errors.New("boom"))
	}
	techplot := newStubWorker(domain.AgentTechPlot)

	executor := NewExecutor(ExecutorConfig{
		Classifier:    classifierReturning(t, `{"plan":[{"agent":"ratios_agent","task":"ROE"},{"agent":"techplot_agent","task":"plot"},{"agent":"ratios_agent","task":"ROA"}]}`, nil),
		Workers:       []ports.Worker{ratios, techplot},
		FailurePolicy: AbortOnWorkerError,
	})

	outcome, _, err := runTurn(t, executor, context.Background())
	require.NoError(t, err)
	require.Len(t, outcome.Response.Entries, 3)
	for _, entry := range outcome.Response.Entries {
		assert.Equal(t, domain.StatusError, entry.Status)
	}
	assert.Equal(t, skippedMessage, outcome.Response.Entries[1].Content)
	assert.Equal(t, domain.SenderRatios, outcome.Response.Entries[2].Sender)
	assert.Equal(t, []string{"ROE"}, ratios.Calls())
	assert.Empty(t, techplot.Calls())
}

func TestExecutorDrainsPlanInOrder(t *testing.T) {
	t.Parallel()

	ratios := newStubWorker(domain.AgentRatios)
	executor := NewExecutor(ExecutorConfig{
		Classifier: classifierReturning(t, `{"plan":[{"agent":"ratios_agent","task":"ROA"},{"agent":"ratios_agent","task":"ROE"},{"agent":"ratios_agent","task":"ROA"}]}`, nil),
		Workers:    []ports.Worker{ratios},
	})

	outcome, _, err := runTurn(t, executor, context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"ROA", "ROE", "ROA"}, ratios.Calls())
	require.Len(t, outcome.Response.Entries, 3)
	assert.Equal(t, "ratios_agent: ROA for NVDA", outcome.Response.Entries[0].Content)
	assert.Equal(t, "ratios_agent: ROE for NVDA", outcome.Response.Entries[1].Content)
	assert.Equal(t, "ratios_agent: ROA for NVDA", outcome.Response.Entries[2].Content)
}

func TestExecutorUnregisteredWorkerBecomesErrorEntry(t *testing.T) {
	t.Parallel()

	executor := NewExecutor(ExecutorConfig{
		Classifier: classifierReturning(t, `{"plan":[{"agent":"compinfo_agent","task":"exchange"}]}`, nil),
	})

	outcome, _, err := runTurn(t, executor, context.Background())
	require.NoError(t, err)
	require.Len(t, outcome.Response.Entries, 1)
	assert.Equal(t, domain.StatusError, outcome.Response.Entries[0].Status)
	assert.ErrorIs(t, outcome.Results[0].Err, domain.ErrUnknownAgent)
}

func TestExecutorAttachmentEntry(t *testing.T) {
	t.Parallel()

	techplot := newStubWorker(domain.AgentTechPlot)
	techplot.result = func(string, domain.CompanyContext) domain.WorkerResult {
		return domain.OKResult(domain.AgentTechPlot, domain.AttachmentPayload(domain.Attachment{
			Kind: domain.AttachmentPlot,
			Ref:  "NVDA_ClosingPrice.png",
		}))
	}
	executor := NewExecutor(ExecutorConfig{
		Classifier: classifierReturning(t, `{"plan":[{"agent":"techplot_agent","task":"plot"}]}`, nil),
		Workers:    []ports.Worker{techplot},
	})

	outcome, _, err := runTurn(t, executor, context.Background())
	require.NoError(t, err)
	require.Len(t, outcome.Response.Entries, 1)
	assert.Equal(t, domain.EntryAttachment, outcome.Response.Entries[0].Kind)
	assert.Equal(t, "NVDA_ClosingPrice.png", outcome.Response.Entries[0].Content)
}

func TestExecutorCanceledDuringWorkerDoesNotRespond(t *testing.T) {
	t.Parallel()

	ratios := newStubWorker(domain.AgentRatios)
	ratios.started = make(chan string, 1)
	ratios.release = make(chan struct{})
	executor := NewExecutor(ExecutorConfig{
		Classifier: classifierReturning(t, `{"plan":[{"agent":"ratios_agent","task":"ROE"},{"agent":"ratios_agent","task":"ROA"}]}`, nil),
		Workers:    []ports.Worker{ratios},
	})

	ctx, cancel := context.WithCancel(context.Background())
	type runResult struct {
		responded bool
		err       error
	}
	done := make(chan runResult, 1)
	go func() {
		_, responded, err := runTurn(t, executor, ctx)
		done <- runResult{responded: responded, err: err}
	}()

	waitStarted(t, ratios.started)
	assert.Equal(t, StateAwaitingWorker, executor.State())
	cancel()
	close(ratios.release)

	result := <-done
	assert.ErrorIs(t, result.err, context.Canceled)
	assert.False(t, result.responded)
	assert.Equal(t, []string{"ROE"}, ratios.Calls())
	assert.Equal(t, StateIdle, executor.State())
}

func TestExecutorRejectsConcurrentRun(t *testing.T) {
	t.Parallel()

	ratios := newStubWorker(domain.AgentRatios)
	ratios.started = make(chan string, 1)
	ratios.release = make(chan struct{})
	executor := NewExecutor(ExecutorConfig{
		Classifier: classifierReturning(t, `{"plan":[{"agent":"ratios_agent","task":"ROE"}]}`, nil),
		Workers:    []ports.Worker{ratios},
	})

	done := make(chan error, 1)
	go func() {
		_, _, err := runTurn(t, executor, context.Background())
		done <- err
	}()
	waitStarted(t, ratios.started)

	err := executor.Run(context.Background(), Turn{}, nil)
	assert.ErrorIs(t, err, domain.ErrSessionBusy)

	close(ratios.release)
	require.NoError(t, <-done)
	assert.Equal(t, StateIdle, executor.State())
}

func TestExecutorIdenticalInputsProduceIdenticalOutput(t *testing.T) {
	t.Parallel()

	raw := `{"plan":[{"agent":"ratios_agent","task":"ROE"},{"agent":"techplot_agent","task":"plot"}]}`
	render := func() []byte {
		executor := NewExecutor(ExecutorConfig{
			Classifier: classifierReturning(t, raw, nil),
			Workers:    []ports.Worker{newStubWorker(domain.AgentRatios), newStubWorker(domain.AgentTechPlot)},
		})
		outcome, _, err := runTurn(t, executor, context.Background())
		require.NoError(t, err)
		data, err := json.Marshal(outcome.Response)
		require.NoError(t, err)
		return data
	}

	assert.Equal(t, render(), render())
}

func TestTransitionTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to State
		allowed  bool
	}{
		{StateIdle, StateClassifying, true},
		{StateIdle, StateDispatching, false},
		{StateClassifying, StateAggregating, true},
		{StateClassifying, StateFailed, true},
		{StateDispatching, StateAwaitingWorker, true},
		{StateAwaitingWorker, StateDispatching, true},
		{StateAwaitingWorker, StateAggregating, false},
		{StateAggregating, StateResponding, true},
		{StateFailed, StateResponding, true},
		{StateFailed, StateIdle, false},
		{StateResponding, StateIdle, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, canTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestParseFailurePolicy(t *testing.T) {
	t.Parallel()

	policy, err := ParseFailurePolicy("")
	require.NoError(t, err)
	assert.Equal(t, ContinueOnWorkerError, policy)

	policy, err = ParseFailurePolicy(" Abort ")
	require.NoError(t, err)
	assert.Equal(t, AbortOnWorkerError, policy)

	_, err = ParseFailurePolicy("retry")
	assert.ErrorIs(t, err, ErrUnknownFailurePolicy)
}
