package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/bnema/finagents/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var nvda = domain.CompanyContext{Ticker: "NVDA", CIK: domain.NewCIK(1045810), Name: "NVIDIA CORP"}

type stubWorker struct {
	id      domain.AgentID
	started chan string
	release chan struct{}
	result  func(subtask string, company domain.CompanyContext) domain.WorkerResult

	mu    sync.Mutex
	calls []string
}

func newStubWorker(id domain.AgentID) *stubWorker {
	return &stubWorker{id: id}
}

func (w *stubWorker) ID() domain.AgentID {
	return w.id
}

func (w *stubWorker) Invoke(_ context.Context, subtask string, company domain.CompanyContext) domain.WorkerResult {
	w.mu.Lock()
	w.calls = append(w.calls, subtask)
	w.mu.Unlock()

	if w.started != nil {
		w.started <- subtask
	}
	if w.release != nil {
		<-w.release
	}
	if w.result != nil {
		return w.result(subtask, company)
	}
	return domain.OKResult(w.id, domain.TextPayload(fmt.Sprintf("%s: %s for %s", w.id, subtask, company.Ticker)))
}

func (w *stubWorker) Calls() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.calls...)
}

type recordingSink struct {
	responses chan domain.Response

	mu     sync.Mutex
	closes []string
}

func newRecordingSink() *recordingSink {
	return &recordingSink{responses: make(chan domain.Response, 16)}
}

func (s *recordingSink) Deliver(_ context.Context, response domain.Response) error {
	s.responses <- response
	return nil
}

func (s *recordingSink) Close(reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes = append(s.closes, reason)
	return nil
}

func (s *recordingSink) Closes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.closes...)
}

func (s *recordingSink) next(t *testing.T) domain.Response {
	t.Helper()
	select {
	case response := <-s.responses:
		return response
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for response")
		return domain.Response{}
	}
}

func (s *recordingSink) assertEmpty(t *testing.T) {
	t.Helper()
	select {
	case response := <-s.responses:
		t.Fatalf("unexpected response delivered: %+v", response)
	default:
	}
}

func waitStarted(t *testing.T, started <-chan string) string {
	t.Helper()
	select {
	case subtask := <-started:
		return subtask
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for worker to start")
		return ""
	}
}
