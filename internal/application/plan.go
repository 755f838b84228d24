package application

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bnema/finagents/internal/domain"
)

type planEntryJSON struct {
	Agent string `json:"agent"`
	Task  string `json:"task"`
}

type classificationJSON struct {
	Plan   *[]planEntryJSON `json:"plan"`
	Finish *string          `json:"finish"`
}

// DecodeClassification accepts exactly one JSON object carrying either a
// "plan" list or a "finish" answer. Anything else is a malformed plan.
func DecodeClassification(raw string) (domain.Classification, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return domain.Classification{}, fmt.Errorf("%w: empty classifier output", domain.ErrMalformedPlan)
	}

	decoder := json.NewDecoder(bytes.NewReader([]byte(trimmed)))
	decoder.DisallowUnknownFields()

	var payload classificationJSON
	if err := decoder.Decode(&payload); err != nil {
		return domain.Classification{}, fmt.Errorf("%w: %v", domain.ErrMalformedPlan, err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return domain.Classification{}, fmt.Errorf("%w: trailing data after classification", domain.ErrMalformedPlan)
	}

	switch {
	case payload.Plan != nil && payload.Finish != nil:
		return domain.Classification{}, fmt.Errorf("%w: both plan and finish present", domain.ErrMalformedPlan)
	case payload.Finish != nil:
		return domain.Classification{Finish: true, Answer: strings.TrimSpace(*payload.Finish)}, nil
	case payload.Plan == nil:
		return domain.Classification{}, fmt.Errorf("%w: neither plan nor finish present", domain.ErrMalformedPlan)
	}

	entries := make([]domain.PlanEntry, 0, len(*payload.Plan))
	for i, item := range *payload.Plan {
		agent := domain.AgentID(item.Agent)
		if !agent.Valid() {
			return domain.Classification{}, fmt.Errorf("%w: entry %d: %w %q", domain.ErrMalformedPlan, i, domain.ErrUnknownAgent, item.Agent)
		}
		task := strings.TrimSpace(item.Task)
		if task == "" {
			return domain.Classification{}, fmt.Errorf("%w: entry %d: empty task", domain.ErrMalformedPlan, i)
		}
		entries = append(entries, domain.PlanEntry{Agent: agent, Subtask: task})
	}

	return domain.Classification{Plan: domain.NewDispatchPlan(entries...)}, nil
}
