package domain

type PlanEntry struct {
	Agent   AgentID
	Subtask string
}

// DispatchPlan is consumed strictly from the head. It is never reordered.
type DispatchPlan struct {
	entries []PlanEntry
}

func NewDispatchPlan(entries ...PlanEntry) DispatchPlan {
	copied := make([]PlanEntry, len(entries))
	copy(copied, entries)
	return DispatchPlan{entries: copied}
}

func (p DispatchPlan) Len() int {
	return len(p.entries)
}

func (p DispatchPlan) Empty() bool {
	return len(p.entries) == 0
}

func (p DispatchPlan) Entries() []PlanEntry {
	copied := make([]PlanEntry, len(p.entries))
	copy(copied, p.entries)
	return copied
}

func (p *DispatchPlan) Pop() (PlanEntry, bool) {
	if p == nil || len(p.entries) == 0 {
		return PlanEntry{}, false
	}

	head := p.entries[0]
	p.entries = p.entries[1:]
	return head, true
}

// Classification is the decoded classifier output: either a plan to drain
// or a finish marker carrying the supervisor's own answer.
type Classification struct {
	Plan   DispatchPlan
	Finish bool
	Answer string
}
