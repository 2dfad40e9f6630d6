package workflow

import (
	"time"

	contractx "github.com/prakit/supplyline/agent/contract"
	"github.com/prakit/supplyline/agent/remote"
)

// State is the run's position in the pipeline state machine.
type State string

const (
	StatePending     State = "PENDING"
	StateFetching    State = "FETCHING"
	StateScoring     State = "SCORING"
	StateUpdating    State = "UPDATING"
	StateSummarizing State = "SUMMARIZING"
	StateDone        State = "DONE"
	StateFailed      State = "FAILED"
)

// Step names match the remote operations, not the states.
const (
	StepFetch     = "fetch"
	StepScore     = "score"
	StepUpdate    = "update"
	StepSummarize = "summarize"
)

type StepOutcome string

const (
	OutcomeSuccess     StepOutcome = "success"
	OutcomeSkippedItem StepOutcome = "skipped-item"
	OutcomeAborted     StepOutcome = "aborted"
	OutcomeCancelled   StepOutcome = "cancelled"
)

// Failure reasons carried on the report when a run ends FAILED.
const (
	ReasonFetchExhausted        = "fetch-exhausted"
	ReasonScoringDependencyDown = "scoring-dependency-down"
	ReasonUpdateUnreachable     = "update-dependency-unreachable"
	ReasonSummaryWriteFailed    = "summary-write-failed"
	ReasonCancelled             = "cancelled"
)

type ItemFailure struct {
	ItemID string      `json:"item_id"`
	Kind   remote.Kind `json:"kind"`
}

// StepResult is one executed step. The run's result list is append-only and
// ordered by execution; no result is ever overwritten.
type StepResult struct {
	Step         string        `json:"step"`
	Attempts     int           `json:"attempts"`
	Outcome      StepOutcome   `json:"outcome"`
	ItemFailures []ItemFailure `json:"item_failures,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// Report is the externally visible outcome of one run. On FAILED it still
// carries every StepResult gathered so far — partial visibility, never a
// silent drop.
type Report struct {
	RunID      string       `json:"run_id"`
	State      State        `json:"state"`
	FailedStep string       `json:"failed_step,omitempty"`
	Reason     string       `json:"reason,omitempty"`
	Steps      []StepResult `json:"steps"`

	FetchedCount int `json:"fetched_count"`
	ScoredCount  int `json:"scored_count"`
	UpdatedCount int `json:"updated_count"`
	SkippedCount int `json:"skipped_count"`

	Scored  []contractx.ScoredOpportunity `json:"scored,omitempty"`
	Summary *contractx.SummaryRow         `json:"summary,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func (r *Report) Done() bool {
	return r.State == StateDone
}

// run is the mutable state owned exclusively by the one executing engine
// instance; nothing else ever touches it.
type run struct {
	report Report
}

func newRun(id string, now time.Time) *run {
	return &run{
		report: Report{
			RunID:     id,
			State:     StatePending,
			StartedAt: now.UTC(),
		},
	}
}

func (r *run) transition(next State) {
	r.report.State = next
}

func (r *run) record(res StepResult) {
	r.report.Steps = append(r.report.Steps, res)
}

func (r *run) fail(step, reason string, now time.Time) *Report {
	r.transition(StateFailed)
	r.report.FailedStep = step
	r.report.Reason = reason
	r.report.FinishedAt = now.UTC()
	return &r.report
}

func (r *run) done(now time.Time) *Report {
	r.transition(StateDone)
	r.report.FinishedAt = now.UTC()
	return &r.report
}
