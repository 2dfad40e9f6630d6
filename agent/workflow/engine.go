// Package workflow drives the deal-prioritization pipeline: fetch deals from
// the warehouse, score them, push results to the CRM, and persist an
// aggregate summary. Each step carries its own failure policy.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/prakit/supplyline/agent/contract"
	"github.com/prakit/supplyline/agent/remote"
	"github.com/prakit/supplyline/agent/retry"
	"github.com/prakit/supplyline/pkg/metrics"
)

// TriggerPhrase starts a run; any other command is rejected before touching
// a remote system.
const TriggerPhrase = "run q2 prioritization"

const (
	defaultScoringModel         = "prod_fin_sales_v2"
	defaultHighPriorityCutoff   = 0.8
	defaultUpdateConcurrency    = 4
	taskSubjectHighPriorityDeal = "Follow up on high-priority deal"
)

type Engine struct {
	warehouse contractx.Warehouse
	scorer    contractx.Scorer
	crm       contractx.CRM

	policy             retry.Policy
	scoringModel       string
	highPriorityCutoff float64
	updateConcurrency  int
	fetchQuery         string

	now func() time.Time
}

type Option func(*Engine)

func WithRetryPolicy(p retry.Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

func WithScoringModel(model string) Option {
	return func(e *Engine) {
		if strings.TrimSpace(model) != "" {
			e.scoringModel = model
		}
	}
}

func WithHighPriorityCutoff(cutoff float64) Option {
	return func(e *Engine) {
		if cutoff > 0 && cutoff < 1 {
			e.highPriorityCutoff = cutoff
		}
	}
}

func WithUpdateConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.updateConcurrency = n
		}
	}
}

func WithFetchQuery(query string) Option {
	return func(e *Engine) {
		e.fetchQuery = query
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func New(warehouse contractx.Warehouse, scorer contractx.Scorer, crm contractx.CRM, opts ...Option) (*Engine, error) {
	if warehouse == nil {
		return nil, errors.New("warehouse adapter is required")
	}
	if scorer == nil {
		return nil, errors.New("scorer adapter is required")
	}
	if crm == nil {
		return nil, errors.New("crm adapter is required")
	}

	e := &Engine{
		warehouse:          warehouse,
		scorer:             scorer,
		crm:                crm,
		policy:             retry.DefaultPolicy(),
		scoringModel:       defaultScoringModel,
		highPriorityCutoff: defaultHighPriorityCutoff,
		updateConcurrency:  defaultUpdateConcurrency,
		now:                time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e, nil
}

// Trigger validates the workflow command and runs the pipeline. A command
// other than the trigger phrase is a no-op validation error.
func (e *Engine) Trigger(ctx context.Context, command string) (*Report, error) {
	if !strings.EqualFold(strings.TrimSpace(command), TriggerPhrase) {
		return nil, fmt.Errorf("%w: %q", contractx.ErrUnknownCommand, command)
	}
	return e.Run(ctx), nil
}

// Run executes the pipeline to a terminal state and never returns an error:
// the report carries the outcome. Steps are strictly sequential; only the
// per-record work inside the update step runs in parallel.
func (e *Engine) Run(ctx context.Context) *Report {
	r := newRun(uuid.NewString(), e.now())
	log.Info().Str("run_id", r.report.RunID).Msg("workflow run started")

	report := e.execute(ctx, r)

	metrics.WorkflowRuns.WithLabelValues(strings.ToLower(string(report.State))).Inc()
	log.Info().
		Str("run_id", report.RunID).
		Str("state", string(report.State)).
		Str("reason", report.Reason).
		Int("fetched", report.FetchedCount).
		Int("updated", report.UpdatedCount).
		Int("skipped", report.SkippedCount).
		Msg("workflow run finished")
	return report
}

func (e *Engine) execute(ctx context.Context, r *run) *Report {
	opps, failed := e.fetchStep(ctx, r)
	if failed != nil {
		return failed
	}

	scored, failed := e.scoreStep(ctx, r, opps)
	if failed != nil {
		return failed
	}

	updated, failed := e.updateStep(ctx, r, scored)
	if failed != nil {
		return failed
	}

	if failed := e.summarizeStep(ctx, r, updated); failed != nil {
		return failed
	}

	return r.done(e.now())
}

/* --------------------------------- fetch --------------------------------- */

// fetchStep: transient failures retry; exhaustion fails the run.
func (e *Engine) fetchStep(ctx context.Context, r *run) ([]contractx.Opportunity, *Report) {
	r.transition(StateFetching)
	timer := e.stepTimer(StepFetch)
	defer timer()

	opps, attempts, err := retry.DoValue(ctx, e.policy, func(ctx context.Context) ([]contractx.Opportunity, error) {
		return e.warehouse.FetchOpportunities(ctx, e.fetchQuery)
	})
	if err != nil {
		outcome, reason := OutcomeAborted, ReasonFetchExhausted
		if remote.KindOf(err) == remote.KindCancelled {
			outcome, reason = OutcomeCancelled, ReasonCancelled
		}
		r.record(StepResult{Step: StepFetch, Attempts: attempts, Outcome: outcome, Error: err.Error()})
		return nil, r.fail(StepFetch, reason, e.now())
	}

	r.record(StepResult{Step: StepFetch, Attempts: attempts, Outcome: OutcomeSuccess})
	r.report.FetchedCount = len(opps)
	return opps, nil
}

/* --------------------------------- score --------------------------------- */

// scoreStep: abort-all. Every downstream decision feeds on these
// probabilities, so a degraded or partial scoring result is unsafe to
// propagate; any failure after retries fails the whole run.
func (e *Engine) scoreStep(ctx context.Context, r *run, opps []contractx.Opportunity) ([]contractx.ScoredOpportunity, *Report) {
	r.transition(StateScoring)
	timer := e.stepTimer(StepScore)
	defer timer()

	scored, attempts, err := retry.DoValue(ctx, e.policy, func(ctx context.Context) ([]contractx.ScoredOpportunity, error) {
		return e.scorer.Score(ctx, e.scoringModel, opps)
	})
	if err != nil {
		outcome, reason := OutcomeAborted, ReasonScoringDependencyDown
		if remote.KindOf(err) == remote.KindCancelled {
			outcome, reason = OutcomeCancelled, ReasonCancelled
		}
		r.record(StepResult{Step: StepScore, Attempts: attempts, Outcome: outcome, Error: err.Error()})
		return nil, r.fail(StepScore, reason, e.now())
	}

	r.record(StepResult{Step: StepScore, Attempts: attempts, Outcome: OutcomeSuccess})
	r.report.ScoredCount = len(scored)
	r.report.Scored = scored
	return scored, nil
}

/* --------------------------------- update -------------------------------- */

type updateOutcome struct {
	opp      contractx.ScoredOpportunity
	attempts int
	err      error
}

// updateStep: per-record isolation. Records update independently and in
// parallel; a permanent failure on one record is recorded and skipped while
// the rest proceed. The step itself only fails when the CRM is unreachable
// for every record after retries.
func (e *Engine) updateStep(ctx context.Context, r *run, scored []contractx.ScoredOpportunity) ([]contractx.ScoredOpportunity, *Report) {
	r.transition(StateUpdating)
	timer := e.stepTimer(StepUpdate)
	defer timer()

	outcomes := make([]updateOutcome, len(scored))
	sem := make(chan struct{}, e.updateConcurrency)
	var wg sync.WaitGroup

	for i, opp := range scored {
		wg.Add(1)
		go func(i int, opp contractx.ScoredOpportunity) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			attempts, err := e.updateRecord(ctx, opp)
			outcomes[i] = updateOutcome{opp: opp, attempts: attempts, err: err}
		}(i, opp)
	}
	// All record attempts, including their retries, settle before the run
	// moves on.
	wg.Wait()

	var (
		updated      []contractx.ScoredOpportunity
		itemFailures []ItemFailure
		maxAttempts  int
		cancelled    bool
	)
	for _, out := range outcomes {
		if out.attempts > maxAttempts {
			maxAttempts = out.attempts
		}
		if out.err == nil {
			updated = append(updated, out.opp)
			continue
		}
		kind := remote.KindOf(out.err)
		if kind == remote.KindCancelled {
			cancelled = true
		}
		itemID := remote.ItemID(out.err)
		if itemID == "" {
			itemID = out.opp.ID
		}
		itemFailures = append(itemFailures, ItemFailure{ItemID: itemID, Kind: kind})
		log.Warn().
			Str("run_id", r.report.RunID).
			Str("opportunity_id", out.opp.ID).
			Str("kind", string(kind)).
			Err(out.err).
			Msg("opportunity update skipped")
	}

	r.report.UpdatedCount = len(updated)
	r.report.SkippedCount = len(itemFailures)

	if cancelled {
		r.record(StepResult{Step: StepUpdate, Attempts: maxAttempts, Outcome: OutcomeCancelled, ItemFailures: itemFailures})
		return nil, r.fail(StepUpdate, ReasonCancelled, e.now())
	}

	// Entirely unreachable: every record failed and none permanently.
	if len(scored) > 0 && len(updated) == 0 && allUnreachable(itemFailures) {
		r.record(StepResult{Step: StepUpdate, Attempts: maxAttempts, Outcome: OutcomeAborted, ItemFailures: itemFailures})
		return nil, r.fail(StepUpdate, ReasonUpdateUnreachable, e.now())
	}

	outcome := OutcomeSuccess
	if len(itemFailures) > 0 {
		outcome = OutcomeSkippedItem
	}
	r.record(StepResult{Step: StepUpdate, Attempts: maxAttempts, Outcome: outcome, ItemFailures: itemFailures})
	return updated, nil
}

func (e *Engine) updateRecord(ctx context.Context, opp contractx.ScoredOpportunity) (int, error) {
	fields := map[string]any{
		"Win_Probability__c":   opp.WinProbability,
		"Next_Best_Product__c": opp.NextBestProduct,
	}

	attempts, err := retry.Do(ctx, e.policy, func(ctx context.Context) error {
		return e.crm.UpdateOpportunity(ctx, opp.ID, fields)
	})
	if err != nil {
		return attempts, err
	}

	// Follow-up task creation rides on the successful update; its failure is
	// logged but does not undo the update.
	task := contractx.TaskPayload{
		Subject: taskSubjectHighPriorityDeal,
		DueDate: e.now().AddDate(0, 0, 1).Format("2006-01-02"),
	}
	if _, taskErr := retry.Do(ctx, e.policy, func(ctx context.Context) error {
		return e.crm.CreateTask(ctx, opp.ID, task)
	}); taskErr != nil {
		log.Warn().
			Str("opportunity_id", opp.ID).
			Err(taskErr).
			Msg("follow-up task creation failed")
	}
	return attempts, nil
}

func allUnreachable(failures []ItemFailure) bool {
	for _, f := range failures {
		if f.Kind != remote.KindTransient && f.Kind != remote.KindDependencyDown {
			return false
		}
	}
	return len(failures) > 0
}

/* ------------------------------- summarize ------------------------------- */

// summarizeStep: the aggregate only consumes records that both scored and
// updated successfully.
func (e *Engine) summarizeStep(ctx context.Context, r *run, updated []contractx.ScoredOpportunity) *Report {
	r.transition(StateSummarizing)
	timer := e.stepTimer(StepSummarize)
	defer timer()

	row := contractx.SummaryRow{RunDate: e.now().Format("2006-01-02")}
	for _, opp := range updated {
		if opp.WinProbability > e.highPriorityCutoff {
			row.HighPriorityCount++
			row.TotalPipelineValue += opp.Amount
		}
	}

	attempts, err := retry.Do(ctx, e.policy, func(ctx context.Context) error {
		return e.warehouse.PersistSummary(ctx, row)
	})
	if err != nil {
		outcome, reason := OutcomeAborted, ReasonSummaryWriteFailed
		if remote.KindOf(err) == remote.KindCancelled {
			outcome, reason = OutcomeCancelled, ReasonCancelled
		}
		r.record(StepResult{Step: StepSummarize, Attempts: attempts, Outcome: outcome, Error: err.Error()})
		r.fail(StepSummarize, reason, e.now())
		return &r.report
	}

	r.record(StepResult{Step: StepSummarize, Attempts: attempts, Outcome: OutcomeSuccess})
	r.report.Summary = &row
	return nil
}

func (e *Engine) stepTimer(step string) func() {
	start := e.now()
	return func() {
		metrics.StepDuration.WithLabelValues(step).Observe(e.now().Sub(start).Seconds())
	}
}
