package warehouse

import (
	"context"
	"sync"

	contractx "github.com/prakit/supplyline/agent/contract"
)

// Simulated is an in-memory warehouse with a fixed opportunity set, used in
// simulated mode and tests. Persisted rows are retained for inspection.
type Simulated struct {
	mu        sync.Mutex
	opps      []contractx.Opportunity
	persisted []contractx.SummaryRow

	fetchErr   error
	persistErr error
}

func NewSimulated() *Simulated {
	return &Simulated{opps: seedOpportunities()}
}

func seedOpportunities() []contractx.Opportunity {
	return []contractx.Opportunity{
		{
			ID:        "opp_001",
			Amount:    125000,
			Industry:  "logistics",
			AccountID: "acc_8841",
			Stage:     "negotiation",
			Features:  map[string]float64{"days_in_stage": 12, "contacts_count": 4},
		},
		{
			ID:        "opp_002",
			Amount:    48000,
			Industry:  "retail",
			AccountID: "acc_2190",
			Stage:     "proposal",
			Features:  map[string]float64{"days_in_stage": 31, "contacts_count": 1},
		},
		{
			ID:        "opp_003",
			Amount:    310000,
			Industry:  "manufacturing",
			AccountID: "acc_5527",
			Stage:     "negotiation",
			Features:  map[string]float64{"days_in_stage": 6, "contacts_count": 7},
		},
	}
}

func (s *Simulated) FetchOpportunities(ctx context.Context, query string) ([]contractx.Opportunity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	out := make([]contractx.Opportunity, len(s.opps))
	copy(out, s.opps)
	return out, nil
}

func (s *Simulated) PersistSummary(ctx context.Context, row contractx.SummaryRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.persistErr != nil {
		return s.persistErr
	}
	s.persisted = append(s.persisted, row)
	return nil
}

// Persisted returns a copy of every summary row written so far.
func (s *Simulated) Persisted() []contractx.SummaryRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]contractx.SummaryRow, len(s.persisted))
	copy(out, s.persisted)
	return out
}

// SetOpportunities replaces the seed set.
func (s *Simulated) SetOpportunities(opps []contractx.Opportunity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opps = opps
}

// FailFetch makes every fetch return err until cleared with nil.
func (s *Simulated) FailFetch(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchErr = err
}

// FailPersist makes every summary write return err until cleared with nil.
func (s *Simulated) FailPersist(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistErr = err
}
