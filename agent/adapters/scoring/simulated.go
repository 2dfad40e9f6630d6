package scoring

import (
	"context"
	"hash/fnv"
	"sync"

	contractx "github.com/prakit/supplyline/agent/contract"
)

// Simulated scores deterministically from the opportunity ID so simulated
// runs are reproducible. Negotiation-stage deals score high enough to cross
// the priority threshold.
type Simulated struct {
	mu  sync.Mutex
	err error
}

func NewSimulated() *Simulated {
	return &Simulated{}
}

// Fail makes every Score call return err until cleared with nil.
func (s *Simulated) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *Simulated) failure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Simulated) Score(ctx context.Context, model string, opps []contractx.Opportunity) ([]contractx.ScoredOpportunity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.failure(); err != nil {
		return nil, err
	}

	scored := make([]contractx.ScoredOpportunity, 0, len(opps))
	for _, opp := range opps {
		scored = append(scored, contractx.ScoredOpportunity{
			Opportunity:     opp,
			WinProbability:  simulatedProbability(opp),
			NextBestProduct: simulatedProduct(opp),
		})
	}
	return scored, nil
}

func simulatedProbability(opp contractx.Opportunity) float64 {
	h := fnv.New32a()
	h.Write([]byte(opp.ID))
	base := float64(h.Sum32()%60) / 100 // 0.00..0.59
	if opp.Stage == "negotiation" {
		base += 0.40
	}
	return clamp01(base)
}

func simulatedProduct(opp contractx.Opportunity) string {
	switch opp.Industry {
	case "logistics":
		return "fleet-telematics"
	case "manufacturing":
		return "premium-support"
	default:
		return DefaultNextBestProduct
	}
}
