package routernode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/prakit/supplyline/agent/contract"
	statex "github.com/prakit/supplyline/agent/state"
)

// Classify runs the classification capability and picks the winning handler.
// Classification failure and out-of-set identifiers fall back to the default
// handler; the caller never sees an error from this node.
func Classify(ctx context.Context, in *GraphState, classifier contractx.Classifier) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	result, err := classifier.Classify(ctx, contractx.ClassifyRequest{
		Text:    in.Request.Text,
		Role:    in.Request.Role,
		History: in.Session.Recent(5),
		Prior:   in.Session.LastDecision,
	})
	if err != nil {
		log.Warn().Err(err).
			Str("session_id", in.Session.ID).
			Msg("classification failed, routing to default handler")
		in.Handler = contractx.HandlerDefault
		in.ClassifyFailed = true
		in.Decision = statex.RoutingDecision{
			Handler: string(contractx.HandlerDefault),
			Raw:     err.Error(),
		}
		return in, nil
	}

	winner, confidence := PickWinner(result.Candidates)
	in.Handler = winner
	in.Decision = statex.RoutingDecision{
		Handler:    string(winner),
		Confidence: confidence,
		Raw:        result.Raw,
	}
	return in, nil
}

// PickWinner applies the routing tie-break policy: highest confidence wins;
// an exact tie is resolved by the fixed KnownHandlers order. Identifiers
// outside the known set are discarded; an empty field yields the default.
func PickWinner(candidates []contractx.Candidate) (contractx.HandlerID, float64) {
	best := contractx.HandlerDefault
	bestConf := -1.0
	bestPriority := len(contractx.KnownHandlers)

	for _, cand := range candidates {
		if !cand.Handler.Known() {
			continue
		}
		priority := handlerPriority(cand.Handler)
		switch {
		case cand.Confidence > bestConf:
			best, bestConf, bestPriority = cand.Handler, cand.Confidence, priority
		case cand.Confidence == bestConf && priority < bestPriority:
			best, bestPriority = cand.Handler, priority
		}
	}

	if bestConf < 0 {
		return contractx.HandlerDefault, 0
	}
	return best, bestConf
}

func handlerPriority(id contractx.HandlerID) int {
	for i, known := range contractx.KnownHandlers {
		if id == known {
			return i
		}
	}
	return len(contractx.KnownHandlers)
}
