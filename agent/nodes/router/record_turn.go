package routernode

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	contractx "github.com/prakit/supplyline/agent/contract"
	statex "github.com/prakit/supplyline/agent/state"
)

// RecordTurn appends the turn's messages and the routing decision to the
// session. Ephemeral sessions are updated in place and never stored.
func RecordTurn(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	userMsg := statex.Message{
		ID:        uuid.NewString(),
		Role:      statex.RoleUser,
		Content:   in.Request.Text,
		Timestamp: in.Now,
	}

	var agentMsg *statex.Message
	if in.HandlerErr == nil {
		agentMsg = &statex.Message{
			ID:        uuid.NewString(),
			Role:      statex.RoleAgent,
			Content:   in.HandlerResp.Content,
			Timestamp: in.Now,
			Handler:   string(in.Handler),
		}
	}

	if in.Ephemeral {
		in.Session.AppendMessage(userMsg, statex.DefaultMaxHistory)
		if agentMsg != nil {
			in.Session.AppendMessage(*agentMsg, statex.DefaultMaxHistory)
		}
		if !in.ClassifyFailed {
			in.Session.LastDecision = &in.Decision
		}
		return in, nil
	}

	sid := in.Session.ID
	if err := store.Append(ctx, sid, userMsg); err != nil {
		return nil, err
	}
	if agentMsg != nil {
		if err := store.Append(ctx, sid, *agentMsg); err != nil {
			return nil, err
		}
	}
	// A failed classification never overwrites the routing context: the next
	// back-reference still resolves against the last successful decision.
	if in.ClassifyFailed {
		return in, nil
	}
	if err := store.SetDecision(ctx, sid, in.Decision); err != nil {
		return nil, err
	}
	return in, nil
}
