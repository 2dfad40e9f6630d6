package routernode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/prakit/supplyline/agent/contract"
	statex "github.com/prakit/supplyline/agent/state"
)

var (
	ErrEmptyText   = errors.New("request text is empty")
	ErrInvalidRole = errors.New("role is not in the allowed set")
)

type GraphInput struct {
	Request contractx.TurnRequest
}

type GraphOutput struct {
	Envelope contractx.ResponseEnvelope
}

// GraphState is threaded through the routing turn pipeline.
type GraphState struct {
	Request contractx.TurnRequest
	Now     time.Time

	// Ephemeral is set when the turn carries no session identifier; the
	// session then lives only for this turn and is never stored.
	Ephemeral bool
	Session   *statex.Session

	Decision statex.RoutingDecision
	Handler  contractx.HandlerID
	// ClassifyFailed marks a turn whose classification errored. The turn
	// still dispatches to the default handler, but the session's routing
	// context is only ever overwritten by a successful classification.
	ClassifyFailed bool

	HandlerResp contractx.HandlerResponse
	// HandlerErr is carried, not raised: the router path always answers with
	// an envelope.
	HandlerErr error
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	text := strings.TrimSpace(in.Request.Text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if !in.Request.Role.Valid() {
		return nil, ErrInvalidRole
	}

	return &GraphState{
		Request: contractx.TurnRequest{
			Text:      text,
			Role:      in.Request.Role,
			SessionID: strings.TrimSpace(in.Request.SessionID),
		},
		Now: nowFn().UTC(),
	}, nil
}
