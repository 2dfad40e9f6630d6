package routernode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/prakit/supplyline/agent/contract"
	"github.com/prakit/supplyline/pkg/metrics"
)

// Dispatch invokes the chosen handler. A handler error is captured in the
// state so the turn still produces an envelope.
func Dispatch(ctx context.Context, in *GraphState, registry contractx.Registry) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	handler, ok := registry.Lookup(in.Handler)
	if !ok {
		// The default handler lives outside the lookup map; reaching it is
		// routing policy, not an unknown identifier.
		if in.Handler != contractx.HandlerDefault {
			log.Warn().
				Err(fmt.Errorf("%w: %s", contractx.ErrUnknownHandler, in.Handler)).
				Str("session_id", in.Session.ID).
				Msg("falling back to default handler")
		}
		handler = registry.Default()
		in.Handler = handler.ID()
		in.Decision.Handler = string(handler.ID())
	}

	metrics.RoutedRequests.WithLabelValues(string(in.Handler)).Inc()

	resp, err := handler.Handle(ctx, contractx.HandlerRequest{
		Text: in.Request.Text,
		Role: in.Request.Role,
	}, in.Session)
	if err != nil {
		log.Error().Err(err).
			Str("handler", string(in.Handler)).
			Str("session_id", in.Session.ID).
			Msg("handler failed")
		in.HandlerErr = err
		return in, nil
	}

	in.HandlerResp = resp
	return in, nil
}
