// Package router classifies inbound requests and dispatches them to the
// matching specialized handler while keeping per-session conversational
// continuity.
package router

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/prakit/supplyline/agent/contract"
	routernode "github.com/prakit/supplyline/agent/nodes/router"
	statex "github.com/prakit/supplyline/agent/state"
)

var (
	ErrEmptyText   = routernode.ErrEmptyText
	ErrInvalidRole = routernode.ErrInvalidRole
)

type Router struct {
	store      statex.Store
	classifier contractx.Classifier
	registry   contractx.Registry

	graphRunner compose.Runnable[routernode.GraphInput, routernode.GraphOutput]

	now func() time.Time
}

func New(store statex.Store, classifier contractx.Classifier, registry contractx.Registry) (*Router, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if classifier == nil {
		return nil, errors.New("classifier is required")
	}
	if registry == nil {
		return nil, errors.New("handler registry is required")
	}

	r := &Router{
		store:      store,
		classifier: classifier,
		registry:   registry,
		now:        time.Now,
	}

	graphRunner, err := r.compileTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	r.graphRunner = graphRunner

	return r, nil
}

// Route processes one turn. Turns on the same session are serialized through
// the store's per-session lock; distinct sessions run fully in parallel.
// A returned error is a validation or storage failure, never a handler or
// classification outcome — those are embedded in the envelope.
func (r *Router) Route(ctx context.Context, req contractx.TurnRequest) (contractx.ResponseEnvelope, error) {
	if sid := strings.TrimSpace(req.SessionID); sid != "" {
		unlock := r.store.Lock(sid)
		defer unlock()
	}

	out, err := r.graphRunner.Invoke(ctx, routernode.GraphInput{Request: req})
	if err != nil {
		return contractx.ResponseEnvelope{}, err
	}
	return out.Envelope, nil
}
