package router

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	routernode "github.com/prakit/supplyline/agent/nodes/router"
)

func (r *Router) compileTurnGraph(
	ctx context.Context,
) (compose.Runnable[routernode.GraphInput, routernode.GraphOutput], error) {
	graph := compose.NewGraph[routernode.GraphInput, routernode.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in routernode.GraphInput) (*routernode.GraphState, error) {
			return routernode.ValidateRequest(in, r.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("load_session",
		compose.InvokableLambda(func(ctx context.Context, in *routernode.GraphState) (*routernode.GraphState, error) {
			return routernode.LoadSession(ctx, in, r.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_session: %w", err)
	}

	if err := graph.AddLambdaNode("classify_intent",
		compose.InvokableLambda(func(ctx context.Context, in *routernode.GraphState) (*routernode.GraphState, error) {
			return routernode.Classify(ctx, in, r.classifier)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node classify_intent: %w", err)
	}

	if err := graph.AddLambdaNode("dispatch_handler",
		compose.InvokableLambda(func(ctx context.Context, in *routernode.GraphState) (*routernode.GraphState, error) {
			return routernode.Dispatch(ctx, in, r.registry)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node dispatch_handler: %w", err)
	}

	if err := graph.AddLambdaNode("record_turn",
		compose.InvokableLambda(func(ctx context.Context, in *routernode.GraphState) (*routernode.GraphState, error) {
			return routernode.RecordTurn(ctx, in, r.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node record_turn: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_envelope",
		compose.InvokableLambda(func(ctx context.Context, in *routernode.GraphState) (routernode.GraphOutput, error) {
			return routernode.Finalize(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_envelope: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "load_session"},
		{"load_session", "classify_intent"},
		{"classify_intent", "dispatch_handler"},
		{"dispatch_handler", "record_turn"},
		{"record_turn", "finalize_envelope"},
		{"finalize_envelope", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("router.turn"))
	if err != nil {
		return nil, fmt.Errorf("compile router graph: %w", err)
	}
	return runner, nil
}
