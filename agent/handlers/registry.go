package handlers

import (
	"errors"

	contractx "github.com/prakit/supplyline/agent/contract"
	promptx "github.com/prakit/supplyline/agent/prompt"
)

type registryImpl struct {
	byID     map[contractx.HandlerID]contractx.Handler
	fallback contractx.Handler
}

func (r *registryImpl) Lookup(id contractx.HandlerID) (contractx.Handler, bool) {
	h, ok := r.byID[id]
	return h, ok
}

func (r *registryImpl) Default() contractx.Handler {
	return r.fallback
}

// NewRegistry wires the closed handler set. The fleet source is a data-access
// detail of the fleet monitor; every other variant only needs the generator.
func NewRegistry(gen contractx.Generator, fleet FleetSource) (contractx.Registry, error) {
	if gen == nil {
		return nil, errors.New("generator is required")
	}
	if fleet == nil {
		fleet = SimulatedFleet()
	}

	prompts := promptx.LoadPromptSet()

	byID := map[contractx.HandlerID]contractx.Handler{
		contractx.HandlerRouteOptimizer: &routeOptimizer{gen: gen, system: prompts.RouteOptimizer},
		contractx.HandlerFleetMonitor:   &fleetMonitor{gen: gen, system: prompts.FleetMonitor, fleet: fleet},
		contractx.HandlerDataRetriever:  &dataRetriever{gen: gen, system: prompts.DataRetriever},
		contractx.HandlerNotification:   &notification{gen: gen, system: prompts.Notification},
	}

	return &registryImpl{
		byID:     byID,
		fallback: &defaultHandler{gen: gen, system: prompts.Default},
	}, nil
}
