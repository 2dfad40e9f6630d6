package handlers

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/prakit/supplyline/agent/contract"
	statex "github.com/prakit/supplyline/agent/state"
)

// contextWindow bounds how much session history a handler forwards to the
// generation capability.
const contextWindow = 5

type routeOptimizer struct {
	gen    contractx.Generator
	system string
}

func (h *routeOptimizer) ID() contractx.HandlerID {
	return contractx.HandlerRouteOptimizer
}

func (h *routeOptimizer) Handle(ctx context.Context, req contractx.HandlerRequest, session *statex.Session) (contractx.HandlerResponse, error) {
	out, err := h.gen.Generate(ctx, contractx.GenerateRequest{
		System:  h.system,
		Prompt:  rolePrompt(req),
		History: recent(session),
	})
	if err != nil {
		return contractx.HandlerResponse{}, err
	}
	return contractx.HandlerResponse{
		Content: out.Text,
		Metadata: map[string]any{
			"capability": "route_optimization",
		},
		Usage: out.Usage,
	}, nil
}

type fleetMonitor struct {
	gen    contractx.Generator
	system string
	fleet  FleetSource
}

func (h *fleetMonitor) ID() contractx.HandlerID {
	return contractx.HandlerFleetMonitor
}

func (h *fleetMonitor) Handle(ctx context.Context, req contractx.HandlerRequest, session *statex.Session) (contractx.HandlerResponse, error) {
	vehicles, err := h.fleet.Vehicles(ctx)
	if err != nil {
		return contractx.HandlerResponse{}, fmt.Errorf("read fleet records: %w", err)
	}

	out, err := h.gen.Generate(ctx, contractx.GenerateRequest{
		System:  h.system,
		Prompt:  fmt.Sprintf("%s\n\nCurrent fleet records:\n%s", rolePrompt(req), summarizeFleet(vehicles)),
		History: recent(session),
	})
	if err != nil {
		return contractx.HandlerResponse{}, err
	}
	return contractx.HandlerResponse{
		Content: out.Text,
		Metadata: map[string]any{
			"capability":    "fleet_status",
			"vehicle_count": len(vehicles),
		},
		Usage: out.Usage,
	}, nil
}

type dataRetriever struct {
	gen    contractx.Generator
	system string
}

func (h *dataRetriever) ID() contractx.HandlerID {
	return contractx.HandlerDataRetriever
}

func (h *dataRetriever) Handle(ctx context.Context, req contractx.HandlerRequest, session *statex.Session) (contractx.HandlerResponse, error) {
	out, err := h.gen.Generate(ctx, contractx.GenerateRequest{
		System:  h.system,
		Prompt:  rolePrompt(req),
		History: recent(session),
	})
	if err != nil {
		return contractx.HandlerResponse{}, err
	}
	return contractx.HandlerResponse{
		Content: out.Text,
		Metadata: map[string]any{
			"capability": "external_data",
		},
		Usage: out.Usage,
	}, nil
}

type notification struct {
	gen    contractx.Generator
	system string
}

func (h *notification) ID() contractx.HandlerID {
	return contractx.HandlerNotification
}

func (h *notification) Handle(ctx context.Context, req contractx.HandlerRequest, session *statex.Session) (contractx.HandlerResponse, error) {
	out, err := h.gen.Generate(ctx, contractx.GenerateRequest{
		System:  h.system,
		Prompt:  rolePrompt(req),
		History: recent(session),
	})
	if err != nil {
		return contractx.HandlerResponse{}, err
	}
	return contractx.HandlerResponse{
		Content: out.Text,
		Metadata: map[string]any{
			"capability": "notification",
			"channel":    "ops-alerts",
		},
		Usage: out.Usage,
	}, nil
}

type defaultHandler struct {
	gen    contractx.Generator
	system string
}

func (h *defaultHandler) ID() contractx.HandlerID {
	return contractx.HandlerDefault
}

func (h *defaultHandler) Handle(ctx context.Context, req contractx.HandlerRequest, session *statex.Session) (contractx.HandlerResponse, error) {
	out, err := h.gen.Generate(ctx, contractx.GenerateRequest{
		System:  h.system,
		Prompt:  rolePrompt(req),
		History: recent(session),
	})
	if err != nil {
		return contractx.HandlerResponse{}, err
	}
	return contractx.HandlerResponse{
		Content: out.Text,
		Metadata: map[string]any{
			"capability": "general",
		},
		Usage: out.Usage,
	}, nil
}

func rolePrompt(req contractx.HandlerRequest) string {
	return fmt.Sprintf("User role: %s\nUser request: %s", req.Role, req.Text)
}

func recent(session *statex.Session) []statex.Message {
	if session == nil {
		return nil
	}
	return session.Recent(contextWindow)
}

func summarizeFleet(vehicles []Vehicle) string {
	var b strings.Builder
	for _, v := range vehicles {
		fmt.Fprintf(&b, "- %s (%s, driver %s): %s, fuel %d%%, next service %s",
			v.ID, v.Type, v.Driver, v.Status, v.FuelLevel, v.NextServiceDue)
		if len(v.Issues) > 0 {
			fmt.Fprintf(&b, ", issues: %s", strings.Join(v.Issues, "; "))
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
