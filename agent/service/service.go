// Package service is the single entry point callers wire against: one
// facade over the conversational router and the prioritization workflow.
package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	contractx "github.com/prakit/supplyline/agent/contract"
	"github.com/prakit/supplyline/agent/envelope"
	"github.com/prakit/supplyline/agent/router"
	"github.com/prakit/supplyline/agent/workflow"
)

type Service struct {
	router *router.Router
	engine *workflow.Engine
}

func New(r *router.Router, e *workflow.Engine) (*Service, error) {
	if r == nil {
		return nil, errors.New("router is required")
	}
	if e == nil {
		return nil, errors.New("workflow engine is required")
	}
	return &Service{router: r, engine: e}, nil
}

// Query routes one conversational turn. Failures of any kind, including
// validation, come back inside the envelope so callers have a single
// response shape.
func (s *Service) Query(ctx context.Context, text string, role contractx.Role, sessionID string) contractx.ResponseEnvelope {
	env, err := s.router.Route(ctx, contractx.TurnRequest{
		Text:      text,
		Role:      role,
		SessionID: sessionID,
	})
	if err != nil {
		log.Warn().Str("session_id", sessionID).Err(err).Msg("turn rejected")
		return envelope.FromError("router", err)
	}
	return env
}

// RunWorkflow validates the command and executes the prioritization
// pipeline. The error covers command validation only; run failures live in
// the report.
func (s *Service) RunWorkflow(ctx context.Context, command string) (*workflow.Report, error) {
	return s.engine.Trigger(ctx, command)
}
