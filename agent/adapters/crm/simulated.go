package crm

import (
	"context"
	"sync"

	contractx "github.com/prakit/supplyline/agent/contract"
)

// Simulated records CRM writes in memory. Per-record failures can be staged
// so tests exercise the skip-and-continue path without a live endpoint.
type Simulated struct {
	mu      sync.Mutex
	updates map[string]map[string]any
	tasks   map[string][]contractx.TaskPayload

	updateErrs map[string]error
	taskErrs   map[string]error
}

func NewSimulated() *Simulated {
	return &Simulated{
		updates:    make(map[string]map[string]any),
		tasks:      make(map[string][]contractx.TaskPayload),
		updateErrs: make(map[string]error),
		taskErrs:   make(map[string]error),
	}
}

func (s *Simulated) UpdateOpportunity(ctx context.Context, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.updateErrs[id]; err != nil {
		return err
	}
	merged, ok := s.updates[id]
	if !ok {
		merged = make(map[string]any, len(fields))
		s.updates[id] = merged
	}
	for k, v := range fields {
		merged[k] = v
	}
	return nil
}

func (s *Simulated) CreateTask(ctx context.Context, opportunityID string, task contractx.TaskPayload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.taskErrs[opportunityID]; err != nil {
		return err
	}
	s.tasks[opportunityID] = append(s.tasks[opportunityID], task)
	return nil
}

// Updates returns the accumulated field writes for one record.
func (s *Simulated) Updates(id string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	fields, ok := s.updates[id]
	if !ok {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// Tasks returns the tasks filed against one record.
func (s *Simulated) Tasks(id string) []contractx.TaskPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]contractx.TaskPayload, len(s.tasks[id]))
	copy(out, s.tasks[id])
	return out
}

// FailUpdate makes updates for one record return err until cleared with nil.
func (s *Simulated) FailUpdate(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.updateErrs, id)
		return
	}
	s.updateErrs[id] = err
}

// FailTask makes task creation for one record return err until cleared.
func (s *Simulated) FailTask(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.taskErrs, id)
		return
	}
	s.taskErrs[id] = err
}
