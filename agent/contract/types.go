package contract

import (
	statex "github.com/prakit/supplyline/agent/state"
)

// HandlerID identifies one specialized handler variant. The set is closed;
// the router never dispatches outside of it.
type HandlerID string

const (
	HandlerRouteOptimizer HandlerID = "route_optimizer"
	HandlerFleetMonitor   HandlerID = "fleet_monitor"
	HandlerDataRetriever  HandlerID = "data_retriever"
	HandlerNotification   HandlerID = "notification"
	HandlerDefault        HandlerID = "default"
)

// KnownHandlers lists the dispatchable handlers in tie-break priority order.
// On an exact confidence tie the earlier entry wins.
var KnownHandlers = []HandlerID{
	HandlerRouteOptimizer,
	HandlerFleetMonitor,
	HandlerDataRetriever,
	HandlerNotification,
}

func (h HandlerID) Known() bool {
	for _, id := range KnownHandlers {
		if h == id {
			return true
		}
	}
	return false
}

type Role string

const (
	RoleAdmin                Role = "admin"
	RoleDriver               Role = "driver"
	RoleLogisticsCoordinator Role = "logistics_coordinator"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDriver, RoleLogisticsCoordinator:
		return true
	}
	return false
}

// TurnRequest is one inbound router turn. SessionID may be empty, which makes
// the turn ephemeral: a throwaway session that is never persisted.
type TurnRequest struct {
	Text      string `json:"text"`
	Role      Role   `json:"role"`
	SessionID string `json:"session_id,omitempty"`
}

// Candidate is one plausible handler proposed by the classifier.
type Candidate struct {
	Handler    HandlerID `json:"handler"`
	Confidence float64   `json:"confidence"`
}

type ClassifyRequest struct {
	Text    string                  `json:"text"`
	Role    Role                    `json:"role"`
	History []statex.Message        `json:"history,omitempty"`
	Prior   *statex.RoutingDecision `json:"prior,omitempty"`
}

type ClassifyResult struct {
	Candidates []Candidate `json:"candidates"`
	Raw        string      `json:"raw,omitempty"`
}

type GenerateRequest struct {
	System  string           `json:"system"`
	Prompt  string           `json:"prompt"`
	History []statex.Message `json:"history,omitempty"`
}

type GenerateResponse struct {
	Text  string     `json:"text"`
	Usage TokenUsage `json:"usage"`
}

type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func (u TokenUsage) IsZero() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0
}

type HandlerRequest struct {
	Text string `json:"text"`
	Role Role   `json:"role"`
}

type HandlerResponse struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Usage    TokenUsage     `json:"usage"`
}

// ResponseEnvelope is the externally visible response shape for the router
// path. Failure is always carried in Error, never as a raised error, so a
// conversation survives a bad turn.
type ResponseEnvelope struct {
	Content    string      `json:"content"`
	AgentUsed  string      `json:"agent_used"`
	Error      string      `json:"error,omitempty"`
	TokenUsage *TokenUsage `json:"token_usage,omitempty"`
}

/* ------------------------- deal pipeline payloads ------------------------ */

// Opportunity is an immutable scoring input fetched from the warehouse.
type Opportunity struct {
	ID        string             `json:"id"`
	Amount    float64            `json:"amount"`
	Industry  string             `json:"industry"`
	AccountID string             `json:"account_id"`
	Stage     string             `json:"stage"`
	Features  map[string]float64 `json:"features,omitempty"`
}

type ScoredOpportunity struct {
	Opportunity
	WinProbability  float64 `json:"win_probability"`
	NextBestProduct string  `json:"next_best_product"`
}

// SummaryRow is the aggregate written back to the warehouse once per
// successful run. HighPriorityCount and TotalPipelineValue cover only
// opportunities above the priority threshold.
type SummaryRow struct {
	RunDate            string  `json:"run_date"`
	HighPriorityCount  int     `json:"high_priority_count"`
	TotalPipelineValue float64 `json:"total_pipeline_value"`
}

type TaskPayload struct {
	Subject string `json:"subject"`
	DueDate string `json:"due_date"`
}
