package contract

import (
	"context"

	statex "github.com/prakit/supplyline/agent/state"
)

// Classifier is the opaque classification capability. Implementations map a
// request plus session context onto candidate handlers; they never decide the
// winner — that is routing policy.
type Classifier interface {
	Classify(ctx context.Context, req ClassifyRequest) (ClassifyResult, error)
}

// Generator is the opaque text generation capability used by handlers.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
}

// Handler is one specialized responder. Handlers may read remote data through
// their own sources, but the router only sees this contract.
type Handler interface {
	ID() HandlerID
	Handle(ctx context.Context, req HandlerRequest, session *statex.Session) (HandlerResponse, error)
}

// Registry maps handler identifiers to variants. Lookup of an unknown
// identifier fails; callers fall back to Default.
type Registry interface {
	Lookup(id HandlerID) (Handler, bool)
	Default() Handler
}

// Warehouse is the Snowflake-side adapter contract.
type Warehouse interface {
	FetchOpportunities(ctx context.Context, query string) ([]Opportunity, error)
	PersistSummary(ctx context.Context, row SummaryRow) error
}

// Scorer is the Databricks-side adapter contract. Score is atomic: either
// every opportunity comes back scored or the call fails as a whole.
type Scorer interface {
	Score(ctx context.Context, model string, opps []Opportunity) ([]ScoredOpportunity, error)
}

// CRM is the Salesforce-side adapter contract. Each call is independently
// retryable and skippable.
type CRM interface {
	UpdateOpportunity(ctx context.Context, id string, fields map[string]any) error
	CreateTask(ctx context.Context, opportunityID string, task TaskPayload) error
}
