// Package warehouse talks to the analytics warehouse: it reads open
// opportunities for the prioritization run and writes the run summary back.
package warehouse

import (
	"context"
	"database/sql"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/prakit/supplyline/agent/contract"
	"github.com/prakit/supplyline/agent/remote"
)

// DefaultFetchQuery keeps the run scoped to open deals still in play.
const DefaultFetchQuery = "close_date > CURRENT_DATE"

type Config struct {
	DSN          string        `envconfig:"WAREHOUSE_DSN"`
	QueryTimeout time.Duration `envconfig:"WAREHOUSE_QUERY_TIMEOUT" default:"30s"`
}

func NewConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// opportunityRow maps sales.opportunities. Feature columns used by the
// scoring model ride along as plain numerics.
type opportunityRow struct {
	bun.BaseModel `bun:"table:sales.opportunities"`

	ID            string  `bun:"id,pk"`
	Amount        float64 `bun:"amount"`
	Industry      string  `bun:"industry"`
	AccountID     string  `bun:"account_id"`
	Stage         string  `bun:"stage"`
	DaysInStage   float64 `bun:"days_in_stage"`
	ContactsCount float64 `bun:"contacts_count"`
}

type summaryRow struct {
	bun.BaseModel `bun:"table:analytics.fin_sales_priority_summary"`

	RunDate            string  `bun:"run_date"`
	HighPriorityCount  int     `bun:"high_priority_count"`
	TotalPipelineValue float64 `bun:"total_pipeline_value"`
}

// Client is the live warehouse adapter.
type Client struct {
	db      *bun.DB
	timeout time.Duration
}

func New(cfg Config) *Client {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	return &Client{
		db:      bun.NewDB(sqldb, pgdialect.New()),
		timeout: cfg.QueryTimeout,
	}
}

// NewWithDB wires an already-open handle, mainly for tests.
func NewWithDB(db *bun.DB, timeout time.Duration) *Client {
	return &Client{db: db, timeout: timeout}
}

func (c *Client) FetchOpportunities(ctx context.Context, query string) ([]contractx.Opportunity, error) {
	const op = "warehouse.fetch_opportunities"
	if query == "" {
		query = DefaultFetchQuery
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rows []opportunityRow
	if err := c.db.NewSelect().Model(&rows).Where(query).Scan(ctx); err != nil {
		return nil, remote.FromTransport(op, err)
	}

	opps := make([]contractx.Opportunity, 0, len(rows))
	for _, r := range rows {
		opps = append(opps, contractx.Opportunity{
			ID:        r.ID,
			Amount:    r.Amount,
			Industry:  r.Industry,
			AccountID: r.AccountID,
			Stage:     r.Stage,
			Features: map[string]float64{
				"days_in_stage":  r.DaysInStage,
				"contacts_count": r.ContactsCount,
			},
		})
	}
	return opps, nil
}

func (c *Client) PersistSummary(ctx context.Context, row contractx.SummaryRow) error {
	const op = "warehouse.persist_summary"

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	model := summaryRow{
		RunDate:            row.RunDate,
		HighPriorityCount:  row.HighPriorityCount,
		TotalPipelineValue: row.TotalPipelineValue,
	}
	if _, err := c.db.NewInsert().Model(&model).Exec(ctx); err != nil {
		return remote.FromTransport(op, err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.db.Close()
}
