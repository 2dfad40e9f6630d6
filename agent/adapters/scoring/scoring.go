// Package scoring calls the model-serving endpoint that assigns win
// probabilities and next-best-product recommendations to a batch of deals.
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/prakit/supplyline/agent/contract"
	"github.com/prakit/supplyline/agent/remote"
)

type Config struct {
	URL     string        `split_words:"true" required:"true"`
	Token   string        `split_words:"true" required:"true"`
	Timeout time.Duration `split_words:"true" default:"30s"`
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL == "" {
		return nil, errors.New("scoring url is required")
	}

	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   strings.TrimSpace(cfg.Token),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}

	return client, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

type scoreRequest struct {
	Model string                  `json:"model"`
	Data  []contractx.Opportunity `json:"data"`
}

type scoreResponse struct {
	Predictions []prediction `json:"predictions"`
}

type prediction struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Score submits the whole batch in one call. The result is all-or-nothing:
// a partial or unparseable response never surfaces as partial data — each
// row either parses or falls back to its defaults, and transport or server
// failures fail the batch.
func (c *Client) Score(ctx context.Context, model string, opps []contractx.Opportunity) ([]contractx.ScoredOpportunity, error) {
	const op = "scoring.score"

	body, err := json.Marshal(scoreRequest{Model: model, Data: opps})
	if err != nil {
		return nil, remote.Permanent(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/score", bytes.NewReader(body))
	if err != nil {
		return nil, remote.Permanent(op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, remote.FromTransport(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, remote.FromStatus(op, resp.StatusCode, errors.New(strings.TrimSpace(string(payload))))
	}

	var decoded scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, remote.Permanent(op, err)
	}
	if len(decoded.Predictions) != len(opps) {
		return nil, remote.Permanent(op, errors.New("prediction count does not match batch size"))
	}

	byID := make(map[string]string, len(decoded.Predictions))
	for _, p := range decoded.Predictions {
		byID[p.ID] = p.Text
	}

	scored := make([]contractx.ScoredOpportunity, 0, len(opps))
	for _, opp := range opps {
		prob, product := ParsePrediction(byID[opp.ID])
		scored = append(scored, contractx.ScoredOpportunity{
			Opportunity:     opp,
			WinProbability:  prob,
			NextBestProduct: product,
		})
	}
	return scored, nil
}
