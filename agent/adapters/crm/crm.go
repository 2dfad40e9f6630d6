// Package crm pushes scoring results into the CRM: field updates on
// opportunity records and follow-up tasks for the owning reps.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
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
	Timeout time.Duration `split_words:"true" default:"15s"`
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL == "" {
		return nil, errors.New("crm url is required")
	}

	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
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

// UpdateOpportunity patches the given fields onto one opportunity record.
// Failures carry the record ID so a batch caller can isolate them.
func (c *Client) UpdateOpportunity(ctx context.Context, id string, fields map[string]any) error {
	const op = "crm.update_opportunity"
	return c.send(ctx, op, id, http.MethodPatch, "/sobjects/Opportunity/"+url.PathEscape(id), fields)
}

type taskBody struct {
	WhatID       string `json:"WhatId"`
	Subject      string `json:"Subject"`
	ActivityDate string `json:"ActivityDate"`
}

// CreateTask files a follow-up task against the opportunity.
func (c *Client) CreateTask(ctx context.Context, opportunityID string, task contractx.TaskPayload) error {
	const op = "crm.create_task"
	body := taskBody{
		WhatID:       opportunityID,
		Subject:      task.Subject,
		ActivityDate: task.DueDate,
	}
	return c.send(ctx, op, opportunityID, http.MethodPost, "/sobjects/Task", body)
}

func (c *Client) send(ctx context.Context, op, itemID, method, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return withItem(remote.Permanent(op, err), itemID)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return withItem(remote.Permanent(op, err), itemID)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return withItem(remote.FromTransport(op, err), itemID)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return withItem(
			remote.FromStatus(op, resp.StatusCode, fmt.Errorf("crm rejected %s: %s", path, strings.TrimSpace(string(detail)))),
			itemID,
		)
	}
	return nil
}

func withItem(f *remote.Fault, itemID string) *remote.Fault {
	f.ItemID = itemID
	return f
}
