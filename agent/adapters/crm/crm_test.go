package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	contractx "github.com/prakit/supplyline/agent/contract"
	"github.com/prakit/supplyline/agent/remote"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{URL: srv.URL, Token: "crm-token"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestUpdateOpportunitySendsPatch(t *testing.T) {
	t.Parallel()

	var gotPath, gotMethod string
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusNoContent)
	})

	err := client.UpdateOpportunity(context.Background(), "opp_001", map[string]any{
		"Win_Probability__c":   0.91,
		"Next_Best_Product__c": "premium-support",
	})
	if err != nil {
		t.Fatalf("UpdateOpportunity() error = %v", err)
	}
	if gotMethod != http.MethodPatch || gotPath != "/sobjects/Opportunity/opp_001" {
		t.Fatalf("request = %s %s", gotMethod, gotPath)
	}
	if gotBody["Win_Probability__c"] != 0.91 {
		t.Fatalf("body = %+v", gotBody)
	}
}

func TestUpdateOpportunityCarriesItemID(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "FIELD_CUSTOM_VALIDATION_EXCEPTION", http.StatusBadRequest)
	})

	err := client.UpdateOpportunity(context.Background(), "opp_002", map[string]any{"Win_Probability__c": 0.5})
	if remote.KindOf(err) != remote.KindPermanent {
		t.Fatalf("4xx should classify permanent, got %v", remote.KindOf(err))
	}
	if remote.ItemID(err) != "opp_002" {
		t.Fatalf("item id = %q", remote.ItemID(err))
	}
}

func TestUpdateOpportunityServerErrorIsTransient(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
	})

	err := client.UpdateOpportunity(context.Background(), "opp_003", nil)
	if !remote.Retryable(err) {
		t.Fatalf("5xx should be retryable, got %v", err)
	}
}

func TestCreateTaskPostsPayload(t *testing.T) {
	t.Parallel()

	var gotBody taskBody
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/sobjects/Task" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	})

	err := client.CreateTask(context.Background(), "opp_001", contractx.TaskPayload{
		Subject: "Follow up on high-priority deal",
		DueDate: "2026-06-02",
	})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if gotBody.WhatID != "opp_001" || gotBody.Subject != "Follow up on high-priority deal" || gotBody.ActivityDate != "2026-06-02" {
		t.Fatalf("body = %+v", gotBody)
	}
}

func TestSimulatedPerRecordFailureIsScoped(t *testing.T) {
	t.Parallel()

	sim := NewSimulated()
	bad := remote.FromStatus("crm.update_opportunity", 400, nil)
	bad.ItemID = "opp_002"
	sim.FailUpdate("opp_002", bad)

	ctx := context.Background()
	if err := sim.UpdateOpportunity(ctx, "opp_001", map[string]any{"Win_Probability__c": 0.9}); err != nil {
		t.Fatalf("healthy record failed: %v", err)
	}
	if err := sim.UpdateOpportunity(ctx, "opp_002", map[string]any{"Win_Probability__c": 0.9}); err == nil {
		t.Fatal("staged failure did not fire")
	}

	sim.FailUpdate("opp_002", nil)
	if err := sim.UpdateOpportunity(ctx, "opp_002", map[string]any{"Win_Probability__c": 0.9}); err != nil {
		t.Fatalf("cleared failure still fires: %v", err)
	}
	if sim.Updates("opp_002")["Win_Probability__c"] != 0.9 {
		t.Fatalf("updates = %+v", sim.Updates("opp_002"))
	}
}
