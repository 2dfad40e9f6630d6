package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	contractx "github.com/prakit/supplyline/agent/contract"
	"github.com/prakit/supplyline/agent/remote"
)

func testOpportunities() []contractx.Opportunity {
	return []contractx.Opportunity{
		{ID: "opp_001", Amount: 125000, Industry: "logistics", Stage: "negotiation"},
		{ID: "opp_002", Amount: 48000, Industry: "retail", Stage: "proposal"},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{URL: srv.URL, Token: "test-token"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestScoreParsesPredictions(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/score" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("authorization = %q", got)
		}
		var req scoreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "prod_fin_sales_v2" || len(req.Data) != 2 {
			t.Errorf("request = %+v", req)
		}

		_ = json.NewEncoder(w).Encode(scoreResponse{Predictions: []prediction{
			{ID: "opp_001", Text: "win_probability=0.91; next_best_product=premium-support"},
			{ID: "opp_002", Text: "win_probability=0.35; next_best_product=starter-kit"},
		}})
	})

	scored, err := client.Score(context.Background(), "prod_fin_sales_v2", testOpportunities())
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(scored) != 2 {
		t.Fatalf("scored %d records", len(scored))
	}
	if scored[0].WinProbability != 0.91 || scored[0].NextBestProduct != "premium-support" {
		t.Fatalf("opp_001 = %+v", scored[0])
	}
	if scored[1].WinProbability != 0.35 || scored[1].NextBestProduct != "starter-kit" {
		t.Fatalf("opp_002 = %+v", scored[1])
	}
}

func TestScoreServerErrorIsTransient(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "cluster warming up", http.StatusServiceUnavailable)
	})

	_, err := client.Score(context.Background(), "m", testOpportunities())
	if remote.KindOf(err) != remote.KindTransient {
		t.Fatalf("5xx should classify transient, got %v (%v)", remote.KindOf(err), err)
	}
}

func TestScoreClientErrorIsPermanent(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown model", http.StatusBadRequest)
	})

	_, err := client.Score(context.Background(), "nope", testOpportunities())
	if remote.KindOf(err) != remote.KindPermanent {
		t.Fatalf("4xx should classify permanent, got %v (%v)", remote.KindOf(err), err)
	}
}

func TestScoreCountMismatchFailsWholeBatch(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(scoreResponse{Predictions: []prediction{
			{ID: "opp_001", Text: "win_probability=0.9"},
		}})
	})

	_, err := client.Score(context.Background(), "m", testOpportunities())
	if remote.KindOf(err) != remote.KindPermanent {
		t.Fatalf("partial batch must fail permanently, got %v", err)
	}
}

func TestScoreCancellation(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Score(ctx, "m", testOpportunities())
	if remote.KindOf(err) != remote.KindCancelled {
		t.Fatalf("cancellation should classify cancelled, got %v (%v)", remote.KindOf(err), err)
	}
}

func TestParsePrediction(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		text        string
		wantProb    float64
		wantProduct string
	}{
		{"well formed", "win_probability=0.85; next_best_product=premium-support", 0.85, "premium-support"},
		{"reordered", "next_best_product=starter-kit; win_probability=0.2", 0.2, "starter-kit"},
		{"spacing", "  win_probability = 0.7 ", 0.7, DefaultNextBestProduct},
		{"missing product", "win_probability=0.6", 0.6, DefaultNextBestProduct},
		{"missing probability", "next_best_product=addons", DefaultWinProbability, "addons"},
		{"garbage", "no structure here at all", DefaultWinProbability, DefaultNextBestProduct},
		{"empty", "", DefaultWinProbability, DefaultNextBestProduct},
		{"clamped high", "win_probability=3.7", 1, DefaultNextBestProduct},
		{"clamped low", "win_probability=-0.4", 0, DefaultNextBestProduct},
		{"unparseable number", "win_probability=high; next_best_product=x", DefaultWinProbability, "x"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			prob, product := ParsePrediction(tc.text)
			if prob != tc.wantProb || product != tc.wantProduct {
				t.Fatalf("ParsePrediction(%q) = (%v, %q), want (%v, %q)", tc.text, prob, product, tc.wantProb, tc.wantProduct)
			}
		})
	}
}

func TestSimulatedScorerDeterministic(t *testing.T) {
	t.Parallel()

	s := NewSimulated()
	first, err := s.Score(context.Background(), "m", testOpportunities())
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	second, _ := s.Score(context.Background(), "m", testOpportunities())
	for i := range first {
		if first[i].WinProbability != second[i].WinProbability {
			t.Fatal("simulated scoring must be deterministic")
		}
	}
	// Negotiation-stage deals cross the priority cutoff.
	if first[0].WinProbability <= 0.4 {
		t.Fatalf("negotiation-stage probability = %v", first[0].WinProbability)
	}
}

func TestSimulatedScorerStagedFailure(t *testing.T) {
	t.Parallel()

	s := NewSimulated()
	boom := errors.New("scoring down")
	s.Fail(boom)
	if _, err := s.Score(context.Background(), "m", testOpportunities()); !errors.Is(err, boom) {
		t.Fatalf("Score() error = %v, want %v", err, boom)
	}

	s.Fail(nil)
	if _, err := s.Score(context.Background(), "m", testOpportunities()); err != nil {
		t.Fatalf("Score() after clearing error = %v", err)
	}

	// Fail must be safe to call while Score runs on another goroutine.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				s.Fail(boom)
			} else {
				s.Score(context.Background(), "m", testOpportunities())
			}
		}(i)
	}
	wg.Wait()
}
