package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	contractx "github.com/prakit/supplyline/agent/contract"
	statex "github.com/prakit/supplyline/agent/state"
)

func topCandidate(t *testing.T, result contractx.ClassifyResult) contractx.Candidate {
	t.Helper()
	if len(result.Candidates) == 0 {
		t.Fatal("no candidates returned")
	}
	best := result.Candidates[0]
	for _, c := range result.Candidates[1:] {
		if c.Confidence > best.Confidence {
			best = c
		}
	}
	return best
}

func TestKeywordClassifierRoutesByKeyword(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want contractx.HandlerID
	}{
		{"Find the best delivery route to the warehouse", contractx.HandlerRouteOptimizer},
		{"Which vehicles in the fleet need maintenance?", contractx.HandlerFleetMonitor},
		{"What is the weather and traffic like on I-80?", contractx.HandlerDataRetriever},
		{"Send an alert to the night shift", contractx.HandlerNotification},
	}
	for _, tc := range cases {
		result, err := KeywordClassifier{}.Classify(context.Background(), contractx.ClassifyRequest{
			Text: tc.text,
			Role: contractx.RoleLogisticsCoordinator,
		})
		if err != nil {
			t.Fatalf("Classify(%q) error = %v", tc.text, err)
		}
		if got := topCandidate(t, result).Handler; got != tc.want {
			t.Fatalf("Classify(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestKeywordClassifierMoreHitsMoreConfidence(t *testing.T) {
	t.Parallel()

	one, err := KeywordClassifier{}.Classify(context.Background(), contractx.ClassifyRequest{Text: "plan a route"})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	two, err := KeywordClassifier{}.Classify(context.Background(), contractx.ClassifyRequest{Text: "plan a delivery route schedule"})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if topCandidate(t, two).Confidence <= topCandidate(t, one).Confidence {
		t.Fatal("more keyword hits should raise confidence")
	}
}

func TestKeywordClassifierAnaphoraUsesPriorDecision(t *testing.T) {
	t.Parallel()

	prior := &statex.RoutingDecision{Handler: string(contractx.HandlerFleetMonitor), Confidence: 0.8}
	result, err := KeywordClassifier{}.Classify(context.Background(), contractx.ClassifyRequest{
		Text:  "Show me more detail about those.",
		Prior: prior,
	})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	best := topCandidate(t, result)
	if best.Handler != contractx.HandlerFleetMonitor {
		t.Fatalf("anaphoric request should resolve to prior handler, got %v", best.Handler)
	}
	if best.Confidence < 0.9 {
		t.Fatalf("prior-based candidate should be high confidence, got %v", best.Confidence)
	}
}

func TestKeywordClassifierNoMatchFails(t *testing.T) {
	t.Parallel()

	_, err := KeywordClassifier{}.Classify(context.Background(), contractx.ClassifyRequest{Text: "completely unrelated gibberish"})
	if !errors.Is(err, contractx.ErrClassification) {
		t.Fatalf("expected ErrClassification, got %v", err)
	}
}

func TestKeywordClassifierEmptyTextIsValidationError(t *testing.T) {
	t.Parallel()

	_, err := KeywordClassifier{}.Classify(context.Background(), contractx.ClassifyRequest{Text: "   "})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestTemplateGeneratorEchoesPromptHead(t *testing.T) {
	t.Parallel()

	resp, err := TemplateGenerator{}.Generate(context.Background(), contractx.GenerateRequest{
		Prompt: "Summarize fleet status\nwith extra context below",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.HasPrefix(resp.Text, "[simulated] ") {
		t.Fatalf("simulated output should be marked, got %q", resp.Text)
	}
	if strings.Contains(resp.Text, "extra context") {
		t.Fatalf("only the first line should be echoed, got %q", resp.Text)
	}
	if resp.Usage.IsZero() {
		t.Fatal("usage should be accounted")
	}
}
