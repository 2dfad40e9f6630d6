package llm

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/prakit/supplyline/agent/contract"
)

// KeywordClassifier is the deterministic classification strategy used when no
// model credentials are configured, and by tests. It mirrors the live
// capability's contract: keyword hits become candidates, and an anaphoric
// request ("those", "that", "them") leans on the prior decision.
type KeywordClassifier struct{}

var keywordRules = []struct {
	handler  contractx.HandlerID
	keywords []string
}{
	{contractx.HandlerRouteOptimizer, []string{"route", "path", "delivery", "schedule"}},
	{contractx.HandlerFleetMonitor, []string{"fleet", "vehicle", "driver", "maintenance"}},
	{contractx.HandlerDataRetriever, []string{"weather", "traffic", "condition"}},
	{contractx.HandlerNotification, []string{"notify", "alert", "send", "remind"}},
}

var anaphora = []string{"those", "that", "them", "these", "it"}

func (KeywordClassifier) Classify(ctx context.Context, req contractx.ClassifyRequest) (contractx.ClassifyResult, error) {
	text := strings.ToLower(req.Text)
	if strings.TrimSpace(text) == "" {
		return contractx.ClassifyResult{}, fmt.Errorf("%w: request text is required", contractx.ErrValidation)
	}

	var result contractx.ClassifyResult
	for _, rule := range keywordRules {
		hits := 0
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				hits++
			}
		}
		if hits > 0 {
			conf := 0.5 + 0.1*float64(hits)
			if conf > 0.9 {
				conf = 0.9
			}
			result.Candidates = append(result.Candidates, contractx.Candidate{
				Handler:    rule.handler,
				Confidence: conf,
			})
		}
	}

	// A back-reference without fresh keywords resolves to the prior handler.
	if req.Prior != nil && hasAnaphora(text) {
		result.Candidates = append(result.Candidates, contractx.Candidate{
			Handler:    contractx.HandlerID(req.Prior.Handler),
			Confidence: 0.95,
		})
	}

	if len(result.Candidates) == 0 {
		return contractx.ClassifyResult{}, fmt.Errorf("%w: no keyword matched", contractx.ErrClassification)
	}
	result.Raw = fmt.Sprintf("keyword match over %d rules", len(keywordRules))
	return result, nil
}

func hasAnaphora(text string) bool {
	for _, w := range strings.Fields(text) {
		w = strings.Trim(w, ".,?!")
		for _, a := range anaphora {
			if w == a {
				return true
			}
		}
	}
	return false
}

// TemplateGenerator is the deterministic generation strategy for offline
// mode and tests.
type TemplateGenerator struct{}

func (TemplateGenerator) Generate(ctx context.Context, req contractx.GenerateRequest) (contractx.GenerateResponse, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return contractx.GenerateResponse{}, fmt.Errorf("%w: prompt is required", contractx.ErrValidation)
	}
	text := fmt.Sprintf("[simulated] %s", firstLine(req.Prompt))
	return contractx.GenerateResponse{
		Text: text,
		Usage: contractx.TokenUsage{
			PromptTokens:     len(strings.Fields(req.Prompt)),
			CompletionTokens: len(strings.Fields(text)),
			TotalTokens:      len(strings.Fields(req.Prompt)) + len(strings.Fields(text)),
		},
	}, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}
