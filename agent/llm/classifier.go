package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"

	contractx "github.com/prakit/supplyline/agent/contract"
	statex "github.com/prakit/supplyline/agent/state"
)

// historyWindow bounds how much conversation context the classifier sees.
const historyWindow = 5

type modelClassifier struct {
	runner compose.Runnable[map[string]any, classifierLLMOutput]
}

type classifierLLMOutput struct {
	Candidates []struct {
		Handler    string  `json:"handler"`
		Confidence float64 `json:"confidence"`
	} `json:"candidates"`
	Raw string `json:"raw,omitempty"`
}

// NewClassifier builds the live classification capability on a chat model.
func NewClassifier(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (contractx.Classifier, error) {
	runner, err := compileStructuredGraph[classifierLLMOutput](ctx, chatModel, systemPrompt, "router.classifier_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile classifier graph: %v", contractx.ErrClassification, err)
	}
	return &modelClassifier{runner: runner}, nil
}

func (c *modelClassifier) Classify(ctx context.Context, req contractx.ClassifyRequest) (contractx.ClassifyResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return contractx.ClassifyResult{}, fmt.Errorf("%w: request text is required", contractx.ErrValidation)
	}

	payload := map[string]any{
		"text":    req.Text,
		"role":    string(req.Role),
		"history": summarizeHistory(req.History),
	}
	if req.Prior != nil {
		payload["prior_decision"] = map[string]any{
			"handler":    req.Prior.Handler,
			"confidence": req.Prior.Confidence,
		}
	}
	inputBytes, err := json.Marshal(payload)
	if err != nil {
		return contractx.ClassifyResult{}, fmt.Errorf("%w: marshal classify payload: %v", contractx.ErrValidation, err)
	}

	out, err := c.runner.Invoke(ctx, map[string]any{
		"input": string(inputBytes),
	})
	if err != nil {
		return contractx.ClassifyResult{}, fmt.Errorf("%w: classifier invoke: %v", contractx.ErrClassification, err)
	}

	result := contractx.ClassifyResult{Raw: strings.TrimSpace(out.Raw)}
	for _, cand := range out.Candidates {
		id := contractx.HandlerID(strings.TrimSpace(cand.Handler))
		if id == "" {
			continue
		}
		result.Candidates = append(result.Candidates, contractx.Candidate{
			Handler:    id,
			Confidence: clamp01(cand.Confidence),
		})
	}
	if len(result.Candidates) == 0 {
		return contractx.ClassifyResult{}, fmt.Errorf("%w: classifier returned no candidates", contractx.ErrClassification)
	}
	return result, nil
}

func summarizeHistory(history []statex.Message) []map[string]string {
	start := 0
	if len(history) > historyWindow {
		start = len(history) - historyWindow
	}
	out := make([]map[string]string, 0, len(history)-start)
	for _, m := range history[start:] {
		out = append(out, map[string]string{
			"role":    string(m.Role),
			"content": m.Content,
		})
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
