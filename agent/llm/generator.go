package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/prakit/supplyline/agent/contract"
)

type modelGenerator struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

// NewGenerator builds the live text generation capability. The system prompt
// is supplied per request by the handler, so the graph carries a neutral one.
func NewGenerator(ctx context.Context, chatModel einomodel.BaseChatModel) (contractx.Generator, error) {
	runner, err := compileTextGraph(ctx, chatModel, "{system}", "handler.generator_graph")
	if err != nil {
		return nil, fmt.Errorf("compile generator graph: %w", err)
	}
	return &modelGenerator{runner: runner}, nil
}

func (g *modelGenerator) Generate(ctx context.Context, req contractx.GenerateRequest) (contractx.GenerateResponse, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return contractx.GenerateResponse{}, fmt.Errorf("%w: prompt is required", contractx.ErrValidation)
	}

	input := req.Prompt
	if len(req.History) > 0 {
		historyJSON, err := json.Marshal(summarizeHistory(req.History))
		if err != nil {
			return contractx.GenerateResponse{}, fmt.Errorf("%w: marshal history: %v", contractx.ErrValidation, err)
		}
		input = fmt.Sprintf("Conversation so far: %s\n\n%s", historyJSON, req.Prompt)
	}

	msg, err := g.runner.Invoke(ctx, map[string]any{
		"system": req.System,
		"input":  input,
	})
	if err != nil {
		return contractx.GenerateResponse{}, fmt.Errorf("generator invoke: %w", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return contractx.GenerateResponse{}, fmt.Errorf("generator returned empty message")
	}

	resp := contractx.GenerateResponse{Text: strings.TrimSpace(msg.Content)}
	if msg.ResponseMeta != nil && msg.ResponseMeta.Usage != nil {
		resp.Usage = contractx.TokenUsage{
			PromptTokens:     msg.ResponseMeta.Usage.PromptTokens,
			CompletionTokens: msg.ResponseMeta.Usage.CompletionTokens,
			TotalTokens:      msg.ResponseMeta.Usage.TotalTokens,
		}
	}
	return resp, nil
}
