package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/prakit/supplyline/agent/adapters/crm"
	"github.com/prakit/supplyline/agent/adapters/scoring"
	"github.com/prakit/supplyline/agent/adapters/warehouse"
	contractx "github.com/prakit/supplyline/agent/contract"
	"github.com/prakit/supplyline/agent/handlers"
	"github.com/prakit/supplyline/agent/llm"
	"github.com/prakit/supplyline/agent/prompt"
	"github.com/prakit/supplyline/agent/router"
	"github.com/prakit/supplyline/agent/service"
	statex "github.com/prakit/supplyline/agent/state"
	"github.com/prakit/supplyline/agent/workflow"
	configx "github.com/prakit/supplyline/pkg/config"
	_ "github.com/prakit/supplyline/pkg/logger/autoload"
	openrouterx "github.com/prakit/supplyline/pkg/openrouter"
)

type AppConfig struct {
	// Mode selects adapter strategies: "live" wires real endpoints,
	// "simulated" wires deterministic in-memory ones.
	Mode      string `envconfig:"MODE" default:"simulated"`
	RedisAddr string `envconfig:"REDIS_ADDR"`
}

func main() {
	ctx := context.Background()
	appCfg := configx.MustNew[AppConfig]("")

	live := strings.EqualFold(appCfg.Mode, "live")
	log.Info().Str("mode", appCfg.Mode).Msg("starting supplyline")

	svc, err := buildService(ctx, appCfg, live)
	if err != nil {
		log.Fatal().Err(err).Msg("service wiring failed")
	}

	env := svc.Query(ctx, "Find the best delivery route from the depot to the eastside warehouse", contractx.RoleLogisticsCoordinator, "session-demo")
	printJSON("query", env)

	report, err := svc.RunWorkflow(ctx, workflow.TriggerPhrase)
	if err != nil {
		log.Fatal().Err(err).Msg("workflow trigger rejected")
	}
	printJSON("workflow", report)
}

func buildService(ctx context.Context, appCfg *AppConfig, live bool) (*service.Service, error) {
	classifier, generator, err := buildLanguage(ctx, live)
	if err != nil {
		return nil, err
	}

	registry, err := handlers.NewRegistry(generator, nil)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(appCfg, live)
	if err != nil {
		return nil, err
	}

	turnRouter, err := router.New(store, classifier, registry)
	if err != nil {
		return nil, err
	}

	wh, scorer, crmClient, err := buildPipelineAdapters(live)
	if err != nil {
		return nil, err
	}

	engine, err := workflow.New(wh, scorer, crmClient)
	if err != nil {
		return nil, err
	}

	return service.New(turnRouter, engine)
}

func buildLanguage(ctx context.Context, live bool) (contractx.Classifier, contractx.Generator, error) {
	if !live {
		return llm.KeywordClassifier{}, llm.TemplateGenerator{}, nil
	}

	llmCfg := configx.MustNew[llm.Config]("LLM")
	if err := llmCfg.Validate(); err != nil {
		return nil, nil, err
	}

	classifierModelCfg := llmCfg.OpenRouterFor(llm.CapabilityClassifier)
	if openrouterx.NewClient(classifierModelCfg) == nil {
		return nil, nil, fmt.Errorf("openrouter client not configured")
	}

	classifierModel, err := classifierModelCfg.New(ctx)
	if err != nil {
		return nil, nil, err
	}
	classifier, err := llm.NewClassifier(ctx, classifierModel, prompt.LoadPromptSet().Classifier)
	if err != nil {
		return nil, nil, err
	}

	generatorModelCfg := llmCfg.OpenRouterFor(llm.CapabilityGenerator)
	generatorModel, err := generatorModelCfg.New(ctx)
	if err != nil {
		return nil, nil, err
	}
	generator, err := llm.NewGenerator(ctx, generatorModel)
	if err != nil {
		return nil, nil, err
	}

	return classifier, generator, nil
}

func buildStore(appCfg *AppConfig, live bool) (statex.Store, error) {
	if !live || appCfg.RedisAddr == "" {
		return statex.NewMemoryStore(), nil
	}
	redisCfg := configx.MustNew[statex.RedisConfig]("REDIS")
	return statex.NewRedisStore(*redisCfg)
}

func buildPipelineAdapters(live bool) (contractx.Warehouse, contractx.Scorer, contractx.CRM, error) {
	if !live {
		return warehouse.NewSimulated(), scoring.NewSimulated(), crm.NewSimulated(), nil
	}

	whCfg, err := warehouse.NewConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	scoringClient, err := scoring.NewClient(*configx.MustNew[scoring.Config]("SCORING"))
	if err != nil {
		return nil, nil, nil, err
	}
	crmClient, err := crm.NewClient(*configx.MustNew[crm.Config]("CRM"))
	if err != nil {
		return nil, nil, nil, err
	}
	return warehouse.New(whCfg), scoringClient, crmClient, nil
}

func printJSON(label string, v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Error().Err(err).Str("label", label).Msg("marshal failed")
		return
	}
	fmt.Printf("%s:\n%s\n", label, out)
}
