// internal/workers/paper2saas.go
package workers

import (
	"fmt"
	"strings"

	"paperflow/internal/core/domain"
	"paperflow/internal/core/ports"
	"paperflow/internal/core/usecases"
	"paperflow/internal/platform/errors"
	"paperflow/internal/platform/logx"
	"paperflow/internal/platform/registry"
)

// Stages del pipeline paper → SaaS.
const (
	GroupInitialResearch = "initial_research"

	StageAnalyzePaper   = "analyze_paper"
	StageResearchMarket = "research_market"
	StageCombine        = "combine_research"
	StageGenerateIdeas  = "generate_ideas"
	StageValidateIdeas  = "validate_ideas"
	StageAdvise         = "advise"
	StageReport         = "generate_report"
)

// Workers de chat.
const (
	WorkerIdeaGenerator        = "idea_generator"
	WorkerValidationResearcher = "validation_researcher"
	WorkerStrategicAdvisor     = "strategic_advisor"
	WorkerReportGenerator      = "report_generator"
)

// DefaultRelatedLimit papers relacionados que pide paper_analyzer.
const DefaultRelatedLimit = 5

// chatStage define un stage servido por un ChatWorker.
type chatStage struct {
	stage       string
	worker      string
	description string
	instruction string
	inputs      []string
	criticality domain.Criticality
}

// chatStages en orden de ejecución. Lo comparten el plan y el registro.
var chatStages = []chatStage{
	{
		stage:       StageGenerateIdeas,
		worker:      WorkerIdeaGenerator,
		description: "Proposes SaaS product ideas grounded in the combined research",
		instruction: "You turn academic research into software products. Propose three to five " +
			"SaaS ideas that build directly on the paper's contribution. For each idea give a name, " +
			"the target customer, the problem it solves and why the paper makes it feasible now.",
		inputs:      []string{StageCombine},
		criticality: domain.AbortOnFailure,
	},
	{
		stage:       StageValidateIdeas,
		worker:      WorkerValidationResearcher,
		description: "Checks each idea against the collected market signals",
		instruction: "You validate product ideas. Compare each idea with the market research: " +
			"existing competitors, evidence of demand and obvious risks. Score every idea from 1 to 10 " +
			"and state which evidence supports the score. Say so when evidence is missing.",
		inputs:      []string{StageCombine, StageGenerateIdeas},
		criticality: domain.DegradeOnFailure,
	},
	{
		stage:       StageAdvise,
		worker:      WorkerStrategicAdvisor,
		description: "Recommends which idea to pursue and how to start",
		instruction: "You are a startup advisor. Pick the most promising idea, explain the choice, " +
			"and outline a go-to-market plan with a first milestone reachable in ninety days.",
		inputs:      []string{StageGenerateIdeas, StageValidateIdeas},
		criticality: domain.DegradeOnFailure,
	},
	{
		stage:       StageReport,
		worker:      WorkerReportGenerator,
		description: "Writes the final markdown report",
		instruction: "Write a concise markdown report with sections Summary, Paper, Market, Ideas, " +
			"Validation and Recommendation. Use only the material provided and mark gaps explicitly.",
		inputs:      []string{StageCombine, StageGenerateIdeas, StageValidateIdeas, StageAdvise},
		criticality: domain.AbortOnFailure,
	},
}

// Nombres de los planes disponibles.
const (
	PlanPaper2SaaS = "paper2saas"
	PlanRoast      = "roast"
)

// PlanNames retorna los planes conocidos, ordenados.
func PlanNames() []string {
	return []string{PlanPaper2SaaS, PlanRoast}
}

// PlanByName construye el plan con ese nombre.
func PlanByName(name string) (usecases.Plan, error) {
	switch name {
	case PlanPaper2SaaS:
		return Paper2SaaSPlan(), nil
	case PlanRoast:
		return RoastPlan(), nil
	}
	return usecases.Plan{}, errors.Validation("workers.plan",
		fmt.Sprintf("unknown plan %q (valid: %s)", name, strings.Join(PlanNames(), ", ")))
}

func (cs chatStage) spec() domain.StageSpec {
	return domain.StageSpec{
		Name:           cs.stage,
		Worker:         cs.worker,
		RequiredInputs: cs.inputs,
		Criticality:    cs.criticality,
	}
}

// initialResearch es el grupo paper + mercado con el que empiezan todos los
// planes. analyze_paper alimenta el confidence gate.
func initialResearch() usecases.Unit {
	return usecases.Group(GroupInitialResearch,
		domain.StageSpec{
			Name:             StageAnalyzePaper,
			Worker:           WorkerPaperAnalyzer,
			Criticality:      domain.AbortOnFailure,
			ConfidenceSource: true,
		},
		domain.StageSpec{
			Name:        StageResearchMarket,
			Worker:      WorkerMarketResearcher,
			Criticality: domain.DegradeOnFailure,
		},
	)
}

// Paper2SaaSPlan retorna el DAG del pipeline. generate_report produce el
// output final.
func Paper2SaaSPlan() usecases.Plan {
	units := []usecases.Unit{
		initialResearch(),
		usecases.Stage(domain.StageSpec{
			Name:           StageCombine,
			Worker:         WorkerCombineResearch,
			RequiredInputs: []string{StageAnalyzePaper, StageResearchMarket},
			Criticality:    domain.AbortOnFailure,
		}),
	}
	for _, cs := range chatStages {
		units = append(units, usecases.Stage(cs.spec()))
	}

	return usecases.NewPlan(units...).WithTerminal(StageReport)
}

// Deps agrupa las dependencias compartidas que capturan las factories.
// Los clientes nil hacen que el worker correspondiente falle al resolverse.
type Deps struct {
	Scholar    ScholarClient
	HackerNews JSONGetter
	Web        Fetcher
	Chat       Poster
	Knowledge  ports.KnowledgeStore

	ChatModel   string
	Temperature float64
	MaxTokens   int
}

// Register registra en reg los workers de todos los planes.
func Register(reg *registry.WorkerRegistry, deps Deps) error {
	if err := reg.Register(WorkerPaperAnalyzer,
		func(opts registry.Options, logger logx.Logger) (ports.Worker, error) {
			if deps.Scholar == nil {
				return nil, errors.ToolNotAvailable("workers.paper_analyzer", ToolSemanticScholar)
			}
			return NewPaperAnalyzer(deps.Scholar, deps.Knowledge,
				opts.GetInt("related_limit", DefaultRelatedLimit), logger), nil
		},
		ports.WorkerMetadata{
			Description: "Fetches paper metadata and related work from Semantic Scholar",
			Tools:       []string{ToolSemanticScholar, ToolKnowledgeBase},
		},
	); err != nil {
		return err
	}

	if err := reg.Register(WorkerMarketResearcher,
		func(opts registry.Options, logger logx.Logger) (ports.Worker, error) {
			if deps.HackerNews == nil && deps.Web == nil {
				return nil, errors.ToolNotAvailable("workers.market_researcher", ToolHackerNews)
			}
			return NewMarketResearcher(deps.HackerNews, deps.Web, MarketResearcherConfig{
				Hits:            opts.GetInt("hits", DefaultMarketHits),
				DefaultQuery:    opts.GetString("default_query", DefaultMarketQuery),
				MaxWebsiteChars: opts.GetInt("max_website_chars", DefaultWebsiteMaxChars),
			}, logger), nil
		},
		ports.WorkerMetadata{
			Description: "Collects Hacker News stories and website text for the market query",
			Tools:       []string{ToolHackerNews, ToolWebsite},
		},
	); err != nil {
		return err
	}

	if err := reg.Register(WorkerCombineResearch,
		func(_ registry.Options, logger logx.Logger) (ports.Worker, error) {
			return NewCombineResearch(StageAnalyzePaper, StageResearchMarket, logger), nil
		},
		ports.WorkerMetadata{Description: "Merges paper and market research into one brief"},
	); err != nil {
		return err
	}

	for _, cs := range append(append([]chatStage(nil), chatStages...), roastChatStages()...) {
		cs := cs
		factory := func(opts registry.Options, logger logx.Logger) (ports.Worker, error) {
			if deps.Chat == nil {
				return nil, errors.ToolNotAvailable("workers."+cs.worker, ToolChat)
			}
			return NewChatWorker(deps.Chat, ChatConfig{
				Name:        cs.worker,
				Instruction: opts.GetString("instruction", cs.instruction),
				Inputs:      cs.inputs,
				Model:       opts.GetString("model", deps.ChatModel),
				Temperature: opts.GetFloat("temperature", deps.Temperature),
				MaxTokens:   opts.GetInt("max_tokens", deps.MaxTokens),
			}, logger), nil
		}
		if err := reg.Register(cs.worker, factory, ports.WorkerMetadata{
			Description:  cs.description,
			Tools:        []string{ToolChat},
			RequiresAuth: true,
		}); err != nil {
			return err
		}
	}

	return nil
}
