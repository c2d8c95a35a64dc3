// internal/workers/roast.go
package workers

import (
	"paperflow/internal/core/domain"
	"paperflow/internal/core/usecases"
)

// Stages del plan roast: una crítica técnica y otra de mercado en paralelo
// sobre una idea concreta, contrastadas y resumidas en un veredicto.
const (
	GroupCritique = "critique"

	StageTechnicalRoast = "technical_roast"
	StageMarketRoast    = "market_roast"
	StageFactCheck      = "fact_check"
	StageRoastVerdict   = "roast_verdict"
)

// Workers de chat del plan roast.
const (
	WorkerDevilsAdvocate  = "devils_advocate"
	WorkerMarketSkeptic   = "market_skeptic"
	WorkerFactChecker     = "fact_checker"
	WorkerRoastSupervisor = "roast_supervisor"
)

// Claves de RunInput.Metadata que leen los workers.
const (
	MetadataGoal = "goal"
	MetadataIdea = "idea"
)

// critiqueStages corren juntos en el grupo critique.
var critiqueStages = []chatStage{
	{
		stage:       StageTechnicalRoast,
		worker:      WorkerDevilsAdvocate,
		description: "Challenges the technical assumptions of an idea",
		instruction: "You are a technical skeptic. List the technical assumptions the idea depends on. " +
			"For each one cite counter-evidence from the paper analysis, rate its severity as Critical, " +
			"Major or Minor and propose a test that would settle it. Finish with a technical risk score " +
			"from 1 to 10 and the showstoppers. If the material holds no counter-evidence, say so.",
		inputs:      []string{StageAnalyzePaper},
		criticality: domain.DegradeOnFailure,
	},
	{
		stage:       StageMarketRoast,
		worker:      WorkerMarketSkeptic,
		description: "Challenges the market assumptions of an idea",
		instruction: "You are a market skeptic. List the market claims the idea makes. For each one " +
			"look for contrary signals in the market research: incumbents, failed precedents and timing. " +
			"Finish with a market risk score from 1 to 10, the red flags and questions for customer " +
			"discovery. Report it plainly when the market looks strong.",
		inputs:      []string{StageResearchMarket},
		criticality: domain.DegradeOnFailure,
	},
}

// reviewStages corren después de la crítica, en orden.
var reviewStages = []chatStage{
	{
		stage:       StageFactCheck,
		worker:      WorkerFactChecker,
		description: "Verifies the critiques against the collected research",
		instruction: "You are a strict fact-checker. For every factual claim in the critiques, find " +
			"the supporting passage in the paper analysis or market research and mark it verified, " +
			"unverified or overstated in a table. End with the share of verified claims.",
		inputs:      []string{StageAnalyzePaper, StageResearchMarket, StageTechnicalRoast, StageMarketRoast},
		criticality: domain.DegradeOnFailure,
	},
	{
		stage:       StageRoastVerdict,
		worker:      WorkerRoastSupervisor,
		description: "Synthesizes the critiques into one stress test",
		instruction: "Write a markdown stress test titled with the idea name. Merge the technical and " +
			"market critiques, drop claims the fact check could not verify and close with a go, " +
			"rework or drop recommendation.",
		inputs:      []string{StageTechnicalRoast, StageMarketRoast, StageFactCheck},
		criticality: domain.AbortOnFailure,
	},
}

// RoastPlan retorna el DAG que somete una idea a crítica. Reutiliza la
// investigación inicial de Paper2SaaSPlan, gate incluido.
func RoastPlan() usecases.Plan {
	critique := make([]domain.StageSpec, 0, len(critiqueStages))
	for _, cs := range critiqueStages {
		critique = append(critique, cs.spec())
	}

	units := []usecases.Unit{
		initialResearch(),
		usecases.Group(GroupCritique, critique...),
	}
	for _, cs := range reviewStages {
		units = append(units, usecases.Stage(cs.spec()))
	}

	return usecases.NewPlan(units...).WithTerminal(StageRoastVerdict)
}

// roastChatStages lista todos los stages de chat del plan roast.
func roastChatStages() []chatStage {
	return append(append([]chatStage(nil), critiqueStages...), reviewStages...)
}
