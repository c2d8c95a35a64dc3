// internal/workers/roast_test.go
package workers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"

	"paperflow/internal/core/domain"
	"paperflow/internal/platform/errors"
	"paperflow/internal/platform/registry"
	"paperflow/internal/testutil"
)

func TestRoastPlan(t *testing.T) {
	plan := RoastPlan()

	testutil.AssertNoError(t, plan.Validate(), "plan should validate")
	testutil.AssertEqual(t, plan.StageCount(), 6, "stage count")
	testutil.AssertEqual(t, plan.TerminalStage(), StageRoastVerdict, "terminal stage")
	testutil.AssertDeepEqual(t, plan.ConfidenceSources(), []string{StageAnalyzePaper}, "shares the paper gate")
	testutil.AssertEqual(t, plan.String(),
		"[analyze_paper | research_market] -> [technical_roast | market_roast] -> fact_check -> roast_verdict",
		"plan layout")

	levels, err := plan.DependencyLevels()
	testutil.AssertNoError(t, err, "levels")
	testutil.AssertEqual(t, len(levels), 4, "dependency depth")
}

func TestPlanByName(t *testing.T) {
	for _, name := range PlanNames() {
		plan, err := PlanByName(name)
		testutil.AssertNoError(t, err, name)
		testutil.AssertNoError(t, plan.Validate(), name+" validates")
	}

	_, err := PlanByName("pitch")
	testutil.AssertError(t, err, "unknown plan")
	testutil.AssertTrue(t, errors.IsKind(err, errors.KindValidation), "validation error")
}

func TestRegister_ResolvesRoastWorkers(t *testing.T) {
	up := testutil.NewUpstream(t, scholarHandler(http.StatusOK))
	client := newTestClient(t, up.URL)

	reg := registry.NewWorkerRegistry(testutil.SilentLogger())
	testutil.AssertNoError(t, Register(reg, Deps{Scholar: client, HackerNews: client, Web: client, Chat: client}), "register")

	workers, err := RoastPlan().Resolve(reg)
	testutil.AssertNoError(t, err, "resolve")
	testutil.AssertEqual(t, len(workers), 6, "one worker per stage")
}

// roastHandler guarda el prompt de usuario de cada instrucción de sistema y
// puede fallar la que empiece por fail.
type roastHandler struct {
	mu      sync.Mutex
	prompts map[string]string
	fail    string
}

func (h *roastHandler) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/chat/completions" {
		pipelineHandler(samplePaper())(w, r)
		return
	}

	var req chatRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	system := req.Messages[0].Content

	h.mu.Lock()
	h.prompts[system] = req.Messages[1].Content
	h.mu.Unlock()

	if h.fail != "" && strings.HasPrefix(system, h.fail) {
		testutil.JSONHandler(http.StatusBadRequest, map[string]any{"error": map[string]any{"message": "bad"}})(w, r)
		return
	}
	testutil.JSONHandler(http.StatusOK, chatResponse("answer to: "+system))(w, r)
}

func (h *roastHandler) prompt(prefix string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	for system, prompt := range h.prompts {
		if strings.HasPrefix(system, prefix) {
			return prompt
		}
	}
	return ""
}

func roastInput() domain.RunInput {
	return domain.RunInput{
		PaperID:     "1706.03762",
		MarketQuery: "translation",
		Metadata:    map[string]string{MetadataIdea: "Self-hosted translation API for legal firms"},
	}
}

func TestRoast_EndToEnd(t *testing.T) {
	h := &roastHandler{prompts: make(map[string]string)}
	orch, sink, _ := newPlanPipeline(t, RoastPlan(), h.serve)
	ctx := context.Background()

	result := orch.Run(ctx, roastInput())

	testutil.AssertEqual(t, result.Status, domain.StatusCompleted, "status")
	testutil.AssertEqual(t, len(result.StageResults), 6, "every stage ran")
	final, ok := result.FinalOutput.(string)
	testutil.AssertTrue(t, ok, "final output is the verdict text")
	testutil.AssertTrue(t, strings.HasPrefix(final, "answer to: Write a markdown stress"), "verdict instruction used")

	skeptic := h.prompt("You are a market skeptic")
	testutil.AssertContains(t, skeptic, "Idea: Self-hosted translation API for legal firms", "idea reaches the critics")
	testutil.AssertContains(t, skeptic, "### research_market", "market critic reads the market research")

	verdict := h.prompt("Write a markdown stress")
	testutil.AssertContains(t, verdict, "### fact_check", "verdict reads the fact check")

	events, err := sink.Events(ctx, result.RunID)
	testutil.AssertNoError(t, err, "events")
	testutil.AssertEqual(t, len(events), 12, "start and finish per stage")
}

func TestRoast_CriticFailureDegrades(t *testing.T) {
	h := &roastHandler{prompts: make(map[string]string), fail: "You are a technical skeptic"}
	orch, _, _ := newPlanPipeline(t, RoastPlan(), h.serve)

	result := orch.Run(context.Background(), roastInput())

	testutil.AssertEqual(t, result.Status, domain.StatusCompleted, "degraded roast completes")
	testutil.AssertDeepEqual(t, result.Failed(), []string{StageTechnicalRoast}, "technical critic failed")
	testutil.AssertContains(t, h.prompt("Write a markdown stress"), "_technical_roast unavailable", "verdict notes the gap")
}
