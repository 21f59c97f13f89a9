package engine_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flemzord/loadout/internal/attention"
	"github.com/flemzord/loadout/internal/compiler"
	"github.com/flemzord/loadout/internal/config"
	"github.com/flemzord/loadout/internal/delta"
	"github.com/flemzord/loadout/internal/engine"
	"github.com/flemzord/loadout/internal/integrity"
	"github.com/flemzord/loadout/internal/state"
	"github.com/flemzord/loadout/internal/workspace"
)

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ledger, err := attention.NewLedger(state.NewMemWeightStore(), attention.Config{})
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	monitor, err := integrity.NewMonitor(state.NewMemBaselineStore(), logger)
	if err != nil {
		t.Fatalf("NewMonitor: %v", err)
	}

	comp := compiler.New(compiler.NewCharCostModel(1), ledger, compiler.Config{})
	detector := delta.NewDetector(state.NewMemHashStore())
	return engine.New(ledger, comp, detector, monitor, logger)
}

func TestRunCycle_FullPipeline(t *testing.T) {
	t.Parallel()

	eng := newEngine(t)
	sections := []compiler.Section{
		{Name: "identity", Content: "I am the agent.", Priority: 100},
		{Name: "tools", Content: "Use the tools.", Priority: 50},
	}

	result := eng.RunCycle(sections, map[string]bool{"identity": true}, 1000)

	if !strings.Contains(result.Output, "I am the agent.") {
		t.Error("output missing identity section")
	}
	if len(result.Report.New) != 2 {
		t.Errorf("first cycle New = %v, want both sections", result.Report.New)
	}
	if len(result.Deviations) != 0 {
		t.Errorf("first cycle adopts baseline, got deviations %v", result.Deviations)
	}
	if eng.Monitor().Status() != integrity.StatusBaselined {
		t.Errorf("status = %s, want baselined", eng.Monitor().Status())
	}
}

func TestRunCycle_DetectsChangeAndDrift(t *testing.T) {
	t.Parallel()

	eng := newEngine(t)
	critical := map[string]bool{"identity": true}
	sections := []compiler.Section{
		{Name: "identity", Content: "version one", Priority: 100},
		{Name: "notes", Content: "scratch", Priority: 10},
	}
	eng.RunCycle(sections, critical, 1000)

	sections[0].Content = "version two"
	result := eng.RunCycle(sections, critical, 1000)

	if len(result.Report.Changed) != 1 || result.Report.Changed[0] != "identity" {
		t.Errorf("Changed = %v, want [identity]", result.Report.Changed)
	}
	if len(result.Report.Unchanged) != 1 || result.Report.Unchanged[0] != "notes" {
		t.Errorf("Unchanged = %v, want [notes]", result.Report.Unchanged)
	}
	if len(result.Deviations) != 1 || result.Deviations[0].Name != "identity" {
		t.Fatalf("Deviations = %v, want identity drift", result.Deviations)
	}
	if eng.Monitor().Status() != integrity.StatusDegraded {
		t.Errorf("status = %s, want degraded", eng.Monitor().Status())
	}
}

func TestRunCycle_DecaysBeforeRanking(t *testing.T) {
	t.Parallel()

	eng := newEngine(t)
	if err := eng.Ledger().Reinforce("identity"); err != nil {
		t.Fatal(err)
	}

	eng.RunCycle([]compiler.Section{{Name: "identity", Content: "x"}}, nil, 100)

	got := eng.Ledger().Get("identity")
	want := 0.1 * 0.95
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("weight after cycle = %v, want %v", got, want)
	}
}

func TestRunCycle_NoCriticalSkipsIntegrity(t *testing.T) {
	t.Parallel()

	eng := newEngine(t)
	eng.RunCycle([]compiler.Section{{Name: "a", Content: "x"}}, nil, 100)

	if eng.Monitor().Status() != integrity.StatusNoBaseline {
		t.Errorf("status = %s, want no_baseline when nothing is critical", eng.Monitor().Status())
	}
}

func TestLoadInput_MergesConfig(t *testing.T) {
	t.Parallel()

	ws := workspace.New(t.TempDir())
	if err := ws.EnsureStructure(); err != nil {
		t.Fatal(err)
	}

	files := map[string]string{
		"identity.md": "---\npriority: 100\ncritical: true\n---\nwho I am\n",
		"tools.md":    "tool notes\n",
		"style.md":    "---\npriority: 30\n---\nvoice\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(ws.SectionsDir(), name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := &config.Config{
		Sections: config.SectionsConfig{
			Priorities: map[string]int{"tools": 40},
			Critical:   []string{"tools"},
		},
	}
	in, err := engine.LoadInput(ws, cfg)
	if err != nil {
		t.Fatalf("LoadInput: %v", err)
	}

	byName := make(map[string]compiler.Section, len(in.Sections))
	for _, sec := range in.Sections {
		byName[sec.Name] = sec
	}

	if byName["identity"].Priority != 100 {
		t.Errorf("identity priority = %d, want frontmatter 100", byName["identity"].Priority)
	}
	if byName["tools"].Priority != 40 {
		t.Errorf("tools priority = %d, want configured 40", byName["tools"].Priority)
	}
	if byName["style"].Priority != 30 {
		t.Errorf("style priority = %d, want 30", byName["style"].Priority)
	}
	if !in.Critical["identity"] || !in.Critical["tools"] {
		t.Errorf("Critical = %v, want identity (frontmatter) and tools (config)", in.Critical)
	}
	if in.Critical["style"] {
		t.Error("style must not be critical")
	}
}

func TestLoadInput_MissingSectionsDir(t *testing.T) {
	t.Parallel()

	ws := workspace.New(filepath.Join(t.TempDir(), "never-created"))
	in, err := engine.LoadInput(ws, &config.Config{})
	if err != nil {
		t.Fatalf("LoadInput: %v", err)
	}
	if len(in.Sections) != 0 {
		t.Errorf("Sections = %v, want none", in.Sections)
	}
}
