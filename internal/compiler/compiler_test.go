package compiler_test

import (
	"strings"
	"testing"

	"github.com/flemzord/loadout/internal/compiler"
)

// Compile-time interface guard: CharCostModel must satisfy CostModel.
var _ compiler.CostModel = (*compiler.CharCostModel)(nil)

// byteCost prices one cost unit per byte, making budgets byte-exact in tests.
func byteCost() compiler.CostModel {
	return compiler.NewCharCostModel(1)
}

// mapWeights is a fixed WeightSource for tests.
type mapWeights map[string]float64

func (m mapWeights) Get(name string) float64 { return m[name] }

// ---------------------------------------------------------------------------
// CharCostModel
// ---------------------------------------------------------------------------

func TestCharCostModel_Cost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		charsPerUnit float64
		input        string
		want         int
	}{
		{name: "empty", charsPerUnit: 0, input: "", want: 0},
		{name: "default_ratio_rounds_up", charsPerUnit: 0, input: "hello", want: 2},
		{name: "default_ratio_exact", charsPerUnit: 0, input: "abcd", want: 1},
		{name: "byte_ratio", charsPerUnit: 1, input: strings.Repeat("x", 50), want: 50},
		{name: "negative_defaults_to_4", charsPerUnit: -2, input: "abcdefgh", want: 2},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			model := compiler.NewCharCostModel(tt.charsPerUnit)
			if got := model.Cost(tt.input); got != tt.want {
				t.Errorf("Cost(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Compile: packing
// ---------------------------------------------------------------------------

func TestCompile_FitWhenPossible(t *testing.T) {
	t.Parallel()

	c := compiler.New(byteCost(), nil, compiler.Config{CharsPerUnit: 1})
	sections := []compiler.Section{
		{Name: "a", Content: "alpha", Priority: 10},
		{Name: "b", Content: "beta", Priority: 5},
		{Name: "c", Content: "gamma", Priority: 1},
	}

	out, report := c.Compile(sections, 1000)

	want := "alpha\n\nbeta\n\ngamma"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
	if len(report.Truncated) != 0 || len(report.Dropped) != 0 {
		t.Errorf("truncated=%v dropped=%v, want none", report.Truncated, report.Dropped)
	}
}

func TestCompile_ExactFit(t *testing.T) {
	t.Parallel()

	// Section costs sum exactly to the budget. The blank line joining the
	// sections is formatting, not content, so both still pack in full.
	c := compiler.New(byteCost(), nil, compiler.Config{CharsPerUnit: 1})
	sections := []compiler.Section{
		{Name: "a", Content: strings.Repeat("x", 50), Priority: 10},
		{Name: "b", Content: strings.Repeat("y", 50), Priority: 5},
	}

	out, report := c.Compile(sections, 100)

	want := strings.Repeat("x", 50) + "\n\n" + strings.Repeat("y", 50)
	if out != want {
		t.Errorf("output = %q, want both sections in full", out)
	}
	if len(report.Truncated) != 0 || len(report.Dropped) != 0 {
		t.Errorf("truncated=%v dropped=%v, want none", report.Truncated, report.Dropped)
	}
	if report.CostUsed != 100 || report.Utilization != 100 {
		t.Errorf("cost=%d utilization=%v, want the budget fully used", report.CostUsed, report.Utilization)
	}
}

func TestCompile_RankOrder(t *testing.T) {
	t.Parallel()

	// Attention weight lifts "tools" above "notes" despite equal priority.
	weights := mapWeights{"tools": 0.9}
	c := compiler.New(byteCost(), weights, compiler.Config{CharsPerUnit: 1})
	sections := []compiler.Section{
		{Name: "notes", Content: "NOTES", Priority: 5},
		{Name: "tools", Content: "TOOLS", Priority: 5},
	}

	out, _ := c.Compile(sections, 1000)
	if out != "TOOLS\n\nNOTES" {
		t.Errorf("output = %q, want attention-weighted order", out)
	}
}

func TestCompile_StableOnTies(t *testing.T) {
	t.Parallel()

	c := compiler.New(byteCost(), nil, compiler.Config{CharsPerUnit: 1})
	sections := []compiler.Section{
		{Name: "first", Content: "ONE", Priority: 5},
		{Name: "second", Content: "TWO", Priority: 5},
		{Name: "third", Content: "THREE", Priority: 5},
	}

	out, _ := c.Compile(sections, 1000)
	if out != "ONE\n\nTWO\n\nTHREE" {
		t.Errorf("output = %q, want input order preserved on ties", out)
	}
}

func TestCompile_OverflowDropsRest(t *testing.T) {
	t.Parallel()

	// Thresholds sized so the overflowing section is dropped, not degraded.
	cfg := compiler.Config{CharsPerUnit: 1, SkeletonThreshold: 40, FooterFloor: 35}
	c := compiler.New(byteCost(), nil, cfg)
	sections := []compiler.Section{
		{Name: "a", Content: strings.Repeat("x", 50), Priority: 10},
		{Name: "b", Content: strings.Repeat("y", 50), Priority: 5},
		{Name: "c", Content: strings.Repeat("z", 50), Priority: 1},
	}

	out, report := c.Compile(sections, 80)

	if !strings.Contains(out, strings.Repeat("x", 50)) {
		t.Error("highest-rank section missing from output")
	}
	if strings.Contains(out, "z") {
		t.Error("lowest-rank section leaked into output")
	}
	// b overflows with remaining 30 (< footer floor) so it is dropped,
	// and c is never reached.
	if len(report.Dropped) != 2 {
		t.Errorf("dropped = %v, want [b c]", report.Dropped)
	}
	if report.CostUsed > 80 {
		t.Errorf("cost used %d exceeds budget 80", report.CostUsed)
	}
}

func TestCompile_FooterForOverflow(t *testing.T) {
	t.Parallel()

	// Remaining budget lands between FooterFloor and SkeletonThreshold:
	// the overflowing section becomes a one-line footer.
	cfg := compiler.Config{CharsPerUnit: 1, SkeletonThreshold: 100, FooterFloor: 20}
	c := compiler.New(byteCost(), nil, cfg)
	sections := []compiler.Section{
		{Name: "keep", Content: strings.Repeat("a", 40), Priority: 10},
		{Name: "cut", Content: strings.Repeat("b", 200), Priority: 5},
	}

	out, report := c.Compile(sections, 100)

	if !strings.Contains(out, "cut omitted") {
		t.Errorf("output missing omission footer: %q", out)
	}
	if len(report.Truncated) != 1 || report.Truncated[0] != "cut" {
		t.Errorf("truncated = %v, want [cut]", report.Truncated)
	}
	if report.CostUsed > 100 {
		t.Errorf("cost used %d exceeds budget", report.CostUsed)
	}
}

func TestCompile_SkeletonForLargeRemainder(t *testing.T) {
	t.Parallel()

	cfg := compiler.Config{CharsPerUnit: 1, SkeletonThreshold: 60, FooterFloor: 20}
	c := compiler.New(byteCost(), nil, cfg)

	body := "# Intro\n" + strings.Repeat("filler line\n", 30) + "# End\nfinal line"
	sections := []compiler.Section{
		{Name: "keep", Content: strings.Repeat("a", 40), Priority: 10},
		{Name: "big", Content: body, Priority: 5},
	}

	out, report := c.Compile(sections, 200)

	if len(report.Truncated) != 1 || report.Truncated[0] != "big" {
		t.Fatalf("truncated = %v, want [big]", report.Truncated)
	}
	if !strings.Contains(out, "cost units omitted]") {
		t.Errorf("skeleton missing omission marker: %q", out)
	}
	if report.CostUsed > 200 {
		t.Errorf("cost used %d exceeds budget", report.CostUsed)
	}
}

// ---------------------------------------------------------------------------
// Compile: properties
// ---------------------------------------------------------------------------

func TestCompile_NoOverflow(t *testing.T) {
	t.Parallel()

	c := compiler.New(byteCost(), nil, compiler.Config{CharsPerUnit: 1})
	sections := []compiler.Section{
		{Name: "a", Content: strings.Repeat("a", 120), Priority: 3},
		{Name: "b", Content: "---\nkind: core\n---\n# H\nbody", Priority: 2},
		{Name: "c", Content: strings.Repeat("c\n", 400), Priority: 1},
	}

	for _, budget := range []int{0, 1, 10, 50, 99, 150, 333, 1000, 5000} {
		out, report := c.Compile(sections, budget)
		if len(out) > budget {
			t.Errorf("budget %d: output size %d overflows", budget, len(out))
		}
		if report.CostUsed > budget && budget > 0 {
			t.Errorf("budget %d: reported cost %d overflows", budget, report.CostUsed)
		}
	}
}

func TestCompile_MonotonicBudget(t *testing.T) {
	t.Parallel()

	c := compiler.New(byteCost(), nil, compiler.Config{CharsPerUnit: 1})
	sections := []compiler.Section{
		{Name: "a", Content: strings.Repeat("a", 200), Priority: 3},
		{Name: "b", Content: strings.Repeat("b", 200), Priority: 2},
		{Name: "c", Content: strings.Repeat("c", 200), Priority: 1},
	}

	prev := -1
	for _, budget := range []int{50, 150, 250, 420, 650, 2000} {
		_, report := c.Compile(sections, budget)
		degraded := len(report.Truncated) + len(report.Dropped)
		if prev >= 0 && degraded > prev {
			t.Errorf("budget %d: degraded count %d grew from %d", budget, degraded, prev)
		}
		prev = degraded
	}
}

func TestCompile_Deterministic(t *testing.T) {
	t.Parallel()

	weights := mapWeights{"b": 0.3}
	c := compiler.New(byteCost(), weights, compiler.Config{CharsPerUnit: 1})
	sections := []compiler.Section{
		{Name: "a", Content: strings.Repeat("alpha\n", 40), Priority: 2},
		{Name: "b", Content: strings.Repeat("beta\n", 40), Priority: 2},
	}

	first, _ := c.Compile(sections, 150)
	for i := 0; i < 10; i++ {
		out, _ := c.Compile(sections, 150)
		if out != first {
			t.Fatal("Compile is not deterministic")
		}
	}
}

func TestCompile_EmptyInput(t *testing.T) {
	t.Parallel()

	c := compiler.New(byteCost(), nil, compiler.Config{CharsPerUnit: 1})
	out, report := c.Compile(nil, 100)
	if out != "" {
		t.Errorf("output = %q, want empty", out)
	}
	if report.CostUsed != 0 || report.Utilization != 0 {
		t.Errorf("report = %+v, want zero usage", report)
	}
}

func TestCompile_Utilization(t *testing.T) {
	t.Parallel()

	c := compiler.New(byteCost(), nil, compiler.Config{CharsPerUnit: 1})
	sections := []compiler.Section{
		{Name: "a", Content: strings.Repeat("x", 50), Priority: 1},
	}

	_, report := c.Compile(sections, 100)
	if report.Utilization != 50 {
		t.Errorf("utilization = %v, want 50", report.Utilization)
	}
}
