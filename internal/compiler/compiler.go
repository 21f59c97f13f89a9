package compiler

import (
	"sort"
	"strings"
)

// sectionSeparator joins packed sections in the compiled payload. It is
// presentation, not content: it is never charged against the budget, so
// inputs whose section costs sum exactly to the budget pack in full.
const sectionSeparator = "\n\n"

// WeightSource supplies the learned attention weight for a section name.
// Unknown names yield 0.
type WeightSource interface {
	Get(name string) float64
}

// zeroWeights is the WeightSource used when none is configured.
type zeroWeights struct{}

func (zeroWeights) Get(string) float64 { return 0 }

// Compiler packs sections into a cost budget in effective-rank order.
// Compilation is a deterministic function of (sections, budget, weights):
// it never errors and always returns a complete, if smaller, payload.
type Compiler struct {
	cost    CostModel
	weights WeightSource
	config  Config
}

// New creates a Compiler. A nil weights source disables attention ranking
// (effective rank falls back to static priority alone).
func New(cost CostModel, weights WeightSource, cfg Config) *Compiler {
	cfg = cfg.withDefaults()
	if cost == nil {
		cost = NewCharCostModel(cfg.CharsPerUnit)
	}
	if weights == nil {
		weights = zeroWeights{}
	}
	return &Compiler{cost: cost, weights: weights, config: cfg}
}

// CostModel returns the cost model the compiler prices content with.
func (c *Compiler) CostModel() CostModel {
	return c.cost
}

// Compile ranks the sections, packs them greedily into the budget, and
// degrades the first overflowing section per the configured thresholds.
//
// Packing rules:
//   - Sections are stable-sorted descending by priority + attention weight,
//     so equal ranks keep their input order.
//   - Full sections are emitted while the running total fits the budget.
//   - The first section that would overflow is skeletonized when the
//     remaining budget exceeds SkeletonThreshold, reduced to an omission
//     footer when it exceeds FooterFloor, and dropped otherwise.
//   - Everything after the overflow point is dropped: sections are
//     processed in rank order and the budget only shrinks.
func (c *Compiler) Compile(sections []Section, budget int) (string, Report) {
	report := Report{
		Budget:    budget,
		Truncated: []string{},
		Dropped:   []string{},
	}

	ranked := c.rank(sections)

	var parts []string
	used := 0
	overflowed := false

	for _, sec := range ranked {
		if overflowed || budget <= 0 {
			report.Dropped = append(report.Dropped, sec.Name)
			continue
		}

		secCost := c.cost.Cost(sec.Content)
		if used+secCost <= budget {
			parts = append(parts, sec.Content)
			used += secCost
			continue
		}

		// First overflow: degrade this section, drop the rest.
		overflowed = true
		remaining := budget - used
		switch {
		case remaining > c.config.SkeletonThreshold:
			skeleton := c.skeletonize(sec.Name, sec.Content, remaining)
			if skeleton != "" {
				parts = append(parts, skeleton)
				used += c.cost.Cost(skeleton)
			}
			report.Truncated = append(report.Truncated, sec.Name)
		case remaining > c.config.FooterFloor:
			footer := omissionFooter(sec.Name, secCost)
			if c.cost.Cost(footer) <= remaining {
				parts = append(parts, footer)
				used += c.cost.Cost(footer)
			}
			report.Truncated = append(report.Truncated, sec.Name)
		default:
			report.Dropped = append(report.Dropped, sec.Name)
		}
	}

	report.CostUsed = used
	if budget > 0 {
		report.Utilization = float64(used) / float64(budget) * 100
	}

	return strings.Join(parts, sectionSeparator), report
}

// rank returns the sections stable-sorted descending by effective rank
// (static priority plus attention weight). The input slice is not mutated.
func (c *Compiler) rank(sections []Section) []Section {
	type scored struct {
		section Section
		rank    float64
	}
	entries := make([]scored, len(sections))
	for i, sec := range sections {
		entries[i] = scored{
			section: sec,
			rank:    float64(sec.Priority) + c.weights.Get(sec.Name),
		}
	}

	// Stable sort keeps input order on ties.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].rank > entries[j].rank
	})

	ranked := make([]Section, len(entries))
	for i, e := range entries {
		ranked[i] = e.section
	}
	return ranked
}
