package compiler

import "math"

// CostModel converts text into abstract cost units. The same packing
// algorithm works whether the budget is measured in bytes, tokens, or any
// other unit the model defines.
type CostModel interface {
	Cost(text string) int
}

// CharCostModel prices text using a simple characters-per-unit ratio.
// A ratio of ~4 approximates English tokens; 1 makes cost equal byte length.
type CharCostModel struct {
	CharsPerUnit float64
}

// NewCharCostModel creates a CharCostModel with the given ratio.
// If charsPerUnit is <= 0, defaults to 4.0.
func NewCharCostModel(charsPerUnit float64) *CharCostModel {
	if charsPerUnit <= 0 {
		charsPerUnit = 4.0
	}
	return &CharCostModel{CharsPerUnit: charsPerUnit}
}

// Cost returns the cost of the given text in units, rounding up so cost is
// never underestimated. With a ratio of 1 the cost equals the byte length.
func (m *CharCostModel) Cost(text string) int {
	if len(text) == 0 {
		return 0
	}
	return int(math.Ceil(float64(len(text)) / m.CharsPerUnit))
}

// clipToCost trims text so its cost does not exceed the given number of
// units. The cut lands on a byte boundary estimated from the model's pricing
// and is then tightened until the bound holds.
func clipToCost(model CostModel, text string, units int) string {
	if units <= 0 {
		return ""
	}
	if model.Cost(text) <= units {
		return text
	}

	// First guess assuming roughly linear pricing, then tighten.
	cut := len(text) * units / model.Cost(text)
	if cut > len(text) {
		cut = len(text)
	}
	for cut > 0 && model.Cost(text[:cut]) > units {
		cut--
	}
	return text[:cut]
}
