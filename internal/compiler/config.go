// Package compiler implements budget-constrained payload compilation:
// attention-weighted ranking, greedy packing, and structure-preserving
// degradation when a section does not fit.
package compiler

// Config holds the tuning knobs for the budget compiler.
type Config struct {
	// CharsPerUnit is the character-to-cost-unit conversion ratio.
	// 0 means the default of 4.0 (English token approximation).
	CharsPerUnit float64

	// SkeletonThreshold is the minimum remaining budget, in cost units,
	// for which an overflowing section is skeletonized instead of
	// reduced to an omission footer.
	SkeletonThreshold int

	// FooterFloor is the minimum remaining budget, in cost units, for
	// which an overflowing section still gets a one-line omission footer.
	// Below this the section is dropped outright.
	FooterFloor int

	// HeaderShare is the fraction of the remaining budget that the
	// skeletonizer may spend on structural header lines.
	HeaderShare float64
}

// withDefaults returns a copy of cfg with zero-valued fields replaced by
// sensible defaults.
func (cfg Config) withDefaults() Config {
	if cfg.CharsPerUnit <= 0 {
		cfg.CharsPerUnit = 4.0
	}
	if cfg.SkeletonThreshold == 0 {
		cfg.SkeletonThreshold = 300
	}
	if cfg.FooterFloor == 0 {
		cfg.FooterFloor = 100
	}
	if cfg.HeaderShare <= 0 || cfg.HeaderShare > 1 {
		cfg.HeaderShare = 0.4
	}
	return cfg
}
