package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig wraps all validation failures.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Validate checks field ranges and cross-field consistency. All problems
// are reported at once.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Budget < 0 {
		errs = append(errs, fmt.Errorf("budget: must be >= 0, got %d", cfg.Budget))
	}
	if cfg.Cost.CharsPerUnit < 0 {
		errs = append(errs, fmt.Errorf("cost.chars_per_unit: must be >= 0, got %v", cfg.Cost.CharsPerUnit))
	}
	if cfg.Compiler.SkeletonThreshold < 0 {
		errs = append(errs, fmt.Errorf("compiler.skeleton_threshold: must be >= 0, got %d", cfg.Compiler.SkeletonThreshold))
	}
	if cfg.Compiler.FooterFloor < 0 {
		errs = append(errs, fmt.Errorf("compiler.footer_floor: must be >= 0, got %d", cfg.Compiler.FooterFloor))
	}
	if cfg.Compiler.SkeletonThreshold > 0 && cfg.Compiler.FooterFloor > cfg.Compiler.SkeletonThreshold {
		errs = append(errs, fmt.Errorf("compiler.footer_floor: %d exceeds skeleton_threshold %d",
			cfg.Compiler.FooterFloor, cfg.Compiler.SkeletonThreshold))
	}
	if s := cfg.Compiler.HeaderShare; s < 0 || s > 1 {
		errs = append(errs, fmt.Errorf("compiler.header_share: must be in [0, 1], got %v", s))
	}

	if i := cfg.Attention.ReinforcementIncrement; i < 0 || i > 1 {
		errs = append(errs, fmt.Errorf("attention.reinforcement_increment: must be in [0, 1], got %v", i))
	}
	if d := cfg.Attention.DecayFactor; d < 0 || d >= 1 {
		errs = append(errs, fmt.Errorf("attention.decay_factor: must be in [0, 1), got %v", d))
	}
	if e := cfg.Attention.ForgetEpsilon; e < 0 || e >= 1 {
		errs = append(errs, fmt.Errorf("attention.forget_epsilon: must be in [0, 1), got %v", e))
	}

	switch cfg.Storage.Backend {
	case "", BackendFile, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("storage.backend: unknown backend %q", cfg.Storage.Backend))
	}

	for name, prio := range cfg.Sections.Priorities {
		if name == "" {
			errs = append(errs, fmt.Errorf("sections.priorities: empty section name (priority %d)", prio))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
