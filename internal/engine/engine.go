// Package engine orchestrates one compilation cycle: attention decay,
// ranking and packing, change detection, and the integrity drift check.
package engine

import (
	"log/slog"

	"github.com/flemzord/loadout/internal/attention"
	"github.com/flemzord/loadout/internal/compiler"
	"github.com/flemzord/loadout/internal/delta"
	"github.com/flemzord/loadout/internal/hash"
	"github.com/flemzord/loadout/internal/integrity"
)

// Engine wires the compiler to its collaborators. All durable state flows
// through the stores injected into each component at construction.
type Engine struct {
	ledger   *attention.Ledger
	compiler *compiler.Compiler
	detector *delta.Detector
	monitor  *integrity.Monitor
	logger   *slog.Logger
}

// Result is the outcome of one compilation cycle.
type Result struct {
	// Output is the compiled payload.
	Output string `json:"output"`

	// Report is the packing and delta metadata.
	Report compiler.Report `json:"report"`

	// Deviations are integrity mismatches found on the critical subset.
	Deviations []integrity.Deviation `json:"deviations,omitempty"`
}

// New creates an Engine from its components.
func New(
	ledger *attention.Ledger,
	comp *compiler.Compiler,
	detector *delta.Detector,
	monitor *integrity.Monitor,
	logger *slog.Logger,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		ledger:   ledger,
		compiler: comp,
		detector: detector,
		monitor:  monitor,
		logger:   logger,
	}
}

// Ledger exposes the attention ledger for reinforcement and display.
func (e *Engine) Ledger() *attention.Ledger { return e.ledger }

// Monitor exposes the integrity monitor for snapshot/check/restore.
func (e *Engine) Monitor() *integrity.Monitor { return e.monitor }

// RunCycle executes one full compilation. The compile itself cannot fail;
// collaborator failures (a store write, a drift check) degrade to warnings
// so the caller always receives a complete, if less annotated, result.
func (e *Engine) RunCycle(sections []compiler.Section, critical map[string]bool, budget int) Result {
	// Decay precedes ranking: one tick per compilation cycle.
	if err := e.ledger.DecayAll(); err != nil {
		e.logger.Warn("attention decay not persisted", "error", err)
	}

	output, report := e.compiler.Compile(sections, budget)

	contents := make(map[string]string, len(sections))
	for _, sec := range sections {
		contents[sec.Name] = sec.Content
	}
	changes, err := e.detector.Diff(hash.SumAll(contents))
	if err != nil {
		e.logger.Warn("delta detection skipped", "error", err)
	} else {
		report.Changed = changes.Changed
		report.New = changes.New
		report.Unchanged = changes.Unchanged
	}

	result := Result{Output: output, Report: report}

	if len(critical) > 0 {
		criticalSections := make([]compiler.Section, 0, len(critical))
		for _, sec := range sections {
			if critical[sec.Name] {
				criticalSections = append(criticalSections, sec)
			}
		}
		devs, err := e.monitor.CheckDrift(criticalSections)
		if err != nil {
			e.logger.Warn("integrity check skipped", "error", err)
		} else {
			result.Deviations = devs
		}
	}

	e.logger.Info("compilation complete",
		"budget", budget,
		"cost_used", report.CostUsed,
		"truncated", len(report.Truncated),
		"dropped", len(report.Dropped),
		"deviations", len(result.Deviations),
	)
	return result
}
