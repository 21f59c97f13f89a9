// Package integrity guards a configured set of critical sections against
// silent corruption: it keeps a baseline of content hashes plus full-content
// backups, detects drift, and restores drifted sections from backup.
package integrity

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/flemzord/loadout/internal/compiler"
	"github.com/flemzord/loadout/internal/hash"
	"github.com/flemzord/loadout/internal/state"
)

// Status is the monitor's position in its lifecycle.
type Status string

// Monitor states. A fresh critical-name set starts at StatusNoBaseline; the
// first drift check auto-baselines instead of reporting deviations.
const (
	StatusNoBaseline Status = "no_baseline"
	StatusBaselined  Status = "baselined"
	StatusDegraded   Status = "degraded"
)

// DeviationKind classifies a detected mismatch.
type DeviationKind string

// Deviation kinds.
const (
	// DeviationMissing means the name is in the baseline but absent from
	// the current critical input.
	DeviationMissing DeviationKind = "missing"
	// DeviationMutated means the name is present but its hash differs
	// from the baseline.
	DeviationMutated DeviationKind = "mutated"
)

// Deviation is one detected mismatch between current critical content and
// the baseline. Mutated deviations carry a unified diff for operators.
type Deviation struct {
	Name string        `json:"name"`
	Kind DeviationKind `json:"kind"`
	Diff string        `json:"diff,omitempty"`
}

// Monitor maintains the integrity baseline for critical sections.
type Monitor struct {
	mu         sync.Mutex
	store      state.BaselineStore
	logger     *slog.Logger
	status     Status
	deviations []Deviation
}

// NewMonitor creates a Monitor backed by the given store. The initial status
// is derived from whether a baseline is already persisted.
func NewMonitor(store state.BaselineStore, logger *slog.Logger) (*Monitor, error) {
	if logger == nil {
		logger = slog.Default()
	}

	baseline, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("integrity: load baseline: %w", err)
	}

	status := StatusNoBaseline
	if !baseline.Empty() {
		status = StatusBaselined
	}
	return &Monitor{store: store, logger: logger, status: status}, nil
}

// Status returns the monitor's current lifecycle state.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Deviations returns the mismatches found by the most recent drift check.
func (m *Monitor) Deviations() []Deviation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Deviation, len(m.deviations))
	copy(out, m.deviations)
	return out
}

// Snapshot hashes the given critical sections and persists baseline and
// backup together as one atomic pair.
func (m *Monitor) Snapshot(sections []compiler.Section) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(sections)
}

func (m *Monitor) snapshotLocked(sections []compiler.Section) error {
	baseline := state.Baseline{
		Hashes:  make(map[string]string, len(sections)),
		Backups: make(map[string]string, len(sections)),
	}
	for _, sec := range sections {
		baseline.Hashes[sec.Name] = hash.Sum(sec.Content)
		baseline.Backups[sec.Name] = sec.Content
	}

	if err := m.store.Save(baseline); err != nil {
		return fmt.Errorf("integrity: persist baseline: %w", err)
	}
	m.status = StatusBaselined
	m.deviations = nil
	return nil
}

// CheckDrift compares the given critical sections against the baseline.
// With no baseline yet, the current sections become the baseline and no
// deviation is reported. Deviations are sorted by name for deterministic
// reporting.
func (m *Monitor) CheckDrift(sections []compiler.Section) ([]Deviation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	baseline, err := m.store.Load()
	if err != nil {
		return nil, fmt.Errorf("integrity: load baseline: %w", err)
	}
	if baseline.Empty() {
		if err := m.snapshotLocked(sections); err != nil {
			return nil, err
		}
		m.logger.Info("integrity: no baseline, current critical sections adopted")
		return nil, nil
	}

	current := make(map[string]string, len(sections))
	for _, sec := range sections {
		current[sec.Name] = sec.Content
	}

	var deviations []Deviation
	for name, baseHash := range baseline.Hashes {
		content, ok := current[name]
		if !ok {
			deviations = append(deviations, Deviation{Name: name, Kind: DeviationMissing})
			continue
		}
		if hash.Sum(content) != baseHash {
			deviations = append(deviations, Deviation{
				Name: name,
				Kind: DeviationMutated,
				Diff: unifiedDiff(name, baseline.Backups[name], content),
			})
		}
	}
	sort.Slice(deviations, func(i, j int) bool { return deviations[i].Name < deviations[j].Name })

	m.deviations = deviations
	if len(deviations) > 0 {
		m.status = StatusDegraded
		m.logger.Warn("integrity: drift detected", "deviations", len(deviations))
	} else {
		m.status = StatusBaselined
	}
	return deviations, nil
}

// Restore writes the backed-up content for every deviating name through the
// given apply function and returns the names actually restored. Names whose
// backup is missing are skipped, not fatal: they stay recorded as deviations
// and the monitor stays degraded until every deviating name is restored.
func (m *Monitor) Restore(apply func(name, content string) error) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	baseline, err := m.store.Load()
	if err != nil {
		return nil, fmt.Errorf("integrity: load baseline: %w", err)
	}

	restored := []string{}
	var skipped []Deviation
	for _, dev := range m.deviations {
		backup, ok := baseline.Backups[dev.Name]
		if !ok {
			m.logger.Warn("integrity: no backup for deviating section", "name", dev.Name)
			skipped = append(skipped, dev)
			continue
		}
		if err := apply(dev.Name, backup); err != nil {
			return restored, fmt.Errorf("integrity: restore %s: %w", dev.Name, err)
		}
		restored = append(restored, dev.Name)
	}

	m.deviations = skipped
	if len(skipped) == 0 {
		m.status = StatusBaselined
	}
	sort.Strings(restored)
	return restored, nil
}
