// Package delta compares the current compilation's per-section hashes with
// the previous compilation's, classifying each name as changed, new, or
// unchanged.
package delta

import (
	"fmt"
	"sort"

	"github.com/flemzord/loadout/internal/state"
)

// Changes is the classification of the current section set against the
// previous compilation. Names present only in the previous compilation are
// silently dropped from tracking: sections are allowed to disappear.
type Changes struct {
	Changed   []string `json:"changed"`
	New       []string `json:"new"`
	Unchanged []string `json:"unchanged"`
}

// Detector tracks per-section hashes across compilations through a HashStore.
type Detector struct {
	store state.HashStore
}

// NewDetector creates a Detector backed by the given store.
func NewDetector(store state.HashStore) *Detector {
	return &Detector{store: store}
}

// Diff classifies current against the stored previous hashes, then replaces
// the stored map with current for the next compilation. The returned name
// lists are sorted for deterministic reporting.
func (d *Detector) Diff(current map[string]string) (Changes, error) {
	previous, err := d.store.Load()
	if err != nil {
		return Changes{}, fmt.Errorf("delta: load previous hashes: %w", err)
	}

	changes := Changes{
		Changed:   []string{},
		New:       []string{},
		Unchanged: []string{},
	}
	for name, h := range current {
		prev, ok := previous[name]
		switch {
		case !ok:
			changes.New = append(changes.New, name)
		case prev != h:
			changes.Changed = append(changes.Changed, name)
		default:
			changes.Unchanged = append(changes.Unchanged, name)
		}
	}

	sort.Strings(changes.Changed)
	sort.Strings(changes.New)
	sort.Strings(changes.Unchanged)

	if err := d.store.Save(current); err != nil {
		return Changes{}, fmt.Errorf("delta: persist current hashes: %w", err)
	}
	return changes, nil
}
