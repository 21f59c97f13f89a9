// Package state defines the durable map stores shared across compilation
// cycles: attention weights, previous-compilation hashes, and the integrity
// baseline. Stores are injected into the components that use them so tests
// can substitute in-memory implementations.
package state

// WeightStore persists the attention ledger as a whole map. Save replaces
// the entire persisted map; partial writes must never be observable.
type WeightStore interface {
	Load() (map[string]float64, error)
	Save(weights map[string]float64) error
}

// HashStore persists the previous compilation's name→digest map.
type HashStore interface {
	Load() (map[string]string, error)
	Save(hashes map[string]string) error
}

// Baseline is the integrity snapshot: critical-section digests plus a full
// content backup taken at the same instant. The two maps are persisted
// together or not at all.
type Baseline struct {
	Hashes  map[string]string `json:"hashes"`
	Backups map[string]string `json:"backups"`
}

// Empty reports whether no baseline has been taken yet.
func (b Baseline) Empty() bool {
	return len(b.Hashes) == 0
}

// BaselineStore persists the integrity baseline as an atomic pair.
type BaselineStore interface {
	Load() (Baseline, error)
	Save(b Baseline) error
}
