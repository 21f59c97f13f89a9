// Package attention maintains the learned per-section weights that bias
// compilation ranking toward sections a consumer actually relies on.
// Reinforcement is an explicit signal from the caller; decay is an explicit
// once-per-cycle tick, not a background timer, so the learning behavior is
// deterministic and testable.
package attention

import (
	"fmt"
	"sort"
	"sync"

	"github.com/flemzord/loadout/internal/state"
)

// Config holds the attention tuning constants.
type Config struct {
	// ReinforcementIncrement is added to a name's weight on reinforcement.
	ReinforcementIncrement float64

	// DecayFactor multiplies every weight on each decay tick.
	DecayFactor float64

	// ForgetEpsilon removes entries whose weight falls below it, bounding
	// ledger storage.
	ForgetEpsilon float64
}

// withDefaults returns a copy of cfg with zero-valued fields replaced by
// sensible defaults.
func (cfg Config) withDefaults() Config {
	if cfg.ReinforcementIncrement <= 0 {
		cfg.ReinforcementIncrement = 0.1
	}
	if cfg.DecayFactor <= 0 || cfg.DecayFactor >= 1 {
		cfg.DecayFactor = 0.95
	}
	if cfg.ForgetEpsilon <= 0 {
		cfg.ForgetEpsilon = 0.01
	}
	return cfg
}

// WeightEntry is one named weight, used for sorted display.
type WeightEntry struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// Ledger is the attention ledger: a persisted map of section name → learned
// weight in [0, 1]. Every mutation batch is flushed whole to the backing
// store; concurrent processes sharing the store follow last-writer-wins.
type Ledger struct {
	mu      sync.Mutex
	weights map[string]float64
	store   state.WeightStore
	config  Config
}

// NewLedger creates a Ledger backed by the given store, loading the current
// map. A corrupt or unreadable persisted map starts empty, never fails.
func NewLedger(store state.WeightStore, cfg Config) (*Ledger, error) {
	weights, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("attention: load weights: %w", err)
	}
	if weights == nil {
		weights = make(map[string]float64)
	}
	return &Ledger{
		weights: weights,
		store:   store,
		config:  cfg.withDefaults(),
	}, nil
}

// Get returns the current weight for a name, 0 if unknown.
func (l *Ledger) Get(name string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.weights[name]
}

// Reinforce bumps each named weight by the reinforcement increment, capped
// at 1.0, creating entries as needed, then persists the batch.
func (l *Ledger) Reinforce(names ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, name := range names {
		w := l.weights[name] + l.config.ReinforcementIncrement
		if w > 1.0 {
			w = 1.0
		}
		l.weights[name] = w
	}
	return l.flushLocked()
}

// DecayAll applies the multiplicative decay factor to every known name and
// forgets entries that fall below the epsilon, then persists the result.
// Called once per compilation cycle, before ranking.
func (l *Ledger) DecayAll() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for name, w := range l.weights {
		w *= l.config.DecayFactor
		if w < l.config.ForgetEpsilon {
			delete(l.weights, name)
			continue
		}
		l.weights[name] = w
	}
	return l.flushLocked()
}

// Snapshot returns all known weights sorted descending by weight, ties by
// name, for display.
func (l *Ledger) Snapshot() []WeightEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := make([]WeightEntry, 0, len(l.weights))
	for name, w := range l.weights {
		entries = append(entries, WeightEntry{Name: name, Weight: w})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Weight != entries[j].Weight {
			return entries[i].Weight > entries[j].Weight
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// Len returns the number of tracked names.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.weights)
}

func (l *Ledger) flushLocked() error {
	if err := l.store.Save(l.weights); err != nil {
		return fmt.Errorf("attention: persist weights: %w", err)
	}
	return nil
}
