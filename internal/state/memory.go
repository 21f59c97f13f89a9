package state

import "sync"

// MemWeightStore is an in-memory WeightStore for tests and ephemeral runs.
type MemWeightStore struct {
	mu      sync.Mutex
	weights map[string]float64
}

// NewMemWeightStore creates an empty in-memory WeightStore.
func NewMemWeightStore() *MemWeightStore {
	return &MemWeightStore{weights: make(map[string]float64)}
}

// Load returns a copy of the stored weight map.
func (s *MemWeightStore) Load() (map[string]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]float64, len(s.weights))
	for k, v := range s.weights {
		out[k] = v
	}
	return out, nil
}

// Save replaces the stored weight map with a copy of the given one.
func (s *MemWeightStore) Save(weights map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weights = make(map[string]float64, len(weights))
	for k, v := range weights {
		s.weights[k] = v
	}
	return nil
}

// MemHashStore is an in-memory HashStore for tests and ephemeral runs.
type MemHashStore struct {
	mu     sync.Mutex
	hashes map[string]string
}

// NewMemHashStore creates an empty in-memory HashStore.
func NewMemHashStore() *MemHashStore {
	return &MemHashStore{hashes: make(map[string]string)}
}

// Load returns a copy of the stored hash map.
func (s *MemHashStore) Load() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyStringMap(s.hashes), nil
}

// Save replaces the stored hash map with a copy of the given one.
func (s *MemHashStore) Save(hashes map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashes = copyStringMap(hashes)
	return nil
}

// MemBaselineStore is an in-memory BaselineStore for tests and ephemeral runs.
type MemBaselineStore struct {
	mu       sync.Mutex
	baseline Baseline
}

// NewMemBaselineStore creates an empty in-memory BaselineStore.
func NewMemBaselineStore() *MemBaselineStore {
	return &MemBaselineStore{baseline: Baseline{
		Hashes:  make(map[string]string),
		Backups: make(map[string]string),
	}}
}

// Load returns a copy of the stored baseline.
func (s *MemBaselineStore) Load() (Baseline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Baseline{
		Hashes:  copyStringMap(s.baseline.Hashes),
		Backups: copyStringMap(s.baseline.Backups),
	}, nil
}

// Save replaces the stored baseline with a copy of the given one.
func (s *MemBaselineStore) Save(b Baseline) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseline = Baseline{
		Hashes:  copyStringMap(b.Hashes),
		Backups: copyStringMap(b.Backups),
	}
	return nil
}

func copyStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
