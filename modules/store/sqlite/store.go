package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/flemzord/loadout/internal/state"
)

// WeightStore persists attention weights in the attention_weights table.
type WeightStore struct {
	db *sql.DB
}

// Load reads the full weight map.
func (s *WeightStore) Load() (map[string]float64, error) {
	rows, err := s.db.QueryContext(context.TODO(), "SELECT name, weight FROM attention_weights")
	if err != nil {
		return nil, fmt.Errorf("sqlite: load weights: %w", err)
	}
	defer func() { _ = rows.Close() }()

	weights := make(map[string]float64)
	for rows.Next() {
		var (
			name   string
			weight float64
		)
		if err := rows.Scan(&name, &weight); err != nil {
			return nil, fmt.Errorf("sqlite: scan weight: %w", err)
		}
		weights[name] = weight
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: load weights rows: %w", err)
	}
	return weights, nil
}

// Save replaces the full weight map in one transaction.
func (s *WeightStore) Save(weights map[string]float64) error {
	return replaceAll(s.db, "attention_weights", func(ctx context.Context, tx *sql.Tx) error {
		for name, w := range weights {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO attention_weights (name, weight) VALUES (?, ?)", name, w); err != nil {
				return fmt.Errorf("sqlite: insert weight %s: %w", name, err)
			}
		}
		return nil
	})
}

// HashStore persists the previous compilation's hashes.
type HashStore struct {
	db *sql.DB
}

// Load reads the full hash map.
func (s *HashStore) Load() (map[string]string, error) {
	rows, err := s.db.QueryContext(context.TODO(), "SELECT name, hash FROM section_hashes")
	if err != nil {
		return nil, fmt.Errorf("sqlite: load hashes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	hashes := make(map[string]string)
	for rows.Next() {
		var name, h string
		if err := rows.Scan(&name, &h); err != nil {
			return nil, fmt.Errorf("sqlite: scan hash: %w", err)
		}
		hashes[name] = h
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: load hashes rows: %w", err)
	}
	return hashes, nil
}

// Save replaces the full hash map in one transaction.
func (s *HashStore) Save(hashes map[string]string) error {
	return replaceAll(s.db, "section_hashes", func(ctx context.Context, tx *sql.Tx) error {
		for name, h := range hashes {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO section_hashes (name, hash) VALUES (?, ?)", name, h); err != nil {
				return fmt.Errorf("sqlite: insert hash %s: %w", name, err)
			}
		}
		return nil
	})
}

// BaselineStore persists the integrity baseline. Hash and backup live in the
// same row and are replaced in one transaction, keeping the pair atomic.
type BaselineStore struct {
	db *sql.DB
}

// Load reads the full baseline.
func (s *BaselineStore) Load() (state.Baseline, error) {
	baseline := state.Baseline{
		Hashes:  make(map[string]string),
		Backups: make(map[string]string),
	}

	rows, err := s.db.QueryContext(context.TODO(), "SELECT name, hash, backup FROM integrity_baseline")
	if err != nil {
		return baseline, fmt.Errorf("sqlite: load baseline: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var name, h, backup string
		if err := rows.Scan(&name, &h, &backup); err != nil {
			return baseline, fmt.Errorf("sqlite: scan baseline: %w", err)
		}
		baseline.Hashes[name] = h
		baseline.Backups[name] = backup
	}
	if err := rows.Err(); err != nil {
		return baseline, fmt.Errorf("sqlite: load baseline rows: %w", err)
	}
	return baseline, nil
}

// Save replaces the full baseline in one transaction.
func (s *BaselineStore) Save(b state.Baseline) error {
	return replaceAll(s.db, "integrity_baseline", func(ctx context.Context, tx *sql.Tx) error {
		for name, h := range b.Hashes {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO integrity_baseline (name, hash, backup) VALUES (?, ?, ?)",
				name, h, b.Backups[name]); err != nil {
				return fmt.Errorf("sqlite: insert baseline %s: %w", name, err)
			}
		}
		return nil
	})
}

// replaceAll clears the table and repopulates it inside one transaction, so
// readers only ever observe a complete map.
func replaceAll(db *sql.DB, table string, insert func(context.Context, *sql.Tx) error) error {
	ctx := context.TODO()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("sqlite: clear %s: %w", table, err)
	}
	if err := insert(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit %s: %w", table, err)
	}
	return nil
}
