// Package workspace loads compilation sections from a directory of Markdown
// source files, with optional YAML frontmatter carrying per-section
// priority and criticality.
package workspace

import (
	"os"
	"path/filepath"
)

// Workspace is the directory holding section source files and the state
// subdirectory for the persisted maps.
type Workspace struct {
	Root string
}

// New creates a Workspace rooted at the given directory.
func New(root string) *Workspace {
	return &Workspace{Root: root}
}

// EnsureStructure creates the workspace directory tree if it does not exist.
// Idempotent — safe to call multiple times.
func (w *Workspace) EnsureStructure() error {
	dirs := []string{
		w.Root,
		w.SectionsDir(),
		w.StateDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// SectionsDir returns the directory scanned for section source files.
func (w *Workspace) SectionsDir() string {
	return filepath.Join(w.Root, "sections")
}

// StateDir returns the directory for the persisted state maps.
func (w *Workspace) StateDir() string {
	return filepath.Join(w.Root, "state")
}

// WeightsPath returns the attention weights file path.
func (w *Workspace) WeightsPath() string {
	return filepath.Join(w.StateDir(), "attention.json")
}

// HashesPath returns the previous-compilation hashes file path.
func (w *Workspace) HashesPath() string {
	return filepath.Join(w.StateDir(), "hashes.json")
}

// BaselinePath returns the integrity baseline file path.
func (w *Workspace) BaselinePath() string {
	return filepath.Join(w.StateDir(), "baseline.json")
}

// StorePath returns the SQLite database path used when the sqlite storage
// backend is selected.
func (w *Workspace) StorePath() string {
	return filepath.Join(w.StateDir(), "loadout.db")
}

// SectionPath returns the source file path for a named section, used when
// restoring critical sections from backup.
func (w *Workspace) SectionPath(name string) string {
	return filepath.Join(w.SectionsDir(), name+".md")
}
