package delta_test

import (
	"reflect"
	"testing"

	"github.com/flemzord/loadout/internal/delta"
	"github.com/flemzord/loadout/internal/state"
)

func TestDiff_FirstRunAllNew(t *testing.T) {
	t.Parallel()

	d := delta.NewDetector(state.NewMemHashStore())
	changes, err := d.Diff(map[string]string{"a": "h1", "b": "h2"})
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	if !reflect.DeepEqual(changes.New, []string{"a", "b"}) {
		t.Errorf("new = %v, want [a b]", changes.New)
	}
	if len(changes.Changed) != 0 || len(changes.Unchanged) != 0 {
		t.Errorf("changed=%v unchanged=%v, want empty", changes.Changed, changes.Unchanged)
	}
}

func TestDiff_Idempotent(t *testing.T) {
	t.Parallel()

	d := delta.NewDetector(state.NewMemHashStore())
	hashes := map[string]string{"a": "h1", "b": "h2"}

	if _, err := d.Diff(hashes); err != nil {
		t.Fatal(err)
	}
	changes, err := d.Diff(hashes)
	if err != nil {
		t.Fatal(err)
	}

	if len(changes.Changed) != 0 || len(changes.New) != 0 {
		t.Errorf("second identical diff: changed=%v new=%v, want empty", changes.Changed, changes.New)
	}
	if !reflect.DeepEqual(changes.Unchanged, []string{"a", "b"}) {
		t.Errorf("unchanged = %v, want [a b]", changes.Unchanged)
	}
}

func TestDiff_Classification(t *testing.T) {
	t.Parallel()

	d := delta.NewDetector(state.NewMemHashStore())
	if _, err := d.Diff(map[string]string{"same": "s1", "mut": "m1", "gone": "g1"}); err != nil {
		t.Fatal(err)
	}

	changes, err := d.Diff(map[string]string{"same": "s1", "mut": "m2", "fresh": "f1"})
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(changes.Changed, []string{"mut"}) {
		t.Errorf("changed = %v, want [mut]", changes.Changed)
	}
	if !reflect.DeepEqual(changes.New, []string{"fresh"}) {
		t.Errorf("new = %v, want [fresh]", changes.New)
	}
	if !reflect.DeepEqual(changes.Unchanged, []string{"same"}) {
		t.Errorf("unchanged = %v, want [same]", changes.Unchanged)
	}
}

func TestDiff_VanishedNameDroppedFromTracking(t *testing.T) {
	t.Parallel()

	store := state.NewMemHashStore()
	d := delta.NewDetector(store)
	if _, err := d.Diff(map[string]string{"kept": "k1", "gone": "g1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Diff(map[string]string{"kept": "k1"}); err != nil {
		t.Fatal(err)
	}

	// If "gone" were still tracked, its reappearance would be "unchanged".
	changes, err := d.Diff(map[string]string{"kept": "k1", "gone": "g1"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(changes.New, []string{"gone"}) {
		t.Errorf("reappearing name classified as %v, want new", changes)
	}
}
