package reset

import "testing"

func TestEveryStateHasResets(t *testing.T) {
	for _, state := range States() {
		if len(ForState(state)) == 0 {
			t.Errorf("state %q has no resets", state)
		}
	}
}

func TestForStateCaseInsensitive(t *testing.T) {
	if len(ForState("  Stressed ")) == 0 {
		t.Error("expected match for mixed-case state with whitespace")
	}
	if ForState("euphoric") != nil {
		t.Error("expected nil for unknown state")
	}
}

func TestAllMatchesCatalog(t *testing.T) {
	all := All()
	if len(all) == 0 {
		t.Fatal("catalog is empty")
	}

	seen := make(map[string]bool)
	for _, r := range all {
		if r.Slug == "" || r.Title == "" || r.State == "" {
			t.Errorf("incomplete reset: %+v", r)
		}
		if r.DurationSeconds <= 0 {
			t.Errorf("reset %q has no duration", r.Slug)
		}
		if len(r.Steps) == 0 {
			t.Errorf("reset %q has no steps", r.Slug)
		}
		if seen[r.Slug] {
			t.Errorf("duplicate slug %q", r.Slug)
		}
		seen[r.Slug] = true
	}
}

func TestBySlug(t *testing.T) {
	r := BySlug("box-breathing")
	if r == nil {
		t.Fatal("expected reset for known slug")
	}
	if r.State != StateStressed {
		t.Errorf("state = %q, want %q", r.State, StateStressed)
	}

	if BySlug("does-not-exist") != nil {
		t.Error("expected nil for unknown slug")
	}
}
