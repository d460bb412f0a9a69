package profile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAddAchievementIsIdempotent(t *testing.T) {
	p := &Profile{}
	if !p.AddAchievement("savings_1000") {
		t.Fatal("first add should report newly added")
	}
	if p.AddAchievement("savings_1000") {
		t.Fatal("second add must be a no-op")
	}
	if len(p.Achievements) != 1 {
		t.Fatalf("expected a single id, got %v", p.Achievements)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	p := &Profile{Goal: "emergency_fund", Achievements: []string{"first_goal"}}
	c := p.Clone()
	c.Goal = "retirement"
	c.AddAchievement("savings_1000")

	if p.Goal != "emergency_fund" || len(p.Achievements) != 1 {
		t.Fatalf("clone mutated the original: %+v", p)
	}
}

func TestInMemoryStoreRoundTrip(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	if _, err := store.Get(ctx, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	p := &Profile{Goal: "debt_reduction", CurrentSavings: 800}
	if err := store.Put(ctx, "u1", p); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Mutating the original must not affect the stored copy.
	p.CurrentSavings = 0

	got, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.CurrentSavings != 800 {
		t.Fatalf("store leaked a shared pointer: %+v", got)
	}
}

func TestFileStoreLifecycle(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	ctx := context.Background()

	if _, err := store.Get(ctx, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	p := &Profile{
		Goal:           "home_purchase",
		CurrentSavings: 12500,
		Achievements:   []string{"first_goal", "savings_1000"},
	}
	if err := store.Put(ctx, "u1", p); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Goal != "home_purchase" || len(got.Achievements) != 2 {
		t.Fatalf("unexpected profile: %+v", got)
	}

	// Ensure the file landed on disk.
	if _, err := os.Stat(filepath.Join(dir, "profile_u1.json")); err != nil {
		t.Fatalf("expected profile file to exist: %v", err)
	}
}
