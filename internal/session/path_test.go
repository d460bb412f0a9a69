package session

import (
	"testing"

	fserrors "finsage/internal/errors"
)

func TestAppendAssignsStrictlyIncreasingIndices(t *testing.T) {
	tracker := NewTracker()
	for i := 0; i < 4; i++ {
		step, err := tracker.Append("sel", "v")
		if err != nil {
			t.Fatalf("append %d failed: %v", i, err)
		}
		if step.StepIndex != i {
			t.Fatalf("expected index %d, got %d", i, step.StepIndex)
		}
	}
	if tracker.Len() != 4 {
		t.Fatalf("expected 4 steps, got %d", tracker.Len())
	}
}

func TestAppendRejectedWhileTerminal(t *testing.T) {
	tracker := NewTracker()
	if _, err := tracker.Append("a", "1"); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	tracker.MarkTerminal()

	_, err := tracker.Append("b", "2")
	if err == nil {
		t.Fatal("expected rejection while terminal")
	}
	if !fserrors.IsState(err) {
		t.Fatalf("expected StateError, got %v", err)
	}
	if tracker.Len() != 1 {
		t.Fatalf("rejected append must not extend the path, len=%d", tracker.Len())
	}
}

func TestResetClearsPathAndTerminalFlag(t *testing.T) {
	tracker := NewTracker()
	tracker.Append("a", "1")
	tracker.MarkTerminal()

	tracker.Reset()
	if tracker.Len() != 0 || tracker.Terminal() {
		t.Fatalf("reset left state behind: len=%d terminal=%v", tracker.Len(), tracker.Terminal())
	}
	if _, err := tracker.Append("a", "1"); err != nil {
		t.Fatalf("append after reset failed: %v", err)
	}
}

func TestStepsReturnsCopy(t *testing.T) {
	tracker := NewTracker()
	tracker.Append("a", "1")
	steps := tracker.Steps()
	steps[0].SelectionID = "mutated"
	if tracker.Steps()[0].SelectionID != "a" {
		t.Fatal("Steps leaked internal slice")
	}
}
