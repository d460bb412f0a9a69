package session

import "testing"

func TestComputeProgressBounds(t *testing.T) {
	prev := -1
	for pathLen := 0; pathLen <= MaxSteps; pathLen++ {
		got := ComputeProgress(pathLen)
		if got < 0 || got > 75 {
			t.Fatalf("ComputeProgress(%d) = %d, outside [0,75]", pathLen, got)
		}
		if got < prev {
			t.Fatalf("ComputeProgress not non-decreasing at len %d: %d < %d", pathLen, got, prev)
		}
		prev = got
	}
	if ComputeProgress(MaxSteps) != 75 {
		t.Fatalf("full path should reach exactly 75, got %d", ComputeProgress(MaxSteps))
	}
	// Beyond the nominal depth the value stays capped.
	if ComputeProgress(MaxSteps+3) != 75 {
		t.Fatalf("progress beyond max depth must stay at 75")
	}
}

func TestProgressRecommendationCompletesTo100(t *testing.T) {
	p := NewProgress()
	p.Observe(MaxSteps)
	if p.Current() != 75 {
		t.Fatalf("expected 75 before recommendation, got %d", p.Current())
	}
	if got := p.CompleteRecommendation(); got != 100 {
		t.Fatalf("expected 100 after recommendation, got %d", got)
	}
	// Cap holds even if applied again.
	if got := p.CompleteRecommendation(); got != 100 {
		t.Fatalf("progress must cap at 100, got %d", got)
	}
}

func TestProgressNonDecreasingWithinSession(t *testing.T) {
	p := NewProgress()
	p.Observe(3)
	before := p.Current()
	p.Observe(1) // a smaller observation must not lower progress
	if p.Current() < before {
		t.Fatalf("progress regressed from %d to %d", before, p.Current())
	}

	p.Reset()
	if p.Current() != 50 {
		t.Fatalf("reset should return to base, got %d", p.Current())
	}
}
