// Package session holds the mutable per-session state: the decision path,
// the progress model and the chat transcript. All of it is exclusively owned
// by one active controller; nothing here is shared between sessions.
package session

import (
	fserrors "finsage/internal/errors"
)

// Step records one user selection in the decision tree. Immutable once created.
type Step struct {
	StepIndex   int    `json:"stepIndex"`
	SelectionID string `json:"selectionId"`
	Value       string `json:"value"`
}

// Tracker accumulates the ordered sequence of selections for the active
// advisor session. Step indices are strictly increasing from 0 with no gaps.
type Tracker struct {
	steps    []Step
	terminal bool
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Append extends the path by one step whose index equals the prior length.
// While the tree is terminal the call is rejected with a StateError and the
// path is left untouched.
func (t *Tracker) Append(selectionID, value string) (Step, error) {
	if t.terminal {
		return Step{}, fserrors.NewStateError("append-step", "terminal")
	}
	step := Step{
		StepIndex:   len(t.steps),
		SelectionID: selectionID,
		Value:       value,
	}
	t.steps = append(t.steps, step)
	return step, nil
}

// MarkTerminal freezes the path once the backend signals completion.
func (t *Tracker) MarkTerminal() {
	t.terminal = true
}

// Terminal reports whether the path is frozen.
func (t *Tracker) Terminal() bool {
	return t.terminal
}

// Len returns the number of recorded steps.
func (t *Tracker) Len() int {
	return len(t.steps)
}

// Steps returns a copy of the recorded path.
func (t *Tracker) Steps() []Step {
	return append([]Step(nil), t.steps...)
}

// Reset clears the path and the terminal flag. Called only when a new
// advisor session starts.
func (t *Tracker) Reset() {
	t.steps = nil
	t.terminal = false
}
