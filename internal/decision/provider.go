// Package decision drives the question/answer loop against the advisory
// backend. The provider is a pure transition and bookkeeping layer: it never
// decides which question comes next, it only tracks where the tree stands.
package decision

import (
	"context"

	"finsage/internal/advisory"
	fserrors "finsage/internal/errors"
	"finsage/internal/logging"
	"finsage/internal/observability"
	"finsage/internal/session"
)

// State enumerates the provider's positions in the fetch/select loop.
type State int

const (
	// StateStart - no advisor selected yet.
	StateStart State = iota
	// StateAwaitingOptions - a fetch is due or in flight.
	StateAwaitingOptions
	// StateAwaitingSelection - a question is displayed, waiting on the user.
	StateAwaitingSelection
	// StateTerminal - the backend signalled recommendation time.
	StateTerminal
	// StateError - last fetch failed; re-entry requires explicit user action.
	StateError
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateAwaitingOptions:
		return "awaiting-options"
	case StateAwaitingSelection:
		return "awaiting-selection"
	case StateTerminal:
		return "terminal"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Provider is the decision tree state machine for one advisor session.
// It is owned by a single controller and is not safe for concurrent use.
type Provider struct {
	fetcher advisory.OptionsFetcher
	logger  logging.Logger
	metrics *observability.Metrics

	state     State
	advisorID string
	question  string
	options   []advisory.Option
}

// NewProvider returns a provider in the start state.
func NewProvider(fetcher advisory.OptionsFetcher, logger logging.Logger, metrics *observability.Metrics) *Provider {
	return &Provider{
		fetcher: fetcher,
		logger:  logging.OrNop(logger),
		metrics: metrics,
		state:   StateStart,
	}
}

// Start begins a fresh advisor session and fetches the first question.
// The caller must have reset the tracker beforehand.
func (p *Provider) Start(ctx context.Context, advisorID string, tracker *session.Tracker) error {
	p.advisorID = advisorID
	p.question = ""
	p.options = nil
	p.state = StateAwaitingOptions
	return p.fetch(ctx, tracker)
}

// Select applies the user's choice of option index: it appends exactly one
// step to the path and re-enters the fetch loop. Selecting while no question
// is displayed is a StateError the caller may ignore.
func (p *Provider) Select(ctx context.Context, index int, tracker *session.Tracker) error {
	if p.state != StateAwaitingSelection {
		return fserrors.NewStateError("select-option", p.state.String())
	}
	if index < 0 || index >= len(p.options) {
		return fserrors.NewValidationError("optionIndex", "out of range")
	}

	opt := p.options[index]
	if _, err := tracker.Append(opt.ID, opt.Value); err != nil {
		return err
	}

	p.state = StateAwaitingOptions
	return p.fetch(ctx, tracker)
}

// Retry re-issues the failed fetch. It is only legal from the error state:
// the engine never retries on its own, a user action has to drive it.
func (p *Provider) Retry(ctx context.Context, tracker *session.Tracker) error {
	if p.state != StateError {
		return fserrors.NewStateError("retry-fetch", p.state.String())
	}
	p.state = StateAwaitingOptions
	return p.fetch(ctx, tracker)
}

func (p *Provider) fetch(ctx context.Context, tracker *session.Tracker) error {
	resp, err := p.fetcher.FetchOptions(ctx, advisory.OptionsRequest{
		AdvisorID: p.advisorID,
		Step:      tracker.Len(),
		Path:      tracker.Steps(),
	})
	p.metrics.RecordDecisionFetch(err == nil)
	if err != nil {
		p.state = StateError
		p.logger.Warn("decision fetch failed for %s at step %d: %v", p.advisorID, tracker.Len(), err)
		return err
	}

	if resp.ShouldGenerateRecommendation {
		p.state = StateTerminal
		p.question = ""
		p.options = nil
		tracker.MarkTerminal()
		p.logger.Info("decision tree terminal for %s after %d steps", p.advisorID, tracker.Len())
		return nil
	}

	p.question = resp.Question
	p.options = resp.Options
	p.state = StateAwaitingSelection
	return nil
}

// Reset returns the provider to the start state for a new advisor session.
func (p *Provider) Reset() {
	p.state = StateStart
	p.advisorID = ""
	p.question = ""
	p.options = nil
}

// State returns the current machine state.
func (p *Provider) State() State {
	return p.state
}

// AdvisorID returns the advisor the provider is serving.
func (p *Provider) AdvisorID() string {
	return p.advisorID
}

// Question returns the displayed question, if any.
func (p *Provider) Question() string {
	return p.question
}

// Options returns a copy of the displayed options.
func (p *Provider) Options() []advisory.Option {
	return append([]advisory.Option(nil), p.options...)
}

// Terminal reports whether the backend signalled recommendation time.
func (p *Provider) Terminal() bool {
	return p.state == StateTerminal
}
