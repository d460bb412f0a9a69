// Package engine wires the session subsystems into one controller: the
// decision provider, the chat orchestrator, recommendation synthesis,
// achievements and profile persistence behind a single mutex.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"finsage/internal/achievement"
	"finsage/internal/advisor"
	"finsage/internal/advisory"
	"finsage/internal/chat"
	"finsage/internal/decision"
	fserrors "finsage/internal/errors"
	"finsage/internal/identity"
	"finsage/internal/logging"
	"finsage/internal/observability"
	"finsage/internal/profile"
	"finsage/internal/recommend"
	"finsage/internal/session"
)

// Report is the final deliverable of an advisor session. Fallback reports
// carry generic guidance produced locally when the backend cannot.
type Report struct {
	AdvisorID   string    `json:"advisorId"`
	Summary     string    `json:"summary"`
	Steps       []string  `json:"steps"`
	Fallback    bool      `json:"fallback,omitempty"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Snapshot is a read-only view of the controller state for rendering.
type Snapshot struct {
	AdvisorID    string                     `json:"advisorId"`
	State        string                     `json:"state"`
	Question     string                     `json:"question,omitempty"`
	Options      []advisory.Option          `json:"options,omitempty"`
	Path         []session.Step             `json:"path"`
	Progress     int                        `json:"progress"`
	Terminal     bool                       `json:"terminal"`
	Report       *Report                    `json:"report,omitempty"`
	Profile      *profile.Profile           `json:"profile"`
	Transcript   []session.Message          `json:"transcript"`
	Achievements []achievement.Notification `json:"pendingAchievements"`
}

// Controller owns one user's advisory session. All state transitions funnel
// through it; subsystems underneath are not shared across controllers.
type Controller struct {
	catalog      *advisor.Catalog
	provider     *decision.Provider
	synthesizer  *recommend.Synthesizer
	chat         *chat.Orchestrator
	achievements *achievement.Engine
	store        profile.Store
	logger       logging.Logger
	metrics      *observability.Metrics
	id           identity.Identity

	mu       sync.Mutex
	tracker  *session.Tracker
	progress *session.Progress
	prof     *profile.Profile
	report   *Report
}

// Options collects the controller's collaborators.
type Options struct {
	Catalog      *advisor.Catalog
	Provider     *decision.Provider
	Synthesizer  *recommend.Synthesizer
	Chat         *chat.Orchestrator
	Achievements *achievement.Engine
	Store        profile.Store
	Logger       logging.Logger
	Metrics      *observability.Metrics
	Identity     identity.Identity
}

// NewController assembles a controller and loads the user's persisted
// profile, starting from an empty one when none exists yet.
func NewController(ctx context.Context, opts Options) (*Controller, error) {
	c := &Controller{
		catalog:      opts.Catalog,
		provider:     opts.Provider,
		synthesizer:  opts.Synthesizer,
		chat:         opts.Chat,
		achievements: opts.Achievements,
		store:        opts.Store,
		logger:       logging.OrNop(opts.Logger),
		metrics:      opts.Metrics,
		id:           opts.Identity,
		tracker:      session.NewTracker(),
		progress:     session.NewProgress(),
	}
	if c.catalog == nil {
		c.catalog = advisor.Default()
	}

	prof, err := opts.Store.Get(ctx, opts.Identity.UserID)
	switch {
	case errors.Is(err, profile.ErrNotFound):
		prof = &profile.Profile{}
	case err != nil:
		return nil, err
	}
	c.prof = prof
	return c, nil
}

// SelectAdvisor starts a fresh session with the chosen advisor. The path,
// progress and any previous report are cleared before the first question is
// fetched, so a failed fetch still leaves a clean session behind.
func (c *Controller) SelectAdvisor(ctx context.Context, advisorID string) error {
	persona, err := c.catalog.Get(advisorID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.tracker.Reset()
	c.progress.Reset()
	c.report = nil
	c.provider.Reset()

	prev := c.prof.Clone()
	if c.prof.Goal == "" {
		c.prof.Goal = persona.Goal
	}
	c.persistAndAward(ctx, prev)

	if err := c.provider.Start(ctx, advisorID, c.tracker); err != nil {
		return err
	}
	if c.chat != nil {
		c.chat.AppendSystemMessage(advisorID, "Session started with "+persona.Name+".")
	}
	c.logger.Info("advisor session started: %s", advisorID)
	return nil
}

// SelectOption applies the user's answer. When the backend signals that the
// tree is complete, the recommendation is generated in the same call; a
// generation failure keeps the finished path so an explicit retry can
// succeed without re-answering anything.
func (c *Controller) SelectOption(ctx context.Context, index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.provider.Select(ctx, index, c.tracker)
	c.progress.Observe(c.tracker.Len())
	if err != nil {
		return err
	}

	if !c.provider.Terminal() {
		return nil
	}
	return c.generateReportLocked(ctx)
}

// GenerateReport retries recommendation generation after a failure, or
// returns the existing report. Only legal once the tree is terminal.
func (c *Controller) GenerateReport(ctx context.Context) (*Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.report != nil {
		return c.report, nil
	}
	if !c.provider.Terminal() {
		return nil, fserrors.NewStateError("generate-report", c.provider.State().String())
	}
	if err := c.generateReportLocked(ctx); err != nil {
		return nil, err
	}
	return c.report, nil
}

func (c *Controller) generateReportLocked(ctx context.Context) error {
	advisorID := c.provider.AdvisorID()
	rec, err := c.synthesizer.Generate(ctx, advisorID, c.tracker.Steps(), c.prof.Clone())
	if err != nil {
		return err
	}

	c.report = &Report{
		AdvisorID:   advisorID,
		Summary:     rec.Summary,
		Steps:       rec.Steps,
		GeneratedAt: time.Now(),
	}
	c.progress.CompleteRecommendation()

	prev := c.prof.Clone()
	c.prof.LastCompletedAdvisor = advisorID
	c.prof.CompletedGoals++
	c.prof.Progress = c.progress.Current()
	c.persistAndAward(ctx, prev)
	return nil
}

// RequestReport returns the generated report, and degrades to a locally
// built generic report when the backend cannot produce one. The fallback is
// marked so callers can badge it; it never mutates profile or progress.
func (c *Controller) RequestReport(ctx context.Context) *Report {
	report, err := c.GenerateReport(ctx)
	if err == nil {
		return report
	}
	c.logger.Warn("serving fallback report: %v", err)

	c.mu.Lock()
	advisorID := c.provider.AdvisorID()
	c.mu.Unlock()
	return fallbackReport(advisorID)
}

func fallbackReport(advisorID string) *Report {
	return &Report{
		AdvisorID: advisorID,
		Summary: "We couldn't prepare your personalized plan right now. " +
			"Here are proven first moves that apply to nearly every goal.",
		Steps: []string{
			"Track a full month of spending to find your true savings margin.",
			"Automate a fixed transfer to savings on every payday.",
			"Build a one month expense buffer before anything else.",
			"Revisit this plan once the advisory service is reachable again.",
		},
		Fallback:    true,
		GeneratedAt: time.Now(),
	}
}

// SendMessage forwards a chat message through the orchestrator. The
// controller lock is not held across the backend call, so a newer message
// can supersede this one while it is in flight.
func (c *Controller) SendMessage(ctx context.Context, text string) (*chat.Result, error) {
	c.mu.Lock()
	req := chat.SendRequest{
		Text:      text,
		AdvisorID: c.provider.AdvisorID(),
		UserID:    c.id.UserID,
		SessionID: c.id.SessionID,
		Profile:   c.prof.Clone(),
		Path:      c.tracker.Steps(),
	}
	c.mu.Unlock()

	result, err := c.chat.Send(ctx, req)
	if err != nil {
		return nil, err
	}

	if result.StartDecisionTree && req.AdvisorID != "" {
		c.mu.Lock()
		c.tracker.Reset()
		c.progress.Reset()
		c.report = nil
		startErr := c.provider.Start(ctx, req.AdvisorID, c.tracker)
		c.mu.Unlock()
		if startErr != nil {
			c.logger.Warn("chat-initiated tree restart failed: %v", startErr)
		}
	}
	return result, nil
}

// RetryFetch re-issues the last failed question fetch on explicit user
// action. Never called automatically.
func (c *Controller) RetryFetch(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.provider.Retry(ctx, c.tracker); err != nil {
		return err
	}
	if c.provider.Terminal() {
		return c.generateReportLocked(ctx)
	}
	return nil
}

// Restart abandons the current session. The persisted profile and its
// achievements survive; only session-local state is cleared.
func (c *Controller) Restart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tracker.Reset()
	c.progress.Reset()
	c.report = nil
	c.provider.Reset()
	c.logger.Info("session restarted for user %s", c.id.UserID)
}

// UpdateFinancials applies user-entered numbers to the profile, persists it
// and evaluates achievements against the transition.
func (c *Controller) UpdateFinancials(ctx context.Context, savings, income, target float64, timeframe string) []achievement.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.prof.Clone()
	if savings >= 0 {
		c.prof.CurrentSavings = savings
	}
	if income >= 0 {
		c.prof.MonthlyIncome = income
	}
	if target >= 0 {
		c.prof.TargetAmount = target
	}
	if timeframe != "" {
		c.prof.Timeframe = timeframe
	}
	return c.persistAndAward(ctx, prev)
}

// persistAndAward evaluates achievements for the prev to current profile
// transition and writes the result back to the store. Persistence failure is
// logged, not surfaced: the in-memory session stays authoritative.
func (c *Controller) persistAndAward(ctx context.Context, prev *profile.Profile) []achievement.Notification {
	var unlocked []achievement.Notification
	if c.achievements != nil {
		unlocked = c.achievements.Evaluate(prev, c.prof)
	}
	if err := c.store.Put(ctx, c.id.UserID, c.prof); err != nil {
		c.logger.Warn("profile persistence failed for user %s: %v", c.id.UserID, err)
	}
	return unlocked
}

// PendingAchievements returns queued unlock notifications.
func (c *Controller) PendingAchievements() []achievement.Notification {
	if c.achievements == nil {
		return nil
	}
	return c.achievements.Pending()
}

// DismissAchievement removes one queued notification.
func (c *Controller) DismissAchievement(id string) {
	if c.achievements != nil {
		c.achievements.Dismiss(id)
	}
}

// Identity returns the ids this controller serves.
func (c *Controller) Identity() identity.Identity {
	return c.id
}

// State returns a consistent snapshot for rendering.
func (c *Controller) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		AdvisorID: c.provider.AdvisorID(),
		State:     c.provider.State().String(),
		Question:  c.provider.Question(),
		Options:   c.provider.Options(),
		Path:      c.tracker.Steps(),
		Progress:  c.progress.Current(),
		Terminal:  c.provider.Terminal(),
		Report:    c.report,
		Profile:   c.prof.Clone(),
	}
	if c.chat != nil {
		snap.Transcript = c.chat.Transcript(c.provider.AdvisorID())
	}
	if c.achievements != nil {
		snap.Achievements = c.achievements.Pending()
	}
	return snap
}
