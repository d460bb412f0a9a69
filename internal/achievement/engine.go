// Package achievement awards one-shot milestones from profile transitions.
package achievement

import (
	"sync"
	"time"

	"finsage/internal/logging"
	"finsage/internal/observability"
	"finsage/internal/profile"
)

// Achievement ids, stable across persistence.
const (
	FirstGoal             = "first_goal"
	Savings1000           = "savings_1000"
	Savings10000          = "savings_10000"
	FirstCompletedGoal    = "first_completed_goal"
	ConsistentCompletions = "consistent_completions"

	consistentGoalsRequired = 3
)

// Definition couples an achievement id with its unlock predicate. Predicates
// see the previous and current profile so threshold crossings fire exactly
// once per crossing, not on every evaluation above the threshold.
type Definition struct {
	ID          string
	Title       string
	Description string
	Unlocked    func(prev, curr *profile.Profile) bool
}

// Notification is a pending unlock awaiting display.
type Notification struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	UnlockedAt time.Time `json:"unlockedAt"`
}

// Engine evaluates achievement predicates against profile transitions and
// queues notifications for unlocks. Safe for concurrent use.
type Engine struct {
	defs    []Definition
	logger  logging.Logger
	metrics *observability.Metrics

	mu      sync.Mutex
	pending []Notification
}

// NewEngine builds an engine with the standard definitions.
func NewEngine(logger logging.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{
		defs:    Definitions(),
		logger:  logging.OrNop(logger),
		metrics: metrics,
	}
}

// Definitions returns the built-in achievement set.
func Definitions() []Definition {
	return []Definition{
		{
			ID:          FirstGoal,
			Title:       "First Goal Set",
			Description: "Choose your first financial goal.",
			Unlocked: func(prev, curr *profile.Profile) bool {
				return curr.Goal != "" && (prev == nil || prev.Goal == "")
			},
		},
		{
			ID:          Savings1000,
			Title:       "First Thousand",
			Description: "Reach 1,000 in savings.",
			Unlocked: func(prev, curr *profile.Profile) bool {
				return crossed(prev, curr, 1000)
			},
		},
		{
			ID:          Savings10000,
			Title:       "Ten Thousand Strong",
			Description: "Reach 10,000 in savings.",
			Unlocked: func(prev, curr *profile.Profile) bool {
				return crossed(prev, curr, 10000)
			},
		},
		{
			ID:          FirstCompletedGoal,
			Title:       "Plan Completed",
			Description: "Finish a full advisory session.",
			Unlocked: func(prev, curr *profile.Profile) bool {
				return curr.CompletedGoals >= 1 && (prev == nil || prev.CompletedGoals == 0)
			},
		},
		{
			ID:          ConsistentCompletions,
			Title:       "Consistency Pays",
			Description: "Complete three advisory sessions.",
			Unlocked: func(prev, curr *profile.Profile) bool {
				return curr.CompletedGoals >= consistentGoalsRequired &&
					(prev == nil || prev.CompletedGoals < consistentGoalsRequired)
			},
		},
	}
}

func crossed(prev, curr *profile.Profile, threshold float64) bool {
	if curr.CurrentSavings < threshold {
		return false
	}
	return prev == nil || prev.CurrentSavings < threshold
}

// Evaluate runs every predicate against the prev to curr transition and
// records unlocks on curr. Already-held achievements never fire again, even
// when their predicate would match.
func (e *Engine) Evaluate(prev, curr *profile.Profile) []Notification {
	if curr == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	var unlocked []Notification
	for _, def := range e.defs {
		if curr.HasAchievement(def.ID) {
			continue
		}
		if !def.Unlocked(prev, curr) {
			continue
		}
		if !curr.AddAchievement(def.ID) {
			continue
		}
		note := Notification{ID: def.ID, Title: def.Title, UnlockedAt: time.Now()}
		unlocked = append(unlocked, note)
		e.pending = append(e.pending, note)
		e.metrics.RecordAchievement()
		e.logger.Info("achievement unlocked: %s", def.ID)
	}
	return unlocked
}

// Pending returns the queued notifications in unlock order.
func (e *Engine) Pending() []Notification {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Notification(nil), e.pending...)
}

// Dismiss removes the notification with the given id from the queue.
func (e *Engine) Dismiss(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, note := range e.pending {
		if note.ID == id {
			e.pending = append(e.pending[:i], e.pending[i+1:]...)
			return
		}
	}
}

// Titles returns all known achievement titles keyed by id.
func Titles() map[string]string {
	out := make(map[string]string, len(Definitions()))
	for _, def := range Definitions() {
		out[def.ID] = def.Title
	}
	return out
}
