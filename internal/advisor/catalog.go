// Package advisor holds the static registry of advisor personas. Each
// persona is tied to one financial goal; the question sequence for the goal
// lives entirely behind the advisory backend.
package advisor

import (
	"sort"

	fserrors "finsage/internal/errors"
)

// Profile describes one advisor persona. Immutable, loaded once.
type Profile struct {
	ID          string `json:"id"`
	Goal        string `json:"goal"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Catalog is a lookup-only registry of advisor personas.
type Catalog struct {
	byID   map[string]Profile
	byGoal map[string]Profile
}

// NewCatalog builds a catalog from the given profiles. Later duplicates of
// an id or goal are ignored.
func NewCatalog(profiles []Profile) *Catalog {
	c := &Catalog{
		byID:   make(map[string]Profile, len(profiles)),
		byGoal: make(map[string]Profile, len(profiles)),
	}
	for _, p := range profiles {
		if _, ok := c.byID[p.ID]; !ok {
			c.byID[p.ID] = p
		}
		if _, ok := c.byGoal[p.Goal]; !ok {
			c.byGoal[p.Goal] = p
		}
	}
	return c
}

// Default returns the built-in persona set.
func Default() *Catalog {
	return NewCatalog([]Profile{
		{
			ID:          "budget_planner",
			Goal:        "emergency_fund",
			Name:        "Budget Planner",
			Description: "Builds a safety cushion covering several months of expenses.",
			Icon:        "shield",
		},
		{
			ID:          "savings_strategist",
			Goal:        "home_purchase",
			Name:        "Savings Strategist",
			Description: "Plans long-horizon saving for a home, education or travel.",
			Icon:        "piggy-bank",
		},
		{
			ID:          "execution_expert",
			Goal:        "debt_reduction",
			Name:        "Execution Expert",
			Description: "Sequences debt payoff to cut interest cost fastest.",
			Icon:        "target",
		},
		{
			ID:          "optimization_advisor",
			Goal:        "investment",
			Name:        "Optimization Advisor",
			Description: "Matches an investment mix to risk tolerance and horizon.",
			Icon:        "trending-up",
		},
	})
}

// Get returns the persona for an advisor id.
func (c *Catalog) Get(advisorID string) (Profile, error) {
	p, ok := c.byID[advisorID]
	if !ok {
		return Profile{}, fserrors.NewValidationError("advisorId", "unknown advisor "+advisorID)
	}
	return p, nil
}

// ForGoal returns the persona handling the given goal.
func (c *Catalog) ForGoal(goal string) (Profile, bool) {
	p, ok := c.byGoal[goal]
	return p, ok
}

// List returns all personas ordered by id.
func (c *Catalog) List() []Profile {
	out := make([]Profile, 0, len(c.byID))
	for _, p := range c.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
