// Package profile models the persistent user profile mutated by onboarding,
// recommendation completion and chat-driven updates.
package profile

import "sort"

// Profile is the user's financial profile. It is exclusively owned by one
// active session controller; achievements form a set with no duplicate ids.
type Profile struct {
	Goal                 string   `json:"goal"`
	Timeframe            string   `json:"timeframe"`
	CurrentSavings       float64  `json:"currentSavings"`
	MonthlyIncome        float64  `json:"monthlyIncome"`
	TargetAmount         float64  `json:"targetAmount"`
	Progress             int      `json:"progress"`
	LastCompletedAdvisor string   `json:"lastCompletedAdvisor"`
	CompletedGoals       int      `json:"completedGoals"`
	Achievements         []string `json:"achievements"`
}

// HasAchievement reports whether the achievement id is already recorded.
func (p *Profile) HasAchievement(id string) bool {
	for _, existing := range p.Achievements {
		if existing == id {
			return true
		}
	}
	return false
}

// AddAchievement records the id and reports whether it was newly added.
// Check and insert are one step so an id can never be recorded twice.
func (p *Profile) AddAchievement(id string) bool {
	if p.HasAchievement(id) {
		return false
	}
	p.Achievements = append(p.Achievements, id)
	sort.Strings(p.Achievements)
	return true
}

// Clone returns a deep copy, used to snapshot the previous state before a
// mutation so achievement predicates can compare transitions.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	out := *p
	out.Achievements = append([]string(nil), p.Achievements...)
	return &out
}
