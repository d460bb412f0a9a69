package session

const (
	// MaxSteps is the decision tree depth the backend uses for every goal.
	MaxSteps = 4

	progressBase = 50
	questionBand = 25
	// recommendationBonus is the only way to enter the 75-100 band:
	// answering every question alone never implies "done".
	recommendationBonus = 25

	maxQuestionProgress = progressBase + questionBand
	maxProgress         = 100
)

// ComputeProgress derives the completion percentage for a path of the given
// length. The result stays within [50, 75]; the band above 75 is reserved
// for recommendation completion.
func ComputeProgress(pathLen int) int {
	if pathLen < 0 {
		pathLen = 0
	}
	value := progressBase + pathLen*questionBand/MaxSteps
	if value > maxQuestionProgress {
		value = maxQuestionProgress
	}
	return value
}

// Progress tracks session-local completion. It is non-decreasing within a
// session except on explicit reset.
type Progress struct {
	current int
}

// NewProgress starts at the session base.
func NewProgress() *Progress {
	return &Progress{current: progressBase}
}

// Observe folds in the progress implied by the current path length.
func (p *Progress) Observe(pathLen int) int {
	if v := ComputeProgress(pathLen); v > p.current {
		p.current = v
	}
	return p.current
}

// CompleteRecommendation applies the fixed completion increment, capped at 100.
func (p *Progress) CompleteRecommendation() int {
	p.current += recommendationBonus
	if p.current > maxProgress {
		p.current = maxProgress
	}
	return p.current
}

// Current returns the session progress value.
func (p *Progress) Current() int {
	return p.current
}

// Reset returns the session progress to the base value. The persisted
// profile-level progress is untouched by this.
func (p *Progress) Reset() {
	p.current = progressBase
}
