// Package advisory implements the HTTP collaborators behind the session
// engine: decision options, recommendation synthesis, advisory chat and the
// optional sentiment service. All business rules about which question comes
// next live on the backend; this package is wire plumbing only.
package advisory

import (
	"finsage/internal/profile"
	"finsage/internal/session"
)

// OptionsRequest asks the backend for the next question given the path so far.
type OptionsRequest struct {
	AdvisorID string         `json:"advisorId"`
	Step      int            `json:"step"`
	Path      []session.Step `json:"path"`
}

// Option is one selectable answer for the current question.
type Option struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Value string `json:"value"`
}

// OptionsResponse carries the next question or the terminal signal.
type OptionsResponse struct {
	Question                     string   `json:"question"`
	Options                      []Option `json:"options"`
	ShouldGenerateRecommendation bool     `json:"shouldGenerateRecommendation"`
}

// RecommendationRequest asks for the final recommendation for a finished path.
type RecommendationRequest struct {
	AdvisorID string           `json:"advisorId"`
	Path      []session.Step   `json:"path"`
	Profile   *profile.Profile `json:"profile"`
}

// Recommendation is the synthesized result of a completed tree traversal.
type Recommendation struct {
	Summary string   `json:"summary"`
	Steps   []string `json:"steps"`
}

// ChatRequest carries one freeform message with its session context.
// HistoryLength tells the backend how many transcript messages precede this
// one, so it can weight its conversational context accordingly.
type ChatRequest struct {
	Message       string           `json:"message"`
	AdvisorID     string           `json:"advisorId"`
	UserID        string           `json:"userId"`
	SessionID     string           `json:"sessionId"`
	Profile       *profile.Profile `json:"profile,omitempty"`
	Path          []session.Step   `json:"path,omitempty"`
	HistoryLength int              `json:"historyLength"`
}

// ChatResponse is the backend's reply. StartDecisionTree instructs the
// caller to leave chat and re-enter the decision tree at step 0.
type ChatResponse struct {
	Message           string  `json:"message"`
	Sentiment         string  `json:"sentiment,omitempty"`
	Confidence        float64 `json:"confidence,omitempty"`
	AdvisorUsed       string  `json:"advisorUsed,omitempty"`
	Fallback          bool    `json:"fallback,omitempty"`
	StartDecisionTree bool    `json:"startDecisionTree,omitempty"`
}

// SentimentRequest asks the optional sentiment service to score a text.
type SentimentRequest struct {
	Text string `json:"text"`
}

// Sentiment is a label with its confidence (absolute polarity).
type Sentiment struct {
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
}
