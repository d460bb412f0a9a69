package session

import "time"

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one entry in an advisor's chat transcript. Append-only.
type Message struct {
	Role       Role              `json:"role"`
	Content    string            `json:"content"`
	Timestamp  time.Time         `json:"timestamp"`
	Sentiment  string            `json:"sentiment,omitempty"`
	Confidence float64           `json:"confidence,omitempty"`
	Fallback   bool              `json:"fallback,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Transcript keeps per-advisor chat history.
type Transcript struct {
	byAdvisor map[string][]Message
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{byAdvisor: make(map[string][]Message)}
}

// Append adds a message to the advisor's history.
func (t *Transcript) Append(advisorID string, msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	t.byAdvisor[advisorID] = append(t.byAdvisor[advisorID], msg)
}

// Messages returns a copy of the advisor's history in order.
func (t *Transcript) Messages(advisorID string) []Message {
	return append([]Message(nil), t.byAdvisor[advisorID]...)
}

// Len returns the number of messages recorded for the advisor.
func (t *Transcript) Len(advisorID string) int {
	return len(t.byAdvisor[advisorID])
}
