// Package chat manages the freeform advisory conversation: request
// supersession, best-effort sentiment decoration and fallback replies that
// keep the conversation usable when the backend is not.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"finsage/internal/advisory"
	fserrors "finsage/internal/errors"
	"finsage/internal/logging"
	"finsage/internal/observability"
	"finsage/internal/profile"
	"finsage/internal/session"
)

// FallbackMessage is the canned reply served when the chat backend fails.
const FallbackMessage = "I'm sorry, I couldn't reach the advisory service just now. " +
	"Your message is saved - please try again in a moment."

// Backend is the chat collaborator contract.
type Backend interface {
	SendChat(ctx context.Context, req advisory.ChatRequest) (*advisory.ChatResponse, error)
}

// SentimentAnalyzer is the optional sentiment collaborator contract.
type SentimentAnalyzer interface {
	AnalyzeSentiment(ctx context.Context, text string) (*advisory.Sentiment, error)
}

// SendRequest bundles one outgoing message with its session context. Profile
// and path are read-only context for the backend.
type SendRequest struct {
	Text      string
	AdvisorID string
	UserID    string
	SessionID string
	Profile   *profile.Profile
	Path      []session.Step
}

// Result is the applied outcome of a send.
type Result struct {
	Message           session.Message
	StartDecisionTree bool
}

// Orchestrator serializes chat sends per conversation with a
// last-issued-wins contract: a new send cancels the in-flight one, and a
// stale response that still arrives is discarded instead of applied.
type Orchestrator struct {
	backend   Backend
	sentiment SentimentAnalyzer
	logger    logging.Logger
	metrics   *observability.Metrics

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	transcript *session.Transcript
}

// NewOrchestrator builds a chat orchestrator. sentiment may be nil, in which
// case messages simply carry no sentiment metadata.
func NewOrchestrator(backend Backend, sentiment SentimentAnalyzer, logger logging.Logger, metrics *observability.Metrics) *Orchestrator {
	return &Orchestrator{
		backend:    backend,
		sentiment:  sentiment,
		logger:     logging.OrNop(logger),
		metrics:    metrics,
		transcript: session.NewTranscript(),
	}
}

// Send delivers one user message and returns the applied response.
//
// Failure handling is deliberately asymmetric: network and backend errors
// degrade to a fallback reply so the conversation keeps flowing, while a
// superseded send returns a DiscardedError the caller must swallow.
func (o *Orchestrator) Send(ctx context.Context, req SendRequest) (*Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fserrors.NewValidationError("text", "must not be empty")
	}

	o.mu.Lock()
	o.generation++
	gen := o.generation
	if o.cancel != nil {
		// Last-issued-wins: the prior in-flight send is cancelled outright.
		o.cancel()
	}
	sendCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	// History length counts the messages that precede this send.
	history := o.transcript.Len(req.AdvisorID)
	o.transcript.Append(req.AdvisorID, session.Message{
		Role:      session.RoleUser,
		Content:   req.Text,
		Timestamp: time.Now(),
	})
	o.mu.Unlock()

	resp, err := o.backend.SendChat(sendCtx, advisory.ChatRequest{
		Message:       req.Text,
		AdvisorID:     req.AdvisorID,
		UserID:        req.UserID,
		SessionID:     req.SessionID,
		Profile:       req.Profile,
		Path:          req.Path,
		HistoryLength: history,
	})

	if err != nil && isSuperseded(err) {
		o.metrics.RecordChatSuperseded()
		o.logger.Debug("chat send generation %d superseded before completion", gen)
		return nil, &fserrors.DiscardedError{Generation: gen}
	}

	var msg session.Message
	var startTree bool
	switch {
	case err != nil:
		// Degrade silently: the user sees an apology, never a raw error.
		o.logger.Warn("chat backend failed, serving fallback: %v", err)
		msg = session.Message{
			Role:      session.RoleAssistant,
			Content:   FallbackMessage,
			Timestamp: time.Now(),
			Fallback:  true,
		}
	default:
		msg = session.Message{
			Role:       session.RoleAssistant,
			Content:    resp.Message,
			Timestamp:  time.Now(),
			Sentiment:  resp.Sentiment,
			Confidence: resp.Confidence,
			Fallback:   resp.Fallback,
		}
		if resp.AdvisorUsed != "" {
			msg.Metadata = map[string]string{"advisorUsed": resp.AdvisorUsed}
		}
		startTree = resp.StartDecisionTree
		if msg.Sentiment == "" {
			o.decorateSentiment(sendCtx, &msg)
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.generation {
		// A newer send was issued while this one was in flight.
		o.metrics.RecordChatSuperseded()
		o.logger.Debug("discarding stale chat response for generation %d (current %d)", gen, o.generation)
		return nil, &fserrors.DiscardedError{Generation: gen}
	}
	o.cancel = nil
	cancel()

	o.transcript.Append(req.AdvisorID, msg)
	o.metrics.RecordChatSend(msg.Fallback)
	return &Result{Message: msg, StartDecisionTree: startTree}, nil
}

// decorateSentiment adds sentiment metadata when the service answers in
// time. Failure is logged at debug level and otherwise ignored: sentiment is
// optional metadata, never a reason to fail a send.
func (o *Orchestrator) decorateSentiment(ctx context.Context, msg *session.Message) {
	if o.sentiment == nil {
		return
	}
	result, err := o.sentiment.AnalyzeSentiment(ctx, msg.Content)
	if err != nil {
		o.logger.Debug("sentiment analysis skipped: %v", err)
		return
	}
	msg.Sentiment = result.Sentiment
	msg.Confidence = result.Confidence
}

// Transcript returns a copy of the advisor's conversation history.
func (o *Orchestrator) Transcript(advisorID string) []session.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.transcript.Messages(advisorID)
}

// AppendSystemMessage records a system-role note in the advisor's history.
func (o *Orchestrator) AppendSystemMessage(advisorID, content string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transcript.Append(advisorID, session.Message{
		Role:      session.RoleSystem,
		Content:   content,
		Timestamp: time.Now(),
	})
}

func isSuperseded(err error) bool {
	return errors.Is(err, context.Canceled)
}
