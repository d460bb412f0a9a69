package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"finsage/internal/advisory"
	fserrors "finsage/internal/errors"
	"finsage/internal/session"
)

// blockingBackend holds each send until released or cancelled, so tests can
// control the order in which in-flight requests resolve.
type blockingBackend struct {
	mu       sync.Mutex
	started  chan string
	releases map[string]chan string
}

func newBlockingBackend() *blockingBackend {
	return &blockingBackend{
		started:  make(chan string, 8),
		releases: make(map[string]chan string),
	}
}

func (b *blockingBackend) SendChat(ctx context.Context, req advisory.ChatRequest) (*advisory.ChatResponse, error) {
	release := b.releaseChan(req.Message)
	b.started <- req.Message
	select {
	case reply := <-release:
		return &advisory.ChatResponse{Message: reply}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *blockingBackend) releaseChan(message string) chan string {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.releases[message]
	if !ok {
		ch = make(chan string, 1)
		b.releases[message] = ch
	}
	return ch
}

func (b *blockingBackend) release(message, reply string) {
	b.releaseChan(message) <- reply
}

type stubBackend struct {
	resp     *advisory.ChatResponse
	err      error
	requests []advisory.ChatRequest
}

func (s *stubBackend) SendChat(ctx context.Context, req advisory.ChatRequest) (*advisory.ChatResponse, error) {
	s.requests = append(s.requests, req)
	return s.resp, s.err
}

type stubSentiment struct {
	result *advisory.Sentiment
	err    error
	calls  int
}

func (s *stubSentiment) AnalyzeSentiment(ctx context.Context, text string) (*advisory.Sentiment, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func TestSendAppliesResponse(t *testing.T) {
	backend := &stubBackend{resp: &advisory.ChatResponse{Message: "hello back", AdvisorUsed: "budget_planner"}}
	o := NewOrchestrator(backend, nil, nil, nil)

	res, err := o.Send(context.Background(), SendRequest{Text: "hello", AdvisorID: "budget_planner"})
	require.NoError(t, err)
	require.Equal(t, "hello back", res.Message.Content)
	require.Equal(t, session.RoleAssistant, res.Message.Role)
	require.False(t, res.Message.Fallback)

	history := o.Transcript("budget_planner")
	require.Len(t, history, 2)
	require.Equal(t, session.RoleUser, history[0].Role)
	require.Equal(t, "hello", history[0].Content)
	require.Equal(t, "hello back", history[1].Content)
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	o := NewOrchestrator(&stubBackend{}, nil, nil, nil)
	_, err := o.Send(context.Background(), SendRequest{Text: "   "})
	require.True(t, fserrors.IsValidation(err))
	require.Zero(t, len(o.Transcript("")))
}

func TestConcurrentSendsApplyOnlyTheLatest(t *testing.T) {
	backend := newBlockingBackend()
	o := NewOrchestrator(backend, nil, nil, nil)

	type outcome struct {
		res *Result
		err error
	}
	first := make(chan outcome, 1)
	go func() {
		res, err := o.Send(context.Background(), SendRequest{Text: "first", AdvisorID: "a"})
		first <- outcome{res, err}
	}()
	require.Equal(t, "first", <-backend.started)

	// The second send cancels the first; "second" still gets a real reply.
	backend.release("second", "reply two")
	second := make(chan outcome, 1)
	go func() {
		res, err := o.Send(context.Background(), SendRequest{Text: "second", AdvisorID: "a"})
		second <- outcome{res, err}
	}()
	require.Equal(t, "second", <-backend.started)

	got1 := <-first
	require.Error(t, got1.err)
	require.True(t, fserrors.IsDiscarded(got1.err))
	require.Nil(t, got1.res)

	select {
	case got2 := <-second:
		require.NoError(t, got2.err)
		require.Equal(t, "reply two", got2.res.Message.Content)
	case <-time.After(2 * time.Second):
		t.Fatal("second send did not resolve")
	}

	// Exactly one assistant reply lands in the transcript.
	history := o.Transcript("a")
	var assistant []session.Message
	for _, m := range history {
		if m.Role == session.RoleAssistant {
			assistant = append(assistant, m)
		}
	}
	require.Len(t, assistant, 1)
	require.Equal(t, "reply two", assistant[0].Content)
}

func TestBackendFailureProducesFallback(t *testing.T) {
	backend := &stubBackend{err: fserrors.NewBackendError("chat", 503, "upstream down")}
	o := NewOrchestrator(backend, nil, nil, nil)

	res, err := o.Send(context.Background(), SendRequest{Text: "help", AdvisorID: "a"})
	require.NoError(t, err)
	require.True(t, res.Message.Fallback)
	require.Equal(t, FallbackMessage, res.Message.Content)

	history := o.Transcript("a")
	require.Len(t, history, 2)
	require.True(t, history[1].Fallback)
}

func TestSentimentDecoratesResponse(t *testing.T) {
	backend := &stubBackend{resp: &advisory.ChatResponse{Message: "great plan"}}
	sentiment := &stubSentiment{result: &advisory.Sentiment{Sentiment: "positive", Confidence: 0.8}}
	o := NewOrchestrator(backend, sentiment, nil, nil)

	res, err := o.Send(context.Background(), SendRequest{Text: "thanks", AdvisorID: "a"})
	require.NoError(t, err)
	require.Equal(t, "positive", res.Message.Sentiment)
	require.InDelta(t, 0.8, res.Message.Confidence, 1e-9)
	require.Equal(t, 1, sentiment.calls)
}

func TestSentimentFailureIsIgnored(t *testing.T) {
	backend := &stubBackend{resp: &advisory.ChatResponse{Message: "ok"}}
	sentiment := &stubSentiment{err: fserrors.NewNetworkError("timeout", nil)}
	o := NewOrchestrator(backend, sentiment, nil, nil)

	res, err := o.Send(context.Background(), SendRequest{Text: "hi", AdvisorID: "a"})
	require.NoError(t, err)
	require.Empty(t, res.Message.Sentiment)
	require.False(t, res.Message.Fallback)
}

func TestHistoryLengthGrowsWithTranscript(t *testing.T) {
	backend := &stubBackend{resp: &advisory.ChatResponse{Message: "noted"}}
	o := NewOrchestrator(backend, nil, nil, nil)

	_, err := o.Send(context.Background(), SendRequest{Text: "first", AdvisorID: "a"})
	require.NoError(t, err)
	_, err = o.Send(context.Background(), SendRequest{Text: "second", AdvisorID: "a"})
	require.NoError(t, err)

	require.Len(t, backend.requests, 2)
	require.Zero(t, backend.requests[0].HistoryLength)
	// First exchange left a user and an assistant message behind.
	require.Equal(t, 2, backend.requests[1].HistoryLength)

	// History is per advisor, so a different advisor starts from zero.
	_, err = o.Send(context.Background(), SendRequest{Text: "hello", AdvisorID: "b"})
	require.NoError(t, err)
	require.Zero(t, backend.requests[2].HistoryLength)
}

func TestStartDecisionTreeSignalPropagates(t *testing.T) {
	backend := &stubBackend{resp: &advisory.ChatResponse{Message: "let's begin", StartDecisionTree: true}}
	o := NewOrchestrator(backend, nil, nil, nil)

	res, err := o.Send(context.Background(), SendRequest{Text: "start over", AdvisorID: "a"})
	require.NoError(t, err)
	require.True(t, res.StartDecisionTree)
}
