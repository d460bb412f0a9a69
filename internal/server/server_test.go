package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"finsage/internal/achievement"
	"finsage/internal/advisory"
	"finsage/internal/chat"
	"finsage/internal/config"
	"finsage/internal/decision"
	"finsage/internal/engine"
	fserrors "finsage/internal/errors"
	"finsage/internal/identity"
	"finsage/internal/profile"
	"finsage/internal/recommend"
)

type fakeBackend struct {
	fetchErr error
	chatErr  error
}

func (f *fakeBackend) FetchOptions(ctx context.Context, req advisory.OptionsRequest) (*advisory.OptionsResponse, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if req.Step >= 4 {
		return &advisory.OptionsResponse{ShouldGenerateRecommendation: true}, nil
	}
	return &advisory.OptionsResponse{
		Question: "How stable is your income?",
		Options: []advisory.Option{
			{ID: "stable", Text: "Very stable", Value: "stable"},
			{ID: "variable", Text: "It varies", Value: "variable"},
		},
	}, nil
}

func (f *fakeBackend) GenerateRecommendation(ctx context.Context, req advisory.RecommendationRequest) (*advisory.Recommendation, error) {
	return &advisory.Recommendation{Summary: "keep three months of expenses aside", Steps: []string{"open a savings account"}}, nil
}

func (f *fakeBackend) SendChat(ctx context.Context, req advisory.ChatRequest) (*advisory.ChatResponse, error) {
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	return &advisory.ChatResponse{Message: "happy to help"}, nil
}

func newTestServer(t *testing.T) (*Server, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{}
	ctrl, err := engine.NewController(context.Background(), engine.Options{
		Provider:     decision.NewProvider(backend, nil, nil),
		Synthesizer:  recommend.NewSynthesizer(backend, nil, nil),
		Chat:         chat.NewOrchestrator(backend, nil, nil, nil),
		Achievements: achievement.NewEngine(nil, nil),
		Store:        profile.NewInMemoryStore(),
		Identity:     identity.ForUser("http-test"),
	})
	require.NoError(t, err)

	srv := New(config.ServerConfig{ListenAddr: ":0"}, ctrl, nil, nil, prometheus.NewRegistry())
	return srv, backend
}

func do(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestListAdvisors(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/api/v1/advisors", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "budget_planner")
	require.Contains(t, rec.Body.String(), "optimization_advisor")
}

func TestSelectAdvisorFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/v1/session/advisor", h{"advisorId": "budget_planner"})
	require.Equal(t, http.StatusOK, rec.Code)

	var state engine.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	require.Equal(t, "budget_planner", state.AdvisorID)
	require.Equal(t, "How stable is your income?", state.Question)
	require.Len(t, state.Options, 2)
}

func TestSelectAdvisorValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/v1/session/advisor", h{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/v1/session/advisor", h{"advisorId": "nope"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOptionOutOfRangeIsBadRequest(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, srv, http.MethodPost, "/api/v1/session/advisor", h{"advisorId": "budget_planner"})

	rec := do(t, srv, http.MethodPost, "/api/v1/session/option", h{"optionIndex": 99})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSelectWithoutQuestionIsIgnoredNoOp(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/v1/session/option", h{"optionIndex": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"ignored":true`)
}

func TestBackendFailureMapsToBadGateway(t *testing.T) {
	srv, backend := newTestServer(t)
	backend.fetchErr = fserrors.NewBackendError("options", 503, "down")

	rec := do(t, srv, http.MethodPost, "/api/v1/session/advisor", h{"advisorId": "budget_planner"})
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Contains(t, rec.Body.String(), `"retryable":true`)
}

func TestFullSessionOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, srv, http.MethodPost, "/api/v1/session/advisor", h{"advisorId": "budget_planner"})

	for i := 0; i < 4; i++ {
		rec := do(t, srv, http.MethodPost, "/api/v1/session/option", h{"optionIndex": 0})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	var state engine.Snapshot
	rec := do(t, srv, http.MethodGet, "/api/v1/session/state", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	require.True(t, state.Terminal)
	require.NotNil(t, state.Report)
	require.Equal(t, 100, state.Progress)
}

func TestChatDegradesToFallbackOverHTTP(t *testing.T) {
	srv, backend := newTestServer(t)
	backend.chatErr = fserrors.NewNetworkError("chat", nil)

	rec := do(t, srv, http.MethodPost, "/api/v1/session/chat", h{"message": "help me save"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"fallback":true`)
}

func TestRestartEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, srv, http.MethodPost, "/api/v1/session/advisor", h{"advisorId": "budget_planner"})
	do(t, srv, http.MethodPost, "/api/v1/session/option", h{"optionIndex": 0})

	rec := do(t, srv, http.MethodPost, "/api/v1/session/restart", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var state engine.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	require.Empty(t, state.Path)
	require.Equal(t, 50, state.Progress)
}

func TestFinancialsAndAchievements(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/v1/profile/financials", h{"currentSavings": 2500.0})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "savings_1000")

	var payload struct {
		Unlocked []achievement.Notification `json:"unlocked"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Unlocked, 1)

	rec = do(t, srv, http.MethodPost, "/api/v1/achievements/dismiss", h{"id": payload.Unlocked[0].ID})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "savings_1000")
}

func TestMetricsEndpointExposed(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

// h mirrors gin.H for request bodies.
type h = map[string]any
