package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"finsage/internal/config"
	fserrors "finsage/internal/errors"
	"finsage/internal/httpclient"
	"finsage/internal/logging"
	"finsage/internal/session"
)

const defaultMaxBodyBytes = 1 << 20

// Client talks to the advisory backend over JSON HTTP. One circuit breaker
// guards all endpoints; during an outage requests fail fast and are never
// retried automatically.
type Client struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	logger       logging.Logger
	maxBodyBytes int64

	fetchTimeout     time.Duration
	chatTimeout      time.Duration
	recommendTimeout time.Duration
	sentimentTimeout time.Duration
}

// NewClient builds a backend client from configuration.
func NewClient(cfg config.BackendConfig, logger logging.Logger) *Client {
	logger = logging.OrNop(logger)
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	// The outer client timeout is the longest per-call budget; individual
	// calls tighten it with their own context deadline.
	longest := cfg.RecommendTimeout
	for _, d := range []time.Duration{cfg.FetchTimeout, cfg.ChatTimeout, cfg.SentimentTimeout} {
		if d > longest {
			longest = d
		}
	}
	return &Client{
		baseURL:          strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:           cfg.APIKey,
		httpClient:       httpclient.NewWithCircuitBreaker(longest, logger, "advisory-backend"),
		logger:           logger,
		maxBodyBytes:     maxBody,
		fetchTimeout:     cfg.FetchTimeout,
		chatTimeout:      cfg.ChatTimeout,
		recommendTimeout: cfg.RecommendTimeout,
		sentimentTimeout: cfg.SentimentTimeout,
	}
}

// FetchOptions requests the next question/options for the given path.
func (c *Client) FetchOptions(ctx context.Context, req OptionsRequest) (*OptionsResponse, error) {
	if req.AdvisorID == "" {
		return nil, fserrors.NewValidationError("advisorId", "must not be empty")
	}
	if req.Step < 0 {
		return nil, fserrors.NewValidationError("step", "must not be negative")
	}
	if req.Path == nil {
		req.Path = []session.Step{}
	}
	var out OptionsResponse
	if err := c.post(ctx, "decision-options", "/decision-tree/options", c.fetchTimeout, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateRecommendation requests the final recommendation for a finished path.
func (c *Client) GenerateRecommendation(ctx context.Context, req RecommendationRequest) (*Recommendation, error) {
	if req.AdvisorID == "" {
		return nil, fserrors.NewValidationError("advisorId", "must not be empty")
	}
	if len(req.Path) == 0 {
		return nil, fserrors.NewValidationError("path", "must not be empty")
	}
	var out Recommendation
	if err := c.post(ctx, "recommendation", "/decision-tree/recommendation", c.recommendTimeout, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendChat delivers one freeform message and returns the backend's reply.
func (c *Client) SendChat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, fserrors.NewValidationError("message", "must not be empty")
	}
	var out ChatResponse
	if err := c.post(ctx, "chat-send", "/chat", c.chatTimeout, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AnalyzeSentiment scores a text. Callers treat failures as missing
// metadata, never as a hard error.
func (c *Client) AnalyzeSentiment(ctx context.Context, text string) (*Sentiment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fserrors.NewValidationError("text", "must not be empty")
	}
	var out Sentiment
	if err := c.post(ctx, "sentiment", "/sentiment", c.sentimentTimeout, SentimentRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// post sends a JSON POST and decodes the JSON response, classifying
// failures into the engine's error taxonomy.
func (c *Client) post(ctx context.Context, op, path string, timeout time.Duration, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", op, err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Superseded request; upstream discards it silently.
			return err
		}
		return fserrors.NewNetworkError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := httpclient.ReadAllWithLimit(resp.Body, c.maxBodyBytes)
	if err != nil {
		return fserrors.NewNetworkError(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fserrors.NewBackendError(op, resp.StatusCode, extractErrorMessage(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Error("Failed to decode %s response: %v", op, err)
		return fserrors.NewBackendError(op, resp.StatusCode, "malformed response body")
	}
	return nil
}

// extractErrorMessage pulls a human-readable message out of an error body.
func extractErrorMessage(data []byte) string {
	var body struct {
		Error   string `json:"error"`
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		for _, msg := range []string{body.Error, body.Detail, body.Message} {
			if msg != "" {
				return msg
			}
		}
	}
	trimmed := strings.TrimSpace(string(data))
	if len(trimmed) > 200 {
		trimmed = trimmed[:200]
	}
	return trimmed
}
