// Package recommend turns a finished decision path into the final
// recommendation.
package recommend

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"finsage/internal/advisory"
	"finsage/internal/logging"
	"finsage/internal/observability"
	"finsage/internal/profile"
	"finsage/internal/session"
)

// Generator is the behaviour required from the recommendation backend.
type Generator interface {
	GenerateRecommendation(ctx context.Context, req advisory.RecommendationRequest) (*advisory.Recommendation, error)
}

// Synthesizer calls the recommendation backend at most once per advisor at a
// time: concurrent calls for the same advisor coalesce onto the in-flight
// request instead of running twice.
type Synthesizer struct {
	backend Generator
	logger  logging.Logger
	metrics *observability.Metrics
	group   singleflight.Group
}

// NewSynthesizer builds a synthesizer around the backend client.
func NewSynthesizer(backend Generator, logger logging.Logger, metrics *observability.Metrics) *Synthesizer {
	return &Synthesizer{
		backend: backend,
		logger:  logging.OrNop(logger),
		metrics: metrics,
	}
}

// Generate requests the final recommendation. On failure the caller keeps
// its path and may retry through another explicit user action.
func (s *Synthesizer) Generate(ctx context.Context, advisorID string, path []session.Step, prof *profile.Profile) (*advisory.Recommendation, error) {
	start := time.Now()
	result, err, shared := s.group.Do(advisorID, func() (any, error) {
		return s.backend.GenerateRecommendation(ctx, advisory.RecommendationRequest{
			AdvisorID: advisorID,
			Path:      path,
			Profile:   prof,
		})
	})
	if shared {
		s.logger.Debug("recommendation call for %s coalesced onto in-flight request", advisorID)
	}
	s.metrics.ObserveRecommendation(time.Since(start), err == nil)
	if err != nil {
		s.logger.Warn("recommendation generation failed for %s: %v", advisorID, err)
		return nil, err
	}
	return result.(*advisory.Recommendation), nil
}
