package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	fserrors "finsage/internal/errors"
)

type selectAdvisorRequest struct {
	AdvisorID string `json:"advisorId" binding:"required"`
}

type selectOptionRequest struct {
	OptionIndex *int `json:"optionIndex" binding:"required"`
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

type financialsRequest struct {
	CurrentSavings *float64 `json:"currentSavings"`
	MonthlyIncome  *float64 `json:"monthlyIncome"`
	TargetAmount   *float64 `json:"targetAmount"`
	Timeframe      string   `json:"timeframe"`
}

type dismissRequest struct {
	ID string `json:"id" binding:"required"`
}

func (s *Server) handleListAdvisors(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"advisors": s.catalog.List()})
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, s.controller.State())
}

func (s *Server) handleSelectAdvisor(c *gin.Context) {
	var req selectAdvisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "advisorId is required"})
		return
	}
	if err := s.controller.SelectAdvisor(c.Request.Context(), req.AdvisorID); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.controller.State())
}

func (s *Server) handleSelectOption(c *gin.Context) {
	var req selectOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OptionIndex == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "optionIndex is required"})
		return
	}
	if err := s.controller.SelectOption(c.Request.Context(), *req.OptionIndex); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.controller.State())
}

func (s *Server) handleRetry(c *gin.Context) {
	if err := s.controller.RetryFetch(c.Request.Context()); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.controller.State())
}

// handleChat never returns a transport-level error: backend failures arrive
// as fallback messages and superseded sends are reported, not failed.
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	result, err := s.controller.SendMessage(c.Request.Context(), req.Message)
	switch {
	case fserrors.IsDiscarded(err):
		c.JSON(http.StatusOK, gin.H{"superseded": true})
	case fserrors.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		s.renderError(c, err)
	default:
		c.JSON(http.StatusOK, gin.H{
			"message":           result.Message,
			"startDecisionTree": result.StartDecisionTree,
		})
	}
}

func (s *Server) handleReport(c *gin.Context) {
	report := s.controller.RequestReport(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"report": report})
}

func (s *Server) handleRestart(c *gin.Context) {
	s.controller.Restart()
	c.JSON(http.StatusOK, s.controller.State())
}

func (s *Server) handleUpdateFinancials(c *gin.Context) {
	var req financialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	savings, income, target := -1.0, -1.0, -1.0
	if req.CurrentSavings != nil {
		savings = *req.CurrentSavings
	}
	if req.MonthlyIncome != nil {
		income = *req.MonthlyIncome
	}
	if req.TargetAmount != nil {
		target = *req.TargetAmount
	}
	unlocked := s.controller.UpdateFinancials(c.Request.Context(), savings, income, target, req.Timeframe)
	c.JSON(http.StatusOK, gin.H{
		"profile":  s.controller.State().Profile,
		"unlocked": unlocked,
	})
}

func (s *Server) handleDismissAchievement(c *gin.Context) {
	var req dismissRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}
	s.controller.DismissAchievement(req.ID)
	c.JSON(http.StatusOK, gin.H{"pending": s.controller.PendingAchievements()})
}

// renderError maps the error taxonomy onto HTTP statuses. Invalid state
// transitions are ignored no-ops so a stale or double-clicking client never
// sees a failure for them.
func (s *Server) renderError(c *gin.Context, err error) {
	switch {
	case fserrors.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case fserrors.IsState(err):
		s.logger.Debug("ignored invalid transition: %v", err)
		c.JSON(http.StatusOK, gin.H{"ignored": true, "state": s.controller.State()})
	case fserrors.IsNetwork(err) || fserrors.IsBackend(err):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":     err.Error(),
			"retryable": fserrors.IsRetryable(err),
		})
	default:
		s.logger.Error("unclassified handler error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
