// Package handler contains HTTP handlers for the API.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phishlens/internal/domain"
	"github.com/phishlens/internal/present"
	"github.com/phishlens/internal/request"
	"github.com/phishlens/internal/service"
	"go.uber.org/zap"
)

// Envelope is the body of every dashboard API response.
type Envelope struct {
	Success     bool                   `json:"success"`
	Mode        domain.AnalysisMode    `json:"mode,omitempty"`
	Result      *domain.AnalysisResult `json:"result,omitempty"`
	View        *present.View          `json:"view,omitempty"`
	Status      *service.Status        `json:"status,omitempty"`
	Stale       bool                   `json:"stale,omitempty"`
	Error       string                 `json:"error,omitempty"`
	RequestID   string                 `json:"request_id,omitempty"`
	ProcessedAt time.Time              `json:"processed_at"`
}

// DashboardHandler serves the analysis dashboard API.
type DashboardHandler struct {
	dashboard *service.Dashboard
	logger    *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboard *service.Dashboard, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		logger:    logger.Named("dashboard_handler"),
	}
}

// AnalyzeFullEmail processes POST /api/v1/analyze/full-email requests.
func (h *DashboardHandler) AnalyzeFullEmail(c *gin.Context) {
	h.analyze(c, domain.ModeFullEmail)
}

// AnalyzeURLOnly processes POST /api/v1/analyze/url-only requests.
func (h *DashboardHandler) AnalyzeURLOnly(c *gin.Context) {
	h.analyze(c, domain.ModeURLOnly)
}

func (h *DashboardHandler) analyze(c *gin.Context, mode domain.AnalysisMode) {
	startTime := time.Now()
	requestID := c.GetString(requestIDKey)
	logger := h.logger.With(zap.String("request_id", requestID), zap.String("mode", string(mode)))
	logger.Debug("received analysis request")

	var form request.FormFields
	if err := c.ShouldBindJSON(&form); err != nil {
		logger.Warn("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, Envelope{
			Mode:        mode,
			Error:       "Invalid request body.",
			RequestID:   requestID,
			ProcessedAt: time.Now(),
		})
		return
	}

	// A sent request runs to completion even if the caller goes away.
	result, err := h.dashboard.Analyze(context.WithoutCancel(c.Request.Context()), mode, form)
	if err != nil {
		status := StatusFor(err)
		logger.Info("analysis failed",
			zap.Error(err),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(startTime)),
		)
		c.JSON(status, Envelope{
			Mode:        mode,
			Error:       domain.UserMessage(err),
			RequestID:   requestID,
			ProcessedAt: time.Now(),
		})
		return
	}

	// The mode was switched while the request was in flight, so the
	// dashboard did not keep this result as its current one.
	current, _ := h.dashboard.Current()
	stale := current != result
	if stale {
		logger.Info("returning result not kept as current")
	}

	view := present.Bind(result)
	c.JSON(http.StatusOK, Envelope{
		Success:     true,
		Mode:        mode,
		Result:      result,
		View:        &view,
		Stale:       stale,
		RequestID:   requestID,
		ProcessedAt: time.Now(),
	})
}

// SetMode processes PUT /api/v1/mode requests.
func (h *DashboardHandler) SetMode(c *gin.Context) {
	requestID := c.GetString(requestIDKey)

	var body struct {
		Mode string `json:"mode"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Envelope{
			Error:       "Invalid request body.",
			RequestID:   requestID,
			ProcessedAt: time.Now(),
		})
		return
	}

	mode, err := domain.ParseMode(body.Mode)
	if err == nil {
		err = h.dashboard.SetMode(mode)
	}
	if err != nil {
		c.JSON(StatusFor(err), Envelope{
			Error:       "Unknown analysis mode.",
			RequestID:   requestID,
			ProcessedAt: time.Now(),
		})
		return
	}

	status := h.dashboard.Status()
	c.JSON(http.StatusOK, Envelope{
		Success:     true,
		Mode:        status.Mode,
		Status:      &status,
		RequestID:   requestID,
		ProcessedAt: time.Now(),
	})
}

// Status processes GET /api/v1/status requests.
func (h *DashboardHandler) Status(c *gin.Context) {
	status := h.dashboard.Status()
	c.JSON(http.StatusOK, Envelope{
		Success:     true,
		Mode:        status.Mode,
		Status:      &status,
		RequestID:   c.GetString(requestIDKey),
		ProcessedAt: time.Now(),
	})
}

// Result processes GET /api/v1/result requests.
func (h *DashboardHandler) Result(c *gin.Context) {
	requestID := c.GetString(requestIDKey)

	result, ok := h.dashboard.Current()
	if !ok {
		c.JSON(http.StatusNotFound, Envelope{
			Mode:        h.dashboard.Mode(),
			Error:       "No analysis result to display.",
			RequestID:   requestID,
			ProcessedAt: time.Now(),
		})
		return
	}

	view := present.Bind(result)
	c.JSON(http.StatusOK, Envelope{
		Success:     true,
		Mode:        result.Mode,
		Result:      result,
		View:        &view,
		RequestID:   requestID,
		ProcessedAt: time.Now(),
	})
}

// StatusFor maps an analysis error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, domain.ErrTransport), errors.Is(err, domain.ErrNormalization):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		logger: logger.Named("health_handler"),
	}
}

// Handle processes GET /health requests.
func (h *HealthHandler) Handle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// ReadyHandler handles readiness check requests.
type ReadyHandler struct {
	dashboard *service.Dashboard
	timeout   time.Duration
	logger    *zap.Logger
}

// NewReadyHandler creates a new ReadyHandler.
func NewReadyHandler(dashboard *service.Dashboard, logger *zap.Logger) *ReadyHandler {
	return &ReadyHandler{
		dashboard: dashboard,
		timeout:   5 * time.Second,
		logger:    logger.Named("ready_handler"),
	}
}

// Handle processes GET /ready requests.
func (h *ReadyHandler) Handle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if err := h.dashboard.Ready(ctx); err != nil {
		h.logger.Warn("prediction backend not ready", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  domain.UserMessage(err),
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
