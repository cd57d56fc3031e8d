// Package service contains the business logic layer.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/phishlens/internal/backend"
	"github.com/phishlens/internal/domain"
	"github.com/phishlens/internal/normalize"
	"github.com/phishlens/internal/request"
	"github.com/phishlens/pkg/sanitizer"
	"go.uber.org/zap"
)

// Dashboard orchestrates one analysis at a time and holds the result
// currently on display.
type Dashboard struct {
	client     backend.Client
	normalizer *normalize.Normalizer
	sanitizer  *sanitizer.Sanitizer
	busy       BusyFlag
	logger     *zap.Logger

	mu      sync.RWMutex
	mode    domain.AnalysisMode
	current *domain.AnalysisResult
	updated time.Time
}

// DashboardConfig contains configuration for the Dashboard.
type DashboardConfig struct {
	DefaultMode domain.AnalysisMode
}

// Status is a snapshot of the dashboard state.
type Status struct {
	Mode      domain.AnalysisMode `json:"mode" yaml:"mode"`
	Busy      bool                `json:"busy" yaml:"busy"`
	HasResult bool                `json:"has_result" yaml:"has_result"`
	UpdatedAt *time.Time          `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// NewDashboard creates a new Dashboard with all dependencies.
func NewDashboard(
	client backend.Client,
	normalizer *normalize.Normalizer,
	sanitizer *sanitizer.Sanitizer,
	config DashboardConfig,
	logger *zap.Logger,
) *Dashboard {
	mode := config.DefaultMode
	if !mode.IsValid() {
		mode = domain.ModeFullEmail
	}
	return &Dashboard{
		client:     client,
		normalizer: normalizer,
		sanitizer:  sanitizer,
		mode:       mode,
		logger:     logger.Named("dashboard"),
	}
}

// Analyze runs one analysis for form in mode:
// 1. Reject the trigger if one is already in flight
// 2. Clear the displayed result
// 3. Build and validate the request
// 4. Send it to the backend, exactly once
// 5. Normalize and display the result
//
// Exactly one of the return values is non-nil. The busy flag is released
// on every path. A result whose mode was switched away while in flight is
// returned but not kept as Current.
func (d *Dashboard) Analyze(ctx context.Context, mode domain.AnalysisMode, form request.FormFields) (*domain.AnalysisResult, error) {
	if !d.busy.TryAcquire() {
		d.logger.Debug("analysis rejected, already busy", zap.String("mode", string(mode)))
		return nil, domain.ErrBusy
	}
	defer d.busy.Release()

	startTime := time.Now()

	d.mu.Lock()
	if mode.IsValid() {
		d.mode = mode
	}
	d.current = nil
	d.updated = startTime
	d.mu.Unlock()

	req, err := request.Build(mode, form)
	if err != nil {
		d.logger.Debug("analysis input rejected", zap.Error(err))
		return nil, err
	}

	d.logRequest(req)

	raw, err := d.client.Predict(ctx, req)
	if err != nil {
		d.logger.Error("prediction request failed",
			zap.Error(err),
			zap.String("mode", string(mode)),
			zap.Duration("duration", time.Since(startTime)),
		)
		return nil, err
	}

	result, err := d.normalizer.Normalize(mode, raw)
	if err != nil {
		d.logger.Error("prediction response unusable",
			zap.Error(err),
			zap.String("mode", string(mode)),
		)
		return nil, err
	}

	d.mu.Lock()
	if d.mode == mode {
		d.current = result
		d.updated = time.Now()
	} else {
		d.logger.Info("mode changed during analysis, result not displayed",
			zap.String("requested_mode", string(mode)),
			zap.String("current_mode", string(d.mode)),
		)
	}
	d.mu.Unlock()

	d.logger.Info("analysis completed",
		zap.String("mode", string(mode)),
		zap.String("classification", string(result.Classification)),
		zap.Float64("risk_percentage", result.RiskPercentage),
		zap.String("risk_level", string(result.RiskLevel)),
		zap.Int("inconsistencies", len(result.Inconsistencies)),
		zap.Duration("duration", time.Since(startTime)),
	)

	return result, nil
}

func (d *Dashboard) logRequest(req domain.AnalysisRequest) {
	if ce := d.logger.Check(zap.DebugLevel, "sending analysis request"); ce != nil {
		fields := []zap.Field{zap.String("mode", string(req.Mode()))}
		switch r := req.(type) {
		case domain.FullEmailRequest:
			preview, stats := d.sanitizer.PreviewWithStats(r.EmailBody)
			fields = append(fields,
				zap.String("body_preview", preview),
				zap.Int("body_length", stats.OriginalSize),
				zap.Int("sensitive_matches", stats.Matches),
				zap.Bool("headers", r.Headers != nil),
			)
		case domain.URLOnlyRequest:
			fields = append(fields, zap.String("url", d.sanitizer.Preview(r.URL)))
		}
		ce.Write(fields...)
	}
}

// SetMode switches the analysis mode. Switching clears the displayed result.
func (d *Dashboard) SetMode(mode domain.AnalysisMode) error {
	if !mode.IsValid() {
		return &domain.ValidationError{Field: "mode", Reason: "unknown analysis mode " + string(mode)}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.mode != mode {
		d.logger.Debug("mode switched", zap.String("from", string(d.mode)), zap.String("to", string(mode)))
		d.mode = mode
		d.current = nil
		d.updated = time.Now()
	}
	return nil
}

// Mode returns the selected analysis mode.
func (d *Dashboard) Mode() domain.AnalysisMode {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.mode
}

// Current returns the displayed result, if any.
func (d *Dashboard) Current() (*domain.AnalysisResult, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.current, d.current != nil
}

// Status returns a snapshot of the dashboard state.
func (d *Dashboard) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s := Status{
		Mode:      d.mode,
		Busy:      d.busy.IsBusy(),
		HasResult: d.current != nil,
	}
	if !d.updated.IsZero() {
		t := d.updated
		s.UpdatedAt = &t
	}
	return s
}

// Ready checks that the prediction backend is reachable.
func (d *Dashboard) Ready(ctx context.Context) error {
	return d.client.HealthCheck(ctx)
}
