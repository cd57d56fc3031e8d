// Package backend provides the prediction backend client interface and implementations.
package backend

import (
	"context"

	"github.com/phishlens/internal/domain"
)

// Client defines the interface for prediction backend interactions.
type Client interface {
	// Predict performs exactly one exchange for req and returns the decoded
	// body unmodified. Every failure is a *domain.TransportError.
	Predict(ctx context.Context, req domain.AnalysisRequest) (*Response, error)

	// HealthCheck verifies the backend is reachable.
	HealthCheck(ctx context.Context) error
}

// Endpoint returns the backend path serving mode.
func Endpoint(mode domain.AnalysisMode) (string, bool) {
	switch mode {
	case domain.ModeFullEmail:
		return "/predict/full-email", true
	case domain.ModeURLOnly:
		return "/predict/url-only", true
	default:
		return "", false
	}
}
