package backend

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/phishlens/internal/domain"
	"go.uber.org/zap"
)

// MockClient implements Client with canned responses for offline use.
type MockClient struct {
	logger *zap.Logger
}

// NewMockClient creates a new mock backend client.
func NewMockClient(logger *zap.Logger) *MockClient {
	return &MockClient{
		logger: logger.Named("mock_backend_client"),
	}
}

// Predict returns a simulated response shaped like the real backend's.
func (c *MockClient) Predict(ctx context.Context, req domain.AnalysisRequest) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.WrapTransport("http_request", 0, err)
	}

	c.logger.Debug("mock prediction", zap.String("mode", string(req.Mode())))

	switch r := req.(type) {
	case domain.FullEmailRequest:
		return mockFullEmail(r), nil
	case domain.URLOnlyRequest:
		return mockURLOnly(r), nil
	default:
		return nil, domain.WrapTransport("resolve_endpoint", 0, errUnknownRequest)
	}
}

// HealthCheck always returns success for mock client.
func (c *MockClient) HealthCheck(ctx context.Context) error {
	return nil
}

var errUnknownRequest = errors.New("unsupported request type")

var mockKeywords = []string{"urgent", "verify", "suspended", "password", "click here"}

func mockFullEmail(r domain.FullEmailRequest) *Response {
	lower := strings.ToLower(r.EmailBody)

	var found []string
	for _, kw := range mockKeywords {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
		}
	}

	label := "legitimate"
	conf := 0.9
	risk := 10.0
	kwScore := 0.0
	if len(found) > 0 {
		label = "phishing"
		conf = 0.82
		risk = 82
		kwScore = float64(min(len(found)*15, 100))
	}

	return &Response{
		Prediction:     &label,
		Confidence:     &conf,
		Mode:           strPtr("full_email"),
		RiskPercentage: &risk,
		Classifiers: &Classifiers{
			Content: &SubClassifier{Prediction: &label, Confidence: Confidence{Value: conf, Set: true}},
			URL:     &SubClassifier{Prediction: strPtr("N/A"), Confidence: Confidence{Value: 0, Set: true}},
		},
		Indicators: &Indicators{SuspiciousKeywords: found},
		Scores:     &Scores{Keywords: &kwScore, URL: floatPtr(0), Header: floatPtr(0)},
	}
}

func mockURLOnly(r domain.URLOnlyRequest) *Response {
	features := &URLFeatures{
		Domain:  r.URL,
		NoHTTPS: !strings.HasPrefix(strings.ToLower(r.URL), "https://"),
	}
	if u, err := url.Parse(r.URL); err == nil && u.Hostname() != "" {
		features.Domain = u.Hostname()
	}

	label := "legitimate"
	conf := 0.95
	risk := 5.0
	urlScore := 0.0
	if features.NoHTTPS {
		label = "phishing"
		conf = 0.7
		risk = 70
		urlScore = 20
	}

	return &Response{
		Prediction:     &label,
		Confidence:     &conf,
		Mode:           strPtr("url_only"),
		RiskPercentage: &risk,
		URLFeatures:    features,
		Scores:         &Scores{URL: &urlScore},
	}
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }
