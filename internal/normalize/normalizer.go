// Package normalize reduces raw prediction responses to AnalysisResult values.
package normalize

import (
	"fmt"
	"math"
	"strings"

	"github.com/phishlens/internal/backend"
	"github.com/phishlens/internal/consistency"
	"github.com/phishlens/internal/domain"
	"go.uber.org/zap"
)

// Risk level upper bounds, inclusive.
const (
	LowRiskMax    = 30.0
	MediumRiskMax = 60.0
)

// RiskPercentage maps a verdict and its confidence onto one
// phishing-oriented axis, rounded to one decimal.
func RiskPercentage(c domain.Classification, confidence float64) float64 {
	pct := confidence * 100
	if c == domain.ClassificationLegitimate {
		pct = 100 - pct
	}
	return math.Round(pct*10) / 10
}

// RiskLevelFor bands a risk percentage.
func RiskLevelFor(pct float64) domain.RiskLevel {
	switch {
	case pct <= LowRiskMax:
		return domain.RiskLow
	case pct <= MediumRiskMax:
		return domain.RiskMedium
	default:
		return domain.RiskHigh
	}
}

// Normalizer converts backend responses into results and flags anomalies.
type Normalizer struct {
	engine *consistency.Engine
	logger *zap.Logger
}

// New creates a Normalizer.
func New(engine *consistency.Engine, logger *zap.Logger) *Normalizer {
	return &Normalizer{
		engine: engine,
		logger: logger.Named("normalizer"),
	}
}

// Normalize builds the result for a response to a request made in mode.
// It fails with a *domain.NormalizationError when the verdict or its
// confidence is missing or invalid. Anything else is optional.
func (n *Normalizer) Normalize(mode domain.AnalysisMode, raw *backend.Response) (*domain.AnalysisResult, error) {
	if raw == nil {
		return nil, &domain.NormalizationError{Field: "response", Reason: "empty response"}
	}

	label, ok := raw.Label()
	if !ok {
		return nil, &domain.NormalizationError{Field: "classification", Reason: "missing"}
	}
	class, ok := domain.ParseClassification(label)
	if !ok {
		return nil, &domain.NormalizationError{Field: "classification", Reason: fmt.Sprintf("unknown label %q", label)}
	}

	if raw.Confidence == nil {
		return nil, &domain.NormalizationError{Field: "confidence", Reason: "missing"}
	}
	conf := *raw.Confidence
	if math.IsNaN(conf) || conf < 0 || conf > 1 {
		return nil, &domain.NormalizationError{Field: "confidence", Reason: fmt.Sprintf("%v is outside 0-1", conf)}
	}

	risk := RiskPercentage(class, conf)
	result := &domain.AnalysisResult{
		Mode:                mode,
		Classification:      class,
		Confidence:          conf,
		RiskPercentage:      risk,
		RiskLevel:           RiskLevelFor(risk),
		ClassifierBreakdown: breakdown(mode, raw.Classifiers),
		Indicators:          indicators(raw),
		IndicatorScores:     scores(raw.Scores),
	}

	if n.engine != nil {
		result.Inconsistencies = n.engine.Evaluate(consistency.Input{
			RequestMode: mode,
			Response:    raw,
			Result:      result,
		})
	}

	n.logger.Debug("response normalized",
		zap.String("classification", string(result.Classification)),
		zap.Float64("risk_percentage", result.RiskPercentage),
		zap.String("risk_level", string(result.RiskLevel)),
		zap.Int("indicators", len(result.Indicators)),
		zap.Int("inconsistencies", len(result.Inconsistencies)),
	)

	return result, nil
}

func breakdown(mode domain.AnalysisMode, c *backend.Classifiers) domain.Optional[domain.ClassifierBreakdown] {
	if mode != domain.ModeFullEmail || c == nil || c.Content == nil {
		return domain.None[domain.ClassifierBreakdown]()
	}
	bd := domain.ClassifierBreakdown{}
	for role, s := range map[domain.ClassifierRole]*backend.SubClassifier{
		domain.RoleContent: c.Content,
		domain.RoleURL:     c.URL,
	} {
		if o, ok := outcome(s); ok {
			bd[role] = o
		}
	}
	return domain.Some(bd)
}

// outcome maps an explicit "N/A" to not-applicable. An absent classifier or
// one with a missing or unusable field yields no entry at all.
func outcome(s *backend.SubClassifier) (domain.ClassifierOutcome, bool) {
	if s == nil {
		return domain.ClassifierOutcome{}, false
	}
	if s.NotApplicable() {
		return domain.NotApplicable(), true
	}
	if s.Prediction == nil || !s.Confidence.Set {
		return domain.ClassifierOutcome{}, false
	}
	conf := s.Confidence.Value
	if math.IsNaN(conf) || conf < 0 || conf > 1 {
		return domain.ClassifierOutcome{}, false
	}
	return domain.NewOutcome(strings.ToLower(strings.TrimSpace(*s.Prediction)), conf), true
}

func indicators(raw *backend.Response) domain.IndicatorSet {
	set := domain.IndicatorSet{}

	var in backend.Indicators
	if raw.Indicators != nil {
		in = *raw.Indicators
	}
	var legacy backend.Features
	if raw.Features != nil {
		legacy = *raw.Features
	}

	if kw := firstNonEmpty(in.SuspiciousKeywords, legacy.SuspiciousKeywords); len(kw) > 0 {
		set[domain.CategoryKeywords] = domain.KeywordsIndicator{Keywords: kw}
	}

	if urls := firstNonEmpty(in.SuspiciousURLs, legacy.URLs); len(urls) > 0 {
		set[domain.CategoryURLs] = domain.URLsIndicator{URLs: urls}
	}

	if sm := in.SenderMismatch; sm != nil && sm.Detected {
		set[domain.CategorySenderMismatch] = domain.SenderMismatchIndicator{
			FromDomain:    sm.FromDomain,
			ReplyToDomain: sm.ReplyToDomain,
		}
	}

	features := in.URLFeatures
	if features.IsEmpty() {
		features = raw.URLFeatures
	}
	if !features.IsEmpty() {
		set[domain.CategoryURLFeatures] = domain.URLFeaturesIndicator{
			Domain:        features.Domain,
			NoHTTPS:       features.NoHTTPS,
			SuspiciousTLD: features.SuspiciousTLD,
			HasIPAddress:  features.HasIPAddress,
			URLShortener:  features.URLShortener,
		}
	}

	return set
}

func firstNonEmpty(lists ...[]string) []string {
	for _, l := range lists {
		var kept []string
		for _, s := range l {
			if s = strings.TrimSpace(s); s != "" {
				kept = append(kept, s)
			}
		}
		if len(kept) > 0 {
			return kept
		}
	}
	return nil
}

func scores(s *backend.Scores) domain.IndicatorScores {
	out := domain.IndicatorScores{}
	if s == nil {
		return out
	}
	if s.Keywords != nil {
		out[domain.ScoreKeywords] = *s.Keywords
	}
	if s.URL != nil {
		out[domain.ScoreURL] = *s.URL
	}
	if s.Header != nil {
		out[domain.ScoreHeader] = *s.Header
	}
	return out
}
