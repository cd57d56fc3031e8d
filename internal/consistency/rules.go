// Package consistency provides the rules that flag anomalies in a
// normalized prediction instead of rendering them silently.
package consistency

import (
	"fmt"
	"math"

	"github.com/phishlens/internal/backend"
	"github.com/phishlens/internal/domain"
)

// MaxRiskDrift is how far the backend's own risk_percentage may stray
// from the derived value before it is flagged. The backend truncates.
const MaxRiskDrift = 1.0

// Input is what a rule looks at.
type Input struct {
	// RequestMode is the mode of the request that produced Response.
	RequestMode domain.AnalysisMode

	// Response is the raw backend response.
	Response *backend.Response

	// Result is the normalized result, without inconsistencies.
	Result *domain.AnalysisResult
}

// Rule represents a single consistency check.
type Rule struct {
	// ID is the unique identifier for this rule.
	ID string

	// Name is a human-readable name for the rule.
	Name string

	// Description explains what this rule detects.
	Description string

	// Check returns one message per offending subject.
	Check func(in Input) []Finding
}

// Finding is a rule hit before it is stamped with the rule ID.
type Finding struct {
	Subject string
	Message string
}

// DefaultRules returns the built-in set of consistency rules.
func DefaultRules() []*Rule {
	return []*Rule{
		scoreWithoutIndicator(),
		scoreOutOfRange(),
		riskDrift(),
		modeMismatch(),
		urlClassifierWithoutEvidence(),
	}
}

func scoreWithoutIndicator() *Rule {
	return &Rule{
		ID:          "score_without_indicator",
		Name:        "Score Without Indicator",
		Description: "A non-zero indicator score whose indicator category is absent",
		Check: func(in Input) []Finding {
			var out []Finding
			for _, key := range domain.ScoreKeys {
				score, ok := in.Result.IndicatorScores[key]
				if !ok || score == 0 {
					continue
				}
				backed := false
				for _, c := range key.Categories() {
					if in.Result.Indicators.Has(c) {
						backed = true
						break
					}
				}
				if !backed {
					out = append(out, Finding{
						Subject: string(key),
						Message: fmt.Sprintf("%s is %.1f but no matching indicator was reported", key, score),
					})
				}
			}
			return out
		},
	}
}

func scoreOutOfRange() *Rule {
	return &Rule{
		ID:          "score_out_of_range",
		Name:        "Score Out Of Range",
		Description: "An indicator score outside 0-100",
		Check: func(in Input) []Finding {
			var out []Finding
			for _, key := range domain.ScoreKeys {
				score, ok := in.Result.IndicatorScores[key]
				if !ok {
					continue
				}
				if math.IsNaN(score) || score < 0 || score > 100 {
					out = append(out, Finding{
						Subject: string(key),
						Message: fmt.Sprintf("%s is %v, outside 0-100", key, score),
					})
				}
			}
			return out
		},
	}
}

func riskDrift() *Rule {
	return &Rule{
		ID:          "risk_drift",
		Name:        "Reported Risk Drift",
		Description: "The backend's risk_percentage disagrees with the derived risk",
		Check: func(in Input) []Finding {
			if in.Response == nil || in.Response.RiskPercentage == nil {
				return nil
			}
			reported := *in.Response.RiskPercentage
			if math.Abs(reported-in.Result.RiskPercentage) <= MaxRiskDrift {
				return nil
			}
			return []Finding{{
				Subject: "risk_percentage",
				Message: fmt.Sprintf("backend reported risk %.1f%%, derived %.1f%%", reported, in.Result.RiskPercentage),
			}}
		},
	}
}

func modeMismatch() *Rule {
	return &Rule{
		ID:          "mode_mismatch",
		Name:        "Mode Mismatch",
		Description: "The response claims a different mode than the request",
		Check: func(in Input) []Finding {
			if in.Response == nil || in.Response.Mode == nil {
				return nil
			}
			got, err := domain.ParseMode(*in.Response.Mode)
			if err == nil && got == in.RequestMode {
				return nil
			}
			return []Finding{{
				Subject: "mode",
				Message: fmt.Sprintf("requested %s but backend answered for %q", in.RequestMode, *in.Response.Mode),
			}}
		},
	}
}

func urlClassifierWithoutEvidence() *Rule {
	return &Rule{
		ID:          "url_classifier_without_evidence",
		Name:        "URL Classifier Without Evidence",
		Description: "The URL classifier ran but no URL evidence was returned",
		Check: func(in Input) []Finding {
			breakdown, ok := in.Result.ClassifierBreakdown.Get()
			if !ok || !breakdown[domain.RoleURL].Applicable {
				return nil
			}
			if in.Result.Indicators.Has(domain.CategoryURLs) || in.Result.Indicators.Has(domain.CategoryURLFeatures) {
				return nil
			}
			return []Finding{{
				Subject: string(domain.RoleURL),
				Message: "URL classifier produced a verdict but no URLs were reported",
			}}
		},
	}
}
