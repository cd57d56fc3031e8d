package consistency

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/phishlens/internal/backend"
	"github.com/phishlens/internal/domain"
	"go.uber.org/zap"
)

func ptr[T any](v T) *T { return &v }

func TestDefaultRules_UniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	for _, r := range DefaultRules() {
		if r.ID == "" || r.Name == "" || r.Check == nil {
			t.Errorf("rule %+v is incomplete", r)
		}
		if seen[r.ID] {
			t.Errorf("duplicate rule ID %q", r.ID)
		}
		seen[r.ID] = true
	}
}

func TestEngine_Evaluate(t *testing.T) {
	engine := NewEngine(DefaultRules(), zap.NewNop())

	tests := []struct {
		name string
		in   Input
		want []domain.Inconsistency
	}{
		{
			name: "consistent",
			in: Input{
				RequestMode: domain.ModeFullEmail,
				Response:    &backend.Response{Mode: ptr("full_email"), RiskPercentage: ptr(82.0)},
				Result: &domain.AnalysisResult{
					RiskPercentage:  82.0,
					Indicators:      domain.IndicatorSet{domain.CategoryKeywords: domain.KeywordsIndicator{Keywords: []string{"urgent"}}},
					IndicatorScores: domain.IndicatorScores{domain.ScoreKeywords: 15, domain.ScoreURL: 0},
				},
			},
		},
		{
			name: "score without indicator",
			in: Input{
				RequestMode: domain.ModeFullEmail,
				Result: &domain.AnalysisResult{
					Indicators:      domain.IndicatorSet{},
					IndicatorScores: domain.IndicatorScores{domain.ScoreHeader: 75},
				},
			},
			want: []domain.Inconsistency{{
				RuleID:  "score_without_indicator",
				Subject: "header_score",
				Message: "header_score is 75.0 but no matching indicator was reported",
			}},
		},
		{
			name: "url score backed by url features",
			in: Input{
				RequestMode: domain.ModeURLOnly,
				Result: &domain.AnalysisResult{
					Indicators:      domain.IndicatorSet{domain.CategoryURLFeatures: domain.URLFeaturesIndicator{NoHTTPS: true}},
					IndicatorScores: domain.IndicatorScores{domain.ScoreURL: 20},
				},
			},
		},
		{
			name: "score out of range",
			in: Input{
				RequestMode: domain.ModeFullEmail,
				Result: &domain.AnalysisResult{
					Indicators:      domain.IndicatorSet{domain.CategoryKeywords: domain.KeywordsIndicator{Keywords: []string{"a"}}},
					IndicatorScores: domain.IndicatorScores{domain.ScoreKeywords: 150},
				},
			},
			want: []domain.Inconsistency{{
				RuleID:  "score_out_of_range",
				Subject: "keywords_score",
				Message: "keywords_score is 150, outside 0-100",
			}},
		},
		{
			name: "truncated risk within drift",
			in: Input{
				RequestMode: domain.ModeFullEmail,
				Response:    &backend.Response{RiskPercentage: ptr(82.0)},
				Result:      &domain.AnalysisResult{RiskPercentage: 82.7},
			},
		},
		{
			name: "risk drift",
			in: Input{
				RequestMode: domain.ModeFullEmail,
				Response:    &backend.Response{RiskPercentage: ptr(50.0)},
				Result:      &domain.AnalysisResult{RiskPercentage: 82.0},
			},
			want: []domain.Inconsistency{{
				RuleID:  "risk_drift",
				Subject: "risk_percentage",
				Message: "backend reported risk 50.0%, derived 82.0%",
			}},
		},
		{
			name: "mode mismatch",
			in: Input{
				RequestMode: domain.ModeFullEmail,
				Response:    &backend.Response{Mode: ptr("url_only")},
				Result:      &domain.AnalysisResult{},
			},
			want: []domain.Inconsistency{{
				RuleID:  "mode_mismatch",
				Subject: "mode",
				Message: `requested full-email but backend answered for "url_only"`,
			}},
		},
		{
			name: "url classifier without evidence",
			in: Input{
				RequestMode: domain.ModeFullEmail,
				Result: &domain.AnalysisResult{
					ClassifierBreakdown: domain.Some(domain.ClassifierBreakdown{
						domain.RoleContent: domain.NewOutcome("phishing", 0.8),
						domain.RoleURL:     domain.NewOutcome("phishing", 0.6),
					}),
					Indicators: domain.IndicatorSet{},
				},
			},
			want: []domain.Inconsistency{{
				RuleID:  "url_classifier_without_evidence",
				Subject: "url",
				Message: "URL classifier produced a verdict but no URLs were reported",
			}},
		},
		{
			name: "url classifier backed by urls",
			in: Input{
				RequestMode: domain.ModeFullEmail,
				Result: &domain.AnalysisResult{
					ClassifierBreakdown: domain.Some(domain.ClassifierBreakdown{
						domain.RoleContent: domain.NewOutcome("phishing", 0.8),
						domain.RoleURL:     domain.NewOutcome("phishing", 0.6),
					}),
					Indicators: domain.IndicatorSet{domain.CategoryURLs: domain.URLsIndicator{URLs: []string{"http://x.tk"}}},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Evaluate(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Evaluate() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEngine_EvaluateNilResult(t *testing.T) {
	engine := NewEngine(DefaultRules(), zap.NewNop())
	if got := engine.Evaluate(Input{}); got != nil {
		t.Errorf("Evaluate() = %v, want nil", got)
	}
}
