// Package domain contains the core domain models and types.
// These models represent the business logic contracts and are independent
// of any infrastructure concerns.
package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AnalysisMode selects the request payload shape and the response fields
// expected to be populated.
type AnalysisMode string

const (
	ModeFullEmail AnalysisMode = "full-email"
	ModeURLOnly   AnalysisMode = "url-only"
)

// IsValid checks if the mode is one of the allowed values.
func (m AnalysisMode) IsValid() bool {
	switch m {
	case ModeFullEmail, ModeURLOnly:
		return true
	default:
		return false
	}
}

// ParseMode accepts both the dashed form and the underscored form the
// backend echoes back ("full_email", "url_only").
func ParseMode(s string) (AnalysisMode, error) {
	m := AnalysisMode(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	if !m.IsValid() {
		return "", &ValidationError{Field: "mode", Reason: fmt.Sprintf("unknown analysis mode %q", s)}
	}
	return m, nil
}

// AnalysisRequest is one of FullEmailRequest or URLOnlyRequest.
type AnalysisRequest interface {
	// Mode returns the analysis mode that produced the request.
	Mode() AnalysisMode

	isAnalysisRequest()
}

// EmailHeaders are the optional sender headers of a full-email request.
type EmailHeaders struct {
	From    string `json:"from"`
	ReplyTo string `json:"reply_to"`
	Subject string `json:"subject"`
}

// FullEmailRequest is the payload for POST /predict/full-email.
// A nil Headers means "not supplied" and is sent as null.
type FullEmailRequest struct {
	EmailBody string        `json:"email_body"`
	Headers   *EmailHeaders `json:"headers"`
}

// Mode implements AnalysisRequest.
func (FullEmailRequest) Mode() AnalysisMode { return ModeFullEmail }

func (FullEmailRequest) isAnalysisRequest() {}

// URLOnlyRequest is the payload for POST /predict/url-only.
type URLOnlyRequest struct {
	URL string `json:"url"`
}

// Mode implements AnalysisRequest.
func (URLOnlyRequest) Mode() AnalysisMode { return ModeURLOnly }

func (URLOnlyRequest) isAnalysisRequest() {}

// Classification is the top-level binary verdict.
type Classification string

const (
	ClassificationPhishing   Classification = "phishing"
	ClassificationLegitimate Classification = "legitimate"
)

// ParseClassification normalizes a backend label.
func ParseClassification(s string) (Classification, bool) {
	switch c := Classification(strings.ToLower(strings.TrimSpace(s))); c {
	case ClassificationPhishing, ClassificationLegitimate:
		return c, true
	default:
		return "", false
	}
}

// RiskLevel is the banded form of a risk percentage.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// IsValid checks if the risk level value is one of the allowed values.
func (l RiskLevel) IsValid() bool {
	switch l {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	default:
		return false
	}
}

// ClassifierRole keys a sub-classifier in the breakdown.
type ClassifierRole string

const (
	RoleContent ClassifierRole = "content"
	RoleURL     ClassifierRole = "url"
)

// ClassifierOutcome is one sub-classifier output. The zero value is the
// not-applicable outcome; an applicable outcome always carries its own
// confidence, which may legitimately be zero.
type ClassifierOutcome struct {
	Applicable bool
	Prediction string
	Confidence float64
}

// NewOutcome returns an applicable outcome.
func NewOutcome(prediction string, confidence float64) ClassifierOutcome {
	return ClassifierOutcome{Applicable: true, Prediction: prediction, Confidence: confidence}
}

// NotApplicable returns the outcome of a classifier that did not run.
func NotApplicable() ClassifierOutcome {
	return ClassifierOutcome{}
}

type outcomeJSON struct {
	Applicable bool              `json:"applicable" yaml:"applicable"`
	Prediction string            `json:"prediction" yaml:"prediction"`
	Confidence Optional[float64] `json:"confidence" yaml:"confidence"`
}

func (o ClassifierOutcome) wire() outcomeJSON {
	if !o.Applicable {
		return outcomeJSON{Prediction: "N/A"}
	}
	return outcomeJSON{Applicable: true, Prediction: o.Prediction, Confidence: Some(o.Confidence)}
}

// MarshalJSON encodes a not-applicable outcome with a null confidence.
func (o ClassifierOutcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.wire())
}

// MarshalYAML mirrors MarshalJSON.
func (o ClassifierOutcome) MarshalYAML() (interface{}, error) {
	return o.wire(), nil
}

// ClassifierBreakdown holds the sub-classifier outcomes of a full-email
// analysis. A role is present only when the backend reported it.
type ClassifierBreakdown map[ClassifierRole]ClassifierOutcome

// IndicatorCategory names a detected signal type.
type IndicatorCategory string

const (
	CategoryKeywords       IndicatorCategory = "suspicious_keywords"
	CategoryURLs           IndicatorCategory = "suspicious_urls"
	CategorySenderMismatch IndicatorCategory = "sender_mismatch"
	CategoryURLFeatures    IndicatorCategory = "url_features"
)

// IndicatorCategories lists every category in display order.
var IndicatorCategories = []IndicatorCategory{
	CategoryKeywords,
	CategoryURLs,
	CategorySenderMismatch,
	CategoryURLFeatures,
}

// Indicator is a detected signal with its evidence.
type Indicator interface {
	Category() IndicatorCategory
}

// KeywordsIndicator carries the suspicious keywords found in the content.
type KeywordsIndicator struct {
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// Category implements Indicator.
func (KeywordsIndicator) Category() IndicatorCategory { return CategoryKeywords }

// URLsIndicator carries the URLs found in the content.
type URLsIndicator struct {
	URLs []string `json:"urls" yaml:"urls"`
}

// Category implements Indicator.
func (URLsIndicator) Category() IndicatorCategory { return CategoryURLs }

// SenderMismatchIndicator reports differing From and Reply-To domains.
type SenderMismatchIndicator struct {
	FromDomain    string `json:"from_domain" yaml:"from_domain"`
	ReplyToDomain string `json:"reply_to_domain" yaml:"reply_to_domain"`
}

// Category implements Indicator.
func (SenderMismatchIndicator) Category() IndicatorCategory { return CategorySenderMismatch }

// URLFeaturesIndicator carries structural flags of the analyzed URL.
type URLFeaturesIndicator struct {
	Domain        string `json:"domain" yaml:"domain"`
	NoHTTPS       bool   `json:"no_https" yaml:"no_https"`
	SuspiciousTLD bool   `json:"suspicious_tld" yaml:"suspicious_tld"`
	HasIPAddress  bool   `json:"has_ip_address" yaml:"has_ip_address"`
	URLShortener  bool   `json:"url_shortener" yaml:"url_shortener"`
}

// Category implements Indicator.
func (URLFeaturesIndicator) Category() IndicatorCategory { return CategoryURLFeatures }

// IndicatorSet holds the evaluated, non-empty indicator categories.
// A category missing from the set was not evaluated or found nothing.
type IndicatorSet map[IndicatorCategory]Indicator

// Has reports whether category is present.
func (s IndicatorSet) Has(category IndicatorCategory) bool {
	_, ok := s[category]
	return ok
}

// Ordered returns the indicators in display order.
func (s IndicatorSet) Ordered() []Indicator {
	out := make([]Indicator, 0, len(s))
	for _, c := range IndicatorCategories {
		if ind, ok := s[c]; ok {
			out = append(out, ind)
		}
	}
	return out
}

// ScoreKey names a per-category indicator score.
type ScoreKey string

const (
	ScoreKeywords ScoreKey = "keywords_score"
	ScoreURL      ScoreKey = "url_score"
	ScoreHeader   ScoreKey = "header_score"
)

// ScoreKeys lists every score key in display order.
var ScoreKeys = []ScoreKey{ScoreKeywords, ScoreURL, ScoreHeader}

// Categories returns the indicator categories a score is computed from.
func (k ScoreKey) Categories() []IndicatorCategory {
	switch k {
	case ScoreKeywords:
		return []IndicatorCategory{CategoryKeywords}
	case ScoreURL:
		return []IndicatorCategory{CategoryURLs, CategoryURLFeatures}
	case ScoreHeader:
		return []IndicatorCategory{CategorySenderMismatch}
	default:
		return nil
	}
}

// IndicatorScores holds the scores the backend reported, in [0,100].
// A key missing from the map was not reported.
type IndicatorScores map[ScoreKey]float64

// Inconsistency is a normalization anomaly that must be shown to the user
// instead of being rendered silently.
type Inconsistency struct {
	// RuleID identifies the consistency rule that fired.
	RuleID string `json:"rule_id" yaml:"rule_id"`

	// Subject is the field or category the rule looked at.
	Subject string `json:"subject" yaml:"subject"`

	// Message is a human-readable description.
	Message string `json:"message" yaml:"message"`
}

// AnalysisResult is the normalized output of one backend response.
type AnalysisResult struct {
	// Mode is the analysis mode of the originating request.
	Mode AnalysisMode `json:"mode" yaml:"mode"`

	// Classification is the top-level verdict.
	Classification Classification `json:"classification" yaml:"classification"`

	// Confidence is the confidence in Classification as stated, in [0,1].
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// RiskPercentage is the phishing-oriented risk, one decimal, in [0,100].
	RiskPercentage float64 `json:"risk_percentage" yaml:"risk_percentage"`

	// RiskLevel is derived from RiskPercentage alone.
	RiskLevel RiskLevel `json:"risk_level" yaml:"risk_level"`

	// ClassifierBreakdown is set only for full-email analyses whose
	// response carried a content classifier.
	ClassifierBreakdown Optional[ClassifierBreakdown] `json:"classifier_breakdown" yaml:"classifier_breakdown"`

	// Indicators holds the evaluated, non-empty indicator categories.
	Indicators IndicatorSet `json:"indicators" yaml:"indicators"`

	// IndicatorScores holds the reported per-category scores.
	IndicatorScores IndicatorScores `json:"indicator_scores" yaml:"indicator_scores"`

	// Inconsistencies lists anomalies flagged during normalization.
	Inconsistencies []Inconsistency `json:"inconsistencies,omitempty" yaml:"inconsistencies,omitempty"`
}

// IsFlagged reports whether subject has an inconsistency recorded.
func (r *AnalysisResult) IsFlagged(subject string) bool {
	for _, inc := range r.Inconsistencies {
		if inc.Subject == subject {
			return true
		}
	}
	return false
}
