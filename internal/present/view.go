// Package present binds analysis results to view state.
package present

import (
	"fmt"
	"strings"

	"github.com/phishlens/internal/domain"
)

// Severity ranks how alarming an indicator is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Palette colors.
const (
	ColorGreen = "#22c55e"
	ColorAmber = "#f59e0b"
	ColorRed   = "#ef4444"
)

// View is everything the dashboard renders for one result.
type View struct {
	Mode        domain.AnalysisMode `json:"mode" yaml:"mode"`
	Gauge       Gauge               `json:"gauge" yaml:"gauge"`
	Banner      Banner              `json:"banner" yaml:"banner"`
	Classifiers []ClassifierRow     `json:"classifiers,omitempty" yaml:"classifiers,omitempty"`
	Badges      []Badge             `json:"badges" yaml:"badges"`
	ScoreBars   []ScoreBar          `json:"score_bars" yaml:"score_bars"`
	Warnings    []string            `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Gauge is the risk meter.
type Gauge struct {
	// Fraction is RiskPercentage / 100, in [0,1].
	Fraction   float64          `json:"fraction" yaml:"fraction"`
	Percentage float64          `json:"percentage" yaml:"percentage"`
	Label      string           `json:"label" yaml:"label"`
	Level      domain.RiskLevel `json:"level" yaml:"level"`
	Color      string           `json:"color" yaml:"color"`
}

// Banner is the verdict headline.
type Banner struct {
	State          domain.Classification `json:"state" yaml:"state"`
	Title          string                `json:"title" yaml:"title"`
	ConfidenceText string                `json:"confidence_text" yaml:"confidence_text"`
}

// ClassifierRow is one line of the classifier breakdown.
type ClassifierRow struct {
	Role       domain.ClassifierRole `json:"role" yaml:"role"`
	Name       string                `json:"name" yaml:"name"`
	Prediction string                `json:"prediction" yaml:"prediction"`
	Confidence string                `json:"confidence" yaml:"confidence"`
}

// Badge is one indicator chip.
type Badge struct {
	Category domain.IndicatorCategory `json:"category" yaml:"category"`
	Label    string                   `json:"label" yaml:"label"`
	Detail   string                   `json:"detail" yaml:"detail"`
	Severity Severity                 `json:"severity" yaml:"severity"`
	Color    string                   `json:"color" yaml:"color"`
}

// ScoreBar is one per-category score bar.
type ScoreBar struct {
	Key      domain.ScoreKey `json:"key" yaml:"key"`
	Label    string          `json:"label" yaml:"label"`
	Score    float64         `json:"score" yaml:"score"`
	Fraction float64         `json:"fraction" yaml:"fraction"`
}

// Bind derives the view of result. It is a pure function of its input.
func Bind(result *domain.AnalysisResult) View {
	v := View{
		Mode:      result.Mode,
		Gauge:     gauge(result),
		Banner:    banner(result),
		Badges:    []Badge{},
		ScoreBars: []ScoreBar{},
	}

	if bd, ok := result.ClassifierBreakdown.Get(); ok {
		for _, role := range []domain.ClassifierRole{domain.RoleContent, domain.RoleURL} {
			if o, ok := bd[role]; ok {
				v.Classifiers = append(v.Classifiers, classifierRow(role, o))
			}
		}
	}

	for _, ind := range result.Indicators.Ordered() {
		v.Badges = append(v.Badges, badge(ind))
	}

	for _, key := range domain.ScoreKeys {
		score, ok := result.IndicatorScores[key]
		if !ok || result.IsFlagged(string(key)) {
			continue
		}
		v.ScoreBars = append(v.ScoreBars, ScoreBar{
			Key:      key,
			Label:    scoreLabels[key],
			Score:    score,
			Fraction: score / 100,
		})
	}

	for _, inc := range result.Inconsistencies {
		v.Warnings = append(v.Warnings, inc.Message)
	}

	return v
}

// LevelColor returns the palette color of a risk level.
func LevelColor(l domain.RiskLevel) string {
	switch l {
	case domain.RiskLow:
		return ColorGreen
	case domain.RiskMedium:
		return ColorAmber
	default:
		return ColorRed
	}
}

// SeverityColor returns the palette color of a severity.
func SeverityColor(s Severity) string {
	switch s {
	case SeverityLow:
		return ColorGreen
	case SeverityMedium:
		return ColorAmber
	default:
		return ColorRed
	}
}

func gauge(r *domain.AnalysisResult) Gauge {
	return Gauge{
		Fraction:   r.RiskPercentage / 100,
		Percentage: r.RiskPercentage,
		Label:      percent(r.RiskPercentage),
		Level:      r.RiskLevel,
		Color:      LevelColor(r.RiskLevel),
	}
}

func banner(r *domain.AnalysisResult) Banner {
	title := "Looks Legitimate"
	if r.Classification == domain.ClassificationPhishing {
		title = "Phishing Detected"
	}
	return Banner{
		State:          r.Classification,
		Title:          title,
		ConfidenceText: percent(r.Confidence * 100),
	}
}

var classifierNames = map[domain.ClassifierRole]string{
	domain.RoleContent: "Content Classifier",
	domain.RoleURL:     "URL Classifier",
}

func classifierRow(role domain.ClassifierRole, o domain.ClassifierOutcome) ClassifierRow {
	row := ClassifierRow{Role: role, Name: classifierNames[role], Prediction: "N/A", Confidence: "N/A"}
	if o.Applicable {
		row.Prediction = o.Prediction
		row.Confidence = percent(o.Confidence * 100)
	}
	return row
}

// severities is the fixed severity of each indicator category.
var severities = map[domain.IndicatorCategory]Severity{
	domain.CategorySenderMismatch: SeverityHigh,
	domain.CategoryURLs:           SeverityHigh,
	domain.CategoryURLFeatures:    SeverityMedium,
	domain.CategoryKeywords:       SeverityMedium,
}

func badge(ind domain.Indicator) Badge {
	b := Badge{Category: ind.Category(), Severity: severities[ind.Category()]}
	if b.Severity == "" {
		b.Severity = SeverityLow
	}
	b.Color = SeverityColor(b.Severity)

	switch i := ind.(type) {
	case domain.KeywordsIndicator:
		b.Label = "Suspicious Keywords"
		b.Detail = strings.Join(i.Keywords, ", ")
	case domain.URLsIndicator:
		b.Label = "Suspicious URLs"
		b.Detail = strings.Join(i.URLs, ", ")
	case domain.SenderMismatchIndicator:
		b.Label = "Sender Mismatch"
		b.Detail = fmt.Sprintf("From %s, Reply-To %s", orUnknown(i.FromDomain), orUnknown(i.ReplyToDomain))
	case domain.URLFeaturesIndicator:
		b.Label = "URL Features"
		b.Detail = urlFeatureDetail(i)
	default:
		b.Label = string(ind.Category())
	}
	return b
}

func urlFeatureDetail(f domain.URLFeaturesIndicator) string {
	var parts []string
	if f.NoHTTPS {
		parts = append(parts, "No HTTPS")
	}
	if f.SuspiciousTLD {
		parts = append(parts, "Suspicious TLD")
	}
	if f.HasIPAddress {
		parts = append(parts, "IP Address")
	}
	if f.URLShortener {
		parts = append(parts, "URL Shortener")
	}
	detail := strings.Join(parts, ", ")
	if f.Domain != "" {
		if detail == "" {
			return f.Domain
		}
		return f.Domain + ": " + detail
	}
	return detail
}

var scoreLabels = map[domain.ScoreKey]string{
	domain.ScoreKeywords: "Keywords",
	domain.ScoreURL:      "URLs",
	domain.ScoreHeader:   "Headers",
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
