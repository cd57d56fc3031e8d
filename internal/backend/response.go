package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Response is a prediction backend body as received. Pointer and nil
// fields mean the backend did not send them.
type Response struct {
	Classification *string      `json:"classification"`
	Prediction     *string      `json:"prediction"`
	Confidence     *float64     `json:"confidence"`
	Mode           *string      `json:"mode"`
	RiskPercentage *float64     `json:"risk_percentage"`
	Classifiers    *Classifiers `json:"classifiers"`
	Indicators     *Indicators  `json:"indicators"`
	Scores         *Scores      `json:"indicator_scores"`

	// URLFeatures is the top-level feature block of url-only responses.
	URLFeatures *URLFeatures `json:"url_features"`

	// Features is the legacy evidence block.
	Features *Features `json:"features"`
}

// Label returns the top-level verdict, preferring "classification" over
// the "prediction" spelling.
func (r *Response) Label() (string, bool) {
	if r.Classification != nil {
		return *r.Classification, true
	}
	if r.Prediction != nil {
		return *r.Prediction, true
	}
	return "", false
}

// Classifiers holds the sub-classifier outputs of a full-email response.
type Classifiers struct {
	Content *SubClassifier `json:"content_classifier"`
	URL     *SubClassifier `json:"url_classifier"`
}

// SubClassifier is one sub-classifier output.
type SubClassifier struct {
	Prediction *string    `json:"prediction"`
	Confidence Confidence `json:"confidence"`
}

// NotApplicable reports whether the classifier said it did not run.
// A classifier absent from the response is not the same and reports false.
func (s *SubClassifier) NotApplicable() bool {
	if s == nil {
		return false
	}
	if s.Prediction != nil && strings.EqualFold(strings.TrimSpace(*s.Prediction), "N/A") {
		return true
	}
	return s.Confidence.NA
}

// Confidence is a sub-classifier confidence that may be a number or the
// literal "N/A".
type Confidence struct {
	Value float64
	Set   bool
	NA    bool
}

// UnmarshalJSON accepts numbers, numeric strings, "N/A" and null.
func (c *Confidence) UnmarshalJSON(data []byte) error {
	*c = Confidence{}
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if strings.EqualFold(s, "N/A") {
			c.NA = true
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("confidence %q is neither a number nor N/A", s)
		}
		c.Value, c.Set = f, true
		return nil
	}

	if err := json.Unmarshal(data, &c.Value); err != nil {
		return err
	}
	c.Set = true
	return nil
}

// Indicators is the indicator block of a response.
type Indicators struct {
	SuspiciousKeywords []string        `json:"suspicious_keywords"`
	SuspiciousURLs     []string        `json:"suspicious_urls"`
	SenderMismatch     *SenderMismatch `json:"sender_mismatch"`
	URLFeatures        *URLFeatures    `json:"url_features"`
}

// SenderMismatch reports a From / Reply-To domain comparison.
type SenderMismatch struct {
	Detected      bool   `json:"detected"`
	FromDomain    string `json:"from_domain"`
	ReplyToDomain string `json:"reply_to_domain"`
}

// URLFeatures are structural flags of a URL.
type URLFeatures struct {
	Domain        string `json:"domain"`
	NoHTTPS       bool   `json:"no_https"`
	SuspiciousTLD bool   `json:"suspicious_tld"`
	HasIPAddress  bool   `json:"has_ip_address"`
	URLShortener  bool   `json:"url_shortener"`
}

// IsEmpty reports whether no feature was detected.
func (f *URLFeatures) IsEmpty() bool {
	return f == nil || (f.Domain == "" && !f.NoHTTPS && !f.SuspiciousTLD && !f.HasIPAddress && !f.URLShortener)
}

// Scores are the per-category scores of a response.
type Scores struct {
	Keywords *float64 `json:"keywords_score"`
	URL      *float64 `json:"url_score"`
	Header   *float64 `json:"header_score"`
}

// Features is the legacy evidence block.
type Features struct {
	URLs               []string `json:"urls"`
	SuspiciousKeywords []string `json:"suspicious_keywords"`
}
