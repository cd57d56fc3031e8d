// Package request converts raw dashboard form input into backend payloads.
package request

import (
	"strings"

	"github.com/phishlens/internal/domain"
)

// FormFields is the raw input collected by either analysis form.
type FormFields struct {
	// EmailBody is the pasted email content (full-email mode).
	EmailBody string `json:"email_body"`

	// ShowHeaders is true when the user expanded the optional headers section.
	ShowHeaders bool `json:"show_headers"`

	// Headers are the optional header inputs; ignored unless ShowHeaders is set.
	Headers domain.EmailHeaders `json:"headers"`

	// URL is the URL or address to analyze (url-only mode).
	URL string `json:"url"`
}

// Build produces the request payload for mode. It fails with a
// *domain.ValidationError when the mode-required field is blank.
//
// The email body is sent as typed; only the URL is trimmed. Headers are
// attached exactly when the user expanded the headers section, even if
// the fields are blank, so "supplied but empty" stays distinct from
// "not supplied".
func Build(mode domain.AnalysisMode, form FormFields) (domain.AnalysisRequest, error) {
	switch mode {
	case domain.ModeFullEmail:
		if strings.TrimSpace(form.EmailBody) == "" {
			return nil, &domain.ValidationError{Field: "email_body", Reason: "email content is required"}
		}
		req := domain.FullEmailRequest{EmailBody: form.EmailBody}
		if form.ShowHeaders {
			headers := form.Headers
			req.Headers = &headers
		}
		return req, nil

	case domain.ModeURLOnly:
		url := strings.TrimSpace(form.URL)
		if url == "" {
			return nil, &domain.ValidationError{Field: "url", Reason: "url is required"}
		}
		return domain.URLOnlyRequest{URL: url}, nil

	default:
		return nil, &domain.ValidationError{Field: "mode", Reason: "unknown analysis mode " + string(mode)}
	}
}
