// Package report renders analysis results for the command line.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/phishlens/internal/domain"
	"github.com/phishlens/internal/present"
	"gopkg.in/yaml.v3"
)

// Format is an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates an output format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

// Report is what the machine-readable formats emit.
type Report struct {
	Result *domain.AnalysisResult `json:"result" yaml:"result"`
	View   present.View           `json:"view" yaml:"view"`
}

// Renderer writes results in one format.
type Renderer struct {
	format Format
	color  *Colorizer
	text   *template.Template
}

// NewRenderer creates a Renderer. color may be nil.
func NewRenderer(format Format, color *Colorizer) (*Renderer, error) {
	if color == nil {
		color = &Colorizer{}
	}
	r := &Renderer{format: format, color: color}

	tmpl, err := template.New("result").Funcs(r.funcs()).Parse(textTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse result template: %w", err)
	}
	r.text = tmpl

	return r, nil
}

// Render writes result to w.
func (r *Renderer) Render(w io.Writer, result *domain.AnalysisResult) error {
	rep := Report{Result: result, View: present.Bind(result)}

	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return err
		}
		return enc.Close()
	default:
		var buf bytes.Buffer
		if err := r.text.Execute(&buf, rep); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	}
}

// RenderError writes the single user-facing message for err.
func (r *Renderer) RenderError(w io.Writer, err error) error {
	msg := domain.UserMessage(err)
	switch r.format {
	case FormatJSON:
		return json.NewEncoder(w).Encode(map[string]string{"error": msg})
	case FormatYAML:
		return yaml.NewEncoder(w).Encode(map[string]string{"error": msg})
	default:
		_, werr := fmt.Fprintln(w, r.color.Red("Error: ")+msg)
		return werr
	}
}

const barWidth = 20

func (r *Renderer) funcs() template.FuncMap {
	return template.FuncMap{
		"banner": func(b present.Banner) string {
			if b.State == domain.ClassificationPhishing {
				return r.color.Bold(r.color.Red(b.Title))
			}
			return r.color.Bold(r.color.Green(b.Title))
		},
		"level": func(g present.Gauge, text string) string {
			return r.color.Level(g.Level, text)
		},
		"sev": func(s present.Severity) string {
			return r.color.Severity(s, strings.ToUpper(string(s)))
		},
		"warn": r.color.Yellow,
		"bar": func(fraction float64) string {
			n := int(fraction*barWidth + 0.5)
			n = max(0, min(n, barWidth))
			return strings.Repeat("#", n) + strings.Repeat("-", barWidth-n)
		},
	}
}

const textTemplate = `{{banner .View.Banner}}
Risk:        {{level .View.Gauge (printf "%s (%s)" .View.Gauge.Label .View.Gauge.Level)}}
Confidence:  {{.View.Banner.ConfidenceText}}
Mode:        {{.Result.Mode}}
{{- if .View.Classifiers}}

Classifiers:
{{- range .View.Classifiers}}
  {{printf "%-20s %-12s %s" .Name .Prediction .Confidence}}
{{- end}}
{{- end}}

Indicators:
{{- range .View.Badges}}
  [{{sev .Severity}}] {{.Label}}: {{.Detail}}
{{- else}}
  none detected
{{- end}}
{{- if .View.ScoreBars}}

Scores:
{{- range .View.ScoreBars}}
  {{printf "%-10s" .Label}} {{bar .Fraction}} {{printf "%5.1f" .Score}}
{{- end}}
{{- end}}
{{- if .View.Warnings}}

Warnings:
{{- range .View.Warnings}}
  ! {{warn .}}
{{- end}}
{{- end}}
`
