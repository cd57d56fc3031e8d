package report

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/phishlens/internal/domain"
	"github.com/phishlens/internal/present"
)

// Colorizer wraps text in ANSI colors when enabled.
type Colorizer struct {
	Enabled bool
}

// NewColorizer enables colors when w is a terminal, unless disabled.
func NewColorizer(w io.Writer, disable bool) *Colorizer {
	if disable || os.Getenv("NO_COLOR") != "" {
		return &Colorizer{}
	}
	f, ok := w.(*os.File)
	if !ok {
		return &Colorizer{}
	}
	return &Colorizer{Enabled: isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())}
}

func (c *Colorizer) apply(code, text string) string {
	if c == nil || !c.Enabled {
		return text
	}
	return code + text + "\033[0m"
}

// Green colors the text green.
func (c *Colorizer) Green(text string) string { return c.apply("\033[32m", text) }

// Yellow colors the text yellow.
func (c *Colorizer) Yellow(text string) string { return c.apply("\033[33m", text) }

// Red colors the text red.
func (c *Colorizer) Red(text string) string { return c.apply("\033[31m", text) }

// Bold makes the text bold.
func (c *Colorizer) Bold(text string) string { return c.apply("\033[1m", text) }

// Level colors text by risk level.
func (c *Colorizer) Level(l domain.RiskLevel, text string) string {
	switch l {
	case domain.RiskLow:
		return c.Green(text)
	case domain.RiskMedium:
		return c.Yellow(text)
	default:
		return c.Red(text)
	}
}

// Severity colors text by indicator severity.
func (c *Colorizer) Severity(s present.Severity, text string) string {
	switch s {
	case present.SeverityLow:
		return c.Green(text)
	case present.SeverityMedium:
		return c.Yellow(text)
	default:
		return c.Red(text)
	}
}
