package consistency

import (
	"github.com/phishlens/internal/domain"
	"go.uber.org/zap"
)

// Engine applies consistency rules to a normalized result.
type Engine struct {
	rules  []*Rule
	logger *zap.Logger
}

// NewEngine creates a new rule engine with the provided rules.
func NewEngine(rules []*Rule, logger *zap.Logger) *Engine {
	return &Engine{
		rules:  rules,
		logger: logger.Named("consistency_engine"),
	}
}

// Evaluate runs every rule and returns the inconsistencies found, in rule order.
func (e *Engine) Evaluate(in Input) []domain.Inconsistency {
	if in.Result == nil {
		return nil
	}

	var out []domain.Inconsistency
	for _, rule := range e.rules {
		for _, f := range rule.Check(in) {
			e.logger.Warn("inconsistent prediction response",
				zap.String("rule_id", rule.ID),
				zap.String("subject", f.Subject),
				zap.String("message", f.Message),
			)
			out = append(out, domain.Inconsistency{
				RuleID:  rule.ID,
				Subject: f.Subject,
				Message: f.Message,
			})
		}
	}
	return out
}
