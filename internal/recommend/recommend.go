// Package recommend derives ranked footprint reduction advice from a raw
// household record.
package recommend

import (
	"slices"

	"github.com/carbonwise/carbonwise/internal/features"
)

// Priority ranks a recommendation.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Rank orders priorities, High first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Recommendation is one piece of advice.
type Recommendation struct {
	Category         string   `json:"category" yaml:"category"`
	Icon             string   `json:"icon" yaml:"icon"`
	Action           string   `json:"action" yaml:"action"`
	PotentialSavings string   `json:"potential_savings" yaml:"potential_savings"`
	Priority         Priority `json:"priority" yaml:"priority" jsonschema:"enum=High,enum=Medium,enum=Low"`
}

// Title is the icon and category, e.g. "⚡ Electricity".
func (r Recommendation) Title() string {
	if r.Icon == "" {
		return r.Category
	}
	return r.Icon + " " + r.Category
}

// Rule inspects a record and emits at most one recommendation.
type Rule struct {
	Name     string
	Evaluate func(in features.RawInput) (Recommendation, bool)
}

// Engine applies its rules in order. It is immutable and safe for
// concurrent use.
type Engine struct {
	rules    []Rule
	fallback []Recommendation
}

// Option configures an Engine.
type Option func(*Engine)

// WithRules replaces the rule set.
func WithRules(rules ...Rule) Option {
	return func(e *Engine) {
		e.rules = rules
	}
}

// WithFallback replaces the advice given when no rule fires.
func WithFallback(recs ...Recommendation) Option {
	return func(e *Engine) {
		e.fallback = recs
	}
}

// NewEngine returns an engine over DefaultRules.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rules:    DefaultRules(),
		fallback: GeneralAdvice(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns the rule names in evaluation order.
func (e *Engine) Rules() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name
	}
	return names
}

// Recommend evaluates every rule against in. The list is never empty and is
// sorted High, Medium, Low, keeping rule order within a priority.
// predicted is accepted for callers that have a prediction at hand and does
// not influence the result.
func (e *Engine) Recommend(in features.RawInput, predicted float64) []Recommendation {
	var recs []Recommendation
	for _, rule := range e.rules {
		if rec, ok := rule.Evaluate(in); ok {
			recs = append(recs, rec)
		}
	}

	if len(recs) == 0 {
		recs = slices.Clone(e.fallback)
	}

	slices.SortStableFunc(recs, func(a, b Recommendation) int {
		return a.Priority.Rank() - b.Priority.Rank()
	})
	return recs
}
