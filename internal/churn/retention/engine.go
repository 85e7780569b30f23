// internal/churn/retention/engine.go
package retention

import (
	"context"

	"churn-workers/internal/churn"
)

// Probe is the outcome of one rule against one baseline.
type Probe struct {
	Rule                 string  `json:"rule"`
	Message              string  `json:"message"`
	Skipped              bool    `json:"skipped"`
	CandidateProbability float64 `json:"candidateProbability,omitempty"`
	Triggered            bool    `json:"triggered"`
}

// Evaluation holds the baseline probability and every probe in rule order.
type Evaluation struct {
	BaseProbability float64 `json:"baseProbability"`
	Probes          []Probe `json:"probes"`
}

// Recommendations returns the messages of the triggered probes, in rule order.
func (e *Evaluation) Recommendations() []string {
	out := make([]string, 0, len(e.Probes))
	for _, p := range e.Probes {
		if p.Triggered {
			out = append(out, p.Message)
		}
	}
	return out
}

// Engine runs counterfactual probes against a scoring capability. It holds
// no mutable state and is safe for concurrent use when the scorer is.
type Engine struct {
	rules []Rule
}

// NewEngine returns an engine over the given rules, or the built-in rules
// when none are passed.
func NewEngine(rules ...Rule) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Engine{rules: append([]Rule(nil), rules...)}
}

// Rules returns a copy of the engine's rules in registration order.
func (e *Engine) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

// Recommend returns the messages of every rule whose perturbation strictly
// lowers the scored churn probability. Scorer errors are returned as is.
func (e *Engine) Recommend(ctx context.Context, scorer churn.Scorer, baseline churn.FeatureRecord) ([]string, error) {
	eval, err := e.Evaluate(ctx, scorer, baseline)
	if err != nil {
		return nil, err
	}
	return eval.Recommendations(), nil
}

// Evaluate scores the baseline once and each applicable rule's candidate
// once. The baseline record is never modified.
func (e *Engine) Evaluate(ctx context.Context, scorer churn.Scorer, baseline churn.FeatureRecord) (*Evaluation, error) {
	if err := baseline.Validate(); err != nil {
		return nil, err
	}

	base, err := scorer.Score(ctx, baseline.Clone())
	if err != nil {
		return nil, err
	}
	if err := churn.CheckProbability(base); err != nil {
		return nil, err
	}

	eval := &Evaluation{
		BaseProbability: base,
		Probes:          make([]Probe, 0, len(e.rules)),
	}

	for _, rule := range e.rules {
		probe := Probe{Rule: rule.Name, Message: rule.Message}

		if !rule.applies(baseline) {
			probe.Skipped = true
			eval.Probes = append(eval.Probes, probe)
			continue
		}

		p, err := scorer.Score(ctx, rule.candidate(baseline))
		if err != nil {
			return nil, err
		}
		if err := churn.CheckProbability(p); err != nil {
			return nil, err
		}

		probe.CandidateProbability = p
		probe.Triggered = p < base
		eval.Probes = append(eval.Probes, probe)
	}

	return eval, nil
}
