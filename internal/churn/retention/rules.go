// internal/churn/retention/rules.go
package retention

import (
	"fmt"
	"math"

	"churn-workers/internal/churn"
)

// Rule names of the built-in rule set.
const (
	RuleLoyaltyReward      = "loyalty-reward"
	RuleBalanceProtection  = "balance-protection"
	RulePremiumUpsell      = "premium-upsell"
	RuleEngagementCampaign = "engagement-campaign"
)

// Recommendation messages of the built-in rule set.
const (
	MessageLoyaltyReward      = "Offer Loyalty Reward Program to increase customer engagement."
	MessageBalanceProtection  = "Provide Balance Protection Plan or Financial Advisory Service."
	MessagePremiumUpsell      = "Promote Premium Banking Products for higher engagement."
	MessageEngagementCampaign = "Launch Personalized Engagement Campaign."
)

// Rule is a single-feature perturbation. Transform receives the baseline
// value of Field and returns the perturbed value, which is then clamped to
// [Min, Max]. A nil Applies means the rule always applies.
type Rule struct {
	Name      string
	Field     string
	Transform func(v float64) float64
	Min       float64
	Max       float64
	Applies   func(baseline churn.FeatureRecord) bool
	Message   string
}

func (r Rule) applies(baseline churn.FeatureRecord) bool {
	return r.Applies == nil || r.Applies(baseline)
}

// candidate returns a copy of baseline with the rule applied.
func (r Rule) candidate(baseline churn.FeatureRecord) churn.FeatureRecord {
	out := baseline.Clone()
	out[r.Field] = clamp(r.Transform(baseline[r.Field]), r.Min, r.Max)
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// DefaultRules returns a fresh copy of the built-in rules in registration order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:      RuleLoyaltyReward,
			Field:     churn.FieldTenure,
			Transform: func(v float64) float64 { return v + 2 },
			Min:       churn.MinTenure,
			Max:       churn.MaxTenure,
			Message:   MessageLoyaltyReward,
		},
		{
			Name:      RuleBalanceProtection,
			Field:     churn.FieldBalance,
			Transform: func(v float64) float64 { return v * 0.8 },
			Min:       0,
			Max:       math.MaxFloat64,
			Message:   MessageBalanceProtection,
		},
		{
			Name:      RulePremiumUpsell,
			Field:     churn.FieldNumOfProducts,
			Transform: func(v float64) float64 { return v + 1 },
			Min:       churn.MinNumOfProducts,
			Max:       churn.MaxNumOfProducts,
			Message:   MessagePremiumUpsell,
		},
		{
			Name:      RuleEngagementCampaign,
			Field:     churn.FieldIsActiveMember,
			Transform: func(float64) float64 { return 1 },
			Min:       0,
			Max:       1,
			Applies: func(baseline churn.FeatureRecord) bool {
				return baseline[churn.FieldIsActiveMember] == 0
			},
			Message: MessageEngagementCampaign,
		},
	}
}

// SelectRules returns the built-in rules with the given names, keeping
// registration order. No names selects every rule.
func SelectRules(names []string) ([]Rule, error) {
	all := DefaultRules()
	if len(names) == 0 {
		return all, nil
	}

	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	out := make([]Rule, 0, len(names))
	for _, r := range all {
		if want[r.Name] {
			out = append(out, r)
			delete(want, r.Name)
		}
	}
	for n := range want {
		return nil, fmt.Errorf("unknown retention rule %q", n)
	}
	return out, nil
}
