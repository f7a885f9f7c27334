package model

// CombinedRule is the unified view of one rule. RulerRule and PromRule are
// references into the input snapshots; at least one of them is set once a
// reconciliation pass has finished.
type CombinedRule struct {
	Name        string
	Query       string
	Labels      map[string]string
	Annotations map[string]string
	RulerRule   RulerRule
	PromRule    PromRule
}

// CombinedRuleGroup is a group of combined rules.
type CombinedRuleGroup struct {
	Name  string
	Rules []*CombinedRule
}

// CombinedRuleNamespace is one namespace of one rule source.
type CombinedRuleNamespace struct {
	Source RuleSource
	Name   string
	Groups []*CombinedRuleGroup
}

const (
	RuleKindAlerting  = "alerting"
	RuleKindRecording = "recording"
)

// Kind reports whether the rule is an alerting or a recording rule. The
// declared definition wins over the evaluation result when both are present.
func (r *CombinedRule) Kind() string {
	switch r.RulerRule.(type) {
	case *AlertingRulerRule:
		return RuleKindAlerting
	case *RecordingRulerRule:
		return RuleKindRecording
	}
	switch r.PromRule.(type) {
	case *AlertingPromRule:
		return RuleKindAlerting
	case *RecordingPromRule:
		return RuleKindRecording
	}
	return ""
}

// State returns the evaluated alert state ("inactive", "pending", "firing")
// or an empty string when the rule has no alerting evaluation result.
func (r *CombinedRule) State() string {
	if a, ok := r.PromRule.(*AlertingPromRule); ok {
		return a.State
	}
	return ""
}

// Alerts returns the live alert instances of the rule, if any.
func (r *CombinedRule) Alerts() []Alert {
	if a, ok := r.PromRule.(*AlertingPromRule); ok {
		return a.Alerts
	}
	return nil
}

const (
	MatchBoth          = "matched"
	MatchDeclaredOnly  = "declared_only"
	MatchEvaluatedOnly = "evaluated_only"
)

// Match classifies which sides contributed to the rule.
func (r *CombinedRule) Match() string {
	switch {
	case r.RulerRule != nil && r.PromRule != nil:
		return MatchBoth
	case r.RulerRule != nil:
		return MatchDeclaredOnly
	default:
		return MatchEvaluatedOnly
	}
}

// Group looks a group up by name.
func (ns *CombinedRuleNamespace) Group(name string) *CombinedRuleGroup {
	for _, g := range ns.Groups {
		if g.Name == name {
			return g
		}
	}
	return nil
}
