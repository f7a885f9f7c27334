package model

import "encoding/json"

// RulerRule is a declared rule definition: either *AlertingRulerRule or
// *RecordingRulerRule.
type RulerRule interface {
	isRulerRule()
}

// AlertingRulerRule is an `alert:` entry of a ruler rule group.
type AlertingRulerRule struct {
	Alert       string            `json:"alert" yaml:"alert"`
	Expr        string            `json:"expr" yaml:"expr"`
	For         string            `json:"for,omitempty" yaml:"for,omitempty"`
	Labels      map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// RecordingRulerRule is a `record:` entry of a ruler rule group. Recording
// rules never carry annotations.
type RecordingRulerRule struct {
	Record string            `json:"record" yaml:"record"`
	Expr   string            `json:"expr" yaml:"expr"`
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

func (*AlertingRulerRule) isRulerRule()  {}
func (*RecordingRulerRule) isRulerRule() {}

// RulerRuleGroup is a named ordered sequence of declared rules.
type RulerRuleGroup struct {
	Name     string      `json:"name"`
	Interval string      `json:"interval,omitempty"`
	Rules    []RulerRule `json:"rules"`
}

// RulerNamespace holds the rule groups declared under one namespace.
type RulerNamespace struct {
	Name   string           `json:"name"`
	Groups []RulerRuleGroup `json:"groups"`
}

// RulerSnapshot is the declared side of one rule source. Slice order is the
// namespace insertion order.
type RulerSnapshot []RulerNamespace

// RulerRuleFields extracts the comparable fields of a declared rule. Recording
// rules always report empty annotations.
func RulerRuleFields(r RulerRule) (name, expr string, labels, annotations map[string]string) {
	switch rule := r.(type) {
	case *AlertingRulerRule:
		return rule.Alert, rule.Expr, orEmpty(rule.Labels), orEmpty(rule.Annotations)
	case *RecordingRulerRule:
		return rule.Record, rule.Expr, orEmpty(rule.Labels), map[string]string{}
	}
	return "", "", map[string]string{}, map[string]string{}
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

// RuleDefinition is the flat wire form of a declared rule as written in ruler
// YAML files and stored by the built-in store. Exactly one of Alert and
// Record is set.
type RuleDefinition struct {
	Record      string            `json:"record,omitempty" yaml:"record,omitempty"`
	Alert       string            `json:"alert,omitempty" yaml:"alert,omitempty"`
	Expr        string            `json:"expr" yaml:"expr"`
	For         string            `json:"for,omitempty" yaml:"for,omitempty"`
	Labels      map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// RulerRule converts the definition to its tagged form. A definition with a
// record name is a recording rule; everything else is an alerting rule.
func (d RuleDefinition) RulerRule() RulerRule {
	if d.Record != "" {
		return &RecordingRulerRule{Record: d.Record, Expr: d.Expr, Labels: d.Labels}
	}
	return &AlertingRulerRule{
		Alert:       d.Alert,
		Expr:        d.Expr,
		For:         d.For,
		Labels:      d.Labels,
		Annotations: d.Annotations,
	}
}

// DefinitionOf flattens a declared rule back into its wire form.
func DefinitionOf(r RulerRule) RuleDefinition {
	switch rule := r.(type) {
	case *AlertingRulerRule:
		return RuleDefinition{
			Alert:       rule.Alert,
			Expr:        rule.Expr,
			For:         rule.For,
			Labels:      rule.Labels,
			Annotations: rule.Annotations,
		}
	case *RecordingRulerRule:
		return RuleDefinition{Record: rule.Record, Expr: rule.Expr, Labels: rule.Labels}
	}
	return RuleDefinition{}
}

// RuleGroupDefinition is the wire form of a ruler rule group.
type RuleGroupDefinition struct {
	Name     string           `json:"name" yaml:"name"`
	Interval string           `json:"interval,omitempty" yaml:"interval,omitempty"`
	Rules    []RuleDefinition `json:"rules" yaml:"rules"`
}

// Group converts the wire form into a RulerRuleGroup.
func (d RuleGroupDefinition) Group() RulerRuleGroup {
	g := RulerRuleGroup{Name: d.Name, Interval: d.Interval, Rules: make([]RulerRule, 0, len(d.Rules))}
	for _, r := range d.Rules {
		g.Rules = append(g.Rules, r.RulerRule())
	}
	return g
}

// Definition converts the group into its wire form.
func (g RulerRuleGroup) Definition() RuleGroupDefinition {
	d := RuleGroupDefinition{Name: g.Name, Interval: g.Interval, Rules: make([]RuleDefinition, 0, len(g.Rules))}
	for _, r := range g.Rules {
		d.Rules = append(d.Rules, DefinitionOf(r))
	}
	return d
}

func (g RulerRuleGroup) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Definition())
}

func (g *RulerRuleGroup) UnmarshalJSON(data []byte) error {
	var d RuleGroupDefinition
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	*g = d.Group()
	return nil
}
