package view

import (
	"sort"

	"github.com/qiniu/ruleview/internal/rules/model"
)

// Annotation is one key/value pair of a rule's annotations.
type Annotation struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Details is the detail view of one combined rule.
type Details struct {
	Source      model.RuleSource  `json:"source"`
	Namespace   string            `json:"namespace"`
	Group       string            `json:"group"`
	Rule        RuleView          `json:"rule"`
	Labels      map[string]string `json:"labels,omitempty"`
	Expression  string            `json:"expression"`
	Annotations []Annotation      `json:"annotations,omitempty"`
	DataSource  string            `json:"dataSource,omitempty"`
	Instances   []model.Alert     `json:"instances,omitempty"`
}

// NewDetails builds the detail view of rule inside ns and group.
//   - labels are omitted when empty
//   - the expression is the evaluated query when present, else the declared one
//   - the data source is only named for external sources
//   - instances are only listed for alerting results that have alerts
func NewDetails(ns *model.CombinedRuleNamespace, group string, rule *model.CombinedRule) Details {
	d := Details{
		Source:      ns.Source,
		Namespace:   ns.Name,
		Group:       group,
		Rule:        Rule(rule),
		Expression:  rule.Query,
		Annotations: sortedAnnotations(rule.Annotations),
	}
	if len(rule.Labels) > 0 {
		d.Labels = rule.Labels
	}
	if _, query, _, _ := model.PromRuleFields(rule.PromRule); rule.PromRule != nil && query != "" {
		d.Expression = query
	}
	if !ns.Source.IsBuiltin() {
		d.DataSource = ns.Source.Name
	}
	if p, ok := rule.PromRule.(*model.AlertingPromRule); ok && len(p.Alerts) > 0 {
		d.Instances = p.Alerts
	}
	return d
}

func sortedAnnotations(m map[string]string) []Annotation {
	if len(m) == 0 {
		return nil
	}
	out := make([]Annotation, 0, len(m))
	for k, v := range m {
		out = append(out, Annotation{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
