package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// PromRule is an evaluated rule as reported by a Prometheus-compatible rules
// API: either *AlertingPromRule or *RecordingPromRule.
type PromRule interface {
	isPromRule()
}

const (
	PromRuleTypeAlerting  = "alerting"
	PromRuleTypeRecording = "recording"
)

// Alert is one pending or firing instance of an alerting rule.
type Alert struct {
	Labels      map[string]string `json:"labels"`
	Annotations map[string]string `json:"annotations"`
	State       string            `json:"state"`
	ActiveAt    *time.Time        `json:"activeAt,omitempty"`
	Value       string            `json:"value"`
}

// AlertingPromRule is the evaluation result of an alerting rule.
type AlertingPromRule struct {
	Name           string            `json:"name"`
	Query          string            `json:"query"`
	Duration       float64           `json:"duration"`
	Labels         map[string]string `json:"labels,omitempty"`
	Annotations    map[string]string `json:"annotations,omitempty"`
	Alerts         []Alert           `json:"alerts,omitempty"`
	State          string            `json:"state,omitempty"`
	Health         string            `json:"health,omitempty"`
	LastError      string            `json:"lastError,omitempty"`
	LastEvaluation time.Time         `json:"lastEvaluation"`
	EvaluationTime float64           `json:"evaluationTime"`
}

// RecordingPromRule is the evaluation result of a recording rule.
type RecordingPromRule struct {
	Name           string            `json:"name"`
	Query          string            `json:"query"`
	Labels         map[string]string `json:"labels,omitempty"`
	Health         string            `json:"health,omitempty"`
	LastError      string            `json:"lastError,omitempty"`
	LastEvaluation time.Time         `json:"lastEvaluation"`
	EvaluationTime float64           `json:"evaluationTime"`
}

func (*AlertingPromRule) isPromRule()  {}
func (*RecordingPromRule) isPromRule() {}

// PromRuleGroup is a named ordered sequence of evaluation results.
type PromRuleGroup struct {
	Name     string
	File     string
	Interval float64
	Rules    []PromRule
}

// PromNamespace groups evaluated rule groups under one namespace name.
type PromNamespace struct {
	Name   string          `json:"name"`
	Groups []PromRuleGroup `json:"groups"`
}

// PromRuleFields extracts the comparable fields of an evaluated rule.
// Annotations are empty for anything that is not an alerting rule.
func PromRuleFields(r PromRule) (name, query string, labels, annotations map[string]string) {
	switch rule := r.(type) {
	case *AlertingPromRule:
		return rule.Name, rule.Query, orEmpty(rule.Labels), orEmpty(rule.Annotations)
	case *RecordingPromRule:
		return rule.Name, rule.Query, orEmpty(rule.Labels), map[string]string{}
	}
	return "", "", map[string]string{}, map[string]string{}
}

// promRuleJSON carries the rule type discriminator on the wire, the same way
// the Prometheus rules API does.
type promRuleJSON struct {
	Type string `json:"type"`
	AlertingPromRule
}

type promRuleGroupJSON struct {
	Name     string         `json:"name"`
	File     string         `json:"file"`
	Interval float64        `json:"interval"`
	Rules    []promRuleJSON `json:"rules"`
}

func (g PromRuleGroup) MarshalJSON() ([]byte, error) {
	out := promRuleGroupJSON{Name: g.Name, File: g.File, Interval: g.Interval, Rules: make([]promRuleJSON, 0, len(g.Rules))}
	for _, r := range g.Rules {
		switch rule := r.(type) {
		case *AlertingPromRule:
			out.Rules = append(out.Rules, promRuleJSON{Type: PromRuleTypeAlerting, AlertingPromRule: *rule})
		case *RecordingPromRule:
			out.Rules = append(out.Rules, promRuleJSON{
				Type: PromRuleTypeRecording,
				AlertingPromRule: AlertingPromRule{
					Name:           rule.Name,
					Query:          rule.Query,
					Labels:         rule.Labels,
					Health:         rule.Health,
					LastError:      rule.LastError,
					LastEvaluation: rule.LastEvaluation,
					EvaluationTime: rule.EvaluationTime,
				},
			})
		default:
			return nil, fmt.Errorf("unsupported rule type %T in group %s", r, g.Name)
		}
	}
	return json.Marshal(out)
}

func (g *PromRuleGroup) UnmarshalJSON(data []byte) error {
	var in promRuleGroupJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*g = PromRuleGroup{Name: in.Name, File: in.File, Interval: in.Interval, Rules: make([]PromRule, 0, len(in.Rules))}
	for i := range in.Rules {
		r := in.Rules[i]
		switch r.Type {
		case PromRuleTypeAlerting:
			rule := r.AlertingPromRule
			g.Rules = append(g.Rules, &rule)
		case PromRuleTypeRecording:
			g.Rules = append(g.Rules, &RecordingPromRule{
				Name:           r.Name,
				Query:          r.Query,
				Labels:         r.Labels,
				Health:         r.Health,
				LastError:      r.LastError,
				LastEvaluation: r.LastEvaluation,
				EvaluationTime: r.EvaluationTime,
			})
		default:
			return fmt.Errorf("unknown rule type %q in group %s", r.Type, in.Name)
		}
	}
	return nil
}
