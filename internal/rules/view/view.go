// Package view turns the combined rule tree into the JSON shapes served by
// the API and printed by the CLI.
package view

import (
	"sort"
	"strings"
	"time"

	"github.com/qiniu/ruleview/internal/rules/model"
)

const (
	StateInactive = "inactive"
	StatePending  = "pending"
	StateFiring   = "firing"

	HealthUnknown = "unknown"
)

// Counts summarizes the rules below a namespace or group.
type Counts struct {
	Total     int `json:"total"`
	Alerting  int `json:"alerting"`
	Recording int `json:"recording"`
	Firing    int `json:"firing"`
	Pending   int `json:"pending"`
	Matched   int `json:"matched"`
}

func (c *Counts) add(r RuleView) {
	c.Total++
	switch r.Kind {
	case model.RuleKindAlerting:
		c.Alerting++
	case model.RuleKindRecording:
		c.Recording++
	}
	switch r.State {
	case StateFiring:
		c.Firing++
	case StatePending:
		c.Pending++
	}
	if r.Match == model.MatchBoth {
		c.Matched++
	}
}

func (c *Counts) merge(o Counts) {
	c.Total += o.Total
	c.Alerting += o.Alerting
	c.Recording += o.Recording
	c.Firing += o.Firing
	c.Pending += o.Pending
	c.Matched += o.Matched
}

type NamespaceView struct {
	Source model.RuleSource `json:"source"`
	Name   string           `json:"name"`
	Groups []GroupView      `json:"groups"`
	Counts Counts           `json:"counts"`
}

type GroupView struct {
	Name   string     `json:"name"`
	Rules  []RuleView `json:"rules"`
	Counts Counts     `json:"counts"`
}

// RuleView is one combined rule. Kind is the discriminator between alerting
// and recording rules; State is only set for alerting rules.
type RuleView struct {
	Name           string            `json:"name"`
	Kind           string            `json:"kind"`
	Query          string            `json:"query"`
	Labels         map[string]string `json:"labels,omitempty"`
	Annotations    map[string]string `json:"annotations,omitempty"`
	Match          string            `json:"match"`
	State          string            `json:"state,omitempty"`
	Health         string            `json:"health"`
	LastError      string            `json:"lastError,omitempty"`
	LastEvaluation *time.Time        `json:"lastEvaluation,omitempty"`
	AlertCount     int               `json:"alertCount,omitempty"`
}

// Namespaces renders the whole tree, keeping its order.
func Namespaces(tree []*model.CombinedRuleNamespace) []NamespaceView {
	out := make([]NamespaceView, 0, len(tree))
	for _, ns := range tree {
		out = append(out, Namespace(ns))
	}
	return out
}

func Namespace(ns *model.CombinedRuleNamespace) NamespaceView {
	v := NamespaceView{Source: ns.Source, Name: ns.Name, Groups: make([]GroupView, 0, len(ns.Groups))}
	for _, g := range ns.Groups {
		gv := Group(g)
		v.Counts.merge(gv.Counts)
		v.Groups = append(v.Groups, gv)
	}
	return v
}

func Group(g *model.CombinedRuleGroup) GroupView {
	v := GroupView{Name: g.Name, Rules: make([]RuleView, 0, len(g.Rules))}
	for _, r := range g.Rules {
		rv := Rule(r)
		v.Counts.add(rv)
		v.Rules = append(v.Rules, rv)
	}
	return v
}

// Rule renders a single combined rule. Without an evaluation result an
// alerting rule is reported inactive with unknown health.
func Rule(r *model.CombinedRule) RuleView {
	v := RuleView{
		Name:        r.Name,
		Kind:        r.Kind(),
		Query:       r.Query,
		Labels:      r.Labels,
		Annotations: r.Annotations,
		Match:       r.Match(),
		Health:      HealthUnknown,
	}
	if v.Kind == model.RuleKindAlerting {
		v.State = StateInactive
	}
	switch p := r.PromRule.(type) {
	case *model.AlertingPromRule:
		v.State = alertingState(p)
		v.AlertCount = len(p.Alerts)
		fillEvaluation(&v, p.Health, p.LastError, p.LastEvaluation)
	case *model.RecordingPromRule:
		fillEvaluation(&v, p.Health, p.LastError, p.LastEvaluation)
	}
	return v
}

func fillEvaluation(v *RuleView, health, lastError string, lastEvaluation time.Time) {
	if health != "" {
		v.Health = health
	}
	v.LastError = lastError
	if !lastEvaluation.IsZero() {
		t := lastEvaluation
		v.LastEvaluation = &t
	}
}

// alertingState lowercases the reported state. Older rule engines omit the
// rule state, in which case the most severe alert state is used.
func alertingState(p *model.AlertingPromRule) string {
	if s := strings.ToLower(p.State); s != "" {
		return s
	}
	state := StateInactive
	for _, a := range p.Alerts {
		if s := strings.ToLower(a.State); stateRank(s) > stateRank(state) {
			state = s
		}
	}
	return state
}

func stateRank(s string) int {
	switch s {
	case StateFiring:
		return 2
	case StatePending:
		return 1
	}
	return 0
}

// FormatLabels renders labels as `k=v` pairs sorted by key.
func FormatLabels(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+labels[k])
	}
	return strings.Join(parts, ", ")
}
