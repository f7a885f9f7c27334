package view

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiniu/ruleview/internal/rules/model"
)

func sampleTree() []*model.CombinedRuleNamespace {
	activeAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	firing := &model.AlertingPromRule{
		Name:  "HighLatency",
		Query: "latency > 1",
		State: "firing",
		Alerts: []model.Alert{
			{Labels: map[string]string{"instance": "a"}, State: "firing", ActiveAt: &activeAt, Value: "2"},
		},
		Health:         "ok",
		LastEvaluation: activeAt,
	}
	return []*model.CombinedRuleNamespace{
		{
			Source: model.BuiltinSource(),
			Name:   "core",
			Groups: []*model.CombinedRuleGroup{{
				Name: "api",
				Rules: []*model.CombinedRule{
					{
						Name:        "HighLatency",
						Query:       "(latency > 1)",
						Labels:      map[string]string{"severity": "page"},
						Annotations: map[string]string{"summary": "slow", "runbook": "r"},
						RulerRule:   &model.AlertingRulerRule{Alert: "HighLatency", Expr: "(latency > 1)"},
						PromRule:    firing,
					},
					{
						Name:      "job:up:sum",
						Query:     "sum(up)",
						Labels:    map[string]string{},
						RulerRule: &model.RecordingRulerRule{Record: "job:up:sum", Expr: "sum(up)"},
					},
				},
			}},
		},
		{
			Source: model.ExternalSource("mimir"),
			Name:   "core",
			Groups: []*model.CombinedRuleGroup{{
				Name: "api",
				Rules: []*model.CombinedRule{{
					Name:     "Down",
					Query:    "up == 0",
					PromRule: &model.AlertingPromRule{Name: "Down", Query: "up == 0", Alerts: []model.Alert{{State: "pending"}}},
				}},
			}},
		},
	}
}

func TestNamespacesCountsAndOrder(t *testing.T) {
	views := Namespaces(sampleTree())
	require.Len(t, views, 2)

	assert.Equal(t, "core", views[0].Name)
	assert.Equal(t, model.SourceKindBuiltin, views[0].Source.Kind)
	assert.Equal(t, Counts{Total: 2, Alerting: 1, Recording: 1, Firing: 1, Matched: 1}, views[0].Counts)

	rules := views[0].Groups[0].Rules
	assert.Equal(t, "HighLatency", rules[0].Name)
	assert.Equal(t, model.MatchBoth, rules[0].Match)
	assert.Equal(t, StateFiring, rules[0].State)
	assert.Equal(t, "ok", rules[0].Health)
	assert.Equal(t, 1, rules[0].AlertCount)

	assert.Equal(t, model.RuleKindRecording, rules[1].Kind)
	assert.Empty(t, rules[1].State)
	assert.Equal(t, HealthUnknown, rules[1].Health)
	assert.Equal(t, model.MatchDeclaredOnly, rules[1].Match)
}

func TestRuleStateFromAlertsWhenMissing(t *testing.T) {
	views := Namespaces(sampleTree())
	r := views[1].Groups[0].Rules[0]
	assert.Equal(t, StatePending, r.State)
	assert.Equal(t, model.MatchEvaluatedOnly, r.Match)
	assert.Equal(t, 1, views[1].Counts.Pending)
}

func TestDeclaredOnlyAlertingRuleIsInactive(t *testing.T) {
	r := Rule(&model.CombinedRule{Name: "A", RulerRule: &model.AlertingRulerRule{Alert: "A"}})
	assert.Equal(t, StateInactive, r.State)
	assert.Equal(t, HealthUnknown, r.Health)
	assert.Nil(t, r.LastEvaluation)
}

func TestNewDetails(t *testing.T) {
	tree := sampleTree()

	ns, rule, err := Find(tree, model.BuiltinSourceKey, "core", "api", "HighLatency")
	require.NoError(t, err)
	d := NewDetails(ns, "api", rule)
	assert.Equal(t, map[string]string{"severity": "page"}, d.Labels)
	assert.Equal(t, "latency > 1", d.Expression, "evaluated query is preferred")
	assert.Equal(t, []Annotation{{Key: "runbook", Value: "r"}, {Key: "summary", Value: "slow"}}, d.Annotations)
	assert.Empty(t, d.DataSource, "built-in source has no data source")
	require.Len(t, d.Instances, 1)
	assert.Equal(t, "a", d.Instances[0].Labels["instance"])

	ns, rule, err = Find(tree, model.BuiltinSourceKey, "core", "api", "job:up:sum")
	require.NoError(t, err)
	d = NewDetails(ns, "api", rule)
	assert.Nil(t, d.Labels, "empty labels are omitted")
	assert.Equal(t, "sum(up)", d.Expression)
	assert.Nil(t, d.Annotations)
	assert.Nil(t, d.Instances)

	ns, rule, err = Find(tree, "mimir", "core", "api", "Down")
	require.NoError(t, err)
	d = NewDetails(ns, "api", rule)
	assert.Equal(t, "mimir", d.DataSource)
}

func TestDetailsJSONOmitsEmptySections(t *testing.T) {
	tree := sampleTree()
	ns, rule, err := Find(tree, model.BuiltinSourceKey, "core", "api", "job:up:sum")
	require.NoError(t, err)

	data, err := json.Marshal(NewDetails(ns, "api", rule))
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"labels", "annotations", "dataSource", "instances"} {
		assert.NotContains(t, raw, key)
	}
	assert.Equal(t, "sum(up)", raw["expression"])
}

func TestFindNotFound(t *testing.T) {
	tree := sampleTree()
	cases := []struct{ source, ns, group, rule string }{
		{"nope", "core", "api", "HighLatency"},
		{model.BuiltinSourceKey, "other", "api", "HighLatency"},
		{model.BuiltinSourceKey, "core", "other", "HighLatency"},
		{model.BuiltinSourceKey, "core", "api", "Missing"},
	}
	for _, c := range cases {
		_, _, err := Find(tree, c.source, c.ns, c.group, c.rule)
		var nf *model.RuleNotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, c.rule, nf.Rule)
	}
}

func TestFilterSource(t *testing.T) {
	tree := sampleTree()
	assert.Len(t, FilterSource(tree, ""), 2)
	got := FilterSource(tree, "mimir")
	require.Len(t, got, 1)
	assert.Equal(t, "mimir", got[0].Source.Name)
	assert.Empty(t, FilterSource(tree, "unknown"))
}

func TestFormatLabels(t *testing.T) {
	assert.Equal(t, "a=1, b=2", FormatLabels(map[string]string{"b": "2", "a": "1"}))
	assert.Empty(t, FormatLabels(nil))
}
