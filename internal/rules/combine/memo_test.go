package combine

import (
	"testing"

	"github.com/qiniu/ruleview/internal/rules/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoizer(t *testing.T) {
	sources := []model.RuleSource{external}
	declared := map[string]model.RulerSnapshot{
		external.Key(): {{Name: "n1", Groups: []model.RulerRuleGroup{{Name: "g1", Rules: []model.RulerRule{alertRule("A", "a", nil)}}}}},
	}
	m := NewMemoizer()

	first, stats, hit := m.Reconcile(sources, "d1", declared, "e1", nil)
	require.False(t, hit)
	assert.Equal(t, 1, stats[external.Key()].DeclaredOnly)

	second, _, hit := m.Reconcile(sources, "d1", declared, "e1", nil)
	require.True(t, hit)
	assert.Same(t, first[0], second[0])

	third, _, hit := m.Reconcile(sources, "d1", declared, "e2", nil)
	require.False(t, hit)
	assert.NotSame(t, first[0], third[0])

	_, _, hit = m.Reconcile([]model.RuleSource{external, model.BuiltinSource()}, "d1", declared, "e2", nil)
	assert.False(t, hit, "a changed source list must rebuild")

	m.Reset()
	_, _, hit = m.Reconcile([]model.RuleSource{external, model.BuiltinSource()}, "d1", declared, "e2", nil)
	assert.False(t, hit)
}

func TestMemoizerSkipsUnversionedInputs(t *testing.T) {
	m := NewMemoizer()
	_, _, hit := m.Reconcile([]model.RuleSource{external}, "", nil, "", nil)
	assert.False(t, hit)
	_, _, hit = m.Reconcile([]model.RuleSource{external}, "", nil, "", nil)
	assert.False(t, hit)
}
