package combine

import (
	"testing"

	"github.com/qiniu/ruleview/internal/rules/model"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeQuery(t *testing.T) {
	want := NormalizeQuery("up==1")
	assert.Equal(t, want, NormalizeQuery("(up == 1)"))
	assert.Equal(t, want, NormalizeQuery("up == 1 "))
	assert.Equal(t, want, NormalizeQuery("up ==\n 1"))
	assert.Equal(t, "1==pu", want)
}

func TestNormalizeQueryStripsOnlyOuterPairOnce(t *testing.T) {
	assert.Equal(t, NormalizeQuery("(a)"), NormalizeQuery("a"))
	assert.NotEqual(t, NormalizeQuery("((a))"), NormalizeQuery("a"))
	// no balance checking: both ends are dropped even if they do not pair up
	assert.Equal(t, NormalizeQuery("(a) + (b)"), NormalizeQuery("a)+(b"))
	assert.Equal(t, "(", NormalizeQuery("("))
	assert.Equal(t, "", NormalizeQuery(""))
	assert.Equal(t, "", NormalizeQuery("()"))
}

// The key only keeps the character multiset, so anagrams collide. This is a
// known source of false positives and is kept on purpose.
func TestNormalizeQueryAnagramsCollide(t *testing.T) {
	assert.Equal(t, NormalizeQuery("a+b"), NormalizeQuery("b+a"))
	assert.Equal(t, NormalizeQuery(`rate(x{a="1",b="2"}[5m])`), NormalizeQuery(`rate(x{b="2",a="1"}[5m])`))
	assert.NotEqual(t, NormalizeQuery("abc"), NormalizeQuery("abd"))
}

func TestIsCombinedRuleEqualToPromRule(t *testing.T) {
	combined := &model.CombinedRule{
		Name:        "HighLoad",
		Query:       "cpu > 0.9",
		Labels:      map[string]string{"team": "x"},
		Annotations: map[string]string{"summary": "load"},
	}

	tests := []struct {
		name string
		rule model.PromRule
		want bool
	}{
		{
			name: "equal after normalization",
			rule: &model.AlertingPromRule{Name: "HighLoad", Query: "(cpu>0.9)", Labels: map[string]string{"team": "x"}, Annotations: map[string]string{"summary": "load"}},
			want: true,
		},
		{
			name: "different name",
			rule: &model.AlertingPromRule{Name: "LowLoad", Query: "cpu > 0.9", Labels: map[string]string{"team": "x"}, Annotations: map[string]string{"summary": "load"}},
			want: false,
		},
		{
			name: "different labels",
			rule: &model.AlertingPromRule{Name: "HighLoad", Query: "cpu > 0.9", Labels: map[string]string{"team": "y"}, Annotations: map[string]string{"summary": "load"}},
			want: false,
		},
		{
			name: "missing annotations",
			rule: &model.AlertingPromRule{Name: "HighLoad", Query: "cpu > 0.9", Labels: map[string]string{"team": "x"}},
			want: false,
		},
		{
			name: "different query",
			rule: &model.AlertingPromRule{Name: "HighLoad", Query: "cpu > 0.8", Labels: map[string]string{"team": "x"}, Annotations: map[string]string{"summary": "load"}},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCombinedRuleEqualToPromRule(combined, tt.rule))
		})
	}
}

func TestIsCombinedRuleEqualToPromRuleMissingMapsAreEmpty(t *testing.T) {
	combined := &model.CombinedRule{Name: "job:up:sum", Query: "sum(up) by (job)"}
	assert.True(t, IsCombinedRuleEqualToPromRule(combined, &model.RecordingPromRule{Name: "job:up:sum", Query: "sum by (job) (up)"}))
	assert.True(t, IsCombinedRuleEqualToPromRule(combined, &model.AlertingPromRule{Name: "job:up:sum", Query: "sum(up) by (job)"}))
}
