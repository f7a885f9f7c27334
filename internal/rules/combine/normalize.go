package combine

import (
	"maps"
	"sort"
	"strings"
	"unicode"

	"github.com/qiniu/ruleview/internal/rules/model"
)

// NormalizeQuery returns a comparison key for a rule expression. The ruler
// and the evaluator may render the same expression differently, so the key
// drops one outer pair of parentheses, removes all whitespace and sorts the
// remaining characters.
//
// The key only captures the character multiset: "a+b" and "b+a" collide, as
// does any pair of distinct expressions that are anagrams of each other.
// Matching also requires equal names and labels, which keeps collisions rare
// in practice.
func NormalizeQuery(query string) string {
	if len(query) > 1 && query[0] == '(' && query[len(query)-1] == ')' {
		query = query[1 : len(query)-1]
	}
	chars := make([]rune, 0, len(query))
	for _, r := range query {
		if unicode.IsSpace(r) {
			continue
		}
		chars = append(chars, r)
	}
	sort.Slice(chars, func(i, j int) bool { return chars[i] < chars[j] })
	var b strings.Builder
	b.Grow(len(chars))
	for _, r := range chars {
		b.WriteRune(r)
	}
	return b.String()
}

// IsCombinedRuleEqualToPromRule reports whether an evaluation result belongs to
// the combined rule: same name, same normalized query, and deep-equal labels
// and annotations. Missing maps compare as empty, and annotations of a
// recording result are always empty.
func IsCombinedRuleEqualToPromRule(rule *model.CombinedRule, promRule model.PromRule) bool {
	name, query, labels, annotations := model.PromRuleFields(promRule)
	if rule.Name != name {
		return false
	}
	return NormalizeQuery(rule.Query) == NormalizeQuery(query) &&
		maps.Equal(rule.Labels, labels) &&
		maps.Equal(rule.Annotations, annotations)
}
