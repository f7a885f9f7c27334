package ruler

import (
	"strings"

	"github.com/qiniu/ruleview/internal/rules/model"
)

// NormalizeLabels returns a new map with keys and values trimmed and empty
// entries removed. Label names are case sensitive and are not lowercased. It
// does not mutate the input map and returns nil for an empty result, so a
// group written without labels reads back the same way.
func NormalizeLabels(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	result := make(map[string]string, len(in))
	for rawKey, rawVal := range in {
		key := strings.TrimSpace(rawKey)
		if key == "" {
			continue
		}
		val := strings.TrimSpace(rawVal)
		if val == "" {
			continue
		}
		result[key] = val
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

// NormalizeGroup trims names, expressions and labels of every rule in the
// group. Annotation values are kept verbatim because templates may rely on
// surrounding whitespace.
func NormalizeGroup(def model.RuleGroupDefinition) model.RuleGroupDefinition {
	out := model.RuleGroupDefinition{
		Name:     strings.TrimSpace(def.Name),
		Interval: strings.TrimSpace(def.Interval),
		Rules:    make([]model.RuleDefinition, 0, len(def.Rules)),
	}
	for _, r := range def.Rules {
		rule := model.RuleDefinition{
			Record: strings.TrimSpace(r.Record),
			Alert:  strings.TrimSpace(r.Alert),
			Expr:   strings.TrimSpace(r.Expr),
			For:    strings.TrimSpace(r.For),
			Labels: NormalizeLabels(r.Labels),
		}
		if len(r.Annotations) > 0 {
			rule.Annotations = make(map[string]string, len(r.Annotations))
			for k, v := range r.Annotations {
				if k = strings.TrimSpace(k); k != "" {
					rule.Annotations[k] = v
				}
			}
		}
		out.Rules = append(out.Rules, rule)
	}
	return out
}
