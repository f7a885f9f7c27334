package view

import "github.com/qiniu/ruleview/internal/rules/model"

// Find looks a rule up by source key, namespace, group and rule name. When
// several rules share a name the first one wins.
func Find(tree []*model.CombinedRuleNamespace, sourceKey, namespace, group, rule string) (*model.CombinedRuleNamespace, *model.CombinedRule, error) {
	notFound := &model.RuleNotFoundError{Source: sourceKey, Namespace: namespace, Group: group, Rule: rule}
	for _, ns := range tree {
		if ns.Source.Key() != sourceKey || ns.Name != namespace {
			continue
		}
		g := ns.Group(group)
		if g == nil {
			return nil, nil, notFound
		}
		for _, r := range g.Rules {
			if r.Name == rule {
				return ns, r, nil
			}
		}
		return nil, nil, notFound
	}
	return nil, nil, notFound
}

// FilterSource keeps only the namespaces of the given source key. An empty
// key keeps everything.
func FilterSource(tree []*model.CombinedRuleNamespace, sourceKey string) []*model.CombinedRuleNamespace {
	if sourceKey == "" {
		return tree
	}
	out := make([]*model.CombinedRuleNamespace, 0)
	for _, ns := range tree {
		if ns.Source.Key() == sourceKey {
			out = append(out, ns)
		}
	}
	return out
}
