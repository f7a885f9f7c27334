// Package combine merges declared ruler rule groups with evaluated
// Prometheus rule groups into one CombinedRuleNamespace tree per rule source.
package combine

import (
	"maps"

	"github.com/qiniu/ruleview/internal/rules/model"
)

// SourceStats counts how each combined rule of one source came together.
type SourceStats struct {
	Namespaces    int
	Groups        int
	Matched       int
	DeclaredOnly  int
	EvaluatedOnly int
}

// Stats holds per-source statistics of one reconciliation, keyed by source key.
type Stats map[string]SourceStats

// Reconcile builds the combined rule tree for every source. Declared and
// evaluated inputs are read-only; a missing entry for a source is treated as
// empty. Sources never merge with each other and the result follows the
// order of sources.
func Reconcile(sources []model.RuleSource, declared map[string]model.RulerSnapshot, evaluated map[string][]model.PromNamespace) []*model.CombinedRuleNamespace {
	out, _ := ReconcileWithStats(sources, declared, evaluated)
	return out
}

// ReconcileWithStats is Reconcile that also reports per-source statistics.
func ReconcileWithStats(sources []model.RuleSource, declared map[string]model.RulerSnapshot, evaluated map[string][]model.PromNamespace) ([]*model.CombinedRuleNamespace, Stats) {
	out := make([]*model.CombinedRuleNamespace, 0)
	stats := make(Stats, len(sources))
	for _, source := range sources {
		key := source.Key()
		namespaces := reconcileSource(source, declared[key], evaluated[key])
		stats[key] = statsOf(namespaces)
		out = append(out, namespaces...)
	}
	return out, stats
}

// groupBuilder keeps the normalized query of every rule next to it so each
// rule is normalized once per pass rather than once per comparison.
type groupBuilder struct {
	group *model.CombinedRuleGroup
	keys  []string
}

func (b *groupBuilder) add(rule *model.CombinedRule) {
	b.group.Rules = append(b.group.Rules, rule)
	b.keys = append(b.keys, NormalizeQuery(rule.Query))
}

// match returns the first rule without an evaluation result that is equal to
// promRule, or nil.
func (b *groupBuilder) match(promRule model.PromRule) *model.CombinedRule {
	name, query, labels, annotations := model.PromRuleFields(promRule)
	var key string
	normalized := false
	for i, rule := range b.group.Rules {
		if rule.PromRule != nil || rule.Name != name {
			continue
		}
		if !normalized {
			key = NormalizeQuery(query)
			normalized = true
		}
		if b.keys[i] == key && maps.Equal(rule.Labels, labels) && maps.Equal(rule.Annotations, annotations) {
			return rule
		}
	}
	return nil
}

type namespaceBuilder struct {
	ns     *model.CombinedRuleNamespace
	groups []*groupBuilder
}

func (b *namespaceBuilder) group(name string) *groupBuilder {
	for _, g := range b.groups {
		if g.group.Name == name {
			return g
		}
	}
	g := &groupBuilder{group: &model.CombinedRuleGroup{Name: name, Rules: []*model.CombinedRule{}}}
	b.groups = append(b.groups, g)
	b.ns.Groups = append(b.ns.Groups, g.group)
	return g
}

func reconcileSource(source model.RuleSource, declared model.RulerSnapshot, evaluated []model.PromNamespace) []*model.CombinedRuleNamespace {
	var order []*namespaceBuilder
	byName := make(map[string]*namespaceBuilder)

	newNamespace := func(name string) *namespaceBuilder {
		return &namespaceBuilder{ns: &model.CombinedRuleNamespace{Source: source, Name: name, Groups: []*model.CombinedRuleGroup{}}}
	}

	// declared rules first, one combined rule per definition
	for _, rns := range declared {
		nb := newNamespace(rns.Name)
		for _, rg := range rns.Groups {
			gb := &groupBuilder{group: &model.CombinedRuleGroup{Name: rg.Name, Rules: make([]*model.CombinedRule, 0, len(rg.Rules))}}
			for _, r := range rg.Rules {
				if r == nil {
					continue
				}
				gb.add(fromRulerRule(r))
			}
			nb.groups = append(nb.groups, gb)
			nb.ns.Groups = append(nb.ns.Groups, gb.group)
		}
		if existing, ok := byName[rns.Name]; ok {
			// a repeated namespace keeps its position and takes the later groups
			existing.ns.Groups = nb.ns.Groups
			existing.groups = nb.groups
			continue
		}
		byName[rns.Name] = nb
		order = append(order, nb)
	}

	// then fold in evaluation results
	for _, pns := range evaluated {
		nb, ok := byName[pns.Name]
		if !ok {
			nb = newNamespace(pns.Name)
			byName[pns.Name] = nb
			order = append(order, nb)
		}
		for _, pg := range pns.Groups {
			gb := nb.group(pg.Name)
			for _, pr := range pg.Rules {
				if pr == nil {
					continue
				}
				if existing := gb.match(pr); existing != nil {
					existing.PromRule = pr
					continue
				}
				gb.add(fromPromRule(pr))
			}
		}
	}

	out := make([]*model.CombinedRuleNamespace, 0, len(order))
	for _, nb := range order {
		out = append(out, nb.ns)
	}
	return out
}

func fromRulerRule(r model.RulerRule) *model.CombinedRule {
	name, expr, labels, annotations := model.RulerRuleFields(r)
	return &model.CombinedRule{
		Name:        name,
		Query:       expr,
		Labels:      labels,
		Annotations: annotations,
		RulerRule:   r,
	}
}

func fromPromRule(r model.PromRule) *model.CombinedRule {
	name, query, labels, annotations := model.PromRuleFields(r)
	return &model.CombinedRule{
		Name:        name,
		Query:       query,
		Labels:      labels,
		Annotations: annotations,
		PromRule:    r,
	}
}

func statsOf(namespaces []*model.CombinedRuleNamespace) SourceStats {
	var s SourceStats
	s.Namespaces = len(namespaces)
	for _, ns := range namespaces {
		s.Groups += len(ns.Groups)
		for _, g := range ns.Groups {
			for _, r := range g.Rules {
				switch r.Match() {
				case model.MatchBoth:
					s.Matched++
				case model.MatchDeclaredOnly:
					s.DeclaredOnly++
				case model.MatchEvaluatedOnly:
					s.EvaluatedOnly++
				}
			}
		}
	}
	return s
}
