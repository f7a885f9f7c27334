package ruler

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/qiniu/ruleview/internal/rules/model"
)

// RuleFile is a Prometheus rule file.
type RuleFile struct {
	Groups []model.RuleGroupDefinition `yaml:"groups"`
}

// EncodeNamespaces renders a snapshot in the ruler list format read by
// ParseNamespaces, keeping namespace order.
func EncodeNamespaces(snapshot model.RulerSnapshot) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, ns := range snapshot {
		defs := make([]model.RuleGroupDefinition, 0, len(ns.Groups))
		for _, g := range ns.Groups {
			defs = append(defs, g.Definition())
		}
		var value yaml.Node
		if err := value.Encode(defs); err != nil {
			return nil, fmt.Errorf("failed to encode namespace %q: %w", ns.Name, err)
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: ns.Name},
			&value,
		)
	}
	return yaml.Marshal(root)
}

// EncodeRuleFile renders the groups of one namespace as a Prometheus rule
// file.
func EncodeRuleFile(groups []model.RulerRuleGroup) ([]byte, error) {
	f := RuleFile{Groups: make([]model.RuleGroupDefinition, 0, len(groups))}
	for _, g := range groups {
		f.Groups = append(f.Groups, g.Definition())
	}
	return yaml.Marshal(f)
}
