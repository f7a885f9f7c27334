package ruler

import (
	"context"
	"fmt"

	"github.com/qiniu/ruleview/internal/rules/model"
	"github.com/rs/zerolog/log"
)

// Manager validates and persists rule groups of the built-in source. It also
// serves as the declared-rule Source of that rule source.
type Manager struct {
	store Store
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Rules returns every declared namespace of the built-in source.
func (m *Manager) Rules(ctx context.Context) (model.RulerSnapshot, error) {
	return m.store.ListNamespaces(ctx)
}

func (m *Manager) GetNamespace(ctx context.Context, namespace string) ([]model.RulerRuleGroup, error) {
	if namespace == "" {
		return nil, fmt.Errorf("%w: empty namespace", ErrInvalidGroup)
	}
	return m.store.GetNamespace(ctx, namespace)
}

func (m *Manager) GetGroup(ctx context.Context, namespace, group string) (*model.RulerRuleGroup, error) {
	return m.store.GetGroup(ctx, namespace, group)
}

// UpsertGroup normalizes and validates def and writes it under namespace.
func (m *Manager) UpsertGroup(ctx context.Context, namespace string, def model.RuleGroupDefinition) (bool, error) {
	if namespace == "" {
		return false, fmt.Errorf("%w: empty namespace", ErrInvalidGroup)
	}
	def = NormalizeGroup(def)
	if err := ValidateGroup(def); err != nil {
		return false, err
	}
	created, err := m.store.UpsertGroup(ctx, namespace, def.Group())
	if err != nil {
		return false, err
	}
	log.Info().
		Str("namespace", namespace).
		Str("group", def.Name).
		Int("rule_count", len(def.Rules)).
		Bool("created", created).
		Msg("ruler group saved")
	return created, nil
}

func (m *Manager) DeleteGroup(ctx context.Context, namespace, group string) error {
	if err := m.store.DeleteGroup(ctx, namespace, group); err != nil {
		return err
	}
	log.Info().Str("namespace", namespace).Str("group", group).Msg("ruler group deleted")
	return nil
}

func (m *Manager) DeleteNamespace(ctx context.Context, namespace string) error {
	if err := m.store.DeleteNamespace(ctx, namespace); err != nil {
		return err
	}
	log.Info().Str("namespace", namespace).Msg("ruler namespace deleted")
	return nil
}
