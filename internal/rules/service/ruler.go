package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/qiniu/ruleview/internal/rules/model"
)

// RulerNamespaces lists every built-in namespace with its groups.
func (s *RuleService) RulerNamespaces(ctx context.Context) (model.RulerSnapshot, error) {
	if s.manager == nil {
		return nil, ErrNoBuiltinSource
	}
	return s.manager.Rules(ctx)
}

func (s *RuleService) GetRulerNamespace(ctx context.Context, namespace string) ([]model.RulerRuleGroup, error) {
	if s.manager == nil {
		return nil, ErrNoBuiltinSource
	}
	return s.manager.GetNamespace(ctx, namespace)
}

func (s *RuleService) GetRulerGroup(ctx context.Context, namespace, group string) (*model.RulerRuleGroup, error) {
	if s.manager == nil {
		return nil, ErrNoBuiltinSource
	}
	return s.manager.GetGroup(ctx, namespace, group)
}

// UpsertRulerGroup writes a built-in group and refreshes the snapshot so
// the change is visible right away.
func (s *RuleService) UpsertRulerGroup(ctx context.Context, namespace string, def model.RuleGroupDefinition) (bool, error) {
	if s.manager == nil {
		return false, ErrNoBuiltinSource
	}
	created, err := s.manager.UpsertGroup(ctx, namespace, def)
	if err != nil {
		return false, err
	}
	s.refreshAfterWrite(ctx)
	return created, nil
}

func (s *RuleService) DeleteRulerGroup(ctx context.Context, namespace, group string) error {
	if s.manager == nil {
		return ErrNoBuiltinSource
	}
	if err := s.manager.DeleteGroup(ctx, namespace, group); err != nil {
		return err
	}
	s.refreshAfterWrite(ctx)
	return nil
}

func (s *RuleService) DeleteRulerNamespace(ctx context.Context, namespace string) error {
	if s.manager == nil {
		return ErrNoBuiltinSource
	}
	if err := s.manager.DeleteNamespace(ctx, namespace); err != nil {
		return err
	}
	s.refreshAfterWrite(ctx)
	return nil
}

func (s *RuleService) refreshAfterWrite(ctx context.Context) {
	if _, err := s.snapshots.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("refresh after ruler write failed")
	}
}
