package ruler

import (
	"context"
	"sync"

	"github.com/qiniu/ruleview/internal/rules/model"
)

// MemStore is an in-memory Store. It is intended for unit tests and
// single-node deployments without a database; contents are lost on restart.
type MemStore struct {
	mu         sync.RWMutex
	namespaces []string
	groups     map[string][]model.RulerRuleGroup
}

func NewMemStore() *MemStore {
	return &MemStore{groups: make(map[string][]model.RulerRuleGroup)}
}

func (s *MemStore) ListNamespaces(ctx context.Context) (model.RulerSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(model.RulerSnapshot, 0, len(s.namespaces))
	for _, ns := range s.namespaces {
		out = append(out, model.RulerNamespace{Name: ns, Groups: cloneGroups(s.groups[ns])})
	}
	return out, nil
}

func (s *MemStore) GetNamespace(ctx context.Context, namespace string) ([]model.RulerRuleGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	groups, ok := s.groups[namespace]
	if !ok {
		return nil, ErrNamespaceNotFound
	}
	return cloneGroups(groups), nil
}

func (s *MemStore) GetGroup(ctx context.Context, namespace, group string) (*model.RulerRuleGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.groups[namespace] {
		if g.Name == group {
			out := cloneGroup(g)
			return &out, nil
		}
	}
	return nil, ErrGroupNotFound
}

func (s *MemStore) UpsertGroup(ctx context.Context, namespace string, group model.RulerRuleGroup) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	groups, ok := s.groups[namespace]
	if !ok {
		s.namespaces = append(s.namespaces, namespace)
	}
	for i := range groups {
		if groups[i].Name == group.Name {
			groups[i] = cloneGroup(group)
			return false, nil
		}
	}
	s.groups[namespace] = append(groups, cloneGroup(group))
	return true, nil
}

func (s *MemStore) DeleteGroup(ctx context.Context, namespace, group string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	groups := s.groups[namespace]
	for i := range groups {
		if groups[i].Name != group {
			continue
		}
		groups = append(groups[:i:i], groups[i+1:]...)
		if len(groups) == 0 {
			s.removeNamespace(namespace)
		} else {
			s.groups[namespace] = groups
		}
		return nil
	}
	return ErrGroupNotFound
}

func (s *MemStore) DeleteNamespace(ctx context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[namespace]; !ok {
		return ErrNamespaceNotFound
	}
	s.removeNamespace(namespace)
	return nil
}

func (s *MemStore) removeNamespace(namespace string) {
	delete(s.groups, namespace)
	for i, ns := range s.namespaces {
		if ns == namespace {
			s.namespaces = append(s.namespaces[:i:i], s.namespaces[i+1:]...)
			return
		}
	}
}

// cloneGroup copies through the wire form so callers never share rule
// pointers with the store.
func cloneGroup(g model.RulerRuleGroup) model.RulerRuleGroup {
	return g.Definition().Group()
}

func cloneGroups(groups []model.RulerRuleGroup) []model.RulerRuleGroup {
	out := make([]model.RulerRuleGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, cloneGroup(g))
	}
	return out
}
