// Package service serves the combined rule view on top of the snapshot
// poller and manages the built-in rule groups.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/qiniu/ruleview/internal/rules/combine"
	"github.com/qiniu/ruleview/internal/rules/metrics"
	"github.com/qiniu/ruleview/internal/rules/model"
	"github.com/qiniu/ruleview/internal/rules/ruler"
	"github.com/qiniu/ruleview/internal/rules/snapshot"
	"github.com/qiniu/ruleview/internal/rules/view"
)

// ErrNoBuiltinSource is returned by the ruler operations when no built-in
// rule source is configured.
var ErrNoBuiltinSource = errors.New("no builtin rule source configured")

// Snapshots provides the current rule snapshot.
type Snapshots interface {
	Current() *snapshot.Snapshot
	Refresh(ctx context.Context) (*snapshot.Snapshot, error)
}

// RuleService reconciles the current snapshot on demand. Reconciliation is
// memoized on the snapshot versions, so repeated reads between two polls
// share one tree.
type RuleService struct {
	snapshots Snapshots
	memo      *combine.Memoizer
	metrics   *metrics.Metrics
	manager   *ruler.Manager
}

// NewRuleService creates the service. manager may be nil when no built-in
// source is configured.
func NewRuleService(snapshots Snapshots, manager *ruler.Manager, m *metrics.Metrics) *RuleService {
	return &RuleService{
		snapshots: snapshots,
		memo:      combine.NewMemoizer(),
		metrics:   m,
		manager:   manager,
	}
}

// Tree returns the combined rule tree of the current snapshot together with
// the snapshot it was built from.
func (s *RuleService) Tree(ctx context.Context) ([]*model.CombinedRuleNamespace, *snapshot.Snapshot) {
	snap := s.snapshots.Current()
	start := time.Now()
	tree, stats, hit := s.memo.Reconcile(snap.Sources,
		snap.DeclaredVersion, snap.Declared,
		snap.EvaluatedVersion, snap.Evaluated)
	elapsed := time.Since(start)
	s.metrics.ObserveReconcile(hit, elapsed, stats)
	s.metrics.SnapshotAge(snap.FetchedAt)
	if !hit {
		for key, st := range stats {
			log.Debug().
				Str("source", key).
				Str("version", snap.Version).
				Int("namespaces", st.Namespaces).
				Int("matched", st.Matched).
				Int("declared_only", st.DeclaredOnly).
				Int("evaluated_only", st.EvaluatedOnly).
				Dur("elapsed", elapsed).
				Msg("rules reconciled")
		}
	}
	return tree, snap
}

// Namespaces returns the combined namespaces, optionally limited to one
// source key, and the snapshot they were built from.
func (s *RuleService) Namespaces(ctx context.Context, sourceKey string) ([]view.NamespaceView, *snapshot.Snapshot, error) {
	tree, snap := s.Tree(ctx)
	if sourceKey != "" && !hasSource(snap.Sources, sourceKey) {
		return nil, nil, &model.SourceNotFoundError{Source: sourceKey}
	}
	return view.Namespaces(view.FilterSource(tree, sourceKey)), snap, nil
}

// Details returns the detail view of one rule.
func (s *RuleService) Details(ctx context.Context, sourceKey, namespace, group, rule string) (*view.Details, error) {
	tree, snap := s.Tree(ctx)
	if !hasSource(snap.Sources, sourceKey) {
		return nil, &model.SourceNotFoundError{Source: sourceKey}
	}
	ns, r, err := view.Find(tree, sourceKey, namespace, group, rule)
	if err != nil {
		return nil, err
	}
	d := view.NewDetails(ns, group, r)
	return &d, nil
}

// Sources lists the configured rule sources.
func (s *RuleService) Sources() []model.RuleSource {
	return s.snapshots.Current().Sources
}

// Snapshot returns the current snapshot.
func (s *RuleService) Snapshot() *snapshot.Snapshot {
	return s.snapshots.Current()
}

// Refresh fetches a new snapshot right away.
func (s *RuleService) Refresh(ctx context.Context) (*snapshot.Snapshot, error) {
	return s.snapshots.Refresh(ctx)
}

func hasSource(sources []model.RuleSource, key string) bool {
	for _, src := range sources {
		if src.Key() == key {
			return true
		}
	}
	return false
}
