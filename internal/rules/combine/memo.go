package combine

import (
	"strings"
	"sync"

	"github.com/qiniu/ruleview/internal/rules/model"
)

// Memoizer caches the most recent reconciliation keyed on the identity of
// its inputs. Callers must treat returned trees as read-only, since a hit
// hands the same tree to every caller.
type Memoizer struct {
	mu     sync.Mutex
	key    string
	result []*model.CombinedRuleNamespace
	stats  Stats
	valid  bool
}

func NewMemoizer() *Memoizer { return &Memoizer{} }

// Reconcile returns the cached tree when sources and both snapshot versions
// are unchanged, and rebuilds it otherwise. The boolean reports a cache hit.
// Empty versions are never cached.
func (m *Memoizer) Reconcile(sources []model.RuleSource,
	declaredVersion string, declared map[string]model.RulerSnapshot,
	evaluatedVersion string, evaluated map[string][]model.PromNamespace,
) ([]*model.CombinedRuleNamespace, Stats, bool) {
	if declaredVersion == "" || evaluatedVersion == "" {
		out, stats := ReconcileWithStats(sources, declared, evaluated)
		return out, stats, false
	}
	key := memoKey(sources, declaredVersion, evaluatedVersion)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.valid && m.key == key {
		return m.result, m.stats, true
	}
	m.result, m.stats = ReconcileWithStats(sources, declared, evaluated)
	m.key = key
	m.valid = true
	return m.result, m.stats, false
}

// Reset drops the cached tree.
func (m *Memoizer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.valid = false
	m.result = nil
	m.stats = nil
	m.key = ""
}

func memoKey(sources []model.RuleSource, declaredVersion, evaluatedVersion string) string {
	var b strings.Builder
	for _, s := range sources {
		b.WriteString(string(s.Kind))
		b.WriteByte(':')
		b.WriteString(s.Name)
		b.WriteByte('|')
	}
	b.WriteString(declaredVersion)
	b.WriteByte('|')
	b.WriteString(evaluatedVersion)
	return b.String()
}
