// Package snapshot fetches the declared and evaluated rule groups of every
// configured rule source and keeps the latest consistent copy around.
package snapshot

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/qiniu/ruleview/internal/rules/model"
)

// versionSpace namespaces the content-derived snapshot versions.
var versionSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/qiniu/ruleview/snapshot"))

const (
	FallbackLastKnown = "last_known"
	FallbackEmpty     = "empty"
)

// FetchError records a side of a source that could not be fetched and what
// was used instead.
type FetchError struct {
	Source   string `json:"source"`
	Side     string `json:"side"`
	Message  string `json:"message"`
	Fallback string `json:"fallback"`
}

// Snapshot is one consistent view of all rule sources. Declared and
// Evaluated are keyed by source key and must not be modified once the
// snapshot is published.
type Snapshot struct {
	Version          string                           `json:"version"`
	DeclaredVersion  string                           `json:"declaredVersion"`
	EvaluatedVersion string                           `json:"evaluatedVersion"`
	Sources          []model.RuleSource               `json:"sources"`
	Declared         map[string]model.RulerSnapshot   `json:"declared"`
	Evaluated        map[string][]model.PromNamespace `json:"evaluated"`
	FetchedAt        time.Time                        `json:"fetchedAt"`
	Errors           []FetchError                     `json:"errors,omitempty"`
}

// Empty returns a snapshot without sources. Its versions are empty so it is
// never memoized.
func Empty() *Snapshot {
	return &Snapshot{
		Declared:  map[string]model.RulerSnapshot{},
		Evaluated: map[string][]model.PromNamespace{},
	}
}

// Seal computes the content versions. Identical content yields identical
// versions on every replica.
func (s *Snapshot) Seal() error {
	declared, err := contentVersion(s.Sources, s.Declared)
	if err != nil {
		return err
	}
	evaluated, err := contentVersion(s.Sources, s.Evaluated)
	if err != nil {
		return err
	}
	s.DeclaredVersion = declared
	s.EvaluatedVersion = evaluated
	s.Version = uuid.NewSHA1(versionSpace, []byte(declared+"/"+evaluated)).String()
	return nil
}

func contentVersion(sources []model.RuleSource, content any) (string, error) {
	data, err := json.Marshal(struct {
		Sources []model.RuleSource `json:"sources"`
		Content any                `json:"content"`
	}{sources, content})
	if err != nil {
		return "", err
	}
	return uuid.NewSHA1(versionSpace, data).String(), nil
}
