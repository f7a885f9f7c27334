package ruler

import (
	"context"
	"errors"
	"fmt"

	"github.com/qiniu/ruleview/internal/rules/model"
)

var (
	// ErrInvalidGroup indicates a rule group that fails validation.
	ErrInvalidGroup = errors.New("invalid rule group")
	// ErrGroupNotFound indicates the namespace has no group with that name.
	ErrGroupNotFound = errors.New("rule group not found")
	// ErrNamespaceNotFound indicates no group is declared under the namespace.
	ErrNamespaceNotFound = errors.New("rule namespace not found")
)

// Store persists the declared rule groups of the built-in rule source.
// Namespaces are returned in creation order and groups in the order they
// were first written; updating a group keeps its position.
type Store interface {
	ListNamespaces(ctx context.Context) (model.RulerSnapshot, error)
	GetNamespace(ctx context.Context, namespace string) ([]model.RulerRuleGroup, error)
	GetGroup(ctx context.Context, namespace, group string) (*model.RulerRuleGroup, error)

	// UpsertGroup creates or replaces a group by name within the namespace.
	UpsertGroup(ctx context.Context, namespace string, group model.RulerRuleGroup) (created bool, err error)
	DeleteGroup(ctx context.Context, namespace, group string) error
	DeleteNamespace(ctx context.Context, namespace string) error
}

// Source provides the declared side of one rule source.
type Source interface {
	Rules(ctx context.Context) (model.RulerSnapshot, error)
}

// Error is returned when a remote ruler answers with an unexpected status.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("ruler returned status %d: %s", e.StatusCode, e.Body)
}
