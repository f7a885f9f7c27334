package ruler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	promModel "github.com/prometheus/common/model"
	"github.com/qiniu/ruleview/internal/database"
	"github.com/qiniu/ruleview/internal/rules/model"
)

// PgStore is a PostgreSQL-backed Store. Each row holds one rule group with
// its rules as jsonb; the serial id fixes namespace and group order.
type PgStore struct {
	DB *database.Database
}

func NewPgStore(db *database.Database) *PgStore { return &PgStore{DB: db} }

const schema = `
CREATE TABLE IF NOT EXISTS ruler_rule_groups (
	id         BIGSERIAL PRIMARY KEY,
	namespace  TEXT NOT NULL,
	name       TEXT NOT NULL,
	interval   INTERVAL,
	rules      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (namespace, name)
)`

// EnsureSchema creates the rule group table if it does not exist.
func (s *PgStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure ruler schema: %w", err)
	}
	return nil
}

func (s *PgStore) ListNamespaces(ctx context.Context) (model.RulerSnapshot, error) {
	const q = `
	SELECT namespace, name, interval, rules
	FROM ruler_rule_groups
	ORDER BY MIN(id) OVER (PARTITION BY namespace), id`
	rows, err := s.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list namespaces: %w", err)
	}
	defer rows.Close()

	out := make(model.RulerSnapshot, 0)
	for rows.Next() {
		namespace, group, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		if n := len(out); n > 0 && out[n-1].Name == namespace {
			out[n-1].Groups = append(out[n-1].Groups, group)
			continue
		}
		out = append(out, model.RulerNamespace{Name: namespace, Groups: []model.RulerRuleGroup{group}})
	}
	return out, rows.Err()
}

func (s *PgStore) GetNamespace(ctx context.Context, namespace string) ([]model.RulerRuleGroup, error) {
	const q = `SELECT namespace, name, interval, rules FROM ruler_rule_groups WHERE namespace = $1 ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, q, namespace)
	if err != nil {
		return nil, fmt.Errorf("get namespace: %w", err)
	}
	defer rows.Close()
	var groups []model.RulerRuleGroup
	for rows.Next() {
		_, group, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, ErrNamespaceNotFound
	}
	return groups, nil
}

func (s *PgStore) GetGroup(ctx context.Context, namespace, name string) (*model.RulerRuleGroup, error) {
	const q = `SELECT namespace, name, interval, rules FROM ruler_rule_groups WHERE namespace = $1 AND name = $2`
	rows, err := s.DB.QueryContext(ctx, q, namespace, name)
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		_, group, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		return &group, nil
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return nil, ErrGroupNotFound
}

func (s *PgStore) UpsertGroup(ctx context.Context, namespace string, group model.RulerRuleGroup) (bool, error) {
	rulesJSON, err := json.Marshal(group.Definition().Rules)
	if err != nil {
		return false, fmt.Errorf("encode rules: %w", err)
	}
	interval, err := intervalFromString(group.Interval)
	if err != nil {
		return false, err
	}
	// xmax = 0 only for freshly inserted rows
	const q = `
	INSERT INTO ruler_rule_groups(namespace, name, interval, rules)
	VALUES ($1, $2, $3::interval, $4::jsonb)
	ON CONFLICT (namespace, name) DO UPDATE SET
		interval = EXCLUDED.interval,
		rules = EXCLUDED.rules,
		updated_at = now()
	RETURNING (xmax = 0)`
	rows, err := s.DB.QueryContext(ctx, q, namespace, group.Name, interval, string(rulesJSON))
	if err != nil {
		return false, fmt.Errorf("upsert group: %w", err)
	}
	defer rows.Close()
	var created bool
	if rows.Next() {
		if err := rows.Scan(&created); err != nil {
			return false, fmt.Errorf("scan upsert result: %w", err)
		}
	}
	return created, rows.Err()
}

func (s *PgStore) DeleteGroup(ctx context.Context, namespace, name string) error {
	const q = `DELETE FROM ruler_rule_groups WHERE namespace = $1 AND name = $2`
	res, err := s.DB.ExecContext(ctx, q, namespace, name)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrGroupNotFound
	}
	return nil
}

func (s *PgStore) DeleteNamespace(ctx context.Context, namespace string) error {
	const q = `DELETE FROM ruler_rule_groups WHERE namespace = $1`
	res, err := s.DB.ExecContext(ctx, q, namespace)
	if err != nil {
		return fmt.Errorf("delete namespace: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNamespaceNotFound
	}
	return nil
}

func scanGroup(rows *sql.Rows) (string, model.RulerRuleGroup, error) {
	var (
		namespace string
		name      string
		interval  sql.NullString
		rulesRaw  []byte
	)
	if err := rows.Scan(&namespace, &name, &interval, &rulesRaw); err != nil {
		return "", model.RulerRuleGroup{}, fmt.Errorf("scan group: %w", err)
	}
	var defs []model.RuleDefinition
	if err := json.Unmarshal(rulesRaw, &defs); err != nil {
		return "", model.RulerRuleGroup{}, fmt.Errorf("decode rules of %s/%s: %w", namespace, name, err)
	}
	def := model.RuleGroupDefinition{Name: name, Rules: defs}
	if interval.Valid {
		s, err := intervalToString(interval.String)
		if err != nil {
			return "", model.RulerRuleGroup{}, fmt.Errorf("group %s/%s: %w", namespace, name, err)
		}
		def.Interval = s
	}
	return namespace, def.Group(), nil
}

// intervalFromString converts a Prometheus duration such as "1m" into a
// PostgreSQL interval parameter; an empty string maps to NULL.
func intervalFromString(s string) (any, error) {
	if s == "" {
		return nil, nil
	}
	d, err := promModel.ParseDuration(s)
	if err != nil {
		return nil, fmt.Errorf("%w: interval %q: %v", ErrInvalidGroup, s, err)
	}
	return durationToPgInterval(time.Duration(d)).Value()
}

// intervalToString parses the text output of a PostgreSQL interval column
// back into a Prometheus duration string.
func intervalToString(text string) (string, error) {
	var iv pgtype.Interval
	if err := iv.Scan(text); err != nil {
		return "", fmt.Errorf("parse interval %q: %w", text, err)
	}
	d, err := pgIntervalToDuration(iv)
	if err != nil {
		return "", err
	}
	return promModel.Duration(d).String(), nil
}

// durationToPgInterval splits d into whole days and the remainder, the way
// PostgreSQL normalizes interval input.
func durationToPgInterval(d time.Duration) pgtype.Interval {
	day := 24 * time.Hour
	return pgtype.Interval{
		Microseconds: (d % day).Microseconds(),
		Days:         int32(d / day),
		Months:       0,
		Valid:        true,
	}
}

func pgIntervalToDuration(iv pgtype.Interval) (time.Duration, error) {
	if !iv.Valid {
		return 0, errors.New("interval is null")
	}
	if iv.Months != 0 {
		return 0, fmt.Errorf("interval with months is not supported: %d months", iv.Months)
	}
	return time.Duration(iv.Days)*24*time.Hour + time.Duration(iv.Microseconds)*time.Microsecond, nil
}
