package ruler

import (
	"errors"
	"strings"
	"testing"

	"github.com/qiniu/ruleview/internal/rules/model"
)

func TestValidateGroup(t *testing.T) {
	valid := model.RuleGroupDefinition{
		Name:     "api",
		Interval: "1m",
		Rules: []model.RuleDefinition{
			{Alert: "HighLatency", Expr: "latency > 1", For: "5m", Annotations: map[string]string{"summary": "slow"}},
			{Record: "job:latency:avg", Expr: "avg by (job) (latency)", Labels: map[string]string{"team": "core"}},
		},
	}

	tests := []struct {
		name    string
		mutate  func(*model.RuleGroupDefinition)
		wantErr string
	}{
		{name: "valid", mutate: func(*model.RuleGroupDefinition) {}},
		{name: "empty name", mutate: func(d *model.RuleGroupDefinition) { d.Name = "" }, wantErr: "group name"},
		{name: "bad interval", mutate: func(d *model.RuleGroupDefinition) { d.Interval = "often" }, wantErr: "interval"},
		{name: "no rules", mutate: func(d *model.RuleGroupDefinition) { d.Rules = nil }, wantErr: "at least one rule"},
		{name: "alert and record", mutate: func(d *model.RuleGroupDefinition) { d.Rules[0].Record = "x" }, wantErr: "only one of"},
		{name: "neither alert nor record", mutate: func(d *model.RuleGroupDefinition) { d.Rules[0].Alert = "" }, wantErr: "must be set"},
		{name: "missing expr", mutate: func(d *model.RuleGroupDefinition) { d.Rules[0].Expr = "" }, wantErr: "'expr'"},
		{name: "bad for", mutate: func(d *model.RuleGroupDefinition) { d.Rules[0].For = "later" }, wantErr: "for"},
		{
			name:    "recording with annotations",
			mutate:  func(d *model.RuleGroupDefinition) { d.Rules[1].Annotations = map[string]string{"a": "b"} },
			wantErr: "annotations",
		},
		{name: "recording with for", mutate: func(d *model.RuleGroupDefinition) { d.Rules[1].For = "1m" }, wantErr: "'for'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := valid
			def.Rules = append([]model.RuleDefinition(nil), valid.Rules...)
			tt.mutate(&def)
			err := ValidateGroup(def)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidGroup) {
				t.Fatalf("error should wrap ErrInvalidGroup: %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateGroup_ReportsAllProblems(t *testing.T) {
	err := ValidateGroup(model.RuleGroupDefinition{
		Name:  "g",
		Rules: []model.RuleDefinition{{Alert: "A"}, {Record: "r"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Count(err.Error(), "'expr'") != 2 {
		t.Fatalf("expected both rules to be reported: %v", err)
	}
}
