package ruler

import (
	"errors"
	"fmt"

	promModel "github.com/prometheus/common/model"
	"github.com/qiniu/ruleview/internal/rules/model"
)

// ValidateGroup checks a rule group in the ruler file format. All problems
// are reported together, wrapped in ErrInvalidGroup.
func ValidateGroup(def model.RuleGroupDefinition) error {
	var errs []error
	if def.Name == "" {
		errs = append(errs, errors.New("group name must not be empty"))
	}
	if def.Interval != "" {
		if _, err := promModel.ParseDuration(def.Interval); err != nil {
			errs = append(errs, fmt.Errorf("interval %q: %w", def.Interval, err))
		}
	}
	if len(def.Rules) == 0 {
		errs = append(errs, errors.New("group must contain at least one rule"))
	}
	for i, r := range def.Rules {
		for _, err := range validateRule(r) {
			errs = append(errs, fmt.Errorf("rule %d: %w", i, err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w %q: %w", ErrInvalidGroup, def.Name, errors.Join(errs...))
}

func validateRule(r model.RuleDefinition) []error {
	var errs []error
	switch {
	case r.Alert != "" && r.Record != "":
		errs = append(errs, errors.New("only one of 'alert' and 'record' may be set"))
	case r.Alert == "" && r.Record == "":
		errs = append(errs, errors.New("one of 'alert' or 'record' must be set"))
	}
	if r.Expr == "" {
		errs = append(errs, errors.New("field 'expr' must be set"))
	}
	if r.Record != "" {
		if len(r.Annotations) > 0 {
			errs = append(errs, fmt.Errorf("invalid field 'annotations' in recording rule %s", r.Record))
		}
		if r.For != "" {
			errs = append(errs, fmt.Errorf("invalid field 'for' in recording rule %s", r.Record))
		}
	}
	if r.For != "" {
		if _, err := promModel.ParseDuration(r.For); err != nil {
			errs = append(errs, fmt.Errorf("for %q: %w", r.For, err))
		}
	}
	for k := range r.Labels {
		if !promModel.LabelName(k).IsValid() {
			errs = append(errs, fmt.Errorf("invalid label name %q", k))
		}
	}
	for k := range r.Annotations {
		if !promModel.LabelName(k).IsValid() {
			errs = append(errs, fmt.Errorf("invalid annotation name %q", k))
		}
	}
	return errs
}
