package model

// BuiltinSourceKey is the key under which the built-in rule source keeps its
// declared and evaluated rules, independent of its configured display name.
const BuiltinSourceKey = "builtin"

// SourceKind tells the built-in rule engine apart from external systems.
type SourceKind string

const (
	SourceKindBuiltin  SourceKind = "builtin"
	SourceKindExternal SourceKind = "external"
)

// RuleSource identifies where rule data originates.
type RuleSource struct {
	Name string     `json:"name"`
	Kind SourceKind `json:"kind"`
}

// BuiltinSource returns the sentinel source for the built-in engine.
func BuiltinSource() RuleSource {
	return RuleSource{Name: BuiltinSourceKey, Kind: SourceKindBuiltin}
}

// ExternalSource returns a named external rule source.
func ExternalSource(name string) RuleSource {
	return RuleSource{Name: name, Kind: SourceKindExternal}
}

// IsBuiltin reports whether s is the built-in source.
func (s RuleSource) IsBuiltin() bool { return s.Kind == SourceKindBuiltin }

// Key returns the lookup key used for the declared and evaluated snapshots.
func (s RuleSource) Key() string {
	if s.IsBuiltin() {
		return BuiltinSourceKey
	}
	return s.Name
}
