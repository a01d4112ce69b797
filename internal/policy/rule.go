package policy

import (
	"slices"
	"strings"
)

// RuleKind tags the variant held by a SourceSystemRule.
type RuleKind int

const (
	// RuleFree accepts any caller value.
	RuleFree RuleKind = iota
	// RuleFixed ignores the caller value and stores Value.
	RuleFixed
	// RuleEnumerated requires the caller value to be one of Allowed.
	RuleEnumerated
	// RuleExactMatch requires the caller value to equal Value.
	RuleExactMatch
)

func (k RuleKind) String() string {
	switch k {
	case RuleFree:
		return "free"
	case RuleFixed:
		return "fixed"
	case RuleEnumerated:
		return "enumerated"
	case RuleExactMatch:
		return "exact_match"
	}
	return "unknown"
}

// SourceSystemRule constrains the source_system a caller may declare.
type SourceSystemRule struct {
	Kind    RuleKind
	Value   string
	Allowed []string
}

// Free returns a rule that accepts any value.
func Free() SourceSystemRule { return SourceSystemRule{Kind: RuleFree} }

// Fixed returns a rule that silently forces value.
func Fixed(value string) SourceSystemRule {
	return SourceSystemRule{Kind: RuleFixed, Value: value}
}

// Enumerated returns a rule restricted to a closed set.
func Enumerated(values ...string) SourceSystemRule {
	return SourceSystemRule{Kind: RuleEnumerated, Allowed: values}
}

// ExactMatch returns a rule that rejects anything but value.
func ExactMatch(value string) SourceSystemRule {
	return SourceSystemRule{Kind: RuleExactMatch, Value: value}
}

// Resolve applies the rule to the declared value. It returns the value to
// store and whether the declaration is acceptable. Fixed rules never reject.
func (r SourceSystemRule) Resolve(declared string) (string, bool) {
	declared = strings.TrimSpace(declared)

	switch r.Kind {
	case RuleFixed:
		return r.Value, true
	case RuleEnumerated:
		if slices.Contains(r.Allowed, declared) {
			return declared, true
		}
		return declared, false
	case RuleExactMatch:
		return declared, declared == r.Value
	default:
		return declared, true
	}
}

// Overrides reports whether Resolve may replace the caller's value.
func (r SourceSystemRule) Overrides() bool { return r.Kind == RuleFixed }
