package core

import "strings"

// =============================================================================
// Rule kinds
// =============================================================================

// RuleKind identifies the validation strategy a rule uses.
type RuleKind string

// Supported rule kinds.
const (
	KindMissingData     RuleKind = "missing_data"
	KindStandardization RuleKind = "standardization"
	KindValueList       RuleKind = "value_list"
	KindLengthRange     RuleKind = "length_range"
	KindCharRestriction RuleKind = "char_restriction"
	KindCrossField      RuleKind = "cross_field"
	KindRegex           RuleKind = "regex"
	KindCustom          RuleKind = "custom"

	// Statistical kinds operate on whole numeric columns and are never chunked.
	KindOutlier      RuleKind = "outlier"
	KindDistribution RuleKind = "distribution"
	KindCorrelation  RuleKind = "correlation"
)

// String returns the kind as a plain string.
func (k RuleKind) String() string { return string(k) }

// =============================================================================
// Criticality
// =============================================================================

// Criticality indicates how severe a rule's findings are.
type Criticality int

// Criticality levels, ordered from least to most severe.
const (
	CriticalityLow Criticality = iota
	CriticalityMedium
	CriticalityHigh
	CriticalityCritical
)

// String returns the string representation of the criticality.
func (c Criticality) String() string {
	switch c {
	case CriticalityLow:
		return "low"
	case CriticalityMedium:
		return "medium"
	case CriticalityHigh:
		return "high"
	case CriticalityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseCriticality converts a string to a Criticality value.
// Unknown strings map to CriticalityMedium.
func ParseCriticality(s string) Criticality {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return CriticalityLow
	case "medium", "":
		return CriticalityMedium
	case "high":
		return CriticalityHigh
	case "critical":
		return CriticalityCritical
	default:
		return CriticalityMedium
	}
}

// =============================================================================
// Rule
// =============================================================================

// Rule is an immutable-per-execution validation definition.
type Rule struct {
	// ID is the unique rule identifier within a batch.
	ID string

	// Kind selects the validation strategy.
	Kind RuleKind

	// Criticality is carried onto every issue the rule produces.
	Criticality Criticality

	// TargetColumns lists the dataset columns the rule inspects, in order.
	// Params may override this via a "columns" entry.
	TargetColumns []string

	// Params holds kind-specific structured parameters.
	Params map[string]any

	// DependsOn lists rule IDs this rule must run after.
	DependsOn []string

	// Priority breaks scheduling ties; lower runs earlier.
	Priority int

	// Group is an optional label used only as a secondary tie-break.
	Group string
}
