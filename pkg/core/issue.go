package core

// RowIndexNone is the row index sentinel for column-level and
// dataset-level issues that have no single offending row.
const RowIndexNone = -1

// ValidationIssue is a single detected data-quality violation.
// Issues are produced only by validators and consumed by the
// orchestrator for persistence and reporting.
type ValidationIssue struct {
	// RowIndex is the zero-based offending row, or RowIndexNone for
	// column-level findings.
	RowIndex int

	// ColumnName is the column the issue was found in. Column-pair
	// findings use "a|b".
	ColumnName string

	// CurrentValue is the offending value rendered as a string, if any.
	CurrentValue string

	// SuggestedValue is a proposed replacement, if the validator has one.
	SuggestedValue string

	// Message describes the violation.
	Message string

	// Category groups related issues, e.g. "missing_data" or
	// "outlier_iqr".
	Category string
}
