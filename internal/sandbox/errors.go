package sandbox

import "fmt"

// SecurityError is raised by the static gate: the expression references
// a denied module or callable and was never executed.
type SecurityError struct {
	Name   string // the offending identifier or attribute
	Reason string
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("expression rejected: %s (%s)", e.Reason, e.Name)
}

// ResourceLimitError is raised when an expression exceeds its execution
// budget (steps, wall clock, or memory).
type ResourceLimitError struct {
	Resource string // "steps", "wall_clock", "memory"
	Detail   string
}

func (e *ResourceLimitError) Error() string {
	return fmt.Sprintf("expression exceeded %s limit: %s", e.Resource, e.Detail)
}
