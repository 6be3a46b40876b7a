// Package core defines the shared language of the hygiene engine.
//
// This package contains:
//   - Domain entities (Rule, ValidationIssue, RuleExecutionResult, Run)
//   - Service interfaces (Resource, ResourceFactory)
//   - Enumerations (RuleKind, Criticality, run statuses)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
