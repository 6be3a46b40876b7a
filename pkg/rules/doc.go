// Package rules defines the validation rule framework: the Validator
// interface, the kind registry, and the chunked execution loop that
// turns a core.Rule plus a dataset into a core.RuleExecutionResult.
//
// Validator kinds live in pkg/rules/validators and register themselves
// via init(), mirroring how database/sql drivers self-register.
package rules
