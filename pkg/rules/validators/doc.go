// Package validators implements the built-in validation kinds.
// Each kind lives in its own file and registers itself with
// pkg/rules in an init() function; importing this package for side
// effects makes every kind available.
package validators
