// Package sandbox provides the isolated evaluator for user-supplied
// rule expressions. Expressions are Starlark (a Python dialect), gated
// in two phases: a static walk of the syntax tree rejects references
// to denied modules and callables before anything runs, and execution
// happens in a default-deny environment (only the Starlark universe of
// pure builtins plus the row context) under step, wall-clock, and
// memory ceilings.
package sandbox

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// deniedModules are module names whose mere mention fails the static
// gate. The execution environment does not expose them either; the
// gate exists so hostile expressions fail loudly before execution.
var deniedModules = map[string]bool{
	"os": true, "sys": true, "subprocess": true, "socket": true,
	"pickle": true, "threading": true, "multiprocessing": true,
	"ctypes": true, "importlib": true, "shutil": true, "pathlib": true,
	"urllib": true, "requests": true, "builtins": true,
}

// deniedCallables are callables that must never be invoked.
var deniedCallables = map[string]bool{
	"eval": true, "exec": true, "compile": true, "__import__": true,
	"open": true, "input": true, "globals": true, "locals": true,
	"vars": true, "getattr": true, "setattr": true, "delattr": true,
}

// fileOpts pins the language dialect for parsing and resolution. All
// extensions stay off; rule expressions need none of them.
var fileOpts = &syntax.FileOptions{}

// resultVar names the toplevel global the compiled wrapper assigns the
// expression's value to. Dunder identifiers cannot appear in user
// expressions (the static gate rejects them), so it cannot collide.
const resultVar = "__expr_result__"

// Evaluator checks and evaluates rule expressions. It caches compiled
// programs keyed by expression text and is safe for concurrent use:
// a starlark.Program is immutable and holds no values, so one cached
// program can be evaluated by any number of workers at once.
type Evaluator struct {
	level  SecurityLevel
	limits Limits
	logger *slog.Logger

	mu       sync.RWMutex
	programs map[string]*starlark.Program
}

// NewEvaluator creates an evaluator for the given security level.
// A nil logger discards output.
func NewEvaluator(level SecurityLevel, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Evaluator{
		level:    level,
		limits:   LimitsFor(level),
		logger:   logger,
		programs: make(map[string]*starlark.Program),
	}
}

// Level returns the evaluator's security level.
func (e *Evaluator) Level() SecurityLevel { return e.level }

// Check runs the static gate only: parse the expression and reject
// denied names without executing anything. Usable standalone for
// rule-authoring feedback.
func (e *Evaluator) Check(exprText string) error {
	_, err := e.compile(exprText)
	return err
}

// EvalRow evaluates the expression against one row's context and
// returns its truth value. Static violations return *SecurityError,
// budget breaches *ResourceLimitError, and ordinary evaluation
// failures a plain error; callers decide row-level policy.
func (e *Evaluator) EvalRow(exprText string, row map[string]any) (bool, error) {
	prog, err := e.compile(exprText)
	if err != nil {
		return false, err
	}

	env, err := rowEnv(row)
	if err != nil {
		return false, err
	}

	thread := &starlark.Thread{
		Name:  "rule-expression",
		Print: func(_ *starlark.Thread, _ string) {}, // expressions have no stdout
	}
	thread.SetMaxExecutionSteps(e.limits.MaxSteps)

	done := make(chan struct{})
	go monitor(thread, e.limits, done)

	globals, err := prog.Init(thread, env)
	close(done)

	if err != nil {
		return false, classifyEvalError(err)
	}
	value := globals[resultVar]
	if value == nil {
		return false, fmt.Errorf("expression produced no value")
	}
	return bool(value.Truth()), nil
}

// compile parses and statically validates an expression, caching the
// compiled program keyed by source text. Starlark's resolver mutates
// the syntax tree it resolves, so the cacheable artifact is the
// immutable Program, never the tree: compilation happens exactly once
// per expression text, under the write lock on a fresh parse.
func (e *Evaluator) compile(exprText string) (*starlark.Program, error) {
	e.mu.RLock()
	prog, ok := e.programs[exprText]
	e.mu.RUnlock()
	if ok {
		return prog, nil
	}

	parsed, err := fileOpts.ParseExpr("expression", exprText, 0)
	if err != nil {
		return nil, fmt.Errorf("parse expression: %w", err)
	}
	if err := checkTree(parsed); err != nil {
		e.logger.Warn("expression failed static validation", "error", err)
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if prog, ok := e.programs[exprText]; ok {
		return prog, nil
	}

	// Wrap the expression in an assignment so the compiled toplevel
	// leaves its value in a named global. Names outside the Starlark
	// universe resolve against the per-row environment at run time.
	src := resultVar + " = (" + exprText + "\n)"
	_, prog, err = starlark.SourceProgramOptions(fileOpts, "expression", src, func(name string) bool {
		return starlark.Universe[name] == nil
	})
	if err != nil {
		return nil, fmt.Errorf("compile expression: %w", err)
	}

	e.programs[exprText] = prog
	return prog, nil
}

// checkTree walks the syntax tree and rejects denied constructs.
func checkTree(expr syntax.Expr) error {
	var serr error
	syntax.Walk(expr, func(n syntax.Node) bool {
		if serr != nil {
			return false
		}
		switch node := n.(type) {
		case *syntax.Ident:
			if deniedModules[node.Name] {
				serr = &SecurityError{Name: node.Name, Reason: "denied module"}
			} else if deniedCallables[node.Name] {
				serr = &SecurityError{Name: node.Name, Reason: "denied callable"}
			} else if strings.HasPrefix(node.Name, "__") {
				serr = &SecurityError{Name: node.Name, Reason: "dunder access"}
			}
		case *syntax.DotExpr:
			if strings.HasPrefix(node.Name.Name, "__") {
				serr = &SecurityError{Name: node.Name.Name, Reason: "dunder attribute access"}
			}
		}
		return serr == nil
	})
	return serr
}

// classifyEvalError maps a Starlark evaluation failure onto the error
// taxonomy: budget breaches become *ResourceLimitError, everything
// else passes through as an ordinary evaluation error.
func classifyEvalError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, cancelWallClock):
		return &ResourceLimitError{Resource: "wall_clock", Detail: msg}
	case strings.Contains(msg, cancelMemory):
		return &ResourceLimitError{Resource: "memory", Detail: msg}
	case strings.Contains(msg, "too many steps"):
		return &ResourceLimitError{Resource: "steps", Detail: msg}
	case strings.Contains(msg, "predeclared variable"):
		// Unknown names resolve against the row environment; one that
		// is absent surfaces here.
		return fmt.Errorf("undefined: %s", strings.TrimSuffix(
			msg[strings.Index(msg, "predeclared variable ")+len("predeclared variable "):],
			" is uninitialized"))
	default:
		return err
	}
}
