package sandbox

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_DeniedImport(t *testing.T) {
	e := NewEvaluator(LevelMedium, nil)

	err := e.Check("__import__('os')")
	var serr *SecurityError
	require.ErrorAs(t, err, &serr, "__import__ must fail before any execution")
	assert.Equal(t, "__import__", serr.Name)
}

func TestCheck_DeniedNames(t *testing.T) {
	e := NewEvaluator(LevelMedium, nil)

	for _, expr := range []string{
		"os.system('ls')",
		"eval('1+1')",
		"open('/etc/passwd')",
		"x.__class__",
		"subprocess",
	} {
		err := e.Check(expr)
		var serr *SecurityError
		assert.ErrorAs(t, err, &serr, "expected SecurityError for %q", expr)
	}
}

func TestCheck_AllowedExpressions(t *testing.T) {
	e := NewEvaluator(LevelMedium, nil)

	for _, expr := range []string{
		"age > 18",
		"len(name) > 0 and len(name) < 50",
		"amount * 1.2 <= limit",
		"status in ['active', 'pending']",
		"row['code'] != None",
	} {
		assert.NoError(t, e.Check(expr), "expected %q to pass the gate", expr)
	}
}

func TestCheck_ParseError(t *testing.T) {
	e := NewEvaluator(LevelMedium, nil)

	err := e.Check("age >")
	require.Error(t, err)
	var serr *SecurityError
	assert.False(t, errors.As(err, &serr), "parse errors are not security errors")
}

func TestEvalRow_Basics(t *testing.T) {
	e := NewEvaluator(LevelMedium, nil)

	ok, err := e.EvalRow("age > 18", map[string]any{"age": int64(21)})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.EvalRow("age > 18", map[string]any{"age": int64(15)})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvalRow_NullsAndRowDict(t *testing.T) {
	e := NewEvaluator(LevelMedium, nil)

	ok, err := e.EvalRow("code == None", map[string]any{"code": nil})
	require.NoError(t, err)
	assert.True(t, ok)

	// Column names that are not identifiers are reachable via row[...].
	ok, err = e.EvalRow(`row["first name"] == "Ada"`, map[string]any{"first name": "Ada"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvalRow_Truthiness(t *testing.T) {
	e := NewEvaluator(LevelMedium, nil)

	ok, err := e.EvalRow("value", map[string]any{"value": ""})
	require.NoError(t, err)
	assert.False(t, ok, "empty string is falsy")

	ok, err = e.EvalRow("value", map[string]any{"value": "x"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvalRow_DivisionByZeroIsOrdinaryError(t *testing.T) {
	e := NewEvaluator(LevelMedium, nil)

	_, err := e.EvalRow("1/0", map[string]any{})
	require.Error(t, err)

	var serr *SecurityError
	assert.False(t, errors.As(err, &serr), "1/0 must not be a SecurityError")
	var rerr *ResourceLimitError
	assert.False(t, errors.As(err, &rerr), "1/0 must not be a ResourceLimitError")
}

func TestEvalRow_StepLimit(t *testing.T) {
	e := NewEvaluator(LevelMedium, nil)
	e.limits = Limits{MaxMemory: 100 << 20, MaxSteps: 100, Timeout: 5 * time.Second}

	_, err := e.EvalRow("len([x*x for x in range(100000)])", map[string]any{})
	var rerr *ResourceLimitError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "steps", rerr.Resource)
}

func TestEvaluator_CachesCompiledExpressions(t *testing.T) {
	e := NewEvaluator(LevelMedium, nil)
	require.NoError(t, e.Check("a > 1"))
	require.NoError(t, e.Check("a > 1"))
	assert.Len(t, e.programs, 1)
}

func TestEvalRow_ConcurrentSharedExpression(t *testing.T) {
	// A single evaluator is shared by every worker, so concurrent
	// evaluations of the same cached expression must not interfere.
	e := NewEvaluator(LevelMedium, nil)

	const goroutines = 8
	errs := make(chan error, goroutines)
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				ok, err := e.EvalRow("x + y > 10", map[string]any{
					"x": int64(g), "y": int64(i),
				})
				if err != nil {
					errs <- err
					return
				}
				if want := g+i > 10; ok != want {
					errs <- fmt.Errorf("x=%d y=%d: got %v, want %v", g, i, ok, want)
					return
				}
			}
		}(g)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}
