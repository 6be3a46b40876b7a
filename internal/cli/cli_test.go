package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestKindsCommand(t *testing.T) {
	out, err := execute(t, "kinds")
	require.NoError(t, err)
	assert.Contains(t, out, "missing_data")
	assert.Contains(t, out, "correlation")
	assert.Contains(t, out, "column")
}

func TestCheckExprCommand(t *testing.T) {
	out, err := execute(t, "check-expr", "age > 18")
	require.NoError(t, err)
	assert.Contains(t, out, "ok")

	out, err = execute(t, "check-expr", "__import__('os')")
	assert.Error(t, err)
	assert.Contains(t, out, "rejected")
}

func TestPlanCommand(t *testing.T) {
	dir := t.TempDir()
	rules := writeFile(t, dir, "rules.yaml", `
rules:
  - id: base
    kind: missing_data
    target_columns: [a]
  - id: next
    kind: missing_data
    target_columns: [a]
    depends_on: [base]
`)

	out, err := execute(t, "plan", "--rules", rules)
	require.NoError(t, err)
	assert.Contains(t, out, "base")
	assert.Contains(t, out, "2 rules in 2 groups")
}

func TestPlanCommand_CycleFails(t *testing.T) {
	dir := t.TempDir()
	rules := writeFile(t, dir, "rules.yaml", `
rules:
  - id: a
    kind: missing_data
    depends_on: [b]
  - id: b
    kind: missing_data
    depends_on: [a]
`)

	_, err := execute(t, "plan", "--rules", rules)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular")
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	rules := writeFile(t, dir, "rules.yaml", `
rules:
  - id: no_missing_names
    kind: missing_data
    criticality: high
    target_columns: [name]
`)
	dataset := writeFile(t, dir, "data.csv", "id,name\n1,alice\n2,\n3,bob\n")

	out, err := execute(t, "run",
		"--rules", rules, "--dataset", dataset, "--state", ":memory:", "--issues")
	require.NoError(t, err)
	assert.Contains(t, out, "no_missing_names")
	assert.Contains(t, out, "1 rules, 0 failed, 1 issues")
	assert.Contains(t, out, "row 1, name")
}

func TestRunCommand_MissingFlags(t *testing.T) {
	_, err := execute(t, "run")
	assert.Error(t, err)
}
