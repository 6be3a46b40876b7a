package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KshitijBharambe/hygiene/pkg/core"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(":memory:"))
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRunLifecycle(t *testing.T) {
	store := openStore(t)

	run, err := store.CreateRun("orders.csv", "parallel")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, core.RunStatusRunning, run.Status)

	require.NoError(t, store.CompleteRun(run.ID, core.RunStatusCompleted, ""))

	got, err := store.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.False(t, got.CompletedAt.IsZero())
}

func TestGetRun_NotFound(t *testing.T) {
	store := openStore(t)
	_, err := store.GetRun("nope")
	assert.ErrorContains(t, err, "run not found")
}

func TestCompleteRun_NotFound(t *testing.T) {
	store := openStore(t)
	err := store.CompleteRun("nope", core.RunStatusFailed, "boom")
	assert.ErrorContains(t, err, "run not found")
}

func TestListRuns_MostRecentFirst(t *testing.T) {
	store := openStore(t)

	first, err := store.CreateRun("a.csv", "sequential")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := store.CreateRun("b.csv", "sequential")
	require.NoError(t, err)

	runs, err := store.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, first.ID, runs[1].ID)
}

func TestSession_SaveAndFlush(t *testing.T) {
	store := openStore(t)
	run, err := store.CreateRun("orders.csv", "sequential")
	require.NoError(t, err)

	session, err := store.Sessions(run.ID).Acquire(context.Background(), 0)
	require.NoError(t, err)
	defer session.Close()

	result := &core.RuleExecutionResult{
		RuleID:  "r1",
		Success: true,
		Issues: []core.ValidationIssue{
			{RowIndex: 3, ColumnName: "email", Message: "email is missing @", Category: "standardization"},
		},
		RowsFlagged:   1,
		ColsFlagged:   1,
		ExecutionTime: 42 * time.Millisecond,
	}
	require.NoError(t, session.(*Session).SaveResult(result))
	require.NoError(t, session.Flush())

	results, err := store.ResultsForRun(run.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "r1", results[0].RuleID)
	assert.Equal(t, 42*time.Millisecond, results[0].ExecutionTime)
	require.Len(t, results[0].Issues, 1)
	assert.Equal(t, "email", results[0].Issues[0].ColumnName)
}

func TestSession_RollbackDiscards(t *testing.T) {
	store := openStore(t)
	run, err := store.CreateRun("orders.csv", "sequential")
	require.NoError(t, err)

	session, err := store.Sessions(run.ID).Acquire(context.Background(), 0)
	require.NoError(t, err)
	defer session.Close()

	require.NoError(t, session.(*Session).SaveResult(&core.RuleExecutionResult{RuleID: "r1"}))
	require.NoError(t, session.Rollback())

	// The session stays usable after a rollback.
	require.NoError(t, session.(*Session).SaveResult(&core.RuleExecutionResult{RuleID: "r2", Success: true}))
	require.NoError(t, session.Flush())

	results, err := store.ResultsForRun(run.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "r2", results[0].RuleID)
}

func TestSession_CloseWithoutFlushDiscards(t *testing.T) {
	store := openStore(t)
	run, err := store.CreateRun("orders.csv", "sequential")
	require.NoError(t, err)

	session, err := store.Sessions(run.ID).Acquire(context.Background(), 0)
	require.NoError(t, err)
	require.NoError(t, session.(*Session).SaveResult(&core.RuleExecutionResult{RuleID: "r1"}))
	require.NoError(t, session.Close())

	results, err := store.ResultsForRun(run.ID)
	require.NoError(t, err)
	assert.Empty(t, results)
}
