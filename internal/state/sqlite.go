package state

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/KshitijBharambe/hygiene/pkg/core"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore implements Store on an embedded SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates an unopened store.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens the database and applies the schema.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	// In-memory databases need a shared cache so every pooled
	// connection sees the same schema.
	var dsn string
	if path == ":memory:" {
		dsn = "file::memory:?cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	} else {
		dsn = path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("opening results database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxIdleConns(8)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("pinging results database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return fmt.Errorf("applying schema: %w", err)
	}

	s.db = db
	s.path = path
	s.logger.Debug("results store opened", "path", path)
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateRun records the start of a validation run.
func (s *SQLiteStore) CreateRun(datasetName, mode string) (*core.Run, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	run := &core.Run{
		ID:          uuid.New().String(),
		DatasetName: datasetName,
		Mode:        mode,
		Status:      core.RunStatusRunning,
		StartedAt:   time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (id, dataset_name, mode, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.DatasetName, run.Mode, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}

	s.logger.Debug("run created", "id", run.ID, "dataset", datasetName)
	return run, nil
}

// CompleteRun finalizes a run with its terminal status.
func (s *SQLiteStore) CompleteRun(id string, status core.RunStatus, errMsg string) error {
	if s.db == nil {
		return errNotOpened
	}

	res, err := s.db.Exec(
		`UPDATE runs SET status = ?, error = ?, completed_at = ? WHERE id = ?`,
		string(status), errMsg, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("completing run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*core.Run, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	row := s.db.QueryRow(
		`SELECT id, dataset_name, mode, status, error, started_at, completed_at
		 FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting run: %w", err)
	}
	return run, nil
}

// ListRuns returns runs most recent first, up to limit.
func (s *SQLiteStore) ListRuns(limit int) ([]*core.Run, error) {
	if s.db == nil {
		return nil, errNotOpened
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, dataset_name, mode, status, error, started_at, completed_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*core.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ResultsForRun returns the per-rule results of a run, issues included.
func (s *SQLiteStore) ResultsForRun(runID string) ([]*core.RuleExecutionResult, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	rows, err := s.db.Query(
		`SELECT id, rule_id, success, error_message, rows_flagged, cols_flagged,
		        execution_time_ns, memory_delta
		 FROM rule_results WHERE run_id = ? ORDER BY rule_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("listing results: %w", err)
	}
	defer rows.Close()

	var results []*core.RuleExecutionResult
	resultIDs := make(map[string]*core.RuleExecutionResult)
	for rows.Next() {
		var (
			id, ruleID, errMsg string
			success            bool
			rowsFlagged, cols  int
			execNS, memDelta   int64
		)
		if err := rows.Scan(&id, &ruleID, &success, &errMsg, &rowsFlagged, &cols, &execNS, &memDelta); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		result := &core.RuleExecutionResult{
			RuleID:        ruleID,
			Success:       success,
			ErrorMessage:  errMsg,
			RowsFlagged:   rowsFlagged,
			ColsFlagged:   cols,
			ExecutionTime: time.Duration(execNS),
			MemoryDelta:   memDelta,
		}
		results = append(results, result)
		resultIDs[id] = result
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	issueRows, err := s.db.Query(
		`SELECT i.result_id, i.row_index, i.column_name, i.current_value,
		        i.suggested_value, i.message, i.category
		 FROM issues i
		 JOIN rule_results r ON r.id = i.result_id
		 WHERE r.run_id = ? ORDER BY i.id`, runID)
	if err != nil {
		return nil, fmt.Errorf("listing issues: %w", err)
	}
	defer issueRows.Close()

	for issueRows.Next() {
		var (
			resultID string
			issue    core.ValidationIssue
		)
		if err := issueRows.Scan(&resultID, &issue.RowIndex, &issue.ColumnName,
			&issue.CurrentValue, &issue.SuggestedValue, &issue.Message, &issue.Category); err != nil {
			return nil, fmt.Errorf("scanning issue: %w", err)
		}
		if result, ok := resultIDs[resultID]; ok {
			result.Issues = append(result.Issues, issue)
		}
	}
	return results, issueRows.Err()
}

var errNotOpened = errors.New("results store not opened")

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*core.Run, error) {
	var (
		run         core.Run
		status      string
		completedAt sql.NullTime
	)
	err := row.Scan(&run.ID, &run.DatasetName, &run.Mode, &status, &run.Error,
		&run.StartedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	run.Status = core.RunStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return &run, nil
}
