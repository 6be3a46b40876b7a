package state

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/KshitijBharambe/hygiene/pkg/core"
)

// Session is a per-worker write handle. It owns one connection and an
// open transaction; Flush commits and reopens the transaction so a
// long batch never accumulates an unbounded write set.
type Session struct {
	runID  string
	conn   *sql.Conn
	tx     *sql.Tx
	logger *slog.Logger
}

var _ core.Resource = (*Session)(nil)

// SaveResult writes one rule result and its issues into the current
// transaction. Nothing is durable until Flush.
func (s *Session) SaveResult(result *core.RuleExecutionResult) error {
	if s.tx == nil {
		return fmt.Errorf("session closed")
	}

	resultID := uuid.New().String()
	_, err := s.tx.Exec(
		`INSERT INTO rule_results
		 (id, run_id, rule_id, success, error_message, rows_flagged, cols_flagged,
		  execution_time_ns, memory_delta)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		resultID, s.runID, result.RuleID, result.Success, result.ErrorMessage,
		result.RowsFlagged, result.ColsFlagged,
		int64(result.ExecutionTime), result.MemoryDelta,
	)
	if err != nil {
		return fmt.Errorf("saving result for rule %s: %w", result.RuleID, err)
	}

	for _, issue := range result.Issues {
		_, err := s.tx.Exec(
			`INSERT INTO issues
			 (result_id, row_index, column_name, current_value, suggested_value, message, category)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			resultID, issue.RowIndex, issue.ColumnName, issue.CurrentValue,
			issue.SuggestedValue, issue.Message, issue.Category,
		)
		if err != nil {
			return fmt.Errorf("saving issue for rule %s: %w", result.RuleID, err)
		}
	}
	return nil
}

// Flush commits the current transaction and begins a new one.
func (s *Session) Flush() error {
	if s.tx == nil {
		return fmt.Errorf("session closed")
	}
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("committing session: %w", err)
	}
	return s.begin()
}

// Rollback discards the work since the last flush and begins a new
// transaction.
func (s *Session) Rollback() error {
	if s.tx == nil {
		return fmt.Errorf("session closed")
	}
	if err := s.tx.Rollback(); err != nil {
		return fmt.Errorf("rolling back session: %w", err)
	}
	return s.begin()
}

// Close rolls back any uncommitted work and releases the connection.
func (s *Session) Close() error {
	if s.tx != nil {
		if err := s.tx.Rollback(); err != nil {
			s.logger.Warn("rollback on close failed", "error", err)
		}
		s.tx = nil
	}
	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}

func (s *Session) begin() error {
	tx, err := s.conn.BeginTx(context.Background(), nil)
	if err != nil {
		s.tx = nil
		return fmt.Errorf("beginning session transaction: %w", err)
	}
	s.tx = tx
	return nil
}

// Sessions returns a factory producing per-worker sessions bound to a run.
func (s *SQLiteStore) Sessions(runID string) core.ResourceFactory {
	return &sessionFactory{store: s, runID: runID}
}

type sessionFactory struct {
	store *SQLiteStore
	runID string
}

func (f *sessionFactory) Acquire(ctx context.Context, workerID int) (core.Resource, error) {
	if f.store.db == nil {
		return nil, errNotOpened
	}

	conn, err := f.store.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection for worker %d: %w", workerID, err)
	}
	session := &Session{
		runID:  f.runID,
		conn:   conn,
		logger: f.store.logger.With("worker", workerID),
	}
	if err := session.begin(); err != nil {
		conn.Close()
		return nil, err
	}
	return session, nil
}
