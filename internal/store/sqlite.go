package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/dvloznov/fraud-pipeline/internal/domain"
)

// SQLiteStore persists partitions and runs in a local SQLite database.
// This is the default engine and matches the layout the reporting path
// queries: one row per record with an indexed hour column.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and ensures
// the run ledger exists. Partition tables are created on first write.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteStore: open %s: %w", path, err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS screening_runs (
			run_id           TEXT PRIMARY KEY,
			source           TEXT NOT NULL,
			started_at       DATETIME NOT NULL,
			finished_at      DATETIME,
			status           TEXT NOT NULL,
			safe_count       INTEGER NOT NULL DEFAULT 0,
			suspicious_count INTEGER NOT NULL DEFAULT 0,
			error_message    TEXT NOT NULL DEFAULT ''
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ReplacePartition drops and recreates the partition table, then
// inserts recs in one transaction. All-or-nothing per partition.
func (s *SQLiteStore) ReplacePartition(ctx context.Context, p domain.Partition, recs []*domain.ScoredRecord) error {
	table, err := tableFor(p)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ReplacePartition: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
		return fmt.Errorf("ReplacePartition: drop %s: %w", table, err)
	}

	create := fmt.Sprintf(`
		CREATE TABLE %s (
			transaction_id    TEXT PRIMARY KEY,
			amount            REAL NOT NULL,
			merchant_category TEXT NOT NULL,
			fraud_flag        TEXT NOT NULL,
			trans_date        DATETIME NOT NULL,
			hour              INTEGER NOT NULL,
			risk_score        INTEGER NOT NULL,
			extra             TEXT
		)
	`, table)
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("ReplacePartition: create %s: %w", table, err)
	}

	insert := fmt.Sprintf(`
		INSERT INTO %s (transaction_id, amount, merchant_category, fraud_flag, trans_date, hour, risk_score, extra)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, table)
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("ReplacePartition: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		extra, err := extraJSON(rec.Fields)
		if err != nil {
			return fmt.Errorf("ReplacePartition: encode extra fields: %w", err)
		}
		_, err = stmt.ExecContext(ctx,
			uuid.NewString(),
			rec.Fields.Amount(),
			rec.Fields.MerchantCategory(),
			flagText(rec.Fields.FraudFlag()),
			rec.TransDate,
			rec.Hour,
			rec.RiskScore,
			extra,
		)
		if err != nil {
			return fmt.Errorf("ReplacePartition: insert into %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ReplacePartition: commit: %w", err)
	}
	return nil
}

// HourCounts runs the group-by-hour count the reporting path needs. A
// partition that was never written reads as empty, not as an error.
func (s *SQLiteStore) HourCounts(ctx context.Context, p domain.Partition) (map[int]int, error) {
	table, err := tableFor(p)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT hour, COUNT(*) FROM %s GROUP BY hour", table))
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return map[int]int{}, nil
		}
		return nil, fmt.Errorf("HourCounts: query %s: %w", table, err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var hour, count int
		if err := rows.Scan(&hour, &count); err != nil {
			return nil, fmt.Errorf("HourCounts: scan: %w", err)
		}
		counts[hour] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("HourCounts: rows: %w", err)
	}
	return counts, nil
}

// StartRun creates a run ledger entry with status RUNNING.
func (s *SQLiteStore) StartRun(ctx context.Context, source string) (string, error) {
	runID := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO screening_runs (run_id, source, started_at, status)
		VALUES (?, ?, ?, ?)
	`, runID, source, time.Now().UTC(), StatusRunning)
	if err != nil {
		return "", fmt.Errorf("StartRun: insert: %w", err)
	}
	return runID, nil
}

// MarkRunSucceeded finalizes the run with routed counts.
func (s *SQLiteStore) MarkRunSucceeded(ctx context.Context, runID string, safe, suspicious int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE screening_runs
		SET status = ?, finished_at = ?, safe_count = ?, suspicious_count = ?, error_message = ''
		WHERE run_id = ?
	`, StatusSuccess, time.Now().UTC(), safe, suspicious, runID)
	if err != nil {
		return fmt.Errorf("MarkRunSucceeded: update: %w", err)
	}
	return nil
}

// MarkRunFailed finalizes the run as FAILED. Best effort.
func (s *SQLiteStore) MarkRunFailed(ctx context.Context, runID string, runErr error) {
	_, err := s.db.ExecContext(ctx, `
		UPDATE screening_runs
		SET status = ?, finished_at = ?, error_message = ?
		WHERE run_id = ?
	`, StatusFailed, time.Now().UTC(), truncateError(runErr), runID)
	if err != nil {
		// Nothing useful to do with a tracking failure beyond the caller's log.
		return
	}
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*RunRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, source, started_at, finished_at, status, safe_count, suspicious_count, error_message
		FROM screening_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("ListRuns: query: %w", err)
	}
	defer rows.Close()

	var result []*RunRow
	for rows.Next() {
		var r RunRow
		var finished sql.NullTime
		if err := rows.Scan(&r.RunID, &r.Source, &r.StartedAt, &finished, &r.Status, &r.SafeCount, &r.SuspiciousCount, &r.ErrorMessage); err != nil {
			return nil, fmt.Errorf("ListRuns: scan: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListRuns: rows: %w", err)
	}
	return result, nil
}

// extraJSON serializes the fields that have no dedicated column so
// nothing from the raw record is lost on persistence.
func extraJSON(fields domain.Record) (string, error) {
	extra := make(map[string]any)
	for k, v := range fields {
		switch k {
		case "amount", "merchant_category", "fraud_flag", "transaction_date":
		default:
			extra[k] = v
		}
	}
	if len(extra) == 0 {
		return "", nil
	}
	b, err := json.Marshal(extra)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func flagText(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprint(v)
}
