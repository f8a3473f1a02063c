package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/fraud-pipeline/internal/domain"
)

// BigQueryStore persists partitions and runs in a BigQuery dataset.
// Same logical contract as the SQLite engine: replace-on-write
// partitions, group-by-hour reads, a screening_runs ledger.
type BigQueryStore struct {
	client  *bigquery.Client
	dataset string
}

// transactionRow is the BigQuery row shape for both partition tables.
type transactionRow struct {
	TransactionID    string    `bigquery:"transaction_id"`
	Amount           float64   `bigquery:"amount"`
	MerchantCategory string    `bigquery:"merchant_category"`
	FraudFlag        string    `bigquery:"fraud_flag"`
	TransDate        time.Time `bigquery:"trans_date"`
	Hour             int64     `bigquery:"hour"`
	RiskScore        int64     `bigquery:"risk_score"`
	LoadedTS         time.Time `bigquery:"loaded_ts"`
}

// NewBigQueryStore creates a store backed by the given project and
// dataset. Tables are expected to exist (created by cmd/migrate).
func NewBigQueryStore(ctx context.Context, projectID, dataset string) (*BigQueryStore, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryStore: bigquery client: %w", err)
	}
	return &BigQueryStore{client: client, dataset: dataset}, nil
}

// Close closes the BigQuery client connection.
func (s *BigQueryStore) Close() error {
	return s.client.Close()
}

// ReplacePartition deletes the partition's prior content and streams
// in the new rows.
func (s *BigQueryStore) ReplacePartition(ctx context.Context, p domain.Partition, recs []*domain.ScoredRecord) error {
	table, err := tableFor(p)
	if err != nil {
		return err
	}

	if err := s.runQuery(ctx, fmt.Sprintf("DELETE FROM %s.%s WHERE TRUE", s.dataset, table), nil); err != nil {
		return fmt.Errorf("ReplacePartition: clearing %s: %w", table, err)
	}

	if len(recs) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([]*transactionRow, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, &transactionRow{
			TransactionID:    uuid.NewString(),
			Amount:           rec.Fields.Amount(),
			MerchantCategory: rec.Fields.MerchantCategory(),
			FraudFlag:        flagText(rec.Fields.FraudFlag()),
			TransDate:        rec.TransDate,
			Hour:             int64(rec.Hour),
			RiskScore:        int64(rec.RiskScore),
			LoadedTS:         now,
		})
	}

	inserter := s.client.Dataset(s.dataset).Table(table).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("ReplacePartition: inserting rows into %s: %w", table, err)
	}
	return nil
}

// HourCounts runs the group-by-hour count for one partition.
func (s *BigQueryStore) HourCounts(ctx context.Context, p domain.Partition) (map[int]int, error) {
	table, err := tableFor(p)
	if err != nil {
		return nil, err
	}

	q := s.client.Query(fmt.Sprintf(`
		SELECT hour, COUNT(*) AS record_count
		FROM %s.%s
		GROUP BY hour
	`, s.dataset, table))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("HourCounts: query read: %w", err)
	}

	counts := make(map[int]int)
	for {
		var row struct {
			Hour        int64 `bigquery:"hour"`
			RecordCount int64 `bigquery:"record_count"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("HourCounts: iter next: %w", err)
		}
		counts[int(row.Hour)] = int(row.RecordCount)
	}
	return counts, nil
}

// StartRun creates a screening_runs row with status=RUNNING.
func (s *BigQueryStore) StartRun(ctx context.Context, source string) (string, error) {
	runID := uuid.NewString()

	err := s.runQuery(ctx, fmt.Sprintf(`
		INSERT %s.screening_runs (run_id, source, started_at, status, safe_count, suspicious_count, error_message)
		VALUES (@run_id, @source, @started_at, @status, 0, 0, "")
	`, s.dataset), []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
		{Name: "source", Value: source},
		{Name: "started_at", Value: time.Now().UTC()},
		{Name: "status", Value: StatusRunning},
	})
	if err != nil {
		return "", fmt.Errorf("StartRun: %w", err)
	}
	return runID, nil
}

// MarkRunSucceeded updates the run row to status=SUCCESS with counts.
func (s *BigQueryStore) MarkRunSucceeded(ctx context.Context, runID string, safe, suspicious int) error {
	err := s.runQuery(ctx, fmt.Sprintf(`
		UPDATE %s.screening_runs
		SET status = @status,
		    finished_at = @finished_at,
		    safe_count = @safe_count,
		    suspicious_count = @suspicious_count,
		    error_message = ""
		WHERE run_id = @run_id
	`, s.dataset), []bigquery.QueryParameter{
		{Name: "status", Value: StatusSuccess},
		{Name: "finished_at", Value: time.Now().UTC()},
		{Name: "safe_count", Value: safe},
		{Name: "suspicious_count", Value: suspicious},
		{Name: "run_id", Value: runID},
	})
	if err != nil {
		return fmt.Errorf("MarkRunSucceeded: %w", err)
	}
	return nil
}

// MarkRunFailed updates the run row to status=FAILED. Best effort.
func (s *BigQueryStore) MarkRunFailed(ctx context.Context, runID string, runErr error) {
	_ = s.runQuery(ctx, fmt.Sprintf(`
		UPDATE %s.screening_runs
		SET status = @status,
		    finished_at = @finished_at,
		    error_message = @error_message
		WHERE run_id = @run_id
	`, s.dataset), []bigquery.QueryParameter{
		{Name: "status", Value: StatusFailed},
		{Name: "finished_at", Value: time.Now().UTC()},
		{Name: "error_message", Value: truncateError(runErr)},
		{Name: "run_id", Value: runID},
	})
}

// ListRuns returns the most recent runs, newest first.
func (s *BigQueryStore) ListRuns(ctx context.Context, limit int) ([]*RunRow, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT run_id, source, started_at, finished_at, status, safe_count, suspicious_count, error_message
		FROM %s.screening_runs
		ORDER BY started_at DESC
		LIMIT @limit
	`, s.dataset))
	q.Parameters = []bigquery.QueryParameter{{Name: "limit", Value: limit}}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListRuns: query read: %w", err)
	}

	var result []*RunRow
	for {
		var row struct {
			RunID           string                 `bigquery:"run_id"`
			Source          string                 `bigquery:"source"`
			StartedAt       time.Time              `bigquery:"started_at"`
			FinishedAt      bigquery.NullTimestamp `bigquery:"finished_at"`
			Status          string                 `bigquery:"status"`
			SafeCount       int64                  `bigquery:"safe_count"`
			SuspiciousCount int64                  `bigquery:"suspicious_count"`
			ErrorMessage    string                 `bigquery:"error_message"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListRuns: iter next: %w", err)
		}

		r := &RunRow{
			RunID:           row.RunID,
			Source:          row.Source,
			StartedAt:       row.StartedAt,
			Status:          row.Status,
			SafeCount:       int(row.SafeCount),
			SuspiciousCount: int(row.SuspiciousCount),
			ErrorMessage:    row.ErrorMessage,
		}
		if row.FinishedAt.Valid {
			t := row.FinishedAt.Timestamp
			r.FinishedAt = &t
		}
		result = append(result, r)
	}
	return result, nil
}

func (s *BigQueryStore) runQuery(ctx context.Context, sql string, params []bigquery.QueryParameter) error {
	q := s.client.Query(sql)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}
