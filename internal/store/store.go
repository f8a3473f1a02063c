// Package store persists routed partitions and the screening run
// ledger. Two engines implement the same contract: SQLite for local
// use and BigQuery as the warehouse. Partition writes replace any
// prior content under the same name; reads only ever group by hour.
package store

import (
	"context"
	"time"

	"github.com/dvloznov/fraud-pipeline/internal/domain"
)

// Run statuses.
const (
	StatusRunning = "RUNNING"
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// RunRow is one entry in the screening run ledger.
type RunRow struct {
	RunID      string
	Source     string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string

	SafeCount       int
	SuspiciousCount int
	ErrorMessage    string
}

// Store is the persistence contract the pipeline and the reporting
// path share. It satisfies pipeline.PartitionWriter and
// pipeline.RunTracker.
type Store interface {
	// ReplacePartition overwrites the named partition with recs.
	ReplacePartition(ctx context.Context, p domain.Partition, recs []*domain.ScoredRecord) error

	// HourCounts returns record counts per hour-of-day for one
	// partition. A partition that was never written reads as empty.
	HourCounts(ctx context.Context, p domain.Partition) (map[int]int, error)

	StartRun(ctx context.Context, source string) (string, error)
	MarkRunSucceeded(ctx context.Context, runID string, safe, suspicious int) error
	MarkRunFailed(ctx context.Context, runID string, runErr error)

	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]*RunRow, error)

	Close() error
}

// tableFor maps a partition to its table name, rejecting anything
// outside the two known partitions before it reaches SQL text.
func tableFor(p domain.Partition) (string, error) {
	switch p {
	case domain.PartitionSafe, domain.PartitionSuspicious:
		return string(p), nil
	}
	return "", &UnknownPartitionError{Partition: p}
}

// UnknownPartitionError reports a partition name outside {safe, suspicious}.
type UnknownPartitionError struct {
	Partition domain.Partition
}

func (e *UnknownPartitionError) Error() string {
	return "store: unknown partition " + string(e.Partition)
}

// truncateError bounds an error message before it is written to a
// status column.
func truncateError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	const maxLen = 2000
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
