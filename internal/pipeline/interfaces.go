package pipeline

import (
	"context"

	"github.com/dvloznov/fraud-pipeline/internal/domain"
)

// RecordSource supplies one fully-materialized batch of raw records.
// A missing input is not an error: implementations log a warning and
// return an empty batch.
type RecordSource interface {
	// Name identifies the source for run tracking and logs.
	Name() string

	// Load reads the whole batch into memory.
	Load(ctx context.Context) ([]domain.Record, error)
}

// PartitionWriter persists one routed partition, replacing any prior
// content stored under the same partition name.
type PartitionWriter interface {
	ReplacePartition(ctx context.Context, p domain.Partition, recs []*domain.ScoredRecord) error
}

// RunTracker records the lifecycle of one screening run.
type RunTracker interface {
	// StartRun creates a run row with status RUNNING and returns its ID.
	StartRun(ctx context.Context, source string) (string, error)

	// MarkRunSucceeded finalizes the run with routed counts.
	MarkRunSucceeded(ctx context.Context, runID string, safe, suspicious int) error

	// MarkRunFailed finalizes the run as FAILED. Best effort: tracking
	// failures are logged, never propagated over the original error.
	MarkRunFailed(ctx context.Context, runID string, runErr error)
}
