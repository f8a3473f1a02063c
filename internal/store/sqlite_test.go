package store

import (
	"context"
	"testing"
	"time"

	"github.com/dvloznov/fraud-pipeline/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func rec(hour int, amount float64) *domain.ScoredRecord {
	return &domain.ScoredRecord{
		Fields:    domain.Record{"amount": amount, "merchant_category": "grocery", "fraud_flag": float64(0)},
		TransDate: time.Date(2024, 1, 1, hour, 0, 0, 0, time.UTC),
		Hour:      hour,
		RiskScore: 0,
	}
}

func TestReplacePartitionAndHourCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	recs := []*domain.ScoredRecord{rec(9, 10), rec(9, 20), rec(14, 30)}
	if err := s.ReplacePartition(ctx, domain.PartitionSafe, recs); err != nil {
		t.Fatalf("ReplacePartition failed: %v", err)
	}

	counts, err := s.HourCounts(ctx, domain.PartitionSafe)
	if err != nil {
		t.Fatalf("HourCounts failed: %v", err)
	}
	if counts[9] != 2 || counts[14] != 1 || len(counts) != 2 {
		t.Errorf("counts = %v, want map[9:2 14:1]", counts)
	}
}

// A second write fully replaces the first, matching the
// replace-on-write contract.
func TestReplacePartitionReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.ReplacePartition(ctx, domain.PartitionSuspicious, []*domain.ScoredRecord{rec(1, 10), rec(2, 20)}); err != nil {
		t.Fatalf("first ReplacePartition failed: %v", err)
	}
	if err := s.ReplacePartition(ctx, domain.PartitionSuspicious, []*domain.ScoredRecord{rec(3, 30)}); err != nil {
		t.Fatalf("second ReplacePartition failed: %v", err)
	}

	counts, err := s.HourCounts(ctx, domain.PartitionSuspicious)
	if err != nil {
		t.Fatalf("HourCounts failed: %v", err)
	}
	if len(counts) != 1 || counts[3] != 1 {
		t.Errorf("counts = %v, want map[3:1]", counts)
	}
}

func TestReplacePartitionEmpty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.ReplacePartition(ctx, domain.PartitionSafe, nil); err != nil {
		t.Fatalf("ReplacePartition with empty set failed: %v", err)
	}
	counts, err := s.HourCounts(ctx, domain.PartitionSafe)
	if err != nil {
		t.Fatalf("HourCounts failed: %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("counts = %v, want empty", counts)
	}
}

// Reading a partition that was never written is not an error.
func TestHourCountsUnwrittenPartition(t *testing.T) {
	s := newTestStore(t)

	counts, err := s.HourCounts(context.Background(), domain.PartitionSafe)
	if err != nil {
		t.Fatalf("HourCounts failed: %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("counts = %v, want empty", counts)
	}
}

func TestUnknownPartitionRejected(t *testing.T) {
	s := newTestStore(t)

	if err := s.ReplacePartition(context.Background(), domain.Partition("users; DROP TABLE"), nil); err == nil {
		t.Error("expected error for unknown partition")
	}
}

func TestRunLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	runID, err := s.StartRun(ctx, "fraud_data.csv")
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	if err := s.MarkRunSucceeded(ctx, runID, 7, 3); err != nil {
		t.Fatalf("MarkRunSucceeded failed: %v", err)
	}

	failedID, err := s.StartRun(ctx, "gs://bucket/batch.csv")
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	s.MarkRunFailed(ctx, failedID, context.DeadlineExceeded)

	runs, err := s.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}

	byID := make(map[string]*RunRow)
	for _, r := range runs {
		byID[r.RunID] = r
	}

	ok := byID[runID]
	if ok == nil || ok.Status != StatusSuccess || ok.SafeCount != 7 || ok.SuspiciousCount != 3 {
		t.Errorf("succeeded run = %+v, want SUCCESS 7/3", ok)
	}
	if ok != nil && ok.FinishedAt == nil {
		t.Error("succeeded run has no finished_at")
	}

	failed := byID[failedID]
	if failed == nil || failed.Status != StatusFailed || failed.ErrorMessage == "" {
		t.Errorf("failed run = %+v, want FAILED with message", failed)
	}
}
