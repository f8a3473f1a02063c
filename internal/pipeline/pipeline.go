package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/fraud-pipeline/internal/domain"
	"github.com/dvloznov/fraud-pipeline/internal/logger"
)

// Step represents a single step in the screening pipeline.
type Step interface {
	Execute(ctx context.Context, state *State) error
}

// State holds the shared state across all pipeline steps.
type State struct {
	SourceName string
	RunID      string

	Raw     []domain.Record
	Records []*domain.ScoredRecord

	Safe       []*domain.ScoredRecord
	Suspicious []*domain.ScoredRecord
}

// Step 1: StartRunStep creates a screening run row (status=RUNNING).
type StartRunStep struct {
	Runs RunTracker
}

func (s *StartRunStep) Execute(ctx context.Context, state *State) error {
	runID, err := s.Runs.StartRun(ctx, state.SourceName)
	if err != nil {
		return err
	}
	state.RunID = runID
	return nil
}

// Step 2: LoadRecordsStep reads the raw batch from the record source.
type LoadRecordsStep struct {
	Source RecordSource
	Runs   RunTracker
}

func (s *LoadRecordsStep) Execute(ctx context.Context, state *State) error {
	raw, err := s.Source.Load(ctx)
	if err != nil {
		s.Runs.MarkRunFailed(ctx, state.RunID, err)
		return err
	}
	if len(raw) == 0 {
		log := logger.FromContext(ctx)
		log.Warn().Str("source", state.SourceName).Msg("no usable input, screening an empty batch")
	}
	state.Raw = raw
	return nil
}

// Step 3: NormalizeStep canonicalizes field names and derives trans_date and hour.
type NormalizeStep struct {
	Normalizer *Normalizer
}

func (s *NormalizeStep) Execute(ctx context.Context, state *State) error {
	state.Records = s.Normalizer.Apply(ctx, state.Raw)
	return nil
}

// Step 4: ScoreStep computes the risk score for every record.
type ScoreStep struct{}

func (s *ScoreStep) Execute(ctx context.Context, state *State) error {
	for _, rec := range state.Records {
		rec.RiskScore = Score(rec)
	}
	return nil
}

// Step 5: RouteStep partitions records into safe and suspicious sets.
type RouteStep struct{}

func (s *RouteStep) Execute(ctx context.Context, state *State) error {
	for _, rec := range state.Records {
		if Route(rec) == domain.PartitionSuspicious {
			state.Suspicious = append(state.Suspicious, rec)
		} else {
			state.Safe = append(state.Safe, rec)
		}
	}
	log := logger.FromContext(ctx)
	log.Info().
		Int("suspicious", len(state.Suspicious)).
		Int("safe", len(state.Safe)).
		Msg("Routing complete")
	return nil
}

// Step 6: PersistPartitionsStep writes both partitions, replacing prior content.
type PersistPartitionsStep struct {
	Store PartitionWriter
	Runs  RunTracker
}

func (s *PersistPartitionsStep) Execute(ctx context.Context, state *State) error {
	if err := s.Store.ReplacePartition(ctx, domain.PartitionSafe, state.Safe); err != nil {
		s.Runs.MarkRunFailed(ctx, state.RunID, err)
		return err
	}
	if err := s.Store.ReplacePartition(ctx, domain.PartitionSuspicious, state.Suspicious); err != nil {
		s.Runs.MarkRunFailed(ctx, state.RunID, err)
		return err
	}
	return nil
}

// Step 7: MarkSuccessStep marks the screening run as SUCCESS.
type MarkSuccessStep struct {
	Runs RunTracker
}

func (s *MarkSuccessStep) Execute(ctx context.Context, state *State) error {
	return s.Runs.MarkRunSucceeded(ctx, state.RunID, len(state.Safe), len(state.Suspicious))
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []Step
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// NewScreeningPipeline creates the standard 7-step pipeline for one
// screening run. A nil clock falls back to wall-clock time.
func NewScreeningPipeline(src RecordSource, store PartitionWriter, runs RunTracker, now Clock) *Pipeline {
	return NewPipeline(
		&StartRunStep{Runs: runs},
		&LoadRecordsStep{Source: src, Runs: runs},
		&NormalizeStep{Normalizer: NewNormalizer(now)},
		&ScoreStep{},
		&RouteStep{},
		&PersistPartitionsStep{Store: store, Runs: runs},
		&MarkSuccessStep{Runs: runs},
	)
}

// ScreenBatch runs the full screening pipeline over one batch from the
// given source: load, normalize, score, route, persist.
func ScreenBatch(ctx context.Context, src RecordSource, store PartitionWriter, runs RunTracker) error {
	state := &State{SourceName: src.Name()}
	return NewScreeningPipeline(src, store, runs, nil).Execute(ctx, state)
}
