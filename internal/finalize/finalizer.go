// Package finalize seals submissions. Three triggers converge here: the team
// finish quorum, the countdown timeout and the admin batch sweep. All of them
// run the same procedure and the same scoring call; the only difference is
// how completion time is derived. The conditional write makes the whole thing
// idempotent, which is what keeps racing triggers safe.
package finalize

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/inacomp/contest-live-service/internal/models"
	"github.com/inacomp/contest-live-service/internal/scoring"
)

var ErrSubmissionNotFound = errors.New("submission not found")

// Trigger labels which path fired a finalization, for logs and metrics.
type Trigger string

const (
	TriggerQuorum  Trigger = "quorum"
	TriggerTimeout Trigger = "timeout"
	TriggerAdmin   Trigger = "admin"
)

// Result is the one-shot update applied to a submission row.
type Result struct {
	TotalProblemsSolved int
	CompletionTime      int
	SubmittedAt         time.Time
	Score               float64
}

// Store is the narrow relational surface the finalizer needs. Loads must
// include submission problems and the batch's problem list. ApplyResult must
// be a single conditional write on is_finish = false and report whether it
// took effect.
type Store interface {
	FindByTeamAndID(ctx context.Context, teamID, contestID string) (*models.Submission, error)
	FindUnfinishedByBatch(ctx context.Context, batchID string) ([]models.Submission, error)
	ApplyResult(ctx context.Context, submissionID string, res Result) (bool, error)
}

type Finalizer struct {
	store  Store
	now    func() time.Time
	logger zerolog.Logger
}

func New(store Store, logger zerolog.Logger) *Finalizer {
	return &Finalizer{
		store:  store,
		now:    time.Now,
		logger: logger.With().Str("component", "finalize").Logger(),
	}
}

// FinalizeQuorum seals a submission after the whole team declared finished.
// Completion time is the actual elapsed time since the submission started.
func (f *Finalizer) FinalizeQuorum(ctx context.Context, contestID, teamID string) (float64, error) {
	sub, err := f.store.FindByTeamAndID(ctx, teamID, contestID)
	if err != nil {
		return 0, err
	}

	elapsed := int(f.now().Sub(sub.StartAt).Seconds())
	return f.finalizeOne(ctx, sub, elapsed, TriggerQuorum)
}

// FinalizeTimeout seals a submission whose countdown ran out. The team is
// scored as having used the full time budget regardless of wall clock.
func (f *Finalizer) FinalizeTimeout(ctx context.Context, contestID, teamID string) (float64, error) {
	sub, err := f.store.FindByTeamAndID(ctx, teamID, contestID)
	if err != nil {
		return 0, err
	}

	return f.finalizeOne(ctx, sub, sub.Batch.Timer*60, TriggerTimeout)
}

// FinalizeBatch seals every unfinished submission in a batch at the full time
// budget and returns how many rows it actually sealed.
func (f *Finalizer) FinalizeBatch(ctx context.Context, batchID string) (int, error) {
	subs, err := f.store.FindUnfinishedByBatch(ctx, batchID)
	if err != nil {
		return 0, err
	}

	finalized := 0
	for i := range subs {
		sub := &subs[i]
		if _, err := f.finalizeOne(ctx, sub, sub.Batch.Timer*60, TriggerAdmin); err != nil {
			return finalized, fmt.Errorf("finalize submission %s: %w", sub.ID, err)
		}
		finalized++
	}

	return finalized, nil
}

// finalizeOne scores and seals a single submission. Already-finished rows are
// a success no-op returning the persisted score: re-finalizing must never be
// an error, or retries and trigger races would surface spurious failures.
func (f *Finalizer) finalizeOne(ctx context.Context, sub *models.Submission, completionTime int, trigger Trigger) (float64, error) {
	if sub.IsFinish {
		f.logger.Debug().
			Str("submissionId", sub.ID).
			Str("trigger", string(trigger)).
			Msg("Submission already finalized, skipping")
		return sub.Score, nil
	}

	solvedCount := 0
	executionTimes := make([]*float64, 0, len(sub.SubmissionProblems))
	memoryUsages := make([]*float64, 0, len(sub.SubmissionProblems))
	for _, sp := range sub.SubmissionProblems {
		if sp.Success {
			solvedCount++
		}
		executionTimes = append(executionTimes, sp.ExecutionTime)
		memoryUsages = append(memoryUsages, sp.Memory)
	}

	score := scoring.Score(scoring.Input{
		SolvedCount:       solvedCount,
		TotalProblems:     len(sub.Batch.Problems),
		ExecutionTimes:    executionTimes,
		MemoryUsages:      memoryUsages,
		CompletionTime:    float64(completionTime),
		MaxCompletionTime: float64(sub.Batch.Timer * 60),
	})

	applied, err := f.store.ApplyResult(ctx, sub.ID, Result{
		TotalProblemsSolved: solvedCount,
		CompletionTime:      completionTime,
		SubmittedAt:         f.now(),
		Score:               score,
	})
	if err != nil {
		return 0, fmt.Errorf("apply finalization: %w", err)
	}

	if !applied {
		// Lost the race against another trigger; their write stands.
		f.logger.Info().
			Str("submissionId", sub.ID).
			Str("trigger", string(trigger)).
			Msg("Submission finalized concurrently by another trigger")
		current, err := f.store.FindByTeamAndID(ctx, sub.TeamID, sub.ID)
		if err != nil {
			return 0, err
		}
		return current.Score, nil
	}

	f.logger.Info().
		Str("submissionId", sub.ID).
		Str("teamId", sub.TeamID).
		Str("trigger", string(trigger)).
		Int("solved", solvedCount).
		Int("completionTime", completionTime).
		Float64("score", score).
		Msg("Submission finalized")

	return score, nil
}
