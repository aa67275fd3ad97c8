// Package quorum tracks which team members have declared "finished" for a
// contest. Finalization triggers when the set covers the whole team; the
// trigger itself is made race-safe by the finalizer's idempotence, not here.
package quorum

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	keyFmt = "finish:%s:%s"

	// Comfortably past any batch timer so a live quorum never evaporates
	// mid-contest.
	finishTTL = 6 * time.Hour
)

type setStore interface {
	SAdd(ctx context.Context, key string, members ...interface{}) error
	SRem(ctx context.Context, key string, members ...interface{}) error
	SMembers(ctx context.Context, key string) ([]string, error)
	Expire(ctx context.Context, key string, expiration time.Duration) error
}

type Store struct {
	sets   setStore
	logger zerolog.Logger
}

func NewStore(sets setStore, logger zerolog.Logger) *Store {
	return &Store{
		sets:   sets,
		logger: logger.With().Str("component", "quorum").Logger(),
	}
}

func roomKey(contestID, teamID string) string {
	return fmt.Sprintf(keyFmt, contestID, teamID)
}

// MarkFinished adds memberID to the finish set and returns the updated set.
// Adding an already-present member is a set no-op.
func (s *Store) MarkFinished(ctx context.Context, contestID, teamID, memberID string) ([]string, error) {
	key := roomKey(contestID, teamID)
	if err := s.sets.SAdd(ctx, key, memberID); err != nil {
		return nil, fmt.Errorf("mark finished: %w", err)
	}
	if err := s.sets.Expire(ctx, key, finishTTL); err != nil {
		return nil, fmt.Errorf("refresh finish ttl: %w", err)
	}

	finished, err := s.sets.SMembers(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read finish set: %w", err)
	}

	s.logger.Debug().
		Str("contestId", contestID).
		Str("teamId", teamID).
		Str("memberId", memberID).
		Int("finished", len(finished)).
		Msg("Member marked finished")

	return finished, nil
}

// MarkUnfinished removes memberID from the finish set.
func (s *Store) MarkUnfinished(ctx context.Context, contestID, teamID, memberID string) error {
	if err := s.sets.SRem(ctx, roomKey(contestID, teamID), memberID); err != nil {
		return fmt.Errorf("mark unfinished: %w", err)
	}
	return nil
}

// Finished returns the members currently in the finish set.
func (s *Store) Finished(ctx context.Context, contestID, teamID string) ([]string, error) {
	finished, err := s.sets.SMembers(ctx, roomKey(contestID, teamID))
	if err != nil {
		return nil, fmt.Errorf("read finish set: %w", err)
	}
	return finished, nil
}
