// Package locks implements the per-team locked-problem store. A lock is a
// visibility claim, not an exclusion: each member owns at most one entry per
// room, and "problem taken" is decided by whoever reads the set. The store is
// authoritative; the websocket relay on top of it is best-effort.
package locks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	redisclient "github.com/inacomp/contest-live-service/internal/redis"
)

const (
	keyFmt = "locked-problem:%s:%s"

	// A crashed client's lock disappears on its own after this long.
	lockTTL = 30 * time.Minute
)

// Entry records that one member is currently editing one problem.
type Entry struct {
	MemberID  string `json:"memberId"`
	ProblemID string `json:"problemId"`
}

type kvStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

type Store struct {
	kv     kvStore
	logger zerolog.Logger
}

func NewStore(kv kvStore, logger zerolog.Logger) *Store {
	return &Store{
		kv:     kv,
		logger: logger.With().Str("component", "locks").Logger(),
	}
}

func roomKey(contestID, teamID string) string {
	return fmt.Sprintf(keyFmt, contestID, teamID)
}

// Acquire replaces any existing entry for memberID with {memberID, problemID}
// and resets the room TTL. The whole set is rewritten in one SET since the
// value is a single small JSON array.
func (s *Store) Acquire(ctx context.Context, contestID, teamID, memberID, problemID string) ([]Entry, error) {
	entries, err := s.load(ctx, contestID, teamID)
	if err != nil {
		return nil, err
	}

	filtered := make([]Entry, 0, len(entries)+1)
	for _, e := range entries {
		if e.MemberID != memberID {
			filtered = append(filtered, e)
		}
	}
	filtered = append(filtered, Entry{MemberID: memberID, ProblemID: problemID})

	if err := s.save(ctx, contestID, teamID, filtered); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("contestId", contestID).
		Str("teamId", teamID).
		Str("memberId", memberID).
		Str("problemId", problemID).
		Msg("Lock acquired")

	return filtered, nil
}

// Release removes memberID's entry if present. Releasing an absent entry is
// a no-op, not an error.
func (s *Store) Release(ctx context.Context, contestID, teamID, memberID string) ([]Entry, error) {
	entries, err := s.load(ctx, contestID, teamID)
	if err != nil {
		return nil, err
	}

	filtered := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.MemberID != memberID {
			filtered = append(filtered, e)
		}
	}

	if err := s.save(ctx, contestID, teamID, filtered); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("contestId", contestID).
		Str("teamId", teamID).
		Str("memberId", memberID).
		Msg("Lock released")

	return filtered, nil
}

// List returns the current locked set. An absent key means every problem is
// unlocked, never an error.
func (s *Store) List(ctx context.Context, contestID, teamID string) ([]Entry, error) {
	return s.load(ctx, contestID, teamID)
}

func (s *Store) load(ctx context.Context, contestID, teamID string) ([]Entry, error) {
	raw, err := s.kv.Get(ctx, roomKey(contestID, teamID))
	if err != nil {
		if redisclient.IsNil(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("read locked set: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("decode locked set: %w", err)
	}
	return entries, nil
}

func (s *Store) save(ctx context.Context, contestID, teamID string, entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode locked set: %w", err)
	}
	if err := s.kv.Set(ctx, roomKey(contestID, teamID), data, lockTTL); err != nil {
		return fmt.Errorf("write locked set: %w", err)
	}
	return nil
}
