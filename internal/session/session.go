// Package session is the per-member contest orchestrator: it tracks which
// problem the member is editing, whether they declared finished, and the
// countdown, and it drives the lock and quorum stores through narrow
// interfaces. Rendering sits on top of this state; none of it lives here.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/inacomp/contest-live-service/internal/locks"
	"github.com/inacomp/contest-live-service/pkg/protocol"
)

var (
	ErrSessionFinalized = errors.New("session already finalized")
	ErrProblemTaken     = errors.New("problem is locked by a teammate")
)

// Phase is the editing dimension of the state machine. Finalized is
// terminal: once the countdown fires or the quorum completes, the session
// rejects further transitions and the UI is expected to navigate away.
type Phase int

const (
	PhaseBrowsing Phase = iota
	PhaseEditing
	PhaseFinalized
)

// LockAPI and FinishAPI are satisfied by the in-process stores and equally
// by an HTTP client talking to another instance.
type LockAPI interface {
	Acquire(ctx context.Context, contestID, teamID, memberID, problemID string) ([]locks.Entry, error)
	Release(ctx context.Context, contestID, teamID, memberID string) ([]locks.Entry, error)
	List(ctx context.Context, contestID, teamID string) ([]locks.Entry, error)
}

type FinishAPI interface {
	MarkFinished(ctx context.Context, contestID, teamID, memberID string) ([]string, error)
	MarkUnfinished(ctx context.Context, contestID, teamID, memberID string) error
	Finished(ctx context.Context, contestID, teamID string) ([]string, error)
}

type TimeoutFinalizer interface {
	FinalizeTimeout(ctx context.Context, contestID, teamID string) (float64, error)
}

type Config struct {
	ContestID string
	TeamID    string
	MemberID  string
	TeamSize  int
	StartedAt time.Time
	Timer     int // minutes

	Locks     LockAPI
	Finish    FinishAPI
	Finalizer TimeoutFinalizer
	Logger    zerolog.Logger
}

type Session struct {
	contestID string
	teamID    string
	memberID  string
	teamSize  int
	deadline  time.Time

	locks     LockAPI
	finish    FinishAPI
	finalizer TimeoutFinalizer
	logger    zerolog.Logger

	mu             sync.Mutex
	phase          Phase
	editingProblem string
	finished       bool
	lockedSet      []locks.Entry
}

func New(cfg Config) *Session {
	return &Session{
		contestID: cfg.ContestID,
		teamID:    cfg.TeamID,
		memberID:  cfg.MemberID,
		teamSize:  cfg.TeamSize,
		deadline:  cfg.StartedAt.Add(time.Duration(cfg.Timer) * time.Minute),
		locks:     cfg.Locks,
		finish:    cfg.Finish,
		finalizer: cfg.Finalizer,
		logger: cfg.Logger.With().
			Str("component", "session").
			Str("memberId", cfg.MemberID).
			Logger(),
	}
}

// Reconcile pulls the authoritative lock and finish snapshots and applies
// them. Called on mount and on the slow poll interval; if the member already
// holds a lock from a prior session (page reload mid-contest) the session
// lands straight in Editing on that problem so the slot is not lost.
func (s *Session) Reconcile(ctx context.Context) error {
	snapshot, err := s.locks.List(ctx, s.contestID, s.teamID)
	if err != nil {
		return err
	}
	finished, err := s.finish.Finished(ctx, s.contestID, s.teamID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.applyLocks(snapshot)

	s.finished = false
	for _, m := range finished {
		if m == s.memberID {
			s.finished = true
		}
	}

	if s.phase == PhaseBrowsing {
		for _, e := range s.lockedSet {
			if e.MemberID == s.memberID {
				s.phase = PhaseEditing
				s.editingProblem = e.ProblemID
				s.logger.Info().Str("problemId", e.ProblemID).Msg("Resumed held lock after reconcile")
				break
			}
		}
	}

	return nil
}

// ApplyLockEvent merges one pushed locked-check or unlocked-check into the
// local view. Push and poll both end in applyLocks so there is exactly one
// update path.
func (s *Session) ApplyLockEvent(info protocol.LockInfo, locked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]locks.Entry, 0, len(s.lockedSet)+1)
	if locked {
		for _, e := range s.lockedSet {
			if e.MemberID == info.MemberID && e.ProblemID == info.ProblemID {
				// Duplicate event; nothing changes.
				return
			}
			next = append(next, e)
		}
		next = append(next, locks.Entry{MemberID: info.MemberID, ProblemID: info.ProblemID})
	} else {
		for _, e := range s.lockedSet {
			// Empty MemberID is a wildcard: clear every lock on the problem
			// (administrative or cleanup unlocks).
			if e.ProblemID == info.ProblemID && (info.MemberID == "" || e.MemberID == info.MemberID) {
				continue
			}
			next = append(next, e)
		}
	}

	s.applyLocks(next)
}

// applyLocks is the single idempotent "here is the locked set" operation.
// Callers hold s.mu.
func (s *Session) applyLocks(entries []locks.Entry) {
	s.lockedSet = entries
}

// StartProblem acquires the member's lock and enters Editing. Exclusivity is
// enforced here, at the view layer: the store itself only records
// visibility.
func (s *Session) StartProblem(ctx context.Context, problemID string) error {
	s.mu.Lock()
	if s.phase == PhaseFinalized {
		s.mu.Unlock()
		return ErrSessionFinalized
	}
	for _, e := range s.lockedSet {
		if e.ProblemID == problemID && e.MemberID != s.memberID {
			s.mu.Unlock()
			return ErrProblemTaken
		}
	}
	s.mu.Unlock()

	updated, err := s.locks.Acquire(ctx, s.contestID, s.teamID, s.memberID, problemID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocks(updated)
	s.phase = PhaseEditing
	s.editingProblem = problemID
	return nil
}

// Back releases the member's lock and returns to Browsing.
func (s *Session) Back(ctx context.Context) error {
	s.mu.Lock()
	if s.phase == PhaseFinalized {
		s.mu.Unlock()
		return ErrSessionFinalized
	}
	s.mu.Unlock()

	updated, err := s.locks.Release(ctx, s.contestID, s.teamID, s.memberID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocks(updated)
	s.phase = PhaseBrowsing
	s.editingProblem = ""
	return nil
}

// DeclareFinished adds the member to the finish quorum. The second return
// reports whether this mark completed the quorum; the caller then fires the
// quorum finalization.
func (s *Session) DeclareFinished(ctx context.Context) ([]string, bool, error) {
	s.mu.Lock()
	if s.phase == PhaseFinalized {
		s.mu.Unlock()
		return nil, false, ErrSessionFinalized
	}
	s.mu.Unlock()

	finished, err := s.finish.MarkFinished(ctx, s.contestID, s.teamID, s.memberID)
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	s.finished = true
	s.mu.Unlock()

	return finished, len(finished) == s.teamSize, nil
}

// CancelFinished withdraws the member from the finish quorum.
func (s *Session) CancelFinished(ctx context.Context) error {
	s.mu.Lock()
	if s.phase == PhaseFinalized {
		s.mu.Unlock()
		return ErrSessionFinalized
	}
	s.mu.Unlock()

	if err := s.finish.MarkUnfinished(ctx, s.contestID, s.teamID, s.memberID); err != nil {
		return err
	}

	s.mu.Lock()
	s.finished = false
	s.mu.Unlock()
	return nil
}

// Timeout fires the countdown finalization. The session goes terminal even
// when the call fails: the member must not stay stuck in the contest view,
// and the admin sweep reconciles an unknown result later. Safe to call more
// than once.
func (s *Session) Timeout(ctx context.Context) error {
	s.mu.Lock()
	if s.phase == PhaseFinalized {
		s.mu.Unlock()
		return nil
	}
	s.phase = PhaseFinalized
	s.editingProblem = ""
	s.mu.Unlock()

	if _, err := s.finalizer.FinalizeTimeout(ctx, s.contestID, s.teamID); err != nil {
		s.logger.Error().Err(err).Msg("Timeout finalize failed; relying on admin sweep")
		return err
	}
	return nil
}

// Watch blocks until the deadline or ctx, then fires Timeout. Run in its own
// goroutine next to the session's event loop.
func (s *Session) Watch(ctx context.Context) {
	remaining := time.Until(s.deadline)
	if remaining < 0 {
		remaining = 0
	}
	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
		s.Timeout(ctx)
	}
}

func (s *Session) Deadline() time.Time {
	return s.deadline
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.deadline)
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) EditingProblem() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editingProblem
}

func (s *Session) IsFinished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// LockedByOther reports whether a teammate currently holds problemID; the
// problem view grays it out on true.
func (s *Session) LockedByOther(problemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.lockedSet {
		if e.ProblemID == problemID && e.MemberID != s.memberID {
			return true
		}
	}
	return false
}

func (s *Session) LockedSet() []locks.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]locks.Entry, len(s.lockedSet))
	copy(out, s.lockedSet)
	return out
}
