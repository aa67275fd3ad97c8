package finalize

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/inacomp/contest-live-service/internal/models"
)

type fakeStore struct {
	mu      sync.Mutex
	subs    map[string]*models.Submission
	applied int
}

func newFakeStore(subs ...*models.Submission) *fakeStore {
	s := &fakeStore{subs: make(map[string]*models.Submission)}
	for _, sub := range subs {
		s.subs[sub.ID] = sub
	}
	return s
}

func (s *fakeStore) FindByTeamAndID(ctx context.Context, teamID, contestID string) (*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[contestID]
	if !ok || sub.TeamID != teamID {
		return nil, ErrSubmissionNotFound
	}
	cp := *sub
	return &cp, nil
}

func (s *fakeStore) FindUnfinishedByBatch(ctx context.Context, batchID string) ([]models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Submission
	for _, sub := range s.subs {
		if sub.BatchID == batchID && !sub.IsFinish {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (s *fakeStore) ApplyResult(ctx context.Context, submissionID string, res Result) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[submissionID]
	if !ok || sub.IsFinish {
		return false, nil
	}
	sub.IsFinish = true
	sub.TotalProblemsSolved = res.TotalProblemsSolved
	ct := res.CompletionTime
	sub.CompletionTime = &ct
	at := res.SubmittedAt
	sub.SubmittedAt = &at
	sub.Score = res.Score
	s.applied++
	return true, nil
}

func fptr(v float64) *float64 { return &v }

func testSubmission() *models.Submission {
	return &models.Submission{
		ID:      "sub1",
		TeamID:  "t1",
		BatchID: "b1",
		StartAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Batch: models.Batch{
			ID:    "b1",
			Timer: 60,
			Problems: []models.Problem{
				{ID: "p1"}, {ID: "p2"}, {ID: "p3"},
			},
		},
		SubmissionProblems: []models.SubmissionProblem{
			{ProblemID: "p1", Success: true, ExecutionTime: fptr(0.5), Memory: fptr(512)},
			{ProblemID: "p2", Success: false, ExecutionTime: fptr(2), Memory: fptr(2048)},
		},
	}
}

func newTestFinalizer(store Store, at time.Time) *Finalizer {
	f := New(store, zerolog.Nop())
	f.now = func() time.Time { return at }
	return f
}

func TestFinalizeQuorumUsesElapsedTime(t *testing.T) {
	sub := testSubmission()
	store := newFakeStore(sub)
	now := sub.StartAt.Add(20 * time.Minute)
	f := newTestFinalizer(store, now)

	if _, err := f.FinalizeQuorum(context.Background(), "sub1", "t1"); err != nil {
		t.Fatal(err)
	}

	got := store.subs["sub1"]
	if !got.IsFinish {
		t.Fatal("submission not sealed")
	}
	if got.CompletionTime == nil || *got.CompletionTime != 1200 {
		t.Fatalf("completionTime = %v, want 1200 (elapsed)", got.CompletionTime)
	}
	// Only success=true rows count as solved, on every path.
	if got.TotalProblemsSolved != 1 {
		t.Fatalf("totalProblemsSolved = %d, want 1", got.TotalProblemsSolved)
	}
}

func TestFinalizeTimeoutUsesFullBudget(t *testing.T) {
	sub := testSubmission()
	store := newFakeStore(sub)
	// Timed out 5 minutes in; the score must still charge the full budget.
	f := newTestFinalizer(store, sub.StartAt.Add(5*time.Minute))

	if _, err := f.FinalizeTimeout(context.Background(), "sub1", "t1"); err != nil {
		t.Fatal(err)
	}

	got := store.subs["sub1"]
	if got.CompletionTime == nil || *got.CompletionTime != 3600 {
		t.Fatalf("completionTime = %v, want 3600 (budget)", got.CompletionTime)
	}
	if got.TotalProblemsSolved != 1 {
		t.Fatalf("totalProblemsSolved = %d, want 1", got.TotalProblemsSolved)
	}
}

func TestRefinalizeIsNoop(t *testing.T) {
	sub := testSubmission()
	store := newFakeStore(sub)
	f := newTestFinalizer(store, sub.StartAt.Add(10*time.Minute))

	first, err := f.FinalizeQuorum(context.Background(), "sub1", "t1")
	if err != nil {
		t.Fatal(err)
	}

	sealed := *store.subs["sub1"]

	// A later trigger on the same submission changes nothing.
	f2 := newTestFinalizer(store, sub.StartAt.Add(2*time.Hour))
	second, err := f2.FinalizeTimeout(context.Background(), "sub1", "t1")
	if err != nil {
		t.Fatalf("re-finalize returned error: %v", err)
	}
	if second != first {
		t.Fatalf("re-finalize returned score %v, want persisted %v", second, first)
	}

	got := *store.subs["sub1"]
	if got.Score != sealed.Score ||
		*got.CompletionTime != *sealed.CompletionTime ||
		got.TotalProblemsSolved != sealed.TotalProblemsSolved {
		t.Fatal("re-finalize mutated a sealed submission")
	}
	if store.applied != 1 {
		t.Fatalf("store applied %d writes, want 1", store.applied)
	}
}

func TestConcurrentFinalizeWritesOnce(t *testing.T) {
	sub := testSubmission()
	store := newFakeStore(sub)
	f := newTestFinalizer(store, sub.StartAt.Add(30*time.Minute))

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := f.FinalizeQuorum(context.Background(), "sub1", "t1")
		errs <- err
	}()
	go func() {
		defer wg.Done()
		_, err := f.FinalizeTimeout(context.Background(), "sub1", "t1")
		errs <- err
	}()
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("racing finalize returned error: %v", err)
		}
	}
	if store.applied != 1 {
		t.Fatalf("store applied %d writes under race, want exactly 1", store.applied)
	}
}

func TestFinalizeNotFound(t *testing.T) {
	store := newFakeStore()
	f := newTestFinalizer(store, time.Now())

	if _, err := f.FinalizeQuorum(context.Background(), "missing", "t1"); err != ErrSubmissionNotFound {
		t.Fatalf("err = %v, want ErrSubmissionNotFound", err)
	}
}

func TestFinalizeBatchSweepsUnfinished(t *testing.T) {
	done := testSubmission()
	done.ID = "sub-done"
	done.TeamID = "t9"
	done.IsFinish = true

	a := testSubmission()
	a.ID = "sub-a"
	b := testSubmission()
	b.ID = "sub-b"
	b.TeamID = "t2"
	b.SubmissionProblems = nil

	store := newFakeStore(done, a, b)
	f := newTestFinalizer(store, a.StartAt.Add(time.Hour))

	count, err := f.FinalizeBatch(context.Background(), "b1")
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("finalized %d submissions, want 2", count)
	}

	for _, id := range []string{"sub-a", "sub-b"} {
		got := store.subs[id]
		if !got.IsFinish {
			t.Errorf("%s not sealed", id)
		}
		if got.CompletionTime == nil || *got.CompletionTime != 3600 {
			t.Errorf("%s completionTime = %v, want 3600", id, got.CompletionTime)
		}
	}
	// A team with no attempts scores zero solved, not an error.
	if store.subs["sub-b"].TotalProblemsSolved != 0 {
		t.Errorf("empty submission solved count = %d, want 0", store.subs["sub-b"].TotalProblemsSolved)
	}
}
