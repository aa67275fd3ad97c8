package scoring

import "testing"

func ptr(v float64) *float64 { return &v }

func nils(n int) []*float64 { return make([]*float64, n) }

func TestScoreAllBaselinesFullTime(t *testing.T) {
	// Nothing solved, every sample at its fill baseline, full budget used:
	// every component bottoms out at zero.
	got := Score(Input{
		SolvedCount:       0,
		TotalProblems:     5,
		ExecutionTimes:    nils(5),
		MemoryUsages:      nils(5),
		CompletionTime:    3600,
		MaxCompletionTime: 3600,
	})
	if got != 0 {
		t.Fatalf("Score = %v, want 0", got)
	}
}

func TestScoreAllSolvedInstantFinish(t *testing.T) {
	// All solved at exactly the exec baseline and the memory-score baseline,
	// finished at t=0: 60 correctness + 15 completion, both cost components 0.
	exec := []*float64{ptr(1), ptr(1), ptr(1), ptr(1), ptr(1)}
	mem := []*float64{ptr(1024), ptr(1024), ptr(1024), ptr(1024), ptr(1024)}

	got := Score(Input{
		SolvedCount:       5,
		TotalProblems:     5,
		ExecutionTimes:    exec,
		MemoryUsages:      mem,
		CompletionTime:    0,
		MaxCompletionTime: 3600,
	})
	if got != 75 {
		t.Fatalf("Score = %v, want 75", got)
	}
}

func TestScorePerfect(t *testing.T) {
	exec := []*float64{ptr(0), ptr(0), ptr(0)}
	mem := []*float64{ptr(0), ptr(0), ptr(0)}

	got := Score(Input{
		SolvedCount:       3,
		TotalProblems:     3,
		ExecutionTimes:    exec,
		MemoryUsages:      mem,
		CompletionTime:    0,
		MaxCompletionTime: 3600,
	})
	if got != 100 {
		t.Fatalf("Score = %v, want 100", got)
	}
}

func TestScoreMonotonicInSolvedCount(t *testing.T) {
	prev := -1.0
	for solved := 0; solved <= 5; solved++ {
		got := Score(Input{
			SolvedCount:       solved,
			TotalProblems:     5,
			ExecutionTimes:    nils(5),
			MemoryUsages:      nils(5),
			CompletionTime:    1800,
			MaxCompletionTime: 3600,
		})
		if got < prev {
			t.Fatalf("score decreased from %v to %v at solvedCount=%d", prev, got, solved)
		}
		prev = got
	}
}

func TestScorePadsUnattemptedProblems(t *testing.T) {
	// Two attempted out of five: three slots padded at the fill baselines.
	// avgExec = (0.5+0.5+1+1+1)/5 = 0.8 -> execScore = 0.2*12.5 = 2.5.
	// avgMem = (512+512+10240*3)/5 = 6348.8 >= 1024 -> memScore = 0.
	exec := []*float64{ptr(0.5), ptr(0.5)}
	mem := []*float64{ptr(512), ptr(512)}

	got := Score(Input{
		SolvedCount:       2,
		TotalProblems:     5,
		ExecutionTimes:    exec,
		MemoryUsages:      mem,
		CompletionTime:    3600,
		MaxCompletionTime: 3600,
	})
	want := 24.0 + 2.5
	if got != want {
		t.Fatalf("Score = %v, want %v", got, want)
	}
}

func TestScoreOverBudgetClampsCompletion(t *testing.T) {
	under := Score(Input{
		SolvedCount:       1,
		TotalProblems:     2,
		ExecutionTimes:    nils(2),
		MemoryUsages:      nils(2),
		CompletionTime:    3600,
		MaxCompletionTime: 3600,
	})
	over := Score(Input{
		SolvedCount:       1,
		TotalProblems:     2,
		ExecutionTimes:    nils(2),
		MemoryUsages:      nils(2),
		CompletionTime:    7200,
		MaxCompletionTime: 3600,
	})
	if under != over {
		t.Fatalf("overshooting the budget changed the score: %v vs %v", under, over)
	}
}

func TestScoreRoundsToTwoDecimals(t *testing.T) {
	// compScore = (1 - 1000/3600) * 15 = 10.8333... -> 10.83.
	got := Score(Input{
		SolvedCount:       0,
		TotalProblems:     5,
		ExecutionTimes:    nils(5),
		MemoryUsages:      nils(5),
		CompletionTime:    1000,
		MaxCompletionTime: 3600,
	})
	if got != 10.83 {
		t.Fatalf("Score = %v, want 10.83", got)
	}
}

func TestScoreDefaultsApplyWhenUnset(t *testing.T) {
	// MaxCompletionTime falls back to 3600 when zero.
	withDefault := Score(Input{
		SolvedCount:    1,
		TotalProblems:  2,
		ExecutionTimes: nils(2),
		MemoryUsages:   nils(2),
		CompletionTime: 1800,
	})
	explicit := Score(Input{
		SolvedCount:       1,
		TotalProblems:     2,
		ExecutionTimes:    nils(2),
		MemoryUsages:      nils(2),
		CompletionTime:    1800,
		MaxCompletionTime: 3600,
	})
	if withDefault != explicit {
		t.Fatalf("default budget differs from explicit: %v vs %v", withDefault, explicit)
	}
}
