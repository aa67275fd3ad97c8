// Package scoring computes a contest score from correctness, execution cost
// and completion time. Pure arithmetic, no I/O; every finalization path goes
// through Score so the number is the same no matter which trigger fired.
package scoring

import "math"

const (
	// DefaultExecutionTime fills a missing execution sample, in seconds.
	DefaultExecutionTime = 1.0

	// DefaultMemoryUsage fills a missing memory sample, in KB.
	DefaultMemoryUsage = 10240.0

	// MemoryScoreBaseline is the KB value at which the memory component
	// reaches zero. Deliberately independent of DefaultMemoryUsage: the
	// fill value is a worst-typical cost, the baseline is the scoring bar.
	MemoryScoreBaseline = 1024.0

	// DefaultMaxCompletionTime is the time budget fallback, in seconds.
	DefaultMaxCompletionTime = 3600.0
)

// Component weights. They sum to 100.
const (
	problemWeight    = 60.0
	execWeight       = 12.5
	memWeight        = 12.5
	completionWeight = 15.0
)

// Input carries one team's finalized results. ExecutionTimes and MemoryUsages
// have one slot per attempted problem; nil slots and problems never attempted
// are scored at the fill baselines, not at zero. Zero-valued tunables fall
// back to the package defaults.
type Input struct {
	SolvedCount    int
	TotalProblems  int
	ExecutionTimes []*float64
	MemoryUsages   []*float64
	CompletionTime float64

	MaxCompletionTime    float64
	DefaultExecutionTime float64
	DefaultMemoryUsage   float64
	MemoryScoreBaseline  float64
}

// Score returns the total on a 0..100 scale, rounded to 2 decimals.
//
// Up to 60 points come from correctness, 12.5 each from average execution
// time and memory against their baselines, and 15 from finishing under the
// time budget. Each cost component bottoms out at zero rather than going
// negative.
func Score(in Input) float64 {
	maxCompletion := in.MaxCompletionTime
	if maxCompletion == 0 {
		maxCompletion = DefaultMaxCompletionTime
	}
	defaultExec := in.DefaultExecutionTime
	if defaultExec == 0 {
		defaultExec = DefaultExecutionTime
	}
	defaultMem := in.DefaultMemoryUsage
	if defaultMem == 0 {
		defaultMem = DefaultMemoryUsage
	}
	memBaseline := in.MemoryScoreBaseline
	if memBaseline == 0 {
		memBaseline = MemoryScoreBaseline
	}

	fixedExec := fillMissing(in.ExecutionTimes, in.TotalProblems, defaultExec)
	fixedMem := fillMissing(in.MemoryUsages, in.TotalProblems, defaultMem)

	avgExec := average(fixedExec)
	avgMem := average(fixedMem)

	problemScore := 0.0
	if in.TotalProblems > 0 {
		problemScore = float64(in.SolvedCount) / float64(in.TotalProblems) * problemWeight
	}

	execScore := math.Max((1-avgExec/defaultExec)*execWeight, 0)
	memScore := math.Max((1-avgMem/memBaseline)*memWeight, 0)
	compScore := math.Max((1-in.CompletionTime/maxCompletion)*completionWeight, 0)

	total := problemScore + execScore + memScore + compScore

	return round2(math.Max(total, 0))
}

// fillMissing replaces nil samples with fallback and pads the list out to
// total slots. An unattempted problem costs the baseline, nothing worse.
func fillMissing(values []*float64, total int, fallback float64) []float64 {
	filled := make([]float64, 0, total)
	for _, v := range values {
		if v == nil {
			filled = append(filled, fallback)
		} else {
			filled = append(filled, *v)
		}
	}
	for len(filled) < total {
		filled = append(filled, fallback)
	}
	return filled
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func round2(n float64) float64 {
	return math.Round(n*100) / 100
}
