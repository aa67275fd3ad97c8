package judge

// TestCase is one input/output pair shipped to the judge worker.
type TestCase struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Job is the payload produced to the judge topic. The worker compiles and
// runs the code against the test cases and reports back on the judged topic.
type Job struct {
	TeamID       string     `json:"teamId"`
	ContestID    string     `json:"contestId"`
	ProblemID    string     `json:"problemId"`
	MemberID     string     `json:"memberId"`
	Code         string     `json:"code"`
	FunctionName string     `json:"functionName"`
	LanguageID   int        `json:"languageId"`
	TestCases    []TestCase `json:"testCases"`
}

// SubmissionJudgedEvent is the worker's verdict. ContestID doubles as the
// submission id throughout the platform.
type SubmissionJudgedEvent struct {
	TeamID        string   `json:"teamId"`
	ContestID     string   `json:"contestId"`
	ProblemID     string   `json:"problemId"`
	MemberID      string   `json:"memberId"`
	Success       bool     `json:"success"`
	ExecutionTime *float64 `json:"executionTime"`
	Memory        *float64 `json:"memory"`
	Code          *string  `json:"code"`
	LanguageID    *int     `json:"languageId"`
	Timestamp     string   `json:"timestamp"`
}

type ContestStartedEvent struct {
	ContestID string `json:"contestId"`
	Title     string `json:"title"`
	StartTime string `json:"startTime"`
	Timestamp string `json:"timestamp"`
}

type ContestEndedEvent struct {
	ContestID string `json:"contestId"`
	Title     string `json:"title"`
	EndTime   string `json:"endTime"`
	Timestamp string `json:"timestamp"`
}
