package models

import "time"

// Submission is one team's overall attempt at one batch. Once IsFinish flips
// true the row is sealed: the finalizer's conditional update is the only
// write path and it refuses rows that are already finished.
type Submission struct {
	ID                  string     `gorm:"primarykey;size:30" json:"id"`
	TeamID              string     `gorm:"size:30;not null;index" json:"teamId"`
	BatchID             string     `gorm:"size:30;not null;index" json:"batchId"`
	IsFinish            bool       `gorm:"default:false" json:"isFinish"`
	Score               float64    `gorm:"default:0" json:"score"`
	StartAt             time.Time  `json:"startAt"`
	SubmittedAt         *time.Time `json:"submittedAt"`
	TotalProblemsSolved int        `gorm:"default:0" json:"totalProblemsSolved"`
	CompletionTime      *int       `json:"completionTime"` // seconds

	Batch              Batch               `gorm:"foreignKey:BatchID" json:"batch,omitempty"`
	SubmissionProblems []SubmissionProblem `gorm:"foreignKey:SubmissionID" json:"submissionProblems,omitempty"`
}

func (Submission) TableName() string {
	return "submission"
}

// SubmissionProblem is one judged attempt on one problem. The judge consumer
// upserts on (submission, problem) so at most one row per problem feeds the
// scoring inputs.
type SubmissionProblem struct {
	ID            string    `gorm:"primarykey;size:30" json:"id"`
	TeamID        string    `gorm:"size:30;not null;index" json:"teamId"`
	SubmissionID  string    `gorm:"size:30;not null;uniqueIndex:idx_submission_problem" json:"submissionId"`
	MemberID      string    `gorm:"column:user_id;size:30;not null" json:"memberId"`
	ProblemID     string    `gorm:"size:30;not null;uniqueIndex:idx_submission_problem" json:"problemId"`
	LanguageID    *int      `json:"languageId"`
	Success       bool      `gorm:"default:false" json:"success"`
	Code          *string   `gorm:"type:text" json:"code"`
	ExecutionTime *float64  `json:"executionTime"` // seconds
	Memory        *float64  `json:"memory"`        // KB
	SubmittedAt   time.Time `json:"submittedAt"`
}

func (SubmissionProblem) TableName() string {
	return "submission_problem"
}
