package models

import "time"

// Batch is one timed contest instance. Read-only for this service once
// published; the admin CRUD side owns it.
type Batch struct {
	ID          string    `gorm:"primarykey;size:30" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description *string   `gorm:"type:text" json:"description"`
	Publish     bool      `gorm:"default:false" json:"publish"`
	Timer       int       `gorm:"not null" json:"timer"` // minutes
	StartedAt   time.Time `json:"startedAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Problems []Problem `gorm:"foreignKey:BatchID" json:"problems,omitempty"`
	Teams    []BatchTeam `gorm:"foreignKey:BatchID" json:"teams,omitempty"`
}

func (Batch) TableName() string {
	return "batch"
}

type Problem struct {
	ID                string    `gorm:"primarykey;size:30" json:"id"`
	Title             string    `gorm:"size:255;not null" json:"title"`
	Description       string    `gorm:"type:text" json:"description"`
	BatchID           string    `gorm:"size:30;not null;index" json:"batchId"`
	FunctionExecution string    `gorm:"size:255" json:"functionExecution"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`

	TestCases []TestCase `gorm:"foreignKey:ProblemID" json:"testCases,omitempty"`
	Languages []Language `gorm:"foreignKey:ProblemID" json:"languages,omitempty"`
}

func (Problem) TableName() string {
	return "problem"
}

type TestCase struct {
	ID        string `gorm:"primarykey;size:30" json:"id"`
	Input     string `gorm:"type:text" json:"input"`
	Output    string `gorm:"type:text" json:"output"`
	ProblemID string `gorm:"size:30;not null;index" json:"problemId"`
}

func (TestCase) TableName() string {
	return "test_case"
}

// Language is a per-problem starter template for one judge language.
type Language struct {
	ID               string `gorm:"primarykey;size:30" json:"id"`
	Name             string `gorm:"size:50" json:"name"`
	LanguageID       int    `gorm:"not null" json:"languageId"`
	ProblemID        string `gorm:"size:30;not null;index" json:"problemId"`
	FunctionTemplate string `gorm:"type:text" json:"functionTemplate"`
}

func (Language) TableName() string {
	return "language"
}

// BatchTeam links a team to a batch it participates in; isStart flips when
// the team first opens the contest view.
type BatchTeam struct {
	ID      string `gorm:"primarykey;size:30" json:"id"`
	BatchID string `gorm:"size:30;not null;uniqueIndex:idx_batch_team" json:"batchId"`
	TeamID  string `gorm:"size:30;not null;uniqueIndex:idx_batch_team" json:"teamId"`
	IsStart bool   `gorm:"default:false" json:"isStart"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (BatchTeam) TableName() string {
	return "batch_team"
}
