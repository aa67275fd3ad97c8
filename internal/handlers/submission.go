package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/inacomp/contest-live-service/internal/auth"
	"github.com/inacomp/contest-live-service/internal/judge"
	"github.com/inacomp/contest-live-service/internal/metrics"
	"github.com/inacomp/contest-live-service/internal/models"
)

type SubmissionHandler struct {
	db       *gorm.DB
	producer *judge.Producer
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

func NewSubmissionHandler(db *gorm.DB, producer *judge.Producer, m *metrics.Metrics, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		db:       db,
		producer: producer,
		metrics:  m,
		logger:   logger.With().Str("component", "submission-handler").Logger(),
	}
}

type submitRequest struct {
	ContestID  string `json:"contestId" binding:"required"`
	TeamID     string `json:"teamId" binding:"required"`
	ProblemID  string `json:"problemId" binding:"required"`
	Code       string `json:"code" binding:"required"`
	LanguageID int    `json:"languageId" binding:"required"`
}

// Submit handles POST /submission-problem. It rejects sealed submissions,
// loads the problem's test cases and enqueues a judge job. The verdict comes
// back asynchronously on the judged topic and lands via the consumer.
func (h *SubmissionHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing params"})
		return
	}

	claims := auth.ClaimsFromContext(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	var sub models.Submission
	err := h.db.WithContext(c.Request.Context()).
		Select("id", "is_finish").
		Where("id = ? AND team_id = ?", req.ContestID, req.TeamID).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Submission not found"})
			return
		}
		h.logger.Error().Err(err).Msg("Load submission failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error"})
		return
	}
	if sub.IsFinish {
		c.JSON(http.StatusConflict, gin.H{"message": "Submission already finalized"})
		return
	}

	var problem models.Problem
	err = h.db.WithContext(c.Request.Context()).
		Preload("TestCases").
		First(&problem, "id = ?", req.ProblemID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Problem not found"})
			return
		}
		h.logger.Error().Err(err).Msg("Load problem failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error"})
		return
	}

	testCases := make([]judge.TestCase, 0, len(problem.TestCases))
	for _, tc := range problem.TestCases {
		testCases = append(testCases, judge.TestCase{
			Input:  tc.Input,
			Output: tc.Output,
		})
	}

	job := judge.Job{
		TeamID:       req.TeamID,
		ContestID:    req.ContestID,
		ProblemID:    req.ProblemID,
		MemberID:     claims.GetMemberID(),
		Code:         req.Code,
		FunctionName: problem.FunctionExecution,
		LanguageID:   req.LanguageID,
		TestCases:    testCases,
	}

	if err := h.producer.Enqueue(c.Request.Context(), job); err != nil {
		h.logger.Error().Err(err).Msg("Enqueue judge job failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error"})
		return
	}
	h.metrics.IncJudgeJob()

	c.JSON(http.StatusAccepted, gin.H{"message": "Submitted for judging"})
}
