package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/inacomp/contest-live-service/internal/models"
)

type ContestHandler struct {
	db     *gorm.DB
	logger zerolog.Logger
}

func NewContestHandler(db *gorm.DB, logger zerolog.Logger) *ContestHandler {
	return &ContestHandler{
		db:     db,
		logger: logger.With().Str("component", "contest-handler").Logger(),
	}
}

// Bootstrap handles GET /contest/:teamId/:contestId. It loads everything the
// contest view needs in one round trip: the submission with its judged
// attempts, the batch with its problems, and the team roster for the finish
// quorum denominator. First load also flips the batch-team isStart flag.
func (h *ContestHandler) Bootstrap(c *gin.Context) {
	teamID := c.Param("teamId")
	contestID := c.Param("contestId")
	if teamID == "" || contestID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing params"})
		return
	}

	var sub models.Submission
	err := h.db.WithContext(c.Request.Context()).
		Preload("SubmissionProblems").
		Preload("Batch.Problems.TestCases").
		Preload("Batch.Problems.Languages").
		Where("id = ? AND team_id = ?", contestID, teamID).
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

	var team models.Team
	if err := h.db.WithContext(c.Request.Context()).
		Preload("Members").
		First(&team, "id = ?", teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Team not found"})
			return
		}
		h.logger.Error().Err(err).Msg("Load team failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error"})
		return
	}

	res := h.db.WithContext(c.Request.Context()).
		Model(&models.BatchTeam{}).
		Where("batch_id = ? AND team_id = ? AND is_start = ?", sub.BatchID, teamID, false).
		Update("is_start", true)
	if res.Error != nil {
		h.logger.Error().Err(res.Error).Msg("Flip isStart failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"submission":     sub,
		"totalMember":    len(team.Members),
		"alreadyStarted": res.RowsAffected == 0,
	})
}

// Leaderboard handles GET /leaderboard/:batchId: finished submissions ranked
// by score descending, ties broken by shorter completion time.
func (h *ContestHandler) Leaderboard(c *gin.Context) {
	batchID := c.Param("batchId")
	if batchID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing params"})
		return
	}

	var subs []models.Submission
	err := h.db.WithContext(c.Request.Context()).
		Where("batch_id = ? AND is_finish = ?", batchID, true).
		Order("score DESC, completion_time ASC").
		Find(&subs).Error
	if err != nil {
		h.logger.Error().Err(err).Msg("Load leaderboard failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error"})
		return
	}

	teamIDs := make([]string, 0, len(subs))
	for _, sub := range subs {
		teamIDs = append(teamIDs, sub.TeamID)
	}

	teams := make(map[string]string, len(teamIDs))
	if len(teamIDs) > 0 {
		var rows []models.Team
		if err := h.db.WithContext(c.Request.Context()).
			Where("id IN ?", teamIDs).
			Find(&rows).Error; err != nil {
			h.logger.Error().Err(err).Msg("Load leaderboard teams failed")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error"})
			return
		}
		for _, t := range rows {
			teams[t.ID] = t.Name
		}
	}

	type entry struct {
		Rank                int     `json:"rank"`
		TeamID              string  `json:"teamId"`
		TeamName            string  `json:"teamName"`
		Score               float64 `json:"score"`
		TotalProblemsSolved int     `json:"totalProblemsSolved"`
		CompletionTime      *int    `json:"completionTime"`
	}

	entries := make([]entry, 0, len(subs))
	for i, sub := range subs {
		entries = append(entries, entry{
			Rank:                i + 1,
			TeamID:              sub.TeamID,
			TeamName:            teams[sub.TeamID],
			Score:               sub.Score,
			TotalProblemsSolved: sub.TotalProblemsSolved,
			CompletionTime:      sub.CompletionTime,
		})
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}
