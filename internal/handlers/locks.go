package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/inacomp/contest-live-service/internal/auth"
	"github.com/inacomp/contest-live-service/internal/locks"
	"github.com/inacomp/contest-live-service/internal/metrics"
)

type LockHandler struct {
	store   *locks.Store
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewLockHandler(store *locks.Store, m *metrics.Metrics, logger zerolog.Logger) *LockHandler {
	return &LockHandler{
		store:   store,
		metrics: m,
		logger:  logger.With().Str("component", "lock-handler").Logger(),
	}
}

type lockRequest struct {
	ContestID string `json:"contestId" binding:"required"`
	TeamID    string `json:"teamId" binding:"required"`
	ProblemID string `json:"problemId"`
}

// Acquire handles POST /locked-problem. The caller emits the locked-check
// broadcast itself, after this returns, so teammates reacting to the event
// always find the store already updated.
func (h *LockHandler) Acquire(c *gin.Context) {
	var req lockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing params"})
		return
	}
	if req.ProblemID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing params"})
		return
	}

	claims := auth.ClaimsFromContext(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	lockedSet, err := h.store.Acquire(c.Request.Context(), req.ContestID, req.TeamID, claims.GetMemberID(), req.ProblemID)
	if err != nil {
		h.metrics.IncLockOperation("acquire", "error")
		h.logger.Error().Err(err).Msg("Lock acquire failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error"})
		return
	}

	h.metrics.IncLockOperation("acquire", "ok")
	c.JSON(http.StatusOK, gin.H{"message": "Success", "lockedProblem": lockedSet})
}

// Release handles POST /unlocked-problem.
func (h *LockHandler) Release(c *gin.Context) {
	var req lockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing params"})
		return
	}

	claims := auth.ClaimsFromContext(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	lockedSet, err := h.store.Release(c.Request.Context(), req.ContestID, req.TeamID, claims.GetMemberID())
	if err != nil {
		h.metrics.IncLockOperation("release", "error")
		h.logger.Error().Err(err).Msg("Lock release failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error"})
		return
	}

	h.metrics.IncLockOperation("release", "ok")
	c.JSON(http.StatusOK, gin.H{"message": "Success", "lockedProblem": lockedSet})
}

// List handles GET /locked-problem/:contestId/:teamId, the slow-poll
// fallback behind the websocket relay.
func (h *LockHandler) List(c *gin.Context) {
	contestID := c.Param("contestId")
	teamID := c.Param("teamId")
	if contestID == "" || teamID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing params"})
		return
	}

	lockedSet, err := h.store.List(c.Request.Context(), contestID, teamID)
	if err != nil {
		h.metrics.IncLockOperation("list", "error")
		h.logger.Error().Err(err).Msg("Lock list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error"})
		return
	}

	h.metrics.IncLockOperation("list", "ok")
	c.JSON(http.StatusOK, gin.H{"lockedProblem": lockedSet})
}
