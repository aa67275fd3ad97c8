package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/inacomp/contest-live-service/internal/auth"
	"github.com/inacomp/contest-live-service/internal/finalize"
	"github.com/inacomp/contest-live-service/internal/hub"
	"github.com/inacomp/contest-live-service/internal/metrics"
	"github.com/inacomp/contest-live-service/internal/quorum"
	"github.com/inacomp/contest-live-service/pkg/protocol"
)

type FinishHandler struct {
	quorum    *quorum.Store
	finalizer *finalize.Finalizer
	hub       *hub.Hub
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func NewFinishHandler(q *quorum.Store, f *finalize.Finalizer, h *hub.Hub, m *metrics.Metrics, logger zerolog.Logger) *FinishHandler {
	return &FinishHandler{
		quorum:    q,
		finalizer: f,
		hub:       h,
		metrics:   m,
		logger:    logger.With().Str("component", "finish-handler").Logger(),
	}
}

type finishRequest struct {
	ContestID   string `json:"contestId" binding:"required"`
	TeamID      string `json:"teamId" binding:"required"`
	TotalMember int    `json:"totalMember"`
}

// Mark handles POST /finish. It records the caller in the finish set,
// pushes the updated set to the team room, and when the set covers the
// whole team it triggers quorum finalization. The finalizer is idempotent,
// so two members landing here at once both observing a full set is fine.
func (h *FinishHandler) Mark(c *gin.Context) {
	var req finishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing params"})
		return
	}
	if req.TotalMember <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing params"})
		return
	}

	claims := auth.ClaimsFromContext(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	finished, err := h.quorum.MarkFinished(c.Request.Context(), req.ContestID, req.TeamID, claims.GetMemberID())
	if err != nil {
		h.logger.Error().Err(err).Msg("Mark finished failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error"})
		return
	}
	h.metrics.IncFinishMark("mark")

	roomID := hub.TeamRoomID(req.TeamID, req.ContestID)
	if msg, err := protocol.NewMessage(protocol.MsgFinishUpdate, protocol.FinishUpdatePayload{
		RoomID:   roomID,
		Finished: finished,
	}); err == nil {
		h.hub.BroadcastToRoom(c.Request.Context(), roomID, msg)
	}

	if len(finished) < req.TotalMember {
		c.JSON(http.StatusOK, gin.H{"message": "Success", "finished": finished, "finalized": false})
		return
	}

	score, err := h.finalizer.FinalizeQuorum(c.Request.Context(), req.ContestID, req.TeamID)
	if err != nil {
		h.metrics.IncFinalization("quorum", "error")
		if errors.Is(err, finalize.ErrSubmissionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Submission not found"})
			return
		}
		h.logger.Error().Err(err).Msg("Quorum finalization failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error"})
		return
	}
	h.metrics.IncFinalization("quorum", "ok")

	c.JSON(http.StatusOK, gin.H{"message": "Success", "finished": finished, "finalized": true, "score": score})
}

// Cancel handles DELETE /finish, a member backing out of their finish vote.
func (h *FinishHandler) Cancel(c *gin.Context) {
	var req finishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing params"})
		return
	}

	claims := auth.ClaimsFromContext(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	if err := h.quorum.MarkUnfinished(c.Request.Context(), req.ContestID, req.TeamID, claims.GetMemberID()); err != nil {
		h.logger.Error().Err(err).Msg("Mark unfinished failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error"})
		return
	}
	h.metrics.IncFinishMark("cancel")

	finished, err := h.quorum.Finished(c.Request.Context(), req.ContestID, req.TeamID)
	if err != nil {
		h.logger.Error().Err(err).Msg("Read finish set failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error"})
		return
	}

	roomID := hub.TeamRoomID(req.TeamID, req.ContestID)
	if msg, err := protocol.NewMessage(protocol.MsgFinishUpdate, protocol.FinishUpdatePayload{
		RoomID:   roomID,
		Finished: finished,
	}); err == nil {
		h.hub.BroadcastToRoom(c.Request.Context(), roomID, msg)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Success", "finished": finished})
}

// List handles GET /finish/:contestId/:teamId.
func (h *FinishHandler) List(c *gin.Context) {
	contestID := c.Param("contestId")
	teamID := c.Param("teamId")
	if contestID == "" || teamID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing params"})
		return
	}

	finished, err := h.quorum.Finished(c.Request.Context(), contestID, teamID)
	if err != nil {
		h.logger.Error().Err(err).Msg("Read finish set failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"finished": finished})
}

type autoSubmitRequest struct {
	ContestID string `json:"contestId" binding:"required"`
	TeamID    string `json:"teamId" binding:"required"`
}

// AutoSubmit handles POST /finish/auto-submit, fired by clients whose
// countdown ran out. Re-finalizing an already-sealed submission is a no-op
// returning the persisted score, so every team member's timer can fire.
func (h *FinishHandler) AutoSubmit(c *gin.Context) {
	var req autoSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing params"})
		return
	}

	score, err := h.finalizer.FinalizeTimeout(c.Request.Context(), req.ContestID, req.TeamID)
	if err != nil {
		h.metrics.IncFinalization("timeout", "error")
		if errors.Is(err, finalize.ErrSubmissionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Submission not found"})
			return
		}
		h.logger.Error().Err(err).Msg("Timeout finalization failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error"})
		return
	}
	h.metrics.IncFinalization("timeout", "ok")

	c.JSON(http.StatusOK, gin.H{"message": "Success", "score": score})
}

type batchAdminRequest struct {
	BatchID string `json:"batchId" binding:"required"`
}

// BatchAdmin handles POST /finish/batch-admin, the admin sweep sealing every
// unfinished submission in a batch at the full time budget.
func (h *FinishHandler) BatchAdmin(c *gin.Context) {
	var req batchAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing params"})
		return
	}

	finalized, err := h.finalizer.FinalizeBatch(c.Request.Context(), req.BatchID)
	if err != nil {
		h.metrics.IncFinalization("admin", "error")
		h.logger.Error().Err(err).Int("finalized", finalized).Msg("Batch finalization failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error", "finalized": finalized})
		return
	}
	h.metrics.IncFinalization("admin", "ok")

	h.logger.Info().Str("batchId", req.BatchID).Int("finalized", finalized).Msg("Batch finalized")
	c.JSON(http.StatusOK, gin.H{"message": "Success", "finalized": finalized})
}
