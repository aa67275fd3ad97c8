package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/inacomp/contest-live-service/internal/models"
	"github.com/inacomp/contest-live-service/internal/presence"
)

type PresenceHandler struct {
	db       *gorm.DB
	presence *presence.Manager
	logger   zerolog.Logger
}

func NewPresenceHandler(db *gorm.DB, p *presence.Manager, logger zerolog.Logger) *PresenceHandler {
	return &PresenceHandler{
		db:       db,
		presence: p,
		logger:   logger.With().Str("component", "presence-handler").Logger(),
	}
}

// Team handles GET /presence/:teamId: which of the team's members hold a
// live session right now.
func (h *PresenceHandler) Team(c *gin.Context) {
	teamID := c.Param("teamId")
	if teamID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing params"})
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

	memberIDs := make([]string, 0, len(team.Members))
	for _, m := range team.Members {
		memberIDs = append(memberIDs, m.ID)
	}

	online, err := h.presence.OnlineMembers(c.Request.Context(), memberIDs)
	if err != nil {
		h.logger.Error().Err(err).Msg("Presence lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"online": online})
}
