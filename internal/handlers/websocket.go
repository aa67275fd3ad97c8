package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/inacomp/contest-live-service/internal/auth"
	"github.com/inacomp/contest-live-service/internal/hub"
	"github.com/inacomp/contest-live-service/internal/metrics"
	"github.com/inacomp/contest-live-service/internal/presence"
	"github.com/inacomp/contest-live-service/pkg/protocol"
)

type WebSocketHandler struct {
	hub      *hub.Hub
	presence *presence.Manager
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

func NewWebSocketHandler(h *hub.Hub, p *presence.Manager, m *metrics.Metrics, logger zerolog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      h,
		presence: p,
		metrics:  m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Auth happens via JWT, not origin.
				return true
			},
		},
		logger: logger.With().Str("component", "websocket").Logger(),
	}
}

// Handle upgrades GET /v1/ws. Auth middleware has already validated the
// token (from ?token=, since browsers cannot set headers on upgrade).
func (h *WebSocketHandler) Handle(c *gin.Context) {
	claims := auth.ClaimsFromContext(c)
	if claims == nil {
		h.metrics.IncAuthFailures()
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	memberID := claims.GetMemberID()
	client := hub.NewClient(uuid.New().String(), memberID, conn, h.hub, h.logger)

	h.hub.Register <- client
	h.metrics.IncConnections()

	if err := h.presence.SetOnline(c.Request.Context(), memberID); err != nil {
		h.logger.Error().Err(err).Str("memberId", memberID).Msg("Failed to set presence")
	}

	if msg, err := protocol.NewMessage(protocol.MsgConnected, protocol.ConnectedPayload{
		MemberID: memberID,
		ClientID: client.ID,
	}); err == nil {
		h.hub.SendToClient(client, msg)
	}

	go client.WritePump()
	go func() {
		client.ReadPump()
		h.metrics.DecConnections()
		// The upgrade request's context is gone once the handler returns.
		if err := h.presence.SetOffline(context.Background(), memberID); err != nil {
			h.logger.Error().Err(err).Str("memberId", memberID).Msg("Failed to clear presence")
		}
	}()
}
