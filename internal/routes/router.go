// Package routes wires the HTTP surface: the versioned REST API, the
// websocket upgrade endpoint and the operational endpoints.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inacomp/contest-live-service/internal/auth"
	"github.com/inacomp/contest-live-service/internal/handlers"
	"github.com/inacomp/contest-live-service/internal/middleware"
)

type Handlers struct {
	Lock       *handlers.LockHandler
	Finish     *handlers.FinishHandler
	Contest    *handlers.ContestHandler
	Submission *handlers.SubmissionHandler
	Presence   *handlers.PresenceHandler
	WebSocket  *handlers.WebSocketHandler
	Health     *handlers.HealthHandler
}

func Setup(router *gin.Engine, h Handlers, validator *auth.JWTValidator, limiter *middleware.RateLimiter) {
	router.GET("/healthz", h.Health.Healthz)
	router.GET("/readyz", h.Health.Readyz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authRequired := auth.Middleware(validator)

	router.GET("/v1/ws", authRequired, h.WebSocket.Handle)

	api := router.Group("/api/v1")
	api.Use(limiter.Middleware(), authRequired)
	{
		api.POST("/locked-problem", h.Lock.Acquire)
		api.GET("/locked-problem/:contestId/:teamId", h.Lock.List)
		api.POST("/unlocked-problem", h.Lock.Release)

		api.GET("/finish/:contestId/:teamId", h.Finish.List)
		api.POST("/finish", h.Finish.Mark)
		api.DELETE("/finish", h.Finish.Cancel)
		api.POST("/finish/auto-submit", h.Finish.AutoSubmit)
		api.POST("/finish/batch-admin", auth.RequireAdmin(), h.Finish.BatchAdmin)

		api.POST("/submission-problem", h.Submission.Submit)
		api.GET("/contest/:teamId/:contestId", h.Contest.Bootstrap)
		api.GET("/leaderboard/:batchId", h.Contest.Leaderboard)
		api.GET("/presence/:teamId", h.Presence.Team)
	}

	api.GET("/stats", h.Health.Stats)
}
