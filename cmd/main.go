package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/inacomp/contest-live-service/config"
	"github.com/inacomp/contest-live-service/internal/auth"
	"github.com/inacomp/contest-live-service/internal/database"
	"github.com/inacomp/contest-live-service/internal/finalize"
	"github.com/inacomp/contest-live-service/internal/handlers"
	"github.com/inacomp/contest-live-service/internal/hub"
	"github.com/inacomp/contest-live-service/internal/judge"
	"github.com/inacomp/contest-live-service/internal/locks"
	"github.com/inacomp/contest-live-service/internal/metrics"
	"github.com/inacomp/contest-live-service/internal/middleware"
	"github.com/inacomp/contest-live-service/internal/presence"
	"github.com/inacomp/contest-live-service/internal/quorum"
	redisclient "github.com/inacomp/contest-live-service/internal/redis"
	"github.com/inacomp/contest-live-service/internal/routes"
)

var judgeTopics = []string{"submission.judged", "contest.started", "contest.ended"}

func main() {
	devMode := flag.Bool("dev", false, "load .env and log for humans")
	flag.Parse()

	if *devMode {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	logger := log.Logger

	cfg := config.InitConfig(*devMode)

	m := metrics.New()

	redisClient, err := redisclient.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	db, err := database.Connect(cfg.Database.DSN, logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	wsHub := hub.NewHub(logger)

	pubsub := redisclient.NewPubSub(redisClient, func(envelope *redisclient.PubSubEnvelope) {
		if envelope.Message == nil {
			return
		}
		if envelope.TargetRoom != "" {
			wsHub.SendToRoom(envelope.TargetRoom, envelope.Message)
			return
		}
		wsHub.Broadcast(envelope.Message)
	}, logger)
	if err := pubsub.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start pubsub")
	}
	defer pubsub.Stop()

	wsHub.SetRelay(pubsub)
	go wsHub.Run()

	lockStore := locks.NewStore(redisClient, logger)
	quorumStore := quorum.NewStore(redisClient, logger)
	finalizer := finalize.New(finalize.NewGormStore(db), logger)
	presenceMgr := presence.NewManager(redisClient, pubsub.GetInstanceID(), logger)

	producer := judge.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.JudgeTopic, logger)
	defer producer.Close()

	consumer := judge.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, judgeTopics, logger)
	judge.NewHandlers(wsHub, db, logger).RegisterAll(consumer)
	consumer.Start()
	defer consumer.Stop()

	validator := auth.NewJWTValidator(cfg.JWT.Secret)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, time.Duration(cfg.RateLimit.WindowSec)*time.Second, logger)

	if !*devMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	routes.Setup(router, routes.Handlers{
		Lock:       handlers.NewLockHandler(lockStore, m, logger),
		Finish:     handlers.NewFinishHandler(quorumStore, finalizer, wsHub, m, logger),
		Contest:    handlers.NewContestHandler(db, logger),
		Submission: handlers.NewSubmissionHandler(db, producer, m, logger),
		Presence:   handlers.NewPresenceHandler(db, presenceMgr, logger),
		WebSocket:  handlers.NewWebSocketHandler(wsHub, presenceMgr, m, logger),
		Health:     handlers.NewHealthHandler(redisClient, db, wsHub),
	}, validator, limiter)

	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Forced shutdown")
	}
}
