package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type AppConfig struct {
	App struct {
		Name string
		Port string
	}
	Redis struct {
		Host     string
		Port     int
		Password string
		DB       int
	}
	Database struct {
		DSN string
	}
	Kafka struct {
		Brokers    []string
		GroupID    string
		JudgeTopic string
	}
	JWT struct {
		Secret string
	}
	RateLimit struct {
		Requests  int
		WindowSec int
	}
}

var Config AppConfig

func InitConfig(DevMode bool) *AppConfig {
	if DevMode {
		if err := godotenv.Load(); err != nil {
			log.Error().Err(err).Msg("Error loading .env file")
		}
	}

	Config.App.Name = os.Getenv("APP_NAME")
	Config.App.Port = getEnv("PORT", "6001")

	Config.Redis.Host = getEnv("REDIS_HOST", "localhost")
	Config.Redis.Port = getEnvInt("REDIS_PORT", 6379)
	Config.Redis.Password = os.Getenv("REDIS_PASSWORD")
	Config.Redis.DB = getEnvInt("REDIS_DB", 0)

	Config.Database.DSN = getEnv("DATABASE_DSN",
		"root@tcp(127.0.0.1:3306)/contest?charset=utf8mb4&parseTime=True&loc=Local")

	Config.Kafka.Brokers = strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	Config.Kafka.GroupID = getEnv("KAFKA_GROUP_ID", "contest-live-service")
	Config.Kafka.JudgeTopic = getEnv("KAFKA_JUDGE_TOPIC", "submission.judge")

	Config.JWT.Secret = os.Getenv("JWT_SECRET")

	Config.RateLimit.Requests = getEnvInt("RATE_LIMIT_REQUESTS", 100)
	Config.RateLimit.WindowSec = getEnvInt("RATE_LIMIT_WINDOW_SEC", 60)

	return &Config
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Invalid integer env value, using fallback")
		return fallback
	}
	return n
}
