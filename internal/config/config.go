package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPass     string
	DBName     string
	ServerPort string
	RedisURL   string
	Env        string
	RedisTTL   time.Duration

	// Spark rules. Free-tier users get SparkDailyLimit new sparks per
	// calendar day; a spark can be undone within SparkUndoWindow.
	SparkDailyLimit int
	SparkUndoWindow time.Duration

	// PresenceTTL is how long a user stays in the online registry
	// without a heartbeat from the gateway.
	PresenceTTL time.Duration

	// SessionIdleTTL is how long an anonymous session may sit idle
	// before the nightly job closes it.
	SessionIdleTTL time.Duration
}

func LoadConfig() Config {
	ttlStr := getEnv("REDIS_TTL", "5m")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		ttl = 5 * time.Minute
	}

	presenceTTL, err := time.ParseDuration(getEnv("PRESENCE_TTL", "45s"))
	if err != nil {
		presenceTTL = 45 * time.Second
	}

	undoWindow, err := time.ParseDuration(getEnv("SPARK_UNDO_WINDOW", "1h"))
	if err != nil {
		undoWindow = time.Hour
	}

	sessionIdleTTL, err := time.ParseDuration(getEnv("SESSION_IDLE_TTL", "72h"))
	if err != nil {
		sessionIdleTTL = 72 * time.Hour
	}

	return Config{
		DBHost:          getEnv("DB_HOST", "postgres"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", "postgres"),
		DBPass:          getEnv("DB_PASSWORD", "password"),
		DBName:          getEnv("DB_NAME", "db_afterglow"),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		RedisURL:        getEnv("REDIS_URL", "redis:6379"),
		Env:             getEnv("ENV", "dev"),
		RedisTTL:        ttl,
		SparkDailyLimit: getEnvAsInt("SPARK_DAILY_LIMIT", 5),
		SparkUndoWindow: undoWindow,
		PresenceTTL:     presenceTTL,
		SessionIdleTTL:  sessionIdleTTL,
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return fallback
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPass, c.DBName, c.DBPort,
	)
}
