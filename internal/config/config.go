package config

import (
	"os"
	"strconv"
	"time"

	"village-connect/pkg/database"

	"github.com/joho/godotenv"
)

// Config village-connect（HTTP API）配置
type Config struct {
	HTTP struct {
		Addr string
	}
	DBEnabled bool
	Database  database.Config
	Redis     struct {
		Enabled  bool
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}
	Identity IdentityConfig
	Session  SessionConfig
}

// IdentityConfig 身份提供方配置
type IdentityConfig struct {
	BaseURL string // userinfo 端点所在的基础地址
}

// SessionConfig 会话配置
type SessionConfig struct {
	TTL time.Duration
}

func Load() *Config {
	// 本地开发：.env 存在则加载（缺失忽略）
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	// Default to true for local dev: if DB is unavailable, village-connect will fall back to in-memory repos.
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "village_connect")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Enabled = getEnv("REDIS_ENABLED", "true") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	// 身份提供方配置
	cfg.Identity.BaseURL = getEnv("IDENTITY_BASE_URL", "http://localhost:9000")

	// 会话配置（默认 7 天）
	cfg.Session.TTL = time.Duration(parseInt(getEnv("SESSION_TTL_HOURS", "168"), 168)) * time.Hour

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
