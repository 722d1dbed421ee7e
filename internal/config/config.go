package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App struct {
		ENV string
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		Driver   string
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		LogLevel string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	GRPC struct {
		Host string
		Port string
	}

	HTTP struct {
		Host           string
		Port           string
		RequestTimeout time.Duration
	}

	JWT struct {
		Secret string
		Issuer string
		TTL    time.Duration
	}

	Upload struct {
		Dir           string
		PublicBaseURL string
	}

	RateLimit struct {
		RPS   float64
		Burst int
	}
}

// New builds the configuration from the environment.
// A .env file in the working directory is loaded first when present;
// variables already set in the process environment win.
func New() *Config {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.App.ENV = getEnvDefault("APP_ENV", "development")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "matchmaking")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.Driver = strings.ToLower(getEnvDefault("DB_DRIVER", "mysql"))
	cfg.DB.LogLevel = getEnvDefault("DB_LOG_LEVEL", "warn")
	switch cfg.DB.Driver {
	case "postgres":
		cfg.DB.DSN = getEnvDefault("POSTGRES_DSN",
			"host=localhost user=postgres password=postgres dbname=muzz port=5432 sslmode=disable TimeZone=UTC")
	case "sqlite":
		cfg.DB.DSN = getEnvDefault("SQLITE_PATH", "muzz.db")
	default:
		cfg.DB.DSN = os.Getenv("MYSQL_DSN")
		if cfg.DB.DSN == "" {
			cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
			cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
			cfg.DB.User = getEnvDefault("DB_USER", "root")
			cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
			cfg.DB.Name = getEnvDefault("DB_NAME", "muzz")

			cfg.DB.DSN = fmt.Sprintf(
				"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
				cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
			)
		}
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	// HTTP
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", "0.0.0.0")
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", "8080")
	cfg.HTTP.RequestTimeout = getEnvDuration("HTTP_REQUEST_TIMEOUT", 10*time.Second)

	// JWT
	cfg.JWT.Secret = getEnvDefault("JWT_SECRET", "change-me")
	cfg.JWT.Issuer = getEnvDefault("JWT_ISSUER", "muzz-match")
	cfg.JWT.TTL = getEnvDuration("JWT_TTL", 24*time.Hour)

	// Uploads
	cfg.Upload.Dir = getEnvDefault("UPLOAD_DIR", "images")
	cfg.Upload.PublicBaseURL = strings.TrimRight(getEnvDefault("PUBLIC_BASE_URL", "http://localhost:8080"), "/")

	// Rate limiting
	cfg.RateLimit.RPS = getEnvFloat("RATE_LIMIT_RPS", 200)
	cfg.RateLimit.Burst = getEnvInt("RATE_LIMIT_BURST", 400)

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if n, err := strconv.Atoi(getEnvDefault(k, "")); err == nil {
		return n
	}
	return def
}

func getEnvFloat(k string, def float64) float64 {
	if f, err := strconv.ParseFloat(getEnvDefault(k, ""), 64); err == nil {
		return f
	}
	return def
}

// getEnvDuration accepts Go duration strings ("90s", "24h").
func getEnvDuration(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnvDefault(k, "")); err == nil && d > 0 {
		return d
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
