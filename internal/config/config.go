package config

import (
	"log"
	"os"
)

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string
	RedisAddr   string // empty: in-memory token store
	FrontendURL string // base for password-reset / activation links
	ViewsPath   string // HTML dashboard templates
}

func Load() *Config {
	cfg := &Config{
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		DatabaseDSN: getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=backoffice port=5432 sslmode=disable"),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		CORSOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		RedisAddr:   getEnv("REDIS_ADDR", ""),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		ViewsPath:   getEnv("VIEWS_PATH", "./views"),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET is not set! It is required in every environment.")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET must be at least 32 characters long.")
	}
	if cfg.DatabaseDSN == "host=localhost user=postgres password=postgres dbname=backoffice port=5432 sslmode=disable" {
		log.Println("[WARN] DATABASE_DSN is using the default value, set your own Postgres connection for production.")
	}
	if cfg.RedisAddr == "" {
		log.Println("[WARN] REDIS_ADDR not set, one-time auth tokens are kept in memory and lost on restart.")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
