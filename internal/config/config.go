package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	WorkerCount   int
	ScriptExt     string
	ScriptExclude string
	DatabaseURL   string
	LogLevel      string
	DBBatchSize   int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	return &Config{
		WorkerCount:   getEnvInt("WORKER_COUNT", 8),
		ScriptExt:     getEnv("SCRIPT_EXT", ".binu8"),
		ScriptExclude: getEnv("SCRIPT_EXCLUDE", "__global.binu8"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DBBatchSize:   getEnvInt("DB_BATCH_SIZE", 500),
	}
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
		log.Warn().Str("key", key).Str("value", v).Msg("Invalid integer, using default")
		return fallback
	}
	return n
}
