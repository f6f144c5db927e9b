package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	LLM       LLMConfig
	TTS       TTSConfig
	Scheduler SchedulerConfig
	Pipeline  PipelineConfig
	Storage   StorageConfig
	Usage     UsageConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
}

type LLMConfig struct {
	OpenAIKey       string
	AnthropicKey    string
	DefaultProvider string // "openai" or "anthropic"
	DefaultModel    string
	WordsPerMinute  int // narration pacing used for target word counts
}

type TTSConfig struct {
	PiperBinPath string // default: "piper"
	ModelDir     string // directory of .onnx voice models
	Workers      int    // synthesis worker pool size
}

type SchedulerConfig struct {
	MaxConcurrent int
	ProBatchSize  int
	FreeBatchSize int
	MinBatchSize  int
}

type PipelineConfig struct {
	MaxSegmentChars int
	PollIntervalMs  int
}

type StorageConfig struct {
	AudioDir      string
	RetentionDays int
}

type UsageConfig struct {
	FreeDailyLimit int
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	ttsWorkers, err := getEnvInt("TTS_WORKERS", 8)
	if err != nil {
		return nil, fmt.Errorf("invalid TTS_WORKERS: %w", err)
	}

	maxConcurrent, err := getEnvInt("SCHED_MAX_CONCURRENT", 3)
	if err != nil {
		return nil, fmt.Errorf("invalid SCHED_MAX_CONCURRENT: %w", err)
	}

	proBatch, err := getEnvInt("SCHED_PRO_BATCH", 25)
	if err != nil {
		return nil, fmt.Errorf("invalid SCHED_PRO_BATCH: %w", err)
	}

	freeBatch, err := getEnvInt("SCHED_FREE_BATCH", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid SCHED_FREE_BATCH: %w", err)
	}

	minBatch, err := getEnvInt("SCHED_MIN_BATCH", 4)
	if err != nil {
		return nil, fmt.Errorf("invalid SCHED_MIN_BATCH: %w", err)
	}

	maxSegmentChars, err := getEnvInt("PIPELINE_MAX_SEGMENT_CHARS", 2000)
	if err != nil {
		return nil, fmt.Errorf("invalid PIPELINE_MAX_SEGMENT_CHARS: %w", err)
	}

	pollMs, err := getEnvInt("PIPELINE_POLL_INTERVAL_MS", 500)
	if err != nil {
		return nil, fmt.Errorf("invalid PIPELINE_POLL_INTERVAL_MS: %w", err)
	}

	retentionDays, err := getEnvInt("AUDIO_RETENTION_DAYS", 7)
	if err != nil {
		return nil, fmt.Errorf("invalid AUDIO_RETENTION_DAYS: %w", err)
	}

	freeDailyLimit, err := getEnvInt("FREE_DAILY_LIMIT", 3)
	if err != nil {
		return nil, fmt.Errorf("invalid FREE_DAILY_LIMIT: %w", err)
	}

	wpm, err := getEnvInt("LLM_WORDS_PER_MINUTE", 150)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_WORDS_PER_MINUTE: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		LLM: LLMConfig{
			OpenAIKey:       getEnv("OPENAI_API_KEY", ""),
			AnthropicKey:    getEnv("ANTHROPIC_API_KEY", ""),
			DefaultProvider: getEnv("LLM_DEFAULT_PROVIDER", "openai"),
			DefaultModel:    getEnv("LLM_DEFAULT_MODEL", "gpt-4o-mini"),
			WordsPerMinute:  wpm,
		},
		TTS: TTSConfig{
			PiperBinPath: getEnv("TTS_PIPER_BIN", "piper"),
			ModelDir:     getEnv("TTS_MODEL_DIR", "voices"),
			Workers:      ttsWorkers,
		},
		Scheduler: SchedulerConfig{
			MaxConcurrent: maxConcurrent,
			ProBatchSize:  proBatch,
			FreeBatchSize: freeBatch,
			MinBatchSize:  minBatch,
		},
		Pipeline: PipelineConfig{
			MaxSegmentChars: maxSegmentChars,
			PollIntervalMs:  pollMs,
		},
		Storage: StorageConfig{
			AudioDir:      getEnv("AUDIO_DIR", "audio_files"),
			RetentionDays: retentionDays,
		},
		Usage: UsageConfig{
			FreeDailyLimit: freeDailyLimit,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}
