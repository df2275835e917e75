// Package config reads runtime settings from the environment with safe
// defaults. CLI flags may override individual fields after Load.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults applied when neither environment nor flags say otherwise.
const (
	DefaultRecallLimit     = 5
	DefaultMaxDistance     = 1.5
	DefaultGenerateTimeout = 120 * time.Second
)

// Config contains all runtime settings for the agent-recall CLI.
type Config struct {
	DBPath   string
	IndexDir string
	NotesDir string

	IndexCompress bool

	RecallLimit     int
	MaxDistance     float64
	GenerateTimeout time.Duration
}

// Load reads environment variables and applies safe defaults. A .env
// file in the working directory is honored when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".agent-recall")

	cfg := Config{
		DBPath:          envOrDefault("AGENT_RECALL_DB", filepath.Join(base, "memory.db")),
		IndexDir:        envOrDefault("AGENT_RECALL_INDEX", filepath.Join(base, "index")),
		NotesDir:        envOrDefault("AGENT_RECALL_NOTES_DIR", filepath.Join(base, "notes")),
		RecallLimit:     DefaultRecallLimit,
		MaxDistance:     DefaultMaxDistance,
		GenerateTimeout: DefaultGenerateTimeout,
	}

	var err error
	cfg.IndexCompress, err = boolFromEnv("AGENT_RECALL_INDEX_COMPRESS", cfg.IndexCompress)
	if err != nil {
		return Config{}, err
	}
	cfg.RecallLimit, err = intFromEnv("AGENT_RECALL_RECALL_LIMIT", cfg.RecallLimit)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxDistance, err = floatFromEnv("AGENT_RECALL_MAX_DISTANCE", cfg.MaxDistance)
	if err != nil {
		return Config{}, err
	}
	cfg.GenerateTimeout, err = durationFromEnv("AGENT_RECALL_LLM_TIMEOUT", cfg.GenerateTimeout)
	if err != nil {
		return Config{}, err
	}

	if cfg.RecallLimit <= 0 {
		return Config{}, fmt.Errorf("AGENT_RECALL_RECALL_LIMIT must be positive")
	}
	if cfg.MaxDistance <= 0 {
		return Config{}, fmt.Errorf("AGENT_RECALL_MAX_DISTANCE must be positive")
	}
	if cfg.GenerateTimeout < time.Second {
		return Config{}, fmt.Errorf("AGENT_RECALL_LLM_TIMEOUT must be at least 1s")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
