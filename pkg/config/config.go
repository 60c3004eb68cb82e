package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every tunable the pipeline consumes. It is constructed
// explicitly by Load and passed down; there is no process-wide mutable
// instance, so tests can hold independent configurations concurrently.
type Config struct {
	LogLevel         string
	LogDir           string
	LogRetentionDays int

	TempDir       string
	MaxFileSizeMB int

	MaxConcurrentTasks int
	TaskTimeout        time.Duration
	ChunkSeconds       int
	SampleRate         int
	Channels           int

	// ModelName selects the inference engine model.
	ModelName string
	// LongFormToken, when set, routes requests to the long-form
	// voice-activity-segmented strategy.
	LongFormToken string

	// AllowedUsers restricts who may submit media. Empty means everyone.
	AllowedUsers []int64
}

// Load reads configuration from the environment, overlaying an optional
// .env file first, and creates the temp and log directories.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Overload(f); err != nil {
				return nil, fmt.Errorf("load env file %s: %w", f, err)
			}
		}
	}
	// Best effort; a missing ./.env is the normal case.
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogDir:             getEnv("LOG_DIR", "logs"),
		LogRetentionDays:   getEnvInt("LOG_RETENTION_DAYS", 30),
		TempDir:            getEnv("TEMP_DIR", "temp"),
		MaxFileSizeMB:      getEnvInt("MAX_FILE_SIZE_MB", 100),
		MaxConcurrentTasks: getEnvInt("MAX_CONCURRENT_TASKS", 3),
		TaskTimeout:        time.Duration(getEnvInt("TASK_TIMEOUT_SEC", 300)) * time.Second,
		ChunkSeconds:       getEnvInt("CHUNK_DURATION_SEC", 20),
		SampleRate:         getEnvInt("SAMPLE_RATE", 16000),
		Channels:           getEnvInt("CHANNELS", 1),
		ModelName:          getEnv("MODEL_NAME", "whisper-1"),
		LongFormToken:      strings.TrimSpace(os.Getenv("LONGFORM_TOKEN")),
	}

	if cfg.MaxConcurrentTasks < 1 {
		return nil, fmt.Errorf("MAX_CONCURRENT_TASKS must be at least 1, got %d", cfg.MaxConcurrentTasks)
	}

	if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir %s: %w", cfg.TempDir, err)
	}
	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir %s: %w", cfg.LogDir, err)
	}

	if path := strings.TrimSpace(os.Getenv("ALLOWED_USERS_FILE")); path != "" {
		users, err := LoadAllowedUsers(path)
		if err != nil {
			return nil, err
		}
		cfg.AllowedUsers = users
	}

	return cfg, nil
}

// UserAllowed reports whether the given user may submit media. An empty
// allow-list grants access to everyone.
func (c *Config) UserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	for _, id := range c.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// LoadAllowedUsers reads the access list from a JSON file of the form
// {"allowed_users": [1, 2, 3]}. A missing file yields an empty list.
func LoadAllowedUsers(path string) ([]int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read allowed users file %s: %w", path, err)
	}

	var parsed struct {
		AllowedUsers []int64 `json:"allowed_users"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse allowed users file %s: %w", path, err)
	}
	return parsed.AllowedUsers, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}
