package config

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port int
	Host string
	Env  string // "development" or "production"

	// Data directory
	DataDir string

	// Database
	DatabasePath string

	// Auth
	JWTSecret string
	TokenTTL  time.Duration

	// Allowed frontend origins for CORS (comma separated)
	FrontendURL string

	// OpenAI (AI agent)
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// Execution sandbox
	SandboxURL string // remote runner endpoint; empty disables HTTP mounting
	SandboxDir string // local mount directory; empty disables local mounting

	// File tree persistence
	SaveDebounce time.Duration
}

var (
	cfg  *Config
	once sync.Once
)

// Get returns the global configuration (singleton)
func Get() *Config {
	once.Do(func() {
		cfg = load()
	})
	return cfg
}

// load reads configuration from environment variables
func load() *Config {
	dataDir := getEnv("CC_DATA_DIR", "./data")

	return &Config{
		// Server
		Port: getEnvInt("PORT", 3000),
		Host: getEnv("HOST", "0.0.0.0"),
		Env:  getEnv("ENV", "development"),

		// Data
		DataDir:      dataDir,
		DatabasePath: filepath.Join(dataDir, "codecollab.sqlite"),

		// Auth
		JWTSecret: getEnv("JWT_SECRET", ""),
		TokenTTL:  getEnvDuration("TOKEN_TTL", 24*time.Hour),

		// CORS
		FrontendURL: getEnv("FRONTEND_URL", ""),

		// OpenAI
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		// Sandbox
		SandboxURL: getEnv("SANDBOX_URL", ""),
		SandboxDir: getEnv("SANDBOX_DIR", ""),

		// Persistence
		SaveDebounce: getEnvDuration("SAVE_DEBOUNCE", time.Second),
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env != "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
