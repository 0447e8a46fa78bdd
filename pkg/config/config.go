package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingGitHubToken is returned by Load when GITHUB_TOKEN is not set.
var ErrMissingGitHubToken = errors.New("missing GITHUB_TOKEN: a GitHub access token is required for API access")

type Config struct {
	Server    ServerConfig
	GitHub    GitHubConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Viewer    ViewerConfig
}

type ServerConfig struct {
	Port         string
	Mode         string
	ReadTimeout  int
	WriteTimeout int
}

type GitHubConfig struct {
	Token               string
	APIBaseURL          string
	UserAgent           string
	LanguageConcurrency int
}

type CacheConfig struct {
	TTLSeconds int
	MaxSizeMB  int
}

// TTL returns the configured time-to-live of cached API responses.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type ViewerConfig struct {
	Secret string
	// Generated is set when VIEWER_SECRET was unset and Secret is random.
	// Viewer cookies then do not survive a restart.
	Generated bool
}

// Load loads configuration from .env file and environment variables.
// The returned config is always populated; the error is non-nil when a
// required value is missing.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Mode:         getEnv("GIN_MODE", "release"),
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 30),
		},
		GitHub: GitHubConfig{
			Token:               getEnv("GITHUB_TOKEN", ""),
			APIBaseURL:          getEnv("GITHUB_API_URL", ""),
			UserAgent:           getEnv("GITHUB_USER_AGENT", "gitprofile"),
			LanguageConcurrency: getEnvAsInt("LANGUAGE_FETCH_CONCURRENCY", 10),
		},
		Cache: CacheConfig{
			TTLSeconds: getEnvAsInt("CACHE_TTL_SECONDS", 300),
			MaxSizeMB:  getEnvAsInt("CACHE_MAX_SIZE_MB", 64),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 5),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
		Viewer: ViewerConfig{
			Secret: getEnv("VIEWER_SECRET", ""),
		},
	}

	if cfg.Viewer.Secret == "" {
		secret, err := randomSecret()
		if err != nil {
			return cfg, err
		}
		cfg.Viewer.Secret = secret
		cfg.Viewer.Generated = true
	}

	return cfg, cfg.Validate()
}

// Validate checks that every required value is present.
func (c *Config) Validate() error {
	if c.GitHub.Token == "" {
		return ErrMissingGitHubToken
	}
	return nil
}

// randomSecret returns a 32 byte hex encoded key for signing viewer cookies.
func randomSecret() (string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate viewer secret: %w", err)
	}
	return hex.EncodeToString(key), nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
