// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "change-this-secret-key"

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	NATS       NATSConfig
	JWT        JWTConfig
	RateLimit  RateLimitConfig
	Moderation ModerationConfig
	Wordle     WordleConfig
}

type ServerConfig struct {
	Port string
	Env  string
	// MetricsPort serves /metrics for services without an HTTP API.
	MetricsPort string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type NATSConfig struct {
	URL string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type RateLimitConfig struct {
	GuessesPerMinute     int
	ModerationsPerMinute int
}

type ModerationConfig struct {
	// Mode is "inline" (run the cascade in the API process) or "nats"
	// (ask the moderator service, falling back to inline on failure).
	Mode              string
	Threshold         float64
	StageTimeout      time.Duration
	ProviderRPS       float64
	TrustProviderSafe bool
	PerspectiveAPIKey string
	OpenAIAPIKey      string
	GeminiAPIKey      string
}

type WordleConfig struct {
	Timezone       string
	DictionaryFile string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Env:         getEnv("ENV", "development"),
			MetricsPort: getEnv("METRICS_PORT", "9102"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "forum"),
			Password: getEnv("DB_PASSWORD", "forum_password"),
			DBName:   getEnv("DB_NAME", "forum_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		NATS: NATSConfig{
			URL: getEnv("NATS_URL", "nats://localhost:4222"),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", defaultJWTSecret),
			ExpiryHours: getEnvInt("JWT_EXPIRY_HOURS", 168),
		},
		RateLimit: RateLimitConfig{
			GuessesPerMinute:     getEnvInt("RATE_LIMIT_GUESSES_PER_MINUTE", 20),
			ModerationsPerMinute: getEnvInt("RATE_LIMIT_MODERATIONS_PER_MINUTE", 30),
		},
		Moderation: ModerationConfig{
			Mode:              strings.ToLower(getEnv("MODERATION_MODE", "inline")),
			Threshold:         getEnvFloat("MODERATION_THRESHOLD", 0.45),
			StageTimeout:      getEnvDuration("MODERATION_STAGE_TIMEOUT", 10*time.Second),
			ProviderRPS:       getEnvFloat("MODERATION_PROVIDER_RPS", 1),
			TrustProviderSafe: getEnvBool("MODERATION_TRUST_PROVIDER_SAFE", true),
			PerspectiveAPIKey: getEnv("PERSPECTIVE_API_KEY", ""),
			OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
			GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		},
		Wordle: WordleConfig{
			Timezone:       getEnv("WORDLE_TIMEZONE", "UTC"),
			DictionaryFile: getEnv("WORDLE_DICTIONARY_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	if c.JWT.Secret == defaultJWTSecret && c.Server.Env == "production" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.Moderation.Threshold <= 0 || c.Moderation.Threshold > 1 {
		return fmt.Errorf("MODERATION_THRESHOLD must be in (0, 1], got %v", c.Moderation.Threshold)
	}
	if c.Moderation.Mode != "inline" && c.Moderation.Mode != "nats" {
		return fmt.Errorf("MODERATION_MODE must be inline or nats, got %q", c.Moderation.Mode)
	}
	if _, err := time.LoadLocation(c.Wordle.Timezone); err != nil {
		return fmt.Errorf("WORDLE_TIMEZONE: %w", err)
	}
	return nil
}

// Location returns the zone that defines the word game's calendar day.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Wordle.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetDSN returns the database connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}
