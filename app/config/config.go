// Package config reads the application settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/gorilla/securecookie"
	"github.com/joho/godotenv"
)

const (
	ModeDebug   = "debug"
	ModeRelease = "release"

	DefaultDatabaseURL = "badger:data/badger"
	DefaultPort        = "10000"
	DefaultStaticDir   = "static"

	defaultSessionMaxAge = 30 * 24 * 60 * 60
	defaultIterations    = 600000
	minSecretLength      = 16
)

// Config holds the settings for one process.
type Config struct {
	// SecretKey signs session cookies.
	SecretKey   []byte
	DatabaseURL string
	Port        string
	Mode        string
	StaticDir   string

	SessionMaxAge      int
	PasswordIterations int
	CSRFEnabled        bool

	// GeneratedSecret is set when SecretKey was generated for this run only.
	GeneratedSecret bool
}

// Load reads .env (when present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		SecretKey:          []byte(getEnv("SECRET_KEY", getEnv("FLASK_KEY", ""))),
		DatabaseURL:        getEnv("DATABASE_URL", getEnv("DB_URI", DefaultDatabaseURL)),
		Port:               getEnv("PORT", DefaultPort),
		Mode:               getEnv("APP_ENV", ModeDebug),
		StaticDir:          getEnv("STATIC_DIR", DefaultStaticDir),
		SessionMaxAge:      getEnvAsInt("SESSION_MAX_AGE", defaultSessionMaxAge),
		PasswordIterations: getEnvAsInt("PASSWORD_ITERATIONS", defaultIterations),
		CSRFEnabled:        getEnvAsBool("CSRF_ENABLED", true),
	}

	if len(cfg.SecretKey) == 0 && cfg.Mode != ModeRelease {
		cfg.SecretKey = securecookie.GenerateRandomKey(32)
		cfg.GeneratedSecret = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings for consistency.
func (c *Config) Validate() error {
	if c.Mode != ModeDebug && c.Mode != ModeRelease {
		return fmt.Errorf("APP_ENV must be %q or %q, got %q", ModeDebug, ModeRelease, c.Mode)
	}
	if len(c.SecretKey) == 0 {
		return errors.New("SECRET_KEY is required in release mode")
	}
	if c.Mode == ModeRelease && len(c.SecretKey) < minSecretLength {
		return fmt.Errorf("SECRET_KEY must be at least %d bytes in release mode", minSecretLength)
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL must not be empty")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric: %w", err)
	}
	if c.SessionMaxAge < 0 {
		return errors.New("SESSION_MAX_AGE must not be negative")
	}
	if c.PasswordIterations < 1 {
		return errors.New("PASSWORD_ITERATIONS must be positive")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// IsRelease reports whether the process runs in release mode.
func (c *Config) IsRelease() bool {
	return c.Mode == ModeRelease
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
