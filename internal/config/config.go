// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/abhisek/adaptest/internal/exam"
)

// Config holds settings shared by the server and CLI commands.
type Config struct {
	// DBPath overrides the default database location when set.
	DBPath string

	// Addr is the HTTP listen address.
	Addr string

	// RedisURL enables the shared peer-score index when set.
	RedisURL string

	// CORSOrigins lists origins allowed to call the API.
	CORSOrigins []string

	// AttemptGrace is how long past its time limit an attempt may run
	// before it is expired.
	AttemptGrace time.Duration

	// MaxPause is the longest an attempt may stay paused.
	MaxPause time.Duration

	ShutdownTimeout time.Duration
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	p := exam.DefaultPolicy()
	return Config{
		Addr:            ":8080",
		CORSOrigins:     []string{"*"},
		AttemptGrace:    p.Grace,
		MaxPause:        p.MaxPause,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load reads a .env file from the working directory if one exists, then
// applies the environment on top of the defaults.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv applies ADAPTEST_* variables on top of DefaultConfig.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()
	cfg.DBPath = os.Getenv("ADAPTEST_DB")
	cfg.RedisURL = os.Getenv("ADAPTEST_REDIS_URL")
	if v := os.Getenv("ADAPTEST_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("ADAPTEST_CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}

	var err error
	if cfg.AttemptGrace, err = durationEnv("ADAPTEST_ATTEMPT_GRACE", cfg.AttemptGrace); err != nil {
		return Config{}, err
	}
	if cfg.MaxPause, err = durationEnv("ADAPTEST_MAX_PAUSE", cfg.MaxPause); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = durationEnv("ADAPTEST_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Policy returns the attempt expiry policy these settings describe.
func (c Config) Policy() exam.Policy {
	p := exam.DefaultPolicy()
	p.Grace = c.AttemptGrace
	p.MaxPause = c.MaxPause
	return p
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not a valid duration: %w", key, v, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: %s must not be negative", key)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
