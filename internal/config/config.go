package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; only DATABASE_URL is required.
type Config struct {
	// Server
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Database
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// SMTP; when SMTPHost is empty the log transport is used instead,
	// so development needs no mail server.
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// Worker counts per queue
	NotificationWorkers int
	EmailWorkers        int

	// Queue behaviour: delivery attempts and the exponential backoff base
	// (delay doubles per retry: base, 2*base, 4*base, ...)
	JobMaxAttempts   int
	JobBackoffBase   time.Duration
	DispatchInterval time.Duration

	// Maximum outbound emails per second
	EmailRatePerSec int
}

func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DatabaseURL: dbURL,
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 25)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 5)),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "no-reply@forumkit.local"),

		NotificationWorkers: getInt("NOTIFICATION_WORKERS", 5),
		EmailWorkers:        getInt("EMAIL_WORKERS", 3),

		JobMaxAttempts:   getInt("JOB_MAX_ATTEMPTS", 3),
		JobBackoffBase:   getDuration("JOB_BACKOFF_BASE", time.Second),
		DispatchInterval: getDuration("DISPATCH_INTERVAL", time.Second),

		EmailRatePerSec: getInt("EMAIL_RATE_PER_SEC", 20),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
