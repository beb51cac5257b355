package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/ricirt/grievance-queue/internal/queue"
)

// DefaultMunicipalities is the serviceable region allow-list used when
// ALLOWED_MUNICIPALITIES is unset.
var DefaultMunicipalities = []string{
	"Ranchi", "Dhanbad", "Jamshedpur", "Bokaro", "Deoghar",
	"Hazaribagh", "Giridih", "Ramgarh", "Medininagar", "Chas",
}

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; nothing is required.
type Config struct {
	// Server
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// MetricsPort is where cmd/worker serves /metrics.
	MetricsPort string

	// Queue store
	RedisURL string
	Dialer   queue.Dialer

	// Database (optional; audit trail falls back to memory when empty)
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// Assignment service
	AssignmentBaseURL string
	AssignmentTimeout time.Duration
	AssignRateLimit   int

	// Assignment worker
	IdleInterval          time.Duration
	FailureBackoff        time.Duration
	ErrorBackoff          time.Duration
	MaxAttempts           int
	AllowedMunicipalities []string
	UnservedQueue         string

	// Promotion stage and depth sampling
	PromoteInterval     time.Duration
	PromoteBatch        int
	DepthSampleInterval time.Duration
}

// defaults doubles as the fallback for values that fail to parse.
var defaults = map[string]any{
	"HTTP_PORT":        "8080",
	"READ_TIMEOUT":     5 * time.Second,
	"WRITE_TIMEOUT":    10 * time.Second,
	"SHUTDOWN_TIMEOUT": 30 * time.Second,
	"METRICS_PORT":     "9091",

	"REDIS_URL": "127.0.0.1:6379",

	"DB_MAX_CONNS": 10,
	"DB_MIN_CONNS": 2,

	"ASSIGNMENT_BASE_URL": "http://localhost:5000",
	"ASSIGNMENT_TIMEOUT":  5 * time.Second,
	"ASSIGN_RATE_LIMIT":   20,

	"WORKER_IDLE_INTERVAL":   10 * time.Second,
	"WORKER_FAILURE_BACKOFF": 30 * time.Second,
	"WORKER_ERROR_BACKOFF":   5 * time.Second,
	"WORKER_MAX_ATTEMPTS":    0,
	"ALLOWED_MUNICIPALITIES": strings.Join(DefaultMunicipalities, ","),
	"UNSERVED_QUEUE":         "",

	"PROMOTE_INTERVAL":      2 * time.Second,
	"PROMOTE_BATCH":         50,
	"DEPTH_SAMPLE_INTERVAL": 15 * time.Second,
}

// Load reads configuration from the environment. Values that fail to parse
// fall back to their defaults; only a malformed REDIS_URL is an error.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	redisURL := v.GetString("REDIS_URL")
	dialer, err := queue.DialURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("REDIS_URL: %w", err)
	}

	return &Config{
		HTTPPort:        v.GetString("HTTP_PORT"),
		ReadTimeout:     getDuration(v, "READ_TIMEOUT"),
		WriteTimeout:    getDuration(v, "WRITE_TIMEOUT"),
		ShutdownTimeout: getDuration(v, "SHUTDOWN_TIMEOUT"),
		MetricsPort:     v.GetString("METRICS_PORT"),

		RedisURL: redisURL,
		Dialer:   dialer,

		DatabaseURL: v.GetString("DATABASE_URL"),
		DBMaxConns:  int32(getInt(v, "DB_MAX_CONNS")),
		DBMinConns:  int32(getInt(v, "DB_MIN_CONNS")),

		AssignmentBaseURL: v.GetString("ASSIGNMENT_BASE_URL"),
		AssignmentTimeout: getDuration(v, "ASSIGNMENT_TIMEOUT"),
		AssignRateLimit:   getInt(v, "ASSIGN_RATE_LIMIT"),

		IdleInterval:          getDuration(v, "WORKER_IDLE_INTERVAL"),
		FailureBackoff:        getDuration(v, "WORKER_FAILURE_BACKOFF"),
		ErrorBackoff:          getDuration(v, "WORKER_ERROR_BACKOFF"),
		MaxAttempts:           getInt(v, "WORKER_MAX_ATTEMPTS"),
		AllowedMunicipalities: splitList(v.GetString("ALLOWED_MUNICIPALITIES")),
		UnservedQueue:         strings.TrimSpace(v.GetString("UNSERVED_QUEUE")),

		PromoteInterval:     getDuration(v, "PROMOTE_INTERVAL"),
		PromoteBatch:        getInt(v, "PROMOTE_BATCH"),
		DepthSampleInterval: getDuration(v, "DEPTH_SAMPLE_INTERVAL"),
	}, nil
}

// getInt falls back to the default when the env value does not parse.
func getInt(v *viper.Viper, key string) int {
	n, err := cast.ToIntE(v.Get(key))
	if err != nil {
		return cast.ToInt(defaults[key])
	}
	return n
}

// getDuration falls back to the default when the env value does not parse
// or is not positive.
func getDuration(v *viper.Viper, key string) time.Duration {
	d, err := cast.ToDurationE(v.Get(key))
	if err != nil || d <= 0 {
		return cast.ToDuration(defaults[key])
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
