package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Settings is the process configuration read from the environment.
type Settings struct {
	Env  string
	Port string

	APIBaseURL string
	APIToken   string
	APITimeout time.Duration

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	TokenTTL    time.Duration

	CORSOrigins []string

	// RedisAddr is empty when the process runs on in-memory state.
	RedisAddr string

	MaxChatMessages int
	DraftTTL        time.Duration

	ReportWorkers      int
	ReportPollInterval time.Duration
	ReportPollTimeout  time.Duration

	LogLevel string
}

// Load reads .env (when present) and the environment.
func Load() (*Settings, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds Settings from a lookup function.
func FromEnv(getenv func(string) string) (*Settings, error) {
	r := reader{get: getenv}
	s := &Settings{
		Env:  r.str("APP_ENV", "development"),
		Port: r.str("PORT", "8080"),

		APIBaseURL: r.required("API_BASE_URL"),
		APIToken:   r.str("API_TOKEN", ""),
		APITimeout: r.duration("API_TIMEOUT", 15*time.Second),

		JWTSecret:   r.required("JWT_SECRET"),
		JWTIssuer:   r.str("JWT_ISSUER", "futureself"),
		JWTAudience: r.str("JWT_AUDIENCE", ""),
		TokenTTL:    r.duration("TOKEN_TTL", 30*24*time.Hour),

		CORSOrigins: r.list("CORS_ORIGINS"),

		RedisAddr: r.first("REDIS_ADDR", "REDIS_URI", "REDIS_URL"),

		MaxChatMessages: r.integer("MAX_CHAT_MESSAGES", 5),
		DraftTTL:        r.duration("DRAFT_TTL", 24*time.Hour),

		ReportWorkers:      r.integer("REPORT_WORKERS", 4),
		ReportPollInterval: r.duration("REPORT_POLL_INTERVAL", 3*time.Second),
		ReportPollTimeout:  r.duration("REPORT_POLL_TIMEOUT", 5*time.Minute),

		LogLevel: r.str("LOG_LEVEL", "info"),
	}
	if s.MaxChatMessages <= 0 {
		r.fail("MAX_CHAT_MESSAGES must be positive")
	}
	if len(r.errs) > 0 {
		return nil, errors.Join(r.errs...)
	}
	return s, nil
}

func (s *Settings) IsProduction() bool { return s.Env == "production" }

type reader struct {
	get  func(string) string
	errs []error
}

func (r *reader) fail(format string, args ...any) {
	r.errs = append(r.errs, fmt.Errorf(format, args...))
}

func (r *reader) str(key, def string) string {
	if v := strings.TrimSpace(r.get(key)); v != "" {
		return v
	}
	return def
}

func (r *reader) required(key string) string {
	v := strings.TrimSpace(r.get(key))
	if v == "" {
		r.fail("%s environment variable is not set", key)
	}
	return v
}

func (r *reader) first(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r.get(k)); v != "" {
			return v
		}
	}
	return ""
}

func (r *reader) list(key string) []string {
	var out []string
	for _, p := range strings.Split(r.get(key), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (r *reader) integer(key string, def int) int {
	v := strings.TrimSpace(r.get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail("%s: %w", key, err)
		return def
	}
	return n
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(r.get(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail("%s: %w", key, err)
		return def
	}
	return d
}
