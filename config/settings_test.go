package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	s, err := FromEnv(env(map[string]string{
		"API_BASE_URL": "http://api:8000",
		"JWT_SECRET":   "s3cret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", s.Port)
	assert.Equal(t, 15*time.Second, s.APITimeout)
	assert.Equal(t, 5, s.MaxChatMessages)
	assert.Equal(t, 24*time.Hour, s.DraftTTL)
	assert.Equal(t, "futureself", s.JWTIssuer)
	assert.Empty(t, s.RedisAddr)
	assert.Nil(t, s.CORSOrigins)
	assert.False(t, s.IsProduction())
}

func TestFromEnvOverrides(t *testing.T) {
	s, err := FromEnv(env(map[string]string{
		"APP_ENV":             "production",
		"API_BASE_URL":        "http://api:8000",
		"JWT_SECRET":          "s3cret",
		"REDIS_URL":           "redis://cache:6379/0",
		"CORS_ORIGINS":        "https://a.example, https://b.example ,",
		"MAX_CHAT_MESSAGES":   "7",
		"REPORT_POLL_TIMEOUT": "90s",
	}))
	require.NoError(t, err)

	assert.True(t, s.IsProduction())
	assert.Equal(t, "redis://cache:6379/0", s.RedisAddr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, s.CORSOrigins)
	assert.Equal(t, 7, s.MaxChatMessages)
	assert.Equal(t, 90*time.Second, s.ReportPollTimeout)
}

func TestFromEnvCollectsErrors(t *testing.T) {
	_, err := FromEnv(env(map[string]string{
		"API_TIMEOUT":       "soon",
		"MAX_CHAT_MESSAGES": "0",
	}))
	require.Error(t, err)
	for _, want := range []string{"API_BASE_URL", "JWT_SECRET", "API_TIMEOUT", "MAX_CHAT_MESSAGES"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestNewRedisRequiresAddr(t *testing.T) {
	_, err := NewRedis(context.Background(), "")
	assert.Error(t, err)
}
