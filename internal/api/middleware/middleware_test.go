package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/futureself/internal/cache"
	"github.com/yoockh/futureself/internal/models"
	"github.com/yoockh/futureself/internal/session"
	"github.com/yoockh/futureself/internal/utils"
)

func init() { gin.SetMode(gin.TestMode) }

func newIssuer() *session.Issuer {
	return session.NewIssuer("test-secret", "futureself", "web", time.Hour)
}

// echo answers with what the auth middleware stored on the context.
func echo(c *gin.Context) {
	v, _ := c.Get("status")
	c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id"), "status": v})
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthHeader(t *testing.T) {
	tokens := newIssuer()
	r := gin.New()
	r.GET("/me", JWTAuth(tokens), echo)

	token, err := tokens.Issue("u-1", models.StatusFutureProfile)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := serve(r, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "u-1", got["user_id"])
	assert.Equal(t, string(models.StatusFutureProfile), got["status"])
}

func TestJWTAuthQueryTokenOnlyOnUpgrade(t *testing.T) {
	tokens := newIssuer()
	r := gin.New()
	r.GET("/ws", JWTAuth(tokens), echo)

	token, err := tokens.Issue("u-2", models.StatusActive)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	assert.Equal(t, http.StatusOK, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code, "plain requests must use the header")
}

func TestJWTAuthRejectsForeignSignature(t *testing.T) {
	r := gin.New()
	r.GET("/me", JWTAuth(newIssuer()), echo)

	foreign, err := session.NewIssuer("other-secret", "futureself", "web", time.Hour).Issue("u-1", models.StatusActive)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+foreign)
	rec := serve(r, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid token")
}

func statusRouter(store *session.Store, claim models.OnboardingStatus, allowed ...models.OnboardingStatus) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", "u-1")
		c.Set("status", claim)
	})
	r.GET("/chat", RequireStatus(store, allowed...), echo)
	return r
}

func TestRequireStatusRedirects(t *testing.T) {
	store := session.NewStore(cache.NewMemoryCache(8), time.Hour)
	r := statusRouter(store, models.StatusOnboarding, models.StatusActive)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/chat", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, string(utils.CodeForbidden), body["code"])
	assert.Equal(t, string(models.StatusOnboarding), body["status"])
	assert.Equal(t, "/questionnaire", body["redirect"])
}

func TestRequireStatusPrefersStoredStatus(t *testing.T) {
	store := session.NewStore(cache.NewMemoryCache(8), time.Hour)
	require.NoError(t, store.SetStatus(context.Background(), "u-1", models.StatusActive))

	// the token still carries the older claim
	r := statusRouter(store, models.StatusFutureProfile, models.StatusActive)
	rec := serve(r, httptest.NewRequest(http.MethodGet, "/chat", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), string(models.StatusActive))
}

func TestRequestLoggerQuietPaths(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	r := gin.New()
	r.Use(RequestLogger(log, "/ping"))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/work", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-Id", "req-1")
	rec := serve(r, req)
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-Id"))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.DebugLevel, hook.LastEntry().Level)
	assert.Equal(t, "req-1", hook.LastEntry().Data["request_id"])

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/work", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
}
