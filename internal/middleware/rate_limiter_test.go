package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLimitedEngine(t *testing.T, config RateLimiterConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(NewRateLimiter(config).RateLimit())
	engine.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return engine
}

func getFrom(engine *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitRejectsOverBurst(t *testing.T) {
	engine := setupLimitedEngine(t, RateLimiterConfig{Rate: 1, Burst: 2})

	assert.Equal(t, http.StatusOK, getFrom(engine, "10.0.0.1:5000").Code)
	assert.Equal(t, http.StatusOK, getFrom(engine, "10.0.0.1:5000").Code)
	assert.Equal(t, http.StatusTooManyRequests, getFrom(engine, "10.0.0.1:5000").Code)
}

func TestRateLimitIsPerClient(t *testing.T) {
	engine := setupLimitedEngine(t, RateLimiterConfig{Rate: 1, Burst: 1})

	require.Equal(t, http.StatusOK, getFrom(engine, "10.0.0.1:5000").Code)
	require.Equal(t, http.StatusTooManyRequests, getFrom(engine, "10.0.0.1:5000").Code)

	// A second console keeps its own bucket.
	assert.Equal(t, http.StatusOK, getFrom(engine, "10.0.0.2:5000").Code)
}

func TestRequestIDHonorsWellFormedInboundID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	inbound := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderXRequestID, inbound)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, inbound, rec.Header().Get(HeaderXRequestID))
}

func TestRequestIDReplacesMalformedInboundID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderXRequestID, "not-a-uuid")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	echoed := rec.Header().Get(HeaderXRequestID)
	assert.NotEqual(t, "not-a-uuid", echoed)
	_, err := uuid.Parse(echoed)
	assert.NoError(t, err)
}
