package utils

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(requestIDKey))
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := rec.Header().Get(requestIDHeader)
	require.NotEmpty(t, generated)
	assert.Equal(t, generated, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestNewLogger_Production(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(true, &buf)

	logger.Debug("hidden")
	logger.With("component", "test").LogError(errors.New("boom"), "failed")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"failed"`)
	assert.Contains(t, out, `"error":"boom"`)
	assert.Contains(t, out, `"component":"test"`)
}

func TestLogRequest_LevelFollowsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(false, &buf)

	logger.LogRequest(http.MethodGet, "/health", 200, "1ms")
	logger.LogRequest(http.MethodPost, "/seal", 409, "1ms")
	logger.LogRequest(http.MethodPost, "/seal", 500, "1ms")

	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "level=ERROR")
}
