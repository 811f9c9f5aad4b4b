package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowLimiter_Allow(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	l := newWindowLimiter("test", 3, time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		ok, _ := l.allow("10.0.0.1")
		assert.True(t, ok, "hit %d", i+1)
	}
	ok, end := l.allow("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, now.Add(time.Minute), end)

	// other clients have their own counter
	ok, _ = l.allow("10.0.0.2")
	assert.True(t, ok)

	now = now.Add(time.Minute + time.Second)
	ok, _ = l.allow("10.0.0.1")
	assert.True(t, ok, "new window")
}

func TestWindowLimiter_Purge(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	l := newWindowLimiter("test", 1, time.Minute)
	l.now = func() time.Time { return now }
	l.lastPurge = now

	l.allow("a")
	l.allow("b")
	require.Len(t, l.entries, 2)

	now = now.Add(purgeInterval + time.Second)
	l.allow("c")
	assert.Len(t, l.entries, 1)
	assert.Contains(t, l.entries, "c")
}

func TestRateLimiter_Handler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", RateLimiter(2, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("{}"))
		req.RemoteAddr = "192.168.1.20:5000"
		last = httptest.NewRecorder()
		r.ServeHTTP(last, req)
		codes = append(codes, last.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	retry, err := strconv.Atoi(last.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.True(t, retry > 0 && retry <= 61, "Retry-After=%d", retry)
	assert.Contains(t, last.Body.String(), `"success":false`)
}
