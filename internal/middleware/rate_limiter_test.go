package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRateLimiter creates a rate limiter with miniredis for testing
func setupTestRateLimiter(t *testing.T, maxRequests int, window time.Duration) (*RateLimiter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	return NewRateLimiter(client, RateLimiterConfig{
		MaxRequests: maxRequests,
		Window:      window,
	}), mr
}

func limitedRouter(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/api/messages", func(c *gin.Context) {
		c.JSON(http.StatusOK, []string{})
	})
	return router
}

func hit(router *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
	req.RemoteAddr = ip + ":40000"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRetryAfterSeconds(t *testing.T) {
	testCases := []struct {
		name     string
		ttl      time.Duration
		expected int
	}{
		{"whole seconds", 42 * time.Second, 42},
		{"rounds down below half", 2400 * time.Millisecond, 2},
		{"rounds up from half", 2500 * time.Millisecond, 3},
		{"sub-second floors to one", 100 * time.Millisecond, 1},
		{"zero floors to one", 0, 1},
		{"negative floors to one", -time.Millisecond, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, retryAfterSeconds(tc.ttl))
		})
	}
}

func TestRateLimiter_RetryAfterFollowsRemainingWindow(t *testing.T) {
	testCases := []struct {
		name       string
		window     time.Duration
		elapsed    time.Duration
		retryAfter int
	}{
		{"fresh window", 10 * time.Second, 0, 10},
		{"remaining 2.6s rounds up", 10 * time.Second, 7400 * time.Millisecond, 3},
		{"remaining 2.4s rounds down", 10 * time.Second, 7600 * time.Millisecond, 2},
		{"remaining 100ms floors to one", time.Second, 900 * time.Millisecond, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rl, mr := setupTestRateLimiter(t, 1, tc.window)
			router := limitedRouter(rl)

			require.Equal(t, http.StatusOK, hit(router, "10.0.0.1").Code)
			mr.FastForward(tc.elapsed)

			w := hit(router, "10.0.0.1")
			require.Equal(t, http.StatusTooManyRequests, w.Code)
			assert.Equal(t, strconv.Itoa(tc.retryAfter), w.Header().Get("Retry-After"))

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.EqualValues(t, tc.retryAfter, body["retry_after"])
		})
	}
}

func TestRateLimiter_RejectionBody(t *testing.T) {
	rl, _ := setupTestRateLimiter(t, 2, time.Minute)
	router := limitedRouter(rl)

	statuses := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		statuses = append(statuses, hit(router, "10.0.0.2").Code)
	}
	assert.Equal(t, []int{200, 200, 429, 429}, statuses)

	// Other clients keep their own window
	assert.Equal(t, http.StatusOK, hit(router, "10.0.0.3").Code)

	w := hit(router, "10.0.0.2")
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, "too many requests, please try again later", body["error"])
	stamp, ok := body["timestamp"].(string)
	require.True(t, ok, "timestamp should be a string")
	parsed, err := time.Parse(time.RFC3339, stamp)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), parsed, 5*time.Second)
}

func TestRateLimiter_WindowResets(t *testing.T) {
	rl, mr := setupTestRateLimiter(t, 1, 30*time.Second)
	router := limitedRouter(rl)

	assert.Equal(t, http.StatusOK, hit(router, "10.0.0.4").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(router, "10.0.0.4").Code)

	mr.FastForward(31 * time.Second)

	assert.Equal(t, http.StatusOK, hit(router, "10.0.0.4").Code)
}

func TestRateLimiter_CounterWithoutExpiry(t *testing.T) {
	rl, mr := setupTestRateLimiter(t, 5, 20*time.Second)
	router := limitedRouter(rl)

	// A counter left without TTL (e.g. EXPIRE lost after INCR)
	require.NoError(t, mr.Set("ratelimit:10.0.0.5", "9"))

	w := hit(router, "10.0.0.5")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "20", w.Header().Get("Retry-After"), "Falls back to the full window")
	assert.Equal(t, 20*time.Second, mr.TTL("ratelimit:10.0.0.5"), "Window is re-armed")

	mr.FastForward(21 * time.Second)
	assert.Equal(t, http.StatusOK, hit(router, "10.0.0.5").Code)
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	rl, mr := setupTestRateLimiter(t, 1, time.Minute)
	router := limitedRouter(rl)
	mr.Close()

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(router, "10.0.0.6").Code, "request %d", i+1)
	}
}
