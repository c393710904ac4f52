package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nhle/taskboard/internal/logger"
	"github.com/nhle/taskboard/internal/model"
)

func TestDisabledLimiterPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var limiter *RateLimiter
	r := gin.New()
	r.GET("/test", limiter.Middleware(), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: got %d", i, w.Code)
		}
	}
}

func TestNewRedisClientWithoutAddr(t *testing.T) {
	client, err := NewRedisClient(context.Background(), model.RedisConfig{})
	if err != nil || client != nil {
		t.Fatalf("got (%v, %v), want (nil, nil)", client, err)
	}
}

// Integration-style test: runs only if REDIS_ADDR env is set.
func TestRedisRateLimitIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			db = n
		}
	}

	client, err := NewRedisClient(context.Background(), model.RedisConfig{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	})
	if err != nil {
		t.Fatalf("connecting to redis: %v", err)
	}
	defer client.Close()

	// Unique window length so reruns do not share a key.
	window := time.Duration(2+time.Now().UnixNano()%50) * time.Second
	max := 2
	limiter := NewRateLimiter(client, max, window, logger.Discard())

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/test", limiter.Middleware(), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	for i := 0; i < max; i++ {
		res, err := http.Get(srv.URL + "/test")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		res.Body.Close()
		if res.StatusCode != 200 {
			t.Fatalf("expected 200 got %d", res.StatusCode)
		}
	}

	res, err := http.Get(srv.URL + "/test")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != 429 {
		t.Fatalf("expected 429 got %d", res.StatusCode)
	}
}
