package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AshapuriCRM/backend/internal/middleware"
	"github.com/AshapuriCRM/backend/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, contextutil.GetRequestID(c.Request.Context()))
	})

	t.Run("reuses caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(middleware.RequestIDHeader, "rid-123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, "rid-123", w.Body.String())
		assert.Equal(t, "rid-123", w.Header().Get(middleware.RequestIDHeader))
	})

	t.Run("issues a new id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.NotEmpty(t, w.Body.String())
		assert.Equal(t, w.Body.String(), w.Header().Get(middleware.RequestIDHeader))
	})
}

func TestContextLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ContextLogger(logger))
	r.GET("/ok", func(c *gin.Context) {
		contextutil.GetLogger(c.Request.Context(), zap.NewNop()).Info("inside")
		c.Status(http.StatusOK)
	})
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(middleware.RequestIDHeader, "rid-7")
	r.ServeHTTP(httptest.NewRecorder(), req)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	inside := logs.FilterMessage("inside").All()
	if assert.Len(t, inside, 1) {
		assert.Equal(t, "rid-7", inside[0].ContextMap()["request_id"])
	}
	assert.Equal(t, 1, logs.FilterMessage("request handled").Len())

	failed := logs.FilterMessage("request failed").All()
	if assert.Len(t, failed, 1) {
		assert.Equal(t, zapcore.ErrorLevel, failed[0].Level)
		assert.EqualValues(t, http.StatusInternalServerError, failed[0].ContextMap()["status"])
	}
}

func TestRateLimitByIP(t *testing.T) {
	r := gin.New()
	r.POST("/merge", middleware.RateLimitByIP(1, 2), func(c *gin.Context) { c.Status(http.StatusCreated) })

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		r.ServeHTTP(last, httptest.NewRequest(http.MethodPost, "/merge", nil))
		codes = append(codes, last.Code)
	}

	assert.Equal(t, []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "1", last.Header().Get("Retry-After"))
	assert.Contains(t, last.Body.String(), "TOO_MANY_REQUESTS")
}

func TestIdempotency(t *testing.T) {
	const (
		cacheKey = "idemp:/invoices:key-1"
		lockKey  = cacheKey + ":lock"
	)

	type seen struct {
		calls    int
		cacheKey string
		lockKey  string
	}

	newRouter := func(t *testing.T) (*gin.Engine, redismock.ClientMock, *seen) {
		rdb, mock := redismock.NewClientMock()
		got := &seen{}
		r := gin.New()
		r.POST("/invoices", middleware.Idempotency(rdb), func(c *gin.Context) {
			got.calls++
			got.cacheKey = c.GetString(middleware.IdempotencyCacheKey)
			got.lockKey = c.GetString(middleware.IdempotencyLockKey)
			c.Status(http.StatusCreated)
		})
		return r, mock, got
	}

	post := func(r *gin.Engine, key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/invoices", nil)
		if key != "" {
			req.Header.Set(middleware.IdempotencyHeader, key)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("without key passes through", func(t *testing.T) {
		r, mock, got := newRouter(t)

		w := post(r, "")

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 1, got.calls)
		assert.Empty(t, got.cacheKey)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("first request takes the lock", func(t *testing.T) {
		r, mock, got := newRouter(t)
		mock.ExpectGet(cacheKey).RedisNil()
		mock.ExpectSetNX(lockKey, "locked", 30*time.Second).SetVal(true)

		w := post(r, "key-1")

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 1, got.calls)
		assert.Equal(t, cacheKey, got.cacheKey)
		assert.Equal(t, lockKey, got.lockKey)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("replays stored response with its status", func(t *testing.T) {
		r, mock, got := newRouter(t)
		stored, err := middleware.NewStoredResponse(http.StatusCreated, map[string]string{"invoiceNumber": "INV-2026-001"})
		assert.NoError(t, err)
		mock.ExpectGet(cacheKey).SetVal(stored)

		w := post(r, "key-1")

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "true", w.Header().Get("Idempotent-Replayed"))
		assert.Contains(t, w.Body.String(), "INV-2026-001")
		assert.Equal(t, 0, got.calls)
	})

	t.Run("concurrent duplicate is rejected", func(t *testing.T) {
		r, mock, got := newRouter(t)
		mock.ExpectGet(cacheKey).RedisNil()
		mock.ExpectSetNX(lockKey, "locked", 30*time.Second).SetVal(false)

		w := post(r, "key-1")

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "PROCESSING")
		assert.Equal(t, 0, got.calls)
	})
}
