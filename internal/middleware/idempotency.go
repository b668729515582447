package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/AshapuriCRM/backend/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	IdempotencyHeader   = "Idempotency-Key"
	IdempotencyCacheKey = "idempotency_cache_key"
	IdempotencyLockKey  = "idempotency_lock_key"

	idempotencyLockTTL = 30 * time.Second
)

// StoredResponse is what handlers save under IdempotencyCacheKey so a
// replay answers with the original status.
type StoredResponse struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// NewStoredResponse encodes data for a later replay with status.
func NewStoredResponse(status int, data any) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(StoredResponse{Status: status, Data: raw})
	return string(payload), err
}

// Idempotency replays the stored response of a POST that carries an
// Idempotency-Key, and rejects a duplicate while the first one is running.
// Handlers store the response under IdempotencyCacheKey and release
// IdempotencyLockKey when done.
func Idempotency(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		idempKey := c.GetHeader(IdempotencyHeader)
		if idempKey == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := fmt.Sprintf("idemp:%s:%s", c.FullPath(), idempKey)
		lockKey := cacheKey + ":lock"

		if val, err := rdb.Get(ctx, cacheKey).Result(); err == nil {
			var stored StoredResponse
			if json.Unmarshal([]byte(val), &stored) == nil && stored.Status != 0 {
				c.Header("Idempotent-Replayed", "true")
				c.AbortWithStatusJSON(stored.Status, response.ApiEnvelope{Ok: true, Data: stored.Data})
				return
			}
		}

		acquired, err := rdb.SetNX(ctx, lockKey, "locked", idempotencyLockTTL).Result()
		if err != nil {
			// redis unavailable: run without idempotency
			c.Next()
			return
		}
		if !acquired {
			response.Abort(c, http.StatusConflict, "PROCESSING", "A request with this idempotency key is still being processed")
			return
		}

		c.Set(IdempotencyCacheKey, cacheKey)
		c.Set(IdempotencyLockKey, lockKey)

		c.Next()
	}
}
