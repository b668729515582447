package invoice

import (
	"github.com/AshapuriCRM/backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Merge renders a PDF inline, so it is throttled harder than the rest.
const (
	mergeRateLimit = rate.Limit(1)
	mergeBurst     = 5
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rdb ...*redis.Client,
) {
	var redisClient *redis.Client
	if len(rdb) > 0 {
		redisClient = rdb[0]
	}

	r.GET("/amount-in-words", handler.AmountInWords)

	invoices := r.Group("/invoices")
	{
		invoices.GET("", handler.GetAll)
		invoices.GET("/:id", handler.GetById)
		invoices.GET("/:id/document", handler.DownloadDocument)
		invoices.GET("/:id/export", handler.Export)
		invoices.POST("/preview", handler.Preview)
		invoices.POST("/:id/document", handler.GenerateDocument)
		invoices.PATCH("/:id", handler.Update)
		invoices.DELETE("/:id", handler.Delete)

		if redisClient != nil {
			invoices.POST("", middleware.Idempotency(redisClient), handler.Create)
			invoices.POST(
				"/merge",
				middleware.RateLimitByIP(mergeRateLimit, mergeBurst),
				middleware.Idempotency(redisClient),
				handler.Merge,
			)
		} else {
			invoices.POST("", handler.Create)
			invoices.POST("/merge", middleware.RateLimitByIP(mergeRateLimit, mergeBurst), handler.Merge)
		}
	}
}
