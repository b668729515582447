package invoice

import (
	"net/http"
	"time"

	"github.com/AshapuriCRM/backend/internal/billing"
	"github.com/AshapuriCRM/backend/internal/middleware"
	"github.com/AshapuriCRM/backend/internal/shared/apperror"
	"github.com/AshapuriCRM/backend/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const idempotencyTTL = 24 * time.Hour

type Handler struct {
	service Service
	rdb     *redis.Client
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func NewHandlerWithRedis(service Service, rdb *redis.Client) *Handler {
	return &Handler{service: service, rdb: rdb}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) writeBindError(c *gin.Context, err error) {
	h.writeServiceError(c, apperror.MapValidationError(err))
}

func (h *Handler) Create(c *gin.Context) {
	lockKey := c.GetString(middleware.IdempotencyLockKey)
	if h.rdb != nil && lockKey != "" {
		defer h.rdb.Del(c.Request.Context(), lockKey)
	}

	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}

	resp, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.remember(c, http.StatusCreated, resp)
	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) Preview(c *gin.Context) {
	var req PreviewInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}

	resp, err := h.service.Preview(c.Request.Context(), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Merge(c *gin.Context) {
	lockKey := c.GetString(middleware.IdempotencyLockKey)
	if h.rdb != nil && lockKey != "" {
		defer h.rdb.Del(c.Request.Context(), lockKey)
	}

	var req MergeInvoicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}

	resp, err := h.service.Merge(c.Request.Context(), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.remember(c, http.StatusCreated, resp)
	response.Success(c, http.StatusCreated, resp, nil)
}

// remember stores a successful response for idempotent replays.
func (h *Handler) remember(c *gin.Context, status int, resp any) {
	cacheKey := c.GetString(middleware.IdempotencyCacheKey)
	if h.rdb == nil || cacheKey == "" {
		return
	}
	if payload, err := middleware.NewStoredResponse(status, resp); err == nil {
		_ = h.rdb.Set(c.Request.Context(), cacheKey, payload, idempotencyTTL).Err()
	}
}

func (h *Handler) GetAll(c *gin.Context) {
	var req InvoiceFilterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.writeBindError(c, err)
		return
	}

	resp, err := h.service.GetAll(c.Request.Context(), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	page, pageSize := response.PageParams(c)
	items, meta := response.Paginate(resp, page, pageSize)
	response.Success(c, http.StatusOK, items, &meta)
}

func (h *Handler) GetById(c *gin.Context) {
	resp, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Update(c *gin.Context) {
	var req UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}

	resp, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true}, nil)
}

func (h *Handler) GenerateDocument(c *gin.Context) {
	resp, err := h.service.GenerateDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) DownloadDocument(c *gin.Context) {
	url, err := h.service.DocumentURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, url)
}

func (h *Handler) Export(c *gin.Context) {
	file, err := h.service.ExportXLSX(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Body)
}

type AmountInWordsResponse struct {
	Amount  decimal.Decimal `json:"amount"`
	Rounded int64           `json:"rounded"`
	Words   string          `json:"words"`
}

// AmountInWords spells a rupee amount, rounded half up to whole rupees.
func (h *Handler) AmountInWords(c *gin.Context) {
	raw := c.Query("amount")
	if raw == "" {
		h.writeServiceError(c, apperror.RequiredField("amount"))
		return
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		h.writeServiceError(c, apperror.InvalidField("amount"))
		return
	}

	rounded := billing.RoundHalfUp(amount).IntPart()
	response.Success(c, http.StatusOK, AmountInWordsResponse{
		Amount:  amount,
		Rounded: rounded,
		Words:   billing.AmountInWords(rounded),
	}, nil)
}
