package httptransport

import (
	"errors"
	"net/http"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recordvault/backend/internal/config"
	"recordvault/backend/internal/domain"
	"recordvault/backend/internal/middleware"
	"recordvault/backend/internal/monitoring"
	"recordvault/backend/internal/service"
	"recordvault/backend/internal/storage"
)

// Handler 聚合所有 HTTP 处理逻辑。
type Handler struct {
	records *service.RecordService
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config        *config.Config
	RecordService *service.RecordService
	Metrics       *monitoring.Metrics
	Logger        *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	// 使用自定义中间件替代默认中间件
	router.Use(middleware.RecoveryHandler(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.BodySizeLimit(middleware.DefaultBodyLimit))

	if deps.Metrics != nil {
		router.Use(middleware.HTTPMetrics(deps.Metrics))
	}

	if deps.Config.RateLimit.Enabled {
		limiter := middleware.NewIPRateLimiter(deps.Config.RateLimit.RPS, deps.Config.RateLimit.Burst)
		router.Use(middleware.RateLimitByIP(limiter, log))
	}

	// CORS 配置
	corsConfig := gincors.Config{
		AllowOrigins:  deps.Config.CORS.AllowedOrigins,
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	router.Use(gincors.New(corsConfig))

	handler := &Handler{
		records: deps.RecordService,
		metrics: deps.Metrics,
		logger:  log,
	}

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// V1 API
	v1 := router.Group("/v1")
	{
		recordRoutes := v1.Group("/records")
		{
			recordRoutes.POST("", handler.createRecord)
			recordRoutes.GET("", handler.getRecord)
			recordRoutes.DELETE("", handler.deleteRecord)
		}
	}

	return router
}

type createRecordRequest struct {
	Subject            string `json:"subject"`
	Content            string `json:"content"`
	Recipient          string `json:"recipient"`
	SenderEmailAddress string `json:"sender_email_address"`
}

type createRecordResponse struct {
	ID string `json:"id"`
}

type recordResponse struct {
	ID                 string    `json:"id"`
	Subject            string    `json:"subject"`
	Content            string    `json:"content"`
	Recipient          string    `json:"recipient"`
	SenderEmailAddress string    `json:"sender_email_address"`
	CreatedAt          time.Time `json:"createdAt"`
}

type deleteRecordRequest struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
}

type deleteRecordResponse struct {
	ID        string `json:"id"`
	MatchedBy string `json:"matchedBy"`
}

// createRecord godoc
// @Summary 创建记录
// @Description 创建一条新记录，ID 由服务端生成
// @Tags Records
// @Accept json
// @Produce json
// @Param request body createRecordRequest true "记录内容"
// @Success 201 {object} createRecordResponse
// @Failure 400 {object} Response
// @Failure 500 {object} Response
// @Router /v1/records [post]
func (h *Handler) createRecord(c *gin.Context) {
	var req createRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	record, err := h.records.Create(service.CreateRecordInput{
		Subject:            req.Subject,
		Content:            req.Content,
		Recipient:          req.Recipient,
		SenderEmailAddress: req.SenderEmailAddress,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrFieldRequired), errors.Is(err, domain.ErrFieldTooLong):
			BadRequest(c, GetErrorMessage(err))
		default:
			// 存储错误的细节只进日志，不外泄
			h.logger.Error("record create failed",
				zap.String("request_id", c.GetString(middleware.RequestIDKey)),
				zap.Error(err),
			)
			if h.metrics != nil {
				h.metrics.RecordStorageError("create")
			}
			InternalError(c, MsgRecordCreateFailed)
		}
		return
	}

	if h.metrics != nil {
		h.metrics.RecordsCreated.Inc()
		h.metrics.RecordsActive.Inc()
	}

	Created(c, createRecordResponse{ID: record.ID})
}

// getRecord godoc
// @Summary 查询记录
// @Description 按 id 或 subject 查询单条记录，二者同时提供时 id 优先
// @Tags Records
// @Produce json
// @Param id query string false "记录ID"
// @Param subject query string false "主题"
// @Success 200 {object} recordResponse
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Router /v1/records [get]
func (h *Handler) getRecord(c *gin.Context) {
	record, err := h.records.Find(c.Query("id"), c.Query("subject"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoLookupCriteria):
			BadRequest(c, GetErrorMessage(err))
		case errors.Is(err, storage.ErrRecordNotFound):
			NotFound(c, MsgRecordNotFound)
		default:
			h.logger.Error("record lookup failed",
				zap.String("request_id", c.GetString(middleware.RequestIDKey)),
				zap.Error(err),
			)
			if h.metrics != nil {
				h.metrics.RecordStorageError("find")
			}
			InternalError(c, MsgRecordGetFailed)
		}
		return
	}

	Success(c, toRecordResponse(record))
}

// deleteRecord godoc
// @Summary 删除记录
// @Description 按 id 或 subject 删除至多一条记录，二者同时提供时 id 优先
// @Tags Records
// @Accept json
// @Produce json
// @Param request body deleteRecordRequest true "删除条件"
// @Success 200 {object} deleteRecordResponse
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Router /v1/records [delete]
func (h *Handler) deleteRecord(c *gin.Context) {
	var req deleteRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	result, err := h.records.Delete(req.ID, req.Subject)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoLookupCriteria):
			BadRequest(c, GetErrorMessage(err))
		case errors.Is(err, storage.ErrRecordNotFound):
			NotFound(c, MsgRecordNotFound)
		default:
			h.logger.Error("record delete failed",
				zap.String("request_id", c.GetString(middleware.RequestIDKey)),
				zap.Error(err),
			)
			if h.metrics != nil {
				h.metrics.RecordStorageError("delete")
			}
			InternalError(c, MsgRecordDeleteFailed)
		}
		return
	}

	if h.metrics != nil {
		h.metrics.RecordsDeleted.Inc()
		h.metrics.RecordsActive.Dec()
	}

	// 确认消息中注明按哪个条件命中
	msg := "记录已删除（按 ID 匹配）"
	if result.MatchedBy == "subject" {
		msg = "记录已删除（按主题匹配）"
	}
	SuccessWithMsg(c, msg, deleteRecordResponse{
		ID:        result.ID,
		MatchedBy: result.MatchedBy,
	})
}

// toRecordResponse 转换实体为响应体。
func toRecordResponse(record *domain.Record) recordResponse {
	return recordResponse{
		ID:                 record.ID,
		Subject:            record.Subject,
		Content:            record.Content,
		Recipient:          record.Recipient,
		SenderEmailAddress: record.SenderEmailAddress,
		CreatedAt:          record.CreatedAt,
	}
}
