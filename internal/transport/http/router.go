package httptransport

import (
	"net/http"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailblast/backend/internal/config"
	"mailblast/backend/internal/health"
	"mailblast/backend/internal/middleware"
	"mailblast/backend/internal/monitoring"
	"mailblast/backend/internal/service"
	"mailblast/backend/internal/websocket"
)

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config             *config.Config
	SenderService      *service.SenderService
	RecipientService   *service.RecipientService
	TemplateService    *service.TemplateService
	CampaignService    *service.CampaignService
	DispatchLogService *service.DispatchLogService
	Stream             *websocket.Stream
	Metrics            *monitoring.Metrics
	Health             *health.Checker
	Logger             *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()

	// 使用自定义中间件替代默认中间件
	mon := middleware.NewMonitoringMiddleware(deps.Metrics, deps.Logger)
	router.Use(mon.PanicRecovery())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(mon.HTTPMetrics())

	// 发件名单的 xlsx/csv 导入走 multipart，给 20MB 上限
	router.Use(middleware.BodySizeLimit(20 * 1024 * 1024))

	// CORS 配置
	corsConfig := gincors.Config{
		AllowOrigins:     deps.Config.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	// 如果允许所有来源，则需清空凭证支持。
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowCredentials = false
			break
		}
	}
	router.Use(gincors.New(corsConfig))

	// 创建处理器
	senderHandler := NewSenderHandler(deps.SenderService, deps.Logger)
	recipientHandler := NewRecipientHandler(deps.RecipientService, deps.Logger)
	templateHandler := NewTemplateHandler(deps.TemplateService)
	campaignHandler := NewCampaignHandler(deps.CampaignService, deps.Logger)
	logHandler := NewDispatchLogHandler(deps.DispatchLogService)

	// 健康检查与指标
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Health != nil {
		router.GET("/health/live", gin.WrapH(deps.Health.Handler()))
		router.GET("/health/ready", gin.WrapH(deps.Health.Handler()))
	}
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.HTTPHandler()))
	}

	// V1 API
	v1 := router.Group("/v1")
	{
		// ========== Sender Routes ==========
		senderRoutes := v1.Group("/senders")
		{
			senderRoutes.GET("", senderHandler.List)
			senderRoutes.POST("", senderHandler.Create)
			senderRoutes.GET("/:id", senderHandler.Get)
			senderRoutes.PATCH("/:id", senderHandler.Update)
			senderRoutes.DELETE("/:id", senderHandler.Delete)
			senderRoutes.POST("/import", senderHandler.Import)            // xlsx 批量导入
			senderRoutes.POST("/reset-counts", senderHandler.ResetCounts) // 新的一天重置配额
		}

		// ========== Recipient Routes ==========
		recipientRoutes := v1.Group("/recipients")
		{
			recipientRoutes.GET("", recipientHandler.List)
			recipientRoutes.POST("", recipientHandler.Create)
			recipientRoutes.PATCH("/:id", recipientHandler.Update)
			recipientRoutes.DELETE("/:id", recipientHandler.Delete)
			recipientRoutes.DELETE("", recipientHandler.Clear)
			recipientRoutes.POST("/reset-statuses", recipientHandler.ResetStatuses)
			recipientRoutes.POST("/import/csv", recipientHandler.ImportCSV)
			recipientRoutes.POST("/import/json", recipientHandler.ImportJSON)
		}

		// ========== Template Routes ==========
		templateRoutes := v1.Group("/templates")
		{
			templateRoutes.GET("", templateHandler.List)
			templateRoutes.POST("", templateHandler.Create)
			templateRoutes.GET("/:id", templateHandler.Get)
			templateRoutes.PATCH("/:id", templateHandler.Update)
			templateRoutes.DELETE("/:id", templateHandler.Delete)
		}

		// ========== Campaign Routes ==========
		campaignRoutes := v1.Group("/campaigns")
		{
			campaignRoutes.POST("/send", campaignHandler.Send)
			campaignRoutes.POST("/pause", campaignHandler.Pause)
			campaignRoutes.POST("/resume", campaignHandler.Resume)
			campaignRoutes.GET("/status", campaignHandler.Status)
			if deps.Stream != nil {
				campaignRoutes.GET("/stream", deps.Stream.Handler()) // WebSocket 实时进度
			}
		}

		// ========== Dispatch Log Routes ==========
		logRoutes := v1.Group("/dispatch-logs")
		{
			logRoutes.GET("", logHandler.List)
			logRoutes.DELETE("", logHandler.Clear)
		}
	}

	return router
}
