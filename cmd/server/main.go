package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mailblast/backend/internal/config"
	"mailblast/backend/internal/dispatch"
	"mailblast/backend/internal/domain"
	"mailblast/backend/internal/health"
	"mailblast/backend/internal/logger"
	"mailblast/backend/internal/mailer"
	"mailblast/backend/internal/monitoring"
	"mailblast/backend/internal/service"
	"mailblast/backend/internal/storage"
	"mailblast/backend/internal/storage/memory"
	sqlstore "mailblast/backend/internal/storage/sql"
	httptransport "mailblast/backend/internal/transport/http"
	"mailblast/backend/internal/websocket"
)

// main 启动投递引擎的 HTTP API 服务。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 设置 Gin 模式（基于开发环境标志）
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// 初始化日志系统
	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		File:        cfg.Log.File,
		MaxSize:     100,
		MaxBackups:  3,
		MaxAge:      28,
		Compress:    true,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	log.Info("starting mailblast server",
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
	)

	// 初始化存储层
	var store storage.Store
	if cfg.Database.Type != "" && cfg.Database.DSN != "" {
		store, err = sqlstore.NewStore(
			cfg.Database.Type,
			cfg.Database.DSN,
			cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns,
			cfg.Database.ConnMaxLifetime,
		)
		if err != nil {
			panic(fmt.Sprintf("failed to initialize database storage: %v", err))
		}
		log.Info("using database storage", zap.String("type", cfg.Database.Type))
	} else {
		store = memory.NewStore()
		log.Info("using memory storage (development mode)")
	}

	// 初始化监控与健康检查
	metrics := monitoring.NewMetrics()
	healthChecker := health.NewChecker(store, log)

	// 告警系统
	alertManager := monitoring.NewAlertManager(log)
	alertManager.AddReceiver(monitoring.NewLogAlertReceiver(log))
	alertManager.AddRule(monitoring.HighMemoryUsageRule(512.0))
	alertManager.AddRule(monitoring.StorageHealthRule(store))
	alertManager.AddRule(monitoring.SenderPoolDepletedRule(store))

	// 出站 SMTP 客户端
	smtpClient := mailer.NewClient(mailer.Config{
		DialTimeout:   cfg.Mailer.DialTimeout,
		SendTimeout:   cfg.Mailer.SendTimeout,
		MaxPerSecond:  cfg.Mailer.MaxPerSecond,
		MaxBurst:      cfg.Mailer.MaxBurst,
		SkipTLSVerify: cfg.Mailer.SkipTLSVerify,
	}, log)

	// 调度引擎
	control := dispatch.NewControl(cfg.Dispatch.PausePoll)
	feed := dispatch.NewFeed()
	engine := dispatch.NewEngine(store, smtpClient, control, feed, metrics, log, dispatch.Options{
		MaxRounds: cfg.Dispatch.MaxRounds,
	})

	// 初始化服务层
	senderService := service.NewSenderService(store)
	recipientService := service.NewRecipientService(store)
	templateService := service.NewTemplateService(store)
	dispatchLogService := service.NewDispatchLogService(store)
	campaignService := service.NewCampaignService(engine, control, feed, cfg.Dispatch)

	// 进度推送 WebSocket
	stream := websocket.NewStream(feed, cfg.CORS.AllowedOrigins, log)

	// 创建 HTTP 服务器
	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:             cfg,
		SenderService:      senderService,
		RecipientService:   recipientService,
		TemplateService:    templateService,
		CampaignService:    campaignService,
		DispatchLogService: dispatchLogService,
		Stream:             stream,
		Metrics:            metrics,
		Health:             healthChecker,
		Logger:             log,
	})

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// /v1/campaigns/send 同步执行整场活动，写超时必须放开
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	// 信号处理
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	// HTTP 服务器 goroutine
	group.Go(func() error {
		log.Info("starting HTTP server", zap.String("address", httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	// 定时刷新资源指标 goroutine
	group.Go(func() error {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				if senders, err := store.ListActiveSenders(); err == nil {
					metrics.UpdateSendersActive(len(senders))
				}
				if pending, err := store.CountRecipientsByStatus(domain.RecipientStatusPending); err == nil {
					metrics.UpdateRecipientsPending(pending)
				}
			}
		}
	})

	// 告警监控 goroutine
	group.Go(func() error {
		log.Info("starting alert monitoring")
		alertManager.StartMonitoring(groupCtx, 1*time.Minute)
		return nil
	})

	// 优雅关闭 goroutine
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
		}

		if err := store.Close(); err != nil {
			log.Warn("storage close warning", zap.Error(err))
		}

		log.Info("server stopped")
		return nil
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		log.Fatal("server error", zap.Error(err))
	}

	log.Info("server exited cleanly")
}
