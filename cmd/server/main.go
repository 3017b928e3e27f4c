// Package main 是应用程序的入口点。
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"medimate-go/internal/config"
	"medimate-go/internal/handler"
	"medimate-go/internal/middleware"
	"medimate-go/internal/pipeline"
	"medimate-go/internal/repository"
	"medimate-go/internal/service"
	"medimate-go/internal/triage"
	"medimate-go/pkg/database"
	"medimate-go/pkg/es"
	"medimate-go/pkg/kafka"
	"medimate-go/pkg/llm"
	"medimate-go/pkg/log"
	"medimate-go/pkg/places"
	"medimate-go/pkg/storage"
	"medimate-go/pkg/token"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// 3. 初始化数据库、Redis 与对象存储
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis)
	objectStore := storage.InitMinIO(cfg.MinIO)

	// ES 目录是可选的，未配置时 Places API 是唯一的机构来源
	var directory es.Directory
	if cfg.Elasticsearch.Addresses != "" {
		d, err := es.NewDirectory(cfg.Elasticsearch)
		if err != nil {
			log.Fatal("es 初始化失败", err)
		}
		directory = d
	}

	// 4. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	settingsRepo := repository.NewSettingsRepository(database.DB)
	bookingRepo := repository.NewBookingRepository(database.DB)
	insuranceRepo := repository.NewInsuranceRepository(database.DB)
	ambulanceRepo := repository.NewAmbulanceRepository(database.DB)
	tokenRepo := repository.NewTokenRepository(database.RDB)
	historyTTL := time.Duration(cfg.Chat.HistoryTTLHours) * time.Hour
	conversationRepo := repository.NewConversationRepository(database.RDB, historyTTL)
	locationRepo := repository.NewLocationRepository(database.RDB, historyTTL)
	facilityCache := repository.NewFacilityCacheRepository(database.RDB, time.Duration(cfg.Places.CacheTTLSeconds)*time.Second)

	// 5. 指标与外部客户端
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := triage.NewMetrics(registry)

	llmClient, err := llm.NewClient(rootCtx, cfg.LLM)
	if errors.Is(err, llm.ErrNotConfigured) {
		log.Warnf("未配置 LLM API key，所有非紧急消息将返回兜底回复")
		llmClient = llm.Unavailable{}
	} else if err != nil {
		log.Fatal("LLM 客户端初始化失败", err)
	}

	var source service.FacilitySource
	switch {
	case cfg.Places.APIKey != "":
		source = service.NewPlacesSource(places.NewClient(cfg.Places))
	case directory != nil:
		source = service.NewDirectorySource(directory)
	default:
		log.Warnf("未配置 Places API 与 ES 目录，附近机构查询不可用")
	}

	// 6. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	gate := triage.NewGate(triage.NewKeywordSet(cfg.Triage.Keywords))
	userService := service.NewUserService(userRepo, tokenRepo, jwtManager)
	settingsService := service.NewSettingsService(userRepo, settingsRepo)
	conversationService := service.NewConversationService(conversationRepo)
	chatService := service.NewChatService(gate, llmClient, conversationService, conversationRepo, metrics)
	locationService := service.NewLocationService(locationRepo)
	facilityService := service.NewFacilityService(source, directory, facilityCache, cfg.Places.EmergencyNumber, cfg.Places.DefaultRadius)
	bookingService := service.NewBookingService(bookingRepo)
	insuranceService := service.NewInsuranceService(insuranceRepo, objectStore)
	adminService := service.NewAdminService(userRepo, facilityService)

	// 7. 调度队列：配置了 Kafka 时异步消费，否则在请求内同步处理
	dispatcher := pipeline.NewDispatcher(ambulanceRepo, facilityService)
	var queue service.DispatchQueue = pipeline.InlineQueue{Dispatcher: dispatcher}
	var workers sync.WaitGroup
	if cfg.Kafka.Brokers != "" {
		queue = kafka.NewProducer(cfg.Kafka)
		workers.Add(1)
		go func() {
			defer workers.Done()
			kafka.StartConsumer(rootCtx, cfg.Kafka, dispatcher, kafka.NewAttemptCounter(database.RDB))
		}()
	}
	ambulanceService := service.NewAmbulanceService(ambulanceRepo, queue)

	if directory != nil {
		go seedFacilities(rootCtx, "initfile/facilities.json", facilityService)
	}

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "ok", "data": nil})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// 9. 注册路由
	auth := middleware.AuthMiddleware(jwtManager, userService)
	userHandler := handler.NewUserHandler(userService)
	chatHandler := handler.NewChatHandler(chatService, userService)
	conversationHandler := handler.NewConversationHandler(conversationService)
	locationHandler := handler.NewLocationHandler(locationService)
	facilityHandler := handler.NewFacilityHandler(facilityService, locationService)
	ambulanceHandler := handler.NewAmbulanceHandler(ambulanceService)
	bookingHandler := handler.NewBookingHandler(bookingService)
	insuranceHandler := handler.NewInsuranceHandler(insuranceService)
	settingsHandler := handler.NewSettingsHandler(settingsService)
	adminHandler := handler.NewAdminHandler(adminService)

	apiV1 := r.Group("/api/v1")
	{
		apiV1.POST("/auth/refreshToken", handler.NewAuthHandler(userService).RefreshToken)

		users := apiV1.Group("/users")
		{
			// 无需认证的路由
			users.POST("/register", userHandler.Register)
			users.POST("/login", userHandler.Login)

			authed := users.Group("/")
			authed.Use(auth)
			{
				authed.GET("/me", userHandler.GetProfile)
				authed.POST("/logout", userHandler.Logout)
			}
		}

		chat := apiV1.Group("/chat")
		chat.Use(auth)
		{
			chat.POST("/messages", chatHandler.SendMessage)
			chat.GET("/history", conversationHandler.GetHistory)
			chat.DELETE("/history", conversationHandler.ResetHistory)
			chat.GET("/websocket-token", chatHandler.GetWebsocketToken)
		}

		loc := apiV1.Group("/location")
		loc.Use(auth)
		{
			loc.GET("", locationHandler.Get)
			loc.POST("/request", locationHandler.Request)
			loc.POST("/resolve", locationHandler.Resolve)
			loc.POST("/fail", locationHandler.Fail)
		}

		apiV1.GET("/facilities", auth, facilityHandler.Nearby)

		ambulance := apiV1.Group("/ambulance")
		ambulance.Use(auth)
		{
			ambulance.POST("", ambulanceHandler.Request)
			ambulance.GET("", ambulanceHandler.List)
			ambulance.GET("/:id", ambulanceHandler.Get)
			ambulance.POST("/:id/cancel", ambulanceHandler.Cancel)
		}

		bookings := apiV1.Group("/bookings")
		bookings.Use(auth)
		{
			bookings.GET("", bookingHandler.List)
			bookings.POST("", bookingHandler.Create)
			bookings.PUT("/:id", bookingHandler.Reschedule)
			bookings.DELETE("/:id", bookingHandler.Cancel)
		}

		insurance := apiV1.Group("/insurance")
		insurance.Use(auth)
		{
			insurance.GET("/policies", insuranceHandler.ListPolicies)
			insurance.POST("/policies", insuranceHandler.AddPolicy)
			insurance.PUT("/policies/:id", insuranceHandler.UpdatePolicy)
			insurance.DELETE("/policies/:id", insuranceHandler.DeletePolicy)
			insurance.POST("/policies/:id/documents", insuranceHandler.UploadDocument)
			insurance.GET("/policies/:id/documents/:name", insuranceHandler.DocumentURL)
			insurance.GET("/claims", insuranceHandler.ListClaims)
			insurance.POST("/claims", insuranceHandler.FileClaim)
		}

		settings := apiV1.Group("/settings")
		settings.Use(auth)
		{
			settings.GET("/profile", settingsHandler.GetProfile)
			settings.PUT("/profile", settingsHandler.UpdateProfile)
			settings.PUT("/password", settingsHandler.ChangePassword)
			settings.GET("/notifications", settingsHandler.GetNotifications)
			settings.PUT("/notifications", settingsHandler.UpdateNotifications)
		}

		// 管理员路由组，需要同时通过认证和管理员授权两个中间件
		admin := apiV1.Group("/admin")
		admin.Use(auth, middleware.AdminAuthMiddleware())
		{
			admin.GET("/users/list", adminHandler.ListUsers)
			admin.POST("/facilities", adminHandler.IndexFacility)
		}
	}

	// WebSocket 通过一次性票据认证，不经过 AuthMiddleware
	r.GET("/chat/:token", chatHandler.Handle)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("HTTP 服务器关闭失败", err)
	}

	// 停止 Kafka 消费者并等待当前任务处理完
	stop()
	workers.Wait()
	log.Info("服务已优雅关闭")
}

// seedFacilities 把 JSON 文件中的机构导入 ES 目录，重复导入会覆盖同 ID 文档。
func seedFacilities(ctx context.Context, path string, facilities service.FacilityService) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Infof("seedFacilities: 文件 '%s' 不存在或不可读，跳过初始化导入", path)
		return
	}
	var items []service.FacilityInput
	if err := json.Unmarshal(data, &items); err != nil {
		log.Warnf("seedFacilities: 解析 '%s' 失败: %v", path, err)
		return
	}
	imported := 0
	for _, item := range items {
		if ctx.Err() != nil {
			return
		}
		if err := facilities.Index(ctx, item); err != nil {
			log.Warnw("seedFacilities: 导入失败", "id", item.ID, "error", err)
			continue
		}
		imported++
	}
	log.Infof("seedFacilities: 已导入 %d/%d 条机构", imported, len(items))
}
