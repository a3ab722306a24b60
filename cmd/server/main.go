// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"salescoach-go/internal/config"
	"salescoach-go/internal/handler"
	"salescoach-go/internal/middleware"
	"salescoach-go/internal/pipeline"
	"salescoach-go/internal/repository"
	"salescoach-go/internal/service"
	"salescoach-go/pkg/database"
	"salescoach-go/pkg/es"
	"salescoach-go/pkg/kafka"
	"salescoach-go/pkg/llm"
	"salescoach-go/pkg/log"
	"salescoach-go/pkg/storage"
	"salescoach-go/pkg/token"
	"salescoach-go/pkg/voice"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库和 Redis
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	if err := es.InitES(cfg.Elasticsearch); err != nil {
		log.Errorf("es 初始化失败 %s", err)
		return
	}
	kafka.InitProducer(cfg.Kafka)

	// 4. 初始化 Repository
	userRepository := repository.NewUserRepository(database.DB)
	agentRepo := repository.NewAgentRepository(database.DB)
	productRepo := repository.NewProductRepository(database.DB)
	conversationRepo := repository.NewConversationRepository(database.DB)
	feedbackRepo := repository.NewFeedbackRepository(database.DB)
	liveRepo := repository.NewLiveSessionRepository(database.RDB,
		time.Duration(cfg.Simulation.LiveBufferTTLHours)*time.Hour)

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	voiceClient := voice.NewClient(cfg.Voice)
	llmClient := llm.NewClient(cfg.LLM)
	userService := service.NewUserService(userRepository, jwtManager)
	agentService := service.NewAgentService(agentRepo)
	productService := service.NewProductService(productRepo)
	conversationService := service.NewConversationService(conversationRepo, agentRepo, productRepo, cfg.MinIO.BucketName)
	provisionService := service.NewProvisionService(userRepository, conversationRepo, liveRepo,
		voiceClient, service.DefaultVoiceSelector, cfg.Voice.DefaultVoiceID, cfg.Simulation.MaxDurationSeconds)
	sessionService := service.NewSessionService(conversationRepo, voiceClient)
	feedbackService := service.NewFeedbackService(feedbackRepo, conversationRepo, llmClient)
	simulationService := service.NewSimulationService(conversationRepo, liveRepo, voiceClient,
		feedbackService, kafka.ProduceArchiveTask)
	liveService := service.NewLiveService(conversationRepo, liveRepo)
	searchService := service.NewSearchService(es.ESClient, cfg.Elasticsearch.IndexName)
	adminService := service.NewAdminService(userRepository, conversationRepo)

	// 6. 初始化会话归档管道 (Archiver)
	archiver := pipeline.NewArchiver(conversationRepo, cfg.Elasticsearch, cfg.MinIO)

	// 7. 启动后台 Kafka 消费者
	go kafka.StartConsumer(cfg.Kafka, archiver)

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	// 添加我们自定义的日志中间件和 Gin 的 Recovery 中间件
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 9. 注册路由
	apiV1 := r.Group("/api/v1")
	{
		// Auth 路由组
		auth := apiV1.Group("/auth")
		{
			auth.POST("/refreshToken", handler.NewAuthHandler(userService).RefreshToken)
		}

		users := apiV1.Group("/users")
		{
			// 无需认证的路由 (公开访问)
			users.POST("/register", handler.NewUserHandler(userService).Register)
			users.POST("/login", handler.NewUserHandler(userService).Login)

			// 需要认证的路由 (仅限登录用户访问)
			authed := users.Group("/")
			authed.Use(middleware.AuthMiddleware(jwtManager, userService))
			{
				authed.GET("/me", handler.NewUserHandler(userService).GetProfile)
				authed.POST("/logout", handler.NewUserHandler(userService).Logout)
			}
		}

		// Agent（客户画像）路由组，需要认证
		agents := apiV1.Group("/agents")
		agents.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			agentHandler := handler.NewAgentHandler(agentService)
			agents.GET("", agentHandler.List)
			agents.POST("", agentHandler.Create)
			agents.GET("/:id", agentHandler.Get)
			agents.PUT("/:id", agentHandler.Update)
			agents.DELETE("/:id", agentHandler.Delete)
		}

		// Product 路由组，需要认证
		products := apiV1.Group("/products")
		products.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			productHandler := handler.NewProductHandler(productService)
			products.GET("", productHandler.List)
			products.POST("", productHandler.Create)
			products.GET("/:id", productHandler.Get)
			products.PUT("/:id", productHandler.Update)
			products.DELETE("/:id", productHandler.Delete)
		}

		// Conversation（模拟场景）路由组，需要认证
		conversations := apiV1.Group("/conversations")
		conversations.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			conversationHandler := handler.NewConversationHandler(conversationService)
			conversations.GET("", conversationHandler.List)
			conversations.POST("", conversationHandler.Create)
			conversations.GET("/:id", conversationHandler.Get)
			conversations.GET("/:id/archive-url", conversationHandler.ArchiveURL)
		}

		// Simulation 生命周期路由，需要认证
		simulationHandler := handler.NewSimulationHandler(provisionService, sessionService, simulationService)
		simulation := apiV1.Group("/simulation")
		simulation.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			simulation.POST("/start", simulationHandler.Start)
			simulation.POST("/end/:id", simulationHandler.End)
		}
		session := apiV1.Group("/session")
		session.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			session.POST("/credential", simulationHandler.Credential)
		}

		// Live 实时转写镜像（WebSocket）
		liveHandler := handler.NewLiveHandler(liveService)
		live := apiV1.Group("/live")
		live.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			live.GET("/ws-token", liveHandler.GetWsToken)
		}
		// WebSocket 握手带不了 Authorization 头，连接入口用一次性令牌鉴权
		r.GET("/live/:token", liveHandler.Handle)

		// Search 路由组
		search := apiV1.Group("/search")
		search.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			search.GET("/simulations", handler.NewSearchHandler(searchService).SearchSimulations)
		}

		admin := apiV1.Group("/admin")
		// 管理员路由组，需要同时通过认证和管理员授权两个中间件
		admin.Use(middleware.AuthMiddleware(jwtManager, userService), middleware.AdminAuthMiddleware())
		{
			adminHandler := handler.NewAdminHandler(adminService)
			admin.GET("/users/list", adminHandler.ListUsers)
			admin.GET("/conversations", adminHandler.ListConversations)
		}
	}

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	// 在优雅停机逻辑中，我们不需要手动关闭 Kafka 消费者，
	// 因为 StartConsumer 是一个循环，会在程序退出时自然结束。
	// 如果需要更精细的控制，可以在 StartConsumer 中实现一个关闭通道。
	log.Info("服务已优雅关闭")
}
