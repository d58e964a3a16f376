package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	httpHandler "guess-who-arena/internal/handler/http"
	wsHandler "guess-who-arena/internal/handler/websocket"
	"guess-who-arena/internal/hub"
	rediscache "guess-who-arena/internal/infra/cache/redis"
	gormpersistence "guess-who-arena/internal/infra/persistence/gorm"
	"guess-who-arena/internal/infra/setup"
	"guess-who-arena/internal/middleware"
	"guess-who-arena/internal/presence"
	"guess-who-arena/internal/service"
	"guess-who-arena/internal/tasks"
	"guess-who-arena/internal/worker"
)

// App 包含应用的所有组件和配置
type App struct {
	Config      *Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	AsynqClient *asynq.Client
	AsynqServer *worker.WorkerServer
	Hub         *hub.Hub
	Coordinator *service.Coordinator
	HttpServer  *http.Server

	redisClientOpt asynq.RedisClientOpt
	scheduler      *asynq.Scheduler
}

// OpenDatabase 连接数据库并执行迁移
func OpenDatabase(cfg *Config, log *logrus.Logger) (*gorm.DB, error) {
	db, err := setup.InitDB(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}
	log.WithField("driver", cfg.DB.Driver).Info("Database initialized")

	if err := setup.MigrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate DB: %w", err)
	}
	log.Info("Database migrated")
	return db, nil
}

// NewApp 创建并初始化应用的所有组件
func NewApp(cfg *Config, log *logrus.Logger) (*App, error) {
	// 1. 基础设施
	log.Info("Initializing infrastructure...")
	db, err := OpenDatabase(cfg, log)
	if err != nil {
		return nil, err
	}

	redisClient, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}
	log.Info("Redis client initialized")

	redisClientOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	asynqClient := asynq.NewClient(redisClientOpt)
	log.Info("Asynq client initialized")

	// 2. Repositories
	userRepo := gormpersistence.NewGormUserRepository(db)
	roomRepo := gormpersistence.NewGormRoomRepository(db)
	imageRepo := rediscache.NewCachedImageRepository(
		gormpersistence.NewGormImageRepository(db), redisClient, cfg.KeyPrefix, cfg.ImageCacheTTL)
	log.Info("Repositories initialized")

	// 3. Services
	content := service.NewContentResolver(imageRepo)
	userService := service.NewUserService(userRepo, tasks.NewScoreEnqueuer(asynqClient))
	roomService := service.NewRoomService(roomRepo, imageRepo)
	hubInstance := hub.NewHub()
	coordinator := service.NewCoordinator(
		roomRepo,
		imageRepo,
		content,
		userService,
		presence.NewTracker(),
		hubInstance,
		cfg.Game,
	)
	log.Info("Services initialized")

	// 4. Worker Server
	workerServer := worker.NewWorkerServer(redisClientOpt, userService, coordinator, cfg.OrphanAge, log)

	// 5. Handlers 与路由
	router := NewRouter(cfg, log, redisClient, routeHandlers{
		rooms:  httpHandler.NewRoomHandler(roomService),
		images: httpHandler.NewImageHandler(content),
		users:  httpHandler.NewUserHandler(userService),
		ws:     wsHandler.NewWebSocketHandler(hubInstance, coordinator, cfg.AllowedOrigins),
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("Application assembled successfully")
	return &App{
		Config:         cfg,
		Log:            log,
		DB:             db,
		RedisClient:    redisClient,
		AsynqClient:    asynqClient,
		AsynqServer:    workerServer,
		Hub:            hubInstance,
		Coordinator:    coordinator,
		HttpServer:     httpServer,
		redisClientOpt: redisClientOpt,
	}, nil
}

type routeHandlers struct {
	rooms  *httpHandler.RoomHandler
	images *httpHandler.ImageHandler
	users  *httpHandler.UserHandler
	ws     *wsHandler.WebSocketHandler
}

// NewRouter 创建 Gin Engine 并注册路由。redisClient 为 nil 时不启用限流。
func NewRouter(cfg *Config, log *logrus.Logger, redisClient *redis.Client, h routeHandlers) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))

	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })

	api := router.Group("/api")
	if redisClient != nil {
		api.Use(middleware.RateLimit(redisClient, cfg.KeyPrefix, cfg.RateLimitMax, cfg.RateLimitWindow))
	}
	api.GET("/rooms/:name", h.rooms.GetRoom)
	api.GET("/images/categories", h.images.ListCategories)
	api.GET("/users/:id", h.users.GetProfile)

	if cfg.JWTSecret != "" {
		router.GET("/ws", middleware.Auth(cfg.JWTSecret, cfg.WSAuthRequired), h.ws.HandleConnection)
	} else {
		log.Warn("JWT_SECRET not set, websocket connections are not authenticated")
		router.GET("/ws", h.ws.HandleConnection)
	}
	return router
}

// Start 启动应用的所有后台 Goroutine 和 HTTP 服务器
func (a *App) Start() {
	go a.Hub.Run()
	a.Log.Info("Hub routine started")

	go a.AsynqServer.Start()
	a.Log.Info("Asynq worker server routine started")

	a.registerPeriodicTasks()

	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

func (a *App) registerPeriodicTasks() {
	if a.Config.SweepInterval <= 0 {
		a.Log.Info("Orphan room sweep disabled")
		return
	}
	payload, err := tasks.NewRoomSweepTask(a.Config.OrphanAge)
	if err != nil {
		a.Log.Errorf("Failed to create room sweep task payload: %v", err)
		return
	}

	scheduler := asynq.NewScheduler(a.redisClientOpt, &asynq.SchedulerOpts{})
	schedule := fmt.Sprintf("@every %s", a.Config.SweepInterval)
	entryID, err := scheduler.Register(schedule, asynq.NewTask(tasks.TypeRoomSweep, payload), asynq.Queue("low"))
	if err != nil {
		a.Log.Errorf("Could not register room sweep task: %v", err)
		return
	}
	a.Log.Infof("Room sweep task registered with schedule '%s' (EntryID: %s)", schedule, entryID)

	if err := scheduler.Start(); err != nil {
		a.Log.Errorf("Asynq scheduler failed to start: %v", err)
		return
	}
	a.scheduler = scheduler
}

// Shutdown 优雅地关闭应用
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	// 1. 先停止接收新连接
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	} else {
		a.Log.Info("HTTP server shut down gracefully.")
	}

	// 2. 关闭所有 WebSocket 客户端，等待断线清理写完数据库再继续
	a.Hub.Stop()
	drainCtx, drainCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer drainCancel()
	if err := a.Hub.Drain(drainCtx); err != nil {
		a.Log.Warnf("Timed out waiting for websocket clients to disconnect: %v", err)
	} else {
		a.Log.Info("All websocket clients disconnected.")
	}

	// 3. 停止定时任务和 Worker
	if a.scheduler != nil {
		a.scheduler.Shutdown()
	}
	a.AsynqServer.Shutdown()

	if err := a.AsynqClient.Close(); err != nil {
		a.Log.Errorf("Error closing Asynq client: %v", err)
	}
	if err := a.RedisClient.Close(); err != nil {
		a.Log.Errorf("Error closing Redis connection: %v", err)
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.Log.Errorf("Error closing database connection: %v", err)
		}
	}
	a.Log.Info("Application shutdown complete.")
}

// LoggerMiddleware 创建一个 Gin 中间件用于记录请求日志
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)
		statusCode := c.Writer.Status()

		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			// 不记录查询串，里面可能带有 token
			"path": c.Request.URL.Path,
		})

		if errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String(); errorMessage != "" {
			entry.Error(errorMessage)
			return
		}
		switch {
		case statusCode >= 500:
			entry.Error("Server error")
		case statusCode >= 400:
			entry.Warn("Client error")
		default:
			entry.Info("Request handled")
		}
	}
}
