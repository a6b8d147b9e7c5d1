package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"syntagma/internal/api/handler"
	"syntagma/internal/api/middleware"
	"syntagma/internal/api/router"
	"syntagma/internal/cache"
	"syntagma/internal/config"
	"syntagma/internal/infra/database"
	infraES "syntagma/internal/infra/elasticsearch"
	infraKafka "syntagma/internal/infra/kafka"
	infraMinio "syntagma/internal/infra/minio"
	infraRedis "syntagma/internal/infra/redis"
	"syntagma/internal/repository"
	"syntagma/internal/service"
	"syntagma/pkg/logger"

	_ "syntagma/api/openapi"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title Syntagma API
// @version 1.0
// @description 宪法草案讨论平台 API 服务

// @host 127.0.0.1:8000
// @BasePath /api

const localCacheSize = 1024

func main() {
	// 加载配置文件
	cfg, err := config.Load(configPath())
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 初始化日志系统
	if err := logger.Init(
		cfg.Log.Level,
		cfg.Log.Format,
		cfg.Log.Output,
		cfg.Log.FilePath,
	); err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer logger.Sync()

	// 初始化数据库
	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("Failed to init database", zap.Error(err))
	}
	defer database.Close()

	if err := database.AutoMigrate(database.Get()); err != nil {
		logger.Fatal("Failed to auto migrate", zap.Error(err))
	}

	// Redis 不可用时降级到进程内缓存与限流
	var (
		listCache cache.Cache
		limiter   cache.Limiter
	)
	if err := infraRedis.Init(&cfg.Redis); err != nil {
		logger.Warn("Redis init failed, using in-process cache", zap.Error(err))
		local, err := cache.NewLocalCache(localCacheSize)
		if err != nil {
			logger.Fatal("Failed to init local cache", zap.Error(err))
		}
		localLimiter, err := cache.NewLocalLimiter(localCacheSize)
		if err != nil {
			logger.Fatal("Failed to init local limiter", zap.Error(err))
		}
		listCache, limiter = local, localLimiter
	} else {
		defer infraRedis.Close()
		listCache = cache.NewRedisCache(infraRedis.Get(), cfg.App.Name)
		limiter = cache.NewRedisLimiter(infraRedis.Get())
	}

	// Kafka 生产者为异步写入，broker 不可用不会阻塞请求
	producer := infraKafka.NewCommentEventProducer(&cfg.Kafka)
	defer producer.Close()

	db := database.Get()
	commentRepo := repository.NewCommentRepository(db)

	commentOpts := []service.CommentOption{
		service.WithCache(listCache, cfg.Comments.CacheTTL()),
		service.WithPublisher(producer),
		service.WithReplyLimit(cfg.Comments.ReplyLimit),
	}

	// 初始化 Elasticsearch（可选，失败则搜索降级到 DB）
	if err := infraES.Init(&cfg.Elasticsearch); err != nil {
		logger.Warn("Elasticsearch init failed, search will fallback to DB", zap.Error(err))
	} else {
		defer infraES.Close()
		index := infraES.NewCommentIndex(infraES.Get(), cfg.Elasticsearch.CommentsIndex())
		if err := index.EnsureIndex(context.Background()); err != nil {
			logger.Warn("Elasticsearch index init failed", zap.Error(err))
		}
		commentOpts = append(commentOpts, service.WithSearcher(index))
	}

	// 初始化 MinIO（可选，失败则不归档条文快照）
	var snapshots service.Snapshotter
	if store, err := infraMinio.New(&cfg.MinIO); err != nil {
		logger.Warn("MinIO init failed, article snapshots disabled", zap.Error(err))
	} else {
		snapshots = store
	}

	commentService := service.NewCommentService(commentRepo, commentOpts...)
	contentService := service.NewContentService(
		repository.NewArticleRepository(db),
		repository.NewFAQRepository(db),
		listCache,
		cfg.Comments.CacheTTL(),
		snapshots,
	)
	authService := service.NewAuthService(cfg.Auth, cfg.App.Name)

	// 设置Gin模式
	gin.SetMode(cfg.App.Mode)

	r := gin.New()
	metrics := middleware.NewMetrics(prometheus.DefaultRegisterer)
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(metrics.Handler())

	// 注册基础路由
	r.GET("/healthz", healthCheckHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 注册业务路由
	router.Setup(r,
		handler.NewCommentHandler(commentService),
		handler.NewContentHandler(contentService),
		handler.NewAuthHandler(authService),
		authService,
		router.PostLimit{
			Limiter: limiter,
			Limit:   cfg.Comments.RateLimit,
			Window:  cfg.Comments.RateWindow(),
		},
	)

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	logger.Info("Starting application",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("mode", cfg.App.Mode),
		zap.String("addr", addr),
	)
	logger.Info("Configuration loaded",
		zap.String("database", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)),
		zap.String("redis", cfg.Redis.Addr()),
		zap.String("minio", cfg.MinIO.Endpoint),
		zap.Strings("kafka", cfg.Kafka.Brokers),
	)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("Server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 监听系统信号，优雅退出
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
}

// configPath 配置文件路径，可通过 SYNTAGMA_CONFIG 覆盖
func configPath() string {
	if p := os.Getenv("SYNTAGMA_CONFIG"); p != "" {
		return p
	}
	return "configs/config.yaml"
}

// healthCheckHandler 健康检查接口
func healthCheckHandler(c *gin.Context) {
	cfg := config.Get()

	status, code := "ok", http.StatusOK
	if sqlDB, err := database.Get().DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	logger.Debug("Health check requested", zap.String("ip", c.ClientIP()), zap.String("status", status))

	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   cfg.App.Name,
		"version":   cfg.App.Version,
		"mode":      cfg.App.Mode,
	})
}
