package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitfantasy/nimo-trade/internal/config"
	"github.com/bitfantasy/nimo-trade/internal/middleware"
	"github.com/bitfantasy/nimo-trade/internal/trade/entity"
	"github.com/bitfantasy/nimo-trade/internal/trade/handler"
	"github.com/bitfantasy/nimo-trade/internal/trade/repository"
	"github.com/bitfantasy/nimo-trade/internal/trade/service"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting nimo-trade service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// 自动迁移业务表
	if err := entity.AutoMigrate(db); err != nil {
		zapLogger.Fatal("Failed to auto-migrate trade tables", zap.Error(err))
	}
	zapLogger.Info("Trade database migration completed")

	// 初始化依赖
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, zapLogger)
	handlers := handler.NewHandlers(services)

	// 确定端口
	port := os.Getenv("TRADE_PORT")
	if port == "" {
		port = fmt.Sprintf("%d", cfg.Server.Port)
	}
	if port == "0" {
		port = "8082"
	}

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())

	// 健康检查
	router.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "nimo-trade"})
	})
	router.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "nimo-trade"})
	})

	// 版本信息
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":    "nimo-trade",
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// Trade API v1
	v1 := router.Group("/api/v1/trade")
	v1.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		// 产品管理
		products := v1.Group("/products")
		{
			products.GET("", handlers.Product.List)
			products.POST("", handlers.Product.Create)
			products.GET("/:id", handlers.Product.Get)
			products.PUT("/:id", handlers.Product.Update)
			products.DELETE("/:id", handlers.Product.Delete)
			products.POST("/:id/stock", handlers.Stock.Adjust)
		}

		// 客户管理
		clients := v1.Group("/clients")
		{
			clients.GET("", handlers.Partner.ListClients)
			clients.POST("", handlers.Partner.CreateClient)
			clients.GET("/:id", handlers.Partner.GetClient)
			clients.PUT("/:id", handlers.Partner.UpdateClient)
			clients.DELETE("/:id", handlers.Partner.DeleteClient)
		}

		// 供应商管理
		suppliers := v1.Group("/suppliers")
		{
			suppliers.GET("", handlers.Partner.ListSuppliers)
			suppliers.POST("", handlers.Partner.CreateSupplier)
			suppliers.GET("/:id", handlers.Partner.GetSupplier)
			suppliers.PUT("/:id", handlers.Partner.UpdateSupplier)
			suppliers.DELETE("/:id", handlers.Partner.DeleteSupplier)
		}

		// 报价单
		quotes := v1.Group("/quotes")
		{
			quotes.GET("", handlers.Quote.List)
			quotes.POST("", handlers.Quote.Create)
			quotes.GET("/:id", handlers.Quote.Get)
			quotes.PUT("/:id", handlers.Quote.Update)
			quotes.PUT("/:id/status", handlers.Quote.SetStatus)
			quotes.POST("/:id/convert", handlers.Quote.Convert)
		}

		// 发票
		invoices := v1.Group("/invoices")
		{
			invoices.GET("", handlers.Invoice.List)
			invoices.POST("", handlers.Invoice.Create)
			invoices.GET("/:id", handlers.Invoice.Get)
			invoices.PUT("/:id/status", handlers.Invoice.UpdateStatus)
		}

		// 库存流水
		stock := v1.Group("/stock")
		{
			stock.GET("/movements", handlers.Stock.Movements)
		}
	}

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Trade server starting", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down trade server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Trade server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}
	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}
	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	return db, nil
}
