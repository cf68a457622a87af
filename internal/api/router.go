package api

import (
	"context"
	"net/http"
	"time"

	"FightSync/internal/config"
	"FightSync/internal/middleware"
	"FightSync/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// NewRouter 注册全部路由；pprof 由调用方按需挂载
func NewRouter(db *gorm.DB, cfg *config.Config, metrics *observability.IngestMetrics, logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.GET("/healthz", healthz(db))
	r.GET("/metrics", gin.WrapH(observability.Handler()))

	// 爬虫入库接口（内部调用，Bearer 鉴权）
	ingestHandler := NewIngestHandler(db, cfg.Ingest, metrics, logger)
	internal := r.Group("/api/internal", middleware.BearerAuth(cfg.Ingest.Secret, logger))
	internal.POST("/ingest", ingestHandler.Ingest)
	internal.GET("/ingest/runs", ingestHandler.ListRuns)
	internal.GET("/ingest/runs/:run_id", ingestHandler.GetRun)
	return r
}

// healthz 数据库可达即健康
func healthz(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// requestLogger 用 logrus 输出访问日志
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		}).Debug("HTTP请求")
	}
}
