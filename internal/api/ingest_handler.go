package api

import (
	"errors"
	"net/http"
	"strconv"

	"FightSync/internal/config"
	"FightSync/internal/observability"
	"FightSync/internal/repository"
	"FightSync/internal/service"
	"FightSync/internal/snapshot"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// defaultMaxBodyBytes 未配置时的请求体上限
const defaultMaxBodyBytes int64 = 32 << 20

// IngestHandler 爬虫快照入库接口
type IngestHandler struct {
	ingestService *service.IngestService
	maxBodyBytes  int64
	logger        *logrus.Logger
}

// NewIngestHandler 创建 IngestHandler
func NewIngestHandler(db *gorm.DB, cfg config.IngestConfig, metrics *observability.IngestMetrics, logger *logrus.Logger) *IngestHandler {
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	return &IngestHandler{
		ingestService: service.NewIngestService(db, cfg, metrics, logger),
		maxBodyBytes:  maxBody,
		logger:        logger,
	}
}

// Ingest 接收一份完整快照并入库
// POST /api/internal/ingest  (Authorization: Bearer <secret>)
func (h *IngestHandler) Ingest(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	snap, err := snapshot.Decode(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"details": []snapshot.FieldError{{Field: "$", Message: err.Error()}},
		})
		return
	}
	if fieldErrs := snapshot.Validate(snap); len(fieldErrs) > 0 {
		h.logger.WithField("errors", len(fieldErrs)).Warn("快照校验失败，拒绝入库")
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"details": fieldErrs,
		})
		return
	}

	result, err := h.ingestService.Ingest(c.Request.Context(), snap)
	if err != nil {
		// 失败细节只进日志和台账
		h.logger.WithError(err).Error("Ingest failed")
		resp := gin.H{"error": "ingestion failed"}
		if result != nil {
			resp["runId"] = result.RunID
		}
		c.JSON(http.StatusInternalServerError, resp)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runId":   result.RunID,
		"counts":  result.Counts,
		"skipped": result.Skipped,
	})
}

// ListRuns 运行台账列表
// GET /api/internal/ingest/runs?status=failure&page=1&page_size=20
func (h *IngestHandler) ListRuns(c *gin.Context) {
	status := c.Query("status")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	runs, total, err := h.ingestService.ListRuns(c.Request.Context(), status, page, pageSize)
	if err != nil {
		h.logger.WithError(err).Error("ListRuns failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list runs failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total": total,
		"page":  page,
		"items": runs,
	})
}

// GetRun 单条运行台账
// GET /api/internal/ingest/runs/:run_id
func (h *IngestHandler) GetRun(c *gin.Context) {
	run, err := h.ingestService.GetRun(c.Request.Context(), c.Param("run_id"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("GetRun failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get run failed"})
		return
	}
	c.JSON(http.StatusOK, run)
}
