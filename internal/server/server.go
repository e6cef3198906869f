package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Catorpilor/fresh-market-watcher/internal/model"
	"github.com/Catorpilor/fresh-market-watcher/internal/scan"
)

// ScanService runs one scan request end to end.
type ScanService interface {
	Run(ctx context.Context, req scan.Request) model.ScanResult
}

// Handler exposes the scan pipeline over HTTP.
type Handler struct {
	pipeline ScanService
	logger   *zap.Logger
}

// NewHandler builds a handler around the pipeline.
func NewHandler(pipeline ScanService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{pipeline: pipeline, logger: logger}
}

// NewRouter sets up the gin router: the scan endpoint, health, and metrics.
func NewRouter(handler *Handler, gatherer prometheus.Gatherer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")
	{
		v1.POST("/scan", handler.Scan)
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	return router
}

// Scan handles POST /api/v1/scan. The response body always carries an
// explicit success flag; enrichment degradation shows up as sentinel field
// values inside pools, never as missing pools.
func (h *Handler) Scan(c *gin.Context) {
	var req scan.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ScanResult{
			Success: false,
			Pools:   []model.EnrichedPool{},
			Error:   "invalid request body: " + err.Error(),
		})
		return
	}

	result := h.pipeline.Run(c.Request.Context(), req)

	status := http.StatusOK
	if !result.Success {
		// Request mistakes the caller can fix are 400; everything else
		// is an upstream or internal failure.
		if result.ErrorKind == model.ErrorKindInvalidRequest {
			status = http.StatusBadRequest
		} else {
			status = http.StatusInternalServerError
		}
	}
	c.JSON(status, result)
}
