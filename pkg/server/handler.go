package server

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mikeboe/osint-investigator/pkg/metrics"
	"github.com/mikeboe/osint-investigator/pkg/osint"
	"github.com/mikeboe/osint-investigator/pkg/progress"
	"github.com/mikeboe/osint-investigator/pkg/report"
)

type Handler struct {
	Service *Service
	Reports *report.Writer

	sessionMu   sync.RWMutex
	mcpSessions map[string]time.Time
}

func NewHandler(s *Service, reports *report.Writer) *Handler {
	return &Handler{
		Service:     s,
		Reports:     reports,
		mcpSessions: make(map[string]time.Time),
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.home)
	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.POST("/mcp", h.mcp)
	api := r.Group("/api")
	{
		api.POST("/osint", h.startSearch)
		api.GET("/progress/:id", h.getProgress)
		api.GET("/progress/:id/logs", h.getLogs)

		api.POST("/reports", h.generateReport)
		api.GET("/reports/:filename", h.downloadReport)
	}
}

func (h *Handler) home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "OSINT Investigator API",
		"version": "2.0",
		"endpoints": gin.H{
			"POST /api/osint":            "Start an OSINT search",
			"GET /api/progress/:id":      "Poll search progress",
			"GET /api/progress/:id/logs": "Read the log of a search",
			"POST /api/reports":          "Generate a JSON report",
			"GET /api/reports/:filename": "Download a generated report",
			"GET /health":                "Health check",
			"GET /metrics":               "Prometheus metrics",
			"POST /mcp":                  "MCP tool endpoint",
		},
	})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.Health(c.Request.Context()))
}

func (h *Handler) startSearch(c *gin.Context) {
	var req StartSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body must be JSON."})
		return
	}

	searchID, err := h.Service.StartSearch(req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"searchId": searchID,
		"message":  fmt.Sprintf("Search initiated. Poll /api/progress/%s for updates.", searchID),
	})
}

func (h *Handler) getProgress(c *gin.Context) {
	resp, err := h.Service.GetProgress(c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": "Search ID not found. It may have expired."})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getLogs(c *gin.Context) {
	logs, err := h.Service.GetLogs(c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": "Search ID not found. It may have expired."})
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (h *Handler) generateReport(c *gin.Context) {
	var req struct {
		PersonData *osint.Report `json:"personData"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body must be JSON."})
		return
	}
	if req.PersonData == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing personData in request body."})
		return
	}

	filename, path, err := h.Reports.Write(req.PersonData)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to generate report: %v", err)})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"reportPath": path,
		"filename":   filename,
		"message":    "Report generated successfully.",
	})
}

func (h *Handler) downloadReport(c *gin.Context) {
	filename := c.Param("filename")
	path, err := h.Reports.Path(filename)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.FileAttachment(path, filename)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, osint.ErrInvalidRequest), errors.Is(err, report.ErrInvalidFilename):
		return http.StatusBadRequest
	case errors.Is(err, progress.ErrTooManySearches):
		return http.StatusTooManyRequests
	case errors.Is(err, progress.ErrNotFound), errors.Is(err, report.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
