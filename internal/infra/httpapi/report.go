package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SheliVas/therapySessionAnalyzer/internal/domain/entity"
	"github.com/SheliVas/therapySessionAnalyzer/internal/domain/port"
)

// ReportHandlers is the read-only surface over persisted analysis results.
type ReportHandlers struct {
	repo   port.AnalysisRepository
	logger *zap.Logger
}

func NewReportHandlers(repo port.AnalysisRepository, logger *zap.Logger) *ReportHandlers {
	return &ReportHandlers{repo: repo, logger: logger}
}

func NewReportRouter(h *ReportHandlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", healthHandler)
	r.GET("/videos", h.ListVideos)
	r.GET("/videos/:id", h.GetVideo)
	return r
}

func (h *ReportHandlers) ListVideos(c *gin.Context) {
	analyses, err := h.repo.ListAnalyses(c.Request.Context())
	if err != nil {
		h.logger.Error("list analyses failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list videos"})
		return
	}
	c.JSON(http.StatusOK, analyses)
}

func (h *ReportHandlers) GetVideo(c *gin.Context) {
	videoID := c.Param("id")

	analysis, err := h.repo.GetAnalysis(c.Request.Context(), videoID)
	if err != nil {
		if errors.Is(err, entity.ErrVideoNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
			return
		}
		h.logger.Error("get analysis failed", zap.String("video_id", videoID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get video"})
		return
	}
	c.JSON(http.StatusOK, analysis)
}
