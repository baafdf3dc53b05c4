package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SheliVas/therapySessionAnalyzer/internal/domain/entity"
	"github.com/SheliVas/therapySessionAnalyzer/internal/usecase"
)

// UploadHandlers serves the video upload surface.
type UploadHandlers struct {
	uploadUC *usecase.UploadVideoUseCase
	logger   *zap.Logger
}

func NewUploadHandlers(uploadUC *usecase.UploadVideoUseCase, logger *zap.Logger) *UploadHandlers {
	return &UploadHandlers{uploadUC: uploadUC, logger: logger}
}

// NewUploadRouter builds the upload service's engine. No implicit globals:
// the caller owns the returned engine.
func NewUploadRouter(h *UploadHandlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", healthHandler)
	r.POST("/videos", h.UploadVideo)
	return r
}

func (h *UploadHandlers) UploadVideo(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "missing file field"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open uploaded file"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read uploaded file"})
		return
	}

	videoID, err := h.uploadUC.Execute(c.Request.Context(), fileHeader.Filename, content)
	if err != nil {
		if errors.Is(err, entity.ErrEmptyUpload) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is empty"})
			return
		}
		h.logger.Error("upload failed", zap.String("filename", fileHeader.Filename), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"video_id": videoID,
		"filename": fileHeader.Filename,
	})
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
