package usecase

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SheliVas/therapySessionAnalyzer/internal/domain/entity"
	"github.com/SheliVas/therapySessionAnalyzer/internal/domain/port"
	"github.com/SheliVas/therapySessionAnalyzer/internal/infra/metrics"
)

const stageUpload = "upload"

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// sanitizeFilename replaces characters that are unsafe in object keys. The
// event keeps the original filename; only the key uses the sanitized form.
func sanitizeFilename(filename string) string {
	return unsafeFilenameChars.ReplaceAllString(filename, "_")
}

// UploadVideoUseCase assigns the video_id, stores the raw video, records
// the upload and publishes video.uploaded — in that order.
type UploadVideoUseCase struct {
	storage     port.ObjectStorage
	videos      port.VideoRepository
	publisher   port.VideoUploadedPublisher
	videoBucket string
	logger      *zap.Logger
}

func NewUploadVideoUseCase(
	storage port.ObjectStorage,
	videos port.VideoRepository,
	publisher port.VideoUploadedPublisher,
	videoBucket string,
	logger *zap.Logger,
) *UploadVideoUseCase {
	return &UploadVideoUseCase{
		storage:     storage,
		videos:      videos,
		publisher:   publisher,
		videoBucket: videoBucket,
		logger:      logger,
	}
}

func (uc *UploadVideoUseCase) Execute(ctx context.Context, filename string, content []byte) (string, error) {
	if len(content) == 0 {
		return "", entity.ErrEmptyUpload
	}

	videoID := uuid.NewString()
	key := fmt.Sprintf("videos/%s/%s", videoID, sanitizeFilename(filename))
	uploadedAt := time.Now().UTC()

	if err := uc.storage.Upload(ctx, uc.videoBucket, key, content, "video/mp4"); err != nil {
		return "", fmt.Errorf("upload video: %w", err)
	}

	record := entity.NewVideoRecord(videoID, filename, uc.videoBucket, key, uploadedAt)
	if err := uc.videos.UpsertOnUpload(ctx, record); err != nil {
		return "", fmt.Errorf("record upload: %w", err)
	}

	event := entity.VideoUploadedEvent{
		VideoID:    videoID,
		Filename:   filename,
		Bucket:     uc.videoBucket,
		Key:        key,
		UploadedAt: uploadedAt,
	}
	if err := uc.publisher.PublishVideoUploaded(ctx, event); err != nil {
		return "", fmt.Errorf("publish video uploaded: %w", err)
	}

	metrics.EventsProcessedTotal.WithLabelValues(stageUpload, "completed").Inc()
	uc.logger.Info("video uploaded",
		zap.String("video_id", videoID),
		zap.String("key", key),
		zap.Int("bytes", len(content)),
	)
	return videoID, nil
}
