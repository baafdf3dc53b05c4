package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/SheliVas/therapySessionAnalyzer/internal/domain/entity"
	"github.com/SheliVas/therapySessionAnalyzer/internal/domain/port"
	"github.com/SheliVas/therapySessionAnalyzer/internal/infra/metrics"
)

const stageAudioExtractor = "audio-extractor"

// ExtractAudioUseCase handles video.uploaded events: fetch the video,
// derive its audio track, store it at the stage-owned location and publish
// audio.extracted.
type ExtractAudioUseCase struct {
	storage     port.ObjectStorage
	extractor   port.AudioExtractor
	publisher   port.AudioExtractedPublisher
	audioBucket string
	logger      *zap.Logger
}

func NewExtractAudioUseCase(
	storage port.ObjectStorage,
	extractor port.AudioExtractor,
	publisher port.AudioExtractedPublisher,
	audioBucket string,
	logger *zap.Logger,
) *ExtractAudioUseCase {
	return &ExtractAudioUseCase{
		storage:     storage,
		extractor:   extractor,
		publisher:   publisher,
		audioBucket: audioBucket,
		logger:      logger,
	}
}

// Execute is the consumer's message handler for the video.uploaded queue.
func (uc *ExtractAudioUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ExtractAudioUseCase.Execute")
	defer span.End()

	start := time.Now()

	var event entity.VideoUploadedEvent
	if err := json.Unmarshal(rawMsg, &event); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrMalformedEvent, err)
	}
	if err := event.Validate(); err != nil {
		return err
	}

	span.SetAttributes(attribute.String("video.id", event.VideoID))

	if _, err := uc.Handle(ctx, event); err != nil {
		metrics.EventsProcessedTotal.WithLabelValues(stageAudioExtractor, "failed").Inc()
		return err
	}

	metrics.EventsProcessedTotal.WithLabelValues(stageAudioExtractor, "completed").Inc()
	metrics.StageDuration.WithLabelValues(stageAudioExtractor).Observe(time.Since(start).Seconds())
	return nil
}

// Handle runs the transform for one decoded event. Side effect order is
// fixed: fetch, extract, upload, publish. The outbound event always points
// at the stage-owned bucket, never at anything derived from the inbound
// reference.
func (uc *ExtractAudioUseCase) Handle(ctx context.Context, event entity.VideoUploadedEvent) (entity.AudioExtractedEvent, error) {
	log := uc.logger.With(zap.String("video_id", event.VideoID))

	video, err := uc.storage.Download(ctx, event.Bucket, event.Key)
	if err != nil {
		return entity.AudioExtractedEvent{}, fmt.Errorf("download video: %w", err)
	}
	if len(video) == 0 {
		return entity.AudioExtractedEvent{}, fmt.Errorf("%s/%s: %w", event.Bucket, event.Key, entity.ErrEmptyInput)
	}

	audio, err := uc.extractor.Extract(ctx, video)
	if err != nil {
		return entity.AudioExtractedEvent{}, fmt.Errorf("extract audio: %w", err)
	}

	key := fmt.Sprintf("audio/%s/audio.mp3", event.VideoID)
	if err := uc.storage.Upload(ctx, uc.audioBucket, key, audio, "audio/mpeg"); err != nil {
		return entity.AudioExtractedEvent{}, fmt.Errorf("upload audio: %w", err)
	}

	out := entity.AudioExtractedEvent{
		VideoID: event.VideoID,
		Bucket:  uc.audioBucket,
		Key:     key,
	}
	if err := uc.publisher.PublishAudioExtracted(ctx, out); err != nil {
		return entity.AudioExtractedEvent{}, fmt.Errorf("publish audio extracted: %w", err)
	}

	log.Info("audio extracted", zap.String("key", key), zap.Int("audio_bytes", len(audio)))
	return out, nil
}
