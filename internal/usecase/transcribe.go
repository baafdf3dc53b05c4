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

const stageTranscriber = "transcriber"

// TranscribeUseCase handles audio.extracted events: fetch the audio, run
// the speech-to-text backend, store the transcript and publish
// transcript.created.
type TranscribeUseCase struct {
	storage          port.ObjectStorage
	transcriber      port.Transcriber
	publisher        port.TranscriptCreatedPublisher
	transcriptBucket string
	logger           *zap.Logger
}

func NewTranscribeUseCase(
	storage port.ObjectStorage,
	transcriber port.Transcriber,
	publisher port.TranscriptCreatedPublisher,
	transcriptBucket string,
	logger *zap.Logger,
) *TranscribeUseCase {
	return &TranscribeUseCase{
		storage:          storage,
		transcriber:      transcriber,
		publisher:        publisher,
		transcriptBucket: transcriptBucket,
		logger:           logger,
	}
}

func (uc *TranscribeUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "TranscribeUseCase.Execute")
	defer span.End()

	start := time.Now()

	var event entity.AudioExtractedEvent
	if err := json.Unmarshal(rawMsg, &event); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrMalformedEvent, err)
	}
	if err := event.Validate(); err != nil {
		return err
	}

	span.SetAttributes(attribute.String("video.id", event.VideoID))

	if _, err := uc.Handle(ctx, event); err != nil {
		metrics.EventsProcessedTotal.WithLabelValues(stageTranscriber, "failed").Inc()
		return err
	}

	metrics.EventsProcessedTotal.WithLabelValues(stageTranscriber, "completed").Inc()
	metrics.StageDuration.WithLabelValues(stageTranscriber).Observe(time.Since(start).Seconds())
	return nil
}

func (uc *TranscribeUseCase) Handle(ctx context.Context, event entity.AudioExtractedEvent) (entity.TranscriptCreatedEvent, error) {
	log := uc.logger.With(zap.String("video_id", event.VideoID))

	audio, err := uc.storage.Download(ctx, event.Bucket, event.Key)
	if err != nil {
		return entity.TranscriptCreatedEvent{}, fmt.Errorf("download audio: %w", err)
	}
	if len(audio) == 0 {
		return entity.TranscriptCreatedEvent{}, fmt.Errorf("%s/%s: %w", event.Bucket, event.Key, entity.ErrEmptyInput)
	}

	transcript, err := uc.transcriber.Transcribe(ctx, audio)
	if err != nil {
		return entity.TranscriptCreatedEvent{}, fmt.Errorf("transcribe: %w", err)
	}

	key := fmt.Sprintf("transcripts/%s/transcript.txt", event.VideoID)
	if err := uc.storage.Upload(ctx, uc.transcriptBucket, key, []byte(transcript), "text/plain; charset=utf-8"); err != nil {
		return entity.TranscriptCreatedEvent{}, fmt.Errorf("upload transcript: %w", err)
	}

	out := entity.TranscriptCreatedEvent{
		VideoID: event.VideoID,
		Bucket:  uc.transcriptBucket,
		Key:     key,
	}
	if err := uc.publisher.PublishTranscriptCreated(ctx, out); err != nil {
		return entity.TranscriptCreatedEvent{}, fmt.Errorf("publish transcript created: %w", err)
	}

	log.Info("transcript created", zap.String("key", key), zap.Int("chars", len(transcript)))
	return out, nil
}
