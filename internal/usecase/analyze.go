package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/SheliVas/therapySessionAnalyzer/internal/domain/entity"
	"github.com/SheliVas/therapySessionAnalyzer/internal/domain/port"
	"github.com/SheliVas/therapySessionAnalyzer/internal/infra/metrics"
)

const stageAnalyzer = "analyzer"

// AnalyzeUseCase handles transcript.created events, the terminal stage:
// fetch the transcript, run the analysis backend, upsert the result and
// publish analysis.completed. The result is persisted before the event is
// published so downstream readers never race ahead of durable state.
type AnalyzeUseCase struct {
	storage   port.ObjectStorage
	backend   port.AnalysisBackend
	repo      port.AnalysisRepository
	videos    port.VideoRepository
	publisher port.AnalysisCompletedPublisher
	logger    *zap.Logger
}

func NewAnalyzeUseCase(
	storage port.ObjectStorage,
	backend port.AnalysisBackend,
	repo port.AnalysisRepository,
	videos port.VideoRepository,
	publisher port.AnalysisCompletedPublisher,
	logger *zap.Logger,
) *AnalyzeUseCase {
	return &AnalyzeUseCase{
		storage:   storage,
		backend:   backend,
		repo:      repo,
		videos:    videos,
		publisher: publisher,
		logger:    logger,
	}
}

func (uc *AnalyzeUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "AnalyzeUseCase.Execute")
	defer span.End()

	start := time.Now()

	var event entity.TranscriptCreatedEvent
	if err := json.Unmarshal(rawMsg, &event); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrMalformedEvent, err)
	}
	if err := event.Validate(); err != nil {
		return err
	}

	span.SetAttributes(attribute.String("video.id", event.VideoID))

	if _, err := uc.Handle(ctx, event); err != nil {
		metrics.EventsProcessedTotal.WithLabelValues(stageAnalyzer, "failed").Inc()
		return err
	}

	metrics.EventsProcessedTotal.WithLabelValues(stageAnalyzer, "completed").Inc()
	metrics.StageDuration.WithLabelValues(stageAnalyzer).Observe(time.Since(start).Seconds())
	return nil
}

func (uc *AnalyzeUseCase) Handle(ctx context.Context, event entity.TranscriptCreatedEvent) (entity.AnalysisCompletedEvent, error) {
	log := uc.logger.With(zap.String("video_id", event.VideoID))

	transcript, err := uc.storage.Download(ctx, event.Bucket, event.Key)
	if err != nil {
		return entity.AnalysisCompletedEvent{}, fmt.Errorf("download transcript: %w", err)
	}
	if len(transcript) == 0 {
		return entity.AnalysisCompletedEvent{}, fmt.Errorf("%s/%s: %w", event.Bucket, event.Key, entity.ErrEmptyInput)
	}

	result, err := uc.backend.Analyze(ctx, string(transcript))
	if err != nil {
		return entity.AnalysisCompletedEvent{}, fmt.Errorf("analyze transcript: %w", err)
	}
	if result.WordCount < 0 {
		return entity.AnalysisCompletedEvent{}, fmt.Errorf("backend returned negative word count %d", result.WordCount)
	}

	// The inbound event's video_id is authoritative; backends may report an
	// empty or different id.
	completed := entity.AnalysisCompletedEvent{
		VideoID:   event.VideoID,
		WordCount: result.WordCount,
		Extra:     result.Extra,
	}

	if err := uc.repo.SaveAnalysis(ctx, completed); err != nil {
		return entity.AnalysisCompletedEvent{}, fmt.Errorf("save analysis: %w", err)
	}

	if err := uc.videos.MarkAnalyzed(ctx, event.VideoID, completed.WordCount); err != nil {
		if !errors.Is(err, entity.ErrVideoNotFound) {
			return entity.AnalysisCompletedEvent{}, fmt.Errorf("mark video analyzed: %w", err)
		}
		// The analysis result itself is already durable; a missing upload
		// record only loses the status transition.
		log.Warn("no video record to mark analyzed", zap.Error(err))
	}

	if err := uc.publisher.PublishAnalysisCompleted(ctx, completed); err != nil {
		return entity.AnalysisCompletedEvent{}, fmt.Errorf("publish analysis completed: %w", err)
	}

	log.Info("analysis completed", zap.Int("word_count", completed.WordCount))
	return completed, nil
}
