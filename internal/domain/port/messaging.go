package port

import (
	"context"

	"github.com/SheliVas/therapySessionAnalyzer/internal/domain/entity"
)

type VideoUploadedPublisher interface {
	PublishVideoUploaded(ctx context.Context, event entity.VideoUploadedEvent) error
}

type AudioExtractedPublisher interface {
	PublishAudioExtracted(ctx context.Context, event entity.AudioExtractedEvent) error
}

type TranscriptCreatedPublisher interface {
	PublishTranscriptCreated(ctx context.Context, event entity.TranscriptCreatedEvent) error
}

type AnalysisCompletedPublisher interface {
	PublishAnalysisCompleted(ctx context.Context, event entity.AnalysisCompletedEvent) error
}
