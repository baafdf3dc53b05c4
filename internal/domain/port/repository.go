package port

import (
	"context"

	"github.com/SheliVas/therapySessionAnalyzer/internal/domain/entity"
)

// AnalysisRepository stores terminal analysis results, one document per
// video_id. SaveAnalysis is an idempotent upsert; last write wins.
type AnalysisRepository interface {
	SaveAnalysis(ctx context.Context, event entity.AnalysisCompletedEvent) error
	GetAnalysis(ctx context.Context, videoID string) (*entity.AnalysisCompletedEvent, error)
	ListAnalyses(ctx context.Context) ([]entity.AnalysisCompletedEvent, error)
}

// VideoRepository tracks per-video lifecycle state.
type VideoRepository interface {
	UpsertOnUpload(ctx context.Context, record *entity.VideoRecord) error
	MarkAnalyzed(ctx context.Context, videoID string, wordCount int) error
}
