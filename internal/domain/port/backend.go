package port

import (
	"context"

	"github.com/SheliVas/therapySessionAnalyzer/internal/domain/entity"
)

// AudioExtractor derives an audio track from raw video bytes.
type AudioExtractor interface {
	Extract(ctx context.Context, video []byte) ([]byte, error)
}

// Transcriber turns audio bytes into transcript text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// AnalysisBackend computes an AnalysisResult from transcript text. The
// VideoID it reports is advisory only; callers own the authoritative id.
type AnalysisBackend interface {
	Analyze(ctx context.Context, transcript string) (entity.AnalysisResult, error)
}
