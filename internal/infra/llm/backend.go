package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/SheliVas/therapySessionAnalyzer/internal/domain/entity"
)

// Backend is the analysis backend: it always computes the word count itself
// and, when an annotator is configured, attaches its output under extra.
// It does not know the real video_id; the returned result carries an empty
// one and the caller fills it in.
type Backend struct {
	annotator Annotator
	logger    *zap.Logger
}

// NewBackend builds a Backend. annotator may be nil, in which case only the
// word count is produced.
func NewBackend(annotator Annotator, logger *zap.Logger) *Backend {
	return &Backend{annotator: annotator, logger: logger}
}

func (b *Backend) Analyze(ctx context.Context, transcript string) (entity.AnalysisResult, error) {
	wordCount := len(strings.Fields(transcript))

	extra := map[string]any{"backend": "wordcount"}
	if b.annotator != nil {
		annotations, err := b.annotator.AnalyzeTranscript(ctx, transcript)
		if err != nil {
			return entity.AnalysisResult{}, fmt.Errorf("llm annotate: %w", err)
		}
		extra = map[string]any{
			"backend":    "llm",
			"llm_result": annotations,
		}
	}

	return entity.AnalysisResult{
		VideoID:   "",
		WordCount: wordCount,
		Extra:     extra,
	}, nil
}
