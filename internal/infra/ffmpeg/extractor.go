package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Extractor strips the audio track from a video by shelling out to ffmpeg.
// The exec boundary works on files, so input bytes are staged in a scratch
// directory that is removed when the call returns.
type Extractor struct {
	tempDir string
	logger  *zap.Logger
}

func NewExtractor(tempDir string, logger *zap.Logger) *Extractor {
	return &Extractor{tempDir: tempDir, logger: logger}
}

func (e *Extractor) Extract(ctx context.Context, video []byte) ([]byte, error) {
	if err := os.MkdirAll(e.tempDir, 0755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	workDir, err := os.MkdirTemp(e.tempDir, "extract-*")
	if err != nil {
		return nil, fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	inputPath := filepath.Join(workDir, "input.mp4")
	if err := os.WriteFile(inputPath, video, 0644); err != nil {
		return nil, fmt.Errorf("write input video: %w", err)
	}

	outputPath := filepath.Join(workDir, "audio.mp3")
	output, err := runFFmpeg(ctx,
		"-i", inputPath,
		"-vn",
		"-acodec", "libmp3lame",
		"-q:a", "2",
		"-y",
		outputPath,
	)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg error: %w, output: %s", err, output)
	}

	audio, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("read extracted audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("ffmpeg produced no audio")
	}

	e.logger.Info("audio extracted",
		zap.Int("video_bytes", len(video)),
		zap.Int("audio_bytes", len(audio)),
	)
	return audio, nil
}
