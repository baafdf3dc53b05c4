package entity

import (
	"fmt"
	"time"
)

// VideoUploadedEvent is published by the upload service when a video lands
// in object storage. video_id is assigned exactly once here and carried
// unchanged through every downstream event.
type VideoUploadedEvent struct {
	VideoID    string    `json:"video_id"`
	Filename   string    `json:"filename"`
	Bucket     string    `json:"bucket"`
	Key        string    `json:"key"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func (e VideoUploadedEvent) Validate() error {
	if e.VideoID == "" {
		return fmt.Errorf("%w: missing video_id", ErrMalformedEvent)
	}
	if e.Bucket == "" || e.Key == "" {
		return fmt.Errorf("%w: missing bucket or key", ErrMalformedEvent)
	}
	return nil
}

// AudioExtractedEvent points at the audio artifact derived from a video.
type AudioExtractedEvent struct {
	VideoID string `json:"video_id"`
	Bucket  string `json:"bucket"`
	Key     string `json:"key"`
}

func (e AudioExtractedEvent) Validate() error {
	if e.VideoID == "" {
		return fmt.Errorf("%w: missing video_id", ErrMalformedEvent)
	}
	if e.Bucket == "" || e.Key == "" {
		return fmt.Errorf("%w: missing bucket or key", ErrMalformedEvent)
	}
	return nil
}

// TranscriptCreatedEvent points at the transcript text artifact.
type TranscriptCreatedEvent struct {
	VideoID string `json:"video_id"`
	Bucket  string `json:"bucket"`
	Key     string `json:"key"`
}

func (e TranscriptCreatedEvent) Validate() error {
	if e.VideoID == "" {
		return fmt.Errorf("%w: missing video_id", ErrMalformedEvent)
	}
	if e.Bucket == "" || e.Key == "" {
		return fmt.Errorf("%w: missing bucket or key", ErrMalformedEvent)
	}
	return nil
}

// AnalysisCompletedEvent is the terminal event of the pipeline. Extra is an
// open map reserved for backend-specific annotations.
type AnalysisCompletedEvent struct {
	VideoID   string         `json:"video_id"`
	WordCount int            `json:"word_count"`
	Extra     map[string]any `json:"extra"`
}

func (e AnalysisCompletedEvent) Validate() error {
	if e.VideoID == "" {
		return fmt.Errorf("%w: missing video_id", ErrMalformedEvent)
	}
	if e.WordCount < 0 {
		return fmt.Errorf("%w: negative word_count", ErrMalformedEvent)
	}
	return nil
}

// AnalysisResult is what an analysis backend computes from a transcript.
// Backends may not know the true video_id; the analyzer overrides it with
// the inbound event's id before building the completed event.
type AnalysisResult struct {
	VideoID   string
	WordCount int
	Extra     map[string]any
}
