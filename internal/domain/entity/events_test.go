package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoUploadedEventValidate(t *testing.T) {
	event := VideoUploadedEvent{VideoID: "v1", Filename: "a.mp4", Bucket: "b", Key: "k"}
	assert.NoError(t, event.Validate())

	assert.ErrorIs(t, VideoUploadedEvent{Bucket: "b", Key: "k"}.Validate(), ErrMalformedEvent)
	assert.ErrorIs(t, VideoUploadedEvent{VideoID: "v1", Key: "k"}.Validate(), ErrMalformedEvent)
	assert.ErrorIs(t, VideoUploadedEvent{VideoID: "v1", Bucket: "b"}.Validate(), ErrMalformedEvent)
}

func TestArtifactEventsValidate(t *testing.T) {
	assert.NoError(t, AudioExtractedEvent{VideoID: "v1", Bucket: "b", Key: "k"}.Validate())
	assert.ErrorIs(t, AudioExtractedEvent{VideoID: "v1"}.Validate(), ErrMalformedEvent)

	assert.NoError(t, TranscriptCreatedEvent{VideoID: "v1", Bucket: "b", Key: "k"}.Validate())
	assert.ErrorIs(t, TranscriptCreatedEvent{Bucket: "b", Key: "k"}.Validate(), ErrMalformedEvent)
}

func TestAnalysisCompletedEventValidate(t *testing.T) {
	assert.NoError(t, AnalysisCompletedEvent{VideoID: "v1", WordCount: 0}.Validate())
	assert.ErrorIs(t, AnalysisCompletedEvent{VideoID: "v1", WordCount: -1}.Validate(), ErrMalformedEvent)
	assert.ErrorIs(t, AnalysisCompletedEvent{WordCount: 3}.Validate(), ErrMalformedEvent)
}

func TestAnalysisCompletedEventWireFormat(t *testing.T) {
	event := AnalysisCompletedEvent{
		VideoID:   "v1",
		WordCount: 3,
		Extra:     map[string]any{"backend": "wordcount"},
	}

	body, err := json.Marshal(event)
	require.NoError(t, err)

	// Flat JSON object with snake_case fields, matching what downstream
	// consumers declare.
	var raw map[string]any
	require.NoError(t, json.Unmarshal(body, &raw))
	assert.Equal(t, "v1", raw["video_id"])
	assert.Equal(t, float64(3), raw["word_count"])
	assert.Equal(t, map[string]any{"backend": "wordcount"}, raw["extra"])
}
