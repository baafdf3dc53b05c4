package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SheliVas/therapySessionAnalyzer/internal/domain/entity"
)

func uploadedEvent(videoID, bucket, key string) entity.VideoUploadedEvent {
	return entity.VideoUploadedEvent{
		VideoID:    videoID,
		Filename:   "session.mp4",
		Bucket:     bucket,
		Key:        key,
		UploadedAt: time.Now().UTC(),
	}
}

func TestExtractAudioWritesToStageOwnedLocation(t *testing.T) {
	storage := newFakeStorage()
	storage.put("some-other-bucket", "weird/source/key.mp4", []byte("video-bytes"))
	extractor := &fakeExtractor{audio: []byte("audio-bytes")}
	publisher := &fakeAudioExtractedPublisher{}

	uc := NewExtractAudioUseCase(storage, extractor, publisher, "therapy-audio", zap.NewNop())

	out, err := uc.Handle(context.Background(), uploadedEvent("v1", "some-other-bucket", "weird/source/key.mp4"))
	require.NoError(t, err)

	// The output address is stage-owned, never derived from the inbound
	// reference.
	assert.Equal(t, "therapy-audio", out.Bucket)
	assert.Equal(t, "audio/v1/audio.mp3", out.Key)
	assert.Equal(t, "v1", out.VideoID)
	assert.Equal(t, []byte("audio-bytes"), storage.objects["therapy-audio/audio/v1/audio.mp3"])

	require.Len(t, publisher.events, 1)
	assert.Equal(t, out, publisher.events[0])
}

func TestExtractAudioRejectsEmptyInput(t *testing.T) {
	storage := newFakeStorage()
	storage.put("therapy-videos", "videos/v1/session.mp4", []byte{})
	extractor := &fakeExtractor{audio: []byte("audio-bytes")}
	publisher := &fakeAudioExtractedPublisher{}

	uc := NewExtractAudioUseCase(storage, extractor, publisher, "therapy-audio", zap.NewNop())

	_, err := uc.Handle(context.Background(), uploadedEvent("v1", "therapy-videos", "videos/v1/session.mp4"))
	require.ErrorIs(t, err, entity.ErrEmptyInput)

	assert.Zero(t, extractor.calls, "backend must not run on empty input")
	assert.Empty(t, publisher.events, "nothing may be published")
	assert.NotContains(t, storage.objects, "therapy-audio/audio/v1/audio.mp3")
}

func TestExtractAudioBackendFailureProducesNoPublish(t *testing.T) {
	storage := newFakeStorage()
	storage.put("therapy-videos", "videos/v1/session.mp4", []byte("video-bytes"))
	extractor := &fakeExtractor{err: errors.New("ffmpeg exploded")}
	publisher := &fakeAudioExtractedPublisher{}

	uc := NewExtractAudioUseCase(storage, extractor, publisher, "therapy-audio", zap.NewNop())

	_, err := uc.Handle(context.Background(), uploadedEvent("v1", "therapy-videos", "videos/v1/session.mp4"))
	require.Error(t, err)
	assert.Empty(t, publisher.events)
}

func TestExtractAudioPublishFailurePropagates(t *testing.T) {
	storage := newFakeStorage()
	storage.put("therapy-videos", "videos/v1/session.mp4", []byte("video-bytes"))
	extractor := &fakeExtractor{audio: []byte("audio-bytes")}
	publisher := &fakeAudioExtractedPublisher{err: errors.New("broker down")}

	uc := NewExtractAudioUseCase(storage, extractor, publisher, "therapy-audio", zap.NewNop())

	_, err := uc.Handle(context.Background(), uploadedEvent("v1", "therapy-videos", "videos/v1/session.mp4"))
	require.Error(t, err)
}

func TestExtractAudioExecuteMalformedMessage(t *testing.T) {
	uc := NewExtractAudioUseCase(newFakeStorage(), &fakeExtractor{}, &fakeAudioExtractedPublisher{}, "therapy-audio", zap.NewNop())

	err := uc.Execute(context.Background(), []byte(`{invalid json`))
	require.ErrorIs(t, err, entity.ErrMalformedEvent)

	// Missing required fields is malformed too, even when the JSON parses.
	body, _ := json.Marshal(map[string]string{"video_id": "v1"})
	err = uc.Execute(context.Background(), body)
	require.ErrorIs(t, err, entity.ErrMalformedEvent)
}

func TestExtractAudioExecuteRoundTrip(t *testing.T) {
	storage := newFakeStorage()
	storage.put("therapy-videos", "videos/v1/session.mp4", []byte("video-bytes"))
	extractor := &fakeExtractor{audio: []byte("audio-bytes")}
	publisher := &fakeAudioExtractedPublisher{}

	uc := NewExtractAudioUseCase(storage, extractor, publisher, "therapy-audio", zap.NewNop())

	body, err := json.Marshal(uploadedEvent("v1", "therapy-videos", "videos/v1/session.mp4"))
	require.NoError(t, err)

	require.NoError(t, uc.Execute(context.Background(), body))
	require.Len(t, publisher.events, 1)
	assert.Equal(t, "v1", publisher.events[0].VideoID)
}
