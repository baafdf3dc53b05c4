package usecase

import (
	"context"
	"fmt"

	"github.com/SheliVas/therapySessionAnalyzer/internal/domain/entity"
)

// journal records side effects in call order so tests can assert the
// persist-before-publish contract.
type journal struct {
	ops []string
}

func (j *journal) record(op string) {
	if j != nil {
		j.ops = append(j.ops, op)
	}
}

type fakeStorage struct {
	objects     map[string][]byte
	downloadErr error
	uploadErr   error
	journal     *journal
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func objKey(bucket, key string) string {
	return bucket + "/" + key
}

func (s *fakeStorage) put(bucket, key string, content []byte) {
	s.objects[objKey(bucket, key)] = content
}

func (s *fakeStorage) Download(_ context.Context, bucket, key string) ([]byte, error) {
	if s.downloadErr != nil {
		return nil, s.downloadErr
	}
	content, ok := s.objects[objKey(bucket, key)]
	if !ok {
		return nil, fmt.Errorf("object %s/%s not found", bucket, key)
	}
	return content, nil
}

func (s *fakeStorage) Upload(_ context.Context, bucket, key string, content []byte, _ string) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.objects[objKey(bucket, key)] = content
	s.journal.record("upload " + objKey(bucket, key))
	return nil
}

type fakeExtractor struct {
	audio []byte
	err   error
	calls int
}

func (e *fakeExtractor) Extract(_ context.Context, _ []byte) ([]byte, error) {
	e.calls++
	return e.audio, e.err
}

type fakeTranscriber struct {
	text string
	err  error
}

func (t *fakeTranscriber) Transcribe(_ context.Context, _ []byte) (string, error) {
	return t.text, t.err
}

type fakeAnalysisBackend struct {
	result entity.AnalysisResult
	err    error
}

func (b *fakeAnalysisBackend) Analyze(_ context.Context, _ string) (entity.AnalysisResult, error) {
	return b.result, b.err
}

type fakeVideoUploadedPublisher struct {
	events  []entity.VideoUploadedEvent
	err     error
	journal *journal
}

func (p *fakeVideoUploadedPublisher) PublishVideoUploaded(_ context.Context, event entity.VideoUploadedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	p.journal.record("publish video.uploaded")
	return nil
}

type fakeAudioExtractedPublisher struct {
	events  []entity.AudioExtractedEvent
	err     error
	journal *journal
}

func (p *fakeAudioExtractedPublisher) PublishAudioExtracted(_ context.Context, event entity.AudioExtractedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	p.journal.record("publish audio.extracted")
	return nil
}

type fakeTranscriptCreatedPublisher struct {
	events  []entity.TranscriptCreatedEvent
	err     error
	journal *journal
}

func (p *fakeTranscriptCreatedPublisher) PublishTranscriptCreated(_ context.Context, event entity.TranscriptCreatedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	p.journal.record("publish transcript.created")
	return nil
}

type fakeAnalysisCompletedPublisher struct {
	events  []entity.AnalysisCompletedEvent
	err     error
	journal *journal
}

func (p *fakeAnalysisCompletedPublisher) PublishAnalysisCompleted(_ context.Context, event entity.AnalysisCompletedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	p.journal.record("publish analysis.completed")
	return nil
}

type fakeAnalysisRepo struct {
	saved   map[string]entity.AnalysisCompletedEvent
	err     error
	journal *journal
}

func newFakeAnalysisRepo() *fakeAnalysisRepo {
	return &fakeAnalysisRepo{saved: map[string]entity.AnalysisCompletedEvent{}}
}

func (r *fakeAnalysisRepo) SaveAnalysis(_ context.Context, event entity.AnalysisCompletedEvent) error {
	if r.err != nil {
		return r.err
	}
	r.saved[event.VideoID] = event
	r.journal.record("save analysis")
	return nil
}

func (r *fakeAnalysisRepo) GetAnalysis(_ context.Context, videoID string) (*entity.AnalysisCompletedEvent, error) {
	event, ok := r.saved[videoID]
	if !ok {
		return nil, entity.ErrVideoNotFound
	}
	return &event, nil
}

func (r *fakeAnalysisRepo) ListAnalyses(_ context.Context) ([]entity.AnalysisCompletedEvent, error) {
	events := make([]entity.AnalysisCompletedEvent, 0, len(r.saved))
	for _, event := range r.saved {
		events = append(events, event)
	}
	return events, nil
}

type fakeVideoRepo struct {
	records  map[string]*entity.VideoRecord
	analyzed map[string]int
	err      error
	journal  *journal
}

func newFakeVideoRepo() *fakeVideoRepo {
	return &fakeVideoRepo{
		records:  map[string]*entity.VideoRecord{},
		analyzed: map[string]int{},
	}
}

func (r *fakeVideoRepo) UpsertOnUpload(_ context.Context, record *entity.VideoRecord) error {
	if r.err != nil {
		return r.err
	}
	r.records[record.VideoID] = record
	r.journal.record("upsert video record")
	return nil
}

func (r *fakeVideoRepo) MarkAnalyzed(_ context.Context, videoID string, wordCount int) error {
	if r.err != nil {
		return r.err
	}
	record, ok := r.records[videoID]
	if !ok {
		return fmt.Errorf("video %s: %w", videoID, entity.ErrVideoNotFound)
	}
	record.Status = entity.VideoStatusAnalyzed
	record.WordCount = &wordCount
	r.analyzed[videoID] = wordCount
	return nil
}
