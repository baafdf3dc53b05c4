package entity

import "time"

type VideoStatus string

const (
	VideoStatusUploaded VideoStatus = "uploaded"
	VideoStatusAnalyzed VideoStatus = "analyzed"
)

// VideoRecord is the durable per-video document, keyed by VideoID. It is
// upserted on upload and transitions uploaded -> analyzed; nothing deletes
// it.
type VideoRecord struct {
	VideoID    string      `bson:"video_id"`
	Filename   string      `bson:"filename"`
	Bucket     string      `bson:"bucket"`
	Key        string      `bson:"key"`
	Status     VideoStatus `bson:"status"`
	WordCount  *int        `bson:"word_count,omitempty"`
	UploadedAt time.Time   `bson:"uploaded_at"`
}

func NewVideoRecord(videoID, filename, bucket, key string, uploadedAt time.Time) *VideoRecord {
	return &VideoRecord{
		VideoID:    videoID,
		Filename:   filename,
		Bucket:     bucket,
		Key:        key,
		Status:     VideoStatusUploaded,
		UploadedAt: uploadedAt,
	}
}
