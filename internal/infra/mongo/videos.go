package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/SheliVas/therapySessionAnalyzer/internal/domain/entity"
)

// VideoRepository stores per-video lifecycle documents in the "videos"
// collection, keyed by video_id.
type VideoRepository struct {
	coll *mongodrv.Collection
}

func NewVideoRepository(client *mongodrv.Client, dbName string) *VideoRepository {
	return &VideoRepository{coll: client.Database(dbName).Collection("videos")}
}

func (r *VideoRepository) UpsertOnUpload(ctx context.Context, record *entity.VideoRecord) error {
	update := bson.M{"$set": bson.M{
		"video_id":    record.VideoID,
		"filename":    record.Filename,
		"bucket":      record.Bucket,
		"key":         record.Key,
		"status":      string(entity.VideoStatusUploaded),
		"uploaded_at": record.UploadedAt,
	}}

	_, err := r.coll.UpdateOne(ctx,
		bson.M{"video_id": record.VideoID},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert video %s: %w", record.VideoID, err)
	}
	return nil
}

// MarkAnalyzed flips the record's status and stores the word count. Never
// an upsert: marking a video that was never uploaded is an error.
func (r *VideoRepository) MarkAnalyzed(ctx context.Context, videoID string, wordCount int) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"video_id": videoID},
		bson.M{"$set": bson.M{
			"status":     string(entity.VideoStatusAnalyzed),
			"word_count": wordCount,
		}},
	)
	if err != nil {
		return fmt.Errorf("mark video %s analyzed: %w", videoID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("video %s: %w", videoID, entity.ErrVideoNotFound)
	}
	return nil
}
