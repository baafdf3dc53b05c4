package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/SheliVas/therapySessionAnalyzer/internal/domain/entity"
)

// AnalysisRepository stores terminal analysis results in the
// "analysis_results" collection, one document per video_id.
type AnalysisRepository struct {
	coll *mongodrv.Collection
}

func NewAnalysisRepository(client *mongodrv.Client, dbName string) *AnalysisRepository {
	return &AnalysisRepository{coll: client.Database(dbName).Collection("analysis_results")}
}

type analysisDoc struct {
	VideoID   string         `bson:"video_id"`
	WordCount int            `bson:"word_count"`
	Extra     map[string]any `bson:"extra"`
}

// SaveAnalysis upserts keyed by video_id; saving twice for the same id
// leaves one document with the last payload's values.
func (r *AnalysisRepository) SaveAnalysis(ctx context.Context, event entity.AnalysisCompletedEvent) error {
	update := bson.M{"$set": bson.M{
		"video_id":   event.VideoID,
		"word_count": event.WordCount,
		"extra":      event.Extra,
	}}

	_, err := r.coll.UpdateOne(ctx,
		bson.M{"video_id": event.VideoID},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save analysis %s: %w", event.VideoID, err)
	}
	return nil
}

func (r *AnalysisRepository) GetAnalysis(ctx context.Context, videoID string) (*entity.AnalysisCompletedEvent, error) {
	var doc analysisDoc
	err := r.coll.FindOne(ctx, bson.M{"video_id": videoID}).Decode(&doc)
	if errors.Is(err, mongodrv.ErrNoDocuments) {
		return nil, fmt.Errorf("analysis %s: %w", videoID, entity.ErrVideoNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis %s: %w", videoID, err)
	}
	return docToEvent(doc), nil
}

func (r *AnalysisRepository) ListAnalyses(ctx context.Context) ([]entity.AnalysisCompletedEvent, error) {
	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []analysisDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode analyses: %w", err)
	}

	events := make([]entity.AnalysisCompletedEvent, 0, len(docs))
	for _, doc := range docs {
		events = append(events, *docToEvent(doc))
	}
	return events, nil
}

func docToEvent(doc analysisDoc) *entity.AnalysisCompletedEvent {
	return &entity.AnalysisCompletedEvent{
		VideoID:   doc.VideoID,
		WordCount: doc.WordCount,
		Extra:     doc.Extra,
	}
}
