package integration

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"
	tcmongodb "github.com/testcontainers/testcontainers-go/modules/mongodb"
	tcrabbitmq "github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/SheliVas/therapySessionAnalyzer/internal/domain/entity"
	"github.com/SheliVas/therapySessionAnalyzer/internal/infra/llm"
	miniostorage "github.com/SheliVas/therapySessionAnalyzer/internal/infra/minio"
	mongostore "github.com/SheliVas/therapySessionAnalyzer/internal/infra/mongo"
	"github.com/SheliVas/therapySessionAnalyzer/internal/infra/rabbitmq"
	"github.com/SheliVas/therapySessionAnalyzer/internal/usecase"
	"github.com/SheliVas/therapySessionAnalyzer/pkg/logger"
)

const (
	transcriptBucket = "therapy-transcripts"
	transcriptQueue  = "transcript.created"
	analysisQueue    = "analysis.completed"
)

type testEnv struct {
	rmqURL   string
	storage  *miniostorage.Storage
	mongoURI string
}

func startEnv(t *testing.T, ctx context.Context) *testEnv {
	t.Helper()

	rmqContainer, err := tcrabbitmq.Run(ctx, "rabbitmq:3.12-management-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { rmqContainer.Terminate(ctx) })

	rmqURL, err := rmqContainer.AmqpURL(ctx)
	require.NoError(t, err)

	minioContainer, err := tcminio.Run(ctx,
		"minio/minio:latest",
		tcminio.WithUsername("minioadmin"),
		tcminio.WithPassword("minioadmin"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { minioContainer.Terminate(ctx) })

	minioEndpoint, err := minioContainer.ConnectionString(ctx)
	require.NoError(t, err)

	mongoContainer, err := tcmongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() { mongoContainer.Terminate(ctx) })

	mongoURI, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:  minioEndpoint,
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		UseSSL:    false,
	})
	require.NoError(t, err)
	require.NoError(t, storage.EnsureBuckets(ctx, transcriptBucket))

	return &testEnv{rmqURL: rmqURL, storage: storage, mongoURI: mongoURI}
}

func TestAnalyzeTranscriptEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	env := startEnv(t, ctx)

	mongoClient, err := mongostore.Connect(ctx, env.mongoURI)
	require.NoError(t, err)
	defer mongoClient.Disconnect(ctx)

	log, _ := logger.New("debug")
	analysisRepo := mongostore.NewAnalysisRepository(mongoClient, "therapy_analysis")
	videoRepo := mongostore.NewVideoRepository(mongoClient, "therapy_analysis")
	backend := llm.NewBackend(nil, log)

	pub := rabbitmq.NewPublisher(env.rmqURL)
	analysisPub := rabbitmq.NewAnalysisCompletedPublisher(pub, analysisQueue)

	uc := usecase.NewAnalyzeUseCase(env.storage, backend, analysisRepo, videoRepo, analysisPub, log)

	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:              env.rmqURL,
		Queue:            transcriptQueue,
		ConnectAttempts:  5,
		ConnectBaseDelay: 100 * time.Millisecond,
		RetryBaseDelay:   100 * time.Millisecond,
		HandlerTimeout:   time.Minute,
		MalformedPolicy:  rabbitmq.MalformedReject,
	}, uc.Execute, nil, log)
	require.NoError(t, err)
	defer consumer.Close()

	consumerCtx, consumerCancel := context.WithCancel(ctx)
	defer consumerCancel()
	go func() {
		consumer.Start(consumerCtx)
	}()
	time.Sleep(500 * time.Millisecond)

	// Stage the transcript where the analyzer expects it.
	videoID := "video-e2e-1"
	key := "transcripts/" + videoID + "/transcript.txt"
	require.NoError(t, env.storage.Upload(ctx, transcriptBucket, key,
		[]byte("hello world hello"), "text/plain; charset=utf-8"))

	transcriptPub := rabbitmq.NewTranscriptCreatedPublisher(pub, transcriptQueue)
	require.NoError(t, transcriptPub.PublishTranscriptCreated(ctx, entity.TranscriptCreatedEvent{
		VideoID: videoID,
		Bucket:  transcriptBucket,
		Key:     key,
	}))

	completed := consumeOne(t, ctx, env.rmqURL, analysisQueue)
	assert.Equal(t, videoID, completed.VideoID)
	assert.Equal(t, 3, completed.WordCount)

	// Redelivery of the same event must not create a second document.
	require.NoError(t, env.storage.Upload(ctx, transcriptBucket, key,
		[]byte("one two three four"), "text/plain; charset=utf-8"))
	require.NoError(t, transcriptPub.PublishTranscriptCreated(ctx, entity.TranscriptCreatedEvent{
		VideoID: videoID,
		Bucket:  transcriptBucket,
		Key:     key,
	}))

	completed = consumeOne(t, ctx, env.rmqURL, analysisQueue)
	assert.Equal(t, videoID, completed.VideoID)
	assert.Equal(t, 4, completed.WordCount)

	coll := mongoClient.Database("therapy_analysis").Collection("analysis_results")
	count, err := coll.CountDocuments(ctx, bson.M{"video_id": videoID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "reprocessing must overwrite, not duplicate")

	var doc struct {
		WordCount int `bson:"word_count"`
	}
	require.NoError(t, coll.FindOne(ctx, bson.M{"video_id": videoID}).Decode(&doc))
	assert.Equal(t, 4, doc.WordCount)

	consumerCancel()
}

func TestMalformedMessageDroppedToDLQ(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	env := startEnv(t, ctx)

	mongoClient, err := mongostore.Connect(ctx, env.mongoURI)
	require.NoError(t, err)
	defer mongoClient.Disconnect(ctx)

	log, _ := logger.New("debug")
	analysisRepo := mongostore.NewAnalysisRepository(mongoClient, "therapy_analysis")
	videoRepo := mongostore.NewVideoRepository(mongoClient, "therapy_analysis")
	backend := llm.NewBackend(nil, log)

	pub := rabbitmq.NewPublisher(env.rmqURL)
	analysisPub := rabbitmq.NewAnalysisCompletedPublisher(pub, analysisQueue)
	uc := usecase.NewAnalyzeUseCase(env.storage, backend, analysisRepo, videoRepo, analysisPub, log)

	dlqName := transcriptQueue + ".dlq"
	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:              env.rmqURL,
		Queue:            transcriptQueue,
		DLQ:              dlqName,
		ConnectAttempts:  5,
		ConnectBaseDelay: 100 * time.Millisecond,
		RetryBaseDelay:   100 * time.Millisecond,
		HandlerTimeout:   time.Minute,
		MalformedPolicy:  rabbitmq.MalformedDrop,
	}, uc.Execute, nil, log)
	require.NoError(t, err)
	defer consumer.Close()

	consumerCtx, consumerCancel := context.WithCancel(ctx)
	defer consumerCancel()
	go func() {
		consumer.Start(consumerCtx)
	}()
	time.Sleep(500 * time.Millisecond)

	conn, err := amqp.Dial(env.rmqURL)
	require.NoError(t, err)
	defer conn.Close()

	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	err = ch.PublishWithContext(ctx, "", transcriptQueue, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        []byte(`{invalid json`),
	})
	require.NoError(t, err)

	var dlqMsg amqp.Delivery
	var found bool
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		dlqMsg, found, err = ch.Get(dlqName, true)
		require.NoError(t, err)
		if found {
			break
		}
		time.Sleep(200 * time.Millisecond)
	}
	require.True(t, found, "malformed message should land in the DLQ")
	assert.Equal(t, `{invalid json`, string(dlqMsg.Body))

	// The live queue must be empty: the bad message was acked after routing.
	_, stillQueued, err := ch.Get(transcriptQueue, false)
	require.NoError(t, err)
	assert.False(t, stillQueued, "malformed message must not stay on the work queue")

	consumerCancel()
}

func consumeOne(t *testing.T, ctx context.Context, url, queue string) entity.AnalysisCompletedEvent {
	t.Helper()

	conn, err := amqp.Dial(url)
	require.NoError(t, err)
	defer conn.Close()

	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	_, err = ch.QueueDeclare(queue, true, false, false, false, nil)
	require.NoError(t, err)

	deliveries, err := ch.Consume(queue, "", true, false, false, false, nil)
	require.NoError(t, err)

	var event entity.AnalysisCompletedEvent
	select {
	case d := <-deliveries:
		require.NoError(t, json.Unmarshal(d.Body, &event))
	case <-time.After(2 * time.Minute):
		t.Fatal("timeout waiting for analysis.completed message")
	case <-ctx.Done():
		t.Fatal("context cancelled waiting for analysis.completed message")
	}
	return event
}
