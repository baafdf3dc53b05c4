package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/SheliVas/therapySessionAnalyzer/internal/domain/entity"
)

// Publisher delivers one serialized event per call: dial, declare the queue
// durable, publish persistent to the default exchange with the queue name
// as routing key, close. Connection failures propagate to the caller so the
// triggering inbound message is never acked.
type Publisher struct {
	url string
}

func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

func (p *Publisher) publish(ctx context.Context, queue string, body []byte) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}

	err = ch.PublishWithContext(ctx,
		"",
		queue,
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
		},
	)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", queue, err)
	}
	return nil
}

type VideoUploadedPublisher struct {
	pub   *Publisher
	queue string
}

func NewVideoUploadedPublisher(pub *Publisher, queue string) *VideoUploadedPublisher {
	return &VideoUploadedPublisher{pub: pub, queue: queue}
}

func (p *VideoUploadedPublisher) PublishVideoUploaded(ctx context.Context, event entity.VideoUploadedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal video uploaded event: %w", err)
	}
	return p.pub.publish(ctx, p.queue, body)
}

type AudioExtractedPublisher struct {
	pub   *Publisher
	queue string
}

func NewAudioExtractedPublisher(pub *Publisher, queue string) *AudioExtractedPublisher {
	return &AudioExtractedPublisher{pub: pub, queue: queue}
}

func (p *AudioExtractedPublisher) PublishAudioExtracted(ctx context.Context, event entity.AudioExtractedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audio extracted event: %w", err)
	}
	return p.pub.publish(ctx, p.queue, body)
}

type TranscriptCreatedPublisher struct {
	pub   *Publisher
	queue string
}

func NewTranscriptCreatedPublisher(pub *Publisher, queue string) *TranscriptCreatedPublisher {
	return &TranscriptCreatedPublisher{pub: pub, queue: queue}
}

func (p *TranscriptCreatedPublisher) PublishTranscriptCreated(ctx context.Context, event entity.TranscriptCreatedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal transcript created event: %w", err)
	}
	return p.pub.publish(ctx, p.queue, body)
}

type AnalysisCompletedPublisher struct {
	pub   *Publisher
	queue string
}

func NewAnalysisCompletedPublisher(pub *Publisher, queue string) *AnalysisCompletedPublisher {
	return &AnalysisCompletedPublisher{pub: pub, queue: queue}
}

func (p *AnalysisCompletedPublisher) PublishAnalysisCompleted(ctx context.Context, event entity.AnalysisCompletedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal analysis completed event: %w", err)
	}
	return p.pub.publish(ctx, p.queue, body)
}
