package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	RabbitMQHost string `env:"RABBITMQ_HOST" envDefault:"rabbitmq"`
	RabbitMQPort int    `env:"RABBITMQ_PORT" envDefault:"5672"`
	RabbitMQUser string `env:"RABBITMQ_USER" envDefault:"guest"`
	RabbitMQPass string `env:"RABBITMQ_PASS" envDefault:"guest"`

	VideoUploadedQueue     string `env:"VIDEO_UPLOADED_QUEUE"     envDefault:"video.uploaded"`
	AudioExtractedQueue    string `env:"AUDIO_EXTRACTED_QUEUE"    envDefault:"audio.extracted"`
	TranscriptCreatedQueue string `env:"TRANSCRIPT_CREATED_QUEUE" envDefault:"transcript.created"`
	AnalysisCompletedQueue string `env:"ANALYSIS_COMPLETED_QUEUE" envDefault:"analysis.completed"`

	MinIOEndpoint  string `env:"MINIO_ENDPOINT"   envDefault:"minio:9000"`
	MinIOAccessKey string `env:"MINIO_ACCESS_KEY" envDefault:"minioadmin"`
	MinIOSecretKey string `env:"MINIO_SECRET_KEY" envDefault:"minioadmin"`
	MinIOUseSSL    bool   `env:"MINIO_USE_SSL"    envDefault:"false"`

	VideoBucket      string `env:"VIDEO_BUCKET"      envDefault:"therapy-videos"`
	AudioBucket      string `env:"AUDIO_BUCKET"      envDefault:"therapy-audio"`
	TranscriptBucket string `env:"TRANSCRIPT_BUCKET" envDefault:"therapy-transcripts"`

	MongoURI    string `env:"MONGO_URI"     envDefault:"mongodb://mongo:27017"`
	MongoDBName string `env:"MONGO_DB_NAME" envDefault:"therapy_analysis"`

	ConnectAttempts  int           `env:"BROKER_CONNECT_ATTEMPTS"   envDefault:"10"`
	ConnectBaseDelay time.Duration `env:"BROKER_CONNECT_BASE_DELAY" envDefault:"1s"`
	RetryBaseDelay   time.Duration `env:"CONSUMER_RETRY_BASE_DELAY" envDefault:"1s"`
	HandlerTimeout   time.Duration `env:"CONSUMER_HANDLER_TIMEOUT"  envDefault:"5m"`
	MalformedPolicy  string        `env:"CONSUMER_MALFORMED_POLICY" envDefault:"reject"`

	STTEndpoint string `env:"STT_ENDPOINT" envDefault:"http://stt:9000/transcribe"`
	LLMEndpoint string `env:"LLM_ENDPOINT"` // empty disables LLM annotations

	UploadHTTPPort int `env:"UPLOAD_HTTP_PORT" envDefault:"8080"`
	ReportHTTPPort int `env:"REPORT_HTTP_PORT" envDefault:"8081"`
	MetricsPort    int `env:"METRICS_PORT"     envDefault:"8083"`

	SMTPHost       string `env:"SMTP_HOST" envDefault:"mailhog"`
	SMTPPort       int    `env:"SMTP_PORT" envDefault:"1025"`
	SMTPFrom       string `env:"SMTP_FROM" envDefault:"noreply@therapylens.local"`
	DLQNotifyEmail string `env:"DLQ_NOTIFY_EMAIL"` // empty disables notifications

	JaegerEndpoint string `env:"JAEGER_ENDPOINT" envDefault:"http://jaeger:4318/v1/traces"`
	LogLevel       string `env:"LOG_LEVEL"       envDefault:"info"`
	TempDir        string `env:"TEMP_DIR"        envDefault:"/tmp/therapy-pipeline"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AMQPURL assembles the broker URL from its parts.
func (c *Config) AMQPURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", c.RabbitMQUser, c.RabbitMQPass, c.RabbitMQHost, c.RabbitMQPort)
}
