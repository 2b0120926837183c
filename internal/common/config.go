package common

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration, loaded from environment
// variables (optionally seeded from a .env file).
type Config struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	// Database. When DB_URL is empty the service falls back to the in-memory
	// stores, which is only useful for local development and tests.
	DatabaseURL string `envconfig:"DB_URL"`

	// Blob storage for uploaded documents.
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"carelens-uploads"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY"`

	// Analysis engine.
	OpenAIAPIKey  string        `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string        `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	OpenAIModel   string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAITimeout time.Duration `envconfig:"OPENAI_TIMEOUT" default:"45s"`

	// OCR.
	TesseractBin string        `envconfig:"TESSERACT_BIN" default:"tesseract"`
	TessdataDir  string        `envconfig:"TESSDATA_PREFIX"`
	OCRTimeout   time.Duration `envconfig:"OCR_TIMEOUT" default:"30s"`

	// Pipeline workers.
	Workers        int           `envconfig:"PIPELINE_WORKERS" default:"4"`
	QueueSize      int           `envconfig:"PIPELINE_QUEUE_SIZE" default:"256"`
	ProcessTimeout time.Duration `envconfig:"PIPELINE_PROCESS_TIMEOUT" default:"3m"`

	// Sharing.
	ShareTTL           time.Duration `envconfig:"SHARE_TTL" default:"168h"`
	ShareSweepSchedule string        `envconfig:"SHARE_SWEEP_SCHEDULE" default:"@hourly"`

	MaxUploadBytes int64 `envconfig:"MAX_UPLOAD_BYTES" default:"20971520"`
}

// LoadConfig loads configuration from the environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}
