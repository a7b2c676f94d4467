package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration parameters taken from environment variables.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"4242"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// Directory scanned for university spreadsheet exports.
	ImportDir string `envconfig:"IMPORT_DIR" default:"./imports"`

	CronSchedule string `envconfig:"CRON_SCHEDULE" default:"0 2 * * *"`

	// Optional LLM formatting for the chat assistant. When the endpoint is
	// empty the assistant always answers with the local templated reports.
	LLMEndpoint   string        `envconfig:"LLM_ENDPOINT"`
	LLMModel      string        `envconfig:"LLM_MODEL" default:"gpt-4o-mini"`
	LLMAPIKey     string        `envconfig:"LLM_API_KEY"`
	LLMTimeout    time.Duration `envconfig:"LLM_TIMEOUT" default:"30s"`
	LLMMaxRetries int           `envconfig:"LLM_MAX_RETRIES" default:"2"`

	// Optional S3 archive for processed spreadsheet files.
	ArchiveS3Key    string `envconfig:"ARCHIVE_S3_KEY"`
	ArchiveS3Secret string `envconfig:"ARCHIVE_S3_SECRET"`
	ArchiveS3URL    string `envconfig:"ARCHIVE_S3_URL"`
	ArchiveS3Region string `envconfig:"ARCHIVE_S3_REGION"`
	ArchiveS3Bucket string `envconfig:"ARCHIVE_S3_BUCKET"`
}

// DSN returns the Data Source Name for the PostgreSQL connection.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// ArchiveEnabled reports whether the S3 spreadsheet archive is fully configured.
func (c *Config) ArchiveEnabled() bool {
	return c.ArchiveS3URL != "" && c.ArchiveS3Bucket != "" && c.ArchiveS3Key != "" && c.ArchiveS3Secret != ""
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
