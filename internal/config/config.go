package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all application configuration, loaded from the environment.
//
// Provider credentials are deliberately not env-required: an endpoint that
// depends on a missing key returns a descriptive 500 instead of preventing the
// whole process from starting.
type Config struct {
	AppEnv   string `env:"APP_ENV" env-default:"development"`
	Server   ServerConfig
	Logger   LoggerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	AI       AIConfig
	Image    ImageConfig
	TTS      TTSConfig
	Blob     BlobConfig
	Admin    AdminConfig
	CORS     CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port                int `env:"PORT" env-default:"8080"`
	ReadTimeoutSeconds  int `env:"SERVER_READ_TIMEOUT_SEC" env-default:"30"`
	WriteTimeoutSeconds int `env:"SERVER_WRITE_TIMEOUT_SEC" env-default:"300"`
	IdleTimeoutSeconds  int `env:"SERVER_IDLE_TIMEOUT_SEC" env-default:"120"`
}

// LoggerConfig holds zap logger settings.
type LoggerConfig struct {
	Level    string `env:"LOG_LEVEL" env-default:"info"`
	Encoding string `env:"LOG_ENCODING" env-default:"json"`
}

// DatabaseConfig holds Postgres settings.
type DatabaseConfig struct {
	URL                string `env:"DATABASE_URL" env-required:"true"`
	MaxConns           int    `env:"DB_MAX_CONNS" env-default:"10"`
	MaxConnIdleMinutes int    `env:"DB_MAX_CONN_IDLE_MIN" env-default:"5"`
}

// RedisConfig holds settings for the public-content cache. Empty Addr
// disables caching entirely.
type RedisConfig struct {
	Addr              string `env:"REDIS_ADDR" env-default:""`
	Password          string `env:"REDIS_PASSWORD" env-default:""`
	DB                int    `env:"REDIS_DB" env-default:"0"`
	ContentTTLSeconds int    `env:"CONTENT_CACHE_TTL_SEC" env-default:"300"`
}

// AIConfig holds settings for the text-generation client.
type AIConfig struct {
	ClientType     string `env:"AI_CLIENT_TYPE" env-default:"openai"` // openai | ollama
	APIKey         string `env:"LLM_API_KEY" env-default:""`
	BaseURL        string `env:"LLM_BASE_URL" env-default:"https://openrouter.ai/api/v1"`
	Model          string `env:"LLM_MODEL" env-default:"google/gemini-2.0-flash-001"`
	TimeoutSeconds int    `env:"LLM_TIMEOUT_SEC" env-default:"120"`
	MaxAttempts    int    `env:"LLM_MAX_ATTEMPTS" env-default:"3"`
}

// ImageConfig holds settings for the image-generation server.
type ImageConfig struct {
	BaseURL        string `env:"IMAGE_SERVER_BASE_URL" env-default:""`
	APIKey         string `env:"IMAGE_SERVER_API_KEY" env-default:""`
	TimeoutSeconds int    `env:"IMAGE_SERVER_TIMEOUT_SEC" env-default:"120"`
	StyleSuffix    string `env:"IMAGE_PROMPT_STYLE_SUFFIX" env-default:", warm storybook illustration for young children, soft rounded shapes, gentle saturated colors, clean outlines, no text"`
}

// TTSConfig holds settings for the speech-synthesis provider.
type TTSConfig struct {
	BaseURL        string `env:"TTS_BASE_URL" env-default:""`
	APIKey         string `env:"TTS_API_KEY" env-default:""`
	Voice          string `env:"TTS_VOICE" env-default:"storyteller-en-1"`
	TimeoutSeconds int    `env:"TTS_TIMEOUT_SEC" env-default:"60"`
}

// BlobConfig holds settings for the blob-storage gateway.
type BlobConfig struct {
	BaseURL        string `env:"BLOB_STORE_BASE_URL" env-default:""`
	PublicBaseURL  string `env:"BLOB_PUBLIC_BASE_URL" env-default:""`
	WriteToken     string `env:"BLOB_WRITE_TOKEN" env-default:""`
	TimeoutSeconds int    `env:"BLOB_TIMEOUT_SEC" env-default:"60"`
}

// AdminConfig holds admin authentication settings. Password may be either a
// bcrypt hash ($2a$...) or a plain shared secret.
type AdminConfig struct {
	Password string `env:"ADMIN_PASSWORD" env-default:""`
}

// CORSConfig holds CORS settings for the admin SPA.
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-default:"*" env-separator:","`
}

// Load reads configuration from the environment and an optional .env file.
func Load() (*Config, error) {
	// Missing .env is fine in production.
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return &cfg, nil
}
