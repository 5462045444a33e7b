package config

import (
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds the full application configuration.
type Config struct {
	AppEnv      string `env:"APP_ENV" env-default:"development"`
	Port        string `env:"PORT" env-default:"8080"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`
	LogEncoding string `env:"LOG_ENCODING" env-default:"console"`
	AI          AIConfig
	Export      ExportConfig
}

// AIConfig configures the text and image generation backends.
type AIConfig struct {
	// ClientType selects the chat backend: "openai" or "ollama".
	ClientType    string `env:"AI_CLIENT_TYPE" env-default:"openai"`
	APIKey        string `env:"OPENAI_API_KEY" env-default:""`
	BaseURL       string `env:"AI_BASE_URL" env-default:""`
	TextModel     string `env:"AI_TEXT_MODEL" env-default:"gpt-4o-mini"`
	ImageModel    string `env:"AI_IMAGE_MODEL" env-default:"dall-e-3"`
	TimeoutSec    int    `env:"AI_TIMEOUT_SEC" env-default:"60"`
	MaxIdeaTokens int    `env:"MAX_IDEA_TOKENS" env-default:"500"`
}

// Timeout returns the per-request deadline for AI calls.
func (c AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// ExportConfig configures the video export pipeline.
type ExportConfig struct {
	FFmpegPath string `env:"FFMPEG_PATH" env-default:"ffmpeg"`
}

// Load reads configuration from environment variables and an optional .env file.
func Load() *Config {
	// .env is optional, ignore a missing file
	_ = godotenv.Load()

	var cfg Config

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	return &cfg
}
