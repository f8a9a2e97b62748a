package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings for the tutoring server. Keys for
// optional collaborators (image synthesis, TTS, pronunciation scoring)
// may be empty; the owning service degrades instead of failing startup.
type Config struct {
	Port string

	AnthropicAPIKey string
	OpenAIAPIKey    string

	DatabaseURL string

	SpeechKey    string
	SpeechRegion string

	NewsFeedURL string
}

// Load reads configuration from the environment, honoring a local .env
// file when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("[INFO] No .env file found, using environment variables")
	}

	return &Config{
		Port:            getEnv("PORT", "8000"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		DatabaseURL:     os.Getenv("DB_URL"),
		SpeechKey:       os.Getenv("SPEECH_KEY"),
		SpeechRegion:    getEnv("SPEECH_REGION", "eastus"),
		NewsFeedURL:     getEnv("NEWS_FEED_URL", "https://feeds.bbci.co.uk/sport/rss.xml"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
