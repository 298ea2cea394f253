package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/vytor/speakflash/internal/deck"
)

type Config struct {
	Addr              string
	DBPath            string
	LogLevel          string
	OrderPolicy       string
	TTSRate           float64
	TTSPitch          float64
	TTSAudioDir       string
	TTSLanguage       string
	TTSBaseURL        string
	ReviewWorkerCount int
	ReviewQueueSize   int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:              envOr("ADDR", ":8080"),
		DBPath:            envOr("DB_PATH", "file:speakflash.db"),
		LogLevel:          envOr("LOG_LEVEL", "INFO"),
		OrderPolicy:       envOr("ORDER_POLICY", "oldest"),
		TTSRate:           envFloatOr("TTS_RATE", 1),
		TTSPitch:          envFloatOr("TTS_PITCH", 1),
		TTSAudioDir:       envOr("TTS_AUDIO_DIR", ""),
		TTSLanguage:       envOr("TTS_LANGUAGE", "en"),
		TTSBaseURL:        envOr("TTS_BASE_URL", "https://translate.google.com/translate_tts"),
		ReviewWorkerCount: envIntOr("REVIEW_WORKER_COUNT", 1),
		ReviewQueueSize:   envIntOr("REVIEW_QUEUE_SIZE", 64),
	}
}

// Validate reports the first configuration value that cannot be used.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("ADDR cannot be empty")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if _, err := deck.ParsePolicy(c.OrderPolicy); err != nil {
		return fmt.Errorf("ORDER_POLICY must be oldest, newest or random, got %q", c.OrderPolicy)
	}
	if c.TTSRate < 0.1 || c.TTSRate > 10 {
		return fmt.Errorf("TTS_RATE must be between 0.1 and 10, got %v", c.TTSRate)
	}
	if c.TTSPitch < 0 || c.TTSPitch > 2 {
		return fmt.Errorf("TTS_PITCH must be between 0 and 2, got %v", c.TTSPitch)
	}
	if c.TTSAudioDir != "" && strings.TrimSpace(c.TTSBaseURL) == "" {
		return fmt.Errorf("TTS_BASE_URL cannot be empty when TTS_AUDIO_DIR is set")
	}
	if c.ReviewWorkerCount < 1 {
		return fmt.Errorf("REVIEW_WORKER_COUNT must be at least 1, got %d", c.ReviewWorkerCount)
	}
	if c.ReviewQueueSize < 1 {
		return fmt.Errorf("REVIEW_QUEUE_SIZE must be at least 1, got %d", c.ReviewQueueSize)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("invalid value for %s=%q, using default %v", key, v, def)
	}
	return def
}
