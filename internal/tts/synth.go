package tts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vytor/speakflash/internal/logger"
)

const synthRequestTimeout = 10 * time.Second

// Synthesizer renders text to MP3 through the Google Translate TTS endpoint
// and caches the result on disk, one file per (language, text).
type Synthesizer struct {
	audioDir string
	baseURL  string
	language string
	client   *http.Client
	log      *logger.Logger
}

func NewSynthesizer(audioDir, baseURL, language string) *Synthesizer {
	if language == "" {
		language = "en"
	}
	return &Synthesizer{
		audioDir: audioDir,
		baseURL:  baseURL,
		language: language,
		client:   &http.Client{Timeout: synthRequestTimeout},
		log:      logger.Default().WithPrefix("tts-synth"),
	}
}

func (s *Synthesizer) cachePath(text string) string {
	sum := sha256.Sum256([]byte(s.language + "\x00" + text))
	return filepath.Join(s.audioDir, "utt_"+hex.EncodeToString(sum[:12])+".mp3")
}

// AudioFile returns the path of an MP3 rendering of text, fetching it on a cache miss.
func (s *Synthesizer) AudioFile(ctx context.Context, text string) (string, error) {
	path := s.cachePath(text)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.MkdirAll(s.audioDir, 0o755); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}
	s.log.Debug("cache miss, synthesizing %d chars", len(text))
	if err := s.fetch(ctx, text, path); err != nil {
		return "", fmt.Errorf("failed to generate audio: %w", err)
	}
	return path, nil
}

func (s *Synthesizer) fetch(ctx context.Context, text, outputPath string) error {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("q", text)
	params.Set("tl", s.language)
	params.Set("client", "tw-ob")
	params.Set("textlen", strconv.Itoa(len(text)))

	ctx, cancel := context.WithTimeout(ctx, synthRequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	// the endpoint rejects requests without a browser user agent
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(s.audioDir, "utt_*.part")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	return os.Rename(tmp.Name(), outputPath)
}
