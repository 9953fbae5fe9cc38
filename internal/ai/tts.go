package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"brushquest-server/internal/config"
	"brushquest-server/internal/models"
)

// Name placeholders in narration text. They are never synthesized inline:
// a 300ms pause is rendered instead, and the child's or pet's recorded name
// audio is spliced into the silence on the client.
const (
	PlaceholderChild = "[CHILD]"
	PlaceholderPet   = "[PET]"

	namePauseMarkup = `<break time="300ms"/>`
)

// SpeechSynthesizer turns a line of narration into an MP3 byte stream.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type ttsClient struct {
	cfg    config.TTSConfig
	http   *http.Client
	logger *zap.Logger
}

// NewSpeechSynthesizer builds the HTTP client for the TTS provider.
func NewSpeechSynthesizer(cfg config.TTSConfig, logger *zap.Logger) SpeechSynthesizer {
	return &ttsClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		logger: logger,
	}
}

// PreparePauses replaces name placeholders with a fixed-duration SSML break.
func PreparePauses(text string) string {
	text = strings.ReplaceAll(text, PlaceholderChild, namePauseMarkup)
	text = strings.ReplaceAll(text, PlaceholderPet, namePauseMarkup)
	return text
}

type ttsAPIRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

func (c *ttsClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if c.cfg.BaseURL == "" || c.cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: TTS provider is not configured (TTS_BASE_URL / TTS_API_KEY)", models.ErrProvider)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text", models.ErrValidation)
	}

	body, err := json.Marshal(ttsAPIRequest{Text: PreparePauses(text), Voice: c.cfg.Voice})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tts request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimSuffix(c.cfg.BaseURL, "/")+"/synthesize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build tts request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "audio/mpeg")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: tts request failed: %v", models.ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: tts provider returned status %d: %s",
			models.ErrProvider, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read tts response: %v", models.ErrProvider, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: tts provider returned empty audio", models.ErrProvider)
	}

	c.logger.Debug("speech synthesized",
		zap.Int("textChars", len(text)),
		zap.Int("audioBytes", len(audio)),
		zap.Duration("duration", time.Since(start)))
	return audio, nil
}
