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

// MusicGenerator produces a background-music loop for a text description.
// The media server that renders illustrations also renders audio loops, so
// this client shares its endpoint configuration.
type MusicGenerator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

type musicClient struct {
	cfg    config.ImageConfig
	http   *http.Client
	logger *zap.Logger
}

func NewMusicGenerator(cfg config.ImageConfig, logger *zap.Logger) MusicGenerator {
	return &musicClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		logger: logger,
	}
}

type musicAPIRequest struct {
	Prompt string `json:"prompt"`
}

func (c *musicClient) Generate(ctx context.Context, prompt string) ([]byte, error) {
	if c.cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: IMAGE_SERVER_BASE_URL is not set", models.ErrProvider)
	}

	body, err := json.Marshal(musicAPIRequest{Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal music request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimSuffix(c.cfg.BaseURL, "/")+"/music", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build music request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: music request failed: %v", models.ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: music server returned status %d: %s",
			models.ErrProvider, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read music response: %v", models.ErrProvider, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: music server returned empty audio", models.ErrProvider)
	}

	c.logger.Info("background music generated",
		zap.Int("audioBytes", len(audio)), zap.Duration("duration", time.Since(start)))
	return audio, nil
}
