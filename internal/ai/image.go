package ai

import (
	"bytes"
	"context"
	"encoding/base64"
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

// ReferenceImage is a previously generated asset passed back to the image
// model so a new illustration stays visually consistent with it.
type ReferenceImage struct {
	URL     string // fetched and base64-encoded before the call
	Purpose string // e.g. "previous scene style", "exact appearance of Luna the cat"
}

// Image is a generated image payload.
type Image struct {
	Data     []byte
	MIMEType string
}

// ImageGenerator produces a single illustration for a prompt, optionally
// conditioned on reference images.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string, refs []ReferenceImage) (*Image, error)
}

type imageClient struct {
	cfg    config.ImageConfig
	http   *http.Client
	logger *zap.Logger
}

// NewImageGenerator builds the HTTP client for the image-generation server.
func NewImageGenerator(cfg config.ImageConfig, logger *zap.Logger) ImageGenerator {
	return &imageClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		logger: logger,
	}
}

type imageAPIRequest struct {
	Prompt string          `json:"prompt"`
	Images []imageAPIImage `json:"images,omitempty"`
}

type imageAPIImage struct {
	Data     string `json:"data"` // base64
	MIMEType string `json:"mimeType"`
}

type imageAPIResponse struct {
	Image    string `json:"image"` // base64
	MIMEType string `json:"mimeType"`
	Error    string `json:"error,omitempty"`
}

func (c *imageClient) Generate(ctx context.Context, prompt string, refs []ReferenceImage) (*Image, error) {
	if c.cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: IMAGE_SERVER_BASE_URL is not set", models.ErrProvider)
	}

	fullPrompt := c.compositePrompt(prompt, refs)

	req := imageAPIRequest{Prompt: fullPrompt}
	for _, ref := range refs {
		img, err := c.fetchReference(ctx, ref.URL)
		if err != nil {
			// A dead reference URL degrades consistency but should not kill
			// the illustration.
			c.logger.Warn("failed to fetch reference image", zap.String("url", ref.URL), zap.Error(err))
			continue
		}
		req.Images = append(req.Images, *img)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal image request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimSuffix(c.cfg.BaseURL, "/")+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: image server request failed: %v", models.ErrProvider, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read image response: %v", models.ErrProvider, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: image server returned status %d: %s",
			models.ErrProvider, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var apiResp imageAPIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("%w: invalid image server response: %v", models.ErrProvider, err)
	}
	if apiResp.Image == "" {
		return nil, fmt.Errorf("%w: response contains no image part", models.ErrProvider)
	}

	data, err := base64.StdEncoding.DecodeString(apiResp.Image)
	if err != nil {
		return nil, fmt.Errorf("%w: image payload is not valid base64: %v", models.ErrProvider, err)
	}
	mimeType := apiResp.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}

	c.logger.Info("image generated",
		zap.Int("sizeBytes", len(data)),
		zap.Int("references", len(req.Images)),
		zap.Duration("duration", time.Since(start)))
	return &Image{Data: data, MIMEType: mimeType}, nil
}

// compositePrompt lists which attached reference corresponds to which
// consistency requirement, then appends the global style suffix.
func (c *imageClient) compositePrompt(prompt string, refs []ReferenceImage) string {
	var b strings.Builder
	b.WriteString(prompt)
	for i, ref := range refs {
		fmt.Fprintf(&b, "\nReference image %d shows %s. Match it exactly.", i+1, ref.Purpose)
	}
	b.WriteString(c.cfg.StyleSuffix)
	return b.String()
}

func (c *imageClient) fetchReference(ctx context.Context, rawURL string) (*imageAPIImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reference fetch returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/png"
	}
	return &imageAPIImage{Data: base64.StdEncoding.EncodeToString(data), MIMEType: mimeType}, nil
}
