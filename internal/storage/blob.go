package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"brushquest-server/internal/config"
	"brushquest-server/internal/models"
)

// BlobStore persists generated binary assets at publicly addressable URLs.
// Uploads are idempotent with respect to path: last write wins.
type BlobStore interface {
	Upload(ctx context.Context, path, contentType string, data []byte) (string, error)
}

type blobClient struct {
	cfg    config.BlobConfig
	http   *http.Client
	logger *zap.Logger
}

// NewBlobStore builds the HTTP client for the blob-storage gateway.
func NewBlobStore(cfg config.BlobConfig, logger *zap.Logger) BlobStore {
	return &blobClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		logger: logger,
	}
}

func (c *blobClient) Upload(ctx context.Context, path, contentType string, data []byte) (string, error) {
	if c.cfg.BaseURL == "" || c.cfg.WriteToken == "" {
		return "", fmt.Errorf("%w: blob store is not configured (BLOB_STORE_BASE_URL / BLOB_WRITE_TOKEN)", models.ErrProvider)
	}
	path = strings.TrimPrefix(path, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		strings.TrimSuffix(c.cfg.BaseURL, "/")+"/"+path, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.cfg.WriteToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: blob upload failed: %v", models.ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: blob store returned status %d: %s",
			models.ErrProvider, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	url := c.publicURL(path)
	c.logger.Debug("blob uploaded", zap.String("path", path), zap.Int("sizeBytes", len(data)))
	return url, nil
}

func (c *blobClient) publicURL(path string) string {
	base := c.cfg.PublicBaseURL
	if base == "" {
		base = c.cfg.BaseURL
	}
	return strings.TrimSuffix(base, "/") + "/" + path
}

// Purpose-scoped path helpers keep every asset type addressable by what it is
// rather than by a content hash.

func SegmentImagePath(storyID uuid.UUID, chapterNumber, position int) string {
	return fmt.Sprintf("stories/%s/chapters/%d/segment-%d.png", storyID, chapterNumber, position)
}

func StoryMusicPath(storyID uuid.UUID) string {
	return fmt.Sprintf("stories/%s/background-music.mp3", storyID)
}

func StoryCoverPath(storyID uuid.UUID) string {
	return fmt.Sprintf("stories/%s/cover.png", storyID)
}

func WorldImagePath(worldID uuid.UUID) string {
	return fmt.Sprintf("worlds/%s/background.png", worldID)
}

func SegmentAudioPath(segmentID uuid.UUID) string {
	return fmt.Sprintf("segments/%s/narration.mp3", segmentID)
}

func ChildNameAudioPath(childID uuid.UUID, possessive bool) string {
	if possessive {
		return fmt.Sprintf("children/%s/name-possessive.mp3", childID)
	}
	return fmt.Sprintf("children/%s/name.mp3", childID)
}

func SpriteImagePath(spriteID uuid.UUID) string {
	return fmt.Sprintf("sprites/%s.png", spriteID)
}

func CollectibleImagePath(collectibleID uuid.UUID) string {
	return fmt.Sprintf("collectibles/%s.png", collectibleID)
}

func AvatarImagePath(ownerID uuid.UUID) string {
	return fmt.Sprintf("avatars/%s.png", ownerID)
}
