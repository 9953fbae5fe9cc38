package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"brushquest-server/internal/models"
	"brushquest-server/internal/repository"
)

const contentCacheKey = "brushquest:content:v1"

// ContentCache caches the assembled public-content payload in redis. A nil
// client disables caching; every method becomes a no-op miss.
type ContentCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewContentCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ContentCache {
	return &ContentCache{client: client, ttl: ttl, logger: logger}
}

func (c *ContentCache) Get(ctx context.Context) ([]byte, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, contentCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("content cache read failed", zap.Error(err))
		}
		return nil, false
	}
	return data, true
}

func (c *ContentCache) Set(ctx context.Context, data []byte) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Set(ctx, contentCacheKey, data, c.ttl).Err(); err != nil {
		c.logger.Warn("content cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached payload. Called on every mutation that can
// change published content.
func (c *ContentCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, contentCacheKey).Err(); err != nil {
		c.logger.Warn("content cache invalidation failed", zap.Error(err))
	}
}

// PublishedContent is the payload served to the app: every published world
// with its published stories fully expanded, plus the catalogs the client
// renders alongside them. Stories stuck in "generating" never appear here.
type PublishedContent struct {
	Worlds       []PublishedWorld     `json:"worlds"`
	Pets         []models.Pet         `json:"pets"`
	Collectibles []models.Collectible `json:"collectibles"`
}

type PublishedWorld struct {
	models.World
	Stories []PublishedStory `json:"stories"`
}

type PublishedStory struct {
	models.Story
	Chapters []PublishedChapter `json:"chapters"`
}

type PublishedChapter struct {
	models.Chapter
	Segments []models.Segment `json:"segments"`
}

// ContentService assembles the public content tree.
type ContentService struct {
	worlds       repository.WorldRepository
	stories      repository.StoryRepository
	pets         repository.PetRepository
	collectibles repository.CollectibleRepository
	cache        *ContentCache
	logger       *zap.Logger
}

func NewContentService(
	worlds repository.WorldRepository,
	stories repository.StoryRepository,
	pets repository.PetRepository,
	collectibles repository.CollectibleRepository,
	cache *ContentCache,
	logger *zap.Logger,
) *ContentService {
	return &ContentService{
		worlds:       worlds,
		stories:      stories,
		pets:         pets,
		collectibles: collectibles,
		cache:        cache,
		logger:       logger,
	}
}

// Published returns the marshaled content payload, served from cache when
// possible.
func (s *ContentService) Published(ctx context.Context) ([]byte, error) {
	if data, ok := s.cache.Get(ctx); ok {
		return data, nil
	}

	content, err := s.assemble(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, data)
	return data, nil
}

func (s *ContentService) assemble(ctx context.Context) (*PublishedContent, error) {
	worlds, err := s.worlds.ListPublished(ctx)
	if err != nil {
		return nil, err
	}

	content := &PublishedContent{Worlds: make([]PublishedWorld, 0, len(worlds))}
	for _, world := range worlds {
		stories, err := s.stories.ListPublishedByWorld(ctx, world.ID)
		if err != nil {
			return nil, err
		}
		pw := PublishedWorld{World: world, Stories: make([]PublishedStory, 0, len(stories))}
		for _, story := range stories {
			chapters, err := s.stories.ListChapters(ctx, story.ID)
			if err != nil {
				return nil, err
			}
			ps := PublishedStory{Story: story, Chapters: make([]PublishedChapter, 0, len(chapters))}
			for _, chapter := range chapters {
				segments, err := s.stories.ListSegments(ctx, chapter.ID)
				if err != nil {
					return nil, err
				}
				ps.Chapters = append(ps.Chapters, PublishedChapter{Chapter: chapter, Segments: segments})
			}
			pw.Stories = append(pw.Stories, ps)
		}
		content.Worlds = append(content.Worlds, pw)
	}

	pets, err := s.pets.List(ctx)
	if err != nil {
		return nil, err
	}
	content.Pets = pets

	collectibles, err := s.collectibles.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	content.Collectibles = collectibles

	return content, nil
}
