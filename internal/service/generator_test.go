package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"brushquest-server/internal/mocks"
	"brushquest-server/internal/models"
	"brushquest-server/internal/repository"
)

// fakeStoryRepo records persisted chapters and segments in memory. Methods the
// tests never reach are inherited from the nil embedded interface and panic.
type fakeStoryRepo struct {
	repository.StoryRepository

	chapters []models.Chapter
	segments map[uuid.UUID][]models.Segment
	refs     []models.StoryReference
}

func newFakeStoryRepo() *fakeStoryRepo {
	return &fakeStoryRepo{segments: make(map[uuid.UUID][]models.Segment)}
}

func (f *fakeStoryRepo) CreateChapter(ctx context.Context, chapter *models.Chapter, segments []models.Segment) error {
	f.chapters = append(f.chapters, *chapter)
	f.segments[chapter.ID] = segments
	return nil
}

func (f *fakeStoryRepo) ListSegments(ctx context.Context, chapterID uuid.UUID) ([]models.Segment, error) {
	return f.segments[chapterID], nil
}

func (f *fakeStoryRepo) ListReferences(ctx context.Context, storyID uuid.UUID) ([]models.StoryReference, error) {
	return f.refs, nil
}

func (f *fakeStoryRepo) CreateReferences(ctx context.Context, refs []models.StoryReference) error {
	f.refs = append(f.refs, refs...)
	return nil
}

func testWorld() *models.World {
	return &models.World{
		ID:          uuid.New(),
		Name:        "coral-reef",
		DisplayName: "The Coral Reef",
		Description: "An underwater kingdom of glowing coral.",
		Theme:       "ocean",
	}
}

func testStory(worldID uuid.UUID, chapterCount int) *models.Story {
	return &models.Story{
		ID:           uuid.New(),
		WorldID:      worldID,
		Title:        "The Pearl of Tidetown",
		Description:  "A hunt for the lost pearl.",
		ChapterCount: chapterCount,
		Status:       models.StoryStatusGenerating,
	}
}

func testOutline(n int) []models.OutlineEntry {
	outline := make([]models.OutlineEntry, 0, n)
	for i := 1; i <= n; i++ {
		outline = append(outline, models.OutlineEntry{
			Chapter: i,
			Title:   fmt.Sprintf("Part %d", i),
			Summary: fmt.Sprintf("Things happen in part %d.", i),
		})
	}
	return outline
}

// chapterJSON builds a well-formed model response for one chapter.
func chapterJSON(n int) string {
	payload := map[string]interface{}{
		"title":       fmt.Sprintf("Chapter %d Title", n),
		"recap":       fmt.Sprintf("Previously, part %d happened.", n-1),
		"cliffhanger": fmt.Sprintf("cliff-%d", n),
		"teaser":      fmt.Sprintf("teaser-%d", n),
	}
	if n == 1 {
		payload["recap"] = nil
	}
	segments := make([]map[string]string, 0, segmentsPerChapter)
	for i := 1; i <= segmentsPerChapter; i++ {
		segments = append(segments, map[string]string{
			"text":        fmt.Sprintf("Segment %d of chapter %d, [CHILD] and [PET] swim on.", i, n),
			"imagePrompt": fmt.Sprintf("scene %d-%d", n, i),
		})
	}
	payload["segments"] = segments
	raw, _ := json.Marshal(payload)
	return "```json\n" + string(raw) + "\n```"
}

var chapterNumberRe = regexp.MustCompile(`Write chapter (\d+)`)

func TestGenerateChapters_SequentialWithCliffhangerCarry(t *testing.T) {
	repo := newFakeStoryRepo()
	gen := mocks.NewMockTextGenerator(t)

	var prompts []string
	gen.On("Generate", mock.Anything, mock.Anything).Return(func(ctx context.Context, prompt string) string {
		prompts = append(prompts, prompt)
		m := chapterNumberRe.FindStringSubmatch(prompt)
		require.NotNil(t, m, "prompt does not name a chapter")
		var n int
		fmt.Sscanf(m[1], "%d", &n)
		return chapterJSON(n)
	}, nil)

	svc := &StoryService{stories: repo, text: gen, logger: zap.NewNop()}
	world := testWorld()
	story := testStory(world.ID, 3)

	chapters, err := svc.generateChapters(context.Background(), world, story, testOutline(3))
	require.NoError(t, err)
	require.Len(t, chapters, 3)
	require.Len(t, repo.chapters, 3)
	require.Len(t, prompts, 3)

	// Chapters are generated strictly in outline order.
	for i, ch := range chapters {
		assert.Equal(t, i+1, ch.ChapterNumber)
		assert.Equal(t, story.ID, ch.StoryID)
	}

	// Chapter 1 has no recap and no prior cliffhanger to resolve.
	assert.Nil(t, chapters[0].Recap)
	assert.NotContains(t, prompts[0], "resolve it first")

	// Each later chapter is asked to resolve the previous cliffhanger.
	assert.Contains(t, prompts[1], "cliff-1")
	assert.Contains(t, prompts[2], "cliff-2")

	// The final chapter never dangles.
	last := chapters[2]
	assert.Empty(t, last.Cliffhanger)
	assert.Empty(t, last.Teaser)
	assert.NotEmpty(t, chapters[0].Cliffhanger)
	assert.NotEmpty(t, chapters[1].Cliffhanger)

	// Every chapter persisted with its full segment set.
	for _, ch := range repo.chapters {
		assert.Len(t, repo.segments[ch.ID], segmentsPerChapter)
	}
}

func TestGenerateChapters_WrongSegmentCount(t *testing.T) {
	repo := newFakeStoryRepo()
	gen := mocks.NewMockTextGenerator(t)
	gen.On("Generate", mock.Anything, mock.Anything).Return(
		`{"title": "t", "recap": null, "segments": [{"text": "only one", "imagePrompt": "p"}], "cliffhanger": "c", "teaser": "t"}`, nil)

	svc := &StoryService{stories: repo, text: gen, logger: zap.NewNop()}
	world := testWorld()
	story := testStory(world.ID, 1)

	chapters, err := svc.generateChapters(context.Background(), world, story, testOutline(1))
	require.ErrorIs(t, err, models.ErrMalformedOutput)
	assert.Empty(t, chapters)
	assert.Empty(t, repo.chapters)
}

func TestGenerateChapters_MidRunFailureKeepsEarlierChapters(t *testing.T) {
	repo := newFakeStoryRepo()
	gen := mocks.NewMockTextGenerator(t)
	gen.On("Generate", mock.Anything, mock.Anything).Return(func(ctx context.Context, prompt string) string {
		if strings.Contains(prompt, "Write chapter 2") {
			return "the model rambled and produced no structure"
		}
		return chapterJSON(1)
	}, nil)

	svc := &StoryService{stories: repo, text: gen, logger: zap.NewNop()}
	world := testWorld()
	story := testStory(world.ID, 3)

	chapters, err := svc.generateChapters(context.Background(), world, story, testOutline(3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chapter 2")

	// Chapter 1 stays persisted so the run is recoverable.
	require.Len(t, chapters, 1)
	require.Len(t, repo.chapters, 1)
	assert.Equal(t, 1, repo.chapters[0].ChapterNumber)
}

func TestDecorateSegments(t *testing.T) {
	chapterID := uuid.New()
	payloads := make([]segmentPayload, segmentsPerChapter)
	for i := range payloads {
		payloads[i] = segmentPayload{Text: fmt.Sprintf("text %d", i+1), ImagePrompt: fmt.Sprintf("img %d", i+1)}
	}

	segments := decorateSegments(chapterID, payloads)
	require.Len(t, segments, segmentsPerChapter)

	for i, seg := range segments {
		assert.Equal(t, chapterID, seg.ChapterID)
		assert.Equal(t, i+1, seg.Position)
		assert.Equal(t, segmentDurationSeconds, seg.DurationSeconds)
		assert.NotNil(t, seg.ReferenceIDs)
		assert.Empty(t, seg.ReferenceIDs)
	}

	// Only segments 2, 4 and 5 carry a brushing cue; the rest let the child
	// just listen.
	assert.Nil(t, segments[0].BrushingZone)
	assert.Nil(t, segments[0].BrushingPrompt)
	assert.Nil(t, segments[2].BrushingZone)
	assert.Nil(t, segments[2].BrushingPrompt)

	require.NotNil(t, segments[1].BrushingZone)
	assert.Equal(t, models.ZoneTopRight, *segments[1].BrushingZone)
	require.NotNil(t, segments[3].BrushingZone)
	assert.Equal(t, models.ZoneBottomRight, *segments[3].BrushingZone)
	require.NotNil(t, segments[4].BrushingZone)
	assert.Equal(t, models.ZoneTongue, *segments[4].BrushingZone)

	for _, i := range []int{1, 3, 4} {
		require.NotNil(t, segments[i].BrushingPrompt)
		assert.Equal(t, brushingPromptText[*segments[i].BrushingZone], *segments[i].BrushingPrompt)
	}
}
