package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"brushquest-server/internal/mocks"
	"brushquest-server/internal/models"
)

func refNamed(refType models.ReferenceType, name string) models.StoryReference {
	return models.StoryReference{ID: uuid.New(), Type: refType, Name: name}
}

func TestIsDuplicateReference(t *testing.T) {
	existing := []models.StoryReference{
		refNamed(models.ReferenceCharacter, "Luna the Cat"),
		refNamed(models.ReferenceLocation, "The Glowing Grotto"),
	}

	tests := []struct {
		name    string
		refType models.ReferenceType
		lookup  string
		want    bool
	}{
		{"shorter name contained in existing", models.ReferenceCharacter, "Luna", true},
		{"existing contained in longer name", models.ReferenceCharacter, "brave Luna the Cat of Tidetown", true},
		{"case insensitive", models.ReferenceCharacter, "LUNA THE CAT", true},
		{"same name different type", models.ReferenceObject, "Luna the Cat", false},
		{"unrelated name", models.ReferenceCharacter, "Captain Fin", false},
		{"location match", models.ReferenceLocation, "glowing grotto", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isDuplicateReference(existing, tt.refType, tt.lookup))
		})
	}
}

func TestMatchReferences(t *testing.T) {
	luna := refNamed(models.ReferenceCharacter, "Luna the Cat")
	fin := refNamed(models.ReferenceCharacter, "Captain Fin")
	grotto := refNamed(models.ReferenceLocation, "The Glowing Grotto")
	refs := []models.StoryReference{luna, fin, grotto}

	board := models.SegmentStoryboard{
		Location:   "glowing grotto",
		Characters: []string{"Luna", "Luna the Cat", "a passing shrimp"},
	}

	ids := matchReferences(refs, board)
	// Luna matched twice but reported once; the shrimp is unknown.
	require.Len(t, ids, 2)
	assert.Contains(t, ids, luna.ID)
	assert.Contains(t, ids, grotto.ID)
	assert.NotContains(t, ids, fin.ID)
}

func TestMatchReferences_NoMatches(t *testing.T) {
	refs := []models.StoryReference{refNamed(models.ReferenceCharacter, "Luna the Cat")}
	ids := matchReferences(refs, models.SegmentStoryboard{Characters: []string{"stranger"}})
	assert.Empty(t, ids)
}

func TestExtractReferences_SkipsDuplicatesAndEmptyNames(t *testing.T) {
	storyID := uuid.New()
	repo := newFakeStoryRepo()
	repo.refs = []models.StoryReference{
		{ID: uuid.New(), StoryID: storyID, Type: models.ReferenceCharacter, Name: "Luna the Cat", Source: models.ReferenceSourceBible, SortOrder: 0},
		{ID: uuid.New(), StoryID: storyID, Type: models.ReferenceLocation, Name: "The Glowing Grotto", Source: models.ReferenceSourceBible, SortOrder: 1},
	}

	chapterID := uuid.New()
	repo.segments[chapterID] = []models.Segment{{ID: uuid.New(), ChapterID: chapterID, Position: 1, Text: "Luna found a shiny compass near the grotto."}}

	gen := mocks.NewMockTextGenerator(t)
	gen.On("Generate", mock.Anything, mock.Anything).Return(`[
		{"type": "character", "name": "Luna", "description": "already known"},
		{"type": "object", "name": "Shiny Compass", "description": "a brass compass that glows"},
		{"type": "object", "name": "", "description": "nameless"},
		{"type": "character", "name": "Barnacle Bob", "description": "a grumpy barnacle"}
	]`, nil)

	svc := &StoryService{stories: repo, text: gen, logger: zap.NewNop()}
	chapters := []models.Chapter{{ID: chapterID, StoryID: storyID, ChapterNumber: 1}}

	require.NoError(t, svc.extractReferences(context.Background(), storyID, chapters))

	// Two fresh references appended after the two bible ones.
	require.Len(t, repo.refs, 4)
	compass := repo.refs[2]
	bob := repo.refs[3]
	assert.Equal(t, "Shiny Compass", compass.Name)
	assert.Equal(t, models.ReferenceSourceExtracted, compass.Source)
	assert.Equal(t, 2, compass.SortOrder)
	assert.Equal(t, "Barnacle Bob", bob.Name)
	assert.Equal(t, 3, bob.SortOrder)
}

func TestBibleReferences_FlattensInOrder(t *testing.T) {
	storyID := uuid.New()
	bible := &models.StoryBible{
		Characters: []models.BibleCharacter{
			{Name: "Luna the Cat", Appearance: "silver fur", Personality: "curious", Role: "guide"},
		},
		Locations: []models.BibleLocation{
			{Name: "The Glowing Grotto", Appearance: "blue coral walls", Mood: "mysterious"},
		},
		Objects: []models.BibleObject{
			{Name: "The Pearl", Appearance: "palm-sized and iridescent", Significance: "the quest's goal"},
		},
	}

	refs := bibleReferences(storyID, bible)
	require.Len(t, refs, 3)

	assert.Equal(t, models.ReferenceCharacter, refs[0].Type)
	assert.Equal(t, "Luna the Cat", refs[0].Name)
	assert.Equal(t, "silver fur", refs[0].Description)
	require.NotNil(t, refs[0].Personality)
	assert.Equal(t, "curious", *refs[0].Personality)

	assert.Equal(t, models.ReferenceLocation, refs[1].Type)
	require.NotNil(t, refs[1].Mood)
	assert.Equal(t, "mysterious", *refs[1].Mood)

	assert.Equal(t, models.ReferenceObject, refs[2].Type)
	assert.Nil(t, refs[2].Mood)

	for i, ref := range refs {
		assert.Equal(t, storyID, ref.StoryID)
		assert.Equal(t, models.ReferenceSourceBible, ref.Source)
		assert.Equal(t, i, ref.SortOrder)
	}
}
