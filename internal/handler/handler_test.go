package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"brushquest-server/internal/config"
	"brushquest-server/internal/models"
	"brushquest-server/internal/repository"
	"brushquest-server/internal/service"
	"brushquest-server/pkg/jobs"
)

const testAdminKey = "test-admin-secret"

// memWorldRepo is an in-memory WorldRepository with the same partial-update
// semantics as the persisted one.
type memWorldRepo struct {
	mu     sync.Mutex
	worlds map[uuid.UUID]models.World
}

func newMemWorldRepo() *memWorldRepo {
	return &memWorldRepo{worlds: make(map[uuid.UUID]models.World)}
}

func (r *memWorldRepo) Create(ctx context.Context, w *models.World) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.worlds {
		if existing.Name == w.Name {
			return fmt.Errorf("%w: world %q already exists", models.ErrConflict, w.Name)
		}
	}
	w.CreatedAt = time.Now()
	w.UpdatedAt = w.CreatedAt
	r.worlds[w.ID] = *w
	return nil
}

func (r *memWorldRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.World, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.worlds[id]
	if !ok {
		return nil, fmt.Errorf("%w: world %s", models.ErrNotFound, id)
	}
	return &w, nil
}

func (r *memWorldRepo) List(ctx context.Context) ([]models.WorldSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	summaries := make([]models.WorldSummary, 0, len(r.worlds))
	for _, w := range r.worlds {
		summaries = append(summaries, models.WorldSummary{World: w})
	}
	return summaries, nil
}

func (r *memWorldRepo) ListPublished(ctx context.Context) ([]models.World, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var published []models.World
	for _, w := range r.worlds {
		if w.IsPublished {
			published = append(published, w)
		}
	}
	return published, nil
}

func (r *memWorldRepo) Update(ctx context.Context, id uuid.UUID, upd models.WorldUpdate) (*models.World, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.worlds[id]
	if !ok {
		return nil, fmt.Errorf("%w: world %s", models.ErrNotFound, id)
	}
	if upd.DisplayName != nil {
		w.DisplayName = *upd.DisplayName
	}
	if upd.Description != nil {
		w.Description = *upd.Description
	}
	if upd.Theme != nil {
		w.Theme = *upd.Theme
	}
	if upd.UnlockCost != nil {
		w.UnlockCost = *upd.UnlockCost
	}
	if upd.IsStarter != nil {
		w.IsStarter = *upd.IsStarter
	}
	if upd.IsPublished != nil {
		w.IsPublished = *upd.IsPublished
	}
	if upd.BackgroundImageURL != nil {
		w.BackgroundImageURL = upd.BackgroundImageURL
	}
	if upd.BackgroundMusicURL != nil {
		w.BackgroundMusicURL = upd.BackgroundMusicURL
	}
	w.UpdatedAt = time.Now()
	r.worlds[id] = w
	return &w, nil
}

func (r *memWorldRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.worlds[id]; !ok {
		return fmt.Errorf("%w: world %s", models.ErrNotFound, id)
	}
	delete(r.worlds, id)
	return nil
}

// memStoryRepo covers the story operations the handler tests touch.
type memStoryRepo struct {
	repository.StoryRepository

	mu      sync.Mutex
	stories map[uuid.UUID]models.Story
}

func newMemStoryRepo() *memStoryRepo {
	return &memStoryRepo{stories: make(map[uuid.UUID]models.Story)}
}

func (r *memStoryRepo) GetStory(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stories[id]
	if !ok {
		return nil, fmt.Errorf("%w: story %s", models.ErrNotFound, id)
	}
	return &s, nil
}

func (r *memStoryRepo) UpdateStory(ctx context.Context, id uuid.UUID, upd models.StoryUpdate) (*models.Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stories[id]
	if !ok {
		return nil, fmt.Errorf("%w: story %s", models.ErrNotFound, id)
	}
	if upd.Title != nil {
		s.Title = *upd.Title
	}
	if upd.Description != nil {
		s.Description = *upd.Description
	}
	if upd.Status != nil {
		s.Status = *upd.Status
	}
	if upd.IsPublished != nil {
		s.IsPublished = *upd.IsPublished
	}
	r.stories[id] = s
	return &s, nil
}

// memPetRepo covers pet suggestions with the conditional-claim semantics.
type memPetRepo struct {
	repository.PetRepository

	mu          sync.Mutex
	pets        map[uuid.UUID]models.Pet
	suggestions map[uuid.UUID]models.PetSuggestion
}

func newMemPetRepo() *memPetRepo {
	return &memPetRepo{
		pets:        make(map[uuid.UUID]models.Pet),
		suggestions: make(map[uuid.UUID]models.PetSuggestion),
	}
}

func (r *memPetRepo) Create(ctx context.Context, p *models.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pets[p.ID] = *p
	return nil
}

func (r *memPetRepo) ClaimSuggestion(ctx context.Context, id uuid.UUID) (*models.PetSuggestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.suggestions[id]
	if !ok {
		return nil, fmt.Errorf("%w: suggestion %s", models.ErrNotFound, id)
	}
	if s.IsApproved {
		return nil, fmt.Errorf("%w: suggestion %s is already approved", models.ErrConflict, id)
	}
	s.IsApproved = true
	r.suggestions[id] = s
	return &s, nil
}

type testEnv struct {
	router  *gin.Engine
	worlds  *memWorldRepo
	stories *memStoryRepo
	pets    *memPetRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	cfg := &config.Config{
		Admin: config.AdminConfig{Password: testAdminKey},
		CORS:  config.CORSConfig{AllowedOrigins: []string{"*"}},
	}
	jobManager := jobs.New(4)

	worlds := newMemWorldRepo()
	stories := newMemStoryRepo()
	pets := newMemPetRepo()

	worldSvc := service.NewWorldService(worlds, nil, nil, nil, jobManager, nil, logger)
	storySvc := service.NewStoryService(worlds, stories, nil, nil, nil, jobManager, nil, logger)
	petSvc := service.NewPetService(pets, nil, nil, logger)
	childSvc := service.NewChildService(nil, nil, nil, logger)

	h := New(worldSvc, storySvc, petSvc, nil, nil, childSvc, nil, nil, jobManager, cfg, logger)
	return &testEnv{router: h.Router(), worlds: worlds, stories: stories, pets: pets}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("X-Admin-Key", testAdminKey)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestAdminAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/admin/worlds", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/admin/worlds", nil)
	req.Header.Set("X-Admin-Key", "wrong")
	rec2 := httptest.NewRecorder()
	env.router.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusUnauthorized, rec2.Code)

	rec3 := env.do(t, http.MethodGet, "/admin/worlds", nil, true)
	assert.Equal(t, http.StatusOK, rec3.Code)
}

func TestAdminAuthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/admin/auth", gin.H{"password": testAdminKey}, false)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/admin/auth", gin.H{"password": "nope"}, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWorldCRUDRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/admin/worlds", gin.H{
		"name":        "coral-reef",
		"displayName": "The Coral Reef",
		"description": "An underwater kingdom.",
		"theme":       "ocean",
		"unlockCost":  200,
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.World
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "coral-reef", created.Name)

	rec = env.do(t, http.MethodGet, "/admin/worlds/"+created.ID.String(), nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched models.World
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, 200, fetched.UnlockCost)

	rec = env.do(t, http.MethodDelete, "/admin/worlds/"+created.ID.String(), nil, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/admin/worlds/"+created.ID.String(), nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateWorld_MissingName(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/admin/worlds", gin.H{"displayName": "Nameless"}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateWorld_DuplicateSlug(t *testing.T) {
	env := newTestEnv(t)
	payload := gin.H{"name": "coral-reef", "displayName": "The Coral Reef"}

	rec := env.do(t, http.MethodPost, "/admin/worlds", payload, true)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/admin/worlds", payload, true)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUpdateWorld_PartialUpdateKeepsOtherFields(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/admin/worlds", gin.H{
		"name":        "starlight",
		"displayName": "Starlight Valley",
		"description": "A valley of stars.",
		"unlockCost":  150,
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.World
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = env.do(t, http.MethodPut, "/admin/worlds/"+created.ID.String(), gin.H{
		"displayName": "Starlight Vale",
	}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.World
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Starlight Vale", updated.DisplayName)
	assert.Equal(t, "A valley of stars.", updated.Description)
	assert.Equal(t, 150, updated.UnlockCost)
}

func TestPublishStory_DefaultsToTrue(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.New()
	env.stories.stories[id] = models.Story{ID: id, Title: "Done", Status: models.StoryStatusDraft}

	// Empty body means publish.
	rec := env.do(t, http.MethodPost, "/admin/stories/"+id.String()+"/publish", nil, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var story models.Story
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &story))
	assert.True(t, story.IsPublished)
	assert.Equal(t, models.StoryStatusPublished, story.Status)

	// Explicit false unpublishes back to draft.
	rec = env.do(t, http.MethodPost, "/admin/stories/"+id.String()+"/publish", gin.H{"publish": false}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &story))
	assert.False(t, story.IsPublished)
	assert.Equal(t, models.StoryStatusDraft, story.Status)
}

func TestPublishStory_RejectedWhileGenerating(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.New()
	env.stories.stories[id] = models.Story{ID: id, Title: "Half-done", Status: models.StoryStatusGenerating}

	rec := env.do(t, http.MethodPost, "/admin/stories/"+id.String()+"/publish", nil, true)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestApprovePetSuggestion(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.New()
	env.pets.suggestions[id] = models.PetSuggestion{
		ID:          id,
		Name:        "bubbles",
		DisplayName: "Bubbles",
		Description: "A cheerful seahorse.",
		UnlockCost:  100,
	}

	rec := env.do(t, http.MethodPost, "/admin/pets/suggestions/"+id.String()+"/approve", nil, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var pet models.Pet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pet))
	assert.Equal(t, "bubbles", pet.Name)
	assert.NotEqual(t, id, pet.ID)

	// Approving again conflicts: the claim already happened.
	rec = env.do(t, http.MethodPost, "/admin/pets/suggestions/"+id.String()+"/approve", nil, true)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestApprovePetSuggestion_NotFound(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/admin/pets/suggestions/"+uuid.New().String()+"/approve", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateChild_InvalidAge(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/children", gin.H{"displayName": "Mia", "age": 2}, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvalidUUIDParam(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/admin/worlds/not-a-uuid", nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPatch, "/admin/worlds", nil, true)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/nope", nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/healthz", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetJob(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/admin/jobs/"+uuid.New().String(), nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
