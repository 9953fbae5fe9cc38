package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"brushquest-server/internal/config"
	"brushquest-server/internal/models"
)

func TestUpload_ReturnsPublicURL(t *testing.T) {
	var gotPath, gotAuth, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	store := NewBlobStore(config.BlobConfig{
		BaseURL:        srv.URL,
		PublicBaseURL:  "https://cdn.example",
		WriteToken:     "write-token",
		TimeoutSeconds: 5,
	}, zap.NewNop())

	url, err := store.Upload(context.Background(), "worlds/abc/background.png", "image/png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/worlds/abc/background.png", url)
	assert.Equal(t, "/worlds/abc/background.png", gotPath)
	assert.Equal(t, "Bearer write-token", gotAuth)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, []byte("png-bytes"), gotBody)
}

func TestUpload_Unconfigured(t *testing.T) {
	store := NewBlobStore(config.BlobConfig{}, zap.NewNop())
	_, err := store.Upload(context.Background(), "x.png", "image/png", nil)
	require.ErrorIs(t, err, models.ErrProvider)
}

func TestUpload_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	store := NewBlobStore(config.BlobConfig{
		BaseURL:        srv.URL,
		WriteToken:     "write-token",
		TimeoutSeconds: 5,
	}, zap.NewNop())

	_, err := store.Upload(context.Background(), "x.png", "image/png", []byte("data"))
	require.ErrorIs(t, err, models.ErrProvider)
}

func TestPathHelpers(t *testing.T) {
	storyID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	childID := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	assert.Equal(t,
		fmt.Sprintf("stories/%s/chapters/3/segment-2.png", storyID),
		SegmentImagePath(storyID, 3, 2))
	assert.Equal(t,
		fmt.Sprintf("stories/%s/background-music.mp3", storyID),
		StoryMusicPath(storyID))
	assert.Equal(t,
		fmt.Sprintf("children/%s/name.mp3", childID),
		ChildNameAudioPath(childID, false))
	assert.Equal(t,
		fmt.Sprintf("children/%s/name-possessive.mp3", childID),
		ChildNameAudioPath(childID, true))
}
