package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"brushquest-server/internal/config"
	"brushquest-server/internal/models"
)

func TestPreparePauses(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "child placeholder",
			in:   "Good morning, [CHILD]! Ready?",
			want: `Good morning, <break time="300ms"/>! Ready?`,
		},
		{
			name: "both placeholders repeated",
			in:   "[CHILD] and [PET] ran. [PET] barked.",
			want: `<break time="300ms"/> and <break time="300ms"/> ran. <break time="300ms"/> barked.`,
		},
		{
			name: "no placeholders",
			in:   "Just a plain sentence.",
			want: "Just a plain sentence.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PreparePauses(tt.in))
		})
	}
}

func TestSynthesize_SendsPreparedText(t *testing.T) {
	var got ttsAPIRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/synthesize", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	c := NewSpeechSynthesizer(config.TTSConfig{
		BaseURL:        srv.URL,
		APIKey:         "secret",
		Voice:          "narrator",
		TimeoutSeconds: 5,
	}, zap.NewNop())

	audio, err := c.Synthesize(context.Background(), "Hello [CHILD]!")
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3-bytes"), audio)
	assert.Equal(t, `Hello <break time="300ms"/>!`, got.Text)
	assert.Equal(t, "narrator", got.Voice)
}

func TestSynthesize_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "voice unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewSpeechSynthesizer(config.TTSConfig{
		BaseURL:        srv.URL,
		APIKey:         "secret",
		TimeoutSeconds: 5,
	}, zap.NewNop())

	_, err := c.Synthesize(context.Background(), "Hello")
	require.ErrorIs(t, err, models.ErrProvider)
}

func TestSynthesize_EmptyText(t *testing.T) {
	c := NewSpeechSynthesizer(config.TTSConfig{
		BaseURL:        "http://localhost:1",
		APIKey:         "secret",
		TimeoutSeconds: 5,
	}, zap.NewNop())

	_, err := c.Synthesize(context.Background(), "   ")
	require.ErrorIs(t, err, models.ErrValidation)
}
