package ai

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brushquest-server/internal/models"
)

func TestExtractJSON_FencedBlock(t *testing.T) {
	text := "Here is the result:\n```json\n{\"title\": \"The Lost Star\"}\n```\nHope you like it!"

	raw, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title": "The Lost Star"}`, string(raw))
}

func TestExtractJSON_FencedBlockWithoutLanguage(t *testing.T) {
	text := "```\n[{\"chapter\": 1}]\n```"

	raw, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"chapter": 1}]`, string(raw))
}

func TestExtractJSON_BareSpan(t *testing.T) {
	text := `Sure! The outline is {"chapters": [{"n": 1}, {"n": 2}]} as requested.`

	raw, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"chapters": [{"n": 1}, {"n": 2}]}`, string(raw))
}

func TestExtractJSON_BracesInsideStrings(t *testing.T) {
	text := `{"text": "she said {hello} and \"ran\" away", "ok": true} trailing prose`

	raw, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"text": "she said {hello} and \"ran\" away", "ok": true}`, string(raw))
}

func TestExtractJSON_FencedProseFallsThroughToSpan(t *testing.T) {
	text := "```\nnot json at all\n```\nBut here: [1, 2, 3]"

	raw, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.JSONEq(t, `[1, 2, 3]`, string(raw))
}

func TestExtractJSON_NoJSON(t *testing.T) {
	_, err := ExtractJSON("I could not produce anything structured, sorry.")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrMalformedOutput))
}

func TestExtractJSON_UnbalancedSpan(t *testing.T) {
	_, err := ExtractJSON(`{"title": "never closed`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrMalformedOutput))
}

func TestDecodeStrict_RejectsUnknownFields(t *testing.T) {
	var out struct {
		Title string `json:"title"`
	}
	err := DecodeStrict([]byte(`{"title": "ok", "surprise": 1}`), &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrMalformedOutput))
}

func TestDecodeStrict_ValidPayload(t *testing.T) {
	var out struct {
		Title string `json:"title"`
	}
	require.NoError(t, DecodeStrict([]byte(`{"title": "ok"}`), &out))
	assert.Equal(t, "ok", out.Title)
}
