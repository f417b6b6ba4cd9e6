package ai_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/kiranshivaraju/contentgen/internal/ai"
	"github.com/kiranshivaraju/contentgen/internal/ai/mock"
	"github.com/kiranshivaraju/contentgen/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdapter(up models.Upstream) *ai.Adapter {
	return ai.NewAdapter(up, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAdapter_GenerateText_NoSystemPrompt(t *testing.T) {
	up := mock.NewStaticProvider("hello")
	out, err := newAdapter(up).GenerateText(context.Background(), ai.TextRequest{Model: "gpt-4", Prompt: "hi"})

	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	calls := up.Calls()
	require.Len(t, calls, 1)
	require.Len(t, calls[0].Messages, 1)
	assert.Equal(t, models.RoleUser, calls[0].Messages[0].Role)
	assert.Equal(t, "GPT-4", calls[0].Bot)
}

func TestAdapter_GenerateImage_RawFallback(t *testing.T) {
	up := mock.NewStaticProvider("I cannot draw that.")
	out, err := newAdapter(up).GenerateImage(context.Background(), ai.ImageRequest{Model: "dall-e-3", Prompt: "x"})

	require.NoError(t, err)
	assert.Equal(t, "I cannot draw that.", out)
}

func TestAdapter_GenerateImage_PromptWithoutHints(t *testing.T) {
	up := mock.NewStaticProvider("https://img.example.com/1.png")
	_, err := newAdapter(up).GenerateImage(context.Background(), ai.ImageRequest{Model: "dall-e-3", Prompt: "plain"})

	require.NoError(t, err)
	assert.Equal(t, "plain", up.Calls()[0].Messages[0].Content)
}

func TestAdapter_GenerateImage_EmptyReply(t *testing.T) {
	_, err := newAdapter(mock.NewStaticProvider("")).GenerateImage(context.Background(), ai.ImageRequest{Prompt: "x"})
	assert.ErrorIs(t, err, ai.ErrInvalidResponse)
	assert.ErrorIs(t, err, ai.ErrProviderUnavailable)
}

func TestAdapter_RequestVideo(t *testing.T) {
	up := mock.NewStaticProvider("job_id: r-1")
	ref, err := newAdapter(up).RequestVideo(context.Background(), models.VideoParams{
		Model: "veo-3.1", Prompt: "waves", DurationSeconds: 6, AspectRatio: "9:16",
	})

	require.NoError(t, err)
	assert.Equal(t, ai.Reference{Kind: ai.RefJobID, Value: "r-1"}, ref)
	assert.Equal(t, "waves (aspect ratio: 9:16) (duration: 6s)", up.Calls()[0].Messages[0].Content)
	assert.Equal(t, "Veo-3.1", up.Calls()[0].Bot)
}

func TestAdapter_UpstreamErrorWrapping(t *testing.T) {
	cause := errors.New("503 from bot")
	_, err := newAdapter(mock.NewFailingProvider(cause)).GenerateText(context.Background(), ai.TextRequest{Prompt: "x"})

	var upErr *ai.UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, "generate text", upErr.Op)
	assert.False(t, upErr.Timeout)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ai.ErrProviderUnavailable)
	assert.NotErrorIs(t, err, ai.ErrInferenceTimeout)
	assert.Contains(t, err.Error(), "503 from bot")
}

func TestAdapter_TimeoutClassified(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newAdapter(mock.NewTimeoutProvider()).RequestVideo(ctx, models.VideoParams{Prompt: "x"})
	assert.ErrorIs(t, err, ai.ErrInferenceTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSentinelErrors(t *testing.T) {
	assert.NotEqual(t, ai.ErrProviderUnavailable, ai.ErrInferenceTimeout)
	assert.NotEqual(t, ai.ErrInferenceTimeout, ai.ErrInvalidResponse)
}
