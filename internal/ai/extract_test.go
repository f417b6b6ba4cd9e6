package ai_test

import (
	"strings"
	"testing"

	"github.com/kiranshivaraju/contentgen/internal/ai"
	"github.com/stretchr/testify/assert"
)

func TestExtractReference(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		kind  ai.RefKind
		value string
	}{
		{"job id colon", `Submitted. job_id: "abc-123"`, ai.RefJobID, "abc-123"},
		{"job id equals", "jobid=XYZ9", ai.RefJobID, "XYZ9"},
		{"job id dash case insensitive", "Job-ID: 42-a", ai.RefJobID, "42-a"},
		{"json shape", `{"job_id": "vid-42", "url": "https://x.example.com/a"}`, ai.RefJobID, "vid-42"},
		{"job id wins over url", "https://cdn.example.com/v.mp4 job_id: q1", ai.RefJobID, "q1"},
		{"url", "Done! https://cdn.example.com/v.mp4 enjoy", ai.RefURL, "https://cdn.example.com/v.mp4"},
		{"markdown url", "![video](https://cdn.example.com/v.mp4)", ai.RefURL, "https://cdn.example.com/v.mp4"},
		{"plain text", "rendering\nplease wait", ai.RefText, "rendering please wait"},
		{"empty", "", ai.RefText, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := ai.ExtractReference(tt.text)
			assert.Equal(t, tt.kind, ref.Kind)
			assert.Equal(t, tt.value, ref.Value)
		})
	}
}

func TestExtractReference_TextTruncatedTo100Runes(t *testing.T) {
	text := strings.Repeat("é", 150)
	ref := ai.ExtractReference(text)
	assert.Equal(t, ai.RefText, ref.Kind)
	assert.Equal(t, 100, len([]rune(ref.Value)))
}

func TestRefKind_String(t *testing.T) {
	assert.Equal(t, "job_id", ai.RefJobID.String())
	assert.Equal(t, "url", ai.RefURL.String())
	assert.Equal(t, "text", ai.RefText.String())
}

func TestFirstURL(t *testing.T) {
	assert.Equal(t, "http://a.example.com/x", ai.FirstURL("see http://a.example.com/x and https://b.example.com"))
	assert.Equal(t, "", ai.FirstURL("no links here"))
}

func TestBotName(t *testing.T) {
	assert.Equal(t, "GPT-4o", ai.BotName("gpt-4o"))
	assert.Equal(t, "ChatGPT", ai.BotName("gpt-3.5-turbo"))
	assert.Equal(t, "Claude-3.5-Sonnet", ai.BotName("claude-3.5-sonnet"))
	assert.Equal(t, "DALL-E-3", ai.BotName("dall-e-3"))
	assert.Equal(t, "Veo-3.1", ai.BotName("veo-3.1"))
	assert.Equal(t, "GPT-4o", ai.BotName("some-future-model"))
	assert.Equal(t, "GPT-4o", ai.BotName(""))
}
