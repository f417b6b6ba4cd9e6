package poe

import (
	"context"
	"fmt"
	"strings"

	"github.com/kiranshivaraju/contentgen/internal/config"
	"github.com/kiranshivaraju/contentgen/pkg/models"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const defaultBot = "GPT-4o"

// Provider implements models.Upstream against Poe's OpenAI-compatible API.
// Bots are addressed as models; replies are streamed and concatenated.
type Provider struct {
	llm llms.Model
}

// NewProvider creates a Poe client. The API key is required.
func NewProvider(cfg config.PoeConfig) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("poe: API key required")
	}
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(defaultBot),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create poe client: %w", err)
	}
	return &Provider{llm: llm}, nil
}

// newWithModel wires an existing llms.Model; used by tests.
func newWithModel(llm llms.Model) *Provider {
	return &Provider{llm: llm}
}

func (p *Provider) Name() string { return "poe" }

func (p *Provider) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	messages := make([]llms.MessageContent, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, llms.TextParts(messageType(m.Role), m.Content))
	}

	var sb strings.Builder
	callOpts := []llms.CallOption{
		llms.WithModel(bot(req.Bot)),
		llms.WithTemperature(req.Temperature),
		llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			sb.Write(chunk)
			return nil
		}),
	}
	if req.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(req.MaxTokens))
	}

	resp, err := p.llm.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return "", err
	}

	if sb.Len() > 0 {
		return sb.String(), nil
	}
	// Some backends ignore streaming and only fill the choice.
	if resp != nil && len(resp.Choices) > 0 {
		return resp.Choices[0].Content, nil
	}
	return "", nil
}

func messageType(role string) llms.ChatMessageType {
	if role == models.RoleSystem {
		return llms.ChatMessageTypeSystem
	}
	return llms.ChatMessageTypeHuman
}

func bot(name string) string {
	if name == "" {
		return defaultBot
	}
	return name
}

var _ models.Upstream = (*Provider)(nil)
