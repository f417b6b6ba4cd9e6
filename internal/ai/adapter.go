package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kiranshivaraju/contentgen/pkg/models"
)

// TextRequest is a chat completion with an optional system prompt.
type TextRequest struct {
	Model        string
	Prompt       string
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
	TenantID     string
}

// ImageRequest describes an image generation call. Style and resolution are
// sent as natural-language hints since the upstream has no structured image API.
type ImageRequest struct {
	Model      string
	Prompt     string
	Resolution string
	Style      string
	TenantID   string
}

// Adapter turns generation requests into upstream chat calls and interprets
// the free-text replies.
type Adapter struct {
	upstream models.Upstream
	logger   *slog.Logger
}

// NewAdapter wraps an upstream provider.
func NewAdapter(upstream models.Upstream, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{upstream: upstream, logger: logger}
}

// ProviderName reports the wrapped upstream's name.
func (a *Adapter) ProviderName() string { return a.upstream.Name() }

// GenerateText returns the full concatenated reply.
func (a *Adapter) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	var msgs []models.Message
	if req.SystemPrompt != "" {
		msgs = append(msgs, models.Message{Role: models.RoleSystem, Content: req.SystemPrompt})
	}
	msgs = append(msgs, models.Message{Role: models.RoleUser, Content: req.Prompt})

	out, err := a.complete(ctx, "generate text", models.CompletionRequest{
		Bot:         BotName(req.Model),
		Messages:    msgs,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		a.logger.Error("text generation failed", "tenant_id", req.TenantID, "model", req.Model, "error", err)
		return "", err
	}
	a.logger.Info("text generated", "tenant_id", req.TenantID, "model", req.Model, "length", len(out))
	return out, nil
}

// GenerateImage returns the first URL in the reply. When there is none the raw
// reply comes back instead; callers should treat a non-URL result with suspicion.
func (a *Adapter) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	out, err := a.complete(ctx, "generate image", models.CompletionRequest{
		Bot:      BotName(req.Model),
		Messages: []models.Message{{Role: models.RoleUser, Content: imagePrompt(req)}},
	})
	if err != nil {
		a.logger.Error("image generation failed", "tenant_id", req.TenantID, "model", req.Model, "error", err)
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", &UpstreamError{Op: "generate image", Err: ErrInvalidResponse}
	}
	if u := FirstURL(out); u != "" {
		a.logger.Info("image generated", "tenant_id", req.TenantID, "model", req.Model)
		return u, nil
	}
	a.logger.Warn("no image URL in upstream reply", "tenant_id", req.TenantID, "model", req.Model,
		"reply", truncateRunes(out, 200))
	return out, nil
}

// RequestVideo submits a video generation and interprets the reply. It blocks
// for as long as the upstream call takes, so callers run it off the request path.
func (a *Adapter) RequestVideo(ctx context.Context, p models.VideoParams) (Reference, error) {
	out, err := a.complete(ctx, "generate video", models.CompletionRequest{
		Bot:      BotName(p.Model),
		Messages: []models.Message{{Role: models.RoleUser, Content: videoPrompt(p)}},
	})
	if err != nil {
		return Reference{}, err
	}
	if strings.TrimSpace(out) == "" {
		return Reference{}, &UpstreamError{Op: "generate video", Err: ErrInvalidResponse}
	}
	ref := ExtractReference(out)
	a.logger.Info("video reply received", "tenant_id", p.TenantID, "model", p.Model, "reference", ref.Kind.String())
	return ref, nil
}

func (a *Adapter) complete(ctx context.Context, op string, req models.CompletionRequest) (string, error) {
	out, err := a.upstream.Complete(ctx, req)
	if err != nil {
		timeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
		return "", &UpstreamError{Op: op, Err: err, Timeout: timeout}
	}
	return out, nil
}

func imagePrompt(req ImageRequest) string {
	p := req.Prompt
	if req.Style != "" {
		p = fmt.Sprintf("%s (style: %s)", p, req.Style)
	}
	if req.Resolution != "" {
		p = fmt.Sprintf("%s (resolution: %s)", p, req.Resolution)
	}
	return p
}

func videoPrompt(p models.VideoParams) string {
	prompt := p.Prompt
	if p.AspectRatio != "" {
		prompt = fmt.Sprintf("%s (aspect ratio: %s)", prompt, p.AspectRatio)
	}
	if p.DurationSeconds > 0 {
		prompt = fmt.Sprintf("%s (duration: %ds)", prompt, p.DurationSeconds)
	}
	return prompt
}
