package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kiranshivaraju/contentgen/internal/ai"
	"github.com/kiranshivaraju/contentgen/internal/api/response"
)

const (
	defaultMaxTokens   = 2000
	maxMaxTokens       = 4000
	defaultTemperature = 0.7
	maxTemperature     = 2.0
)

// TextGenerator is the dependency of the text and prompt improvement handlers.
type TextGenerator interface {
	GenerateText(ctx context.Context, in ai.TextInput) (string, error)
	ImprovePrompt(ctx context.Context, tenantID, prompt, contentType string) (string, error)
}

type textRequest struct {
	Prompt           string   `json:"prompt"`
	Model            string   `json:"model"`
	TenantID         string   `json:"tenant_id"`
	MaxTokens        *int     `json:"max_tokens"`
	Temperature      *float64 `json:"temperature"`
	SystemPromptType string   `json:"system_prompt_type"`
}

type textResponse struct {
	Content   string    `json:"content"`
	Model     string    `json:"model"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTextHandler returns an http.HandlerFunc for POST /v1/generate/text.
func NewTextHandler(svc TextGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req textRequest
		if !decodeBody(w, r, &req) {
			return
		}

		in := ai.TextInput{
			Prompt:      strings.TrimSpace(req.Prompt),
			Model:       strings.TrimSpace(req.Model),
			PromptType:  strings.TrimSpace(req.SystemPromptType),
			MaxTokens:   defaultMaxTokens,
			Temperature: defaultTemperature,
		}
		if req.MaxTokens != nil {
			in.MaxTokens = *req.MaxTokens
		}
		if req.Temperature != nil {
			in.Temperature = *req.Temperature
		}

		errs := fieldErrors{}
		requireField(errs, "prompt", in.Prompt)
		requireField(errs, "model", in.Model)
		if in.MaxTokens < 1 || in.MaxTokens > maxMaxTokens {
			errs.add("max_tokens", "must be between 1 and %d", maxMaxTokens)
		}
		if in.Temperature < 0 || in.Temperature > maxTemperature {
			errs.add("temperature", "must be between 0 and %.0f", maxTemperature)
		}
		if errs.write(w) {
			return
		}

		tenant, ok := resolveTenant(w, r, req.TenantID)
		if !ok {
			return
		}
		in.TenantID = tenant

		slog.Info("text generation request", "tenant_id", tenant, "model", in.Model, "prompt_type", in.PromptType)

		content, err := svc.GenerateText(r.Context(), in)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		response.JSON(w, textResponse{
			Content:   content,
			Model:     in.Model,
			Timestamp: time.Now().UTC(),
		})
	}
}

var improvableContent = map[string]bool{"text": true, "image": true, "video": true}

type improveRequest struct {
	Prompt      string `json:"prompt"`
	ContentType string `json:"content_type"`
	TenantID    string `json:"tenant_id"`
}

// NewImprovePromptHandler returns an http.HandlerFunc for POST /v1/improve-prompt.
func NewImprovePromptHandler(svc TextGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req improveRequest
		if !decodeBody(w, r, &req) {
			return
		}

		prompt := strings.TrimSpace(req.Prompt)
		contentType := strings.TrimSpace(req.ContentType)
		if contentType == "" {
			contentType = "text"
		}

		errs := fieldErrors{}
		requireField(errs, "prompt", prompt)
		if !improvableContent[contentType] {
			errs.add("content_type", "must be one of text, image, video")
		}
		if errs.write(w) {
			return
		}

		tenant, ok := resolveTenant(w, r, req.TenantID)
		if !ok {
			return
		}

		slog.Info("prompt improvement request", "tenant_id", tenant, "content_type", contentType)

		improved, err := svc.ImprovePrompt(r.Context(), tenant, prompt, contentType)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		response.JSON(w, textResponse{
			Content:   improved,
			Model:     ai.ImproverModel,
			Timestamp: time.Now().UTC(),
		})
	}
}

func requireField(errs fieldErrors, name, value string) {
	if value == "" {
		errs.add(name, "is required")
	}
}
