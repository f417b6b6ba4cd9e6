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

const defaultResolution = "1024x1024"

// ImageGenerator is the dependency of the image handler.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, in ai.ImageInput) (*ai.ImageResult, error)
}

type imageRequest struct {
	Prompt     string `json:"prompt"`
	Model      string `json:"model"`
	TenantID   string `json:"tenant_id"`
	Resolution string `json:"resolution"`
	Style      string `json:"style"`
}

type imageResponse struct {
	URL        string    `json:"url"`
	Model      string    `json:"model"`
	Resolution string    `json:"resolution"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewImageHandler returns an http.HandlerFunc for POST /v1/generate/image.
func NewImageHandler(svc ImageGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req imageRequest
		if !decodeBody(w, r, &req) {
			return
		}

		in := ai.ImageInput{
			Prompt:     strings.TrimSpace(req.Prompt),
			Model:      strings.TrimSpace(req.Model),
			Resolution: strings.TrimSpace(req.Resolution),
			Style:      strings.TrimSpace(req.Style),
		}
		if in.Resolution == "" {
			in.Resolution = defaultResolution
		}

		errs := fieldErrors{}
		requireField(errs, "prompt", in.Prompt)
		requireField(errs, "model", in.Model)
		if in.Style != "" && in.Style != "vivid" && in.Style != "natural" {
			errs.add("style", "must be one of vivid, natural")
		}
		if errs.write(w) {
			return
		}

		tenant, ok := resolveTenant(w, r, req.TenantID)
		if !ok {
			return
		}
		in.TenantID = tenant

		slog.Info("image generation request", "tenant_id", tenant, "model", in.Model, "resolution", in.Resolution)

		res, err := svc.GenerateImage(r.Context(), in)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		response.JSON(w, imageResponse{
			URL:        res.URL,
			Model:      in.Model,
			Resolution: res.Resolution,
			Timestamp:  time.Now().UTC(),
		})
	}
}
