package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/kiranshivaraju/contentgen/internal/ai"
	"github.com/kiranshivaraju/contentgen/internal/api/response"
	"github.com/kiranshivaraju/contentgen/pkg/models"
)

const (
	defaultDurationSeconds = 8
	minDurationSeconds     = 1
	maxDurationSeconds     = 60
	defaultAspectRatio     = "16:9"
)

var aspectRatioPattern = regexp.MustCompile(`^\d{1,2}:\d{1,2}$`)

// VideoSubmitter is the dependency of the video handler.
type VideoSubmitter interface {
	SubmitVideo(ctx context.Context, sub ai.VideoSubmission) (*models.Job, error)
}

type videoRequest struct {
	Prompt          string `json:"prompt"`
	Model           string `json:"model"`
	TenantID        string `json:"tenant_id"`
	DurationSeconds *int   `json:"duration_seconds"`
	AspectRatio     string `json:"aspect_ratio"`
	WebhookURL      string `json:"webhook_url"`
}

type videoResponse struct {
	JobID           string           `json:"job_id"`
	Status          models.JobStatus `json:"status"`
	Model           string           `json:"model"`
	DurationSeconds int              `json:"duration_seconds"`
	Message         string           `json:"message,omitempty"`
	Timestamp       time.Time        `json:"timestamp"`
}

// NewVideoHandler returns an http.HandlerFunc for POST /v1/generate/video.
// It answers 202 as soon as the job is recorded; generation continues in the
// background and is observed through GET /v1/jobs/{job_id} or the webhook.
func NewVideoHandler(svc VideoSubmitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req videoRequest
		if !decodeBody(w, r, &req) {
			return
		}

		sub := ai.VideoSubmission{
			Prompt:          strings.TrimSpace(req.Prompt),
			Model:           strings.TrimSpace(req.Model),
			DurationSeconds: defaultDurationSeconds,
			AspectRatio:     strings.TrimSpace(req.AspectRatio),
			WebhookURL:      strings.TrimSpace(req.WebhookURL),
		}
		if req.DurationSeconds != nil {
			sub.DurationSeconds = *req.DurationSeconds
		}
		if sub.AspectRatio == "" {
			sub.AspectRatio = defaultAspectRatio
		}

		errs := fieldErrors{}
		requireField(errs, "prompt", sub.Prompt)
		requireField(errs, "model", sub.Model)
		if sub.DurationSeconds < minDurationSeconds || sub.DurationSeconds > maxDurationSeconds {
			errs.add("duration_seconds", "must be between %d and %d", minDurationSeconds, maxDurationSeconds)
		}
		if !aspectRatioPattern.MatchString(sub.AspectRatio) {
			errs.add("aspect_ratio", "must look like 16:9")
		}
		if sub.WebhookURL != "" && !validWebhookURL(sub.WebhookURL) {
			errs.add("webhook_url", "must be an absolute http or https URL")
		}
		if errs.write(w) {
			return
		}

		tenant, ok := resolveTenant(w, r, req.TenantID)
		if !ok {
			return
		}
		sub.TenantID = tenant

		job, err := svc.SubmitVideo(r.Context(), sub)
		if err != nil {
			slog.Error("video submission failed", "tenant_id", tenant, "model", sub.Model, "error", err)
			writeServiceError(w, err)
			return
		}

		resp := videoResponse{
			JobID:           job.ID,
			Status:          models.JobStatusProcessing,
			Model:           sub.Model,
			DurationSeconds: job.Params.DurationSeconds,
			Timestamp:       time.Now().UTC(),
		}
		if job.Params.DurationSeconds != sub.DurationSeconds {
			resp.Message = fmt.Sprintf("Duration adjusted from %ds to %ds for %s",
				sub.DurationSeconds, job.Params.DurationSeconds, sub.Model)
		}
		response.Accepted(w, resp)
	}
}

func validWebhookURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
