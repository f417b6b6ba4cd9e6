package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/contentgen/internal/cache"
	"github.com/kiranshivaraju/contentgen/internal/prompts"
	"github.com/kiranshivaraju/contentgen/internal/store"
	"github.com/kiranshivaraju/contentgen/internal/webhook"
	"github.com/kiranshivaraju/contentgen/pkg/models"
)

// ImproverModel is the model used to rewrite prompts.
const ImproverModel = "gpt-4o"

// TimedOutMessage is the failure message recorded on jobs expired by the sweeper.
const TimedOutMessage = "generation timed out"

// Timeouts bounds the upstream calls made by GenerationService.
type Timeouts struct {
	Inference time.Duration // synchronous text and image calls
	Video     time.Duration // one background video call
	CacheTTL  time.Duration // lifetime of cached job views
}

// VideoSubmission is a validated video request from the HTTP layer.
type VideoSubmission struct {
	TenantID        string
	Model           string
	Prompt          string
	DurationSeconds int
	AspectRatio     string
	WebhookURL      string
}

// TextInput is a validated text request from the HTTP layer.
type TextInput struct {
	TenantID    string
	Model       string
	Prompt      string
	PromptType  string
	MaxTokens   int
	Temperature float64
}

// ImageInput is a validated image request from the HTTP layer.
type ImageInput struct {
	TenantID   string
	Model      string
	Prompt     string
	Resolution string
	Style      string
}

// ImageResult carries the resolution actually requested upstream.
type ImageResult struct {
	URL        string
	Resolution string
}

// GenerationService orchestrates synchronous generation and the async video job lifecycle.
type GenerationService struct {
	adapter  *Adapter
	store    store.Store
	cache    cache.Cache
	notifier webhook.Notifier
	prompts  *prompts.Catalog
	timeouts Timeouts
	logger   *slog.Logger

	wg  sync.WaitGroup
	now func() time.Time
}

// NewGenerationService creates a new GenerationService.
func NewGenerationService(adapter *Adapter, st store.Store, ca cache.Cache, notifier webhook.Notifier,
	catalog *prompts.Catalog, timeouts Timeouts, logger *slog.Logger) *GenerationService {
	if logger == nil {
		logger = slog.Default()
	}
	if timeouts.CacheTTL <= 0 {
		timeouts.CacheTTL = 30 * time.Minute
	}
	return &GenerationService{
		adapter:  adapter,
		store:    st,
		cache:    ca,
		notifier: notifier,
		prompts:  catalog,
		timeouts: timeouts,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// --- Synchronous generation ---

// GenerateText applies the system prompt for in.PromptType and calls the upstream.
func (s *GenerationService) GenerateText(ctx context.Context, in TextInput) (string, error) {
	ctx, cancel := s.withTimeout(ctx, s.timeouts.Inference)
	defer cancel()

	return s.adapter.GenerateText(ctx, TextRequest{
		Model:        in.Model,
		Prompt:       in.Prompt,
		SystemPrompt: s.prompts.SystemPrompt(in.PromptType, in.Model),
		MaxTokens:    in.MaxTokens,
		Temperature:  in.Temperature,
		TenantID:     in.TenantID,
	})
}

// GenerateImage coerces the resolution for the model and returns the image URL.
func (s *GenerationService) GenerateImage(ctx context.Context, in ImageInput) (*ImageResult, error) {
	ctx, cancel := s.withTimeout(ctx, s.timeouts.Inference)
	defer cancel()

	res := ValidateResolution(in.Model, in.Resolution)
	url, err := s.adapter.GenerateImage(ctx, ImageRequest{
		Model:      in.Model,
		Prompt:     in.Prompt,
		Resolution: res,
		Style:      in.Style,
		TenantID:   in.TenantID,
	})
	if err != nil {
		return nil, err
	}
	return &ImageResult{URL: url, Resolution: res}, nil
}

// ImprovePrompt rewrites prompt for the given content type (text, image or video).
func (s *GenerationService) ImprovePrompt(ctx context.Context, tenantID, prompt, contentType string) (string, error) {
	ctx, cancel := s.withTimeout(ctx, s.timeouts.Inference)
	defer cancel()

	return s.adapter.GenerateText(ctx, TextRequest{
		Model:        ImproverModel,
		Prompt:       fmt.Sprintf("Improve this %s prompt: %s", contentType, prompt),
		SystemPrompt: s.prompts.SystemPrompt(prompts.ImproverKey, ""),
		MaxTokens:    2000,
		Temperature:  0.7,
		TenantID:     tenantID,
	})
}

// --- Async video jobs ---

// SubmitVideo creates a pending job and dispatches the upstream call in a
// background goroutine. Returns the job immediately; the duration in
// job.Params is the one actually sent upstream.
func (s *GenerationService) SubmitVideo(ctx context.Context, sub VideoSubmission) (*models.Job, error) {
	now := s.now()
	job := &models.Job{
		ID:       uuid.NewString(),
		TenantID: sub.TenantID,
		Type:     models.JobTypeVideo,
		Status:   models.JobStatusPending,
		Params: models.VideoParams{
			Model:           sub.Model,
			Prompt:          sub.Prompt,
			DurationSeconds: ValidateDuration(sub.Model, sub.DurationSeconds),
			AspectRatio:     sub.AspectRatio,
			TenantID:        sub.TenantID,
		},
		WebhookURL: sub.WebhookURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}

	s.logger.Info("video job submitted", "job_id", job.ID, "tenant_id", job.TenantID,
		"model", job.Params.Model, "duration_seconds", job.Params.DurationSeconds)

	s.wg.Add(1)
	go s.runVideo(job.ID, job.Params)

	return job, nil
}

// runVideo performs the upstream video call in a goroutine.
// It recovers from panics and never leaves a job it moved to processing
// without a terminal status unless the upstream reply was plain text.
func (s *GenerationService) runVideo(jobID string, params models.VideoParams) {
	defer s.wg.Done()
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in runVideo", "error", r, "job_id", jobID)
			s.finish(ctx, jobID, models.JobStatusFailed,
				store.WithErrorMessage(fmt.Sprintf("panic: %v", r)))
		}
	}()

	if err := s.store.UpdateJobStatus(ctx, jobID, models.JobStatusProcessing); err != nil {
		// The sweeper may have failed it already.
		s.logger.Warn("job not started", "job_id", jobID, "error", err)
		return
	}

	callCtx, cancel := s.withTimeout(ctx, s.timeouts.Video)
	defer cancel()

	ref, err := s.adapter.RequestVideo(callCtx, params)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, ErrInferenceTimeout) {
			msg = fmt.Sprintf("%s after %s", TimedOutMessage, s.timeouts.Video)
		}
		s.logger.Error("video generation failed", "job_id", jobID, "tenant_id", params.TenantID, "error", err)
		s.finish(ctx, jobID, models.JobStatusFailed, store.WithErrorMessage(msg))
		return
	}

	switch ref.Kind {
	case RefURL:
		s.finish(ctx, jobID, models.JobStatusCompleted, store.WithResult(models.JobResult{VideoURL: ref.Value}))
	case RefJobID:
		s.finish(ctx, jobID, models.JobStatusCompleted, store.WithResult(models.JobResult{ProviderReference: ref.Value}))
	default:
		// Neither a URL nor a job id: keep processing and surface the text.
		if err := s.store.UpdateJobStatus(ctx, jobID, models.JobStatusProcessing,
			store.WithStatusText(ref.Value)); err != nil {
			s.logger.Warn("recording status text failed", "job_id", jobID, "error", err)
			return
		}
		s.logger.Info("video job awaiting upstream", "job_id", jobID, "status_text", ref.Value)
	}
}

// finish applies a terminal transition and, only when this call won it,
// refreshes the cache and fires the webhook. Reports whether it won.
// Once the transition is stored the follow-up work ignores ctx's deadline;
// the notifier's own timeout bounds delivery.
func (s *GenerationService) finish(ctx context.Context, jobID string, status models.JobStatus, opts ...store.JobUpdateOption) bool {
	if err := s.store.UpdateJobStatus(ctx, jobID, status, opts...); err != nil {
		if errors.Is(err, store.ErrInvalidTransition) {
			s.logger.Info("job already terminal", "job_id", jobID, "attempted", status)
		} else {
			s.logger.Error("updating job status failed", "job_id", jobID, "status", status, "error", err)
		}
		return false
	}
	ctx = context.WithoutCancel(ctx)

	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		s.logger.Error("reloading finished job failed", "job_id", jobID, "error", err)
		return true
	}

	if err := s.cache.SetJob(ctx, job, s.timeouts.CacheTTL); err != nil {
		s.logger.Warn("caching finished job failed", "job_id", jobID, "error", err)
	}

	s.logger.Info("video job finished", "job_id", jobID, "tenant_id", job.TenantID, "status", job.Status)

	if job.WebhookURL != "" && s.notifier != nil {
		_ = s.notifier.Notify(ctx, job.WebhookURL, webhook.EventFromJob(job))
	}
	return true
}

// GetJob returns the job if it belongs to tenantID. An empty tenantID skips the
// ownership check. Jobs owned by another tenant are reported as not found.
func (s *GenerationService) GetJob(ctx context.Context, jobID, tenantID string) (*models.Job, error) {
	if job, found, err := s.cache.GetJob(ctx, jobID); err == nil && found {
		if !ownedBy(job, tenantID) {
			return nil, store.ErrNotFound
		}
		return job, nil
	} else if err != nil {
		s.logger.Debug("job cache read failed", "job_id", jobID, "error", err)
	}

	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !ownedBy(job, tenantID) {
		return nil, store.ErrNotFound
	}
	if job.Status.IsTerminal() {
		_ = s.cache.SetJob(ctx, job, s.timeouts.CacheTTL)
	}
	return job, nil
}

func ownedBy(job *models.Job, tenantID string) bool {
	return tenantID == "" || job.TenantID == tenantID
}

// ExpireStale fails every non-terminal job whose last update is older than
// olderThan. Returns the number of jobs this call failed.
func (s *GenerationService) ExpireStale(ctx context.Context, olderThan time.Duration) (int, error) {
	stale, err := s.store.ListStaleJobs(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("listing stale jobs: %w", err)
	}

	expired := 0
	for _, job := range stale {
		if s.finish(ctx, job.ID, models.JobStatusFailed, store.WithErrorMessage(TimedOutMessage)) {
			expired++
		}
	}
	return expired, nil
}

// PurgeFinished deletes terminal jobs last updated before the retention window
// and evicts their cached snapshots so polls stop seeing them.
func (s *GenerationService) PurgeFinished(ctx context.Context, retention time.Duration) (int64, error) {
	ids, err := s.store.DeleteTerminalJobs(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("purging finished jobs: %w", err)
	}
	for _, id := range ids {
		if err := s.cache.Delete(ctx, cache.JobKey(id)); err != nil {
			s.logger.Warn("evicting purged job failed", "job_id", id, "error", err)
		}
	}
	return int64(len(ids)), nil
}

// Wait blocks until every in-flight video worker has returned.
func (s *GenerationService) Wait() {
	s.wg.Wait()
}

// ProviderName reports the upstream in use.
func (s *GenerationService) ProviderName() string {
	return s.adapter.ProviderName()
}

func (s *GenerationService) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
