package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	mw "github.com/kiranshivaraju/contentgen/internal/api/middleware"
	"github.com/kiranshivaraju/contentgen/internal/api/response"
	"github.com/kiranshivaraju/contentgen/internal/store"
	"github.com/kiranshivaraju/contentgen/pkg/models"
)

// TenantHeader optionally scopes job lookups in header auth mode.
const TenantHeader = "X-Tenant-ID"

// JobReader is the dependency of the job polling handler.
type JobReader interface {
	GetJob(ctx context.Context, jobID, tenantID string) (*models.Job, error)
}

type jobResponse struct {
	JobID      string            `json:"job_id"`
	Status     models.JobStatus  `json:"status"`
	Progress   int               `json:"progress"`
	Result     *models.JobResult `json:"result,omitempty"`
	Error      *string           `json:"error,omitempty"`
	StatusText *string           `json:"status_text,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// NewJobStatusHandler returns an http.HandlerFunc for GET /v1/jobs/{job_id}.
// The caller's tenant is the API key's tenant when one is bound, otherwise the
// X-Tenant-ID header or tenant_id query parameter. Without any tenant the
// lookup is unscoped.
func NewJobStatusHandler(svc JobReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := strings.TrimSpace(chi.URLParam(r, "job_id"))
		if jobID == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "job_id is required", nil)
			return
		}

		requested := r.Header.Get(TenantHeader)
		if requested == "" {
			requested = r.URL.Query().Get("tenant_id")
		}
		tenant, err := mw.ResolveTenant(r, strings.TrimSpace(requested))
		if err != nil {
			if errors.Is(err, mw.ErrTenantMismatch) {
				response.Error(w, http.StatusForbidden, "TENANT_MISMATCH",
					"Access denied: resource belongs to different tenant", nil)
				return
			}
			tenant = ""
		}

		job, err := svc.GetJob(r.Context(), jobID, tenant)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				slog.Error("job lookup failed", "job_id", jobID, "error", err)
			}
			writeServiceError(w, err)
			return
		}

		slog.Debug("job polled", "job_id", jobID, "tenant_id", job.TenantID, "status", job.Status)

		response.JSON(w, jobResponse{
			JobID:      job.ID,
			Status:     job.Status,
			Progress:   models.Progress(job.Status),
			Result:     job.Result,
			Error:      job.ErrorMessage,
			StatusText: job.StatusText,
			Timestamp:  time.Now().UTC(),
		})
	}
}
