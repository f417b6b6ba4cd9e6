package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/contentgen/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")
var ErrInvalidTransition = errors.New("invalid job status transition")

// Store is the data access interface. Job and API key persistence goes through here.
// Implementations must be safe for concurrent use; each call is atomic per record.
type Store interface {
	Ping(ctx context.Context) error

	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
	UpdateJobStatus(ctx context.Context, id string, status models.JobStatus, opts ...JobUpdateOption) error
	ListStaleJobs(ctx context.Context, before time.Time) ([]*models.Job, error)
	DeleteTerminalJobs(ctx context.Context, before time.Time) ([]string, error)

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context, tenantID string) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID, tenantID string) error
}

// validTransitions lists the statuses reachable from each non-terminal status.
// processing -> processing records an interim status text.
var validTransitions = map[models.JobStatus][]models.JobStatus{
	models.JobStatusPending:    {models.JobStatusProcessing, models.JobStatusFailed},
	models.JobStatusProcessing: {models.JobStatusProcessing, models.JobStatusCompleted, models.JobStatusFailed},
}

// sourcesFor returns the statuses from which a move to target is allowed.
func sourcesFor(target models.JobStatus) []models.JobStatus {
	var from []models.JobStatus
	for src, targets := range validTransitions {
		for _, t := range targets {
			if t == target {
				from = append(from, src)
			}
		}
	}
	return from
}

func canTransition(from, to models.JobStatus) bool {
	for _, t := range validTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

type jobUpdateParams struct {
	Result       *models.JobResult
	ErrorMessage *string
	StatusText   *string
}

type JobUpdateOption func(*jobUpdateParams)

func WithResult(r models.JobResult) JobUpdateOption {
	return func(p *jobUpdateParams) {
		p.Result = &r
	}
}

func WithErrorMessage(msg string) JobUpdateOption {
	return func(p *jobUpdateParams) {
		p.ErrorMessage = &msg
	}
}

func WithStatusText(text string) JobUpdateOption {
	return func(p *jobUpdateParams) {
		p.StatusText = &text
	}
}

func applyOptions(opts []JobUpdateOption) *jobUpdateParams {
	params := &jobUpdateParams{}
	for _, opt := range opts {
		opt(params)
	}
	return params
}

// checkPayload enforces that results accompany completion and errors accompany failure only.
func checkPayload(status models.JobStatus, p *jobUpdateParams) error {
	switch status {
	case models.JobStatusCompleted:
		if p.Result == nil || p.ErrorMessage != nil {
			return errors.New("completed job requires a result and no error")
		}
	case models.JobStatusFailed:
		if p.ErrorMessage == nil || p.Result != nil {
			return errors.New("failed job requires an error message and no result")
		}
	default:
		if p.Result != nil || p.ErrorMessage != nil {
			return errors.New("non-terminal job cannot carry a result or error")
		}
	}
	return nil
}
