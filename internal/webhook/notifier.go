package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/kiranshivaraju/contentgen/pkg/models"
)

// Sentinel errors for webhook delivery failures.
var (
	ErrUnreachable = errors.New("webhook unreachable")
	ErrTimeout     = errors.New("webhook timeout")
	ErrRejected    = errors.New("webhook rejected")
)

// Event is the JSON body delivered when a job reaches a terminal status.
type Event struct {
	JobID  string            `json:"job_id"`
	Status models.JobStatus  `json:"status"`
	Result *models.JobResult `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// EventFromJob builds the webhook payload for a terminal job.
func EventFromJob(job *models.Job) Event {
	ev := Event{JobID: job.ID, Status: job.Status, Result: job.Result}
	if job.ErrorMessage != nil {
		ev.Error = *job.ErrorMessage
	}
	return ev
}

// Notifier delivers job events to caller-supplied URLs. A delivery is
// attempted once; the returned error is informational only.
type Notifier interface {
	Notify(ctx context.Context, url string, event Event) error
}

// HTTPNotifier implements Notifier with a JSON POST.
type HTTPNotifier struct {
	client *http.Client
	logger *slog.Logger
}

// NewHTTPNotifier creates a notifier whose deliveries give up after timeout.
func NewHTTPNotifier(timeout time.Duration, logger *slog.Logger) *HTTPNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPNotifier{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (n *HTTPNotifier) Notify(ctx context.Context, url string, event Event) error {
	err := n.post(ctx, url, event)
	if err != nil {
		n.logger.Warn("webhook delivery failed", "job_id", event.JobID, "url", url, "error", err)
		return err
	}
	n.logger.Info("webhook delivered", "job_id", event.JobID, "status", event.Status)
	return nil
}

func (n *HTTPNotifier) post(ctx context.Context, url string, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "contentgen-webhook/1")

	resp, err := n.client.Do(req)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}
	return nil
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

var _ Notifier = (*HTTPNotifier)(nil)
