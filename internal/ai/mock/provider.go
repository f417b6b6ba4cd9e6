package mock

import (
	"context"
	"sync"

	"github.com/kiranshivaraju/contentgen/pkg/models"
)

// MockProvider satisfies models.Upstream for tests and AI_PROVIDER=mock.
type MockProvider struct {
	Name_        string
	CompleteFunc func(ctx context.Context, req models.CompletionRequest) (string, error)

	mu    sync.Mutex
	calls []models.CompletionRequest
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return "", nil
}

// Calls returns a copy of every request seen so far.
func (m *MockProvider) Calls() []models.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.CompletionRequest, len(m.calls))
	copy(out, m.calls)
	return out
}

// NewMockProvider returns a MockProvider with canned replies shaped like the
// real upstream's: an image link for image bots, a job id for video bots,
// and plain text otherwise.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock",
		CompleteFunc: func(_ context.Context, req models.CompletionRequest) (string, error) {
			switch req.Bot {
			case "DALL-E-3":
				return "![image](https://mock.contentgen.local/images/sample.png)", nil
			case "Sora-2", "Veo-3.1", "Runway-Gen3":
				return `Video queued. job_id: "mock-video-001"`, nil
			default:
				return "Mock response for " + req.Bot, nil
			}
		},
	}
}

// NewStaticProvider returns a MockProvider that always replies with text.
func NewStaticProvider(text string) *MockProvider {
	return &MockProvider{
		Name_: "mock-static",
		CompleteFunc: func(_ context.Context, _ models.CompletionRequest) (string, error) {
			return text, nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		CompleteFunc: func(_ context.Context, _ models.CompletionRequest) (string, error) {
			return "", err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock-timeout",
		CompleteFunc: func(ctx context.Context, _ models.CompletionRequest) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
}

// NewPanickingProvider returns a MockProvider whose Complete panics.
func NewPanickingProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock-panic",
		CompleteFunc: func(_ context.Context, _ models.CompletionRequest) (string, error) {
			panic("mock upstream exploded")
		},
	}
}

// Compile-time check that MockProvider implements Upstream.
var _ models.Upstream = (*MockProvider)(nil)
