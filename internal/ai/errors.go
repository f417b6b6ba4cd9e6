package ai

import (
	"errors"
	"fmt"
)

var (
	ErrProviderUnavailable = errors.New("ai provider unavailable")
	ErrInferenceTimeout    = errors.New("ai inference timeout")
	ErrInvalidResponse     = errors.New("ai provider returned invalid response")
)

// UpstreamError wraps a failed call to the upstream provider. The message of
// the underlying error is kept verbatim so it can be surfaced to callers.
type UpstreamError struct {
	Op      string
	Err     error
	Timeout bool
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is reports true for ErrProviderUnavailable, and for ErrInferenceTimeout when
// the call ran out of time.
func (e *UpstreamError) Is(target error) bool {
	switch target {
	case ErrProviderUnavailable:
		return true
	case ErrInferenceTimeout:
		return e.Timeout
	}
	return false
}
