package ai

import (
	"fmt"

	"github.com/kiranshivaraju/contentgen/internal/ai/mock"
	"github.com/kiranshivaraju/contentgen/internal/ai/poe"
	"github.com/kiranshivaraju/contentgen/internal/config"
	"github.com/kiranshivaraju/contentgen/pkg/models"
)

// NewProvider constructs the appropriate upstream based on config.
// Called once at server startup.
func NewProvider(cfg config.AIConfig) (models.Upstream, error) {
	switch cfg.Provider {
	case config.ProviderPoe:
		p, err := poe.NewProvider(cfg.Poe)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.ProviderMock:
		return mock.NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of poe, mock", cfg.Provider)
	}
}
