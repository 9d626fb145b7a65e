package ports

import (
	"context"

	"github.com/epsflow/radicador/internal/core/domain"
)

// BatchRunner is the inbound contract for one classification run over
// an input path.
type BatchRunner interface {
	Run(ctx context.Context, organization, inputPath string) (*domain.RunSummary, error)
}
