package analysis

import (
	"context"

	"github.com/homies-app/matchsvc/internal/domain"
	"github.com/homies-app/matchsvc/internal/domain/signal"
)

// BundleCache caches aggregated bundles keyed by subject, modality, and
// the raw evidence that produced them.
type BundleCache interface {
	Get(ctx context.Context, subjectID string, m domain.Modality, items []domain.Evidence) (signal.Bundle, bool)
	Put(ctx context.Context, bundle signal.Bundle, items []domain.Evidence)
}
