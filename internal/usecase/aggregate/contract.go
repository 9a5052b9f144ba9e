package aggregate

import (
	"context"

	"github.com/homies-app/matchsvc/internal/domain"
	"github.com/homies-app/matchsvc/internal/domain/signal"
)

// Analyzer turns one raw evidence item into a schema-conformant
// observation. Implementations are pluggable per modality (LLM-backed or
// deterministic); the aggregator only relies on schema conformance.
type Analyzer interface {
	Modality() domain.Modality
	Analyze(ctx context.Context, ev domain.Evidence) (signal.Observation, error)
}
