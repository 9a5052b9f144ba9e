// Package analysis orchestrates per-subject analysis: routing raw
// evidence to the modality analyzers, aggregating observations into
// bundles, and caching the results.
package analysis

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/homies-app/matchsvc/internal/domain"
	"github.com/homies-app/matchsvc/internal/domain/signal"
	"github.com/homies-app/matchsvc/internal/logger"
	"github.com/homies-app/matchsvc/internal/usecase/aggregate"
)

// Service routes subject evidence through the analyzer set.
type Service struct {
	aggregator *aggregate.Service
	analyzers  map[domain.Modality]aggregate.Analyzer
	cache      BundleCache
}

// New creates an analysis service. A modality without a registered
// analyzer is simply absent from every subject's bundles.
func New(aggregator *aggregate.Service, analyzers ...aggregate.Analyzer) *Service {
	byModality := make(map[domain.Modality]aggregate.Analyzer, len(analyzers))
	for _, a := range analyzers {
		byModality[a.Modality()] = a
	}
	return &Service{aggregator: aggregator, analyzers: byModality}
}

// WithCache attaches a bundle cache.
func (s *Service) WithCache(cache BundleCache) *Service {
	s.cache = cache
	return s
}

// AnalyzeSubject produces the subject's per-modality bundles. Modalities
// with no evidence, no analyzer, or only failed items are absent from
// the returned map; that is the expected common case, not an error.
// Schema violations are analyzer contract bugs and abort the call.
func (s *Service) AnalyzeSubject(
	ctx context.Context, subjectID string, profile domain.SubjectProfile,
) (map[domain.Modality]signal.Bundle, error) {
	log := logger.FromContext(ctx)
	bundles := make(map[domain.Modality]signal.Bundle)

	for _, m := range domain.Modalities() {
		items := evidenceFor(m, profile)
		if len(items) == 0 {
			continue
		}

		analyzer, ok := s.analyzers[m]
		if !ok {
			log.Debug("no analyzer registered, skipping modality",
				zap.String("modality", string(m)), zap.String("subject_id", subjectID))
			continue
		}

		if s.cache != nil {
			if cached, hit := s.cache.Get(ctx, subjectID, m, items); hit {
				bundles[m] = cached
				continue
			}
		}

		bundle, present, err := s.aggregator.AnalyzeAll(ctx, analyzer, subjectID, items)
		if err != nil {
			return nil, fmt.Errorf("aggregate %s for subject %s: %w", m, subjectID, err)
		}
		if !present {
			continue
		}

		if s.cache != nil {
			s.cache.Put(ctx, bundle, items)
		}
		bundles[m] = bundle
	}

	return bundles, nil
}

// evidenceFor splits a profile into per-modality evidence items.
func evidenceFor(m domain.Modality, profile domain.SubjectProfile) []domain.Evidence {
	switch m {
	case domain.ModalityText:
		if profile.Description == "" {
			return nil
		}
		return []domain.Evidence{{Text: profile.Description}}
	case domain.ModalityImage:
		items := make([]domain.Evidence, 0, len(profile.PhotoURLs))
		for _, url := range profile.PhotoURLs {
			if url == "" {
				continue
			}
			items = append(items, domain.Evidence{ImageURL: url})
		}
		return items
	case domain.ModalityPreference:
		if profile.Preferences == nil {
			return nil
		}
		return []domain.Evidence{{Preferences: profile.Preferences}}
	default:
		return nil
	}
}
