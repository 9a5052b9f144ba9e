// Package match combines per-modality signal bundles for two subjects
// into a weighted, confidence-adjusted compatibility score with an
// explainable breakdown.
package match

import (
	"fmt"
	"time"

	"github.com/homies-app/matchsvc/internal/domain"
	dommatch "github.com/homies-app/matchsvc/internal/domain/match"
	"github.com/homies-app/matchsvc/internal/domain/schema"
	"github.com/homies-app/matchsvc/internal/domain/signal"
	"github.com/homies-app/matchsvc/internal/metrics"
)

// maxFactors caps the explanation regardless of schema growth.
const maxFactors = 6

// Service is the compatibility engine. Stateless and pure: every
// ComputeMatch call depends only on its inputs, so calls may run
// concurrently without locking.
type Service struct {
	weights map[domain.Modality]float64
}

// New creates a compatibility engine with the default modality weights.
// The schema weight and range tables are verified here so a bad table
// fails at startup, not per request.
func New() (*Service, error) {
	if err := schema.VerifyTables(); err != nil {
		return nil, fmt.Errorf("verify schema tables: %w", err)
	}
	return &Service{weights: schema.DefaultModalityWeights()}, nil
}

// WithModalityWeights overrides the cross-modality weights. Weights must
// be positive for every known modality; they are renormalized per call
// over the modalities actually present.
func (s *Service) WithModalityWeights(weights map[domain.Modality]float64) (*Service, error) {
	for _, m := range domain.Modalities() {
		w, ok := weights[m]
		if !ok {
			return nil, fmt.Errorf("missing weight for modality %s", m)
		}
		if w <= 0 {
			return nil, fmt.Errorf("weight for modality %s must be positive, got %g", m, w)
		}
	}
	copied := make(map[domain.Modality]float64, len(weights))
	for m, w := range weights {
		if !m.Valid() {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownModality, m)
		}
		copied[m] = w
	}
	s.weights = copied
	return s, nil
}

// ComputeMatch compares two subjects' bundle maps. A modality missing
// from either map is excluded from the score and from the weight
// normalization denominator; it is never treated as incompatible. With
// zero shared modalities the call fails with ErrInsufficientSignal.
func (s *Service) ComputeMatch(
	a, b map[domain.Modality]signal.Bundle,
) (dommatch.Result, error) {
	start := time.Now()

	for _, bundles := range []map[domain.Modality]signal.Bundle{a, b} {
		for m, bundle := range bundles {
			if bundle.Modality() != m {
				return dommatch.Result{}, fmt.Errorf(
					"%w: bundle keyed as %s declares modality %s",
					domain.ErrSchemaMismatch, m, bundle.Modality())
			}
			if err := schema.ValidateBundle(&bundle); err != nil {
				return dommatch.Result{}, err
			}
		}
	}

	// Iterate in declared order so contributions and factors are
	// byte-for-byte reproducible for fixed inputs.
	comparisons := make([]dommatch.Comparison, 0, len(domain.Modalities()))
	var weightSum, scoreSum, confSum float64
	perModality := make(map[domain.Modality]float64)

	for _, m := range domain.Modalities() {
		bundleA, okA := a[m]
		bundleB, okB := b[m]
		if !okA || !okB {
			continue
		}

		cmp := compareModality(m, &bundleA, &bundleB)
		comparisons = append(comparisons, cmp)
		perModality[m] = cmp.Score()

		w := s.weights[m]
		weightSum += w
		scoreSum += w * cmp.Score()
		confSum += w * (bundleA.Confidence() + bundleB.Confidence()) / 2
	}

	if len(comparisons) == 0 {
		metrics.MatchRequestsTotal.WithLabelValues("insufficient_signal").Inc()
		return dommatch.Result{}, domain.ErrInsufficientSignal
	}

	result := dommatch.NewResult(
		scoreSum/weightSum,
		perModality,
		BuildFactors(comparisons, maxFactors),
		confSum/weightSum,
	)

	metrics.MatchRequestsTotal.WithLabelValues("ok").Inc()
	metrics.MatchScore.Observe(result.OverallScore())
	metrics.MatchDuration.Observe(time.Since(start).Seconds())
	return result, nil
}

// compareModality computes the weighted per-feature similarity of two
// same-modality bundles. Bundles are schema-validated by the caller, so
// features are key-aligned by construction.
func compareModality(m domain.Modality, a, b *signal.Bundle) dommatch.Comparison {
	sch, _ := schema.ForModality(m)
	specs := sch.Features()

	contributions := make([]dommatch.Contribution, 0, len(specs))
	var score float64
	for _, spec := range specs {
		va, _ := a.Feature(spec.Name())
		vb, _ := b.Feature(spec.Name())
		sim := featureSimilarity(spec, va, vb)
		score += sim * spec.Weight()
		contributions = append(contributions,
			dommatch.NewContribution(spec.Name(), spec.Label(), sim, spec.Weight()))
	}

	return dommatch.NewComparison(m, clamp01(score), contributions)
}

// featureSimilarity dispatches on the feature kind. Numeric similarity
// divides by the schema's fixed range, never a runtime-observed one, to
// keep scores stable across calls.
func featureSimilarity(spec schema.FeatureSpec, a, b signal.Value) float64 {
	switch spec.Kind() {
	case signal.KindNumeric:
		diff := a.Number() - b.Number()
		if diff < 0 {
			diff = -diff
		}
		return clamp01(1 - diff/spec.RangeWidth())
	case signal.KindSet:
		return jaccard(a.Set(), b.Set())
	case signal.KindCategorical:
		if a.Category() == b.Category() {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// jaccard is |A∩B| / |A∪B|. Two empty sets are identical, not dissimilar.
func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	inA := make(map[string]bool, len(a))
	for _, m := range a {
		inA[m] = true
	}
	union := make(map[string]bool, len(a)+len(b))
	var intersection int
	for _, m := range a {
		union[m] = true
	}
	for _, m := range b {
		if inA[m] {
			intersection++
		}
		union[m] = true
	}
	return float64(intersection) / float64(len(union))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
