// Package aggregate reduces per-item analyzer observations into one
// per-modality signal bundle per subject.
package aggregate

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/homies-app/matchsvc/internal/domain"
	"github.com/homies-app/matchsvc/internal/domain/schema"
	"github.com/homies-app/matchsvc/internal/domain/signal"
	"github.com/homies-app/matchsvc/internal/logger"
)

// setTopK bounds set-feature size after aggregation regardless of how
// many items contributed.
const setTopK = 10

// maxParallelAnalyses caps analyzer fan-out per subject/modality.
const maxParallelAnalyses = 8

// Service is the modality aggregator.
type Service struct{}

// New creates an aggregation service.
func New() *Service {
	return &Service{}
}

// Aggregate reduces zero or more observations for one subject/modality
// into at most one bundle. ok is false when items is empty — an absent
// modality, not an error. All reducers are order-independent, so the
// result does not depend on item order.
func (s *Service) Aggregate(
	modality domain.Modality, subjectID string, items []signal.Observation,
) (signal.Bundle, bool, error) {
	sch, known := schema.ForModality(modality)
	if !known {
		return signal.Bundle{}, false, fmt.Errorf("%w: %s", domain.ErrUnknownModality, modality)
	}
	if len(items) == 0 {
		return signal.Bundle{}, false, nil
	}

	for i := range items {
		if err := schema.ValidateFeatures(modality, items[i].Features()); err != nil {
			return signal.Bundle{}, false, fmt.Errorf("item %d: %w", i, err)
		}
	}

	features := make(map[string]signal.Value, len(sch.Features()))
	for _, spec := range sch.Features() {
		switch spec.Kind() {
		case signal.KindNumeric:
			features[spec.Name()] = signal.Number(reduceNumeric(spec.Name(), items))
		case signal.KindSet:
			features[spec.Name()] = signal.NewSet(reduceSet(spec.Name(), items)...)
		case signal.KindCategorical:
			features[spec.Name()] = signal.Category(reduceCategorical(spec.Name(), items))
		}
	}

	bundle := signal.NewBundle(modality, subjectID, features, bundleConfidence(items))
	return bundle, true, nil
}

// AnalyzeAll fans the analyzer out over raw evidence items, treats failed
// items as absent, and aggregates the rest. ok is false when no item
// produced an observation (empty input or all items failed).
func (s *Service) AnalyzeAll(
	ctx context.Context, analyzer Analyzer, subjectID string, items []domain.Evidence,
) (signal.Bundle, bool, error) {
	if len(items) == 0 {
		return signal.Bundle{}, false, nil
	}

	modality := analyzer.Modality()
	log := logger.FromContext(ctx)

	observations := make([]*signal.Observation, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelAnalyses)
	for i, ev := range items {
		i, ev := i, ev
		g.Go(func() error {
			obs, err := analyzer.Analyze(gctx, ev)
			if err != nil {
				failure := domain.NewAnalysisFailure(modality, subjectID, err)
				log.Warn("analysis item failed, treating as absent",
					zap.String("modality", string(modality)),
					zap.String("subject_id", subjectID),
					zap.Int("item", i),
					zap.Error(failure),
				)
				return nil
			}
			observations[i] = &obs
			return nil
		})
	}
	// Goroutines never return errors; failures are collected as nils.
	_ = g.Wait()

	succeeded := make([]signal.Observation, 0, len(observations))
	for _, obs := range observations {
		if obs != nil {
			succeeded = append(succeeded, *obs)
		}
	}
	return s.Aggregate(modality, subjectID, succeeded)
}

// reduceNumeric is the confidence-weighted mean across items. Falls back
// to the plain mean when all confidences are zero.
func reduceNumeric(name string, items []signal.Observation) float64 {
	var weighted, totalWeight, plain float64
	for i := range items {
		v, _ := items[i].Feature(name)
		c := items[i].Confidence()
		weighted += v.Number() * c
		totalWeight += c
		plain += v.Number()
	}
	if totalWeight == 0 {
		return plain / float64(len(items))
	}
	return weighted / totalWeight
}

// reduceSet unions item sets and ranks members by how many items mention
// them, truncated to setTopK. Ties break lexicographically so the result
// is invariant under item reordering.
func reduceSet(name string, items []signal.Observation) []string {
	counts := make(map[string]int)
	for i := range items {
		v, _ := items[i].Feature(name)
		for _, member := range v.Set() {
			counts[member]++
		}
	}

	members := make([]string, 0, len(counts))
	for m := range counts {
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool {
		if counts[members[i]] != counts[members[j]] {
			return counts[members[i]] > counts[members[j]]
		}
		return members[i] < members[j]
	})

	if len(members) > setTopK {
		members = members[:setTopK]
	}
	return members
}

// reduceCategorical is the mode across items, ties broken by the
// lexicographically smallest value for order independence.
func reduceCategorical(name string, items []signal.Observation) string {
	counts := make(map[string]int)
	for i := range items {
		v, _ := items[i].Feature(name)
		counts[v.Category()]++
	}

	var best string
	bestCount := -1
	for value, count := range counts {
		if count > bestCount || (count == bestCount && value < best) {
			best = value
			bestCount = count
		}
	}
	return best
}

// bundleConfidence is the mean item confidence discounted by 1 - 1/(1+n):
// more corroborating items raise confidence with diminishing returns.
func bundleConfidence(items []signal.Observation) float64 {
	var sum float64
	for i := range items {
		sum += items[i].Confidence()
	}
	n := float64(len(items))
	conf := (sum / n) * (1 - 1/(1+n))
	if conf < 0 {
		return 0
	}
	if conf > 1 {
		return 1
	}
	return conf
}
