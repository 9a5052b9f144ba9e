// Package preference implements the structured-preference analyzer.
// Unlike the text and image analyzers it needs no model: the
// questionnaire is already structured, so analysis is normalization.
package preference

import (
	"context"
	"fmt"
	"strings"

	"github.com/homies-app/matchsvc/internal/domain"
	"github.com/homies-app/matchsvc/internal/domain/signal"
)

// Analyzer normalizes a lifestyle questionnaire into a preference
// observation.
type Analyzer struct{}

// New creates a preference analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Modality implements aggregate.Analyzer.
func (a *Analyzer) Modality() domain.Modality {
	return domain.ModalityPreference
}

// Analyze normalizes the questionnaire: interests and lifestyle are
// lowercased and trimmed, noise tolerance is clamped to [0,1].
// Confidence reflects how much of the questionnaire was filled in.
func (a *Analyzer) Analyze(_ context.Context, ev domain.Evidence) (signal.Observation, error) {
	if ev.Preferences == nil {
		return signal.Observation{}, fmt.Errorf("%w: no preferences supplied", domain.ErrInvalidInput)
	}
	prefs := ev.Preferences

	interests := make([]string, 0, len(prefs.Interests))
	for _, it := range prefs.Interests {
		if normalized := strings.ToLower(strings.TrimSpace(it)); normalized != "" {
			interests = append(interests, normalized)
		}
	}

	noise := prefs.NoiseTolerance
	if noise < 0 {
		noise = 0
	}
	if noise > 1 {
		noise = 1
	}

	features := map[string]signal.Value{
		"interests":       signal.NewSet(interests...),
		"lifestyle":       signal.Category(strings.ToLower(strings.TrimSpace(prefs.Lifestyle))),
		"noise_tolerance": signal.Number(noise),
	}

	return signal.NewObservation(features, questionnaireConfidence(interests, prefs.Lifestyle)), nil
}

// questionnaireConfidence scores evidence completeness: each answered
// section contributes a third, noise tolerance always counts since zero
// is a valid answer.
func questionnaireConfidence(interests []string, lifestyle string) float64 {
	answered := 1.0 // noise_tolerance
	if len(interests) > 0 {
		answered++
	}
	if strings.TrimSpace(lifestyle) != "" {
		answered++
	}
	return answered / 3
}
