// Package schema declares the fixed per-modality feature schemas: which
// features each modality produces, their value kinds, similarity weights,
// numeric normalization ranges, and human-readable labels. The tables are
// compile-time constants so scores stay stable across calls and releases.
package schema

import (
	"fmt"
	"math"

	"github.com/homies-app/matchsvc/internal/domain"
	"github.com/homies-app/matchsvc/internal/domain/signal"
)

// FeatureSpec describes one feature of a modality schema.
type FeatureSpec struct {
	name       string
	kind       signal.Kind
	weight     float64
	rangeWidth float64 // numeric normalization constant; 0 for non-numeric
	label      string  // short human-readable label for explanations
}

// Name returns the feature name.
func (f FeatureSpec) Name() string { return f.name }

// Kind returns the feature value kind.
func (f FeatureSpec) Kind() signal.Kind { return f.kind }

// Weight returns the feature's share of its modality score.
func (f FeatureSpec) Weight() float64 { return f.weight }

// RangeWidth returns the fixed numeric normalization range.
func (f FeatureSpec) RangeWidth() float64 { return f.rangeWidth }

// Label returns the explanation label.
func (f FeatureSpec) Label() string { return f.label }

// Schema is the fixed feature schema of one modality.
type Schema struct {
	modality domain.Modality
	features []FeatureSpec
}

// Modality returns the modality the schema belongs to.
func (s *Schema) Modality() domain.Modality { return s.modality }

// Features returns the feature specs in declaration order. Declaration
// order drives comparison and explanation tie-break order.
func (s *Schema) Features() []FeatureSpec {
	out := make([]FeatureSpec, len(s.features))
	copy(out, s.features)
	return out
}

// Feature returns the spec for the named feature.
func (s *Schema) Feature(name string) (FeatureSpec, bool) {
	for _, f := range s.features {
		if f.name == name {
			return f, true
		}
	}
	return FeatureSpec{}, false
}

// schemas holds the per-modality feature tables. Feature names follow the
// analyzer output contract (sentiment, keywords, personality_traits for
// text; cleanliness_score, detected_objects, room_style for images;
// interests, lifestyle, noise_tolerance for structured preferences).
var schemas = map[domain.Modality]Schema{
	domain.ModalityText: {
		modality: domain.ModalityText,
		features: []FeatureSpec{
			{name: "sentiment", kind: signal.KindNumeric, weight: 0.30, rangeWidth: 1.0, label: "overall tone of self-description"},
			{name: "keywords", kind: signal.KindSet, weight: 0.25, label: "themes in self-description"},
			{name: "personality_traits", kind: signal.KindSet, weight: 0.25, label: "personality traits"},
			{name: "cleanliness_pref", kind: signal.KindCategorical, weight: 0.20, label: "stated cleanliness preference"},
		},
	},
	domain.ModalityImage: {
		modality: domain.ModalityImage,
		features: []FeatureSpec{
			{name: "cleanliness_score", kind: signal.KindNumeric, weight: 0.50, rangeWidth: 1.0, label: "tidiness of living space"},
			{name: "detected_objects", kind: signal.KindSet, weight: 0.30, label: "items in living space"},
			{name: "room_style", kind: signal.KindCategorical, weight: 0.20, label: "living space style"},
		},
	},
	domain.ModalityPreference: {
		modality: domain.ModalityPreference,
		features: []FeatureSpec{
			{name: "interests", kind: signal.KindSet, weight: 0.40, label: "shared interests"},
			{name: "lifestyle", kind: signal.KindCategorical, weight: 0.30, label: "lifestyle"},
			{name: "noise_tolerance", kind: signal.KindNumeric, weight: 0.30, rangeWidth: 1.0, label: "noise tolerance"},
		},
	},
}

// defaultModalityWeights is the cross-modality weighting, renormalized by
// the engine over the modalities present for both subjects.
var defaultModalityWeights = map[domain.Modality]float64{
	domain.ModalityText:       0.4,
	domain.ModalityImage:      0.3,
	domain.ModalityPreference: 0.3,
}

// ForModality returns the fixed schema of a modality.
func ForModality(m domain.Modality) (Schema, bool) {
	s, ok := schemas[m]
	return s, ok
}

// DefaultModalityWeights returns a copy of the default cross-modality weights.
func DefaultModalityWeights() map[domain.Modality]float64 {
	out := make(map[domain.Modality]float64, len(defaultModalityWeights))
	for m, w := range defaultModalityWeights {
		out[m] = w
	}
	return out
}

// weightTolerance bounds float drift when checking that weights sum to 1.
const weightTolerance = 1e-9

// VerifyTables exhaustively validates the weight and range tables.
// Called once at engine construction so a bad table fails fast instead of
// corrupting scores at request time.
func VerifyTables() error {
	for _, m := range domain.Modalities() {
		s, ok := schemas[m]
		if !ok {
			return fmt.Errorf("no schema declared for modality %s", m)
		}
		var sum float64
		for _, f := range s.features {
			if f.weight <= 0 {
				return fmt.Errorf("%s.%s: weight must be positive, got %g", m, f.name, f.weight)
			}
			if f.kind == signal.KindNumeric && f.rangeWidth <= 0 {
				return fmt.Errorf("%s.%s: numeric feature needs a positive range", m, f.name)
			}
			if f.kind != signal.KindNumeric && f.rangeWidth != 0 {
				return fmt.Errorf("%s.%s: range declared on non-numeric feature", m, f.name)
			}
			sum += f.weight
		}
		if math.Abs(sum-1.0) > weightTolerance {
			return fmt.Errorf("%s: feature weights sum to %g, want 1", m, sum)
		}
	}
	var sum float64
	for _, w := range defaultModalityWeights {
		sum += w
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("modality weights sum to %g, want 1", sum)
	}
	return nil
}

// ValidateFeatures checks a feature map against the modality schema:
// exactly the declared keys, each with the declared kind. Violations are
// analyzer contract bugs and map to domain.ErrSchemaMismatch; coercing
// them silently would corrupt the similarity math downstream.
func ValidateFeatures(m domain.Modality, features map[string]signal.Value) error {
	s, ok := schemas[m]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownModality, m)
	}
	for _, spec := range s.features {
		v, present := features[spec.name]
		if !present {
			return fmt.Errorf("%w: %s bundle missing feature %q", domain.ErrSchemaMismatch, m, spec.name)
		}
		if v.Kind() != spec.kind {
			return fmt.Errorf("%w: %s.%s is %s, want %s",
				domain.ErrSchemaMismatch, m, spec.name, v.Kind(), spec.kind)
		}
	}
	if len(features) != len(s.features) {
		for name := range features {
			if _, known := s.Feature(name); !known {
				return fmt.Errorf("%w: %s bundle has undeclared feature %q",
					domain.ErrSchemaMismatch, m, name)
			}
		}
	}
	return nil
}

// ValidateBundle checks a bundle against its declared modality schema.
func ValidateBundle(b *signal.Bundle) error {
	return ValidateFeatures(b.Modality(), b.Features())
}
