package match

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/homies-app/matchsvc/internal/domain"
	"github.com/homies-app/matchsvc/internal/domain/signal"
)

// --- Helpers ---

func textBundle(subjectID string, sentiment float64, keywords, traits []string, pref string, conf float64) signal.Bundle {
	return signal.NewBundle(domain.ModalityText, subjectID, map[string]signal.Value{
		"sentiment":          signal.Number(sentiment),
		"keywords":           signal.NewSet(keywords...),
		"personality_traits": signal.NewSet(traits...),
		"cleanliness_pref":   signal.Category(pref),
	}, conf)
}

func imageBundle(subjectID string, cleanliness float64, objects []string, style string, conf float64) signal.Bundle {
	return signal.NewBundle(domain.ModalityImage, subjectID, map[string]signal.Value{
		"cleanliness_score": signal.Number(cleanliness),
		"detected_objects":  signal.NewSet(objects...),
		"room_style":        signal.Category(style),
	}, conf)
}

func preferenceBundle(subjectID string, interests []string, lifestyle string, noise, conf float64) signal.Bundle {
	return signal.NewBundle(domain.ModalityPreference, subjectID, map[string]signal.Value{
		"interests":       signal.NewSet(interests...),
		"lifestyle":       signal.Category(lifestyle),
		"noise_tolerance": signal.Number(noise),
	}, conf)
}

func bundles(bs ...signal.Bundle) map[domain.Modality]signal.Bundle {
	out := make(map[domain.Modality]signal.Bundle, len(bs))
	for _, b := range bs {
		out[b.Modality()] = b
	}
	return out
}

func mustNew(t *testing.T) *Service {
	t.Helper()
	svc, err := New()
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	return svc
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// --- ComputeMatch ---

func TestComputeMatchSingleModality(t *testing.T) {
	svc := mustNew(t)

	a := bundles(textBundle("a", 0.8, []string{"music", "cooking"}, []string{"calm"}, "high", 0.9))
	b := bundles(textBundle("b", 0.6, []string{"music", "hiking"}, []string{"calm"}, "high", 0.7))

	result, err := svc.ComputeMatch(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// sentiment 1-|0.8-0.6|=0.8, keywords jaccard 1/3,
	// personality_traits 1, cleanliness_pref 1
	wantText := 0.8*0.30 + (1.0/3)*0.25 + 1*0.25 + 1*0.20
	if !approxEqual(result.PerModalityScores()[domain.ModalityText], wantText) {
		t.Errorf("expected text score %g, got %g",
			wantText, result.PerModalityScores()[domain.ModalityText])
	}

	// Only one modality present: its weight renormalizes to 1.
	if !approxEqual(result.OverallScore(), wantText) {
		t.Errorf("expected overall %g, got %g", wantText, result.OverallScore())
	}
	if !approxEqual(result.Confidence(), (0.9+0.7)/2) {
		t.Errorf("expected confidence 0.8, got %g", result.Confidence())
	}
	if len(result.PerModalityScores()) != 1 {
		t.Errorf("expected 1 modality score, got %d", len(result.PerModalityScores()))
	}
}

func TestComputeMatchIdenticalBundlesScoreOne(t *testing.T) {
	svc := mustNew(t)

	a := bundles(
		textBundle("a", 0.7, []string{"music"}, []string{"calm"}, "high", 0.8),
		imageBundle("a", 0.9, []string{"desk", "plant"}, "modern", 0.6),
		preferenceBundle("a", []string{"hiking"}, "quiet", 0.4, 1.0),
	)
	b := bundles(
		textBundle("b", 0.7, []string{"music"}, []string{"calm"}, "high", 0.8),
		imageBundle("b", 0.9, []string{"desk", "plant"}, "modern", 0.6),
		preferenceBundle("b", []string{"hiking"}, "quiet", 0.4, 1.0),
	)

	result, err := svc.ComputeMatch(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approxEqual(result.OverallScore(), 1) {
		t.Errorf("expected perfect score, got %g", result.OverallScore())
	}
}

func TestComputeMatchNoSharedModality(t *testing.T) {
	svc := mustNew(t)

	a := bundles(textBundle("a", 0.8, nil, nil, "high", 0.9))
	b := bundles(imageBundle("b", 0.8, nil, "modern", 0.9))

	_, err := svc.ComputeMatch(a, b)
	if !errors.Is(err, domain.ErrInsufficientSignal) {
		t.Errorf("expected ErrInsufficientSignal, got %v", err)
	}
}

func TestComputeMatchBothEmpty(t *testing.T) {
	svc := mustNew(t)

	_, err := svc.ComputeMatch(nil, nil)
	if !errors.Is(err, domain.ErrInsufficientSignal) {
		t.Errorf("expected ErrInsufficientSignal, got %v", err)
	}
}

func TestComputeMatchMissingModalityRenormalizes(t *testing.T) {
	svc := mustNew(t)

	// Image is missing for B: text (0.4) and preference (0.3) renormalize
	// over 0.7 and image never penalizes the score.
	a := bundles(
		textBundle("a", 0.7, []string{"music"}, []string{"calm"}, "high", 0.8),
		imageBundle("a", 0.9, []string{"desk"}, "modern", 0.6),
		preferenceBundle("a", []string{"hiking"}, "quiet", 0.4, 1.0),
	)
	b := bundles(
		textBundle("b", 0.7, []string{"music"}, []string{"calm"}, "high", 0.8),
		preferenceBundle("b", []string{"reading"}, "quiet", 0.4, 1.0),
	)

	result, err := svc.ComputeMatch(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	scores := result.PerModalityScores()
	if _, present := scores[domain.ModalityImage]; present {
		t.Error("image score should be absent, not zero")
	}

	textScore := scores[domain.ModalityText]
	prefScore := scores[domain.ModalityPreference]
	want := (0.4*textScore + 0.3*prefScore) / 0.7
	if !approxEqual(result.OverallScore(), want) {
		t.Errorf("expected renormalized overall %g, got %g", want, result.OverallScore())
	}
}

func TestComputeMatchConfidenceWeighting(t *testing.T) {
	svc := mustNew(t)

	a := bundles(
		textBundle("a", 0.7, nil, nil, "high", 0.9),
		preferenceBundle("a", nil, "quiet", 0.4, 0.5),
	)
	b := bundles(
		textBundle("b", 0.7, nil, nil, "high", 0.7),
		preferenceBundle("b", nil, "quiet", 0.4, 0.3),
	)

	result, err := svc.ComputeMatch(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := (0.4*(0.9+0.7)/2 + 0.3*(0.5+0.3)/2) / 0.7
	if !approxEqual(result.Confidence(), want) {
		t.Errorf("expected confidence %g, got %g", want, result.Confidence())
	}
}

func TestComputeMatchDeterministic(t *testing.T) {
	svc := mustNew(t)

	a := bundles(
		textBundle("a", 0.8, []string{"music", "art"}, []string{"calm", "social"}, "high", 0.9),
		imageBundle("a", 0.4, []string{"plant", "lamp"}, "rustic", 0.5),
	)
	b := bundles(
		textBundle("b", 0.5, []string{"art"}, []string{"social"}, "medium", 0.6),
		imageBundle("b", 0.7, []string{"plant"}, "modern", 0.8),
	)

	first, err := svc.ComputeMatch(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.ComputeMatch(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.OverallScore() != second.OverallScore() {
		t.Error("expected identical scores for identical inputs")
	}
	if !reflect.DeepEqual(first.Factors(), second.Factors()) {
		t.Errorf("expected identical factors:\n%v\n%v", first.Factors(), second.Factors())
	}
}

func TestComputeMatchClosenessMonotonic(t *testing.T) {
	svc := mustNew(t)

	base := bundles(textBundle("a", 0.8, []string{"music"}, []string{"calm"}, "high", 0.9))
	near := bundles(textBundle("b", 0.75, []string{"music"}, []string{"calm"}, "high", 0.9))
	far := bundles(textBundle("c", 0.2, []string{"music"}, []string{"calm"}, "high", 0.9))

	nearResult, err := svc.ComputeMatch(base, near)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	farResult, err := svc.ComputeMatch(base, far)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if nearResult.OverallScore() <= farResult.OverallScore() {
		t.Errorf("closer values must score higher: near=%g far=%g",
			nearResult.OverallScore(), farResult.OverallScore())
	}
}

func TestComputeMatchBundleKeyedUnderWrongModality(t *testing.T) {
	svc := mustNew(t)

	a := map[domain.Modality]signal.Bundle{
		domain.ModalityImage: textBundle("a", 0.8, nil, nil, "high", 0.9),
	}
	b := bundles(imageBundle("b", 0.8, nil, "modern", 0.9))

	_, err := svc.ComputeMatch(a, b)
	if !errors.Is(err, domain.ErrSchemaMismatch) {
		t.Errorf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestComputeMatchInvalidBundle(t *testing.T) {
	svc := mustNew(t)

	incomplete := signal.NewBundle(domain.ModalityText, "a", map[string]signal.Value{
		"sentiment": signal.Number(0.8),
	}, 0.9)

	_, err := svc.ComputeMatch(bundles(incomplete), bundles(incomplete))
	if !errors.Is(err, domain.ErrSchemaMismatch) {
		t.Errorf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestComputeMatchEmptySetsAreIdentical(t *testing.T) {
	svc := mustNew(t)

	a := bundles(preferenceBundle("a", nil, "quiet", 0.5, 0.8))
	b := bundles(preferenceBundle("b", nil, "quiet", 0.5, 0.8))

	result, err := svc.ComputeMatch(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approxEqual(result.OverallScore(), 1) {
		t.Errorf("two empty interest sets should be identical, got %g", result.OverallScore())
	}
}

// --- WithModalityWeights ---

func TestWithModalityWeights(t *testing.T) {
	svc := mustNew(t)

	_, err := svc.WithModalityWeights(map[domain.Modality]float64{
		domain.ModalityText:       1,
		domain.ModalityImage:      1,
		domain.ModalityPreference: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a := bundles(
		textBundle("a", 1.0, nil, nil, "high", 0.8),
		preferenceBundle("a", nil, "quiet", 0.0, 0.8),
	)
	b := bundles(
		textBundle("b", 1.0, nil, nil, "high", 0.8),
		preferenceBundle("b", nil, "quiet", 1.0, 0.8),
	)

	result, err := svc.ComputeMatch(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// text scores 1.0; preference: interests 1 (both empty), lifestyle 1,
	// noise 1-|0-1| = 0 -> 0.4 + 0.3 = 0.7. Weights renormalize 1:2.
	want := (1*1.0 + 2*0.7) / 3
	if !approxEqual(result.OverallScore(), want) {
		t.Errorf("expected overall %g, got %g", want, result.OverallScore())
	}
}

func TestWithModalityWeightsRejectsMissing(t *testing.T) {
	svc := mustNew(t)

	_, err := svc.WithModalityWeights(map[domain.Modality]float64{
		domain.ModalityText: 1,
	})
	if err == nil {
		t.Error("expected error for missing modality weight")
	}
}

func TestWithModalityWeightsRejectsNonPositive(t *testing.T) {
	svc := mustNew(t)

	_, err := svc.WithModalityWeights(map[domain.Modality]float64{
		domain.ModalityText:       0,
		domain.ModalityImage:      1,
		domain.ModalityPreference: 1,
	})
	if err == nil {
		t.Error("expected error for zero weight")
	}
}

// --- jaccard ---

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"identical", []string{"a", "b"}, []string{"a", "b"}, 1},
		{"disjoint", []string{"a"}, []string{"b"}, 0},
		{"partial", []string{"a", "b", "c"}, []string{"b", "c", "d"}, 0.5},
		{"both empty", nil, nil, 1},
		{"one empty", []string{"a"}, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := jaccard(tt.a, tt.b); !approxEqual(got, tt.want) {
				t.Errorf("jaccard(%v, %v) = %g, want %g", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
