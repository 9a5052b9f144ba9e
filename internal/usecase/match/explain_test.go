package match

import (
	"reflect"
	"strings"
	"testing"

	"github.com/homies-app/matchsvc/internal/domain"
	dommatch "github.com/homies-app/matchsvc/internal/domain/match"
)

func TestBuildFactorsOrderedByImpact(t *testing.T) {
	comparisons := []dommatch.Comparison{
		dommatch.NewComparison(domain.ModalityText, 0.5, []dommatch.Contribution{
			dommatch.NewContribution("sentiment", "overall tone", 0.9, 0.3),   // 0.27
			dommatch.NewContribution("keywords", "shared themes", 0.2, 0.25),  // 0.05
			dommatch.NewContribution("cleanliness_pref", "tidiness", 1, 0.45), // 0.45
		}),
	}

	got := BuildFactors(comparisons, 6)
	want := []string{
		"Strong alignment on tidiness",
		"Strong alignment on overall tone",
		"Low alignment on shared themes",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestBuildFactorsCapped(t *testing.T) {
	var contributions []dommatch.Contribution
	for i := 0; i < 4; i++ {
		contributions = append(contributions,
			dommatch.NewContribution("f", "label", 0.5, 0.25))
	}
	comparisons := []dommatch.Comparison{
		dommatch.NewComparison(domain.ModalityText, 0.5, contributions),
		dommatch.NewComparison(domain.ModalityImage, 0.5, contributions),
	}

	got := BuildFactors(comparisons, 6)
	if len(got) != 6 {
		t.Errorf("expected 6 factors, got %d", len(got))
	}
}

func TestBuildFactorsTieBreaksByModalityPriority(t *testing.T) {
	// Equal impact everywhere: text outranks image, image outranks
	// preference, and schema order breaks ties within a modality.
	comparisons := []dommatch.Comparison{
		dommatch.NewComparison(domain.ModalityPreference, 0.5, []dommatch.Contribution{
			dommatch.NewContribution("interests", "preference first", 0.5, 0.2),
		}),
		dommatch.NewComparison(domain.ModalityText, 0.5, []dommatch.Contribution{
			dommatch.NewContribution("sentiment", "text first", 0.5, 0.2),
			dommatch.NewContribution("keywords", "text second", 0.5, 0.2),
		}),
		dommatch.NewComparison(domain.ModalityImage, 0.5, []dommatch.Contribution{
			dommatch.NewContribution("room_style", "image first", 0.5, 0.2),
		}),
	}

	got := BuildFactors(comparisons, 6)
	want := []string{
		"Partial alignment on text first",
		"Partial alignment on text second",
		"Partial alignment on image first",
		"Partial alignment on preference first",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestBuildFactorsEmpty(t *testing.T) {
	if got := BuildFactors(nil, 6); len(got) != 0 {
		t.Errorf("expected no factors, got %v", got)
	}
}

func TestSimilarityBand(t *testing.T) {
	tests := []struct {
		sim  float64
		want string
	}{
		{0.95, "Strong alignment"},
		{0.85, "Strong alignment"},
		{0.7, "Good alignment"},
		{0.65, "Good alignment"},
		{0.5, "Partial alignment"},
		{0.40, "Partial alignment"},
		{0.1, "Low alignment"},
		{0, "Low alignment"},
	}
	for _, tt := range tests {
		if got := similarityBand(tt.sim); got != tt.want {
			t.Errorf("similarityBand(%g) = %q, want %q", tt.sim, got, tt.want)
		}
	}
}

func TestFactorTextMentionsLabel(t *testing.T) {
	c := dommatch.NewContribution("interests", "shared interests", 0.9, 0.4)
	if got := factorText(c); !strings.Contains(got, "shared interests") {
		t.Errorf("expected label in factor text, got %q", got)
	}
}
