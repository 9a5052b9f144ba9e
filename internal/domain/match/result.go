// Package match holds the compatibility engine's output model.
package match

import "github.com/homies-app/matchsvc/internal/domain"

// Contribution is one feature's share of a modality comparison:
// (feature, similarity, weight), kept for explainability.
type Contribution struct {
	feature    string
	label      string
	similarity float64
	weight     float64
}

// NewContribution creates a contribution record.
func NewContribution(feature, label string, similarity, weight float64) Contribution {
	return Contribution{feature: feature, label: label, similarity: similarity, weight: weight}
}

// Feature returns the feature name.
func (c Contribution) Feature() string { return c.feature }

// Label returns the human-readable feature label.
func (c Contribution) Label() string { return c.label }

// Similarity returns the per-feature similarity in [0,1].
func (c Contribution) Similarity() float64 { return c.similarity }

// Weight returns the feature's declared weight within its modality.
func (c Contribution) Weight() float64 { return c.weight }

// Impact returns similarity × weight, the explanation ranking key.
func (c Contribution) Impact() float64 { return c.similarity * c.weight }

// Comparison is the cross-subject comparison of one modality pair.
// Produced by the engine, consumed by the explanation builder and the
// final weighted reduction.
type Comparison struct {
	modality      domain.Modality
	score         float64
	contributions []Contribution
}

// NewComparison creates a modality comparison. Contributions keep the
// schema declaration order.
func NewComparison(m domain.Modality, score float64, contributions []Contribution) Comparison {
	copied := make([]Contribution, len(contributions))
	copy(copied, contributions)
	return Comparison{modality: m, score: score, contributions: copied}
}

// Modality returns the compared modality.
func (c *Comparison) Modality() domain.Modality { return c.modality }

// Score returns the weighted modality score in [0,1].
func (c *Comparison) Score() float64 { return c.score }

// Contributions returns the per-feature contribution records in schema order.
func (c *Comparison) Contributions() []Contribution {
	out := make([]Contribution, len(c.contributions))
	copy(out, c.contributions)
	return out
}

// Result is the terminal match object returned to the caller. Not mutated
// after construction.
type Result struct {
	overallScore float64
	perModality  map[domain.Modality]float64
	factors      []string
	confidence   float64
}

// NewResult creates a match result. Maps and slices are copied.
func NewResult(
	overallScore float64,
	perModality map[domain.Modality]float64,
	factors []string,
	confidence float64,
) Result {
	pm := make(map[domain.Modality]float64, len(perModality))
	for m, s := range perModality {
		pm[m] = s
	}
	fs := make([]string, len(factors))
	copy(fs, factors)
	return Result{overallScore: overallScore, perModality: pm, factors: fs, confidence: confidence}
}

// OverallScore returns the convex combination over shared modalities.
func (r *Result) OverallScore() float64 { return r.overallScore }

// PerModalityScores returns a copy of the per-modality scores. Modalities
// absent for either subject do not appear.
func (r *Result) PerModalityScores() map[domain.Modality]float64 {
	out := make(map[domain.Modality]float64, len(r.perModality))
	for m, s := range r.perModality {
		out[m] = s
	}
	return out
}

// Factors returns the compatibility factors, highest impact first.
func (r *Result) Factors() []string {
	out := make([]string, len(r.factors))
	copy(out, r.factors)
	return out
}

// Confidence returns the evidence-weighted confidence of the match.
func (r *Result) Confidence() float64 { return r.confidence }
