package match

import (
	"fmt"
	"sort"

	dommatch "github.com/homies-app/matchsvc/internal/domain/match"
)

// rankedFactor is one contribution tagged with its sort keys.
type rankedFactor struct {
	contribution     dommatch.Contribution
	modalityPriority int
	schemaIndex      int
}

// BuildFactors turns modality comparisons into human-readable
// compatibility factors, highest impact (similarity × weight) first.
// Ties break by declared modality priority, then schema feature order.
// Output is capped at limit so explanations stay bounded as schemas grow.
func BuildFactors(comparisons []dommatch.Comparison, limit int) []string {
	var ranked []rankedFactor
	for i := range comparisons {
		priority := comparisons[i].Modality().Priority()
		for idx, c := range comparisons[i].Contributions() {
			ranked = append(ranked, rankedFactor{
				contribution:     c,
				modalityPriority: priority,
				schemaIndex:      idx,
			})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		ii, ij := ranked[i].contribution.Impact(), ranked[j].contribution.Impact()
		if ii != ij {
			return ii > ij
		}
		if ranked[i].modalityPriority != ranked[j].modalityPriority {
			return ranked[i].modalityPriority < ranked[j].modalityPriority
		}
		return ranked[i].schemaIndex < ranked[j].schemaIndex
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	factors := make([]string, 0, len(ranked))
	for _, r := range ranked {
		factors = append(factors, factorText(r.contribution))
	}
	return factors
}

// factorText renders one contribution as a sentence fragment like
// "Strong alignment on shared interests".
func factorText(c dommatch.Contribution) string {
	return fmt.Sprintf("%s on %s", similarityBand(c.Similarity()), c.Label())
}

// similarityBand maps a similarity to a qualitative description.
func similarityBand(sim float64) string {
	switch {
	case sim >= 0.85:
		return "Strong alignment"
	case sim >= 0.65:
		return "Good alignment"
	case sim >= 0.40:
		return "Partial alignment"
	default:
		return "Low alignment"
	}
}
