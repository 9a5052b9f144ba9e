package chi

import (
	"github.com/homies-app/matchsvc/internal/domain"
	dommatch "github.com/homies-app/matchsvc/internal/domain/match"
	"github.com/homies-app/matchsvc/internal/domain/signal"
)

// Error codes returned to clients.
const (
	codeBadRequest          = "bad_request"
	codeValidationFailed    = "validation_failed"
	codeInsufficientSignal  = "insufficient_signal"
	codeAnalyzerUnavailable = "analyzer_unavailable"
	codeInternalError       = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type preferencesDTO struct {
	Interests      []string `json:"interests"`
	Lifestyle      string   `json:"lifestyle"`
	NoiseTolerance float64  `json:"noise_tolerance"`
}

type subjectDTO struct {
	ID          string          `json:"id"`
	Description string          `json:"description,omitempty"`
	PhotoURLs   []string        `json:"photo_urls,omitempty"`
	Preferences *preferencesDTO `json:"preferences,omitempty"`
}

type matchRequest struct {
	SubjectA subjectDTO `json:"subject_a"`
	SubjectB subjectDTO `json:"subject_b"`
}

type matchResponse struct {
	OverallScore         float64            `json:"overall_score"`
	PerModalityScores    map[string]float64 `json:"per_modality_scores"`
	CompatibilityFactors []string           `json:"compatibility_factors"`
	Confidence           float64            `json:"confidence"`
	ProcessingTimeMs     int64              `json:"processing_time_ms"`
}

type analyzeRequest struct {
	Subject subjectDTO `json:"subject"`
}

type bundleDTO struct {
	Features   map[string]any `json:"features"`
	Confidence float64        `json:"confidence"`
}

type analyzeResponse struct {
	SubjectID string               `json:"subject_id"`
	Bundles   map[string]bundleDTO `json:"bundles"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func profileFromDTO(s subjectDTO) domain.SubjectProfile {
	profile := domain.SubjectProfile{
		Description: s.Description,
		PhotoURLs:   s.PhotoURLs,
	}
	if s.Preferences != nil {
		profile.Preferences = &domain.Preferences{
			Interests:      s.Preferences.Interests,
			Lifestyle:      s.Preferences.Lifestyle,
			NoiseTolerance: s.Preferences.NoiseTolerance,
		}
	}
	return profile
}

func matchResultToDTO(r *dommatch.Result, processingMs int64) matchResponse {
	perModality := make(map[string]float64, len(r.PerModalityScores()))
	for m, score := range r.PerModalityScores() {
		perModality[string(m)] = score
	}
	return matchResponse{
		OverallScore:         r.OverallScore(),
		PerModalityScores:    perModality,
		CompatibilityFactors: r.Factors(),
		Confidence:           r.Confidence(),
		ProcessingTimeMs:     processingMs,
	}
}

func bundlesToDTO(bundles map[domain.Modality]signal.Bundle) map[string]bundleDTO {
	out := make(map[string]bundleDTO, len(bundles))
	for m, b := range bundles {
		features := make(map[string]any, len(b.Features()))
		for name, v := range b.Features() {
			switch v.Kind() {
			case signal.KindNumeric:
				features[name] = v.Number()
			case signal.KindCategorical:
				features[name] = v.Category()
			case signal.KindSet:
				features[name] = v.Set()
			}
		}
		out[string(m)] = bundleDTO{Features: features, Confidence: b.Confidence()}
	}
	return out
}
